package fingerprint

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"math/rand/v2"
	"slices"
	"testing"
)

func randomValues(rng *rand.Rand, n int) []uint32 {
	values := make([]uint32, n)
	for i := range values {
		values[i] = rng.Uint32()
	}
	return values
}

func TestCompressKnownVectors(t *testing.T) {
	tests := []struct {
		name      string
		algorithm uint8
		values    []uint32
		wantHex   string
		wantText  string
	}{
		{"empty", 1, []uint32{}, "01000000", "AQAAAA"},
		{"single", 1, []uint32{1}, "0100000101", "AQAAAQE"},
		{"small deltas", 1, []uint32{0, 1, 3, 7}, "01000004088401", "AQAABAiEAQ"},
		{"exceptional bits", 2, []uint32{0x80000000, 0x80000000, 1}, "020000030772001903", "AgAAAwdyABkD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Compress(tt.algorithm, tt.values)
			if err != nil {
				t.Fatalf("Compress failed: %v", err)
			}
			if got := hex.EncodeToString(data); got != tt.wantHex {
				t.Errorf("Compress = %s, expected %s", got, tt.wantHex)
			}

			text, err := Encode(tt.values, tt.algorithm)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if text != tt.wantText {
				t.Errorf("Encode = %q, expected %q", text, tt.wantText)
			}

			fp, err := Decode(tt.wantText)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if fp.Algorithm != tt.algorithm {
				t.Errorf("algorithm = %d, expected %d", fp.Algorithm, tt.algorithm)
			}
			if !slices.Equal(fp.Raw, tt.values) {
				t.Errorf("Decode = %v, expected %v", fp.Raw, tt.values)
			}
		})
	}
}

func TestCompressRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	lengths := []int{0, 1, 2, 3, 7, 8, 9, 100, 1000, 10000}
	for n := 10; n < 64; n++ {
		lengths = append(lengths, n)
	}

	for _, n := range lengths {
		algorithm := uint8(rng.UintN(256))
		values := randomValues(rng, n)

		data, err := Compress(algorithm, values)
		if err != nil {
			t.Fatalf("Compress(%d values) failed: %v", n, err)
		}
		fp, err := Decompress(data)
		if err != nil {
			t.Fatalf("Decompress(%d values) failed: %v", n, err)
		}
		if fp.Algorithm != algorithm {
			t.Errorf("%d values: algorithm = %d, expected %d", n, fp.Algorithm, algorithm)
		}
		if !slices.Equal(fp.Raw, values) {
			t.Errorf("%d values: round trip mismatch", n)
		}
		for i, v := range fp.Raw {
			if v == UnsetValue && values[i] != UnsetValue {
				t.Fatalf("%d values: slot %d left unset", n, i)
			}
		}
	}
}

func TestCompressHeader(t *testing.T) {
	values := make([]uint32, 0x012345)
	data, err := Compress(9, values)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if !bytes.Equal(data[:4], []byte{9, 0x01, 0x23, 0x45}) {
		t.Errorf("header = %x, expected 09012345", data[:4])
	}
}

func TestCompressTooLong(t *testing.T) {
	_, err := Compress(0, make([]uint32, MaxValues+1))
	if !errors.Is(err, ErrLength) {
		t.Fatalf("expected ErrLength, got %v", err)
	}
	var lengthErr *LengthError
	if !errors.As(err, &lengthErr) {
		t.Fatalf("expected *LengthError, got %T", err)
	}
}

func TestDecompressErrors(t *testing.T) {
	valid, err := Compress(2, []uint32{0x80000000, 0x80000000, 1})
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}

	inflated := bytes.Clone(valid)
	inflated[3] = 10

	tests := []struct {
		name string
		data []byte
	}{
		{"nil", nil},
		{"short header", []byte{1, 0, 0}},
		{"count without data", []byte{1, 0, 0, 1}},
		{"inflated count", inflated},
		{"truncated exceptional", valid[:len(valid)-1]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp, err := Decompress(tt.data)
			if err == nil {
				t.Fatalf("expected error, got %v", fp)
			}
			if !errors.Is(err, ErrFormat) {
				t.Errorf("expected ErrFormat, got %v", err)
			}
		})
	}
}

func TestDecompressEmpty(t *testing.T) {
	fp, err := Decompress([]byte{3, 0, 0, 0})
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if fp.Algorithm != 3 || fp.Len() != 0 {
		t.Errorf("got algorithm %d with %d values, expected 3 with 0", fp.Algorithm, fp.Len())
	}
}

func TestDecodeErrors(t *testing.T) {
	for _, s := range []string{"", "AQ!A", "AQA", "AQAAAA$$"} {
		if _, err := Decode(s); !errors.Is(err, ErrFormat) {
			t.Errorf("Decode(%q): expected ErrFormat, got %v", s, err)
		}
	}
}

func TestBase64RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	for n := 0; n <= 1000; n++ {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(rng.UintN(256))
		}

		text := EncodeBase64(data)
		if want := base64.RawURLEncoding.EncodeToString(data); text != want {
			t.Fatalf("EncodeBase64(%d bytes) = %q, expected %q", n, text, want)
		}
		if want := (n*4 + 2) / 3; len(text) != want {
			t.Fatalf("EncodeBase64(%d bytes) has length %d, expected %d", n, len(text), want)
		}

		for _, s := range []string{text, EncodeBase64Padded(data), text + "\x00", " " + text + "\n"} {
			got, err := DecodeBase64(s)
			if err != nil {
				t.Fatalf("DecodeBase64(%q) failed: %v", s, err)
			}
			if !bytes.Equal(got, data) {
				t.Fatalf("DecodeBase64 of %d bytes mismatch", n)
			}
		}
	}
}

func TestDecodeBase64(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []byte
	}{
		{"url alphabet", "-_8", []byte{0xfb, 0xff}},
		{"padded", "AQ==", []byte{0x01}},
		{"dangling char", "AQAAA", []byte{0x01, 0x00, 0x00}},
		{"empty", "", []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeBase64(tt.input)
			if err != nil {
				t.Fatalf("DecodeBase64(%q) failed: %v", tt.input, err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("DecodeBase64(%q) = %x, expected %x", tt.input, got, tt.want)
			}
		})
	}

	if _, err := DecodeBase64("ab+/"); !errors.Is(err, ErrFormat) {
		t.Errorf("standard alphabet: expected ErrFormat, got %v", err)
	}
}

func TestAlignHashes(t *testing.T) {
	fp := New(1, []uint32{0xfff00000, 0x00000001, 0x00100000, 0x001fffff, 0xfff12345})
	got := fp.AlignHashes()
	want := []uint32{0x000, 0x001, 0xfff}
	if !slices.Equal(got, want) {
		t.Errorf("AlignHashes = %x, expected %x", got, want)
	}
}
