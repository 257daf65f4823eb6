// Package fingerprint implements the compact chromaprint-style fingerprint
// format and the matcher that compares two fingerprints.
//
// A fingerprint is an array of 32-bit feature values, one per audio frame,
// each a bitmask of active frequency bands. On the wire it travels as packed
// bytes (see Compress) rendered with a URL-safe base64 alphabet (see
// EncodeBase64). Decode and Encode combine both steps.
//
// Everything in this package is a pure function over its arguments; values
// may be shared between goroutines as long as nobody mutates them.
package fingerprint

import (
	"slices"

	"github.com/pkg/errors"
)

// Fingerprint is a decoded fingerprint.
type Fingerprint struct {
	// Algorithm is the identifier of the extractor that produced Raw. It is
	// carried through encoding unchanged.
	Algorithm uint8
	// Raw holds one feature value per frame.
	Raw []uint32
}

// New wraps a feature array. The slice is not copied.
func New(algorithm uint8, raw []uint32) *Fingerprint {
	return &Fingerprint{Algorithm: algorithm, Raw: raw}
}

// Decode parses an encoded fingerprint string into its feature array.
func Decode(encoded string) (*Fingerprint, error) {
	data, err := DecodeBase64(encoded)
	if err != nil {
		return nil, errors.WithMessage(err, "decoding fingerprint")
	}
	fp, err := Decompress(data)
	if err != nil {
		return nil, errors.WithMessage(err, "decoding fingerprint")
	}
	return fp, nil
}

// Encode compresses raw and renders it as an encoded fingerprint string.
func Encode(raw []uint32, algorithm uint8) (string, error) {
	data, err := Compress(algorithm, raw)
	if err != nil {
		return "", errors.WithMessage(err, "encoding fingerprint")
	}
	return EncodeBase64(data), nil
}

// Len returns the number of frames.
func (f *Fingerprint) Len() int {
	return len(f.Raw)
}

// Compress packs the fingerprint into the binary format.
func (f *Fingerprint) Compress() ([]byte, error) {
	return Compress(f.Algorithm, f.Raw)
}

// Encode renders the fingerprint as an encoded string.
func (f *Fingerprint) Encode() (string, error) {
	return Encode(f.Raw, f.Algorithm)
}

// Match compares f with other using DefaultMatchThreshold.
func (f *Fingerprint) Match(other *Fingerprint) (*MatchResult, error) {
	return Match(DefaultMatchThreshold, f.Raw, other.Raw)
}

// AlignHash returns the coarse hash the matcher aligns frames on: the top
// AlignBits bits of the value.
func AlignHash(x uint32) uint32 {
	return x >> (32 - AlignBits)
}

// AlignHashes returns the distinct alignment hashes of the fingerprint in
// ascending order. Two fingerprints that share none of them can never align.
func (f *Fingerprint) AlignHashes() []uint32 {
	hashes := make([]uint32, len(f.Raw))
	for i, x := range f.Raw {
		hashes[i] = AlignHash(x)
	}
	slices.Sort(hashes)
	return slices.Compact(hashes)
}
