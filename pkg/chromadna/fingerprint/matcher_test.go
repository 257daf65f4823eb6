package fingerprint

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"
)

func deterministicMatcher() *Matcher {
	return NewMatcher(WithJitter(NoJitter))
}

func TestMatchIdentical(t *testing.T) {
	a := []uint32{0x00000000, 0x00000001, 0x00000003, 0x00000007}

	result, err := deterministicMatcher().Match(a, a)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if result.Score != 100 || result.Duration != 100 {
		t.Errorf("got score %v duration %v, expected 100 and 100", result.Score, result.Duration)
	}
	if result.Offset != 0 {
		t.Errorf("offset = %d, expected 0", result.Offset)
	}
}

func TestMatchIdenticalBeatsDissimilar(t *testing.T) {
	a := []uint32{0x00000000, 0x00000001, 0x00000003, 0x00000007}
	b := []uint32{0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF}

	same, err := Match(DefaultMatchThreshold, a, a)
	if err != nil {
		t.Fatalf("Match(a, a) failed: %v", err)
	}
	different, err := Match(DefaultMatchThreshold, a, b)
	if err != nil {
		t.Fatalf("Match(a, b) failed: %v", err)
	}
	if same.Score < different.Score {
		t.Errorf("identical score %v is below dissimilar score %v", same.Score, different.Score)
	}
	if different.Score != 0 || different.Duration != 0 {
		t.Errorf("dissimilar: got score %v duration %v, expected 0 and 0", different.Score, different.Duration)
	}
}

func TestMatchEmpty(t *testing.T) {
	for _, pair := range [][2][]uint32{
		{nil, nil},
		{nil, {1, 2, 3}},
		{{1, 2, 3}, {}},
	} {
		result, err := Match(DefaultMatchThreshold, pair[0], pair[1])
		if err != nil {
			t.Fatalf("Match failed: %v", err)
		}
		if result.Score != 0 || result.Duration != 0 {
			t.Errorf("got score %v duration %v, expected 0 and 0", result.Score, result.Duration)
		}
	}
}

func TestMatchRandomSelf(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	a := randomValues(rng, 500)

	result, err := deterministicMatcher().Match(a, a)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if result.Score != 100 || result.Duration != 100 {
		t.Errorf("got score %v duration %v, expected 100 and 100", result.Score, result.Duration)
	}
	if len(result.Segments) != 1 || result.Segments[0].Duration != 500 {
		t.Errorf("expected one segment of 500 frames, got %+v", result.Segments)
	}
}

func TestMatchFindsOffset(t *testing.T) {
	rng := rand.New(rand.NewPCG(4, 8))
	a := randomValues(rng, 600)
	b := slices.Clone(a[50:450])

	result, err := deterministicMatcher().Match(a, b)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if result.Offset != 50 {
		t.Errorf("offset = %d, expected 50", result.Offset)
	}
	if result.Score != 100 || result.Duration != 100 {
		t.Errorf("got score %v duration %v, expected 100 and 100", result.Score, result.Duration)
	}
	if len(result.Segments) == 0 || result.Segments[0].Pos1 != 50 || result.Segments[0].Pos2 != 0 {
		t.Errorf("unexpected segments %+v", result.Segments)
	}

	reversed, err := deterministicMatcher().Match(b, a)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if reversed.Offset != -50 {
		t.Errorf("reversed offset = %d, expected -50", reversed.Offset)
	}
}

func TestMatchAlignedButNoisy(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 9))
	a := randomValues(rng, 300)
	b := make([]uint32, len(a))
	for i, x := range a {
		// Same alignment hash, 20 differing bits per frame.
		b[i] = x ^ 0x000FFFFF
	}

	result, err := deterministicMatcher().Match(a, b)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if result.Score != 0 || result.Duration != 0 || len(result.Segments) != 0 {
		t.Errorf("expected no match, got %+v", result)
	}
}

func TestMatchDegradesWithNoise(t *testing.T) {
	const (
		size   = 500
		trials = 4
	)
	rng := rand.New(rand.NewPCG(42, 24))
	m := deterministicMatcher()

	prev := 101.0
	for _, flips := range []int{0, 100, 1000, 3000} {
		var total float64
		for trial := 0; trial < trials; trial++ {
			a := randomValues(rng, size)
			b := slices.Clone(a)
			for k := 0; k < flips; k++ {
				b[rng.IntN(size)] ^= 1 << rng.IntN(32)
			}
			result, err := m.Match(a, b)
			if err != nil {
				t.Fatalf("Match failed: %v", err)
			}
			total += result.Score
		}
		avg := total / trials
		if avg > prev {
			t.Errorf("%d flipped bits: average score %v above %v for fewer flips", flips, avg, prev)
		}
		prev = avg
	}
}

func TestMatchTooLong(t *testing.T) {
	long := make([]uint32, MaxMatchLength)
	short := []uint32{1, 2, 3}

	if _, err := Match(DefaultMatchThreshold, long, short); !errors.Is(err, ErrLength) {
		t.Errorf("first argument: expected ErrLength, got %v", err)
	}
	if _, err := Match(DefaultMatchThreshold, short, long); !errors.Is(err, ErrLength) {
		t.Errorf("second argument: expected ErrLength, got %v", err)
	}
	if _, err := Match(DefaultMatchThreshold, long[:MaxMatchLength-2], short); err != nil {
		t.Errorf("longest accepted input: unexpected error %v", err)
	}
}

func TestMatcherThreshold(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, DefaultMatchThreshold},
		{-3, DefaultMatchThreshold},
		{4.5, 4.5},
	}
	for _, tt := range tests {
		if got := NewMatcher(WithThreshold(tt.in)).Threshold(); got != tt.want {
			t.Errorf("WithThreshold(%v): threshold %v, expected %v", tt.in, got, tt.want)
		}
	}
}

func TestMatchThresholdScalesScore(t *testing.T) {
	a := []uint32{0, 1, 3, 7, 15, 31, 63, 127}
	b := make([]uint32, len(a))
	for i, x := range a {
		b[i] = x ^ 0b11 // two differing bits per frame
	}

	strict, err := NewMatcher(WithThreshold(4), WithJitter(NoJitter)).Match(a, b)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if strict.Score != 50 {
		t.Errorf("threshold 4: score %v, expected 50", strict.Score)
	}

	loose, err := NewMatcher(WithThreshold(10), WithJitter(NoJitter)).Match(a, b)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if loose.Score != 80 {
		t.Errorf("threshold 10: score %v, expected 80", loose.Score)
	}
}

func TestBestAlignmentsOrder(t *testing.T) {
	a := []uint32{0x00100000, 0x00200000, 0x00300000, 0x00400000}
	alignments := bestAlignments(a, a)
	if len(alignments) == 0 {
		t.Fatal("expected at least one alignment")
	}
	if alignments[0].index != len(a) || alignments[0].count != uint32(len(a)) {
		t.Errorf("best alignment = %+v, expected index %d count %d", alignments[0], len(a), len(a))
	}

	disjoint := []uint32{0xfff00000, 0xfff00001}
	if got := bestAlignments(a, disjoint); len(got) != 0 {
		t.Errorf("disjoint hashes: expected no alignment, got %+v", got)
	}
}

func TestSegmentMerge(t *testing.T) {
	left := NewSegment(10, 20, 30, 2.0)
	right := NewSegment(40, 50, 10, 6.0)

	merged, ok := left.Merge(right)
	if !ok {
		t.Fatal("expected contiguous segments to merge")
	}
	want := Segment{Pos1: 10, Pos2: 20, Duration: 40, Score: 3.0, LeftScore: 2.0, RightScore: 6.0}
	if merged != want {
		t.Errorf("Merge = %+v, expected %+v", merged, want)
	}

	gap := NewSegment(41, 51, 10, 2.0)
	if got, ok := left.Merge(gap); ok || got != left {
		t.Errorf("non-contiguous merge: got %+v, %v", got, ok)
	}
}

func TestAppendSegment(t *testing.T) {
	first := NewSegment(0, 0, 10, 1.0)

	segments := appendSegment(nil, first)
	segments = appendSegment(segments, NewSegment(10, 10, 10, 1.5))
	if len(segments) != 1 || segments[0].Duration != 20 {
		t.Fatalf("close contiguous segment should merge, got %+v", segments)
	}

	segments = appendSegment(segments, NewSegment(20, 20, 5, 5.0))
	if len(segments) != 2 {
		t.Fatalf("distant score should append, got %+v", segments)
	}

	segments = appendSegment(segments, NewSegment(30, 30, 5, 5.1))
	if len(segments) != 3 {
		t.Fatalf("non-contiguous segment should append, got %+v", segments)
	}
}
