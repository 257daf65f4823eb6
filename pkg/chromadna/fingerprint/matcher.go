package fingerprint

import (
	"math"
	"math/bits"
	"math/rand/v2"
	"slices"

	"github.com/himanishpuri/chromadna/pkg/chromadna/signal"
)

// ------------------------ TUNABLES ------------------------
const (
	// DefaultMatchThreshold is the mean bit error per frame above which a
	// segment no longer counts as matching.
	DefaultMatchThreshold = 10.0

	// AlignBits is the number of high bits of a feature value used as the
	// coarse hash when searching for the best alignment.
	AlignBits = 12

	hashShift         = 32 - AlignBits
	hashMask   uint32 = (1<<AlignBits - 1) << hashShift
	offsetMask uint32 = 1<<(32-AlignBits-1) - 1
	sourceMask uint32 = 1 << (32 - AlignBits - 1)

	// MaxMatchLength is the exclusive upper bound on len+1 of either input
	// to Match; longer inputs would overflow the index bits of a key.
	MaxMatchLength = int(offsetMask)

	smoothingPasses = 3
	smoothingSigma  = 8.0
	peakThreshold   = 0.15
	mergeScoreDiff  = 0.7
	maxJitter       = 0.001
)

// MatchResult summarises how much of two fingerprints match and how well.
//
// Duration is the matched share of the overlapping frames as a percentage
// with one decimal. Score is 100 * (1 - meanSegmentScore/threshold), also
// rounded to one decimal. Only segments below the threshold are kept, so both
// lie in [0, 100]. Both are 0 when no alignment or no segment below the
// threshold was found.
type MatchResult struct {
	Duration float64 `json:"duration"`
	Score    float64 `json:"score"`
	// Offset is the frame shift of the explored alignment: frame i of the
	// second fingerprint lines up with frame i+Offset of the first.
	Offset   int       `json:"offset"`
	Segments []Segment `json:"segments,omitempty"`
}

// JitterFunc returns the small value added to every per-frame bit error to
// break ties in flat regions of the error curve.
type JitterFunc func() float64

// NoJitter disables the tie-breaking jitter, making Match deterministic.
func NoJitter() float64 { return 0 }

// Matcher compares fingerprints. The zero value is not usable; build one
// with NewMatcher.
type Matcher struct {
	threshold float64
	jitter    JitterFunc
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithThreshold sets the match threshold. Non-positive values are ignored.
func WithThreshold(threshold float64) MatcherOption {
	return func(m *Matcher) {
		if threshold > 0 {
			m.threshold = threshold
		}
	}
}

// WithJitter replaces the per-call random jitter source.
func WithJitter(jitter JitterFunc) MatcherOption {
	return func(m *Matcher) {
		m.jitter = jitter
	}
}

// NewMatcher returns a Matcher using DefaultMatchThreshold and a fresh random
// jitter source per Match call unless overridden.
func NewMatcher(opts ...MatcherOption) *Matcher {
	m := &Matcher{threshold: DefaultMatchThreshold}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Threshold returns the configured match threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match compares raw1 and raw2 with the given threshold.
func Match(threshold float64, raw1, raw2 []uint32) (*MatchResult, error) {
	return NewMatcher(WithThreshold(threshold)).Match(raw1, raw2)
}

func newRandomJitter() JitterFunc {
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	return func() float64 {
		return rng.Float64() * maxJitter
	}
}

// Match estimates whether raw1 and raw2 contain the same audio.
//
// Frames of both inputs are bucketed by AlignHash and every cross-input pair
// within a bucket votes for its index offset. Only the offset with the most
// votes is explored: the per-frame Hamming distance over the overlap is
// smoothed, cut into segments at the peaks of its gradient, and segments with
// a mean error below the threshold are kept.
func (m *Matcher) Match(raw1, raw2 []uint32) (*MatchResult, error) {
	if len(raw1)+1 >= MaxMatchLength {
		return nil, &LengthError{Reason: "fingerprint 1 is too long"}
	}
	if len(raw2)+1 >= MaxMatchLength {
		return nil, &LengthError{Reason: "fingerprint 2 is too long"}
	}

	alignments := bestAlignments(raw1, raw2)
	if len(alignments) == 0 {
		return &MatchResult{}, nil
	}

	jitter := m.jitter
	if jitter == nil {
		jitter = newRandomJitter()
	}

	// TODO: fall back to the next alignments when the best one keeps no
	// segment; only the first is explored for now.
	best := alignments[0]

	offsetDiff := best.index - len(raw2)
	offset1 := max(offsetDiff, 0)
	offset2 := max(-offsetDiff, 0)
	size := min(len(raw1)-offset1, len(raw2)-offset2)

	bitCounts := make([]float64, size)
	for i := range bitCounts {
		bitCounts[i] = float64(bits.OnesCount32(raw1[offset1+i]^raw2[offset2+i])) + jitter()
	}

	smoothed := signal.GaussianFilter(bitCounts, smoothingPasses, smoothingSigma)
	g := signal.Abs(signal.Gradient(smoothed))
	boundaries := append(signal.DetectPeaks(g, peakThreshold), size)

	var segments []Segment
	begin := 0
	for _, end := range boundaries {
		score := mean(bitCounts[begin:end])
		if score < m.threshold {
			segments = appendSegment(segments, NewSegment(offset1+begin, offset2+begin, end-begin, score))
		}
		begin = end
	}

	result := &MatchResult{Offset: offsetDiff, Segments: segments}
	if len(segments) == 0 {
		return result, nil
	}

	var totalDuration int
	var totalScore float64
	for _, s := range segments {
		totalDuration += s.Duration
		totalScore += s.Score
	}
	result.Duration = math.Round(float64(totalDuration)/float64(size)*1000) / 10
	result.Score = math.Round((1-totalScore/float64(len(segments))/m.threshold)*1000) / 10
	return result, nil
}

// appendSegment merges seg into the last segment when their scores are close
// and they touch, and appends it otherwise.
func appendSegment(segments []Segment, seg Segment) []Segment {
	if n := len(segments); n > 0 && math.Abs(segments[n-1].Score-seg.Score) < mergeScoreDiff {
		if merged, ok := segments[n-1].Merge(seg); ok {
			segments[n-1] = merged
			return segments
		}
	}
	return append(segments, seg)
}

type alignment struct {
	index int
	count uint32
}

// bestAlignments returns the local maxima of the offset histogram with more
// than one vote, most votes first. Histogram index i stands for offset
// i - len(raw2).
func bestAlignments(raw1, raw2 []uint32) []alignment {
	keys := make([]uint32, 0, len(raw1)+len(raw2))
	for i, x := range raw1 {
		keys = append(keys, AlignHash(x)<<hashShift|uint32(i)&offsetMask)
	}
	for i, x := range raw2 {
		keys = append(keys, AlignHash(x)<<hashShift|uint32(i)&offsetMask|sourceMask)
	}
	// Sorting groups keys by hash, then by source, then by index.
	slices.Sort(keys)

	histogram := make([]uint32, len(raw1)+len(raw2))
	for start := 0; start < len(keys); {
		hash := keys[start] & hashMask
		end, split := start, start
		for end < len(keys) && keys[end]&hashMask == hash {
			if keys[end]&sourceMask == 0 {
				split = end + 1
			}
			end++
		}
		for _, k1 := range keys[start:split] {
			offset1 := int(k1 & offsetMask)
			for _, k2 := range keys[split:end] {
				histogram[offset1+len(raw2)-int(k2&offsetMask)]++
			}
		}
		start = end
	}

	var alignments []alignment
	for i, count := range histogram {
		if count <= 1 {
			continue
		}
		isPeakLeft := i == 0 || histogram[i-1] <= count
		isPeakRight := i >= len(histogram)-1 || histogram[i+1] <= count
		if isPeakLeft && isPeakRight {
			alignments = append(alignments, alignment{index: i, count: count})
		}
	}
	slices.SortStableFunc(alignments, func(a, b alignment) int {
		switch {
		case a.count > b.count:
			return -1
		case a.count < b.count:
			return 1
		}
		return 0
	})
	return alignments
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
