package fingerprint

// Segment is a run of aligned frames with a low bit error. Pos1 and Pos2 are
// the first frame of the run in each fingerprint, Score is the mean number of
// differing bits per frame. LeftScore and RightScore keep the scores of the
// first and last piece once segments have been merged.
type Segment struct {
	Pos1       int     `json:"pos1"`
	Pos2       int     `json:"pos2"`
	Duration   int     `json:"duration"`
	Score      float64 `json:"score"`
	LeftScore  float64 `json:"left_score"`
	RightScore float64 `json:"right_score"`
}

// NewSegment returns an unmerged segment.
func NewSegment(pos1, pos2, duration int, score float64) Segment {
	return Segment{
		Pos1:       pos1,
		Pos2:       pos2,
		Duration:   duration,
		Score:      score,
		LeftScore:  score,
		RightScore: score,
	}
}

// Contiguous reports whether other starts exactly where s ends in both
// fingerprints.
func (s Segment) Contiguous(other Segment) bool {
	return s.Pos1+s.Duration == other.Pos1 && s.Pos2+s.Duration == other.Pos2
}

// Merge joins other onto the end of s. The merged score is the
// duration-weighted mean of both. It returns false, and s unchanged, when the
// segments are not contiguous.
func (s Segment) Merge(other Segment) (Segment, bool) {
	if !s.Contiguous(other) {
		return s, false
	}
	duration := s.Duration + other.Duration
	score := (s.Score*float64(s.Duration) + other.Score*float64(other.Duration)) / float64(duration)
	return Segment{
		Pos1:       s.Pos1,
		Pos2:       s.Pos2,
		Duration:   duration,
		Score:      score,
		LeftScore:  s.LeftScore,
		RightScore: other.RightScore,
	}, true
}
