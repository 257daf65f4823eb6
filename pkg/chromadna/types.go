package chromadna

import "time"

// FrameDurationSec is the hop between feature frames of the default fpcalc
// algorithms: 4096/3 samples at 11025 Hz.
const FrameDurationSec = 4096.0 / 3 / 11025

// Track is a registered recording.
type Track struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	DurationSec float64   `json:"duration_sec"`
	Algorithm   uint8     `json:"algorithm"`
	NumValues   int       `json:"num_values"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// MatchResult is a stored track matching a query.
type MatchResult struct {
	TrackID string `json:"track_id"`
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	// Score and Duration come from the fingerprint matcher, both 0-100.
	Score    float64 `json:"score"`
	Duration float64 `json:"duration"`
	// Offset is the frame of the track the query starts at; negative when
	// the query starts before the track.
	Offset    int     `json:"offset"`
	OffsetSec float64 `json:"offset_sec"`
	// SharedHashes is how many alignment hashes preselected the track.
	SharedHashes int `json:"shared_hashes"`
}

// Candidate is a stored track sharing alignment hashes with a query.
type Candidate struct {
	TrackID string
	Shared  int
}

type Stats struct {
	Tracks       int64   `json:"tracks"`
	AlignHashes  int64   `json:"align_hashes"`
	CachedTracks int     `json:"cached_tracks"`
	Threshold    float64 `json:"threshold"`
}
