package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/himanishpuri/chromadna/pkg/chromadna"
	"github.com/himanishpuri/chromadna/pkg/chromadna/fingerprint"
)

const (
	// MaxJSONBodyBytes bounds JSON request bodies. Two minutes of audio
	// encode to a few kilobytes.
	MaxJSONBodyBytes = 4 << 20

	// MaxUploadBytes bounds multipart audio uploads.
	MaxUploadBytes = 100 << 20
)

// AddTrackRequest is the JSON body for POST /api/tracks
type AddTrackRequest struct {
	Title       string  `json:"title"`
	Artist      string  `json:"artist"`
	Fingerprint string  `json:"fingerprint"`
	DurationSec float64 `json:"duration_sec,omitempty"`
}

// Validate checks if the request is valid
func (r *AddTrackRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(r.Fingerprint) == "" {
		return fmt.Errorf("fingerprint is required")
	}
	if r.DurationSec < 0 {
		return fmt.Errorf("duration_sec cannot be negative")
	}
	return nil
}

// AddTrackResponse is the response for successful track addition
type AddTrackResponse struct {
	Message string   `json:"message"`
	Track   TrackDTO `json:"track"`
}

// TrackDTO represents a track in API responses
type TrackDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	DurationSec float64   `json:"duration_sec"`
	Algorithm   uint8     `json:"algorithm"`
	NumValues   int       `json:"num_values"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toTrackDTO(t chromadna.Track, withFingerprint bool) TrackDTO {
	dto := TrackDTO{
		ID:          t.ID,
		Title:       t.Title,
		Artist:      t.Artist,
		DurationSec: t.DurationSec,
		Algorithm:   t.Algorithm,
		NumValues:   t.NumValues,
		CreatedAt:   t.CreatedAt,
	}
	if withFingerprint {
		dto.Fingerprint = t.Fingerprint
	}
	return dto
}

// ListTracksResponse is the response for GET /api/tracks
type ListTracksResponse struct {
	Tracks []TrackDTO `json:"tracks"`
	Count  int        `json:"count"`
}

// DeleteTrackResponse is the response for DELETE /api/tracks/{id}
type DeleteTrackResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// MatchRequest is the request body for POST /api/match
type MatchRequest struct {
	Fingerprint string `json:"fingerprint"`
}

func (r *MatchRequest) Validate() error {
	if strings.TrimSpace(r.Fingerprint) == "" {
		return fmt.Errorf("fingerprint is required")
	}
	return nil
}

// MatchResponse is the response for POST /api/match and /api/match/file
type MatchResponse struct {
	Matches []chromadna.MatchResult `json:"matches"`
	Count   int                     `json:"count"`
}

// CompareRequest is the request body for POST /api/compare
type CompareRequest struct {
	Fingerprint1 string `json:"fingerprint1"`
	Fingerprint2 string `json:"fingerprint2"`
	// Threshold overrides the server's match threshold when positive.
	Threshold float64 `json:"threshold,omitempty"`
}

func (r *CompareRequest) Validate() error {
	if strings.TrimSpace(r.Fingerprint1) == "" || strings.TrimSpace(r.Fingerprint2) == "" {
		return fmt.Errorf("fingerprint1 and fingerprint2 are required")
	}
	if r.Threshold < 0 {
		return fmt.Errorf("threshold cannot be negative")
	}
	return nil
}

// DecodeRequest is the request body for POST /api/decode
type DecodeRequest struct {
	Fingerprint string `json:"fingerprint"`
}

// DecodeResponse carries a decoded feature array
type DecodeResponse struct {
	Algorithm uint8    `json:"algorithm"`
	Raw       []uint32 `json:"raw"`
	Count     int      `json:"count"`
}

// EncodeRequest is the request body for POST /api/encode
type EncodeRequest struct {
	Algorithm uint8    `json:"algorithm"`
	Raw       []uint32 `json:"raw"`
}

func (r *EncodeRequest) Validate() error {
	if len(r.Raw) > fingerprint.MaxValues {
		return fmt.Errorf("too many values: %d (maximum: %d)", len(r.Raw), fingerprint.MaxValues)
	}
	return nil
}

// EncodeResponse carries an encoded fingerprint
type EncodeResponse struct {
	Fingerprint string `json:"fingerprint"`
}

// MetricsResponse provides server health and database metrics
type MetricsResponse struct {
	Status         string  `json:"status"`
	DatabasePath   string  `json:"database_path"`
	TrackCount     int64   `json:"track_count"`
	AlignHashCount int64   `json:"align_hash_count"`
	CachedTracks   int     `json:"cached_tracks"`
	Threshold      float64 `json:"threshold"`
	UptimeSec      float64 `json:"uptime_sec"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
