package chromadna

import (
	"context"

	"github.com/himanishpuri/chromadna/pkg/chromadna/fingerprint"
)

type Service interface {
	// AddTrack registers an encoded fingerprint under title and artist and
	// returns the track ID. Adding the same title and artist again replaces
	// the stored fingerprint.
	AddTrack(ctx context.Context, title, artist, encoded string, durationSec float64) (string, error)
	// AddFile fingerprints an audio file with fpcalc and registers it.
	AddFile(ctx context.Context, audioPath, title, artist string) (string, error)
	Match(ctx context.Context, encoded string) ([]MatchResult, error)
	MatchFile(ctx context.Context, audioPath string) ([]MatchResult, error)
	// Compare matches two encoded fingerprints without touching storage.
	Compare(encoded1, encoded2 string) (*fingerprint.MatchResult, error)
	GetTrack(id string) (*Track, error)
	ListTracks() ([]Track, error)
	DeleteTrack(id string) error
	Stats() (*Stats, error)
	Close() error
}

type Storage interface {
	// RegisterTrack stores a track and its alignment hashes atomically,
	// replacing any track with the same title and artist, and returns its ID.
	RegisterTrack(track Track, hashes []uint32) (string, error)
	CandidatesByHashes(hashes []uint32, limit int) ([]Candidate, error)
	GetTrack(id string) (*Track, error)
	ListTracks() ([]Track, error)
	DeleteTrack(id string) error
	CountTracks() (int64, error)
	CountAlignHashes() (int64, error)
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
