package chromadna

import (
	"github.com/himanishpuri/chromadna/pkg/chromadna/storage"
)

// ErrTrackNotFound is returned for unknown track IDs. Custom Storage
// implementations should return it, or wrap it, as well.
var ErrTrackNotFound = storage.ErrTrackNotFound

// storageAdapter adapts the storage.DBClient to implement the Storage interface.
type storageAdapter struct {
	db *storage.DBClient
}

// NewSQLiteStorage creates a new SQLite storage backend.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

func (s *storageAdapter) RegisterTrack(track Track, hashes []uint32) (string, error) {
	return s.db.RegisterTrack(storage.Track{
		Title:       track.Title,
		Artist:      track.Artist,
		DurationSec: track.DurationSec,
		Algorithm:   track.Algorithm,
		NumValues:   track.NumValues,
		Fingerprint: track.Fingerprint,
	}, hashes)
}

func (s *storageAdapter) CandidatesByHashes(hashes []uint32, limit int) ([]Candidate, error) {
	rows, err := s.db.CandidatesByHashes(hashes, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, len(rows))
	for i, r := range rows {
		out[i] = Candidate{TrackID: r.TrackID, Shared: r.Shared}
	}
	return out, nil
}

func (s *storageAdapter) GetTrack(id string) (*Track, error) {
	dbTrack, err := s.db.GetTrack(id)
	if err != nil {
		return nil, err
	}
	track := fromDBTrack(*dbTrack)
	return &track, nil
}

func (s *storageAdapter) ListTracks() ([]Track, error) {
	dbTracks, err := s.db.ListTracks()
	if err != nil {
		return nil, err
	}
	tracks := make([]Track, len(dbTracks))
	for i, t := range dbTracks {
		tracks[i] = fromDBTrack(t)
	}
	return tracks, nil
}

func (s *storageAdapter) DeleteTrack(id string) error {
	return s.db.DeleteTrackByID(id)
}

func (s *storageAdapter) CountTracks() (int64, error) {
	return s.db.CountTracks()
}

func (s *storageAdapter) CountAlignHashes() (int64, error) {
	return s.db.CountAlignHashes()
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}

func fromDBTrack(t storage.Track) Track {
	return Track{
		ID:          t.ID,
		Title:       t.Title,
		Artist:      t.Artist,
		DurationSec: t.DurationSec,
		Algorithm:   t.Algorithm,
		NumValues:   t.NumValues,
		Fingerprint: t.Fingerprint,
		CreatedAt:   t.CreatedAt,
	}
}
