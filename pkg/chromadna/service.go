// Package chromadna stores chromaprint fingerprints and finds the stored
// tracks matching a query fingerprint or audio file.
package chromadna

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/himanishpuri/chromadna/pkg/chromadna/audio"
	"github.com/himanishpuri/chromadna/pkg/chromadna/fingerprint"
	"github.com/himanishpuri/chromadna/pkg/chromadna/fpcalc"
	"github.com/himanishpuri/chromadna/pkg/logger"
)

var (
	ErrMissingTitle     = errors.New("track title is required")
	ErrEmptyFingerprint = errors.New("fingerprint has no frames")
)

// chromaService is the default implementation of the Service interface.
type chromaService struct {
	storage Storage
	log     Logger
	config  *Config
	matcher *fingerprint.Matcher
	// tracks caches stored tracks with their decoded fingerprints by ID.
	tracks *lru.Cache[string, *decodedTrack]
	// epoch counts track writes. A load only fills the cache when no write
	// happened since it started reading storage.
	mu    sync.Mutex
	epoch uint64
}

type decodedTrack struct {
	track *Track
	fp    *fingerprint.Fingerprint
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	var stor Storage
	var err error
	if cfg.Storage != nil {
		stor = cfg.Storage
	} else {
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	cache, err := lru.New[string, *decodedTrack](cfg.CacheSize)
	if err != nil {
		stor.Close()
		return nil, fmt.Errorf("failed to create track cache: %w", err)
	}

	return &chromaService{
		storage: stor,
		log:     cfg.Logger,
		config:  cfg,
		matcher: fingerprint.NewMatcher(fingerprint.WithThreshold(cfg.Threshold)),
		tracks:  cache,
	}, nil
}

func (s *chromaService) AddTrack(ctx context.Context, title, artist, encoded string, durationSec float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	title = strings.TrimSpace(title)
	artist = strings.TrimSpace(artist)
	if title == "" {
		return "", ErrMissingTitle
	}

	fp, err := fingerprint.Decode(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid fingerprint for %q: %w", title, err)
	}
	if fp.Len() == 0 {
		return "", ErrEmptyFingerprint
	}

	// Stored in canonical form so equal fingerprints compare equal as text.
	canonical, err := fp.Encode()
	if err != nil {
		return "", fmt.Errorf("re-encoding fingerprint: %w", err)
	}

	hashes := fp.AlignHashes()
	id, err := s.storage.RegisterTrack(Track{
		Title:       title,
		Artist:      artist,
		DurationSec: durationSec,
		Algorithm:   fp.Algorithm,
		NumValues:   fp.Len(),
		Fingerprint: canonical,
	}, hashes)
	if err != nil {
		return "", fmt.Errorf("failed to register track: %w", err)
	}
	// Replacing a track keeps its ID.
	s.invalidate(id)

	s.log.Infof("Added track %s: %s by %s (%d frames, %d align hashes)", id, title, artist, fp.Len(), len(hashes))
	return id, nil
}

func (s *chromaService) AddFile(ctx context.Context, audioPath, title, artist string) (string, error) {
	s.log.Infof("Fingerprinting %s", audioPath)

	res, err := fpcalc.Run(ctx, audioPath, s.config.Fpcalc)
	if err != nil {
		return "", fmt.Errorf("fingerprinting %s: %w", audioPath, err)
	}

	if s.config.ReadTags && (strings.TrimSpace(title) == "" || strings.TrimSpace(artist) == "") {
		meta, err := audio.ReadMetadata(ctx, audioPath)
		if err != nil {
			s.log.Debugf("No tags for %s: %v", audioPath, err)
		} else {
			if strings.TrimSpace(title) == "" {
				title = meta.Title
			}
			if strings.TrimSpace(artist) == "" {
				artist = meta.Artist
			}
		}
	}
	if strings.TrimSpace(title) == "" {
		title = audio.TitleFromFilename(audioPath)
	}

	return s.AddTrack(ctx, title, artist, res.Fingerprint, res.DurationSec)
}

func (s *chromaService) Match(ctx context.Context, encoded string) ([]MatchResult, error) {
	query, err := fingerprint.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid query fingerprint: %w", err)
	}
	return s.matchFingerprint(ctx, query)
}

func (s *chromaService) MatchFile(ctx context.Context, audioPath string) ([]MatchResult, error) {
	s.log.Infof("Matching audio: %s", audioPath)

	res, err := fpcalc.Run(ctx, audioPath, s.config.Fpcalc)
	if err != nil {
		return nil, fmt.Errorf("fingerprinting %s: %w", audioPath, err)
	}
	return s.Match(ctx, res.Fingerprint)
}

// matchFingerprint preselects stored tracks by shared alignment hashes and
// runs the full matcher against each of them.
func (s *chromaService) matchFingerprint(ctx context.Context, query *fingerprint.Fingerprint) ([]MatchResult, error) {
	hashes := query.AlignHashes()
	if len(hashes) == 0 {
		return []MatchResult{}, nil
	}

	candidates, err := s.storage.CandidatesByHashes(hashes, s.config.MaxCandidates)
	if err != nil {
		return nil, fmt.Errorf("failed to find candidates: %w", err)
	}
	s.log.Debugf("Query has %d frames, %d align hashes, %d candidates", query.Len(), len(hashes), len(candidates))

	results := make([]MatchResult, 0, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stored, err := s.loadTrack(c.TrackID)
		if err != nil {
			s.log.Warnf("Skipping candidate %s: %v", c.TrackID, err)
			continue
		}
		track := stored.track

		m, err := s.matcher.Match(stored.fp.Raw, query.Raw)
		if err != nil {
			s.log.Warnf("Matching against track %s failed: %v", track.ID, err)
			continue
		}
		if m.Duration <= 0 || m.Score < s.config.MinScore {
			continue
		}

		results = append(results, MatchResult{
			TrackID:      track.ID,
			Title:        track.Title,
			Artist:       track.Artist,
			Score:        m.Score,
			Duration:     m.Duration,
			Offset:       m.Offset,
			OffsetSec:    float64(m.Offset) * FrameDurationSec,
			SharedHashes: c.Shared,
		})
	}

	slices.SortStableFunc(results, func(a, b MatchResult) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(b.Duration, a.Duration)
	})

	s.log.Infof("Returning %d matches", len(results))
	return results, nil
}

// loadTrack returns a stored track with its fingerprint decoded, from the
// cache when possible.
func (s *chromaService) loadTrack(id string) (*decodedTrack, error) {
	if t, ok := s.tracks.Get(id); ok {
		return t, nil
	}

	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	track, err := s.storage.GetTrack(id)
	if err != nil {
		return nil, err
	}
	fp, err := fingerprint.Decode(track.Fingerprint)
	if err != nil {
		return nil, fmt.Errorf("stored fingerprint is invalid: %w", err)
	}
	t := &decodedTrack{track: track, fp: fp}

	s.mu.Lock()
	if s.epoch == epoch {
		s.tracks.Add(id, t)
	}
	s.mu.Unlock()
	return t, nil
}

// invalidate drops id from the cache and discards any load in flight.
func (s *chromaService) invalidate(id string) {
	s.mu.Lock()
	s.epoch++
	s.tracks.Remove(id)
	s.mu.Unlock()
}

func (s *chromaService) Compare(encoded1, encoded2 string) (*fingerprint.MatchResult, error) {
	fp1, err := fingerprint.Decode(encoded1)
	if err != nil {
		return nil, fmt.Errorf("invalid fingerprint 1: %w", err)
	}
	fp2, err := fingerprint.Decode(encoded2)
	if err != nil {
		return nil, fmt.Errorf("invalid fingerprint 2: %w", err)
	}
	return s.matcher.Match(fp1.Raw, fp2.Raw)
}

func (s *chromaService) GetTrack(id string) (*Track, error) {
	return s.storage.GetTrack(id)
}

func (s *chromaService) ListTracks() ([]Track, error) {
	return s.storage.ListTracks()
}

// DeleteTrack removes a track and its alignment hashes.
func (s *chromaService) DeleteTrack(id string) error {
	err := s.storage.DeleteTrack(id)
	s.invalidate(id)
	if err != nil {
		return err
	}
	s.log.Infof("Deleted track %s", id)
	return nil
}

func (s *chromaService) Stats() (*Stats, error) {
	tracks, err := s.storage.CountTracks()
	if err != nil {
		return nil, err
	}
	hashes, err := s.storage.CountAlignHashes()
	if err != nil {
		return nil, err
	}
	return &Stats{
		Tracks:       tracks,
		AlignHashes:  hashes,
		CachedTracks: s.tracks.Len(),
		Threshold:    s.matcher.Threshold(),
	}, nil
}

// Close releases all resources held by the service.
func (s *chromaService) Close() error {
	s.tracks.Purge()
	return s.storage.Close()
}
