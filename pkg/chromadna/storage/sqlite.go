//go:build !js && !wasm
// +build !js,!wasm

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "chromadna.sqlite3"

// DBPathEnv overrides DefaultDBFile for NewDBClient.
const DBPathEnv = "CHROMADNA_DB_PATH"

const errDBClientNil = "db client is nil"

var ErrTrackNotFound = errors.New("track not found")

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

// Track is a registered recording and its encoded fingerprint.
type Track struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title       string    `gorm:"uniqueIndex:idx_track_unique,priority:1" json:"title"`
	Artist      string    `gorm:"uniqueIndex:idx_track_unique,priority:2" json:"artist"`
	DurationSec float64   `json:"duration_sec"`
	Algorithm   uint8     `json:"algorithm"`
	NumValues   int       `json:"num_values"`
	Fingerprint string    `gorm:"type:text" json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
}

// AlignHash records that a track contains at least one frame with the given
// alignment hash.
type AlignHash struct {
	ID      uint   `gorm:"primaryKey;autoIncrement"`
	Hash    uint32 `gorm:"index:idx_align_hash" json:"hash"`
	TrackID string `gorm:"type:varchar(36);index:idx_align_track" json:"track_id"`
}

// Candidate is a track sharing Shared alignment hashes with a query.
type Candidate struct {
	TrackID string
	Shared  int
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv(DBPathEnv)
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Track{}, &AlignHash{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// RegisterTrack stores track with its alignment hashes in one transaction
// and returns its ID. A track with the same title and artist is replaced in
// place: it keeps its ID and its previous fingerprint and hashes are
// overwritten. On error nothing is changed.
func (c *DBClient) RegisterTrack(track Track, hashes []uint32) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}

	var id string
	err := c.DB.Transaction(func(tx *gorm.DB) error {
		var existing Track
		err := tx.Where("title = ? AND artist = ?", track.Title, track.Artist).First(&existing).Error
		switch {
		case err == nil:
			id = existing.ID
			if err := tx.Where("track_id = ?", id).Delete(&AlignHash{}).Error; err != nil {
				return fmt.Errorf("clearing align hashes: %w", err)
			}
			updates := map[string]any{
				"duration_sec": track.DurationSec,
				"algorithm":    track.Algorithm,
				"num_values":   track.NumValues,
				"fingerprint":  track.Fingerprint,
			}
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return fmt.Errorf("updating track: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			track.ID = uuid.NewString()
			if err := tx.Create(&track).Error; err != nil {
				return fmt.Errorf("creating track: %w", err)
			}
			id = track.ID
		default:
			return fmt.Errorf("querying existing track: %w", err)
		}

		return insertAlignHashes(tx, id, hashes)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func insertAlignHashes(tx *gorm.DB, trackID string, hashes []uint32) error {
	if len(hashes) == 0 {
		return nil
	}

	entries := make([]AlignHash, len(hashes))
	for i, h := range hashes {
		entries[i] = AlignHash{Hash: h, TrackID: trackID}
	}
	if err := tx.CreateInBatches(entries, 500).Error; err != nil {
		return fmt.Errorf("batch insert align hashes: %w", err)
	}
	return nil
}

// CandidatesByHashes returns the tracks sharing at least one of hashes, most
// shared hashes first. A limit of 0 or less returns every candidate.
func (c *DBClient) CandidatesByHashes(hashes []uint32, limit int) ([]Candidate, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	if len(hashes) == 0 {
		return nil, nil
	}

	hashesInterface := make([]interface{}, len(hashes))
	for i, h := range hashes {
		hashesInterface[i] = h
	}

	query := c.DB.Model(&AlignHash{}).
		Select("track_id, COUNT(*) AS shared").
		Where("hash IN ?", hashesInterface).
		Group("track_id").
		Order("shared DESC, track_id")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var out []Candidate
	if err := query.Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}
	return out, nil
}

func (c *DBClient) GetTrack(id string) (*Track, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var track Track
	if err := c.DB.Where("id = ?", id).First(&track).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, id)
		}
		return nil, fmt.Errorf("querying track: %w", err)
	}
	return &track, nil
}

// ListTracks returns all tracks, oldest first.
func (c *DBClient) ListTracks() ([]Track, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var tracks []Track
	if err := c.DB.Order("created_at, id").Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("listing tracks: %w", err)
	}
	return tracks, nil
}

func (c *DBClient) DeleteTrackByID(id string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("track_id = ?", id).Delete(&AlignHash{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&Track{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrTrackNotFound, id)
		}
		return nil
	})
}

func (c *DBClient) CountTracks() (int64, error) {
	if c == nil || c.DB == nil {
		return 0, errors.New(errDBClientNil)
	}
	var count int64
	if err := c.DB.Model(&Track{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting tracks: %w", err)
	}
	return count, nil
}

func (c *DBClient) CountAlignHashes() (int64, error) {
	if c == nil || c.DB == nil {
		return 0, errors.New(errDBClientNil)
	}
	var count int64
	if err := c.DB.Model(&AlignHash{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting align hashes: %w", err)
	}
	return count, nil
}
