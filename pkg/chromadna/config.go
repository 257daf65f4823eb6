package chromadna

import (
	"github.com/himanishpuri/chromadna/pkg/chromadna/fingerprint"
	"github.com/himanishpuri/chromadna/pkg/chromadna/fpcalc"
	"github.com/himanishpuri/chromadna/pkg/chromadna/storage"
)

const (
	DefaultMaxCandidates = 10
	DefaultCacheSize     = 256
)

type Config struct {
	DBPath string
	Logger Logger
	// Storage overrides the SQLite store opened at DBPath.
	Storage Storage
	// Threshold is passed to the matcher; see fingerprint.DefaultMatchThreshold.
	Threshold float64
	// MaxCandidates bounds how many stored tracks are compared in full per
	// query. 0 or less compares every track sharing an alignment hash.
	MaxCandidates int
	// MinScore drops results scoring below it.
	MinScore float64
	Fpcalc   fpcalc.Config
	// CacheSize is how many decoded stored fingerprints are kept in memory.
	CacheSize int
	// ReadTags fills missing titles and artists of added files from their
	// tags with ffprobe.
	ReadTags bool
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

// WithThreshold sets the matcher threshold. Non-positive values keep the
// default.
func WithThreshold(threshold float64) Option {
	return func(c *Config) {
		if threshold > 0 {
			c.Threshold = threshold
		}
	}
}

func WithMaxCandidates(n int) Option {
	return func(c *Config) {
		c.MaxCandidates = n
	}
}

func WithMinScore(score float64) Option {
	return func(c *Config) {
		c.MinScore = score
	}
}

// WithFpcalc sets the fpcalc binary and how many seconds of audio it
// fingerprints. An empty path keeps looking up "fpcalc" in PATH.
func WithFpcalc(path string, lengthSec int) Option {
	return func(c *Config) {
		c.Fpcalc.Binary = path
		c.Fpcalc.Length = lengthSec
	}
}

// WithCacheSize sets the decoded fingerprint cache size. Non-positive values
// keep the default.
func WithCacheSize(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.CacheSize = n
		}
	}
}

func WithReadTags(enabled bool) Option {
	return func(c *Config) {
		c.ReadTags = enabled
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:        storage.DefaultDBFile,
		Threshold:     fingerprint.DefaultMatchThreshold,
		MaxCandidates: DefaultMaxCandidates,
		CacheSize:     DefaultCacheSize,
		ReadTags:      true,
		Logger:        nil,
	}
}
