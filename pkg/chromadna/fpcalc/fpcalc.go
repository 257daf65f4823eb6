// Package fpcalc runs the chromaprint fpcalc tool to fingerprint audio files.
package fpcalc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/himanishpuri/chromadna/pkg/chromadna/fingerprint"
)

const (
	DefaultBinary  = "fpcalc"
	DefaultTimeout = 2 * time.Minute
)

type Config struct {
	// Binary is the fpcalc executable, looked up in PATH when it has no
	// directory part. Empty means DefaultBinary.
	Binary string
	// Length limits how many seconds of audio are fingerprinted. 0 keeps
	// fpcalc's own default.
	Length int
	// Algorithm selects the chromaprint algorithm. 0 keeps fpcalc's default.
	Algorithm int
	// Timeout applies when ctx has no deadline. 0 means DefaultTimeout.
	Timeout time.Duration
}

type Result struct {
	DurationSec float64 `json:"duration"`
	Fingerprint string  `json:"fingerprint"`
}

// Decode decodes the fingerprint string reported by fpcalc.
func (r *Result) Decode() (*fingerprint.Fingerprint, error) {
	return fingerprint.Decode(r.Fingerprint)
}

// Args returns the command line arguments used to fingerprint path.
func (c Config) Args(path string) []string {
	args := []string{"-json"}
	if c.Length > 0 {
		args = append(args, "-length", strconv.Itoa(c.Length))
	}
	if c.Algorithm > 0 {
		args = append(args, "-algorithm", strconv.Itoa(c.Algorithm))
	}
	return append(args, path)
}

// Available reports whether the configured fpcalc binary can be found.
func (c Config) Available() bool {
	_, err := exec.LookPath(c.binary())
	return err == nil
}

func (c Config) binary() string {
	if c.Binary == "" {
		return DefaultBinary
	}
	return c.Binary
}

// Run fingerprints the audio file at path.
func Run(ctx context.Context, path string, cfg Config) (*Result, error) {
	if _, ok := ctx.Deadline(); !ok {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, cfg.binary(), cfg.Args(path)...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("fpcalc %s: %w: %s", path, err, msg)
		}
		return nil, fmt.Errorf("fpcalc %s: %w", path, err)
	}

	return ParseOutput(out)
}

// ParseOutput parses the output of fpcalc -json.
func ParseOutput(out []byte) (*Result, error) {
	var res Result
	if err := json.Unmarshal(out, &res); err != nil {
		return nil, fmt.Errorf("parse fpcalc output: %w", err)
	}
	if res.Fingerprint == "" {
		return nil, fmt.Errorf("fpcalc output has no fingerprint")
	}
	return &res, nil
}
