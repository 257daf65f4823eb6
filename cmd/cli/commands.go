package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/himanishpuri/chromadna/pkg/chromadna"
	"github.com/himanishpuri/chromadna/pkg/chromadna/fingerprint"
	"github.com/himanishpuri/chromadna/pkg/chromadna/fpcalc"
)

// parseInterspersed parses fs allowing positional arguments before, between
// and after flags, and returns the positional ones.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return positional, nil
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// parseValues parses comma or whitespace separated feature values. Values
// may be decimal or 0x-prefixed hex.
func parseValues(s string) ([]uint32, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '[' || r == ']'
	})
	values := make([]uint32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("value %d (%q): %w", i, f, err)
		}
		values[i] = uint32(v)
	}
	return values, nil
}

func formatValues(values []uint32) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatUint(uint64(v), 10)
	}
	return strings.Join(parts, ",")
}

func runDecode(w io.Writer, args []string) error {
	fs := newFlagSet("decode")
	asJSON := fs.Bool("json", false, "Print as JSON")
	pos, err := parseInterspersed(fs, args)
	if err != nil || len(pos) != 1 {
		return errUsage
	}

	fp, err := fingerprint.Decode(pos[0])
	if err != nil {
		return err
	}

	if *asJSON {
		return json.NewEncoder(w).Encode(map[string]any{
			"algorithm": fp.Algorithm,
			"raw":       fp.Raw,
		})
	}
	fmt.Fprintf(w, "algorithm: %d\n", fp.Algorithm)
	fmt.Fprintf(w, "frames:    %d\n", fp.Len())
	fmt.Fprintln(w, formatValues(fp.Raw))
	return nil
}

func runEncode(w io.Writer, args []string) error {
	fs := newFlagSet("encode")
	algorithm := fs.Uint("algorithm", 1, "Algorithm identifier stored in the header")
	pos, err := parseInterspersed(fs, args)
	if err != nil || len(pos) == 0 {
		return errUsage
	}
	if *algorithm > 255 {
		return fmt.Errorf("algorithm %d does not fit in a byte", *algorithm)
	}

	values, err := parseValues(strings.Join(pos, ","))
	if err != nil {
		return err
	}
	encoded, err := fingerprint.Encode(values, uint8(*algorithm))
	if err != nil {
		return err
	}
	fmt.Fprintln(w, encoded)
	return nil
}

func runCompare(w io.Writer, args []string) error {
	fs := newFlagSet("compare")
	asJSON := fs.Bool("json", false, "Print as JSON")
	pos, err := parseInterspersed(fs, args)
	if err != nil || len(pos) != 2 {
		return errUsage
	}

	fp1, err := fingerprint.Decode(pos[0])
	if err != nil {
		return fmt.Errorf("fingerprint 1: %w", err)
	}
	fp2, err := fingerprint.Decode(pos[1])
	if err != nil {
		return fmt.Errorf("fingerprint 2: %w", err)
	}

	result, err := fingerprint.Match(threshold, fp1.Raw, fp2.Raw)
	if err != nil {
		return err
	}

	if *asJSON {
		return json.NewEncoder(w).Encode(result)
	}
	fmt.Fprintf(w, "Score:    %.1f\n", result.Score)
	fmt.Fprintf(w, "Duration: %.1f%%\n", result.Duration)
	fmt.Fprintf(w, "Offset:   %d frames\n", result.Offset)
	for i, s := range result.Segments {
		fmt.Fprintf(w, "  segment %d: pos1=%d pos2=%d frames=%d score=%.2f\n", i+1, s.Pos1, s.Pos2, s.Duration, s.Score)
	}
	return nil
}

func runCalc(w io.Writer, args []string) error {
	fs := newFlagSet("calc")
	pos, err := parseInterspersed(fs, args)
	if err != nil || len(pos) != 1 {
		return errUsage
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := fpcalc.Run(ctx, pos[0], fpcalc.Config{Binary: fpcalcPath, Length: fpcalcLength})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "DURATION=%g\n", res.DurationSec)
	fmt.Fprintf(w, "FINGERPRINT=%s\n", res.Fingerprint)
	return nil
}

func runAdd(w io.Writer, args []string) error {
	fs := newFlagSet("add")
	title := fs.String("title", "", "Track title (defaults to file tags or name)")
	artist := fs.String("artist", "", "Artist name")
	encoded := fs.String("fingerprint", "", "Encoded fingerprint to add instead of an audio file")
	duration := fs.Float64("duration", 0, "Duration in seconds, with --fingerprint")
	pos, err := parseInterspersed(fs, args)
	if err != nil {
		return errUsage
	}
	if (*encoded == "") == (len(pos) == 0) || len(pos) > 1 {
		return errUsage
	}

	svc, err := createService()
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var id string
	if *encoded != "" {
		id, err = svc.AddTrack(ctx, *title, *artist, *encoded, *duration)
	} else {
		id, err = svc.AddFile(ctx, pos[0], *title, *artist)
	}
	if err != nil {
		return fmt.Errorf("failed to add track: %w", err)
	}

	track, err := svc.GetTrack(id)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "✅ Added track")
	fmt.Fprintf(w, "   ID:     %s\n", track.ID)
	fmt.Fprintf(w, "   Title:  %s\n", track.Title)
	fmt.Fprintf(w, "   Artist: %s\n", track.Artist)
	fmt.Fprintf(w, "   Frames: %d\n", track.NumValues)
	return nil
}

func runMatch(w io.Writer, args []string) error {
	fs := newFlagSet("match")
	encoded := fs.String("fingerprint", "", "Encoded fingerprint to match instead of an audio file")
	pos, err := parseInterspersed(fs, args)
	if err != nil {
		return errUsage
	}
	if (*encoded == "") == (len(pos) == 0) || len(pos) > 1 {
		return errUsage
	}

	svc, err := createService()
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var results []chromadna.MatchResult
	if *encoded != "" {
		results, err = svc.Match(ctx, *encoded)
	} else {
		results, err = svc.MatchFile(ctx, pos[0])
	}
	if err != nil {
		return fmt.Errorf("failed to match: %w", err)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "❌ No matches found")
		return nil
	}

	fmt.Fprintf(w, "✅ Found %d match(es)\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(w, "%d. %q by %s (ID: %s)\n", i+1, r.Title, r.Artist, r.TrackID)
		fmt.Fprintf(w, "   Score: %.1f | Duration: %.1f%% | Offset: %.2fs\n\n", r.Score, r.Duration, r.OffsetSec)
	}
	return nil
}

func runList(w io.Writer, args []string) error {
	if len(args) != 0 {
		return errUsage
	}

	svc, err := createService()
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Close()

	tracks, err := svc.ListTracks()
	if err != nil {
		return fmt.Errorf("failed to list tracks: %w", err)
	}
	if len(tracks) == 0 {
		fmt.Fprintln(w, "📭 No tracks in database")
		return nil
	}

	fmt.Fprintf(w, "📚 Found %d track(s):\n\n", len(tracks))
	for i, t := range tracks {
		fmt.Fprintf(w, "%d. %q by %s (ID: %s)\n", i+1, t.Title, t.Artist, t.ID)
		if t.DurationSec > 0 {
			d := int(t.DurationSec)
			fmt.Fprintf(w, "   Duration: %d:%02d\n", d/60, d%60)
		}
		fmt.Fprintf(w, "   Frames: %d (algorithm %d)\n\n", t.NumValues, t.Algorithm)
	}
	return nil
}

func runDelete(w io.Writer, args []string) error {
	if len(args) != 1 {
		return errUsage
	}

	svc, err := createService()
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Close()

	track, err := svc.GetTrack(args[0])
	if err != nil {
		return err
	}
	if err := svc.DeleteTrack(track.ID); err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	fmt.Fprintln(w, "✅ Deleted track")
	fmt.Fprintf(w, "   ID:     %s\n", track.ID)
	fmt.Fprintf(w, "   Title:  %s\n", track.Title)
	fmt.Fprintf(w, "   Artist: %s\n", track.Artist)
	return nil
}

func runStats(w io.Writer, args []string) error {
	if len(args) != 0 {
		return errUsage
	}

	svc, err := createService()
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Close()

	stats, err := svc.Stats()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Tracks:       %d\n", stats.Tracks)
	fmt.Fprintf(w, "Align hashes: %d\n", stats.AlignHashes)
	fmt.Fprintf(w, "Threshold:    %g\n", stats.Threshold)
	return nil
}
