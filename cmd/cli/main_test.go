package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValues(t *testing.T) {
	values, err := parseValues("0, 1,0x3 [7]\n4294967295")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 3, 7, 4294967295}, values)

	_, err = parseValues("1,4294967296")
	assert.Error(t, err)
	_, err = parseValues("1,x")
	assert.Error(t, err)
}

func TestParseInterspersed(t *testing.T) {
	fs := newFlagSet("test")
	title := fs.String("title", "", "")
	verbose := fs.Bool("v", false, "")

	pos, err := parseInterspersed(fs, []string{"song.mp3", "--title", "Sandstorm", "extra", "-v"})
	require.NoError(t, err)
	assert.Equal(t, []string{"song.mp3", "extra"}, pos)
	assert.Equal(t, "Sandstorm", *title)
	assert.True(t, *verbose)

	_, err = parseInterspersed(newFlagSet("test"), []string{"--nope"})
	assert.Error(t, err)
}

func TestDecodeEncode(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runEncode(&out, []string{"--algorithm", "1", "0,1,3,7"}))
	assert.Equal(t, "AQAABAiEAQ\n", out.String())

	out.Reset()
	require.NoError(t, runDecode(&out, []string{"AQAABAiEAQ"}))
	assert.Equal(t, "algorithm: 1\nframes:    4\n0,1,3,7\n", out.String())

	out.Reset()
	require.NoError(t, runDecode(&out, []string{"--json", "AQAABAiEAQ"}))
	var decoded struct {
		Algorithm uint8    `json:"algorithm"`
		Raw       []uint32 `json:"raw"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, uint8(1), decoded.Algorithm)
	assert.Equal(t, []uint32{0, 1, 3, 7}, decoded.Raw)

	assert.ErrorIs(t, runDecode(&out, nil), errUsage)
	assert.ErrorIs(t, runEncode(&out, nil), errUsage)
}

func TestEncodeRejectsLargeAlgorithm(t *testing.T) {
	var out bytes.Buffer
	err := runEncode(&out, []string{"--algorithm", "256", "1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, errUsage)
}

func TestCompare(t *testing.T) {
	threshold = 10
	var out bytes.Buffer
	require.NoError(t, runCompare(&out, []string{"AQAABAiEAQ", "AQAABAiEAQ"}))
	assert.Contains(t, out.String(), "Score:    100.0")
	assert.Contains(t, out.String(), "Duration: 100.0%")

	assert.ErrorIs(t, runCompare(&out, []string{"AQAABAiEAQ"}), errUsage)
	assert.Error(t, runCompare(&out, []string{"AQAABAiEAQ", "!!"}))
}

func TestTrackCommands(t *testing.T) {
	oldPath := dbPath
	dbPath = filepath.Join(t.TempDir(), "cli.sqlite3")
	t.Cleanup(func() { dbPath = oldPath })
	threshold = 10

	var out bytes.Buffer
	require.NoError(t, runList(&out, nil))
	assert.Contains(t, out.String(), "No tracks")

	out.Reset()
	require.NoError(t, runAdd(&out, []string{"--fingerprint", "AQAABAiEAQ", "--title", "Tiny", "--artist", "Band", "--duration", "0.5"}))
	assert.Contains(t, out.String(), "Added track")
	id := regexp.MustCompile(`ID:\s+(\S+)`).FindStringSubmatch(out.String())
	require.Len(t, id, 2)

	out.Reset()
	require.NoError(t, runMatch(&out, []string{"--fingerprint", "AQAABAiEAQ"}))
	assert.Contains(t, out.String(), `"Tiny" by Band`)

	out.Reset()
	require.NoError(t, runStats(&out, nil))
	assert.Contains(t, out.String(), "Tracks:       1")

	out.Reset()
	require.NoError(t, runDelete(&out, []string{id[1]}))
	assert.Contains(t, out.String(), "Deleted track")

	assert.Error(t, runDelete(&out, []string{id[1]}))
	assert.ErrorIs(t, runAdd(&out, nil), errUsage)
	assert.ErrorIs(t, runMatch(&out, []string{"a.mp3", "--fingerprint", "x"}), errUsage)
}

func TestCommandsTable(t *testing.T) {
	for name, cmd := range commands {
		assert.NotNil(t, cmd.run, name)
		assert.NotEmpty(t, cmd.usage, name)
	}
	assert.NotNil(t, flag.Lookup("db"))
}
