//go:build !js && !wasm

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *DBClient {
	t.Helper()

	client, err := NewDBClientWithPath(filepath.Join(t.TempDir(), "test_chromadna.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func testTrack(title, artist string) Track {
	return Track{
		Title:       title,
		Artist:      artist,
		DurationSec: 12.5,
		Algorithm:   1,
		NumValues:   4,
		Fingerprint: "AQAABAiEAQ",
	}
}

var errDiskFull = errors.New("disk full")

// failAlignHashInserts makes every insert into align_hashes fail.
func failAlignHashInserts(t *testing.T, client *DBClient) {
	t.Helper()

	err := client.DB.Callback().Create().Before("gorm:create").Register("test:fail_align_hashes", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "align_hashes" {
			tx.AddError(errDiskFull)
		}
	})
	require.NoError(t, err)
}

func TestNewDBClientFromEnv(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "env.sqlite3")
	t.Setenv(DBPathEnv, dbPath)

	client, err := NewDBClient()
	require.NoError(t, err)
	defer client.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "database file should exist at %s", dbPath)
}

func TestRegisterTrack(t *testing.T) {
	client := setupTestDB(t)

	id, err := client.RegisterTrack(testTrack("Sandstorm", "Darude"), []uint32{1, 2, 3})
	require.NoError(t, err)
	assert.Len(t, id, 36)

	hashes, err := client.CountAlignHashes()
	require.NoError(t, err)
	assert.Equal(t, int64(3), hashes)

	track, err := client.GetTrack(id)
	require.NoError(t, err)
	assert.Equal(t, "Sandstorm", track.Title)
	assert.Equal(t, "Darude", track.Artist)
	assert.Equal(t, 12.5, track.DurationSec)
	assert.Equal(t, uint8(1), track.Algorithm)
	assert.Equal(t, 4, track.NumValues)
	assert.Equal(t, "AQAABAiEAQ", track.Fingerprint)
	assert.False(t, track.CreatedAt.IsZero())
}

func TestRegisterTrackReplaces(t *testing.T) {
	client := setupTestDB(t)

	id, err := client.RegisterTrack(testTrack("Sandstorm", "Darude"), []uint32{1, 2, 3})
	require.NoError(t, err)

	replacement := testTrack("Sandstorm", "Darude")
	replacement.Fingerprint = "AQAAAQE"
	replacement.NumValues = 1
	again, err := client.RegisterTrack(replacement, []uint32{9})
	require.NoError(t, err)
	assert.Equal(t, id, again)

	track, err := client.GetTrack(id)
	require.NoError(t, err)
	assert.Equal(t, "AQAAAQE", track.Fingerprint)
	assert.Equal(t, 1, track.NumValues)

	tracks, err := client.CountTracks()
	require.NoError(t, err)
	assert.Equal(t, int64(1), tracks)

	candidates, err := client.CandidatesByHashes([]uint32{1, 2, 3, 9}, 0)
	require.NoError(t, err)
	assert.Equal(t, []Candidate{{TrackID: id, Shared: 1}}, candidates, "old align hashes are replaced")
}

func TestRegisterTrackFailureKeepsOriginal(t *testing.T) {
	client := setupTestDB(t)

	id, err := client.RegisterTrack(testTrack("Sandstorm", "Darude"), []uint32{1, 2, 3})
	require.NoError(t, err)

	failAlignHashInserts(t, client)

	replacement := testTrack("Sandstorm", "Darude")
	replacement.Fingerprint = "AQAAAQE"
	replacement.NumValues = 1
	_, err = client.RegisterTrack(replacement, []uint32{9})
	require.ErrorIs(t, err, errDiskFull)

	track, err := client.GetTrack(id)
	require.NoError(t, err)
	assert.Equal(t, "AQAABAiEAQ", track.Fingerprint)
	assert.Equal(t, 4, track.NumValues)

	candidates, err := client.CandidatesByHashes([]uint32{1, 2, 3, 9}, 0)
	require.NoError(t, err)
	assert.Equal(t, []Candidate{{TrackID: id, Shared: 3}}, candidates)

	_, err = client.RegisterTrack(testTrack("New", "Band"), []uint32{4})
	require.ErrorIs(t, err, errDiskFull)
	count, err := client.CountTracks()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "a failed insert leaves no track behind")
}

func TestCandidatesByHashes(t *testing.T) {
	client := setupTestDB(t)

	a, err := client.RegisterTrack(testTrack("A", "X"), []uint32{1, 2, 3, 4})
	require.NoError(t, err)
	b, err := client.RegisterTrack(testTrack("B", "X"), []uint32{3, 4, 5})
	require.NoError(t, err)
	_, err = client.RegisterTrack(testTrack("C", "X"), []uint32{100})
	require.NoError(t, err)

	candidates, err := client.CandidatesByHashes([]uint32{1, 2, 3, 4, 5}, 0)
	require.NoError(t, err)
	assert.Equal(t, []Candidate{{TrackID: a, Shared: 4}, {TrackID: b, Shared: 3}}, candidates)

	limited, err := client.CandidatesByHashes([]uint32{1, 2, 3, 4, 5}, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, a, limited[0].TrackID)
	assert.Equal(t, 4, limited[0].Shared)

	none, err := client.CandidatesByHashes(nil, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListTracks(t *testing.T) {
	client := setupTestDB(t)

	tracks, err := client.ListTracks()
	require.NoError(t, err)
	assert.Empty(t, tracks)

	for _, title := range []string{"One", "Two", "Three"} {
		_, err := client.RegisterTrack(testTrack(title, "Band"), nil)
		require.NoError(t, err)
	}

	tracks, err = client.ListTracks()
	require.NoError(t, err)
	require.Len(t, tracks, 3)

	titles := make([]string, len(tracks))
	for i, tr := range tracks {
		titles[i] = tr.Title
	}
	assert.ElementsMatch(t, []string{"One", "Two", "Three"}, titles)
}

func TestDeleteTrackByID(t *testing.T) {
	client := setupTestDB(t)

	id, err := client.RegisterTrack(testTrack("Gone", "Soon"), []uint32{7, 8, 9})
	require.NoError(t, err)

	require.NoError(t, client.DeleteTrackByID(id))

	_, err = client.GetTrack(id)
	assert.ErrorIs(t, err, ErrTrackNotFound)

	hashes, err := client.CountAlignHashes()
	require.NoError(t, err)
	assert.Zero(t, hashes)

	assert.ErrorIs(t, client.DeleteTrackByID(id), ErrTrackNotFound)
}

func TestNilClient(t *testing.T) {
	var client *DBClient

	assert.NoError(t, client.Close())
	_, err := client.RegisterTrack(testTrack("a", "b"), nil)
	assert.Error(t, err)
	_, err = client.GetTrack("x")
	assert.Error(t, err)
	_, err = client.CountTracks()
	assert.Error(t, err)
}
