package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hejny/gitlabinfo/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	err = s.Migrate(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "subdir", "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "subdir"))
	assert.NoError(t, err, "should create parent directory")
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Running migrate again should be a no-op
	err := s.Migrate(ctx)
	assert.NoError(t, err)
}

// --- Preferences ---

func TestPreferences(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.GetPreference(ctx, "page")
	require.NoError(t, err)
	assert.False(t, ok, "missing key")

	require.NoError(t, s.SetPreference(ctx, "page", "2"))
	require.NoError(t, s.SetPreference(ctx, "kinds", ""))

	v, ok, err := s.GetPreference(ctx, "page")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", v)

	v, ok, err = s.GetPreference(ctx, "kinds")
	require.NoError(t, err)
	assert.True(t, ok, "empty values are still present")
	assert.Equal(t, "", v)

	// Last write wins
	require.NoError(t, s.SetPreference(ctx, "page", "3"))
	v, _, _ = s.GetPreference(ctx, "page")
	assert.Equal(t, "3", v)

	prefs, err := s.ListPreferences(ctx)
	require.NoError(t, err)
	require.Len(t, prefs, 2)
	assert.Equal(t, "kinds", prefs[0].Key)
	assert.Equal(t, "page", prefs[1].Key)
	assert.False(t, prefs[1].UpdatedAt.IsZero())

	n, err := s.DeletePreferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	prefs, err = s.ListPreferences(ctx)
	require.NoError(t, err)
	assert.Empty(t, prefs)
}

func TestPreferencePort(t *testing.T) {
	s := newTestStore(t)
	port := NewPreferencePort(context.Background(), s, nil)

	_, ok := port.Get("sortBy")
	assert.False(t, ok)

	port.Set("sortBy", "name")
	v, ok := port.Get("sortBy")
	assert.True(t, ok)
	assert.Equal(t, "name", v)
}

// --- Snapshots ---

func TestLatestSnapshot_Empty(t *testing.T) {
	s := newTestStore(t)

	_, err := s.LatestSnapshot(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	snap := &models.Snapshot{
		Source: "backend",
		Projects: []models.Project{
			{
				ID: 7, Name: "LibCore", Kind: "LIBRARY",
				DefaultBranch: &models.Branch{Name: "main", Parent: &models.Parent{ArtifactID: "p", Version: "1"}},
				Errors:        []models.Error{{Code: "E1", Message: "boom"}},
				CICD:          &models.CICD{Variables: map[string]string{"A": "b"}},
			},
		},
	}
	require.NoError(t, s.SaveSnapshot(ctx, snap))
	assert.NotEmpty(t, snap.ID)
	assert.False(t, snap.FetchedAt.IsZero())

	got, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)
	assert.Equal(t, "backend", got.Source)
	require.Len(t, got.Projects, 1)
	assert.Equal(t, "LibCore", got.Projects[0].Name)
	assert.Equal(t, "1", got.Projects[0].ParentVersion())
	assert.Equal(t, "b", got.Projects[0].Variables()["A"])
}

func TestPruneSnapshots(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		snap := &models.Snapshot{
			Source:    "backend",
			FetchedAt: base.Add(time.Duration(i) * time.Minute),
			Projects:  []models.Project{{ID: i, Name: "p"}},
		}
		require.NoError(t, s.SaveSnapshot(ctx, snap))
	}

	n, err := s.PruneSnapshots(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Projects[0].ID, "newest snapshot survives")
}
