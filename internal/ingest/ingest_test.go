package ingest

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dafioram/litter-tracker/internal"
	"github.com/dafioram/litter-tracker/internal/config"
	"github.com/dafioram/litter-tracker/internal/storage"
)

const sampleLog = `Activity,Timestamp,Value
Cat Detected,3/14 02:30 PM,
Weight Recorded,3/14 02:31 PM,10.4 lbs
Clean Cycle In Progress,3/14 02:45 PM,
Clean Cycle Complete,3/14 02:47 PM,
`

func testIngestor(t *testing.T) (*Ingestor, storage.Store) {
	t.Helper()
	dir := t.TempDir()
	logger := internal.NewNopLogger()
	store, err := storage.NewFileStorage(
		filepath.Join(dir, "events.json"),
		filepath.Join(dir, "profiles.json"),
		filepath.Join(dir, "blacklist.json"),
		filepath.Join(dir, "uploads.json"),
		logger,
	)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{
		TimezoneOffset:  0,
		WeightTolerance: 2.0,
		BackupDir:       filepath.Join(dir, "backups"),
	}
	return NewIngestor(store, cfg, logger), store
}

func addProfile(t *testing.T, store storage.Store) {
	t.Helper()
	err := store.UpsertProfile(context.Background(), &internal.Profile{
		Name: "Luna", TargetWeight: 10.5, Color: "#aabbcc",
	})
	require.NoError(t, err)
}

func TestIngestRequiresProfiles(t *testing.T) {
	ing, _ := testIngestor(t)
	_, err := ing.IngestLog(context.Background(), "log.csv", strings.NewReader(sampleLog))
	assert.ErrorIs(t, err, ErrNoProfiles)
}

func TestIngestClassifiesAndCommits(t *testing.T) {
	ing, store := testIngestor(t)
	addProfile(t, store)
	ctx := context.Background()

	res, err := ing.IngestLog(ctx, "log.csv", strings.NewReader(sampleLog))
	require.NoError(t, err)
	assert.Equal(t, 4, res.Added)
	assert.Equal(t, 0, res.Skipped)
	assert.True(t, res.BackupOK)

	events, err := store.QueryEvents(ctx, storage.EventFilter{}, storage.Asc)
	require.NoError(t, err)
	require.Len(t, events, 4)

	// Motion event borrowed the weight reading's identity.
	assert.Equal(t, "Luna", events[0].Identity)
	assert.Contains(t, events[0].FlagReason, "Matched w/ 10.4lbs")
	assert.Equal(t, "Luna", events[1].Identity)
	assert.Equal(t, internal.IdentitySystem, events[2].Identity)
	assert.Equal(t, internal.IdentitySystem, events[3].Identity)

	uploads, err := store.ListUploads(ctx)
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, "log.csv", uploads[0].Filename)
	assert.Equal(t, 4, uploads[0].EntriesAdded)
}

func TestIngestIsIdempotent(t *testing.T) {
	ing, store := testIngestor(t)
	addProfile(t, store)
	ctx := context.Background()

	first, err := ing.IngestLog(ctx, "log.csv", strings.NewReader(sampleLog))
	require.NoError(t, err)
	assert.Equal(t, 4, first.Added)

	second, err := ing.IngestLog(ctx, "log.csv", strings.NewReader(sampleLog))
	require.NoError(t, err)
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, 4, second.Duplicates)

	events, err := store.QueryEvents(ctx, storage.EventFilter{}, storage.Asc)
	require.NoError(t, err)
	assert.Len(t, events, 4)
}

func TestIngestHonorsBlacklist(t *testing.T) {
	ing, store := testIngestor(t)
	addProfile(t, store)
	ctx := context.Background()

	_, err := ing.IngestLog(ctx, "log.csv", strings.NewReader(sampleLog))
	require.NoError(t, err)

	events, err := store.QueryEvents(ctx, storage.EventFilter{Identity: "Luna"}, storage.Asc)
	require.NoError(t, err)
	require.Len(t, events, 2)
	weightKey := events[1].Key()

	require.NoError(t, store.BlacklistEvent(ctx, weightKey))

	res, err := ing.IngestLog(ctx, "log.csv", strings.NewReader(sampleLog))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Suppressed)
	assert.Equal(t, 0, res.Added)

	// Restoring re-admits it as Unknown.
	restored, err := store.RestoreFromBlacklist(ctx, weightKey)
	require.NoError(t, err)
	assert.Equal(t, internal.IdentityUnknown, restored.Identity)
	assert.Equal(t, "Restored from Blacklist", restored.FlagReason)
}

func TestIngestCountsSkippedRows(t *testing.T) {
	ing, store := testIngestor(t)
	addProfile(t, store)

	raw := "Activity,Timestamp,Value\nBroken,not a date,\nWeight Recorded,3/14 02:31 PM,10.4 lbs\n"
	res, err := ing.IngestLog(context.Background(), "log.csv", strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Skipped)
}
