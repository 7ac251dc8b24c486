package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dafioram/litter-tracker/internal"
	"github.com/dafioram/litter-tracker/internal/storage"
)

func TestParseCorrection(t *testing.T) {
	assert.Equal(t, Correction{Kind: CorrectionDelete}, ParseCorrection("delete"))
	assert.Equal(t, Correction{Kind: CorrectionBlacklist}, ParseCorrection("blacklist"))
	assert.Equal(t, Correction{Kind: CorrectionRestore}, ParseCorrection("restore"))
	// Any other string is an identity to reassign to.
	assert.Equal(t, Correction{Kind: CorrectionReassign, Identity: "Luna"}, ParseCorrection("Luna"))
}

func correctionStore(t *testing.T) storage.Store {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFileStorage(
		filepath.Join(dir, "events.json"),
		filepath.Join(dir, "profiles.json"),
		filepath.Join(dir, "blacklist.json"),
		filepath.Join(dir, "uploads.json"),
		internal.NewNopLogger(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedEvent(t *testing.T, store storage.Store) *internal.Event {
	t.Helper()
	e := internal.NewEvent(time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC), 9.5, "Weight Recorded")
	e.Identity = internal.IdentityUnknown
	e.FlagReason = "No match within 2.0lbs (Closest: Luna @ 2.3 diff)"
	_, err := store.InsertEvent(context.Background(), e)
	require.NoError(t, err)
	return e
}

func TestApplyCorrectionReassignClearsFlag(t *testing.T) {
	store := correctionStore(t)
	e := seedEvent(t, store)
	ctx := context.Background()

	err := ApplyCorrection(ctx, store, store, e.Key(), ParseCorrection("Luna"))
	require.NoError(t, err)

	events, err := store.QueryEvents(ctx, storage.EventFilter{}, storage.Asc)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Luna", events[0].Identity)
	assert.Empty(t, events[0].FlagReason)
}

func TestApplyCorrectionDelete(t *testing.T) {
	store := correctionStore(t)
	e := seedEvent(t, store)
	ctx := context.Background()

	require.NoError(t, ApplyCorrection(ctx, store, store, e.Key(), ParseCorrection("delete")))
	events, err := store.QueryEvents(ctx, storage.EventFilter{}, storage.Asc)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestApplyCorrectionBlacklistRoundTrip(t *testing.T) {
	store := correctionStore(t)
	e := seedEvent(t, store)
	ctx := context.Background()

	require.NoError(t, ApplyCorrection(ctx, store, store, e.Key(), ParseCorrection("blacklist")))
	events, err := store.QueryEvents(ctx, storage.EventFilter{}, storage.Asc)
	require.NoError(t, err)
	assert.Empty(t, events)

	entries, err := store.ListBlacklist(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, e.Weight, entries[0].Weight)
	assert.Equal(t, e.Activity, entries[0].Reason)

	require.NoError(t, ApplyCorrection(ctx, store, store, e.Key(), ParseCorrection("restore")))
	events, err = store.QueryEvents(ctx, storage.EventFilter{}, storage.Asc)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, internal.IdentityUnknown, events[0].Identity)
	assert.Equal(t, "Restored from Blacklist", events[0].FlagReason)
}

func TestApplyCorrectionMissingTarget(t *testing.T) {
	store := correctionStore(t)
	ctx := context.Background()

	err := ApplyCorrection(ctx, store, store, "2025-01-01 00:00:00", ParseCorrection("restore"))
	require.Error(t, err)
	var appErr *internal.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 404, appErr.Code)
}
