package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoanghai1803/bookshelf/internal/storage"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()

	db, err := storage.OpenDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.RunMigrations(db))

	return storage.NewStore(db)
}

func TestPreferenceBaseline_RoundTrip(t *testing.T) {
	ctx := context.Background()
	baseline := NewPreferenceBaseline(newTestStore(t))

	_, ok, err := baseline.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	saved := Snapshot{FieldListCount: 3, FieldIsAnon: true, FieldPrimaryLanguage: "en"}
	require.NoError(t, baseline.Save(ctx, saved))

	loaded, ok, err := baseline.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, saved.EqualExcluding(loaded, nil), "loaded %v, saved %v", loaded, saved)
}

func TestPreferenceBaseline_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, NewPreferenceBaseline(store).Save(ctx, Snapshot{FieldItemCount: 12}))

	_, ok, err := NewPreferenceBaseline(store).Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryBaseline_CopiesOnSave(t *testing.T) {
	ctx := context.Background()
	var baseline MemoryBaseline

	snap := Snapshot{FieldListCount: 1}
	require.NoError(t, baseline.Save(ctx, snap))
	snap[FieldListCount] = 2

	loaded, ok, err := baseline.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, loaded[FieldListCount])
}
