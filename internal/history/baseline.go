package history

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hoanghai1803/bookshelf/internal/storage"
)

// BaselinePreferenceKey is the preferences key the baseline is stored under.
const BaselinePreferenceKey = "user_history_snapshot"

// PreferenceBaseline keeps the baseline in the preferences table so it
// survives restarts.
type PreferenceBaseline struct {
	store *storage.Store
}

// NewPreferenceBaseline returns a baseline store backed by store.
func NewPreferenceBaseline(store *storage.Store) *PreferenceBaseline {
	return &PreferenceBaseline{store: store}
}

func (b *PreferenceBaseline) Load(ctx context.Context) (Snapshot, bool, error) {
	var snap Snapshot
	err := b.store.GetPreference(ctx, BaselinePreferenceKey, &snap)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading user history baseline: %w", err)
	}
	return snap, snap != nil, nil
}

func (b *PreferenceBaseline) Save(ctx context.Context, s Snapshot) error {
	if err := b.store.SetPreference(ctx, BaselinePreferenceKey, s); err != nil {
		return fmt.Errorf("saving user history baseline: %w", err)
	}
	return nil
}

// MemoryBaseline keeps the baseline in memory.
type MemoryBaseline struct {
	mu   sync.Mutex
	snap Snapshot
}

func (b *MemoryBaseline) Load(context.Context) (Snapshot, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.snap == nil {
		return nil, false, nil
	}
	return b.snap.Clone(), true, nil
}

func (b *MemoryBaseline) Save(_ context.Context, s Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap = s.Clone()
	return nil
}
