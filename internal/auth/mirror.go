package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MirrorKey is the key the session snapshot is stored under.
const MirrorKey = "auth.session"

// Mirror persists the verified session snapshot for reload continuity.
type Mirror interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (Snapshot, bool, error)
	Clear(ctx context.Context) error
}

// KeyValueStore is the subset of the queue store the mirror needs.
type KeyValueStore interface {
	PutValue(ctx context.Context, key, value string) error
	GetValue(ctx context.Context, key string) (string, bool, error)
	DeleteValue(ctx context.Context, key string) error
}

// StoreMirror keeps the snapshot as JSON in a key/value store.
type StoreMirror struct {
	store KeyValueStore
	key   string
}

// NewStoreMirror returns a mirror backed by store.
func NewStoreMirror(store KeyValueStore) *StoreMirror {
	return &StoreMirror{store: store, key: MirrorKey}
}

func (m *StoreMirror) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session snapshot: %w", err)
	}
	return m.store.PutValue(ctx, m.key, string(data))
}

func (m *StoreMirror) Load(ctx context.Context) (Snapshot, bool, error) {
	raw, ok, err := m.store.GetValue(ctx, m.key)
	if err != nil || !ok {
		return Snapshot{}, false, err
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("decode session snapshot: %w", err)
	}
	return snap, true, nil
}

func (m *StoreMirror) Clear(ctx context.Context) error {
	return m.store.DeleteValue(ctx, m.key)
}

// MemoryMirror is an in-process Mirror.
type MemoryMirror struct {
	mu   sync.Mutex
	snap *Snapshot
}

func (m *MemoryMirror) Save(_ context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = &snap
	return nil
}

func (m *MemoryMirror) Load(context.Context) (Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return Snapshot{}, false, nil
	}
	return *m.snap, true, nil
}

func (m *MemoryMirror) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = nil
	return nil
}
