package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Backend persists serialized records. Implementations do not enforce
// create/update semantics; the RecordStore does that on top of Exists.
type Backend interface {
	// Exists reports whether a record is stored under key.
	Exists(ctx context.Context, col Collection, key string) (bool, error)
	// Get returns the serialized record, with found=false when it is absent.
	Get(ctx context.Context, col Collection, key string) (data []byte, found bool, err error)
	// Put stores data under key, replacing any previous content.
	Put(ctx context.Context, col Collection, key string, data []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, col Collection, key string) error
	// Keys lists every key of the collection.
	Keys(ctx context.Context, col Collection) ([]string, error)
	Close() error
}

// MemoryBackend is an in-memory Backend used by tests and STORE_DRIVER=memory.
type MemoryBackend struct {
	records map[Collection]map[string][]byte
	mu      sync.RWMutex
}

// NewMemoryBackend creates a new, empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		records: make(map[Collection]map[string][]byte),
	}
}

func (b *MemoryBackend) Exists(_ context.Context, col Collection, key string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, ok := b.records[col][key]
	return ok, nil
}

func (b *MemoryBackend) Get(_ context.Context, col Collection, key string) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.records[col][key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

func (b *MemoryBackend) Put(_ context.Context, col Collection, key string, data []byte) error {
	if key == "" {
		return fmt.Errorf("empty key in %s", col)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.records[col] == nil {
		b.records[col] = make(map[string][]byte)
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	b.records[col][key] = stored
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, col Collection, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.records[col], key)
	return nil
}

func (b *MemoryBackend) Keys(_ context.Context, col Collection) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.records[col]))
	for k := range b.records[col] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *MemoryBackend) Close() error { return nil }
