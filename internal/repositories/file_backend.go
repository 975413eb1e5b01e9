package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/philippgille/gokv"
	"github.com/philippgille/gokv/encoding"
	"github.com/philippgille/gokv/file"
)

const recordExt = "json"

// FileBackend keeps one directory per collection under root and one JSON
// file per record, named after its (path-escaped) key.
type FileBackend struct {
	root string

	mu     sync.Mutex
	stores map[Collection]gokv.Store
}

// NewFileBackend creates a FileBackend rooted at dir. Collection folders
// are created on first use.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{
		root:   dir,
		stores: make(map[Collection]gokv.Store),
	}
}

func (b *FileBackend) dir(col Collection) string {
	return filepath.Join(b.root, col.String())
}

// store returns the gokv store of col, creating its folder if needed.
// Another process creating the folder first is not an error.
func (b *FileBackend) store(col Collection) (gokv.Store, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.stores[col]; ok {
		return s, nil
	}

	dir := b.dir(col)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(b.root, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data dir %s: %w", b.root, err)
		}
		if err := os.Mkdir(dir, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("failed to create collection dir %s: %w", dir, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat collection dir %s: %w", dir, err)
	}

	ext := recordExt
	s, err := file.NewStore(file.Options{
		Directory:         dir,
		FilenameExtension: &ext,
		Codec:             encoding.JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", col, err)
	}
	b.stores[col] = s
	return s, nil
}

func (b *FileBackend) Exists(ctx context.Context, col Collection, key string) (bool, error) {
	_, found, err := b.Get(ctx, col, key)
	return found, err
}

func (b *FileBackend) Get(_ context.Context, col Collection, key string) ([]byte, bool, error) {
	s, err := b.store(col)
	if err != nil {
		return nil, false, err
	}
	var raw json.RawMessage
	found, err := s.Get(key, &raw)
	if err != nil || !found {
		return nil, found, err
	}
	return raw, true, nil
}

func (b *FileBackend) Put(_ context.Context, col Collection, key string, data []byte) error {
	s, err := b.store(col)
	if err != nil {
		return err
	}
	return s.Set(key, json.RawMessage(data))
}

func (b *FileBackend) Delete(_ context.Context, col Collection, key string) error {
	s, err := b.store(col)
	if err != nil {
		return err
	}
	return s.Delete(key)
}

// Keys lists the record files of col. A collection never written to has no
// folder yet and no keys.
func (b *FileBackend) Keys(_ context.Context, col Collection) ([]string, error) {
	entries, err := os.ReadDir(b.dir(col))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	suffix := "." + recordExt
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, suffix) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, suffix))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *FileBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	for col, s := range b.stores {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", col, err))
		}
	}
	b.stores = make(map[Collection]gokv.Store)
	return errors.Join(errs...)
}
