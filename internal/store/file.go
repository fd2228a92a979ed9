package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/renameio"
)

// File persists all keys in one JSON document. Each call reads the document
// under a shared lock or rewrites it atomically under an exclusive lock, so
// several processes can share one file. Within a process, mu serializes
// calls: a flock.Flock reports an already held lock as acquired, so it cannot
// exclude goroutines sharing it.
type File struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

func NewFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return &File{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

func (f *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.lock.RLock(); err != nil {
		return nil, false, fmt.Errorf("locking store: %w", err)
	}
	defer f.lock.Unlock()

	data, err := f.read()
	if err != nil {
		return nil, false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

func (f *File) Set(_ context.Context, key string, value []byte) error {
	return f.update(func(data map[string][]byte) {
		data[key] = append([]byte(nil), value...)
	})
}

func (f *File) Delete(_ context.Context, key string) error {
	return f.update(func(data map[string][]byte) {
		delete(data, key)
	})
}

func (f *File) Keys(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.lock.RLock(); err != nil {
		return nil, fmt.Errorf("locking store: %w", err)
	}
	defer f.lock.Unlock()

	data, err := f.read()
	if err != nil {
		return nil, err
	}
	return matchKeys(data, prefix), nil
}

func (f *File) update(fn func(map[string][]byte)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("locking store: %w", err)
	}
	defer f.lock.Unlock()

	data, err := f.read()
	if err != nil {
		return err
	}
	fn(data)

	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding store: %w", err)
	}
	if err := renameio.WriteFile(f.path, encoded, 0o600); err != nil {
		return fmt.Errorf("writing store %s: %w", f.path, err)
	}
	return nil
}

func (f *File) read() (map[string][]byte, error) {
	data := make(map[string][]byte)
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading store %s: %w", f.path, err)
	}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decoding store %s: %w", f.path, err)
	}
	return data, nil
}
