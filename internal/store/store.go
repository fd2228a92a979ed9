// Package store holds client-local state: the cached API description and the
// per-operation column preferences. Writes are last-write-wins.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Store is a byte-valued key-value store.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys lists the keys beginning with prefix in lexical order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// Options selects and configures a Store implementation.
type Options struct {
	Driver    string
	Path      string
	RedisAddr string
	// RedisPrefix namespaces keys inside a shared redis database.
	RedisPrefix string
}

// Open builds the store named by opts.Driver.
func Open(opts Options) (Store, error) {
	switch opts.Driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverFile:
		if opts.Path == "" {
			return nil, fmt.Errorf("file store requires a path")
		}
		return NewFile(opts.Path)
	case DriverRedis:
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("redis store requires an address")
		}
		return NewRedisAddr(opts.RedisAddr, opts.RedisPrefix), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s (valid: memory, file, redis)", opts.Driver)
	}
}

// Memory is an in-process Store.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return matchKeys(m.data, prefix), nil
}

func matchKeys(data map[string][]byte, prefix string) []string {
	var keys []string
	for k := range data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
