package storage

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Package storage provides the durable key/value store that holds the
// article mapping and saved list.

// Store is a namespaced key/value store. Get returns nil, nil for absent keys.
type Store interface {
	Close() error
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
}

// Options controls how concrete store implementations open their backing files.
type Options struct {
	OpenTimeout time.Duration
}

const (
	TypeBBolt  = "bbolt"
	TypeSQLite = "sqlite"
	TypeMemory = "memory"

	defaultOpenTimeout = time.Second
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled", TypeMemory:
		return NewMemoryStore(), nil
	case TypeBBolt:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	case TypeSQLite:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("sqlite storage requires a path")
		}
		return openSQLite(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = defaultOpenTimeout
	}
	return opts
}

// memoryStore keeps values for the life of the process.
type memoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore returns an ephemeral Store.
func NewMemoryStore() Store {
	return &memoryStore{data: make(map[string][]byte)}
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *memoryStore) Put(key string, value []byte) error {
	m.mu.Lock()
	m.data[key] = append([]byte(nil), value...)
	m.mu.Unlock()
	return nil
}
