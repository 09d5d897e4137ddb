// Package storage keeps the session token and recently reported events.
package storage

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Store persists the session token and tracks reported event keys.
type Store interface {
	Close() error
	Token() (string, error)
	SetToken(token string) error
	ClearToken() error
	SeenEvent(key string) (bool, error)
	MarkEvent(key string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	EventTTL        time.Duration
	CleanupInterval time.Duration
}

const (
	defaultEventTTL        = 10 * time.Minute
	defaultCleanupInterval = time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return &memoryStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.EventTTL <= 0 {
		opts.EventTTL = defaultEventTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

// memoryStore holds the token for the process lifetime and never dedupes events.
type memoryStore struct {
	mu    sync.RWMutex
	token string
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) Token() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *memoryStore) SetToken(token string) error {
	m.mu.Lock()
	m.token = strings.TrimSpace(token)
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) ClearToken() error { return m.SetToken("") }

func (m *memoryStore) SeenEvent(string) (bool, error) { return false, nil }
func (m *memoryStore) MarkEvent(string) error         { return nil }
