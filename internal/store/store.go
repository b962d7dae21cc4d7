// Package store persists editor state in a key-value backend.
//
// Backends register a constructor under a type name; Open picks one from
// Config.Type. Available types are "memory", "file", "sqlite" and "redis".
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned by Get when the key has never been written
var ErrNotFound = errors.New("key not found")

// Store is a minimal key-value store
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Config selects and configures a backend
type Config struct {
	// Type is the backend name: memory, file, sqlite or redis.
	Type string `yaml:"type" json:"type"`

	// Path is the directory (file) or database file (sqlite).
	Path string `yaml:"path,omitempty" json:"path,omitempty"`

	// Addr is the redis host:port.
	Addr string `yaml:"addr,omitempty" json:"addr,omitempty"`

	// Password is the redis password.
	Password string `yaml:"password,omitempty" json:"password,omitempty"`

	// DB is the redis database number.
	DB int `yaml:"db,omitempty" json:"db,omitempty"`

	// Namespace prefixes redis keys as {namespace}:{key}.
	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty"`

	// DialTimeout bounds the initial connection check.
	DialTimeout time.Duration `yaml:"dial_timeout,omitempty" json:"dial_timeout,omitempty"`
}

// Factory builds a store from its configuration
type Factory func(ctx context.Context, cfg Config) (Store, error)

var (
	factories   = make(map[string]Factory)
	factoriesMu sync.RWMutex
)

// Register adds a backend. It panics on an empty or duplicate type.
func Register(storeType string, f Factory) {
	if storeType == "" || f == nil {
		panic("store: type and factory are required")
	}

	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	if _, exists := factories[storeType]; exists {
		panic(fmt.Sprintf("store: factory for type %q is already registered", storeType))
	}
	factories[storeType] = f
}

// Types lists registered backend names
func Types() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	types := make([]string, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Open creates the backend named by cfg.Type
func Open(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("store type is required")
	}

	factoriesMu.RLock()
	f, ok := factories[cfg.Type]
	factoriesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported store type: %s (available: %v)", cfg.Type, Types())
	}
	s, err := f(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Type, err)
	}
	return s, nil
}
