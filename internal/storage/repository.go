// Package storage holds the backend-agnostic contracts for loading rows into
// a database: the Repository interface, a factory keyed by storage kind, the
// per-kind SQL dialect used for DDL and truncation, and a batching loader.
//
// Backends register themselves in init; import internal/storage/all to link
// every backend into a binary.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Execer runs a single statement, typically DDL.
type Execer interface {
	Exec(ctx context.Context, sql string) error
}

// Repository is one open connection to a target table.
type Repository interface {
	Execer
	// CopyFrom bulk-inserts rows (aligned to columns) and reports how many
	// rows were written.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	Close()
}

// Config is what every backend needs to open a Repository.
type Config struct {
	Kind    string
	DSN     string
	Table   string
	Columns []string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository with the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
