package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by Get when the key has never been written or
// has been deleted.
var ErrNotFound = errors.New("key not found")

// Store is the narrow key-value surface shared by the app, its widgets and
// the companion. Values are opaque bytes scoped by namespace.
type Store interface {
	// Get returns the bytes stored under namespace/key, or ErrNotFound.
	Get(ctx context.Context, namespace, key string) ([]byte, error)

	// Set replaces the bytes stored under namespace/key.
	Set(ctx context.Context, namespace, key string, value []byte) error

	// Delete removes namespace/key. Deleting a missing key is not an error.
	Delete(ctx context.Context, namespace, key string) error

	// Close releases the backend.
	Close() error
}

// Watchable is implemented by backends whose writes can be observed from
// other processes through the file system.
type Watchable interface {
	// WatchDirs lists the directories to watch.
	WatchDirs() []string

	// ChangeFor maps a changed path to the namespace/key it holds. An empty
	// key means "some key changed". ok is false for unrelated files.
	ChangeFor(path string) (change Change, ok bool)
}

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendDir    = "dir"
	BackendMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	// Backend is one of BackendSQLite, BackendDir or BackendMemory.
	Backend string

	// Dir is the data directory. The SQLite file is Dir/shared.db and the
	// directory backend stores Dir/shared/<namespace>/<key>.json.
	Dir string

	// Logger receives warnings about degraded operation.
	Logger *log.Logger
}

// Open returns the configured backend.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendSQLite:
		if opts.Dir == "" {
			return nil, fmt.Errorf("data directory cannot be empty")
		}
		return OpenSQLite(filepath.Join(opts.Dir, "shared.db"))
	case BackendDir:
		if opts.Dir == "" {
			return nil, fmt.Errorf("data directory cannot be empty")
		}
		return OpenDir(filepath.Join(opts.Dir, "shared"))
	case BackendMemory:
		return NewMemStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

// OpenOrUnavailable opens the configured backend and degrades to
// Unavailable when it cannot be opened. The failure is logged once and is
// permanent for the session.
func OpenOrUnavailable(opts Options) Store {
	s, err := Open(opts)
	if err != nil {
		logger := opts.Logger
		if logger == nil {
			logger = log.New(os.Stderr, "[store] ", log.LstdFlags)
		}
		logger.Printf("Warning: shared store unavailable, continuing without persistence: %v", err)
		return Unavailable{logger: logger}
	}
	return s
}
