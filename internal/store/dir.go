package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const dirExt = ".json"

// DirStore keeps each value in its own file:
//
//	<root>/<namespace>/<key>.json
//
// Files are replaced atomically (temp file + rename) so readers in other
// processes never observe a half-written value.
type DirStore struct {
	root string
}

// OpenDir creates the root directory if needed.
func OpenDir(root string) (*DirStore, error) {
	if root == "" {
		return nil, fmt.Errorf("root directory cannot be empty")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory %s: %w", root, err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store directory: %w", err)
	}
	return &DirStore{root: abs}, nil
}

// Root returns the absolute root directory.
func (s *DirStore) Root() string {
	return s.root
}

func (s *DirStore) path(namespace, key string) string {
	return filepath.Join(s.root, url.PathEscape(namespace), url.PathEscape(key)+dirExt)
}

// Get implements Store.Get.
func (s *DirStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(namespace, key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", namespace, key, err)
	}
	return data, nil
}

// Set implements Store.Set.
func (s *DirStore) Set(ctx context.Context, namespace, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.path(namespace, key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create namespace directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write %s/%s: %w", namespace, key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Delete implements Store.Delete. Returns nil if the key doesn't exist.
func (s *DirStore) Delete(ctx context.Context, namespace, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(s.path(namespace, key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Close implements Store.Close. Nothing is held open.
func (s *DirStore) Close() error {
	return nil
}

// WatchDirs implements Watchable. Only namespaces that already exist are
// watched; Shared creates its namespace directory on open.
func (s *DirStore) WatchDirs() []string {
	dirs := []string{s.root}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return dirs
	}
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(s.root, e.Name()))
		}
	}
	return dirs
}

// ChangeFor implements Watchable.
func (s *DirStore) ChangeFor(path string) (Change, bool) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, dirExt) {
		return Change{}, false
	}
	nsDir := filepath.Dir(path)
	if filepath.Dir(nsDir) != s.root {
		return Change{}, false
	}

	namespace, err := url.PathUnescape(filepath.Base(nsDir))
	if err != nil {
		return Change{}, false
	}
	key, err := url.PathUnescape(strings.TrimSuffix(name, dirExt))
	if err != nil {
		return Change{}, false
	}
	return Change{Namespace: namespace, Key: key}, true
}

// EnsureNamespace creates the namespace directory so it can be watched
// before the first write.
func (s *DirStore) EnsureNamespace(namespace string) error {
	dir := filepath.Join(s.root, url.PathEscape(namespace))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create namespace directory: %w", err)
	}
	return nil
}
