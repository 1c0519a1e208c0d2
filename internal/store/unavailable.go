package store

import (
	"context"
	"log"
)

// Unavailable stands in for a shared namespace that could not be opened.
// Reads find nothing and writes are dropped.
type Unavailable struct {
	logger *log.Logger
}

// Get implements Store.Get.
func (u Unavailable) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	return nil, ErrNotFound
}

// Set implements Store.Set. The write is dropped.
func (u Unavailable) Set(ctx context.Context, namespace, key string, value []byte) error {
	if u.logger != nil {
		u.logger.Printf("Warning: store unavailable, dropped write to %s/%s", namespace, key)
	}
	return nil
}

// Delete implements Store.Delete.
func (u Unavailable) Delete(ctx context.Context, namespace, key string) error {
	return nil
}

// Close implements Store.Close.
func (u Unavailable) Close() error {
	return nil
}
