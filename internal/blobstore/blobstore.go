package blobstore

import (
	"context"
	"errors"
)

// ErrNotExist is returned by Get when the key has never been written.
// A fresh store is not an error condition; callers branch on this.
var ErrNotExist = errors.New("blob does not exist")

// Backend defines common key→bytes operations across backends.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Store wraps a Backend with a stable API. Writes are last-write-wins;
// no transactionality is provided beyond that.
type Store struct {
	backend Backend
}

// NewStore constructs a Store wrapper for the provided backend.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Get reads the blob stored under key. Returns ErrNotExist when absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	return s.backend.Get(ctx, key)
}

// Set overwrites the blob stored under key.
func (s *Store) Set(ctx context.Context, key string, data []byte) error {
	return s.backend.Set(ctx, key, data)
}

// Delete removes the blob stored under key. Deleting an absent key is a
// no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}
