package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fadedpez/reverseroulette/pkg/storage"
)

// Storage keeps documents in process memory
type Storage struct {
	mu    sync.RWMutex
	blobs map[string]*storage.Blob
}

// New creates an empty in-memory store
func New() *Storage {
	return &Storage{blobs: make(map[string]*storage.Blob)}
}

// Create stores a new document
func (s *Storage) Create(ctx context.Context, data []byte) (string, error) {
	if err := storage.ValidateDocument(data); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	id := storage.NewID()
	s.blobs[id] = &storage.Blob{
		ID:        id,
		Data:      append([]byte(nil), data...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return id, nil
}

// Get returns a copy of the document
func (s *Storage) Get(ctx context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.blobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrBlobNotFound, id)
	}
	return append([]byte(nil), blob.Data...), nil
}

// Put overwrites an existing document
func (s *Storage) Put(ctx context.Context, id string, data []byte) error {
	if err := storage.ValidateDocument(data); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	blob, ok := s.blobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", storage.ErrBlobNotFound, id)
	}
	blob.Data = append([]byte(nil), data...)
	blob.UpdatedAt = time.Now()
	return nil
}

// CleanupOldBlobs removes documents not written within maxAge
func (s *Storage) CleanupOldBlobs(ctx context.Context, maxAge time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, blob := range s.blobs {
		if now.Sub(blob.UpdatedAt) > maxAge {
			delete(s.blobs, id)
		}
	}
	return nil
}

// Len reports how many documents are stored
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Close is a no-op for memory storage
func (s *Storage) Close() error {
	return nil
}
