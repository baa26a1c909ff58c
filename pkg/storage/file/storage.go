package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fadedpez/reverseroulette/internal/logging"
	"github.com/fadedpez/reverseroulette/pkg/storage"
)

// Storage implements file-based storage for documents. The whole set is
// held in memory and rewritten to a single JSON file on every change.
type Storage struct {
	path    string
	mu      sync.RWMutex
	blobs   map[string]*storage.Blob
	options *storage.Options
	done    chan struct{}
	once    sync.Once
	logger  *logging.Logger
}

// New creates a new file storage instance
func New(options *storage.Options, logger *logging.Logger) (*Storage, error) {
	if options == nil {
		options = storage.NewOptions()
	}
	if logger == nil {
		logger = logging.Default
	}

	s := &Storage{
		path:    options.Path,
		blobs:   make(map[string]*storage.Blob),
		options: options,
		done:    make(chan struct{}),
		logger:  logger.Named("file-storage"),
	}

	// Load existing documents from file
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("failed to load blobs: %w", err)
	}

	// Start cleanup goroutine if enabled
	if options.AutoCleanup && options.MaxBlobAge > 0 {
		go s.cleanupRoutine()
	}

	return s, nil
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

	if err := s.save(); err != nil {
		delete(s.blobs, id)
		return "", err
	}
	return id, nil
}

// Get returns the current document
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

	previous := blob.Data
	blob.Data = append([]byte(nil), data...)
	blob.UpdatedAt = time.Now()

	if err := s.save(); err != nil {
		blob.Data = previous
		return err
	}
	return nil
}

// CleanupOldBlobs removes documents older than maxAge
func (s *Storage) CleanupOldBlobs(ctx context.Context, maxAge time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, blob := range s.blobs {
		if now.Sub(blob.UpdatedAt) > maxAge {
			delete(s.blobs, id)
			removed++
		}
	}
	if removed == 0 {
		return nil
	}

	return s.save()
}

// Close stops the cleanup routine
func (s *Storage) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

// Helper functions

func (s *Storage) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	return json.Unmarshal(data, &s.blobs)
}

func (s *Storage) save() error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.Marshal(s.blobs)
	if err != nil {
		return fmt.Errorf("failed to marshal blobs: %w", err)
	}

	// Write beside the target, then rename into place
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}

	return nil
}

func (s *Storage) cleanupRoutine() {
	ticker := time.NewTicker(s.options.MaxBlobAge / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.CleanupOldBlobs(context.Background(), s.options.MaxBlobAge); err != nil {
				s.logger.Warn("Error cleaning up old blobs: %v", err)
			}
		case <-s.done:
			return
		}
	}
}
