package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -source=$GOFILE -destination=mock/mock.go -package=mock_storage

// Common storage errors
var (
	ErrBlobNotFound    = errors.New("blob not found")
	ErrInvalidDocument = errors.New("document is not valid JSON")
)

// BlobStore is whole-document storage addressed by an opaque id. Every
// write replaces the full document; there are no partial updates.
type BlobStore interface {
	// Create stores a new document and returns its id
	Create(ctx context.Context, data []byte) (string, error)

	// Get returns the current document, or ErrBlobNotFound
	Get(ctx context.Context, id string) ([]byte, error)

	// Put overwrites an existing document, or returns ErrBlobNotFound
	Put(ctx context.Context, id string, data []byte) error

	// Close releases any resources held by the store
	Close() error
}

// Sweeper is implemented by backends that can expire idle documents
type Sweeper interface {
	CleanupOldBlobs(ctx context.Context, maxAge time.Duration) error
}

// Blob is a stored document with its bookkeeping
type Blob struct {
	ID        string          `json:"id"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Options represents storage configuration options
type Options struct {
	Path        string
	MaxBlobAge  time.Duration
	AutoCleanup bool
}

// NewOptions creates a new Options with default values
func NewOptions() *Options {
	return &Options{
		Path:        "blobs.json",
		MaxBlobAge:  24 * time.Hour,
		AutoCleanup: true,
	}
}

// NewID returns a fresh document id
func NewID() string {
	return uuid.NewString()
}

// ValidateDocument rejects bodies that are not a JSON value
func ValidateDocument(data []byte) error {
	if !json.Valid(data) {
		return ErrInvalidDocument
	}
	return nil
}
