package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fadedpez/reverseroulette/internal/logging"
	"github.com/fadedpez/reverseroulette/pkg/db/migrations"
	"github.com/fadedpez/reverseroulette/pkg/storage"
	_ "github.com/mattn/go-sqlite3"
)

// Storage keeps documents in a sqlite table
type Storage struct {
	db *sql.DB
}

// New opens (creating if needed) the database at dbPath and migrates it
func New(ctx context.Context, dbPath string, logger *logging.Logger) (*Storage, error) {
	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("error creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if _, err := migrations.NewMigrator(db, logger).MigrateUp(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error applying migrations: %w", err)
	}

	return &Storage{db: db}, nil
}

// Create stores a new document
func (s *Storage) Create(ctx context.Context, data []byte) (string, error) {
	if err := storage.ValidateDocument(data); err != nil {
		return "", err
	}

	id := storage.NewID()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blobs (id, data, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, string(data), now, now)
	if err != nil {
		return "", fmt.Errorf("error creating blob: %w", err)
	}
	return id, nil
}

// Get returns the current document
func (s *Storage) Get(ctx context.Context, id string) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM blobs WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", storage.ErrBlobNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading blob %s: %w", id, err)
	}
	return []byte(data), nil
}

// Put overwrites an existing document
func (s *Storage) Put(ctx context.Context, id string, data []byte) error {
	if err := storage.ValidateDocument(data); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE blobs SET data = ?, updated_at = ? WHERE id = ?`,
		string(data), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("error writing blob %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", storage.ErrBlobNotFound, id)
	}
	return nil
}

// CleanupOldBlobs removes documents not written within maxAge
func (s *Storage) CleanupOldBlobs(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().UTC().Add(-maxAge)
	_, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE updated_at < ?`, cutoff)
	return err
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}
