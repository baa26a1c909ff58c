package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fadedpez/reverseroulette/pkg/storage"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces document keys
const DefaultKeyPrefix = "reverseroulette:blob:"

// Options configures the redis backend
type Options struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	// TTL expires idle documents; zero keeps them forever
	TTL time.Duration
}

// Storage keeps each document under its own key. Every write refreshes the
// key's TTL, so abandoned games expire on their own.
type Storage struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// New connects to redis and verifies the connection
func New(ctx context.Context, opts Options) (*Storage, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := goredis.NewClient(&goredis.Options{Addr: opts.Addr, Password: opts.Password, DB: opts.DB})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("error connecting to redis at %s: %w", opts.Addr, err)
	}

	return NewWithClient(client, opts.KeyPrefix, opts.TTL), nil
}

// NewWithClient wraps an existing client
func NewWithClient(client *goredis.Client, prefix string, ttl time.Duration) *Storage {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Storage{client: client, prefix: prefix, ttl: ttl}
}

// Create stores a new document under a fresh id
func (s *Storage) Create(ctx context.Context, data []byte) (string, error) {
	if err := storage.ValidateDocument(data); err != nil {
		return "", err
	}

	id := storage.NewID()
	ok, err := s.client.SetNX(ctx, s.key(id), data, s.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("error creating blob: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("error creating blob: id %s already in use", id)
	}
	return id, nil
}

// Get returns the current document
func (s *Storage) Get(ctx context.Context, id string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("%w: %s", storage.ErrBlobNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading blob %s: %w", id, err)
	}
	return data, nil
}

// Put overwrites an existing document
func (s *Storage) Put(ctx context.Context, id string, data []byte) error {
	if err := storage.ValidateDocument(data); err != nil {
		return err
	}

	ok, err := s.client.SetXX(ctx, s.key(id), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("error writing blob %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", storage.ErrBlobNotFound, id)
	}
	return nil
}

// Close closes the redis client
func (s *Storage) Close() error {
	return s.client.Close()
}

func (s *Storage) key(id string) string {
	return s.prefix + id
}
