package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/fadedpez/reverseroulette/pkg/storage"
	"github.com/stretchr/testify/suite"
)

type RedisStorageSuite struct {
	suite.Suite
	storage *Storage
}

func TestRedisStorage(t *testing.T) {
	if os.Getenv("REDIS_ADDR") == "" {
		t.Skip("REDIS_ADDR not set")
	}
	suite.Run(t, new(RedisStorageSuite))
}

func (s *RedisStorageSuite) SetupTest() {
	st, err := New(context.Background(), Options{
		Addr:      os.Getenv("REDIS_ADDR"),
		KeyPrefix: "reverseroulette-test:",
		TTL:       time.Minute,
	})
	s.Require().NoError(err)
	s.storage = st
}

func (s *RedisStorageSuite) TearDownTest() {
	s.storage.Close()
}

func (s *RedisStorageSuite) TestRoundTrip() {
	ctx := context.Background()

	id, err := s.storage.Create(ctx, []byte(`{"version":0}`))
	s.Require().NoError(err)

	s.Require().NoError(s.storage.Put(ctx, id, []byte(`{"version":1}`)))

	doc, err := s.storage.Get(ctx, id)
	s.Require().NoError(err)
	s.JSONEq(`{"version":1}`, string(doc))
}

func (s *RedisStorageSuite) TestMissing() {
	ctx := context.Background()

	_, err := s.storage.Get(ctx, "missing")
	s.True(errors.Is(err, storage.ErrBlobNotFound))
	s.True(errors.Is(s.storage.Put(ctx, "missing", []byte(`{}`)), storage.ErrBlobNotFound))
}

func (s *RedisStorageSuite) TestRejectsInvalidJSON() {
	_, err := s.storage.Create(context.Background(), []byte(`{`))
	s.True(errors.Is(err, storage.ErrInvalidDocument))
}
