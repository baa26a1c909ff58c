// Package storagetest holds the behaviour every BlobStore backend shares
package storagetest

import (
	"context"
	"errors"
	"time"

	"github.com/fadedpez/reverseroulette/pkg/storage"
	"github.com/stretchr/testify/suite"
)

// BlobStoreSuite runs the common contract against a backend. Embedders set
// Store in their SetupTest.
type BlobStoreSuite struct {
	suite.Suite
	Store storage.BlobStore
}

func (s *BlobStoreSuite) TestCreateAndGet() {
	ctx := context.Background()

	id, err := s.Store.Create(ctx, []byte(`{"status":"lobby","version":0}`))
	s.Require().NoError(err, "Failed to create blob")
	s.NotEmpty(id)

	doc, err := s.Store.Get(ctx, id)
	s.Require().NoError(err, "Failed to load blob")
	s.JSONEq(`{"status":"lobby","version":0}`, string(doc))
}

func (s *BlobStoreSuite) TestPutReplacesWholeDocument() {
	ctx := context.Background()

	id, err := s.Store.Create(ctx, []byte(`{"a":1,"b":2}`))
	s.Require().NoError(err)

	s.Require().NoError(s.Store.Put(ctx, id, []byte(`{"a":3}`)))

	doc, err := s.Store.Get(ctx, id)
	s.Require().NoError(err)
	s.JSONEq(`{"a":3}`, string(doc))
}

func (s *BlobStoreSuite) TestIDsAreDistinct() {
	ctx := context.Background()

	first, err := s.Store.Create(ctx, []byte(`{}`))
	s.Require().NoError(err)
	second, err := s.Store.Create(ctx, []byte(`{}`))
	s.Require().NoError(err)
	s.NotEqual(first, second)
}

func (s *BlobStoreSuite) TestUnknownID() {
	ctx := context.Background()

	_, err := s.Store.Get(ctx, "does-not-exist")
	s.True(errors.Is(err, storage.ErrBlobNotFound), "got %v", err)

	err = s.Store.Put(ctx, "does-not-exist", []byte(`{}`))
	s.True(errors.Is(err, storage.ErrBlobNotFound), "got %v", err)
}

func (s *BlobStoreSuite) TestRejectsInvalidJSON() {
	ctx := context.Background()

	_, err := s.Store.Create(ctx, []byte(`not json`))
	s.True(errors.Is(err, storage.ErrInvalidDocument))

	id, err := s.Store.Create(ctx, []byte(`{}`))
	s.Require().NoError(err)
	s.True(errors.Is(s.Store.Put(ctx, id, []byte(`{`)), storage.ErrInvalidDocument))
}

func (s *BlobStoreSuite) TestGetReturnsACopy() {
	ctx := context.Background()

	id, err := s.Store.Create(ctx, []byte(`{"v":1}`))
	s.Require().NoError(err)

	doc, err := s.Store.Get(ctx, id)
	s.Require().NoError(err)
	doc[1] = 'X'

	again, err := s.Store.Get(ctx, id)
	s.Require().NoError(err)
	s.JSONEq(`{"v":1}`, string(again))
}

func (s *BlobStoreSuite) TestCleanupOldBlobs() {
	sweeper, ok := s.Store.(storage.Sweeper)
	if !ok {
		s.T().Skip("backend does not expire documents")
	}
	ctx := context.Background()

	id, err := s.Store.Create(ctx, []byte(`{}`))
	s.Require().NoError(err)

	s.Require().NoError(sweeper.CleanupOldBlobs(ctx, time.Hour))
	_, err = s.Store.Get(ctx, id)
	s.NoError(err, "fresh blob should survive")

	time.Sleep(5 * time.Millisecond)
	s.Require().NoError(sweeper.CleanupOldBlobs(ctx, time.Millisecond))
	_, err = s.Store.Get(ctx, id)
	s.True(errors.Is(err, storage.ErrBlobNotFound))
}
