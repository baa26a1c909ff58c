package memory

import (
	"testing"

	"github.com/fadedpez/reverseroulette/pkg/storage/storagetest"
	"github.com/stretchr/testify/suite"
)

type MemoryStorageSuite struct {
	storagetest.BlobStoreSuite
}

func (s *MemoryStorageSuite) SetupTest() {
	s.Store = New()
}

func TestMemoryStorage(t *testing.T) {
	suite.Run(t, new(MemoryStorageSuite))
}
