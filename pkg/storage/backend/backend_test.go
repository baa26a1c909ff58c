package backend

import (
	"context"
	"testing"
	"time"

	"github.com/fadedpez/reverseroulette/internal/config"
	"github.com/fadedpez/reverseroulette/internal/logging"
	"github.com/fadedpez/reverseroulette/pkg/storage/file"
	"github.com/fadedpez/reverseroulette/pkg/storage/httpblob"
	"github.com/fadedpez/reverseroulette/pkg/storage/memory"
	"github.com/fadedpez/reverseroulette/pkg/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		backend string
		want    interface{}
	}{
		{config.BackendHTTP, &httpblob.Client{}},
		{config.BackendMemory, &memory.Storage{}},
		{config.BackendFile, &file.Storage{}},
		{config.BackendSQLite, &sqlite.Storage{}},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := &config.Config{
				BlobBackend:  tt.backend,
				BlobStoreURL: config.DefaultBlobStoreURL,
				HTTPTimeout:  time.Second,
				DataDir:      dir,
			}
			store, err := Open(context.Background(), cfg, logging.NewNop())
			require.NoError(t, err)
			defer store.Close()
			assert.IsType(t, tt.want, store)
		})
	}
}

func TestOpenUnknown(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{BlobBackend: "carrier-pigeon"}, logging.NewNop())
	assert.Error(t, err)
}
