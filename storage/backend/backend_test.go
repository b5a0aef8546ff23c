package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Abhi-coder-crypto/Inv-gen/config"
	"github.com/Abhi-coder-crypto/Inv-gen/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMemory(t *testing.T) {
	cfg := &config.Config{StorageBackend: config.BackendMemory, DataFile: filepath.Join(t.TempDir(), "data.json")}
	store, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	assert.IsType(t, &memory.Store{}, store)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{StorageBackend: "sqlite"}, nil)
	assert.ErrorContains(t, err, "sqlite")
}
