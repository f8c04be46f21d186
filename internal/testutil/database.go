package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Veraticus/grantlens/internal/model"
	"github.com/Veraticus/grantlens/internal/storage"
)

// SetupTestDB creates a migrated in-memory store that is closed when the
// test ends.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.Open(context.Background(), storage.MemoryPath)
	require.NoError(t, err, "failed to create test database")

	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// SetupSeededDB creates a test store holding the given dataset.
func SetupSeededDB(t *testing.T, ds *model.Dataset) *storage.SQLiteStorage {
	t.Helper()

	store := SetupTestDB(t)
	require.NoError(t, store.SaveDataset(context.Background(), ds), "failed to seed dataset")
	return store
}
