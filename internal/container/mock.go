package container

import (
	"context"

	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/database"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/storage"
	"gorm.io/gorm"
)

// MockJWTSecret signs tokens issued by a mock container
var MockJWTSecret = []byte("test-secret-key-for-jwt")

// MockContainer is a fully wired container over in-memory SQLite and an
// in-memory object store.
type MockContainer struct {
	*Container
	Store *storage.MemoryStore
}

// NewMock creates a wired mock container. opts may be zero; JWTSecret
// defaults to MockJWTSecret.
func NewMock(opts Options) (*MockContainer, error) {
	db, err := database.OpenSQLite("file::memory:")
	if err != nil {
		return nil, err
	}

	store := storage.NewMemoryStore()
	if len(opts.JWTSecret) == 0 {
		opts.JWTSecret = MockJWTSecret
	}

	c := New().SetDB(db).SetObjectStore(store)
	c.OnCleanup(func(_ context.Context) error { return closeDB(db) })
	if err := c.Wire(opts); err != nil {
		return nil, err
	}
	return &MockContainer{Container: c, Store: store}, nil
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
