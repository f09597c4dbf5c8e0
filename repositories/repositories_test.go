package repositories

import (
	"testing"

	"stok-takip/migration"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestDB gives each test its own in-memory store. The pool is pinned to
// a single connection so every session sees the same :memory: database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, migration.Migrate(db))
	return db
}

func strptr(s string) *string {
	return &s
}
