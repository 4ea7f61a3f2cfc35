// Package testdb opens throwaway sqlite databases for tests.
package testdb

import (
	"fmt"
	"sync/atomic"
	"testing"

	"bundlehub/internal/repositories"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var seq atomic.Int64

// Open returns a migrated in-memory database private to the test.
// The pool is limited to one connection so sqlite writers never race;
// callers must not query the root handle while holding a transaction.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb_%d?mode=memory&cache=shared", seq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         repositories.NewGormLogger(zap.NewNop()),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, repositories.Migrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}
