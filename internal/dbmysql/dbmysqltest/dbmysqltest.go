// Package dbmysqltest opens throwaway in-memory databases for tests.
package dbmysqltest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"cleanuptracker/internal/config"
	"cleanuptracker/internal/dbmysql"
)

// New returns a migrated, empty SQLite database private to the test.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.SQLitePath = ":memory:"
	cfg.Logging.Level = "error"

	db, err := dbmysql.NewDatabase(cfg, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SeedUsers inserts one user row per id.
func SeedUsers(t testing.TB, db *gorm.DB, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, db.Create(&dbmysql.User{UserID: id, Username: id}).Error)
	}
}
