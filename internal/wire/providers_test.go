package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeApplication_SQLite(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", ":memory:")
	t.Setenv("LOG_LEVEL", "error")

	app, err := InitializeApplication()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := app.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	assert.NotNil(t, app.Handler)
	assert.NotNil(t, app.Health)
	assert.NotNil(t, app.Dispatcher)
	assert.Zero(t, app.Registry.Len())
	assert.NoError(t, app.Store.Ping(t.Context()))
}

func TestProvideTokenManager(t *testing.T) {
	cfg := ProvideConfig()
	cfg.Auth.JWTSecret = ""
	assert.False(t, ProvideTokenManager(cfg).Enabled())

	cfg.Auth.JWTSecret = "s3cret"
	assert.True(t, ProvideTokenManager(cfg).Enabled())
}
