package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "loadboard")
	t.Setenv("DB_NAME", "loadboard")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("GOOGLE_MAPS_API_KEY", "key")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, loaded, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, 500*time.Millisecond, cfg.FormDebounce)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 5, cfg.DB.MaxRetries)
	assert.False(t, cfg.NewRelic.Enabled())
	assert.Equal(t, "host=db port=5432 user=loadboard password= dbname=loadboard sslmode=disable", cfg.DB.DSN())
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FORM_DEBOUNCE=250ms\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("FORM_DEBOUNCE") })

	cfg, loaded, err := Load(path)

	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, 250*time.Millisecond, cfg.FormDebounce)
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET_KEY", "")
	os.Unsetenv("JWT_SECRET_KEY")

	_, _, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Error(t, err)
}
