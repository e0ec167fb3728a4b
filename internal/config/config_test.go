package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
env: dev
http_server:
  address: localhost:8082
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, ":memory:", cfg.StoragePath)
	assert.False(t, cfg.SkipSeed)
	assert.Equal(t, "localhost:8082", cfg.Addr)
}

func TestLoad_SQLiteDriver(t *testing.T) {
	path := writeConfig(t, `
env: prod
storage_driver: sqlite
storage_path: registry.db
skip_seed: true
http_server:
  address: 0.0.0.0:9000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.StorageDriver)
	assert.Equal(t, "registry.db", cfg.StoragePath)
	assert.True(t, cfg.SkipSeed)
}

func TestLoad_ExplicitSeedKeyIsKept(t *testing.T) {
	path := writeConfig(t, `
env: dev
skip_seed: false
http_server:
  address: localhost:8082
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.SkipSeed)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "unknown_driver",
			body: "env: dev\nstorage_driver: postgres\nhttp_server:\n  address: :8080\n",
		},
		{
			name: "missing_address",
			body: "env: dev\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "does not exist")
}
