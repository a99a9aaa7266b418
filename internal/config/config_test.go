package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tap30/gameanalytics-go/adapters"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gameanalytics.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("should apply defaults without a file", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "https://sandbox-api.gameanalytics.com/v2", cfg.Game.BaseURL)
		assert.Equal(t, 30*time.Second, cfg.Client.HTTPTimeout)
		assert.Equal(t, "file", cfg.Storage.Type)
		assert.Equal(t, 3000, cfg.Collector.Port)
		assert.Equal(t, "warn", cfg.Client.LogLevel)
	})

	t.Run("should read yaml", func(t *testing.T) {
		path := writeFile(t, `
game:
  game_key: abc
  secret_key: def
client:
  http_timeout: 5s
  max_events_per_second: 2.5
storage:
  type: sqlite
  sqlite:
    path: /tmp/ga.db
collector:
  port: 4000
  keys:
    - game_key: other
      secret_key: other-secret
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "abc", cfg.Game.GameKey)
		assert.Equal(t, 5*time.Second, cfg.Client.HTTPTimeout)
		assert.Equal(t, 2.5, cfg.Client.MaxEventsPerSecond)
		assert.Equal(t, "sqlite", cfg.Storage.Type)
		assert.Equal(t, "/tmp/ga.db", cfg.Storage.SQLite.Path)
		assert.Equal(t, 4000, cfg.Collector.Port)
		assert.Equal(t, map[string]string{"abc": "def", "other": "other-secret"}, cfg.CollectorKeys())
	})

	t.Run("should let the environment override the file", func(t *testing.T) {
		path := writeFile(t, "game:\n  game_key: from-file\n")
		t.Setenv("GA_GAME__GAME_KEY", "from-env")
		t.Setenv("GA_COLLECTOR__PORT", "9000")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Game.GameKey)
		assert.Equal(t, 9000, cfg.Collector.Port)
	})

	t.Run("should substitute ${VAR} secrets", func(t *testing.T) {
		path := writeFile(t, "game:\n  secret_key: ${GA_TEST_SECRET}\n")
		t.Setenv("GA_TEST_SECRET", "s3cret")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "s3cret", cfg.Game.SecretKey)
	})

	t.Run("should fail on malformed yaml", func(t *testing.T) {
		path := writeFile(t, "game: [\n")
		_, err := Load(path)
		require.Error(t, err)
	})
}

func TestStorageConfig_OpenStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("should open memory and file stores", func(t *testing.T) {
		store, closeFn, err := StorageConfig{Type: "memory"}.OpenStorage()
		require.NoError(t, err)
		assert.IsType(t, &adapters.MemoryStorageAdapter{}, store)
		require.NoError(t, closeFn())

		path := filepath.Join(t.TempDir(), "kv.json")
		store, _, err = StorageConfig{Type: "file", File: FileConfig{Path: path}}.OpenStorage()
		require.NoError(t, err)
		require.NoError(t, store.SetInt(ctx, "k", 1))
		assert.FileExists(t, path)
	})

	t.Run("should open sqlite stores", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "kv.db")
		store, closeFn, err := StorageConfig{Type: "sqlite", SQLite: SQLiteConfig{Path: path}}.OpenStorage()
		require.NoError(t, err)
		defer closeFn()
		require.NoError(t, store.SetInt(ctx, "k", 7))
		v, ok, err := store.GetInt(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 7, v)
	})

	t.Run("should build redis stores lazily", func(t *testing.T) {
		store, closeFn, err := StorageConfig{Type: "redis", Redis: RedisConfig{Addr: "127.0.0.1:1"}}.OpenStorage()
		require.NoError(t, err)
		assert.IsType(t, &adapters.RedisStorageAdapter{}, store)
		require.NoError(t, closeFn())
	})

	t.Run("should reject unknown types", func(t *testing.T) {
		_, _, err := StorageConfig{Type: "etcd"}.OpenStorage()
		require.Error(t, err)
	})
}
