package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("RELAY_DB_DSN", "postgres://localhost/relay")
	t.Setenv("RELAY_JWT_SECRET", "secret")

	cfg, err := Load()
	req.NoError(err)
	req.Equal(":8080", cfg.Addr)
	req.Equal(50, cfg.HistoryLimit)
	req.Equal(5*time.Minute, cfg.HistoryTTL)
	req.Empty(cfg.RedisAddr)
	req.Equal("dev", cfg.Env)
}

func TestLoad_Overrides(t *testing.T) {
	req := require.New(t)
	t.Setenv("RELAY_DB_DSN", "postgres://localhost/relay")
	t.Setenv("RELAY_JWT_SECRET", "secret")
	t.Setenv("RELAY_ADDR", ":9000")
	t.Setenv("RELAY_REDIS_ADDR", "localhost:6379")
	t.Setenv("RELAY_HISTORY_LIMIT", "25")
	t.Setenv("RELAY_HISTORY_TTL", "30s")

	cfg, err := Load()
	req.NoError(err)
	req.Equal(":9000", cfg.Addr)
	req.Equal("localhost:6379", cfg.RedisAddr)
	req.Equal(25, cfg.HistoryLimit)
	req.Equal(30*time.Second, cfg.HistoryTTL)
}

func TestLoad_RequiresDSNAndSecret(t *testing.T) {
	req := require.New(t)
	// t.Setenv registers the restore; the unset makes the variable truly absent.
	t.Setenv("RELAY_DB_DSN", "x")
	t.Setenv("RELAY_JWT_SECRET", "x")
	os.Unsetenv("RELAY_DB_DSN")
	os.Unsetenv("RELAY_JWT_SECRET")

	_, err := Load()
	req.Error(err)
}
