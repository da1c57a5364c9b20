package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is loaded from RELAY_* environment variables, with a local .env file
// picked up in development.
type Config struct {
	Addr string `envconfig:"ADDR" default:":8080"`

	DatabaseDSN string `envconfig:"DB_DSN" required:"true"`

	// Empty disables the history cache.
	RedisAddr  string        `envconfig:"REDIS_ADDR"`
	HistoryTTL time.Duration `envconfig:"HISTORY_TTL" default:"5m"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	HistoryLimit int `envconfig:"HISTORY_LIMIT" default:"50"`

	Env string `envconfig:"ENV" default:"dev"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("relay", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
