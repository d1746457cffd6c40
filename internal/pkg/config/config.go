package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port            string        `env:"PORT,             default=8080"`
	Env             string        `env:"ENV,              default=development"`
	JWTSecret       string        `env:"JWT_SECRET,       required"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	TokenTTL        time.Duration `env:"TOKEN_TTL,        default=168h"`
	ResetCodeTTL    time.Duration `env:"RESET_CODE_TTL,   default=10m"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`

	Mongo  MongoConfig
	Redis  RedisConfig
	Notify NotifyConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=mentorship"`
}

type RedisConfig struct {
	Addr          string        `env:"REDIS_ADDR,      default=localhost:6379"`
	Password      string        `env:"REDIS_PASSWORD"`
	DB            int           `env:"REDIS_DB,        default=0"`
	SubmitLockTTL time.Duration `env:"SUBMIT_LOCK_TTL, default=10s"`
}

// NotifyConfig controls notification delivery. Workers == 0 delivers inline,
// inside the request that caused the event.
type NotifyConfig struct {
	Workers int `env:"NOTIFY_WORKERS, default=4"`
	Buffer  int `env:"NOTIFY_BUFFER,  default=256"`
}

func (c *Config) Production() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Notify.Workers < 0 {
		return nil, fmt.Errorf("config: NOTIFY_WORKERS must not be negative")
	}
	return &cfg, nil
}
