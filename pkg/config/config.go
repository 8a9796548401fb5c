package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var Empty = new(Config)

type Config struct {
	AppEnv       string `envconfig:"APP_ENV" default:"local"`
	Port         int    `envconfig:"PORT" default:"8080"`
	SentryDSN    string `envconfig:"SENTRY_DSN"`
	AllowOrigins string `envconfig:"ALLOW_ORIGINS"`

	DB struct {
		Name      string `envconfig:"DB_NAME"`
		Host      string `envconfig:"DB_HOST"`
		Port      int    `envconfig:"DB_PORT" default:"5432"`
		User      string `envconfig:"DB_USER"`
		Pass      string `envconfig:"DB_PASS"`
		EnableSSL bool   `envconfig:"ENABLE_SSL"`
	}
	MovieService struct {
		URL       string        `envconfig:"MOVIE_SERVICE_URL" default:"http://localhost:5000"`
		Timeout   time.Duration `envconfig:"MOVIE_SERVICE_TIMEOUT" default:"15s"`
		Username  string        `envconfig:"MOVIE_SERVICE_USERNAME"`
		Password  string        `envconfig:"MOVIE_SERVICE_PASSWORD"`
		RateLimit float64       `envconfig:"MOVIE_SERVICE_RATE_LIMIT" default:"5"`
	}
	Session struct {
		Secret  string        `envconfig:"SESSION_SECRET"`
		IdleTTL time.Duration `envconfig:"SESSION_IDLE_TTL" default:"30m"`
	}
	StashPath string `envconfig:"STASH_PATH"`
}

// Origins splits AllowOrigins on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// HasDatabase reports whether a postgres connection is configured.
func (c *Config) HasDatabase() bool {
	return c.DB.Host != "" && c.DB.Name != ""
}

func LoadConfig() (*Config, error) {
	// load default .env file, ignore the error
	_ = godotenv.Load()

	cfg := new(Config)
	err := envconfig.Process("", cfg)
	if err != nil {
		return nil, fmt.Errorf("load config error: %v", err)
	}

	return cfg, nil
}
