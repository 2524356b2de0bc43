// Package config loads archfeed settings from an optional YAML file and
// the environment.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root configuration.
// Sources, lowest priority first: env-default tags, YAML file, environment.
type Config struct {
	Env    string       `yaml:"env" env:"ARCHFEED_ENV" env-default:"local"`
	Wiki   WikiConfig   `yaml:"wiki"`
	Feed   FeedConfig   `yaml:"feed"`
	Ledger LedgerConfig `yaml:"ledger"`
	Redis  RedisConfig  `yaml:"redis"`
	Share  ShareConfig  `yaml:"share"`
	HTTP   HTTPConfig   `yaml:"http"`
	Log    LogConfig    `yaml:"log"`
}

// WikiConfig points at the MediaWiki API.
type WikiConfig struct {
	BaseURL      string        `yaml:"base_url"      env:"ARCHFEED_API_URL"       env-default:"https://en.wikipedia.org/w/api.php"`
	UserAgent    string        `yaml:"user_agent"    env:"ARCHFEED_USER_AGENT"`
	Timeout      time.Duration `yaml:"timeout"       env:"ARCHFEED_API_TIMEOUT"   env-default:"10s"`
	ImageTimeout time.Duration `yaml:"image_timeout" env:"ARCHFEED_IMAGE_TIMEOUT" env-default:"10s"`
	ReadTimeout  time.Duration `yaml:"read_timeout"  env:"ARCHFEED_READ_TIMEOUT"  env-default:"30s"`
}

// FeedConfig drives feed.Source.
type FeedConfig struct {
	Category          string `yaml:"category"            env:"ARCHFEED_CATEGORY"            env-default:"Category:Architecture"`
	Strategy          string `yaml:"strategy"            env:"ARCHFEED_STRATEGY"            env-default:"random"`
	PageSize          int    `yaml:"page_size"           env:"ARCHFEED_PAGE_SIZE"           env-default:"10"`
	SampleSize        int    `yaml:"sample_size"         env:"ARCHFEED_SAMPLE_SIZE"         env-default:"20"`
	MemberLimit       int    `yaml:"member_limit"        env:"ARCHFEED_MEMBER_LIMIT"        env-default:"500"`
	Prefetch          bool   `yaml:"prefetch"            env:"ARCHFEED_PREFETCH"            env-default:"true"`
	ResetOnExhaustion bool   `yaml:"reset_on_exhaustion" env:"ARCHFEED_RESET_ON_EXHAUSTION" env-default:"true"`
}

// LedgerConfig selects where seen page ids are kept.
type LedgerConfig struct {
	Backend    string `yaml:"backend"     env:"ARCHFEED_LEDGER"      env-default:"memory"`
	BadgerPath string `yaml:"badger_path" env:"ARCHFEED_BADGER_PATH" env-default:"./archfeed-data"`
	// Session resumes an existing session; empty starts a new one.
	Session    string `yaml:"session" env:"ARCHFEED_SESSION"`
}

type RedisConfig struct {
	Addr string `yaml:"addr" env:"ARCHFEED_REDIS_ADDR" env-default:"localhost:6379"`
}

// ShareConfig enables the Redis share outbox; without it links go to the clipboard.
type ShareConfig struct {
	Outbox bool `yaml:"outbox" env:"ARCHFEED_SHARE_OUTBOX" env-default:"false"`
}

type HTTPConfig struct {
	Host string `yaml:"host" env:"ARCHFEED_HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"ARCHFEED_HTTP_PORT" env-default:"3000"`
}

// Addr returns host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

type LogConfig struct {
	JSON  bool   `yaml:"json"  env:"ARCHFEED_LOG_JSON"  env-default:"false"`
	Debug bool   `yaml:"debug" env:"ARCHFEED_LOG_DEBUG" env-default:"false"`
	File  string `yaml:"file"  env:"ARCHFEED_LOG_FILE"`
}

// Load reads the YAML file at path (or ARCHFEED_CONFIG when path is
// empty) and then applies the environment. With no file, only the
// environment and defaults are used.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		path = os.Getenv("ARCHFEED_CONFIG")
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Feed.Strategy {
	case "cursor", "random":
	default:
		return fmt.Errorf("feed.strategy must be cursor or random, got %q", c.Feed.Strategy)
	}
	switch c.Ledger.Backend {
	case "memory", "redis", "badger":
	default:
		return fmt.Errorf("ledger.backend must be memory, redis or badger, got %q", c.Ledger.Backend)
	}
	if c.Feed.Category == "" {
		return fmt.Errorf("feed.category is required")
	}
	if c.Feed.PageSize <= 0 || c.Feed.PageSize > 50 {
		return fmt.Errorf("feed.page_size must be in 1..50")
	}
	if c.Feed.SampleSize <= 0 || c.Feed.SampleSize > 50 {
		return fmt.Errorf("feed.sample_size must be in 1..50")
	}
	if c.Feed.MemberLimit <= 0 || c.Feed.MemberLimit > 500 {
		return fmt.Errorf("feed.member_limit must be in 1..500")
	}
	if c.Wiki.BaseURL == "" {
		return fmt.Errorf("wiki.base_url is required")
	}
	if c.Wiki.Timeout <= 0 {
		return fmt.Errorf("wiki.timeout must be > 0")
	}
	return nil
}
