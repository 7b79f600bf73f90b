// Package config loads the server configuration from an optional YAML file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DevEnv = "dev"
	ProEnv = "pro"

	DefaultDevListen     = ":8080"
	DefaultCertCache     = "/var/www/.cache"
	DefaultDBDriver      = "sqlite"
	DefaultIdentity      = "local"
	DefaultQuotaStore    = "memory"
	DefaultQuotaRequests = 10
	DefaultQuotaWindow   = 10 * time.Second
	DefaultQuotaMaxKeys  = 10000
	DefaultFeedLimit     = 100
	DefaultMinLength     = 3
	DefaultMaxLength     = 500

	insecureDevSecret = "unsecure"
)

// Duration wraps time.Duration for YAML unmarshaling from strings like "10s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

type Config struct {
	Env    string       `yaml:"env"`
	Server ServerConfig `yaml:"server"`
	DB     DBConfig     `yaml:"database"`
	Auth   AuthConfig   `yaml:"auth"`
	Quota  QuotaConfig  `yaml:"quota"`
	Feed   FeedConfig   `yaml:"feed"`
	Search SearchConfig `yaml:"search"`
}

type ServerConfig struct {
	// Listen is the plain HTTP address. Empty outside dev means autocert TLS on :443.
	Listen        string `yaml:"listen"`
	WhitelistHost string `yaml:"whitelist_host"`
	CertCache     string `yaml:"cert_cache"`
}

type DBConfig struct {
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`
}

type AuthConfig struct {
	// Provider is "local" (users table) or "remote" (identity provider API).
	Provider     string `yaml:"provider"`
	EnableSignup bool   `yaml:"enable_signup"`
	RemoteURL    string `yaml:"remote_url"`

	// Resolved from env at load time.
	JWTSecret       string `yaml:"-"`
	RemoteSecretKey string `yaml:"-"`
}

type QuotaConfig struct {
	// Store is "memory" or "database".
	Store    string   `yaml:"store"`
	Requests int      `yaml:"requests"`
	Window   Duration `yaml:"window"`
	MaxKeys  int      `yaml:"max_keys"`
}

type FeedConfig struct {
	Limit     int `yaml:"limit"`
	MinLength int `yaml:"min_length"`
	MaxLength int `yaml:"max_length"`
}

type SearchConfig struct {
	Enabled bool `yaml:"enabled"`
	// IndexPath empty keeps the index in memory, rebuilt at start.
	IndexPath string `yaml:"index_path"`
}

// Load reads path (optional), applies defaults, environment overrides and validates.
func Load(path string) (*Config, error) {
	cfg := Config{Search: SearchConfig{Enabled: true}}

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	resolveEnv(&cfg)
	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func resolveEnv(cfg *Config) {
	if v := os.Getenv("ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("ADDRESS_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("WHITELIST_HOST"); v != "" {
		cfg.Server.WhitelistHost = v
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.DB.Driver = v
	}
	if v := os.Getenv("DB_URL"); v != "" {
		cfg.DB.URL = v
	}
	if v := os.Getenv("ENABLE_SIGNUP"); v != "" {
		cfg.Auth.EnableSignup = v == "true"
	}
	if v := os.Getenv("IDENTITY_URL"); v != "" {
		cfg.Auth.RemoteURL = v
		if cfg.Auth.Provider == "" {
			cfg.Auth.Provider = "remote"
		}
	}
	if v := os.Getenv("SEARCH_INDEX"); v != "" {
		cfg.Search.IndexPath = v
	}
	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.Auth.RemoteSecretKey = os.Getenv("IDENTITY_SECRET_KEY")
}

func applyDefaults(cfg *Config) {
	if cfg.Env == "" {
		cfg.Env = ProEnv
	}
	if cfg.Env == DevEnv {
		if cfg.Server.Listen == "" {
			cfg.Server.Listen = DefaultDevListen
		}
		if cfg.Auth.JWTSecret == "" {
			cfg.Auth.JWTSecret = insecureDevSecret
		}
	}
	if cfg.Server.CertCache == "" {
		cfg.Server.CertCache = DefaultCertCache
	}
	if cfg.DB.Driver == "" {
		cfg.DB.Driver = DefaultDBDriver
	}
	if cfg.Auth.Provider == "" {
		cfg.Auth.Provider = DefaultIdentity
	}
	if cfg.Quota.Store == "" {
		cfg.Quota.Store = DefaultQuotaStore
	}
	if cfg.Quota.Requests == 0 {
		cfg.Quota.Requests = DefaultQuotaRequests
	}
	if cfg.Quota.Window.Duration == 0 {
		cfg.Quota.Window.Duration = DefaultQuotaWindow
	}
	if cfg.Quota.MaxKeys == 0 {
		cfg.Quota.MaxKeys = DefaultQuotaMaxKeys
	}
	if cfg.Feed.Limit == 0 {
		cfg.Feed.Limit = DefaultFeedLimit
	}
	if cfg.Feed.MinLength == 0 {
		cfg.Feed.MinLength = DefaultMinLength
	}
	if cfg.Feed.MaxLength == 0 {
		cfg.Feed.MaxLength = DefaultMaxLength
	}
}

func validate(cfg *Config) error {
	switch cfg.Env {
	case DevEnv, ProEnv:
	default:
		return fmt.Errorf("env: unknown environment %q (want dev or pro)", cfg.Env)
	}

	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth: no secret defined (set JWT_SECRET)")
	}

	switch cfg.DB.Driver {
	case "sqlite":
	case "postgres":
		if cfg.DB.URL == "" {
			return errors.New("database.url: required for postgres")
		}
	default:
		return fmt.Errorf("database.driver: unknown driver %q (want sqlite or postgres)", cfg.DB.Driver)
	}

	switch cfg.Auth.Provider {
	case "local":
	case "remote":
		if cfg.Auth.RemoteURL == "" {
			return errors.New("auth.remote_url: required for the remote provider")
		}
	default:
		return fmt.Errorf("auth.provider: unknown provider %q (want local or remote)", cfg.Auth.Provider)
	}

	switch cfg.Quota.Store {
	case "memory", "database":
	default:
		return fmt.Errorf("quota.store: unknown store %q (want memory or database)", cfg.Quota.Store)
	}
	if cfg.Quota.Requests < 0 || cfg.Quota.Window.Duration < 0 {
		return errors.New("quota: requests and window must be positive")
	}

	if cfg.Feed.Limit < 0 || cfg.Feed.Limit > 100 {
		return fmt.Errorf("feed.limit: %d out of range 1..100", cfg.Feed.Limit)
	}
	if cfg.Feed.MinLength < 0 || cfg.Feed.MaxLength < cfg.Feed.MinLength {
		return fmt.Errorf("feed: invalid length bounds %d..%d", cfg.Feed.MinLength, cfg.Feed.MaxLength)
	}
	return nil
}
