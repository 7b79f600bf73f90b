package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envVars = []string{
	"ENV", "ADDRESS_LISTEN", "WHITELIST_HOST", "DB_DRIVER", "DB_URL", "ENABLE_SIGNUP",
	"IDENTITY_URL", "IDENTITY_SECRET_KEY", "SEARCH_INDEX", "JWT_SECRET",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range envVars {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chirp.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDevDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "dev")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Listen != ":8080" {
		t.Errorf("listen = %q, want :8080", cfg.Server.Listen)
	}
	if cfg.Auth.JWTSecret != "unsecure" {
		t.Errorf("dev secret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.DB.Driver != "sqlite" || cfg.Auth.Provider != "local" || cfg.Quota.Store != "memory" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Quota.Requests != 10 || cfg.Quota.Window.Duration != 10*time.Second {
		t.Errorf("quota = %d per %v", cfg.Quota.Requests, cfg.Quota.Window)
	}
	if cfg.Feed.Limit != 100 || cfg.Feed.MinLength != 3 || cfg.Feed.MaxLength != 500 {
		t.Errorf("feed = %+v", cfg.Feed)
	}
	if !cfg.Search.Enabled {
		t.Error("search should be enabled by default")
	}
}

func TestLoadProRequiresSecret(t *testing.T) {
	clearEnv(t)

	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "secret") {
		t.Fatalf("expected secret error, got %v", err)
	}

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Env != ProEnv {
		t.Errorf("env = %q, want pro", cfg.Env)
	}
	if cfg.Server.Listen != "" {
		t.Errorf("pro without ADDRESS_LISTEN should use autocert, got listen %q", cfg.Server.Listen)
	}
}

func TestLoadFileWithEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
env: dev
server:
  listen: ":9000"
database:
  driver: sqlite
  url: "./from-file.db"
quota:
  store: database
  requests: 5
  window: 30s
feed:
  limit: 50
search:
  enabled: false
`)
	t.Setenv("DB_URL", "./from-env.db")
	t.Setenv("ENABLE_SIGNUP", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Listen != ":9000" {
		t.Errorf("listen = %q", cfg.Server.Listen)
	}
	if cfg.DB.URL != "./from-env.db" {
		t.Errorf("env should override file, got %q", cfg.DB.URL)
	}
	if !cfg.Auth.EnableSignup {
		t.Error("ENABLE_SIGNUP=true should enable signup")
	}
	if cfg.Quota.Store != "database" || cfg.Quota.Requests != 5 || cfg.Quota.Window.Duration != 30*time.Second {
		t.Errorf("quota = %+v", cfg.Quota)
	}
	if cfg.Feed.Limit != 50 {
		t.Errorf("feed limit = %d", cfg.Feed.Limit)
	}
	if cfg.Search.Enabled {
		t.Error("search should be disabled by the file")
	}
}

func TestLoadRemoteIdentityFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "dev")
	t.Setenv("IDENTITY_URL", "https://api.identity.example")
	t.Setenv("IDENTITY_SECRET_KEY", "sk_live")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.Provider != "remote" || cfg.Auth.RemoteSecretKey != "sk_live" {
		t.Errorf("auth = %+v", cfg.Auth)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "env", yaml: "env: staging", wantErr: "env"},
		{name: "driver", yaml: "env: dev\ndatabase:\n  driver: mysql", wantErr: "database.driver"},
		{name: "postgres url", yaml: "env: dev\ndatabase:\n  driver: postgres", wantErr: "database.url"},
		{name: "provider", yaml: "env: dev\nauth:\n  provider: ldap", wantErr: "auth.provider"},
		{name: "remote url", yaml: "env: dev\nauth:\n  provider: remote", wantErr: "auth.remote_url"},
		{name: "quota store", yaml: "env: dev\nquota:\n  store: redis", wantErr: "quota.store"},
		{name: "feed limit", yaml: "env: dev\nfeed:\n  limit: 500", wantErr: "feed.limit"},
		{name: "bounds", yaml: "env: dev\nfeed:\n  min_length: 10\n  max_length: 5", wantErr: "length bounds"},
		{name: "duration", yaml: "env: dev\nquota:\n  window: soon", wantErr: "parse duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(writeConfig(t, tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
