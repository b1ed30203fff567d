package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var configEnvVars = []string{
	"LOG_LEVEL", "LOG_FORMAT", "SERVER_HOST", "PORT", "DB_DRIVER", "DATABASE_URL",
	"STORAGE_BACKEND", "STORAGE_BUCKET", "STORAGE_PUBLIC_URL", "S3_ENDPOINT", "S3_REGION",
	"S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY", "AUTH_TYPE", "JWT_SECRET", "CLERK_SECRET_KEY",
	"SECURE_COOKIES",
}

// clearConfigEnv blanks every variable LoadConfig reads so the host
// environment cannot leak into assertions.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, name := range configEnvVars {
		t.Setenv(name, "")
	}
}

func TestSetLogger(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.InfoLevel)
	SetLogger(logger)
}

func TestApplyDefaults(t *testing.T) {
	config := &Config{}
	applyDefaults(config)

	if config.Version != SupportedVersion {
		t.Errorf("Expected version %q, got %q", SupportedVersion, config.Version)
	}
	if config.Server.Addr() != "0.0.0.0:12600" {
		t.Errorf("Expected addr '0.0.0.0:12600', got %q", config.Server.Addr())
	}
	if config.Server.ReadTimeout != 30*time.Second {
		t.Errorf("Expected read timeout 30s, got %s", config.Server.ReadTimeout)
	}
	if config.Database.Driver != "sqlite3" {
		t.Errorf("Expected driver 'sqlite3', got %q", config.Database.Driver)
	}
	if config.Storage.Bucket != "post-images" {
		t.Errorf("Expected bucket 'post-images', got %q", config.Storage.Bucket)
	}
	if !config.Storage.S3.UsePathStyle {
		t.Error("Expected path style addressing by default")
	}
	if config.Editor.ImageTargetBytes != 200*1024 {
		t.Errorf("Expected image target 204800 bytes, got %d", config.Editor.ImageTargetBytes)
	}
	if config.Editor.ImageMaxDimension != 1280 {
		t.Errorf("Expected max dimension 1280, got %d", config.Editor.ImageMaxDimension)
	}
	if config.Editor.MaxUploadBytes != 10*1024*1024 {
		t.Errorf("Expected upload limit 10MB, got %d", config.Editor.MaxUploadBytes)
	}
	if config.Auth.Type != "password" {
		t.Errorf("Expected auth type 'password', got %q", config.Auth.Type)
	}
	if config.Auth.SessionTTL != 24*time.Hour {
		t.Errorf("Expected session ttl 24h, got %s", config.Auth.SessionTTL)
	}
	if config.Auth.LoginPath != "/auth/login" || config.Auth.DashboardPath != "/dashboard" {
		t.Errorf("Unexpected auth paths %q %q", config.Auth.LoginPath, config.Auth.DashboardPath)
	}
	if config.Dashboard.CacheTTL != time.Minute {
		t.Errorf("Expected cache ttl 1m, got %s", config.Dashboard.CacheTTL)
	}
	if config.Dashboard.TopPosts != 5 {
		t.Errorf("Expected 5 top posts, got %d", config.Dashboard.TopPosts)
	}
}

func TestApplyDefaultsCustomStruct(t *testing.T) {
	type nested struct {
		Interval time.Duration `default:"90s"`
		Tags     []string      `default:"a, b"`
		Ratio    float64       `default:"0.5"`
	}
	type custom struct {
		Name   string `default:"x"`
		Nested nested
		NoTag  string
	}

	c := &custom{}
	ApplyDefaults(c)

	if c.Name != "x" {
		t.Errorf("Expected name 'x', got %q", c.Name)
	}
	if c.Nested.Interval != 90*time.Second {
		t.Errorf("Expected interval 90s, got %s", c.Nested.Interval)
	}
	if len(c.Nested.Tags) != 2 || c.Nested.Tags[1] != "b" {
		t.Errorf("Expected tags [a b], got %v", c.Nested.Tags)
	}
	if c.Nested.Ratio != 0.5 {
		t.Errorf("Expected ratio 0.5, got %v", c.Nested.Ratio)
	}
	if c.NoTag != "" {
		t.Errorf("Expected untagged field to stay empty, got %q", c.NoTag)
	}
}

func TestLoadConfig(t *testing.T) {
	SetLogger(zerolog.Nop())

	t.Run("missing file uses defaults", func(t *testing.T) {
		clearConfigEnv(t)
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.Server.Port != "12600" {
			t.Errorf("Expected default port, got %q", cfg.Server.Port)
		}
		if AppConfig != cfg {
			t.Error("Expected AppConfig to be set")
		}
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		clearConfigEnv(t)
		cfg, err := LoadConfig("testdata/custom.yaml")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.Server.Port != "9000" {
			t.Errorf("Expected port 9000, got %q", cfg.Server.Port)
		}
		if cfg.Server.Host != "0.0.0.0" {
			t.Errorf("Expected default host to survive, got %q", cfg.Server.Host)
		}
		if cfg.Database.Driver != "postgres" {
			t.Errorf("Expected postgres driver, got %q", cfg.Database.Driver)
		}
		if cfg.Storage.Backend != "s3" {
			t.Errorf("Expected s3 backend, got %q", cfg.Storage.Backend)
		}
		if cfg.Dashboard.CacheTTL != 30*time.Second {
			t.Errorf("Expected cache ttl 30s, got %s", cfg.Dashboard.CacheTTL)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("PORT", "7000")
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("SECURE_COOKIES", "true")

		cfg, err := LoadConfig("testdata/custom.yaml")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.Server.Port != "7000" {
			t.Errorf("Expected port 7000, got %q", cfg.Server.Port)
		}
		if cfg.Auth.JWTSecret != "s3cret" {
			t.Errorf("Expected jwt secret from env, got %q", cfg.Auth.JWTSecret)
		}
		if !cfg.Auth.SecureCookies {
			t.Error("Expected secure cookies from env")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		clearConfigEnv(t)
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("server: [unterminated"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Error("Expected parse error")
		}
	})
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Storage.Backend = "s3"; c.Storage.Bucket = "" }, wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "ftp" }, wantErr: true},
		{name: "unknown compression", mutate: func(c *Config) { c.Content.Compression = "lz4" }, wantErr: true},
		{name: "gzip compression", mutate: func(c *Config) { c.Content.Compression = "gzip" }},
		{name: "clerk auth", mutate: func(c *Config) { c.Auth.Type = "clerk" }},
		{name: "unknown auth", mutate: func(c *Config) { c.Auth.Type = "ed25519" }, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := &Config{}
			ApplyDefaults(c)
			tc.mutate(c)
			err := c.Validate()
			if tc.wantErr && err == nil {
				t.Error("Expected error but got none")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}
