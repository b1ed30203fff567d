package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

const SupportedVersion = "1"

// Config represents the complete configuration structure
type Config struct {
	Version   string          `yaml:"version" default:"1"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Content   ContentConfig   `yaml:"content"`
	Editor    EditorConfig    `yaml:"editor"`
	Auth      AuthConfig      `yaml:"auth"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" default:"info" env:"LOG_LEVEL"`
	Format string `yaml:"format" default:"console" env:"LOG_FORMAT"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0" env:"SERVER_HOST"`
	Port            string        `yaml:"port" default:"12600" env:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
}

func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

type DatabaseConfig struct {
	Driver       string `yaml:"driver" default:"sqlite3" env:"DB_DRIVER"`
	DSN          string `yaml:"dsn" default:"./database.db" env:"DATABASE_URL"`
	MaxOpenConns int    `yaml:"max_open_conns" default:"10"`
}

type StorageConfig struct {
	// Backend is either "fs" (local directory served under /uploads/) or "s3".
	Backend       string   `yaml:"backend" default:"fs" env:"STORAGE_BACKEND"`
	Bucket        string   `yaml:"bucket" default:"post-images" env:"STORAGE_BUCKET"`
	PublicBaseURL string   `yaml:"public_base_url" default:"" env:"STORAGE_PUBLIC_URL"`
	LocalDir      string   `yaml:"local_dir" default:"./uploads"`
	S3            S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint        string `yaml:"endpoint" default:"" env:"S3_ENDPOINT"`
	Region          string `yaml:"region" default:"auto" env:"S3_REGION"`
	AccessKeyID     string `yaml:"access_key_id" default:"" env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" default:"" env:"S3_SECRET_ACCESS_KEY"`
	UsePathStyle    bool   `yaml:"use_path_style" default:"true"`
}

type ContentConfig struct {
	// Compression applied to post content at rest: "zstd", "gzip" or "none".
	Compression string `yaml:"compression" default:"zstd"`
}

type EditorConfig struct {
	ImageTargetBytes  int           `yaml:"image_target_bytes" default:"204800"`
	ImageMaxDimension int           `yaml:"image_max_dimension" default:"1280"`
	MaxUploadBytes    int           `yaml:"max_upload_bytes" default:"10485760"`
	SessionIdleTTL    time.Duration `yaml:"session_idle_ttl" default:"2h"`
}

type AuthConfig struct {
	// Type selects the provider: "password" or "clerk".
	Type           string        `yaml:"type" default:"password" env:"AUTH_TYPE"`
	JWTSecret      string        `yaml:"jwt_secret" default:"" env:"JWT_SECRET"`
	ClerkSecretKey string        `yaml:"clerk_secret_key" default:"" env:"CLERK_SECRET_KEY"`
	SessionTTL     time.Duration `yaml:"session_ttl" default:"24h"`
	RefreshWindow  time.Duration `yaml:"refresh_window" default:"1h"`
	SecureCookies  bool          `yaml:"secure_cookies" default:"false" env:"SECURE_COOKIES"`
	LoginPath      string        `yaml:"login_path" default:"/auth/login"`
	DashboardPath  string        `yaml:"dashboard_path" default:"/dashboard"`
}

type DashboardConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl" default:"60s"`
	TopPosts int           `yaml:"top_posts" default:"5"`
}

var AppConfig *Config

// LoadConfig applies defaults, overlays the YAML file at path (when it exists)
// and finally the environment. The result is stored in AppConfig and returned.
func LoadConfig(path string) (*Config, error) {
	config := &Config{}

	// Apply default values first
	applyDefaults(config)

	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, just use defaults
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
	} else if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	AppConfig = config
	return config, nil
}

func (c *Config) Validate() error {
	if c.Version != SupportedVersion {
		return fmt.Errorf("unsupported configuration version %q (expected %q)", c.Version, SupportedVersion)
	}

	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.Storage.Backend {
	case "fs":
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Storage.Backend)
	}

	switch c.Content.Compression {
	case "zstd", "gzip", "none":
	default:
		return fmt.Errorf("unsupported content compression %q", c.Content.Compression)
	}

	switch c.Auth.Type {
	case "password", "clerk":
	default:
		return fmt.Errorf("unsupported auth type %q", c.Auth.Type)
	}

	return nil
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

func applyDefaults(config interface{}) {
	walkFields(config, func(field reflect.Value, fieldType reflect.StructField) {
		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			return
		}
		setFromString(field, fieldType, defaultValue)
	})
}

// applyEnv overrides every field carrying an `env` tag whose variable is set.
func applyEnv(config interface{}) {
	walkFields(config, func(field reflect.Value, fieldType reflect.StructField) {
		name := fieldType.Tag.Get("env")
		if name == "" {
			return
		}
		if value, ok := os.LookupEnv(name); ok && value != "" {
			setFromString(field, fieldType, value)
		}
	})
}

func walkFields(config interface{}, fn func(reflect.Value, reflect.StructField)) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recurse into nested structs
		if field.Kind() == reflect.Struct {
			walkFields(field.Addr().Interface(), fn)
			continue
		}

		fn(field, fieldType)
	}
}

var durationType = reflect.TypeOf(time.Duration(0))

func setFromString(field reflect.Value, fieldType reflect.StructField, value string) {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		if val, err := strconv.ParseBool(value); err == nil {
			field.SetBool(val)
		}
	case reflect.Int:
		if val, err := strconv.ParseInt(value, 10, 64); err == nil {
			field.SetInt(val)
		}
	case reflect.Int64:
		if field.Type() == durationType {
			if val, err := time.ParseDuration(value); err == nil {
				field.SetInt(int64(val))
			}
			return
		}
		if val, err := strconv.ParseInt(value, 10, 64); err == nil {
			field.SetInt(val)
		}
	case reflect.Float64:
		if val, err := strconv.ParseFloat(value, 64); err == nil {
			field.SetFloat(val)
		}
	case reflect.Slice:
		if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
			for j, part := range parts {
				slice.Index(j).SetString(strings.TrimSpace(part))
			}
			field.Set(slice)
		}
	default:
		configLogger.Warn().
			Str("field_name", fieldType.Name).
			Str("field_type", field.Kind().String()).
			Msg("Unsupported field type for default value")
	}
}
