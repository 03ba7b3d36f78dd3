package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds application configuration
type Config struct {
	Port     string `toml:"port"`
	DBConn   string `toml:"db_conn"`
	LogLevel string `toml:"log_level"`

	JWTSecret     string   `toml:"jwt_secret"`
	TokenTTL      Duration `toml:"token_ttl"`
	AuthCacheSize int      `toml:"auth_cache_size"`

	StorageBackend string `toml:"storage_backend"`
	MediaRoot      string `toml:"media_root"`
	MediaURL       string `toml:"media_url"`
	S3Bucket       string `toml:"s3_bucket"`
	S3Region       string `toml:"s3_region"`
	S3Endpoint     string `toml:"s3_endpoint"`
	S3AccessKey    string `toml:"s3_access_key"`
	S3SecretKey    string `toml:"s3_secret_key"`

	SMTPHost     string `toml:"smtp_host"`
	SMTPPort     string `toml:"smtp_port"`
	SMTPUsername string `toml:"smtp_username"`
	SMTPPassword string `toml:"smtp_password"`
	SenderEmail  string `toml:"sender_email"`

	RateLimit       float64 `toml:"rate_limit"`
	RateBurst       int     `toml:"rate_burst"`
	JanitorSchedule string  `toml:"janitor_schedule"`
}

// Duration is a time.Duration that decodes from strings such as "24h"
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// DefaultJWTSecret signs tokens when JWT_SECRET is unset; it is public and only fit for development
const DefaultJWTSecret = "secret"

// Storage backends
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

func defaults() *Config {
	return &Config{
		Port:            "8080",
		DBConn:          "host=localhost port=5432 user=app password=app dbname=recipes sslmode=disable",
		LogLevel:        "INFO",
		JWTSecret:       DefaultJWTSecret,
		TokenTTL:        Duration{24 * time.Hour},
		AuthCacheSize:   1024,
		StorageBackend:  StorageLocal,
		MediaRoot:       "./media",
		MediaURL:        "/media/",
		S3Region:        "us-east-1",
		SMTPPort:        "587",
		RateLimit:       5,
		RateBurst:       10,
		JanitorSchedule: "@hourly",
	}
}

// NewConfig loads configuration from defaults, an optional TOML file named by
// CONFIG_FILE, and environment variables, in that order of precedence.
func NewConfig() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DBConn = getEnv("DB_CONN", cfg.DBConn)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.StorageBackend = getEnv("STORAGE_BACKEND", cfg.StorageBackend)
	cfg.MediaRoot = getEnv("MEDIA_ROOT", cfg.MediaRoot)
	cfg.MediaURL = getEnv("MEDIA_URL", cfg.MediaURL)
	cfg.S3Bucket = getEnv("S3_BUCKET", cfg.S3Bucket)
	cfg.S3Region = getEnv("S3_REGION", cfg.S3Region)
	cfg.S3Endpoint = getEnv("S3_ENDPOINT", cfg.S3Endpoint)
	cfg.S3AccessKey = getEnv("S3_ACCESS_KEY", cfg.S3AccessKey)
	cfg.S3SecretKey = getEnv("S3_SECRET_KEY", cfg.S3SecretKey)
	cfg.SMTPHost = getEnv("SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPPort = getEnv("SMTP_PORT", cfg.SMTPPort)
	cfg.SMTPUsername = getEnv("SMTP_USERNAME", cfg.SMTPUsername)
	cfg.SMTPPassword = getEnv("SMTP_PASSWORD", cfg.SMTPPassword)
	cfg.SenderEmail = getEnv("SENDER_EMAIL", cfg.SenderEmail)
	cfg.JanitorSchedule = getEnv("JANITOR_SCHEDULE", cfg.JanitorSchedule)

	var err error
	if cfg.TokenTTL.Duration, err = getEnvDuration("TOKEN_TTL", cfg.TokenTTL.Duration); err != nil {
		return nil, err
	}
	if cfg.AuthCacheSize, err = getEnvInt("AUTH_CACHE_SIZE", cfg.AuthCacheSize); err != nil {
		return nil, err
	}
	if cfg.RateBurst, err = getEnvInt("RATE_BURST", cfg.RateBurst); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = getEnvFloat("RATE_LIMIT", cfg.RateLimit); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required values are present and consistent
func (c *Config) Validate() error {
	if c.DBConn == "" {
		return fmt.Errorf("DB_CONN is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.TokenTTL.Duration <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.AuthCacheSize <= 0 {
		return fmt.Errorf("AUTH_CACHE_SIZE must be positive")
	}
	switch c.StorageBackend {
	case StorageLocal:
		if c.MediaRoot == "" {
			return fmt.Errorf("MEDIA_ROOT is required for local storage")
		}
	case StorageS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for s3 storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	return nil
}

// UsesDefaultJWTSecret reports whether tokens would be signed with DefaultJWTSecret
func (c *Config) UsesDefaultJWTSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}

// MailEnabled reports whether outgoing mail is configured
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.SenderEmail != ""
}

func (c *Config) loadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	if err := toml.NewDecoder(file).Decode(c); err != nil {
		return fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
