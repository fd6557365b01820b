package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	StorageDriver string `yaml:"storage_driver" validate:"required,oneof=memory file sqlite postgres mysql"`
	StoragePath   string `yaml:"storage_path" validate:"required_if=StorageDriver file,required_if=StorageDriver sqlite"`
	DatabaseURL   string `yaml:"database_url" validate:"required_if=StorageDriver postgres,required_if=StorageDriver mysql"`
	Origin        string `yaml:"origin" validate:"required"`

	ProgressKey       string `yaml:"progress_key" validate:"required,nefield=LegacyProgressKey"`
	LegacyProgressKey string `yaml:"legacy_progress_key"`
	IdentityKey       string `yaml:"identity_key" validate:"required,nefield=LegacyIdentityKey"`
	LegacyIdentityKey string `yaml:"legacy_identity_key"`

	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" validate:"oneof=json console"`

	MaxDenominator int           `yaml:"max_denominator" validate:"min=1"`
	MaxElements    int           `yaml:"max_elements" validate:"min=1"`
	PollInterval   time.Duration `yaml:"poll_interval" validate:"min=10ms"`
	TrackLogPath   string        `yaml:"track_log"`
}

// Load reads configuration from a .env file, environment variables and an
// optional YAML overlay, in that order of increasing precedence for the
// overlay. A missing .env file is not an error.
func Load(overlayPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := FromEnv()

	if overlayPath != "" {
		if err := cfg.applyOverlay(overlayPath); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads configuration from environment variables with sensible defaults
func FromEnv() *Config {
	return &Config{
		StorageDriver:     getEnv("ESHEETS_STORAGE", "file"),
		StoragePath:       getEnv("ESHEETS_STORAGE_PATH", "./esheets-storage.json"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		Origin:            getEnv("ESHEETS_ORIGIN", "local"),
		ProgressKey:       getEnv("ESHEETS_PROGRESS_KEY", "esheets.progress.v2"),
		LegacyProgressKey: getEnv("ESHEETS_LEGACY_PROGRESS_KEY", "esheets.progress.v1"),
		IdentityKey:       getEnv("ESHEETS_IDENTITY_KEY", "esheets.identity.v2"),
		LegacyIdentityKey: getEnv("ESHEETS_LEGACY_IDENTITY_KEY", "esheets.identity.v1"),
		LogLevel:          getEnv("ESHEETS_LOG_LEVEL", "info"),
		LogFormat:         getEnv("ESHEETS_LOG_FORMAT", "console"),
		MaxDenominator:    getEnvInt("ESHEETS_MAX_DENOMINATOR", 500),
		MaxElements:       getEnvInt("ESHEETS_MAX_ELEMENTS", 5000),
		PollInterval:      getEnvDuration("ESHEETS_POLL_INTERVAL", 500*time.Millisecond),
		TrackLogPath:      getEnv("ESHEETS_TRACK_LOG", ""),
	}
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyOverlay merges non-zero values from a YAML file into c
func (c *Config) applyOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
