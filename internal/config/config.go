package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port        string
	Environment string
	BaseURL     string

	// Storage
	DataDir   string
	UploadDir string

	// Request lifecycle
	SweepInterval         time.Duration
	DefaultTimeoutMinutes int

	// Uploads
	MaxUploadBytes    int64
	AllowedExtensions []string

	// Selfie normalization
	SelfieSize  int
	JPEGQuality int
}

func Load() (*Config, error) {
	// A missing .env just means env vars are set elsewhere
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),

		DataDir:   getEnv("DATA_DIR", "data"),
		UploadDir: getEnv("UPLOAD_DIR", "uploads"),

		SweepInterval:         time.Duration(getEnvInt("SWEEP_INTERVAL_SECONDS", 5)) * time.Second,
		DefaultTimeoutMinutes: getEnvInt("DEFAULT_TIMEOUT_MINUTES", 30),

		MaxUploadBytes:    int64(getEnvInt("MAX_UPLOAD_MB", 16)) << 20,
		AllowedExtensions: strings.Split(getEnv("ALLOWED_EXTENSIONS", "png,jpg,jpeg,gif"), ","),

		SelfieSize:  getEnvInt("SELFIE_SIZE", 300),
		JPEGQuality: getEnvInt("JPEG_QUALITY", 85),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR is required")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL_SECONDS must be positive")
	}
	if c.DefaultTimeoutMinutes <= 0 {
		return fmt.Errorf("DEFAULT_TIMEOUT_MINUTES must be positive")
	}
	if c.SelfieSize <= 0 {
		return fmt.Errorf("SELFIE_SIZE must be positive")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("JPEG_QUALITY must be between 1 and 100")
	}
	return nil
}

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
