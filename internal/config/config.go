package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends understood by Load
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	// Persistence
	StorageType  string // "memory", "sqlite" or "postgres"
	DatabasePath string
	DatabaseURL  string

	// Elasticsearch mirror, disabled when URL is empty
	ElasticsearchURL      string
	ElasticsearchUser     string
	ElasticsearchPassword string
	ElasticsearchPrefix   string

	// Discord hand notifications, disabled when token is empty
	DiscordToken     string
	DiscordChannelID string

	// OCR
	TessdataPrefix string
	OCRLanguage    string
	LayoutPath     string

	// Batch sampling and segmentation
	SampleRate        int
	BoundaryThreshold float64
	MinFramesPerHand  int
	DebugFramesDir    string

	// Live capture
	SampleInterval time.Duration
	DiffThreshold  float64
	QueueSize      int

	// HTTP API
	APIAddr string

	// Resource paths
	DataDir string

	LogLevel    string
	Environment string // "development" or "production"
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	dataDir := getEnvWithDefault("DATA_DIR", filepath.Join(wd, "data"))

	cfg := &Config{
		StorageType:           getEnvWithDefault("STORAGE_TYPE", StorageSQLite),
		DatabasePath:          getEnvWithDefault("DATABASE_PATH", filepath.Join(dataDir, "poker_data.db")),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		ElasticsearchURL:      os.Getenv("ELASTICSEARCH_URL"),
		ElasticsearchUser:     os.Getenv("ELASTICSEARCH_USERNAME"),
		ElasticsearchPassword: os.Getenv("ELASTICSEARCH_PASSWORD"),
		ElasticsearchPrefix:   getEnvWithDefault("ELASTICSEARCH_INDEX_PREFIX", "pokerscribe"),
		DiscordToken:          os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID:      os.Getenv("DISCORD_CHANNEL_ID"),
		TessdataPrefix:        os.Getenv("TESSDATA_PREFIX"),
		OCRLanguage:           getEnvWithDefault("OCR_LANGUAGE", "eng"),
		LayoutPath:            os.Getenv("LAYOUT_PATH"),
		DebugFramesDir:        os.Getenv("DEBUG_FRAMES_DIR"),
		APIAddr:               getEnvWithDefault("API_ADDR", ":8080"),
		DataDir:               dataDir,
		LogLevel:              getEnvWithDefault("LOG_LEVEL", "INFO"),
		Environment:           getEnvWithDefault("ENVIRONMENT", "development"),
	}

	if cfg.SampleRate, err = getIntWithDefault("SAMPLE_RATE", 30); err != nil {
		return nil, err
	}
	if cfg.BoundaryThreshold, err = getFloatWithDefault("BOUNDARY_THRESHOLD", 0.1); err != nil {
		return nil, err
	}
	if cfg.MinFramesPerHand, err = getIntWithDefault("MIN_FRAMES_PER_HAND", 3); err != nil {
		return nil, err
	}
	if cfg.SampleInterval, err = getDurationWithDefault("SAMPLE_INTERVAL", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.DiffThreshold, err = getFloatWithDefault("DIFF_THRESHOLD", 0.05); err != nil {
		return nil, err
	}
	if cfg.QueueSize, err = getIntWithDefault("QUEUE_SIZE", 10); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// validate checks if all required configuration is present and sane
func (c *Config) validate() error {
	switch c.StorageType {
	case StorageMemory, StorageSQLite:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres storage")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_TYPE %q", c.StorageType)
	}
	if c.SampleRate < 1 {
		return fmt.Errorf("SAMPLE_RATE must be at least 1")
	}
	if c.BoundaryThreshold <= 0 || c.BoundaryThreshold >= 1 {
		return fmt.Errorf("BOUNDARY_THRESHOLD must be between 0 and 1")
	}
	if c.MinFramesPerHand < 0 {
		return fmt.Errorf("MIN_FRAMES_PER_HAND must not be negative")
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("SAMPLE_INTERVAL must be positive")
	}
	if c.DiffThreshold < 0 || c.DiffThreshold > 1 {
		return fmt.Errorf("DIFF_THRESHOLD must be between 0 and 1")
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("QUEUE_SIZE must be at least 1")
	}
	if c.DiscordToken != "" && c.DiscordChannelID == "" {
		return fmt.Errorf("DISCORD_CHANNEL_ID is required when DISCORD_TOKEN is set")
	}
	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// getEnvWithDefault returns environment variable value or default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntWithDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getFloatWithDefault(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

// getDurationWithDefault accepts Go durations ("2s") or bare seconds ("2.5")
func getDurationWithDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, value)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
