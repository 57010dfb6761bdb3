package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir           string
	DatabasePath      string
	HistoryDir        string
	LogLevel          string
	Port              int
	DevMode           bool
	PriceSyncSchedule string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "./data")

	cfg := &Config{
		DataDir:           dataDir,
		DatabasePath:      getEnv("DATABASE_PATH", filepath.Join(dataDir, "stocksim.db")),
		HistoryDir:        getEnv("HISTORY_DIR", filepath.Join(dataDir, "history")),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Port:              getEnvAsInt("PORT", 8001),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		PriceSyncSchedule: getEnv("PRICE_SYNC_SCHEDULE", "0 30 22 * * 1-5"), // weekdays after US close
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.HistoryDir == "" {
		return fmt.Errorf("HISTORY_DIR is required")
	}
	return nil
}

// EnsureDirs creates the data directories if they do not exist
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.HistoryDir, filepath.Dir(c.DatabasePath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
