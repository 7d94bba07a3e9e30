package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Storage       StorageConfig
	Import        ImportConfig
	Observability ObservabilityConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	AllowedOrigins     []string
	RateLimitPerSecond int
	RateLimitBurst     int
}

// DatabaseConfig selects the ledger backing. With Enabled false the ledger
// is kept as JSON files under Storage.DataDir.
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	// OwnerID scopes every ledger row; one household per deployment.
	OwnerID string
}

type StorageConfig struct {
	DataDir    string
	ArchiveDir string
}

type ImportConfig struct {
	InboxDir      string
	DefaultBank   string
	SweepSchedule string
	MaxUploadMB   int
	MaxPDFPages   int
	MaxSheetRows  int
	Timeout       time.Duration
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	LogLevel       string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present; real environment
// variables win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins:     getEnvAsList("SERVER_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			RateLimitPerSecond: getEnvAsInt("SERVER_RATE_LIMIT_PER_SECOND", 20),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 40),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("POSTGRES_ENABLED", false),
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "family-ledger"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			OwnerID:  getEnv("LEDGER_OWNER_ID", "00000000-0000-0000-0000-000000000001"),
		},
		Storage: StorageConfig{
			DataDir:    getEnv("LEDGER_DATA_DIR", "./data"),
			ArchiveDir: getEnv("STATEMENT_ARCHIVE_DIR", "./data/statements"),
		},
		Import: ImportConfig{
			InboxDir:      getEnv("IMPORT_INBOX_DIR", ""),
			DefaultBank:   getEnv("IMPORT_DEFAULT_BANK", "generic"),
			SweepSchedule: getEnv("IMPORT_SWEEP_SCHEDULE", "*/5 * * * *"),
			MaxUploadMB:   getEnvAsInt("IMPORT_MAX_UPLOAD_MB", 20),
			MaxPDFPages:   getEnvAsInt("IMPORT_MAX_PDF_PAGES", 200),
			MaxSheetRows:  getEnvAsInt("IMPORT_MAX_SHEET_ROWS", 50000),
			Timeout:       getEnvAsDuration("IMPORT_TIMEOUT", 2*time.Minute),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
		},
	}

	if cfg.Import.MaxUploadMB <= 0 {
		return nil, errors.New("IMPORT_MAX_UPLOAD_MB must be positive")
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Addr returns host:port for the HTTP listener.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
