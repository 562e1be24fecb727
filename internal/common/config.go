package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration. It is constructed once at
// process start and passed into component constructors; no component reads
// the environment directly.
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Extractor ExtractorConfig
	Oracle    OracleConfig
	Recon     ReconConfig
	Output    OutputConfig
}

// DatabaseConfig holds record-store configuration. The DSN selects the
// backend: postgres:// URLs use pgx, anything else is treated as a SQLite
// file path (":memory:" included).
type DatabaseConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	DialTimeout  time.Duration
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// ExtractorConfig holds document-extraction LLM configuration.
type ExtractorConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// OracleConfig holds reasoning-oracle LLM configuration.
type OracleConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// ReconConfig holds the reconciliation tolerances.
type ReconConfig struct {
	AmountTolerance     float64
	StrongScoreEvidence int
}

// OutputConfig holds verified-invoice and report output locations.
type OutputConfig struct {
	Dir string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:          getEnv("DB_URL", ""),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			DialTimeout:  getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Extractor: ExtractorConfig{
			Model:       getEnv("EXTRACTOR_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Temperature: getEnvAsFloat32("EXTRACTOR_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("EXTRACTOR_TIMEOUT", 45*time.Second),
		},
		Oracle: OracleConfig{
			Model:       getEnv("ORACLE_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Temperature: getEnvAsFloat32("ORACLE_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("ORACLE_TIMEOUT", 45*time.Second),
		},
		Recon: ReconConfig{
			AmountTolerance:     getEnvAsFloat64("AMOUNT_TOLERANCE", 0.05),
			StrongScoreEvidence: getEnvAsInt("STRONG_SCORE_THRESHOLD", 80),
		},
		Output: OutputConfig{
			Dir: getEnv("OUTPUT_DIR", "./output"),
		},
	}
}

// Helper functions for environment variable parsing
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError(ErrInvalidInput, "DB_URL is required", nil)
	}
	if c.Oracle.APIKey == "" {
		return NewAppError(ErrInvalidInput, "OPENAI_API_KEY is required", nil)
	}
	if c.Server.Addr == "" {
		return NewAppError(ErrInvalidInput, "HTTP_ADDR is required", nil)
	}
	if c.Recon.AmountTolerance < 0 {
		return NewAppError(ErrInvalidInput, "AMOUNT_TOLERANCE must be >= 0", nil)
	}
	return nil
}
