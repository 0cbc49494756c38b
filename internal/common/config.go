package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	LLM       LLMConfig
	Telemetry TelemetryConfig
	Push      PushConfig
	Queue     QueueConfig
	Catalog   CatalogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr           string
	CORSAllowedOrigins string
}

// LLMConfig holds reasoning-service configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// TelemetryConfig holds mobility-telemetry API configuration
type TelemetryConfig struct {
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
	WindowDays int
}

// PushConfig holds push-provider configuration
type PushConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// QueueConfig holds work-queue consumer configuration
type QueueConfig struct {
	PollInterval time.Duration
	MaxAttempts  int
	StuckAfter   time.Duration
}

// CatalogConfig holds service-catalog source configuration
type CatalogConfig struct {
	Path string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
		},
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		Telemetry: TelemetryConfig{
			BaseURL:    getEnv("TELEMETRY_BASE_URL", ""),
			ServiceKey: getEnv("TELEMETRY_SERVICE_KEY", ""),
			Timeout:    getEnvAsDuration("TELEMETRY_TIMEOUT", 8*time.Second),
			WindowDays: getEnvAsInt("TELEMETRY_WINDOW_DAYS", 7),
		},
		Push: PushConfig{
			BaseURL: getEnv("PUSH_BASE_URL", ""),
			APIKey:  getEnv("PUSH_API_KEY", ""),
			Timeout: getEnvAsDuration("PUSH_TIMEOUT", 10*time.Second),
		},
		Queue: QueueConfig{
			PollInterval: getEnvAsDuration("QUEUE_POLL_INTERVAL", 800*time.Millisecond),
			MaxAttempts:  getEnvAsInt("QUEUE_MAX_ATTEMPTS", 3),
			StuckAfter:   getEnvAsDuration("QUEUE_STUCK_AFTER", 5*time.Minute),
		},
		Catalog: CatalogConfig{
			Path: getEnv("CATALOG_PATH", "./data/services.xlsx"),
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration for the API server.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	return nil
}

// ValidateWorker validates the additional settings the worker binary needs.
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Telemetry.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "TELEMETRY_BASE_URL is required", ErrInvalidInput)
	}
	return nil
}
