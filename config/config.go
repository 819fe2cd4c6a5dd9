package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Workflow WorkflowConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host      string
	Port      string
	JWTSecret string
}

// WorkflowConfig holds complaint workflow tuning.
//
// AutoApproveWindow is the kepala_dusun inactivity window: an admin_approved
// complaint untouched for this long is auto-approved by the sweep. The sweep
// runs every SweepInterval. Both are deployment configuration, not behavior
// the code guesses at.
type WorkflowConfig struct {
	AutoApproveWindow time.Duration // AUTO_APPROVE_WINDOW_HOURS, default 72h
	SweepInterval     time.Duration // AUTO_APPROVE_SWEEP_INTERVAL_SECONDS, default 1h
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "127.0.0.1"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "sidesa"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   getEnv("DB_NAME", "sidesa"),
		},
		Server: ServerConfig{
			Host:      getEnv("SERVER_HOST", "0.0.0.0"),
			Port:      getEnv("PORT", getEnv("SERVER_PORT", "8080")),
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		},
		Workflow: WorkflowConfig{
			AutoApproveWindow: time.Duration(getEnvInt("AUTO_APPROVE_WINDOW_HOURS", 72)) * time.Hour,
			SweepInterval:     time.Duration(getEnvInt("AUTO_APPROVE_SWEEP_INTERVAL_SECONDS", 3600)) * time.Second,
		},
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
