package app

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	ServerPort          string
	JWTSecret           string
	AgentToken          string
	TokenExpirationSec  int64
	StorageDriver       string
	DBHost              string
	DBPort              string
	DBUser              string
	DBPassword          string
	DBName              string
	DBSSLMode           string
	OfflineThresholdSec int
	SweepIntervalSec    int
	AdminUsername       string
	AdminPassword       string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		JWTSecret:           getEnv("JWT_SIGNING_SECRET", ""),
		AgentToken:          getEnv("AGENT_API_TOKEN", ""),
		TokenExpirationSec:  86400, // 24 hours
		StorageDriver:       getEnv("STORAGE_DRIVER", "postgres"),
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnv("DB_PORT", "5432"),
		DBUser:              getEnv("DB_USER", "postgres"),
		DBPassword:          getEnv("DB_PASSWORD", "postgres"),
		DBName:              getEnv("DB_NAME", "fleetdb"),
		DBSSLMode:           getEnv("DB_SSL_MODE", "disable"),
		OfflineThresholdSec: getEnvInt("OFFLINE_THRESHOLD_SEC", 300),
		SweepIntervalSec:    getEnvInt("SWEEP_INTERVAL_SEC", 60),
		AdminUsername:       getEnv("ADMIN_USERNAME", ""),
		AdminPassword:       getEnv("ADMIN_PASSWORD", ""),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SIGNING_SECRET must be set")
	}
	if cfg.AgentToken == "" {
		return nil, fmt.Errorf("AGENT_API_TOKEN must be set")
	}

	return cfg, nil
}

// ConnString builds the Postgres connection string
func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil && v > 0 {
			return v
		}
	}
	return defaultValue
}
