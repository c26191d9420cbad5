package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds configuration for the take-profit service
type Config struct {
	// Service name
	ServiceName string

	// HTTP server port (API + healthz)
	HTTPPort int

	// Log level: debug, info, warn, error
	LogLevel string

	// Redis cluster addresses (comma-separated)
	RedisAddrs string

	// Redis password (empty for none)
	RedisPassword string

	// Kafka brokers (comma-separated)
	KafkaBrokers string

	// Local data directory (outbox database)
	DataDir string

	// Provider gateway endpoints
	ProviderUDSPath string
	ProviderTCPAddr string

	// Provider send timeout in milliseconds
	ProviderTimeoutMs int
}

// LoadConfig loads configuration from environment variables with defaults
func LoadConfig(serviceName string) *Config {
	cfg := &Config{
		ServiceName:       serviceName,
		HTTPPort:          getEnvAsInt("PORT_HTTP", 8084),
		LogLevel:          getEnvAsString("LOG_LEVEL", "info"),
		RedisAddrs:        getEnvAsString("REDIS_ADDRS", "127.0.0.1:6379"),
		RedisPassword:     getEnvAsString("REDIS_PASSWORD", ""),
		KafkaBrokers:      getEnvAsString("KAFKA_BROKERS", "127.0.0.1:9092"),
		DataDir:           getEnvAsString("DATA_DIR", "./data"),
		ProviderUDSPath:   getEnvAsString("PROVIDER_UDS_PATH", "/tmp/provider.sock"),
		ProviderTCPAddr:   getEnvAsString("PROVIDER_TCP_ADDR", "127.0.0.1:9001"),
		ProviderTimeoutMs: getEnvAsInt("PROVIDER_TIMEOUT_MS", 3000),
	}

	return cfg
}

// HTTPAddr returns the HTTP server address
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// RedisAddrList returns the Redis addresses as a slice
func (c *Config) RedisAddrList() []string {
	return splitAndTrim(c.RedisAddrs)
}

// KafkaBrokerList returns the Kafka brokers as a slice
func (c *Config) KafkaBrokerList() []string {
	return splitAndTrim(c.KafkaBrokers)
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func getEnvAsString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
