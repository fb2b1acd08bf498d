package config

import (
	"os"
	"strconv"
	"time"

	"kosgate/internal/cache"
	"kosgate/internal/messaging"
	"kosgate/internal/upstream"
)

// Config holds the application configuration.
type Config struct {
	Port          string
	GinMode       string
	LogLevel      string
	LogFormat     string
	AllowedOrigin string

	// Redis and NATS are optional; each instance runs standalone with a
	// per-process cache miss penalty when they are disabled.
	RedisEnabled bool
	NATSEnabled  bool

	Upstream upstream.Config
	Redis    cache.Config
	NATS     messaging.Config
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		GinMode:       getEnv("GIN_MODE", "debug"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),

		RedisEnabled: getEnv("REDIS_ENABLED", "true") == "true",
		NATSEnabled:  getEnv("NATS_ENABLED", "false") == "true",

		Upstream: upstream.Config{
			BaseURL: getEnv("KOS_BACKEND_URL", "http://localhost:8000/api"),
			Timeout: time.Duration(getEnvInt("KOS_BACKEND_TIMEOUT_SEC", 30)) * time.Second,
		},

		Redis: cache.Config{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "kosgate"),
			ClientID:  getEnv("NATS_CLIENT_ID", "kosgate-api"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
