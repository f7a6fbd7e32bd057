package config

import (
	"os"
	"strconv"
)

// Config holds the host process configuration. The core packages take plain
// arguments; only cmd/server reads the environment.
type Config struct {
	MetricsAddr string
	QueueDepth  int
	PrettyLog   bool
}

// Load reads configuration from environment variables, falling back to
// defaults.
func Load() *Config {
	return &Config{
		MetricsAddr: getEnv("GUNGNIR_METRICS_ADDR", ":9100"),
		QueueDepth:  getEnvInt("GUNGNIR_QUEUE_DEPTH", 1024),
		PrettyLog:   getEnvBool("GUNGNIR_PRETTY_LOG", false),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1"
	}
	return fallback
}
