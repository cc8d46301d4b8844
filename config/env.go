package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Env is the process-level configuration: where the household files live,
// where runs are journaled, and how to log. Flags override it.
type Env struct {
	ConfigDir string
	Journal   string
	LogLevel  string
	LogPretty bool
}

// LoadEnv reads Env from the environment, loading a .env file in the working
// directory first if there is one.
func LoadEnv() Env {
	_ = godotenv.Load()

	return Env{
		ConfigDir: getEnv("REBALANCE_CONFIG_DIR", "config"),
		Journal:   getEnv("REBALANCE_JOURNAL", ""),
		LogLevel:  getEnv("REBALANCE_LOG_LEVEL", "warn"),
		LogPretty: getEnvAsBool("REBALANCE_LOG_PRETTY", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
