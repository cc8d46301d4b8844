package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("REBALANCE_CONFIG_DIR", "")
	t.Setenv("REBALANCE_JOURNAL", "")
	t.Setenv("REBALANCE_LOG_LEVEL", "")
	t.Setenv("REBALANCE_LOG_PRETTY", "")

	assert.Equal(t, Env{ConfigDir: "config", LogLevel: "warn"}, LoadEnv())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("REBALANCE_CONFIG_DIR", "/etc/household")
	t.Setenv("REBALANCE_JOURNAL", "/var/lib/rebalance/plans.db")
	t.Setenv("REBALANCE_LOG_LEVEL", "debug")
	t.Setenv("REBALANCE_LOG_PRETTY", "true")

	assert.Equal(t, Env{
		ConfigDir: "/etc/household",
		Journal:   "/var/lib/rebalance/plans.db",
		LogLevel:  "debug",
		LogPretty: true,
	}, LoadEnv())
}

func TestLoadEnvBadBoolFallsBack(t *testing.T) {
	t.Setenv("REBALANCE_LOG_PRETTY", "sometimes")
	assert.False(t, LoadEnv().LogPretty)
}
