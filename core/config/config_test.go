package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postalsys/certs/core/config"
)

func TestLoad(t *testing.T) {
	type renewalConfig struct {
		Window  time.Duration `env:"TEST_RENEW_WINDOW" envDefault:"720h"`
		KeyBits int           `env:"TEST_KEY_BITS" envDefault:"2048"`
	}

	t.Setenv("TEST_KEY_BITS", "4096")

	var cfg renewalConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, 720*time.Hour, cfg.Window)
	assert.Equal(t, 4096, cfg.KeyBits)
}

func TestLoadCachesPerType(t *testing.T) {
	type cachedConfig struct {
		Value string `env:"TEST_CACHED_VALUE" envDefault:"first"`
	}

	var first cachedConfig
	require.NoError(t, config.Load(&first))
	assert.Equal(t, "first", first.Value)

	// The type was cached on first load; later environment changes are not
	// observed.
	t.Setenv("TEST_CACHED_VALUE", "second")

	var second cachedConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Value)
}

func TestMustLoadPanicsOnMissingRequired(t *testing.T) {
	type strictConfig struct {
		Secret string `env:"TEST_ABSENT_REQUIRED_VALUE,required"`
	}

	assert.Panics(t, func() {
		config.MustLoad(&strictConfig{})
	})
}
