package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvesoscar517-cloud/Quick-Notes-Note-Taking-sub000/pkg/config"
)

func TestLoad(t *testing.T) {
	t.Run("parses env tags with defaults", func(t *testing.T) {
		type serverConfig struct {
			Addr string `env:"TEST_LOADER_ADDR" envDefault:":8080"`
			Name string `env:"TEST_LOADER_NAME"`
		}
		t.Setenv("TEST_LOADER_NAME", "quicknotes")

		var cfg serverConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, "quicknotes", cfg.Name)
	})

	t.Run("rejects a nil pointer", func(t *testing.T) {
		type nilConfig struct{}
		var cfg *nilConfig
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	})

	t.Run("wraps parse failures", func(t *testing.T) {
		type requiredConfig struct {
			Secret string `env:"TEST_LOADER_REQUIRED,required"`
		}
		var cfg requiredConfig
		assert.ErrorIs(t, config.Load(&cfg), config.ErrParsingConfig)
	})

	t.Run("caches per configuration type", func(t *testing.T) {
		type cachedConfig struct {
			Value string `env:"TEST_LOADER_CACHED"`
		}
		t.Setenv("TEST_LOADER_CACHED", "first")

		var first cachedConfig
		require.NoError(t, config.Load(&first))

		// A later change to the environment does not reparse.
		t.Setenv("TEST_LOADER_CACHED", "second")
		var second cachedConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, "first", second.Value)
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("panics when loading fails", func(t *testing.T) {
		type brokenConfig struct {
			Secret string `env:"TEST_MUSTLOAD_REQUIRED,required"`
		}
		assert.Panics(t, func() {
			var cfg brokenConfig
			config.MustLoad(&cfg)
		})
	})
}
