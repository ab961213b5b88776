package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/draftwire/draftwire/internal/config"
)

func TestSetup(t *testing.T) {
	t.Run("returns a logger for every valid level", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "DEBUG", "Info"} {
			logger := Setup(config.ServerConfig{Port: 8080, LogLevel: level})
			assert.NotNil(t, logger, "level %q", level)
		}
	})

	t.Run("falls back to info on invalid level", func(t *testing.T) {
		logger := Setup(config.ServerConfig{Port: 8080, LogLevel: "loud"})
		assert.NotNil(t, logger)
	})
}
