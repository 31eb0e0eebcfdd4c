package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, &Config{
		Host:    "http://localhost:11434/v1",
		Model:   "embeddinggemma",
		Token:   "none",
		Timeout: time.Minute,
	}, cfg)
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{name: "already has /v1", host: "http://localhost:11434/v1", expected: "http://localhost:11434/v1"},
		{name: "missing /v1", host: "http://localhost:11434", expected: "http://localhost:11434/v1"},
		{name: "has trailing slash", host: "http://localhost:11434/", expected: "http://localhost:11434/v1"},
		{name: "empty host", host: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Host: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.expected, cfg.Host)
		})
	}

	t.Run("fills token and timeout", func(t *testing.T) {
		cfg := &Config{}
		cfg.Normalize()
		assert.Equal(t, DefaultToken, cfg.Token)
		assert.Equal(t, DefaultTimeout, cfg.Timeout)
	})

	t.Run("keeps explicit timeout", func(t *testing.T) {
		cfg := &Config{Timeout: 5 * time.Second}
		cfg.Normalize()
		assert.Equal(t, 5*time.Second, cfg.Timeout)
	})
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{Host: "http://embed:11434", Model: "nomic-embed-text"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://embed:11434/v1", cfg.Host)

	assert.ErrorIs(t, (&Config{Model: "m"}).Validate(), ErrHostRequired)
	assert.ErrorIs(t, (&Config{Host: "http://embed"}).Validate(), ErrModelRequired)
}
