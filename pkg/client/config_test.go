package client

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "live", cfg.MarkerClass)
	assert.Equal(t, 100*time.Millisecond, cfg.BackoffBase)
	assert.Equal(t, 60*time.Second, cfg.BackoffCeiling)
	assert.Equal(t, 0, cfg.MaxOutbox)
}

func TestConfigClone(t *testing.T) {
	cfg := DefaultConfig().WithMarkerClass("sync").WithMaxOutbox(8)
	clone := cfg.Clone()
	clone.MarkerClass = "other"

	assert.Equal(t, "sync", cfg.MarkerClass)
	assert.Equal(t, 8, clone.MaxOutbox)
	assert.Nil(t, (*Config)(nil).Clone())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty marker", func(c *Config) { c.MarkerClass = "" }},
		{"zero base", func(c *Config) { c.BackoffBase = 0 }},
		{"ceiling below base", func(c *Config) { c.WithBackoff(time.Second, time.Millisecond) }},
		{"negative outbox", func(c *Config) { c.MaxOutbox = -1 }},
		{"negative message size", func(c *Config) { c.MaxMessageSize = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.True(t, errors.Is(err, ErrInvalidConfig), "err = %v", err)
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MarkerClass = ""
	_, err := New("ws://localhost/live", mustDoc(t, "<p></p>"), WithConfig(cfg))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
