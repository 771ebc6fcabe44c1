package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	base, ceiling := 100*time.Millisecond, 60*time.Second

	tests := []struct {
		failures int
		want     time.Duration
	}{
		{-1, 100 * time.Millisecond},
		{0, 100 * time.Millisecond},
		{1, 400 * time.Millisecond},
		{2, 900 * time.Millisecond},
		{3, 1600 * time.Millisecond},
		{10, 12100 * time.Millisecond},
		{23, 57600 * time.Millisecond},
		{24, ceiling},
		{1000, ceiling},
		{1 << 30, ceiling},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Backoff(tt.failures, base, ceiling), "failures=%d", tt.failures)
	}
}

func TestBackoffZeroBase(t *testing.T) {
	assert.Equal(t, time.Duration(0), Backoff(5, 0, time.Second))
}
