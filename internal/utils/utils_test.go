// internal/utils/utils_test.go
package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"", InfoLevel, false},
		{" INFO ", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"loud", InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithConfig(LoggerConfig{Level: InfoLevel, Format: "json", Output: &buf})

	logger.Debug("hidden")
	logger.WithField("step", "open home").WithFields(map[string]interface{}{"attempt": 2}).Info("step finished")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "step finished", entry["msg"])
	assert.Equal(t, "open home", entry["step"])
	assert.Equal(t, float64(2), entry["attempt"])
	assert.Equal(t, "info", entry["level"])
}

func TestLogger_TextLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithConfig(LoggerConfig{Level: WarnLevel, Output: &buf})

	logger.Infof("skipped %d", 1)
	logger.Warnf("kept %d", 2)

	assert.NotContains(t, buf.String(), "skipped")
	assert.Contains(t, buf.String(), "kept 2")
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, rl.Wait(ctx))
}

func TestRateLimiter_Unlimited(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, rl.Allow())
	}
	require.NoError(t, rl.Wait(context.Background()))

	var nilLimiter *RateLimiter
	assert.True(t, nilLimiter.Allow())
	assert.NoError(t, nilLimiter.Wait(context.Background()))
}
