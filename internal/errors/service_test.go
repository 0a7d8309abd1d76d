// internal/errors/service_test.go
package errors

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		BaseDelay:     time.Millisecond,
		BackoffFactor: 2.0,
		MaxDelay:      5 * time.Millisecond,
	}
}

func TestService_ExecuteWithRetry_EventualSuccess(t *testing.T) {
	service := NewService(fastRetry())

	attempts := 0
	err := service.ExecuteWithRetry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("session not created: chrome not reachable")
		}
		return nil
	}, "start_driver")

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestService_ExecuteWithRetry_NonRetryable(t *testing.T) {
	service := NewService(fastRetry())

	attempts := 0
	err := service.ExecuteWithRetry(context.Background(), func() error {
		attempts++
		return ErrInvalidLocator
	}, "find")

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.True(t, Is(err, ErrInvalidLocator))
}

func TestService_ExecuteWithRetry_Exhausted(t *testing.T) {
	service := NewService(fastRetry())

	attempts := 0
	err := service.ExecuteWithRetry(context.Background(), func() error {
		attempts++
		return fmt.Errorf("connection refused")
	}, "start_driver")

	require.Error(t, err)
	assert.Equal(t, 4, attempts)
	assert.Contains(t, err.Error(), "failed after 4 attempts")
}

func TestService_ExecuteWithRetry_ContextCancelled(t *testing.T) {
	cfg := fastRetry()
	cfg.BaseDelay = time.Second
	cfg.MaxDelay = time.Second
	service := NewService(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := service.ExecuteWithRetry(ctx, func() error {
		return fmt.Errorf("timeout")
	}, "start_driver")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_CalculateDelayCapped(t *testing.T) {
	service := NewService(RetryConfig{MaxRetries: 5, BaseDelay: time.Second, BackoffFactor: 3, MaxDelay: 5 * time.Second})

	assert.Equal(t, time.Second, service.calculateDelay(0))
	assert.Equal(t, 3*time.Second, service.calculateDelay(1))
	assert.Equal(t, 5*time.Second, service.calculateDelay(2))
}

func TestService_ExitCodes(t *testing.T) {
	service := NewService(DefaultRetryConfig())

	tests := []struct {
		err  error
		code int
	}{
		{nil, 0},
		{Mark(fmt.Errorf("failed to parse YAML configuration"), ErrConfig), 2},
		{fmt.Errorf("failed to load configuration: %w", Mark(stderrors.New("bad timeout"), ErrConfig)), 2},
		{Wrap("start", "chrome", ErrDriverNotStarted), 3},
		{Wrap("find", "css selector=#x", ErrElementNotFound), 4},
		{Wrap("find", "id=config-panel", ErrElementNotFound), 4},
		{Wrap("expand", "css selector=app-config", ErrNoShadowRoot), 4},
		{Wrap("wait", "", ErrTimeout), 5},
		{Wrap("wait", "class name=configure", ErrTimeout), 5},
		{Mark(stderrors.New("Scenario validation failed"), ErrValidation), 6},
		{fmt.Errorf("validation failed: %w", Mark(stderrors.New("config/smoke.yaml: scenario is empty"), ErrValidation)), 6},
		{stderrors.New("yaml config validation"), 1},
		{stderrors.New("boom"), 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.code, service.GetExitCode(tt.err), "error %v", tt.err)
	}
}

func TestMark(t *testing.T) {
	base := stderrors.New("configuration file not found: prefs.yaml")
	err := Mark(base, ErrConfig)

	assert.Equal(t, base.Error(), err.Error())
	assert.ErrorIs(t, err, ErrConfig)
	assert.ErrorIs(t, err, base)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Nil(t, Mark(nil, ErrConfig))
}

func TestService_UserFriendlyTitles(t *testing.T) {
	service := NewService(DefaultRetryConfig())

	title, _, _ := service.GetUserFriendlyError(Mark(stderrors.New("Timeout must be positive"), ErrConfig))
	assert.Equal(t, "Configuration Error", title)

	title, _, _ = service.GetUserFriendlyError(Mark(stderrors.New("unknown action"), ErrValidation))
	assert.Equal(t, "Invalid Scenario", title)

	title, _, _ = service.GetUserFriendlyError(Wrap("find", "id=config-panel", ErrElementNotFound))
	assert.Equal(t, "Element Not Found", title)
}

func TestService_FormatErrorForCLI(t *testing.T) {
	err := Wrap("find", "id=login", ErrElementNotFound)

	quiet := NewService(DefaultRetryConfig()).FormatErrorForCLI(err)
	assert.Contains(t, quiet, "Element Not Found")
	assert.NotContains(t, quiet, "Technical details")

	verbose := NewService(DefaultRetryConfig()).WithVerbose(true).FormatErrorForCLI(err)
	assert.Contains(t, verbose, "Technical details: find id=login: element not found")
}

func TestOpError_Unwrap(t *testing.T) {
	err := Wrap("click", "link text=Home", ErrTimeout)

	var opErr *OpError
	require.True(t, As(err, &opErr))
	assert.Equal(t, "click", opErr.Op)
	assert.True(t, stderrors.Is(err, ErrTimeout))
	assert.Nil(t, Wrap("click", "", nil))
}

func TestParseDebugLevel(t *testing.T) {
	tests := map[string]DebugLevel{
		"":            LevelNotSpecified,
		"Human":       LevelHuman,
		"message":     LevelMessage,
		"StackTrace":  LevelStackTrace,
		"stack-trace": LevelStackTrace,
		"none":        LevelNone,
	}
	for in, want := range tests {
		got, err := ParseDebugLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDebugLevel("loud")
	assert.Error(t, err)
}

func TestHandler_Levels(t *testing.T) {
	cause := fmt.Errorf("no such element: #missing")

	tests := []struct {
		level    DebugLevel
		contains []string
		absent   []string
	}{
		{LevelHuman, []string{"Could not find the element"}, []string{"no such element"}},
		{LevelMessage, []string{"no such element"}, []string{"Could not find the element"}},
		{LevelNotSpecified, []string{"no such element"}, nil},
		{LevelStackTrace, []string{"no such element", "goroutine"}, nil},
		{LevelNone, nil, []string{"no such element", "Could not find"}},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			h := NewHandler(tt.level, nil).WithOutput(&buf)

			err := h.Handle("Could not find the element", cause)
			assert.Same(t, cause, err)

			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestHandler_NilErrorIsSilent(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(LevelStackTrace, nil).WithOutput(&buf)

	assert.NoError(t, h.Handle("ignored", nil))
	assert.Empty(t, buf.String())
}

func TestHandler_HumanOnlyAtHumanLevel(t *testing.T) {
	var buf bytes.Buffer
	NewHandler(LevelMessage, nil).WithOutput(&buf).Human("attempting %s", "enter key")
	assert.Empty(t, buf.String())

	NewHandler(LevelHuman, nil).WithOutput(&buf).Human("attempting %s", "enter key")
	assert.True(t, strings.Contains(buf.String(), "attempting enter key"))
}

func TestDebugLevel_TextRoundTrip(t *testing.T) {
	var level DebugLevel
	require.NoError(t, level.UnmarshalText([]byte("human")))
	assert.Equal(t, LevelHuman, level)

	text, err := level.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "human", string(text))
}
