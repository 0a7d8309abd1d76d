// internal/browser/perflog_test.go
package browser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	slog "github.com/tebeka/selenium/log"
)

func TestParsePerformanceLog(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	messages := []slog.Message{
		{Timestamp: at, Level: slog.Info, Message: `{"message":{"method":"Network.responseReceived","params":{"response":{"url":"https://shop.local/","status":200,"mimeType":"text/html"}}},"webview":"A1B2"}`},
		{Timestamp: at, Level: slog.Info, Message: `{"message":{"method":"Page.loadEventFired","params":{"timestamp":12.5}},"webview":"A1B2"}`},
		{Timestamp: at, Level: slog.Info, Message: `{"message":{"params":{}}}`},
		{Timestamp: at, Level: slog.Info, Message: `{"message":{"method":"Network.responseReceived","params":{"response":{"url":"https://shop.local/app.js","status":404,"mimeType":"application/javascript"}}}}`},
	}

	events, err := ParsePerformanceLog(messages)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "Network", events[0].Domain())
	assert.Equal(t, "A1B2", events[0].WebView)
	assert.Equal(t, at, events[0].Timestamp)
	assert.Equal(t, "Page", events[1].Domain())
	assert.Equal(t, 12.5, events[1].Params.Get("timestamp").Float())

	responses := NetworkResponses(events)
	assert.Equal(t, []NetworkResponse{
		{URL: "https://shop.local/", Status: 200, MimeType: "text/html"},
		{URL: "https://shop.local/app.js", Status: 404, MimeType: "application/javascript"},
	}, responses)
}

func TestParsePerformanceLog_InvalidJSON(t *testing.T) {
	_, err := ParsePerformanceLog([]slog.Message{{Message: "{not json"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry 0")
}

func TestParsePerformanceLog_Empty(t *testing.T) {
	events, err := ParsePerformanceLog(nil)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Empty(t, NetworkResponses(events))
}
