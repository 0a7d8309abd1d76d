// internal/browser/perflog.go
package browser

import (
	"fmt"
	"strings"
	"time"

	slog "github.com/tebeka/selenium/log"
	"github.com/tidwall/gjson"
)

// PerformanceEvent is one DevTools event recorded in the chromedriver
// performance log.
type PerformanceEvent struct {
	Method    string
	Params    gjson.Result
	WebView   string
	Timestamp time.Time
}

// Domain returns the DevTools domain of the event, e.g. "Network".
func (e PerformanceEvent) Domain() string {
	domain, _, _ := strings.Cut(e.Method, ".")
	return domain
}

// ParsePerformanceLog decodes entries fetched with Log(log.Performance).
// Entries that are not DevTools events are skipped.
func ParsePerformanceLog(messages []slog.Message) ([]PerformanceEvent, error) {
	events := make([]PerformanceEvent, 0, len(messages))
	for i, m := range messages {
		if !gjson.Valid(m.Message) {
			return nil, fmt.Errorf("performance log entry %d is not valid JSON", i)
		}

		msg := gjson.Parse(m.Message)
		method := msg.Get("message.method").String()
		if method == "" {
			continue
		}

		events = append(events, PerformanceEvent{
			Method:    method,
			Params:    msg.Get("message.params"),
			WebView:   msg.Get("webview").String(),
			Timestamp: m.Timestamp,
		})
	}
	return events, nil
}

// NetworkResponse summarizes a Network.responseReceived event.
type NetworkResponse struct {
	URL      string
	Status   int
	MimeType string
}

// NetworkResponses extracts the received responses from events.
func NetworkResponses(events []PerformanceEvent) []NetworkResponse {
	var out []NetworkResponse
	for _, e := range events {
		if e.Method != "Network.responseReceived" {
			continue
		}
		out = append(out, NetworkResponse{
			URL:      e.Params.Get("response.url").String(),
			Status:   int(e.Params.Get("response.status").Int()),
			MimeType: e.Params.Get("response.mimeType").String(),
		})
	}
	return out
}
