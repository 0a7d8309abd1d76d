// internal/monitoring/monitoring_test.go
package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsManager_RecordsActions(t *testing.T) {
	mm := NewMetricsManager(MetricsConfig{})

	mm.RecordAction("click", 20*time.Millisecond, nil)
	mm.RecordAction("click", 10*time.Millisecond, errors.New("boom"))
	mm.RecordWaitTimeout("visible")
	mm.RecordDriverStart("desktop", time.Second, nil)
	mm.SessionOpened()
	mm.SessionOpened()
	mm.SessionClosed()
	mm.RecordStep("navigate", time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(mm.actionsTotal.WithLabelValues("click", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.actionsTotal.WithLabelValues("click", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.waitTimeouts.WithLabelValues("visible")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.driverStarts.WithLabelValues("desktop", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.activeSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.stepsTotal.WithLabelValues("navigate", "success")))
}

func TestMetricsManager_NilIsNoop(t *testing.T) {
	var mm *MetricsManager
	assert.NotPanics(t, func() {
		mm.RecordAction("click", time.Second, nil)
		mm.RecordWaitTimeout("visible")
		mm.RecordDriverStart("desktop", time.Second, nil)
		mm.SessionOpened()
		mm.SessionClosed()
		mm.RecordStep("click", time.Second, nil)
	})
}

func TestMetricsManager_SeparateRegistries(t *testing.T) {
	// Two managers must not collide on registration.
	assert.NotPanics(t, func() {
		NewMetricsManager(MetricsConfig{Namespace: "a"})
		NewMetricsManager(MetricsConfig{Namespace: "a"})
	})
}

func TestRouter_Metrics(t *testing.T) {
	mm := NewMetricsManager(MetricsConfig{Namespace: "rat"})
	mm.RecordAction("hover", time.Millisecond, nil)

	srv := httptest.NewServer(NewRouter(nil, mm))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `rat_driver_actions_total{action="hover",status="success"} 1`)
}

func TestRouter_Health(t *testing.T) {
	tests := []struct {
		name       string
		checks     []*HealthCheck
		wantStatus HealthStatus
		wantCode   int
	}{
		{
			name:       "no checks",
			wantStatus: HealthStatusHealthy,
			wantCode:   http.StatusOK,
		},
		{
			name: "session responding",
			checks: []*HealthCheck{
				SessionHealthCheck("session", func(ctx context.Context) error { return nil }),
			},
			wantStatus: HealthStatusHealthy,
			wantCode:   http.StatusOK,
		},
		{
			name: "session gone",
			checks: []*HealthCheck{
				SessionHealthCheck("session", func(ctx context.Context) error { return errors.New("invalid session id") }),
			},
			wantStatus: HealthStatusUnhealthy,
			wantCode:   http.StatusServiceUnavailable,
		},
		{
			name:       "too many goroutines",
			checks:     []*HealthCheck{GoroutineHealthCheck(0)},
			wantStatus: HealthStatusDegraded,
			wantCode:   http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hm := NewHealthManager(time.Second)
			for _, c := range tt.checks {
				hm.RegisterCheck(c)
			}

			rec := httptest.NewRecorder()
			NewRouter(hm, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			var got SystemHealth
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Len(t, got.Checks, len(tt.checks))
		})
	}
}

func TestRouter_RejectsPost(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter(NewHealthManager(0), nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", strings.NewReader("{}")))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(ln.Addr().String(), NewRouter(NewHealthManager(0), nil), nil)

	done := make(chan error, 1)
	go func() { done <- srv.ServeListener(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
