package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bugport/mailflow/pkg/config"
	"github.com/bugport/mailflow/pkg/filter"
	"github.com/bugport/mailflow/pkg/telemetry/metrics"
	"github.com/bugport/mailflow/pkg/workflow"
)

const spamMessage = "From: noreply@spam.example\r\n" +
	"Subject: [SPAM] offer\r\n" +
	"\r\n" +
	"body\r\n"

func testServer(t *testing.T, collector *metrics.Collector) *Server {
	t.Helper()
	g := workflow.Build(workflow.DefaultDefinition(), slog.Default())
	opts := []filter.Option{}
	if collector != nil {
		opts = append(opts, filter.WithMetrics(collector))
	}
	processor := filter.NewProcessor(filter.StaticGraph{G: g}, slog.Default(), opts...)
	cfg := config.DefaultConfig()
	cfg.Server.MaxMessageBytes = 1024
	return NewServer(&cfg.Server, processor, collector, slog.Default())
}

// TestHandleCheck tests the POST /check disposition round trip.
func TestHandleCheck(t *testing.T) {
	srv := testServer(t, nil)
	handler := srv.routes()

	req := httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(spamMessage))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var result map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if result["action"] != "reject" {
		t.Errorf("action = %v, want reject", result["action"])
	}
	if result["reject_reason"] != "Message identified as spam" {
		t.Errorf("reject_reason = %v", result["reject_reason"])
	}
}

// TestHandleCheckEmptyBody tests rejection of an empty request.
func TestHandleCheckEmptyBody(t *testing.T) {
	srv := testServer(t, nil)
	handler := srv.routes()

	req := httptest.NewRequest(http.MethodPost, "/check", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

// TestHandleCheckTooLarge tests the message size cap.
func TestHandleCheckTooLarge(t *testing.T) {
	srv := testServer(t, nil)
	handler := srv.routes()

	big := strings.Repeat("x", 2048)
	req := httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(big))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rr.Code)
	}
}

// TestHandleCheckMethodNotAllowed tests that GET /check is refused.
func TestHandleCheckMethodNotAllowed(t *testing.T) {
	srv := testServer(t, nil)
	handler := srv.routes()

	req := httptest.NewRequest(http.MethodGet, "/check", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rr.Code)
	}
}

// TestHandleHealthz tests the liveness endpoint.
func TestHandleHealthz(t *testing.T) {
	srv := testServer(t, nil)
	handler := srv.routes()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "ok") {
		t.Errorf("body = %q", rr.Body.String())
	}
}

// TestMetricsEndpoint tests that /metrics is mounted when a collector
// is attached and exposes the disposition counter after a check.
func TestMetricsEndpoint(t *testing.T) {
	collector := metrics.NewCollector(&metrics.Config{Enabled: true, Namespace: "mailflow"}, nil)
	srv := testServer(t, collector)
	handler := srv.routes()

	req := httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(spamMessage))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "mailflow_messages_total") {
		t.Error("metrics output missing mailflow_messages_total")
	}
}

// TestMetricsNotMountedWithoutCollector tests that /metrics 404s when
// metrics are disabled.
func TestMetricsNotMountedWithoutCollector(t *testing.T) {
	srv := testServer(t, nil)
	handler := srv.routes()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}
