package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domain "github.com/loom-field/api/internal/domain"
	"github.com/loom-field/api/internal/services"
)

type stubSystemService struct {
	report services.SystemHealthReport
	err    error
}

func (s *stubSystemService) HealthReport(context.Context) (services.SystemHealthReport, error) {
	return s.report, s.err
}

var _ services.SystemService = (*stubSystemService)(nil)

func decodeHealthBody(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
}

func TestHealthHandlersHealthz(t *testing.T) {
	start := time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)
	now := start.Add(45 * time.Second)
	handlers := NewHealthHandlers(
		WithHealthBuildInfo(services.BuildInfo{
			Version:     "0.7.2",
			CommitSHA:   "4f9d21c",
			Environment: "production",
			StartedAt:   start,
		}),
		WithHealthClock(func() time.Time { return now }),
	)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	handlers.Healthz(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var body map[string]any
	decodeHealthBody(t, rr, &body)

	want := map[string]any{
		"status":      "ok",
		"version":     "0.7.2",
		"commitSha":   "4f9d21c",
		"environment": "production",
		"uptime":      "45s",
	}
	for field, expected := range want {
		if body[field] != expected {
			t.Fatalf("%s = %v, want %v", field, body[field], expected)
		}
	}
}

func TestHealthHandlersReadyzSuccess(t *testing.T) {
	now := time.Date(2025, time.June, 1, 8, 1, 0, 0, time.UTC)
	svc := &stubSystemService{
		report: services.SystemHealthReport{
			Status:      domain.HealthStatusOK,
			Version:     "0.7.2",
			CommitSHA:   "4f9d21c",
			Environment: "production",
			Uptime:      time.Minute,
			GeneratedAt: now,
			Checks: map[string]domain.SystemHealthCheck{
				"firestore":     {Status: domain.HealthStatusOK, Latency: 8 * time.Millisecond, CheckedAt: now},
				"secretmanager": {Status: domain.HealthStatusOK, Latency: 12 * time.Millisecond, CheckedAt: now},
			},
		},
	}

	handlers := NewHealthHandlers(
		WithHealthSystemService(svc),
		WithHealthClock(func() time.Time { return now }),
	)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()
	handlers.Readyz(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var body struct {
		Status string `json:"status"`
		Checks map[string]struct {
			Status string `json:"status"`
		} `json:"checks"`
		Details []string `json:"details"`
	}
	decodeHealthBody(t, rr, &body)

	if body.Status != "ok" {
		t.Fatalf("expected status ok, got %s", body.Status)
	}
	if len(body.Details) != 0 {
		t.Fatalf("expected no details, got %v", body.Details)
	}
	for _, name := range []string{"firestore", "secretmanager"} {
		if body.Checks[name].Status != "ok" {
			t.Fatalf("expected %s status ok, got %s", name, body.Checks[name].Status)
		}
	}
}

func TestHealthHandlersReadyzFailure(t *testing.T) {
	now := time.Date(2025, time.June, 1, 8, 1, 0, 0, time.UTC)
	svc := &stubSystemService{
		report: services.SystemHealthReport{
			Status: domain.HealthStatusDegraded,
			Checks: map[string]domain.SystemHealthCheck{
				"pubsub": {Status: domain.HealthStatusDegraded, Error: "publish failed"},
			},
		},
	}

	handlers := NewHealthHandlers(
		WithHealthSystemService(svc),
		WithHealthClock(func() time.Time { return now }),
	)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()
	handlers.Readyz(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}

	var body struct {
		Status  string   `json:"status"`
		Details []string `json:"details"`
	}
	decodeHealthBody(t, rr, &body)

	if body.Status != "degraded" {
		t.Fatalf("expected status degraded, got %s", body.Status)
	}
	if len(body.Details) != 1 || body.Details[0] != "pubsub: publish failed" {
		t.Fatalf("expected details with pubsub failure, got %v", body.Details)
	}
}
