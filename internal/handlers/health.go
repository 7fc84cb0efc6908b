package handlers

import (
	"net/http"
	"sort"
	"time"

	domain "github.com/loom-field/api/internal/domain"
	"github.com/loom-field/api/internal/platform/requestctx"
	"github.com/loom-field/api/internal/services"

	"go.uber.org/zap"
)

// HealthHandlers serves the liveness and readiness endpoints.
type HealthHandlers struct {
	system services.SystemService
	build  services.BuildInfo
	clock  func() time.Time
}

// HealthOption customises the health handlers.
type HealthOption func(*HealthHandlers)

// WithHealthSystemService wires the system service used for readiness probes.
func WithHealthSystemService(system services.SystemService) HealthOption {
	return func(h *HealthHandlers) {
		h.system = system
	}
}

// WithHealthBuildInfo attaches build metadata reported by the liveness endpoint.
func WithHealthBuildInfo(build services.BuildInfo) HealthOption {
	return func(h *HealthHandlers) {
		h.build = build
	}
}

// WithHealthClock overrides the time source, primarily for testing.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// NewHealthHandlers constructs handlers for /healthz and /readyz.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		clock: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.build.StartedAt.IsZero() {
		h.build.StartedAt = h.clock().UTC()
	}
	return h
}

// Healthz reports process liveness without touching dependencies.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock().UTC()
	payload := map[string]any{
		"status":    string(domain.HealthStatusOK),
		"timestamp": now.Format(time.RFC3339),
	}
	if h.build.Version != "" {
		payload["version"] = h.build.Version
	}
	if h.build.CommitSHA != "" {
		payload["commitSha"] = h.build.CommitSHA
	}
	if h.build.Environment != "" {
		payload["environment"] = h.build.Environment
	}
	if !h.build.StartedAt.IsZero() {
		payload["uptime"] = now.Sub(h.build.StartedAt).String()
	}

	writeJSONResponse(w, http.StatusOK, payload)
}

// Readyz collects dependency probes and reports readiness.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.system == nil {
		writeJSONResponse(w, http.StatusOK, map[string]any{"status": string(domain.HealthStatusOK)})
		return
	}

	report, err := h.system.HealthReport(r.Context())
	if err != nil {
		requestctx.Logger(r.Context()).Error("readiness probe failed", zap.Error(err))
		writeJSONResponse(w, http.StatusServiceUnavailable, map[string]any{
			"status":  string(domain.HealthStatusError),
			"details": []string{err.Error()},
		})
		return
	}

	checks := make(map[string]map[string]any, len(report.Checks))
	details := make([]string, 0)
	for name, check := range report.Checks {
		entry := map[string]any{
			"status": string(check.Status),
		}
		if check.Detail != "" {
			entry["detail"] = check.Detail
		}
		if check.Error != "" {
			entry["error"] = check.Error
			details = append(details, name+": "+check.Error)
		}
		if check.Latency > 0 {
			entry["latencyMs"] = check.Latency.Milliseconds()
		}
		checks[name] = entry
	}
	sort.Strings(details)

	payload := map[string]any{
		"status":  string(report.Status),
		"checks":  checks,
		"details": details,
	}
	if report.Version != "" {
		payload["version"] = report.Version
	}
	if report.Uptime > 0 {
		payload["uptime"] = report.Uptime.String()
	}

	status := http.StatusOK
	if report.Status != domain.HealthStatusOK {
		status = http.StatusServiceUnavailable
	}
	writeJSONResponse(w, status, payload)
}
