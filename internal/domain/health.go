package domain

import "time"

// HealthStatus summarises the state of a dependency probe.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "ok"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusError    HealthStatus = "error"
)

// SystemHealthCheck captures the outcome of a single dependency probe.
type SystemHealthCheck struct {
	Status    HealthStatus
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport aggregates dependency probes into an overall readiness verdict.
type SystemHealthReport struct {
	Status      HealthStatus
	Checks      map[string]SystemHealthCheck
	GeneratedAt time.Time
	Version     string
	CommitSHA   string
	Environment string
	Uptime      time.Duration
}
