package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	domain "github.com/loom-field/api/internal/domain"
)

const defaultDependencyTimeout = 1500 * time.Millisecond

// DependencyCheck probes one backing service the storefront depends on, such
// as Firestore, the catalog event topic, or Secret Manager.
type DependencyCheck struct {
	Name    string
	Timeout time.Duration
	Check   func(context.Context) error
}

// DependencyHealthOption customises the behaviour of the dependency-backed health repository.
type DependencyHealthOption func(*dependencyHealthRepository)

// WithDependencyTimeout overrides the default timeout applied when a check omits its own timeout.
func WithDependencyTimeout(timeout time.Duration) DependencyHealthOption {
	return func(repo *dependencyHealthRepository) {
		if timeout > 0 {
			repo.defaultTimeout = timeout
		}
	}
}

// WithDependencyClock injects a custom clock primarily for tests.
func WithDependencyClock(clock func() time.Time) DependencyHealthOption {
	return func(repo *dependencyHealthRepository) {
		if clock != nil {
			repo.now = clock
		}
	}
}

type dependencyHealthRepository struct {
	checks         []DependencyCheck
	defaultTimeout time.Duration
	now            func() time.Time
}

var _ HealthRepository = (*dependencyHealthRepository)(nil)

// NewDependencyHealthRepository constructs a HealthRepository that evaluates
// the provided check set concurrently on every Collect. Checks are validated
// here so a misconfigured probe fails at wiring time, not during readiness.
func NewDependencyHealthRepository(checks []DependencyCheck, opts ...DependencyHealthOption) (HealthRepository, error) {
	if len(checks) == 0 {
		return nil, errors.New("health repository: at least one dependency check is required")
	}
	for _, check := range checks {
		if strings.TrimSpace(check.Name) == "" {
			return nil, errors.New("health repository: dependency check missing name")
		}
		if check.Check == nil {
			return nil, fmt.Errorf("health repository: dependency %s missing check function", check.Name)
		}
	}

	repo := &dependencyHealthRepository{
		checks:         append([]DependencyCheck(nil), checks...),
		defaultTimeout: defaultDependencyTimeout,
		now:            time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}

	return repo, nil
}

func (r *dependencyHealthRepository) Collect(ctx context.Context) (domain.SystemHealthReport, error) {
	if ctx == nil {
		return domain.SystemHealthReport{}, errors.New("health repository: context is required")
	}

	results := make(map[string]domain.SystemHealthCheck, len(r.checks))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	wg.Add(len(r.checks))
	for _, check := range r.checks {
		check := check
		go func() {
			defer wg.Done()
			outcome := r.probe(ctx, check)
			mu.Lock()
			results[check.Name] = outcome
			mu.Unlock()
		}()
	}
	wg.Wait()

	return domain.SystemHealthReport{
		Status:      overallStatus(results),
		Checks:      results,
		GeneratedAt: r.now(),
	}, nil
}

func (r *dependencyHealthRepository) probe(ctx context.Context, check DependencyCheck) domain.SystemHealthCheck {
	timeout := check.Timeout
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := r.now()
	err := check.Check(checkCtx)
	end := r.now()

	if err == nil && checkCtx.Err() != nil {
		// Timed out without returning an error.
		err = checkCtx.Err()
	}

	status, detail := classifyProbe(err)
	outcome := domain.SystemHealthCheck{
		Status:    status,
		Detail:    detail,
		Latency:   end.Sub(start),
		CheckedAt: end,
	}
	if err != nil {
		outcome.Error = err.Error()
	}
	return outcome
}

// classifyProbe maps a probe error to a readiness status. Cancellation and
// timeouts mean the dependency is unreachable; any other failure is treated
// as degraded so a flaky dependency does not flip readiness outright.
func classifyProbe(err error) (domain.HealthStatus, string) {
	switch {
	case err == nil:
		return domain.HealthStatusOK, "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return domain.HealthStatusError, "timeout"
	case errors.Is(err, context.Canceled):
		return domain.HealthStatusError, "cancelled"
	default:
		return domain.HealthStatusDegraded, err.Error()
	}
}

func overallStatus(results map[string]domain.SystemHealthCheck) domain.HealthStatus {
	status := domain.HealthStatusOK
	for _, result := range results {
		switch result.Status {
		case domain.HealthStatusError:
			return domain.HealthStatusError
		case domain.HealthStatusDegraded:
			status = domain.HealthStatusDegraded
		}
	}
	return status
}
