package secrets

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultFallbackPath = ".secrets.local"
	metricNamespace     = "github.com/loom-field/api/internal/platform/secrets"
)

var secretManagerClientFactory = func(ctx context.Context, opts ...option.ClientOption) (*secretmanager.Client, error) {
	return secretmanager.NewClient(ctx, opts...)
}

// Fetcher resolves secret:// references against Google Secret Manager. Values
// are cached for the process lifetime; store credentials such as the WhatsApp
// token rotate rarely enough that a restart picks up new versions. When Secret
// Manager is unreachable or access is denied, a local key=value file stands in
// so the service can run without cloud credentials.
type Fetcher struct {
	client     secretManagerClient
	ownsClient bool

	logger *zap.Logger

	defaultProjID string

	fallbackPath string
	fallbackOnce sync.Once
	fallbackVals map[string]string
	fallbackErr  error

	mu    sync.RWMutex
	cache map[string]string

	latency          metric.Float64Histogram
	latencyEnabled   bool
	cacheHits        metric.Int64Counter
	cacheHitsEnabled bool
}

type secretManagerClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

type fetcherConfig struct {
	logger       *zap.Logger
	defaultProj  string
	fallbackPath string
	meter        metric.Meter
	client       secretManagerClient
	clientOpts   []option.ClientOption
}

// Option customises Fetcher construction.
type Option func(*fetcherConfig)

// WithLogger sets the logger used for diagnostic output.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *fetcherConfig) {
		cfg.logger = logger
	}
}

// WithDefaultProject sets the project ID used when a reference carries no
// project query parameter.
func WithDefaultProject(projectID string) Option {
	return func(cfg *fetcherConfig) {
		cfg.defaultProj = strings.TrimSpace(projectID)
	}
}

// WithFallbackFile overrides the path to the local fallback secrets file.
func WithFallbackFile(path string) Option {
	return func(cfg *fetcherConfig) {
		cfg.fallbackPath = strings.TrimSpace(path)
	}
}

// WithMeter injects a custom OpenTelemetry meter.
func WithMeter(m metric.Meter) Option {
	return func(cfg *fetcherConfig) {
		cfg.meter = m
	}
}

// WithSecretManagerClient injects a preconfigured Secret Manager client
// (primarily for tests).
func WithSecretManagerClient(client secretManagerClient) Option {
	return func(cfg *fetcherConfig) {
		cfg.client = client
	}
}

// WithClientOptions forwards Cloud client options when constructing the Secret
// Manager client.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(cfg *fetcherConfig) {
		cfg.clientOpts = append(cfg.clientOpts, opts...)
	}
}

// NewFetcher builds a Fetcher with caching, fetch metrics, and local fallback
// support. A missing Secret Manager client is not fatal; the fetcher then
// serves from the fallback file only.
func NewFetcher(ctx context.Context, opts ...Option) (*Fetcher, error) {
	cfg := fetcherConfig{
		logger:       zap.NewNop(),
		fallbackPath: defaultFallbackPath,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	meter := cfg.meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(metricNamespace)
	}

	latency, latencyErr := meter.Float64Histogram(
		"secrets.fetch.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency in milliseconds for secret fetch attempts"),
	)
	if latencyErr != nil {
		cfg.logger.Warn("secrets: unable to register latency metric", zap.Error(latencyErr))
	}

	cacheHits, cacheErr := meter.Int64Counter(
		"secrets.fetch.cache_hits",
		metric.WithDescription("Count of cache hits when resolving secrets"),
	)
	if cacheErr != nil {
		cfg.logger.Warn("secrets: unable to register cache hit metric", zap.Error(cacheErr))
	}

	f := &Fetcher{
		logger:           cfg.logger,
		defaultProjID:    cfg.defaultProj,
		fallbackPath:     cfg.fallbackPath,
		cache:            make(map[string]string),
		latency:          latency,
		latencyEnabled:   latencyErr == nil,
		cacheHits:        cacheHits,
		cacheHitsEnabled: cacheErr == nil,
	}

	if cfg.client != nil {
		f.client = cfg.client
	} else {
		client, err := secretManagerClientFactory(ctx, cfg.clientOpts...)
		if err != nil {
			cfg.logger.Warn("secrets: secret manager client unavailable; operating in fallback mode", zap.Error(err))
		} else {
			f.client = client
			f.ownsClient = true
		}
	}

	return f, nil
}

// Close releases the underlying Secret Manager client when the fetcher owns it.
func (f *Fetcher) Close() error {
	if f.ownsClient && f.client != nil {
		return f.client.Close()
	}
	return nil
}

// Resolve retrieves the secret value for the supplied reference, consulting
// the cache first and the local fallback file when remote access fails for an
// availability or permission reason. NotFound is surfaced to the caller; a
// missing secret is a configuration error, not an outage.
func (f *Fetcher) Resolve(ctx context.Context, ref string) (string, error) {
	start := time.Now()
	parsed, err := parseReference(ref)
	if err != nil {
		return "", err
	}

	key := cacheKey(parsed.Canonical, parsed.Version)

	if value, ok := f.lookupCache(key); ok {
		f.recordCacheHit(ctx)
		f.recordLatency(ctx, time.Since(start), "cache", nil)
		return value, nil
	}

	projectID := f.projectID(parsed)
	remoteReady := projectID != "" && f.client != nil

	if remoteReady {
		value, fetchErr := f.fetchRemote(ctx, projectID, parsed.Secret, parsed.Version)
		if fetchErr == nil {
			f.storeCache(key, value)
			f.recordLatency(ctx, time.Since(start), "remote", nil)
			return value, nil
		}

		if !isFallbackError(fetchErr) {
			f.recordLatency(ctx, time.Since(start), "error", fetchErr)
			return "", fmt.Errorf("secrets: fetch failed for %s: %w", parsed.Canonical, fetchErr)
		}

		f.logger.Debug("secrets: falling back to local secrets", zap.String("ref", parsed.Canonical), zap.Error(fetchErr))
	}

	value, ok := f.lookupFallback(parsed)
	if !ok {
		err := fmt.Errorf("secrets: fallback value not found for %s", parsed.Canonical)
		f.recordLatency(ctx, time.Since(start), "error", err)
		return "", err
	}

	f.storeCache(key, value)
	f.recordLatency(ctx, time.Since(start), "fallback", nil)
	return value, nil
}

func (f *Fetcher) lookupCache(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	value, ok := f.cache[key]
	return value, ok
}

func (f *Fetcher) storeCache(key, value string) {
	f.mu.Lock()
	f.cache[key] = value
	f.mu.Unlock()
}

func (f *Fetcher) fetchRemote(ctx context.Context, projectID, secretName, version string) (string, error) {
	resourceName := fmt.Sprintf("projects/%s/secrets/%s/versions/%s", projectID, secretName, version)
	resp, err := f.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: resourceName})
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Payload == nil {
		return "", fmt.Errorf("secret manager returned empty payload for %s", resourceName)
	}
	return string(resp.Payload.GetData()), nil
}

func (f *Fetcher) projectID(ref parsedReference) string {
	if ref.ProjectOverride != "" {
		return ref.ProjectOverride
	}
	return f.defaultProjID
}

func (f *Fetcher) lookupFallback(ref parsedReference) (string, bool) {
	f.loadFallback()

	if f.fallbackErr != nil {
		f.logger.Debug("secrets: fallback load error", zap.Error(f.fallbackErr))
		return "", false
	}

	if val, ok := f.fallbackVals[cacheKey(ref.Canonical, ref.Version)]; ok {
		return val, true
	}
	val, ok := f.fallbackVals[ref.Canonical]
	return val, ok
}

// loadFallback reads the key=value fallback file once. Keys are secret://
// references; lines starting with # and malformed lines are skipped.
func (f *Fetcher) loadFallback() {
	f.fallbackOnce.Do(func() {
		f.fallbackVals = map[string]string{}

		path := strings.TrimSpace(f.fallbackPath)
		if path == "" {
			return
		}

		absPath, err := filepath.Abs(path)
		if err != nil {
			absPath = path
		}

		file, err := os.Open(absPath)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				f.fallbackErr = fmt.Errorf("secrets: unable to open fallback file %s: %w", absPath, err)
			}
			return
		}
		defer file.Close()

		values := make(map[string]string)
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			if key == "" {
				continue
			}
			if parsed, err := parseReference(key); err == nil {
				values[parsed.Canonical] = value
				values[cacheKey(parsed.Canonical, parsed.Version)] = value
			} else {
				values[key] = value
			}
		}
		if err := scanner.Err(); err != nil {
			f.fallbackErr = fmt.Errorf("secrets: failed reading %s: %w", absPath, err)
		}
		f.fallbackVals = values
	})
}

func (f *Fetcher) recordLatency(ctx context.Context, d time.Duration, source string, err error) {
	if !f.latencyEnabled {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("source", source),
	}
	if err != nil {
		attrs = append(attrs, attribute.String("error", err.Error()))
	}
	f.latency.Record(ctx, float64(d)/float64(time.Millisecond), metric.WithAttributes(attrs...))
}

func (f *Fetcher) recordCacheHit(ctx context.Context) {
	if !f.cacheHitsEnabled {
		return
	}
	f.cacheHits.Add(ctx, 1)
}

type parsedReference struct {
	Canonical       string
	Secret          string
	Version         string
	ProjectOverride string
}

// parseReference parses secret://<name>[?version=N][&project=ID]. The version
// defaults to latest.
func parseReference(ref string) (parsedReference, error) {
	if strings.TrimSpace(ref) == "" {
		return parsedReference{}, errors.New("secrets: empty reference")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return parsedReference{}, fmt.Errorf("secrets: invalid reference %q: %w", ref, err)
	}
	if u.Scheme != "secret" {
		return parsedReference{}, fmt.Errorf("secrets: unsupported scheme %q", u.Scheme)
	}
	secret := strings.Trim(strings.TrimPrefix(u.Host+u.Path, "/"), "/")
	if secret == "" {
		return parsedReference{}, fmt.Errorf("secrets: missing secret name in %q", ref)
	}

	canonical := *u
	canonical.RawQuery = ""
	canonical.Fragment = ""

	values := u.Query()
	version := strings.TrimSpace(values.Get("version"))
	if version == "" {
		version = "latest"
	}

	return parsedReference{
		Canonical:       canonical.String(),
		Secret:          secret,
		Version:         version,
		ProjectOverride: strings.TrimSpace(values.Get("project")),
	}, nil
}

func cacheKey(canonical, version string) string {
	return canonical + "#" + version
}

func isFallbackError(err error) bool {
	if err == nil {
		return false
	}
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated, codes.Unavailable, codes.DeadlineExceeded:
		return true
	default:
		return false
	}
}
