package idempotency

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultHeaderName = "Idempotency-Key"
	replayHeaderName  = "X-Idempotent-Replay"
)

// Logger abstracts the logging dependency used inside the middleware.
type Logger interface {
	Printf(format string, args ...any)
}

type clockFunc func() time.Time

type middlewareConfig struct {
	headerName string
	ttl        time.Duration
	methods    map[string]struct{}
	clock      clockFunc
	logger     Logger
}

// MiddlewareOption customises middleware behaviour.
type MiddlewareOption func(*middlewareConfig)

// WithHeader overrides the header name used to extract the idempotency key.
func WithHeader(name string) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		name = strings.TrimSpace(name)
		if name != "" {
			cfg.headerName = name
		}
	}
}

// WithTTL configures how long completed delivery receipts are retained.
func WithTTL(ttl time.Duration) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if ttl > 0 {
			cfg.ttl = ttl
		}
	}
}

// WithMethods restricts the HTTP methods guarded by the middleware.
func WithMethods(methods ...string) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if len(methods) == 0 {
			return
		}
		cfg.methods = make(map[string]struct{}, len(methods))
		for _, method := range methods {
			method = strings.ToUpper(strings.TrimSpace(method))
			if method == "" {
				continue
			}
			cfg.methods[method] = struct{}{}
		}
	}
}

// WithLogger injects a logger for background persistence errors.
func WithLogger(logger Logger) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		cfg.logger = logger
	}
}

// WithClock overrides the time source, primarily for testing.
func WithClock(clock clockFunc) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if clock != nil {
			cfg.clock = clock
		}
	}
}

func mutatingMethods() map[string]struct{} {
	return map[string]struct{}{
		http.MethodPost:   {},
		http.MethodPut:    {},
		http.MethodPatch:  {},
		http.MethodDelete: {},
	}
}

// guard holds the resolved configuration and runs the reserve, execute, and
// persist cycle for a single guarded request.
type guard struct {
	store Store
	cfg   middlewareConfig
}

// Middleware constructs an HTTP middleware that deduplicates retried
// deliveries: the first request under a key runs the handler and records the
// response, retries with the same payload replay it, retries with a different
// payload are rejected with a conflict.
func Middleware(store Store, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if store == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	cfg := middlewareConfig{
		headerName: defaultHeaderName,
		ttl:        DefaultTTL,
		methods:    mutatingMethods(),
		clock:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.ttl <= 0 {
		cfg.ttl = DefaultTTL
	}
	if len(cfg.methods) == 0 {
		cfg.methods = mutatingMethods()
	}
	if cfg.clock == nil {
		cfg.clock = time.Now
	}

	g := guard{store: store, cfg: cfg}

	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {})
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := g.cfg.methods[r.Method]; !ok {
				next.ServeHTTP(w, r)
				return
			}
			g.handle(w, r, next)
		})
	}
}

func (g guard) handle(w http.ResponseWriter, r *http.Request, next http.Handler) {
	key := strings.TrimSpace(r.Header.Get(g.cfg.headerName))
	if key == "" {
		writeJSONError(w, http.StatusBadRequest, "idempotency_key_required", "missing idempotency key header")
		return
	}

	body, err := readAndReplayBody(r)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "idempotency_read_body_failed", "unable to read request body")
		return
	}
	fingerprint := requestFingerprint(r, body)

	reservation, err := g.store.Reserve(r.Context(), key, fingerprint, g.cfg.clock().UTC(), g.cfg.ttl)
	if err != nil {
		if errors.Is(err, ErrFingerprintMismatch) {
			writeJSONError(w, http.StatusConflict, "idempotency_key_conflict", "idempotency key already used for a different request")
			return
		}
		g.logf("idempotency: store error: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "idempotency_store_error", "unable to process idempotency key")
		return
	}

	switch reservation.State {
	case ReservationStateCompleted:
		replayRecord(w, reservation.Record)
		return
	case ReservationStatePending:
		writeJSONError(w, http.StatusConflict, "idempotency_in_progress", "another request is processing this idempotency key")
		return
	case ReservationStateNew:
	default:
		writeJSONError(w, http.StatusInternalServerError, "idempotency_unknown_state", "unexpected idempotency state")
		return
	}

	buffered := &bufferedWriter{dst: w, header: make(http.Header)}
	next.ServeHTTP(buffered, r)

	response := Response{
		Status:  buffered.status(),
		Headers: buffered.headerSnapshot(),
		Body:    buffered.bodyBytes(),
	}
	if err := g.store.SaveResponse(r.Context(), key, fingerprint, response, g.cfg.clock().UTC(), g.cfg.ttl); err != nil {
		g.logf("idempotency: failed to persist response for key %s: %v", key, err)
		if releaseErr := g.store.Release(r.Context(), key, fingerprint); releaseErr != nil {
			g.logf("idempotency: failed to release key %s after save failure: %v", key, releaseErr)
		}
		writeJSONError(w, http.StatusInternalServerError, "idempotency_store_error", "unable to persist idempotency state")
		return
	}

	if err := buffered.flush(); err != nil {
		g.logf("idempotency: failed to flush response for key %s: %v", key, err)
	}
}

func (g guard) logf(format string, args ...any) {
	if g.cfg.logger != nil {
		g.cfg.logger.Printf(format, args...)
	}
}

// readAndReplayBody drains the request body and restores it so the downstream
// handler can read it again.
func readAndReplayBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if err := r.Body.Close(); err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(data))
	return data, nil
}

// requestFingerprint hashes the parts of the request that must match for a
// retry to count as the same delivery.
func requestFingerprint(r *http.Request, body []byte) string {
	bodyDigest := ""
	if len(body) > 0 {
		bodyDigest = sha256Hex(body)
	}
	parts := []string{
		strings.ToUpper(r.Method),
		r.URL.Path,
		r.URL.RawQuery,
		r.Host,
		r.Header.Get("Content-Type"),
		bodyDigest,
	}
	return sha256Hex([]byte(strings.Join(parts, "|")))
}

// replayRecord writes the recorded response of a completed delivery, marking
// it so callers can distinguish a replay from a fresh execution.
func replayRecord(w http.ResponseWriter, record Record) {
	dst := w.Header()
	for key := range dst {
		dst.Del(key)
	}
	for key, values := range headersFromRecord(record.ResponseHeaders) {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
	dst.Set(replayHeaderName, "true")

	status := record.ResponseStatus
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(record.ResponseBody) > 0 {
		_, _ = w.Write(record.ResponseBody)
	}
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":   code,
		"message": message,
	})
}

// bufferedWriter captures the handler's response so it can be persisted
// before anything reaches the client. Nothing is written to the underlying
// writer until flush.
type bufferedWriter struct {
	dst    http.ResponseWriter
	header http.Header
	code   int
	buf    bytes.Buffer
}

func (b *bufferedWriter) Header() http.Header {
	return b.header
}

func (b *bufferedWriter) WriteHeader(status int) {
	if status <= 0 {
		status = http.StatusOK
	}
	b.code = status
}

func (b *bufferedWriter) Write(data []byte) (int, error) {
	if b.code == 0 {
		b.code = http.StatusOK
	}
	return b.buf.Write(data)
}

func (b *bufferedWriter) status() int {
	if b.code == 0 {
		return http.StatusOK
	}
	return b.code
}

func (b *bufferedWriter) bodyBytes() []byte {
	if b.buf.Len() == 0 {
		return nil
	}
	return b.buf.Bytes()
}

func (b *bufferedWriter) headerSnapshot() http.Header {
	snapshot := make(http.Header, len(b.header))
	for key, values := range b.header {
		snapshot[key] = append([]string(nil), values...)
	}
	return snapshot
}

func (b *bufferedWriter) flush() error {
	dst := b.dst.Header()
	for key := range dst {
		dst.Del(key)
	}
	for key, values := range b.header {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
	b.dst.WriteHeader(b.status())
	if b.buf.Len() == 0 {
		return nil
	}
	_, err := b.dst.Write(b.buf.Bytes())
	return err
}
