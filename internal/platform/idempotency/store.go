// Package idempotency deduplicates retried deliveries to the internal
// transition endpoints. A delivery reserves its key before side effects run;
// a completed delivery stores the response so retries replay it instead of
// dispatching the side effects again.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"
)

// Status represents the lifecycle state of a stored delivery receipt.
type Status string

const (
	// DefaultTTL is how long receipts are retained before cleanup.
	DefaultTTL = 24 * time.Hour
	// StatusPending marks a key that is reserved while its delivery is still processing.
	StatusPending Status = "pending"
	// StatusCompleted marks a key whose response has been stored for replay.
	StatusCompleted Status = "completed"
)

// ReservationState describes the outcome of attempting to reserve a key.
type ReservationState int

const (
	// ReservationStateNew means the key was free and the caller may continue processing.
	ReservationStateNew ReservationState = iota
	// ReservationStateCompleted means a previous response was found and should be replayed.
	ReservationStateCompleted
	// ReservationStatePending means another delivery is currently processing this key.
	ReservationStatePending
)

// Reservation is the result of reserving a key, including the stored receipt when one exists.
type Reservation struct {
	State  ReservationState
	Record Record
}

// Record is the persisted receipt for one delivery key.
type Record struct {
	Key             string
	Fingerprint     string
	Status          Status
	ResponseStatus  int
	ResponseHeaders map[string][]string
	ResponseBody    []byte
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ExpiresAt       time.Time
}

// Response is the HTTP response stored for future replays.
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// Store persists reservations and delivery receipts.
type Store interface {
	Reserve(ctx context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error)
	SaveResponse(ctx context.Context, key, fingerprint string, resp Response, now time.Time, ttl time.Duration) error
	Release(ctx context.Context, key, fingerprint string) error
	CleanupExpired(ctx context.Context, now time.Time, limit int) (int, error)
}

// ErrFingerprintMismatch is returned when a key is reused with a different request fingerprint.
var ErrFingerprintMismatch = errors.New("idempotency: key reserved for different request fingerprint")

// recordID derives the storage document ID for a delivery key. Keys arrive
// from external delivery systems and may contain characters that are not
// valid document IDs, so the key is hashed rather than used verbatim.
func recordID(key string) string {
	return sha256Hex([]byte(strings.TrimSpace(key)))
}

func newPendingRecord(key, fingerprint string, now time.Time, ttl time.Duration) Record {
	return Record{
		Key:         key,
		Fingerprint: fingerprint,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

func expired(r Record, now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// sanitizeHeaders copies response headers for storage, dropping hop-by-hop
// and per-response headers that must not be replayed.
func sanitizeHeaders(header http.Header) map[string][]string {
	if len(header) == 0 {
		return nil
	}

	filtered := make(map[string][]string, len(header))
	for name, values := range header {
		canonical := http.CanonicalHeaderKey(name)
		if shouldOmitHeader(canonical) {
			continue
		}
		filtered[canonical] = append([]string(nil), values...)
	}
	if len(filtered) == 0 {
		return nil
	}
	return filtered
}

func shouldOmitHeader(name string) bool {
	switch strings.ToLower(name) {
	case "content-length", "date", "connection", "keep-alive", "proxy-authenticate", "proxy-authorization", "te", "trailers", "transfer-encoding", "upgrade":
		return true
	default:
		return false
	}
}

func headersFromRecord(values map[string][]string) http.Header {
	header := make(http.Header, len(values))
	for name, vals := range values {
		header[name] = append([]string(nil), vals...)
	}
	return header
}
