package idempotency

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultCollection  = "transition_receipts"
	defaultMaxAttempts = 5
)

// FirestoreOption customises the FirestoreStore behaviour.
type FirestoreOption func(*FirestoreStore)

// WithCollection overrides the collection name used to store receipts.
func WithCollection(name string) FirestoreOption {
	return func(store *FirestoreStore) {
		if name != "" {
			store.collection = name
		}
	}
}

// WithMaxAttempts configures the transaction retry attempts.
func WithMaxAttempts(attempts int) FirestoreOption {
	return func(store *FirestoreStore) {
		if attempts > 0 {
			store.maxAttempts = attempts
		}
	}
}

// FirestoreStore implements Store backed by Google Cloud Firestore. All
// replicas of the service share one receipt collection, so a retried
// delivery replays no matter which instance served the first attempt.
type FirestoreStore struct {
	client      *firestore.Client
	collection  string
	maxAttempts int
}

// NewFirestoreStore constructs a Firestore-backed receipt store.
func NewFirestoreStore(client *firestore.Client, opts ...FirestoreOption) *FirestoreStore {
	store := &FirestoreStore{
		client:      client,
		collection:  defaultCollection,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

func (s *FirestoreStore) docRef(key string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(recordID(key))
}

func (s *FirestoreStore) attempts() int {
	if s.maxAttempts <= 0 {
		return 1
	}
	return s.maxAttempts
}

// Reserve claims the key inside a transaction and returns any stored receipt.
func (s *FirestoreStore) Reserve(ctx context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error) {
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	ref := s.docRef(key)

	var result Reservation
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}

		if err != nil {
			// No receipt yet; claim it.
			return s.claim(tx, ref, key, fingerprint, now, ttl, &result)
		}

		var record receiptDoc
		if err := snap.DataTo(&record); err != nil {
			return err
		}
		if record.Fingerprint != fingerprint {
			return ErrFingerprintMismatch
		}
		if expired(record.toRecord(), now) {
			return s.claim(tx, ref, key, fingerprint, now, ttl, &result)
		}
		if record.Status == string(StatusCompleted) {
			result = Reservation{State: ReservationStateCompleted, Record: record.toRecord()}
			return nil
		}
		result = Reservation{State: ReservationStatePending, Record: record.toRecord()}
		return nil
	}, firestore.MaxAttempts(s.attempts()))

	return result, err
}

func (s *FirestoreStore) claim(tx *firestore.Transaction, ref *firestore.DocumentRef, key, fingerprint string, now time.Time, ttl time.Duration, result *Reservation) error {
	record := newPendingRecord(key, fingerprint, now, ttl)
	if err := tx.Set(ref, receiptDocFrom(record)); err != nil {
		return err
	}
	*result = Reservation{State: ReservationStateNew, Record: record}
	return nil
}

// SaveResponse persists the completed HTTP response for the key.
func (s *FirestoreStore) SaveResponse(ctx context.Context, key, fingerprint string, resp Response, now time.Time, ttl time.Duration) error {
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	ref := s.docRef(key)

	headers := sanitizeHeaders(resp.Headers)
	var bodyCopy []byte
	if len(resp.Body) > 0 {
		bodyCopy = append([]byte(nil), resp.Body...)
	}

	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		var record receiptDoc
		switch {
		case err != nil && status.Code(err) != codes.NotFound:
			return err
		case err != nil:
			record = receiptDoc{Key: key, Fingerprint: fingerprint, CreatedAt: now}
		default:
			if err := snap.DataTo(&record); err != nil {
				return err
			}
			if record.Fingerprint != fingerprint {
				return ErrFingerprintMismatch
			}
			if record.CreatedAt.IsZero() {
				record.CreatedAt = now
			}
		}

		record.Status = string(StatusCompleted)
		record.ResponseStatus = resp.Status
		record.ResponseHeaders = headers
		record.ResponseBody = bodyCopy
		record.UpdatedAt = now
		record.ExpiresAt = now.Add(ttl)

		return tx.Set(ref, record)
	}, firestore.MaxAttempts(s.attempts()))
}

// CleanupExpired removes expired receipts up to the provided limit.
func (s *FirestoreStore) CleanupExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	now = now.UTC()
	if limit <= 0 {
		limit = 100
	}

	query := s.client.Collection(s.collection).Where("expires_at", "<=", now).Limit(limit)
	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}

	batch := s.client.Batch()
	for _, doc := range docs {
		batch.Delete(doc.Ref)
	}
	if _, err := batch.Commit(ctx); err != nil {
		return 0, err
	}
	return len(docs), nil
}

// Release removes the reservation so the delivery can be retried.
func (s *FirestoreStore) Release(ctx context.Context, key, _ string) error {
	_, err := s.docRef(key).Delete(ctx)
	if status.Code(err) == codes.NotFound {
		return nil
	}
	return err
}

type receiptDoc struct {
	Key             string              `firestore:"key"`
	Fingerprint     string              `firestore:"fingerprint"`
	Status          string              `firestore:"status"`
	ResponseStatus  int                 `firestore:"response_status"`
	ResponseHeaders map[string][]string `firestore:"response_headers"`
	ResponseBody    []byte              `firestore:"response_body"`
	CreatedAt       time.Time           `firestore:"created_at"`
	UpdatedAt       time.Time           `firestore:"updated_at"`
	ExpiresAt       time.Time           `firestore:"expires_at"`
}

func receiptDocFrom(r Record) receiptDoc {
	return receiptDoc{
		Key:             r.Key,
		Fingerprint:     r.Fingerprint,
		Status:          string(r.Status),
		ResponseStatus:  r.ResponseStatus,
		ResponseHeaders: r.ResponseHeaders,
		ResponseBody:    r.ResponseBody,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		ExpiresAt:       r.ExpiresAt,
	}
}

func (r receiptDoc) toRecord() Record {
	return Record{
		Key:             r.Key,
		Fingerprint:     r.Fingerprint,
		Status:          Status(r.Status),
		ResponseStatus:  r.ResponseStatus,
		ResponseHeaders: r.ResponseHeaders,
		ResponseBody:    r.ResponseBody,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		ExpiresAt:       r.ExpiresAt,
	}
}
