package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/loom-field/api/internal/domain"
	pfirestore "github.com/loom-field/api/internal/platform/firestore"
	"github.com/loom-field/api/internal/repositories"
)

const stockNotifyCollection = "stockNotifyRequests"

type stockNotifyDocument struct {
	ProductID string     `firestore:"productId"`
	VariantID *string    `firestore:"variantId,omitempty"`
	Email     string     `firestore:"email"`
	SentAt    *time.Time `firestore:"sentAt,omitempty"`
	CreatedAt time.Time  `firestore:"createdAt"`
}

func (d stockNotifyDocument) toDomain(id string) domain.StockNotifyRequest {
	return domain.StockNotifyRequest{
		ID:        id,
		ProductID: d.ProductID,
		VariantID: d.VariantID,
		Email:     d.Email,
		SentAt:    d.SentAt,
		CreatedAt: d.CreatedAt,
	}
}

// StockNotifyRepository implements repositories.StockNotifyRepository backed by Firestore.
type StockNotifyRepository struct {
	provider *pfirestore.Provider
	requests *pfirestore.BaseRepository[stockNotifyDocument]
}

// NewStockNotifyRepository constructs a Firestore-backed stock notify repository.
func NewStockNotifyRepository(provider *pfirestore.Provider) (*StockNotifyRepository, error) {
	if provider == nil {
		return nil, errors.New("stock notify repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[stockNotifyDocument](provider, stockNotifyCollection, nil, nil)
	return &StockNotifyRepository{
		provider: provider,
		requests: base,
	}, nil
}

// Insert persists a new notification request.
func (r *StockNotifyRepository) Insert(ctx context.Context, request domain.StockNotifyRequest) (domain.StockNotifyRequest, error) {
	if r == nil || r.provider == nil {
		return domain.StockNotifyRequest{}, errors.New("stock notify repository not initialised")
	}
	id := strings.TrimSpace(request.ID)
	if id == "" {
		return domain.StockNotifyRequest{}, errors.New("stock notify repository: request id is required")
	}
	if strings.TrimSpace(request.ProductID) == "" {
		return domain.StockNotifyRequest{}, errors.New("stock notify repository: product id is required")
	}
	if strings.TrimSpace(request.Email) == "" {
		return domain.StockNotifyRequest{}, errors.New("stock notify repository: email is required")
	}

	createdAt := request.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	doc := stockNotifyDocument{
		ProductID: strings.TrimSpace(request.ProductID),
		VariantID: request.VariantID,
		Email:     strings.ToLower(strings.TrimSpace(request.Email)),
		SentAt:    request.SentAt,
		CreatedAt: createdAt,
	}
	if _, err := r.requests.Set(ctx, id, doc); err != nil {
		return domain.StockNotifyRequest{}, err
	}
	return doc.toDomain(id), nil
}

// FindPending returns unsent requests for the product, optionally narrowed to a
// single variant. Requests already marked sent never reappear.
func (r *StockNotifyRepository) FindPending(ctx context.Context, productID string, variantID *string) ([]domain.StockNotifyRequest, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("stock notify repository not initialised")
	}
	product := strings.TrimSpace(productID)
	if product == "" {
		return nil, errors.New("stock notify repository: product id is required")
	}

	docs, err := r.requests.Query(ctx, func(q firestore.Query) firestore.Query {
		q = q.Where("productId", "==", product)
		if variantID != nil && strings.TrimSpace(*variantID) != "" {
			q = q.Where("variantId", "==", strings.TrimSpace(*variantID))
		}
		return q.OrderBy("createdAt", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	pending := make([]domain.StockNotifyRequest, 0, len(docs))
	for _, doc := range docs {
		// Firestore cannot filter on a missing field, so the sent check stays client side.
		if doc.Data.SentAt != nil {
			continue
		}
		pending = append(pending, doc.Data.toDomain(doc.ID))
	}
	return pending, nil
}

// MarkSent stamps the request as notified. Requests already stamped return
// ErrNotifyAlreadySent so a retried batch never emails twice.
func (r *StockNotifyRepository) MarkSent(ctx context.Context, requestID string, sentAt time.Time) error {
	if r == nil || r.provider == nil {
		return errors.New("stock notify repository not initialised")
	}
	id := strings.TrimSpace(requestID)
	if id == "" {
		return errors.New("stock notify repository: request id is required")
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.requests.DocumentRef(ctx, id)
		if err != nil {
			return err
		}

		snapshot, err := tx.Get(ref)
		if err != nil {
			return err
		}

		var doc stockNotifyDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return fmt.Errorf("firestore stock notify decode %s: %w", id, err)
		}
		if doc.SentAt != nil {
			return repositories.ErrNotifyAlreadySent
		}

		return tx.Update(ref, []firestore.Update{
			{Path: "sentAt", Value: sentAt.UTC()},
		})
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotifyAlreadySent) {
			return repositories.ErrNotifyAlreadySent
		}
		return pfirestore.WrapError("stocknotify.marksent", err)
	}
	return nil
}
