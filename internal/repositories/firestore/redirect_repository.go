package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/loom-field/api/internal/domain"
	pfirestore "github.com/loom-field/api/internal/platform/firestore"
)

const redirectsCollection = "redirects"

type redirectDocument struct {
	Source     string    `firestore:"source"`
	Target     string    `firestore:"target"`
	StatusCode int       `firestore:"statusCode"`
	Automatic  bool      `firestore:"automatic"`
	LinkType   string    `firestore:"linkType,omitempty"`
	LinkID     string    `firestore:"linkId,omitempty"`
	CreatedAt  time.Time `firestore:"createdAt"`
}

func (d redirectDocument) toDomain(id string) domain.URLRedirect {
	return domain.URLRedirect{
		ID:         id,
		Source:     d.Source,
		Target:     d.Target,
		StatusCode: d.StatusCode,
		Automatic:  d.Automatic,
		LinkType:   d.LinkType,
		LinkID:     d.LinkID,
		CreatedAt:  d.CreatedAt,
	}
}

// RedirectRepository implements repositories.RedirectRepository backed by Firestore.
// Each redirect is keyed by a deterministic hash-free document id supplied by
// the caller so duplicate sources collapse onto the same document.
type RedirectRepository struct {
	provider  *pfirestore.Provider
	redirects *pfirestore.BaseRepository[redirectDocument]
}

// NewRedirectRepository constructs a Firestore-backed redirect repository.
func NewRedirectRepository(provider *pfirestore.Provider) (*RedirectRepository, error) {
	if provider == nil {
		return nil, errors.New("redirect repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[redirectDocument](provider, redirectsCollection, nil, nil)
	return &RedirectRepository{
		provider:  provider,
		redirects: base,
	}, nil
}

// Insert persists the redirect. An existing redirect for the same source is
// replaced so the newest mapping always wins.
func (r *RedirectRepository) Insert(ctx context.Context, redirect domain.URLRedirect) (domain.URLRedirect, error) {
	if r == nil || r.provider == nil {
		return domain.URLRedirect{}, errors.New("redirect repository not initialised")
	}
	id := strings.TrimSpace(redirect.ID)
	if id == "" {
		return domain.URLRedirect{}, errors.New("redirect repository: redirect id is required")
	}
	source := strings.TrimSpace(redirect.Source)
	if source == "" {
		return domain.URLRedirect{}, errors.New("redirect repository: source path is required")
	}

	createdAt := redirect.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	doc := redirectDocument{
		Source:     source,
		Target:     strings.TrimSpace(redirect.Target),
		StatusCode: redirect.StatusCode,
		Automatic:  redirect.Automatic,
		LinkType:   redirect.LinkType,
		LinkID:     redirect.LinkID,
		CreatedAt:  createdAt,
	}
	if _, err := r.redirects.Set(ctx, id, doc); err != nil {
		return domain.URLRedirect{}, err
	}
	return doc.toDomain(id), nil
}

// FindBySource resolves the redirect registered for the given source path.
func (r *RedirectRepository) FindBySource(ctx context.Context, source string) (domain.URLRedirect, error) {
	if r == nil || r.provider == nil {
		return domain.URLRedirect{}, errors.New("redirect repository not initialised")
	}
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return domain.URLRedirect{}, pfirestore.WrapError("redirects.find", errors.New("source path is required"))
	}

	docs, err := r.redirects.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("source", "==", trimmed).Limit(1)
	})
	if err != nil {
		return domain.URLRedirect{}, err
	}
	if len(docs) == 0 {
		return domain.URLRedirect{}, pfirestore.WrapError("redirects.find", status.Error(codes.NotFound, fmt.Sprintf("no redirect for %s", trimmed)))
	}
	return docs[0].Data.toDomain(docs[0].ID), nil
}

// DeleteBySource removes every redirect registered for the source path. Absent
// sources are not an error.
func (r *RedirectRepository) DeleteBySource(ctx context.Context, source string) error {
	if r == nil || r.provider == nil {
		return errors.New("redirect repository not initialised")
	}
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return nil
	}

	docs, err := r.redirects.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("source", "==", trimmed)
	})
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if err := r.redirects.Delete(ctx, doc.ID); err != nil {
			return err
		}
	}
	return nil
}
