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

const unitsCollection = "units"

type unitDocument struct {
	Name         string    `firestore:"name"`
	DecimalStock bool      `firestore:"decimalStock"`
	CreatedAt    time.Time `firestore:"createdAt"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
}

func (d unitDocument) toDomain(id string) domain.Unit {
	return domain.Unit{
		ID:           id,
		Name:         d.Name,
		DecimalStock: d.DecimalStock,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// UnitRepository implements repositories.UnitRepository backed by Firestore.
type UnitRepository struct {
	provider *pfirestore.Provider
	units    *pfirestore.BaseRepository[unitDocument]
}

// NewUnitRepository constructs a Firestore-backed unit repository.
func NewUnitRepository(provider *pfirestore.Provider) (*UnitRepository, error) {
	if provider == nil {
		return nil, errors.New("unit repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[unitDocument](provider, unitsCollection, nil, nil)
	return &UnitRepository{
		provider: provider,
		units:    base,
	}, nil
}

// FindByID resolves a shared unit by its identifier.
func (r *UnitRepository) FindByID(ctx context.Context, unitID string) (domain.Unit, error) {
	if r == nil || r.provider == nil {
		return domain.Unit{}, errors.New("unit repository not initialised")
	}
	id := strings.TrimSpace(unitID)
	if id == "" {
		return domain.Unit{}, fmt.Errorf("%w: empty id", repositories.ErrUnitNotFound)
	}

	doc, err := r.units.Get(ctx, id)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return domain.Unit{}, fmt.Errorf("%w: %s", repositories.ErrUnitNotFound, id)
		}
		return domain.Unit{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// List returns every shared unit ordered by name.
func (r *UnitRepository) List(ctx context.Context) ([]domain.Unit, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("unit repository not initialised")
	}

	docs, err := r.units.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("name", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	units := make([]domain.Unit, 0, len(docs))
	for _, doc := range docs {
		units = append(units, doc.Data.toDomain(doc.ID))
	}
	return units, nil
}

// Upsert writes the unit, preserving CreatedAt for existing documents.
func (r *UnitRepository) Upsert(ctx context.Context, unit domain.Unit) (domain.Unit, error) {
	if r == nil || r.provider == nil {
		return domain.Unit{}, errors.New("unit repository not initialised")
	}
	id := strings.TrimSpace(unit.ID)
	if id == "" {
		return domain.Unit{}, errors.New("unit repository: unit id is required")
	}

	now := time.Now().UTC()
	createdAt := unit.CreatedAt
	if createdAt.IsZero() {
		if existing, err := r.units.Get(ctx, id); err == nil {
			createdAt = existing.Data.CreatedAt
		} else {
			createdAt = now
		}
	}

	doc := unitDocument{
		Name:         strings.TrimSpace(unit.Name),
		DecimalStock: unit.DecimalStock,
		CreatedAt:    createdAt,
		UpdatedAt:    now,
	}
	if _, err := r.units.Set(ctx, id, doc); err != nil {
		return domain.Unit{}, err
	}
	return doc.toDomain(id), nil
}
