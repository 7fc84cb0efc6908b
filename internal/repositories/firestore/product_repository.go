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

const productsCollection = "products"

type productVariantDocument struct {
	ID            string     `firestore:"id"`
	SKU           string     `firestore:"sku,omitempty"`
	Price         string     `firestore:"price,omitempty"`
	DiscountPrice string     `firestore:"discountPrice,omitempty"`
	DiscountFrom  *time.Time `firestore:"discountFrom,omitempty"`
	DiscountTo    *time.Time `firestore:"discountTo,omitempty"`
	Qty           string     `firestore:"qty,omitempty"`
	Active        bool       `firestore:"active"`
	Default       bool       `firestore:"default"`
	InStock       bool       `firestore:"inStock"`
	Backorder     bool       `firestore:"backorder"`
	MediaIDs      []string   `firestore:"mediaIds,omitempty"`
}

type productDocument struct {
	Name          string                   `firestore:"name"`
	SKU           string                   `firestore:"sku,omitempty"`
	GTIN          string                   `firestore:"gtin,omitempty"`
	Slug          string                   `firestore:"slug"`
	Description   string                   `firestore:"description,omitempty"`
	Price         string                   `firestore:"price,omitempty"`
	DiscountPrice string                   `firestore:"discountPrice,omitempty"`
	DiscountFrom  *time.Time               `firestore:"discountFrom,omitempty"`
	DiscountTo    *time.Time               `firestore:"discountTo,omitempty"`
	Qty           string                   `firestore:"qty,omitempty"`
	InStock       bool                     `firestore:"inStock"`
	Status        string                   `firestore:"status"`
	UnitKind      string                   `firestore:"unitKind,omitempty"`
	UnitID        string                   `firestore:"unitId,omitempty"`
	UnitStep      string                   `firestore:"unitStep,omitempty"`
	Variants      []productVariantDocument `firestore:"variants,omitempty"`
	CategoryIDs   []string                 `firestore:"categoryIds,omitempty"`
	TagIDs        []string                 `firestore:"tagIds,omitempty"`
	CreatedAt     time.Time                `firestore:"createdAt"`
	UpdatedAt     time.Time                `firestore:"updatedAt"`
}

func productToDocument(product domain.Product) productDocument {
	variants := make([]productVariantDocument, 0, len(product.Variants))
	for _, variant := range product.Variants {
		variants = append(variants, productVariantDocument{
			ID:            variant.ID,
			SKU:           variant.SKU,
			Price:         variant.Price,
			DiscountPrice: variant.DiscountPrice,
			DiscountFrom:  variant.DiscountFrom,
			DiscountTo:    variant.DiscountTo,
			Qty:           variant.Qty,
			Active:        variant.Active,
			Default:       variant.Default,
			InStock:       variant.InStock,
			Backorder:     variant.Backorder,
			MediaIDs:      variant.MediaIDs,
		})
	}
	return productDocument{
		Name:          product.Name,
		SKU:           product.SKU,
		GTIN:          product.GTIN,
		Slug:          product.Slug,
		Description:   product.Description,
		Price:         product.Price,
		DiscountPrice: product.DiscountPrice,
		DiscountFrom:  product.DiscountFrom,
		DiscountTo:    product.DiscountTo,
		Qty:           product.Qty,
		InStock:       product.InStock,
		Status:        string(product.Status),
		UnitKind:      string(product.Unit.Kind),
		UnitID:        product.Unit.UnitID,
		UnitStep:      product.Unit.Step,
		Variants:      variants,
		CategoryIDs:   product.CategoryIDs,
		TagIDs:        product.TagIDs,
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}
}

func (d productDocument) toDomain(id string) domain.Product {
	variants := make([]domain.ProductVariant, 0, len(d.Variants))
	for _, variant := range d.Variants {
		variants = append(variants, domain.ProductVariant{
			ID:            variant.ID,
			SKU:           variant.SKU,
			Price:         variant.Price,
			DiscountPrice: variant.DiscountPrice,
			DiscountFrom:  variant.DiscountFrom,
			DiscountTo:    variant.DiscountTo,
			Qty:           variant.Qty,
			Active:        variant.Active,
			Default:       variant.Default,
			InStock:       variant.InStock,
			Backorder:     variant.Backorder,
			MediaIDs:      variant.MediaIDs,
		})
	}
	return domain.Product{
		ID:            id,
		Name:          d.Name,
		SKU:           d.SKU,
		GTIN:          d.GTIN,
		Slug:          d.Slug,
		Description:   d.Description,
		Price:         d.Price,
		DiscountPrice: d.DiscountPrice,
		DiscountFrom:  d.DiscountFrom,
		DiscountTo:    d.DiscountTo,
		Qty:           d.Qty,
		InStock:       d.InStock,
		Status:        domain.ProductStatus(d.Status),
		Unit: domain.UnitConfig{
			Kind:   domain.UnitKind(d.UnitKind),
			UnitID: d.UnitID,
			Step:   d.UnitStep,
		},
		Variants:    variants,
		CategoryIDs: d.CategoryIDs,
		TagIDs:      d.TagIDs,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// ProductRepository implements repositories.ProductRepository backed by Firestore.
type ProductRepository struct {
	provider *pfirestore.Provider
	products *pfirestore.BaseRepository[productDocument]
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[productDocument](provider, productsCollection, nil, nil)
	return &ProductRepository{
		provider: provider,
		products: base,
	}, nil
}

// Insert persists a new product document.
func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) error {
	if r == nil || r.provider == nil {
		return errors.New("product repository not initialised")
	}
	id := strings.TrimSpace(product.ID)
	if id == "" {
		return errors.New("product repository: product id is required")
	}

	_, err := r.products.Set(ctx, id, productToDocument(product))
	return err
}

// Update replaces the product document.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	return r.Insert(ctx, product)
}

// FindByID fetches a product by identifier.
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.provider == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}

	doc, err := r.products.Get(ctx, strings.TrimSpace(productID))
	if err != nil {
		return domain.Product{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// FindBySlug fetches a product by its storefront slug.
func (r *ProductRepository) FindBySlug(ctx context.Context, slug string) (domain.Product, error) {
	if r == nil || r.provider == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return domain.Product{}, pfirestore.WrapError("products.findbyslug", status.Error(codes.NotFound, "slug is required"))
	}

	docs, err := r.products.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("slug", "==", trimmed).Limit(1)
	})
	if err != nil {
		return domain.Product{}, err
	}
	if len(docs) == 0 {
		return domain.Product{}, pfirestore.WrapError("products.findbyslug", status.Error(codes.NotFound, fmt.Sprintf("no product for slug %s", trimmed)))
	}
	return docs[0].Data.toDomain(docs[0].ID), nil
}
