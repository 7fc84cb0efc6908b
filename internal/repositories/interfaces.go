package repositories

import (
	"context"
	"time"

	domain "github.com/loom-field/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Settings() SettingsRepository
	Units() UnitRepository
	Products() ProductRepository
	Orders() OrderRepository
	Redirects() RedirectRepository
	StockNotify() StockNotifyRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SettingsRepository reads storefront configuration entries by key.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (domain.SettingValue, error)
	// GetAll fetches multiple keys in a single round trip. Missing keys come
	// back with Exists false rather than an error.
	GetAll(ctx context.Context, keys []string) (map[string]domain.SettingValue, error)
	Set(ctx context.Context, key string, raw string) error
}

// UnitRepository stores shared measurement units referenced by products.
type UnitRepository interface {
	FindByID(ctx context.Context, unitID string) (domain.Unit, error)
	List(ctx context.Context) ([]domain.Unit, error)
	Upsert(ctx context.Context, unit domain.Unit) (domain.Unit, error)
}

// ProductRepository persists catalog products and their embedded variants.
type ProductRepository interface {
	Insert(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	FindBySlug(ctx context.Context, slug string) (domain.Product, error)
}

// OrderRepository persists order headers consumed by the notification pipeline.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
}

// RedirectRepository stores storefront URL redirects.
type RedirectRepository interface {
	Insert(ctx context.Context, redirect domain.URLRedirect) (domain.URLRedirect, error)
	FindBySource(ctx context.Context, source string) (domain.URLRedirect, error)
	// DeleteBySource removes any redirect registered for the given source path.
	// Absent sources are not an error.
	DeleteBySource(ctx context.Context, source string) error
}

// StockNotifyRepository stores back-in-stock notification requests.
type StockNotifyRepository interface {
	Insert(ctx context.Context, request domain.StockNotifyRequest) (domain.StockNotifyRequest, error)
	// FindPending returns unsent requests for the product, optionally narrowed
	// to a single variant.
	FindPending(ctx context.Context, productID string, variantID *string) ([]domain.StockNotifyRequest, error)
	MarkSent(ctx context.Context, requestID string, sentAt time.Time) error
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
