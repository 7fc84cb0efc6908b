package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"

	pfirestore "github.com/loom-field/api/internal/platform/firestore"
	"github.com/loom-field/api/internal/repositories"
)

// RegistryDeps bundles the collaborators required to build the Firestore-backed
// repository registry. Health is optional; when omitted Readyz reports only the
// checks the caller wires elsewhere.
type RegistryDeps struct {
	Provider *pfirestore.Provider
	Health   repositories.HealthRepository
}

type registry struct {
	provider *pfirestore.Provider

	settings    *SettingsRepository
	units       *UnitRepository
	products    *ProductRepository
	orders      *OrderRepository
	redirects   *RedirectRepository
	stockNotify *StockNotifyRepository
	health      repositories.HealthRepository
}

var _ repositories.Registry = (*registry)(nil)

// NewRegistry constructs every Firestore repository against a shared provider.
func NewRegistry(deps RegistryDeps) (repositories.Registry, error) {
	if deps.Provider == nil {
		return nil, errors.New("registry: firestore provider is required")
	}

	settings, err := NewSettingsRepository(deps.Provider)
	if err != nil {
		return nil, fmt.Errorf("registry: build settings repository: %w", err)
	}
	units, err := NewUnitRepository(deps.Provider)
	if err != nil {
		return nil, fmt.Errorf("registry: build unit repository: %w", err)
	}
	products, err := NewProductRepository(deps.Provider)
	if err != nil {
		return nil, fmt.Errorf("registry: build product repository: %w", err)
	}
	orders, err := NewOrderRepository(deps.Provider)
	if err != nil {
		return nil, fmt.Errorf("registry: build order repository: %w", err)
	}
	redirects, err := NewRedirectRepository(deps.Provider)
	if err != nil {
		return nil, fmt.Errorf("registry: build redirect repository: %w", err)
	}
	stockNotify, err := NewStockNotifyRepository(deps.Provider)
	if err != nil {
		return nil, fmt.Errorf("registry: build stock notify repository: %w", err)
	}

	return &registry{
		provider:    deps.Provider,
		settings:    settings,
		units:       units,
		products:    products,
		orders:      orders,
		redirects:   redirects,
		stockNotify: stockNotify,
		health:      deps.Health,
	}, nil
}

func (r *registry) Close(ctx context.Context) error {
	return r.provider.Close(ctx)
}

func (r *registry) Settings() repositories.SettingsRepository { return r.settings }

func (r *registry) Units() repositories.UnitRepository { return r.units }

func (r *registry) Products() repositories.ProductRepository { return r.products }

func (r *registry) Orders() repositories.OrderRepository { return r.orders }

func (r *registry) Redirects() repositories.RedirectRepository { return r.redirects }

func (r *registry) StockNotify() repositories.StockNotifyRepository { return r.stockNotify }

func (r *registry) Health() repositories.HealthRepository { return r.health }

// RunInTx executes fn inside a Firestore transaction with the provider's
// default retry and timeout behaviour.
func (r *registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.provider.RunTransaction(ctx, func(txCtx context.Context, _ *firestore.Transaction) error {
		return fn(txCtx)
	})
}
