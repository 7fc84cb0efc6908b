package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/loom-field/api/internal/domain"
	"github.com/loom-field/api/internal/repositories"
)

const (
	productPathPrefix = "/urun/"

	redirectIDPrefix = "rd_"

	linkTypeProduct = "product"

	eventProductSaved   = "catalog.product.saved"
	eventProductDeleted = "catalog.product.deleted"
	eventOrderSaved     = "orders.order.saved"
)

// transitionHandler is one side effect invoked after a committed transition.
// Handlers receive the previous and new state and report failures for logging
// only; the dispatcher swallows them.
type transitionHandler[T any] struct {
	name string
	run  func(ctx context.Context, previous *T, current T) error
}

// LifecycleDispatcherDeps bundles the collaborators required to construct a
// lifecycle dispatcher.
type LifecycleDispatcherDeps struct {
	Redirects   repositories.RedirectRepository
	Stock       StockNotifier
	Orders      OrderNotifier
	Events      CatalogEventPublisher
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type lifecycleDispatcher struct {
	redirects repositories.RedirectRepository
	stock     StockNotifier
	orders    OrderNotifier
	events    CatalogEventPublisher
	clock     func() time.Time
	newID     func() string
	logger    func(context.Context, string, map[string]any)

	productSaved   []transitionHandler[Product]
	productDeleted []transitionHandler[Product]
	orderSaved     []transitionHandler[Order]
}

// NewLifecycleDispatcher wires dependencies into a concrete LifecycleDispatcher.
// Handler order is fixed: redirects before notifications so a storefront URL
// never 404s while mails are still being sent.
func NewLifecycleDispatcher(deps LifecycleDispatcherDeps) (LifecycleDispatcher, error) {
	if deps.Redirects == nil {
		return nil, errors.New("lifecycle dispatcher: redirect repository is required")
	}
	if deps.Stock == nil {
		return nil, errors.New("lifecycle dispatcher: stock notifier is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("lifecycle dispatcher: order notifier is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	d := &lifecycleDispatcher{
		redirects: deps.Redirects,
		stock:     deps.Stock,
		orders:    deps.Orders,
		events:    deps.Events,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}

	d.productSaved = []transitionHandler[Product]{
		{name: "slug_redirect", run: d.handleSlugChanged},
		{name: "stock_replenished", run: d.handleStockReplenished},
	}
	d.productDeleted = []transitionHandler[Product]{
		{name: "delete_redirect", run: d.handleProductDeleted},
	}
	d.orderSaved = []transitionHandler[Order]{
		{name: "order_notification", run: d.handleOrderSaved},
	}

	return d, nil
}

// ProductSaved runs the product post-commit handlers in order. Failures are
// logged and swallowed so a side effect can never abort the committing
// transition.
func (d *lifecycleDispatcher) ProductSaved(ctx context.Context, previous *Product, current Product) {
	runHandlers(ctx, d.logger, "product", current.ID, d.productSaved, previous, current)
	d.publish(ctx, eventProductSaved, "product/"+current.ID, map[string]any{
		"slug":   current.Slug,
		"status": string(current.Status),
	})
}

// ProductDeleted runs the product deletion handlers in order.
func (d *lifecycleDispatcher) ProductDeleted(ctx context.Context, deleted Product) {
	runHandlers(ctx, d.logger, "product", deleted.ID, d.productDeleted, nil, deleted)
	d.publish(ctx, eventProductDeleted, "product/"+deleted.ID, map[string]any{
		"slug": deleted.Slug,
	})
}

// OrderSaved runs the order post-commit handlers in order. previousStatus is
// nil for a freshly created order.
func (d *lifecycleDispatcher) OrderSaved(ctx context.Context, previousStatus *OrderStatus, order Order) {
	var previous *Order
	if previousStatus != nil {
		before := order
		before.Status = *previousStatus
		previous = &before
	}
	runHandlers(ctx, d.logger, "order", order.ID, d.orderSaved, previous, order)
	metadata := map[string]any{
		"number": order.Number,
		"status": string(order.Status),
	}
	if previousStatus != nil {
		metadata["previous_status"] = string(*previousStatus)
	}
	d.publish(ctx, eventOrderSaved, "order/"+order.ID, metadata)
}

// runHandlers invokes each handler in order, recovering panics so one side
// effect cannot stop the rest of the list.
func runHandlers[T any](
	ctx context.Context,
	logger func(context.Context, string, map[string]any),
	entity string,
	entityID string,
	handlers []transitionHandler[T],
	previous *T,
	current T,
) {
	for _, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger(ctx, "dispatcher.handler_panic", map[string]any{
						"entity":    entity,
						"entity_id": entityID,
						"handler":   handler.name,
						"panic":     r,
					})
				}
			}()
			if err := handler.run(ctx, previous, current); err != nil {
				logger(ctx, "dispatcher.handler_failed", map[string]any{
					"entity":    entity,
					"entity_id": entityID,
					"handler":   handler.name,
					"error":     err.Error(),
				})
			}
		}()
	}
}

func (d *lifecycleDispatcher) publish(ctx context.Context, eventType string, entityRef string, metadata map[string]any) {
	if d.events == nil {
		return
	}
	event := domain.CatalogEvent{
		Type:       eventType,
		EntityRef:  entityRef,
		OccurredAt: d.clock(),
		Metadata:   metadata,
	}
	if err := d.events.PublishCatalogEvent(ctx, event); err != nil {
		d.logger(ctx, "dispatcher.publish_failed", map[string]any{
			"event_type": eventType,
			"entity_ref": entityRef,
			"error":      err.Error(),
		})
	}
}

// handleSlugChanged creates a permanent redirect from the old product URL to
// the new one when the committed slug differs from the pre-update slug.
func (d *lifecycleDispatcher) handleSlugChanged(ctx context.Context, previous *Product, current Product) error {
	if previous == nil {
		return nil
	}
	oldSlug := strings.TrimSpace(previous.Slug)
	newSlug := strings.TrimSpace(current.Slug)
	if oldSlug == "" || oldSlug == newSlug {
		return nil
	}

	_, err := d.redirects.Insert(ctx, URLRedirect{
		ID:         redirectIDPrefix + d.newID(),
		Source:     productPathPrefix + oldSlug,
		Target:     productPathPrefix + newSlug,
		StatusCode: 301,
		Automatic:  true,
		LinkType:   linkTypeProduct,
		LinkID:     current.ID,
		CreatedAt:  d.clock(),
	})
	return err
}

// handleProductDeleted redirects the deleted product's URL to the site root.
func (d *lifecycleDispatcher) handleProductDeleted(ctx context.Context, _ *Product, deleted Product) error {
	slug := strings.TrimSpace(deleted.Slug)
	if slug == "" {
		return nil
	}

	_, err := d.redirects.Insert(ctx, URLRedirect{
		ID:         redirectIDPrefix + d.newID(),
		Source:     productPathPrefix + slug,
		Target:     "/",
		StatusCode: 301,
		Automatic:  true,
		LinkType:   linkTypeProduct,
		LinkID:     deleted.ID,
		CreatedAt:  d.clock(),
	})
	return err
}

// handleStockReplenished fires the back-in-stock batch when the product comes
// back into stock: the inStock flag flips to true, or the quantity crosses from
// zero or below to a positive value.
func (d *lifecycleDispatcher) handleStockReplenished(ctx context.Context, previous *Product, current Product) error {
	if !stockReplenished(previous, current) {
		return nil
	}
	return d.stock.NotifyReplenished(ctx, current)
}

func (d *lifecycleDispatcher) handleOrderSaved(ctx context.Context, previous *Order, current Order) error {
	if previous != nil && previous.Status == current.Status {
		return nil
	}
	return d.orders.NotifyStatus(ctx, current, current.Status)
}

// stockReplenished reports whether the transition represents a depleted
// product becoming available again.
func stockReplenished(previous *Product, current Product) bool {
	previouslyInStock := previous != nil && previous.InStock
	if !previouslyInStock && current.InStock {
		return true
	}

	var previousQty float64
	if previous != nil {
		previousQty = quantityOf(previous.Qty)
	}
	return previousQty <= 0 && quantityOf(current.Qty) > 0
}

func quantityOf(raw string) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return value
}
