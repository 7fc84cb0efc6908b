package services

import (
	"context"
	"time"

	domain "github.com/loom-field/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Product            = domain.Product
	ProductVariant     = domain.ProductVariant
	ProductStatus      = domain.ProductStatus
	Unit               = domain.Unit
	UnitConfig         = domain.UnitConfig
	UnitKind           = domain.UnitKind
	Order              = domain.Order
	OrderStatus        = domain.OrderStatus
	Address            = domain.Address
	Customer           = domain.Customer
	URLRedirect        = domain.URLRedirect
	StockNotifyRequest = domain.StockNotifyRequest
	SettingValue       = domain.SettingValue
	CatalogEvent       = domain.CatalogEvent
	SystemHealthReport = domain.SystemHealthReport
)

const (
	UnitKindGlobal = domain.UnitKindGlobal
	UnitKindCustom = domain.UnitKindCustom
)

// SubmissionValidator runs the product submission pipeline: normalization,
// derived flags, and conditional rule evaluation.
type SubmissionValidator interface {
	Validate(ctx context.Context, payload map[string]any) (SubmissionResult, error)
}

// SubmissionResult carries the normalized payload and the derived flags the
// pipeline computed, plus any field-keyed rejections.
type SubmissionResult struct {
	Normalized         map[string]any
	HasActiveVariants  bool
	UnitAllowsFraction bool
	FieldErrors        map[string]string
}

// Valid reports whether the submission passed every rule.
func (r SubmissionResult) Valid() bool {
	return len(r.FieldErrors) == 0
}

// UnitPolicyResolver determines whether a product's unit configuration permits
// fractional quantities.
type UnitPolicyResolver interface {
	AllowsFraction(ctx context.Context, cfg UnitConfig) bool
}

// LifecycleDispatcher reacts to entity state transitions committed by the
// persistence layer and fans out side effects. Handlers are best effort: the
// dispatcher never returns an error to the committing transition.
type LifecycleDispatcher interface {
	ProductSaved(ctx context.Context, previous *Product, current Product)
	ProductDeleted(ctx context.Context, deleted Product)
	OrderSaved(ctx context.Context, previousStatus *OrderStatus, order Order)
}

// OrderNotifier resolves settings-gated outbound messaging for order
// transitions.
type OrderNotifier interface {
	NotifyStatus(ctx context.Context, order Order, status OrderStatus) error
}

// StockNotifier sends batched back-in-stock emails for a replenished product.
type StockNotifier interface {
	NotifyReplenished(ctx context.Context, product Product) error
}

// MailTransport delivers templated email. Implementations live outside this
// service.
type MailTransport interface {
	Send(ctx context.Context, toEmail string, templateRef string, context map[string]any) error
}

// TemplateMessage is an outbound templated message for the messaging transport.
type TemplateMessage struct {
	ToPhone      string
	TemplateName string
	LanguageCode string
	Parameters   []string
}

// MessagingTransport delivers template messages over an external channel such
// as the WhatsApp Cloud API.
type MessagingTransport interface {
	Send(ctx context.Context, msg TemplateMessage) error
}

// CatalogEventPublisher emits entity transition events for downstream consumers.
type CatalogEventPublisher interface {
	PublishCatalogEvent(ctx context.Context, event CatalogEvent) error
}

// SystemService exposes operational reports used by health endpoints.
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
}

// BuildInfo captures runtime metadata exposed via health endpoints.
type BuildInfo struct {
	Version     string
	CommitSHA   string
	Environment string
	StartedAt   time.Time
}
