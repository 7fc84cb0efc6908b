package domain

import (
	"strings"
	"time"
)

// ProductStatus enumerates the catalog visibility states for a product.
type ProductStatus string

const (
	// ProductStatusDraft indicates the product is not yet visible in the storefront.
	ProductStatusDraft ProductStatus = "draft"
	// ProductStatusPublished indicates the product is live in the storefront.
	ProductStatusPublished ProductStatus = "published"
)

// UnitKind distinguishes shared catalog units from product-local custom units.
type UnitKind string

const (
	// UnitKindGlobal references a shared unit record by identifier.
	UnitKindGlobal UnitKind = "global"
	// UnitKindCustom defines an inline unit local to the product.
	UnitKindCustom UnitKind = "custom"
)

// Unit is a shared measurement unit (piece, metre, kilogram) referenced by products.
type Unit struct {
	ID           string
	Name         string
	DecimalStock bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UnitConfig captures a product's unit selection: either a shared unit reference
// or an inline custom unit with an order step.
type UnitConfig struct {
	Kind   UnitKind
	UnitID string
	// Step is the custom unit's order increment ("0.5", "1"). Only meaningful
	// when Kind is UnitKindCustom.
	Step string
}

// Product is the persisted catalog entity the storefront sells.
type Product struct {
	ID            string
	Name          string
	SKU           string
	GTIN          string
	Slug          string
	Description   string
	Price         string
	DiscountPrice string
	DiscountFrom  *time.Time
	DiscountTo    *time.Time
	Qty           string
	InStock       bool
	Status        ProductStatus
	Unit          UnitConfig
	Variants      []ProductVariant
	CategoryIDs   []string
	TagIDs        []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProductVariant is a sellable variation of a product (colour, width, pattern).
type ProductVariant struct {
	ID            string
	SKU           string
	Price         string
	DiscountPrice string
	DiscountFrom  *time.Time
	DiscountTo    *time.Time
	Qty           string
	Active        bool
	Default       bool
	InStock       bool
	Backorder     bool
	MediaIDs      []string
}

// StockNotifyRequest records a customer's wish to be emailed when a depleted
// product (or variant) becomes available again. SentAt doubles as the
// idempotence marker: once set the request must never be notified again.
type StockNotifyRequest struct {
	ID        string
	ProductID string
	VariantID *string
	Email     string
	SentAt    *time.Time
	CreatedAt time.Time
}

// Pending reports whether the request still awaits its notification.
func (r StockNotifyRequest) Pending() bool {
	return r.SentAt == nil
}

// URLRedirect maps an obsolete storefront path to its replacement.
type URLRedirect struct {
	ID         string
	Source     string
	Target     string
	StatusCode int
	// Automatic marks redirects created by the system rather than an admin.
	Automatic bool
	LinkType  string
	LinkID    string
	CreatedAt time.Time
}

// OrderStatus enumerates the lifecycle states of a storefront order.
type OrderStatus string

const (
	// OrderStatusPending indicates the order was placed but not yet confirmed.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusProcessing indicates the order is being prepared.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped indicates the order was handed to the carrier.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered indicates the carrier confirmed delivery.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled indicates the order was cancelled.
	OrderStatusCancelled OrderStatus = "cancelled"
	// OrderStatusRefunded indicates the order was refunded after cancellation or return.
	OrderStatusRefunded OrderStatus = "refunded"
)

// OrderStatuses lists every known status in a stable order.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
		OrderStatusRefunded,
	}
}

// ParseOrderStatus validates a raw status string against the known enumeration.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	candidate := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	for _, status := range OrderStatuses() {
		if candidate == status {
			return status, true
		}
	}
	return "", false
}

// Address is a billing or shipping address attached to an order.
type Address struct {
	Name    string
	Phone   string
	Line1   string
	Line2   string
	City    string
	Country string
	ZipCode string
}

// Customer is the account that placed an order.
type Customer struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// Order captures the order fields the notification pipeline consumes.
type Order struct {
	ID             string
	Number         string
	Status         OrderStatus
	Total          string
	Currency       string
	Carrier        string
	TrackingNumber string
	Billing        *Address
	Customer       *Customer
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SettingValue is a settings-store entry; the zero value represents an unset key.
type SettingValue struct {
	Raw    string
	Exists bool
}

// String returns the trimmed raw value, or empty when the key is unset.
func (v SettingValue) String() string {
	if !v.Exists {
		return ""
	}
	return strings.TrimSpace(v.Raw)
}

// Bool interprets the value as a feature switch. Unset keys are false.
func (v SettingValue) Bool() bool {
	switch strings.ToLower(v.String()) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// CatalogEvent describes an entity transition published for downstream consumers.
type CatalogEvent struct {
	Type       string
	EntityRef  string
	OccurredAt time.Time
	Metadata   map[string]any
}
