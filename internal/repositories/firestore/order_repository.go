package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/loom-field/api/internal/domain"
	pfirestore "github.com/loom-field/api/internal/platform/firestore"
)

const ordersCollection = "orders"

type orderAddressDocument struct {
	Name    string `firestore:"name,omitempty"`
	Phone   string `firestore:"phone,omitempty"`
	Line1   string `firestore:"line1,omitempty"`
	Line2   string `firestore:"line2,omitempty"`
	City    string `firestore:"city,omitempty"`
	Country string `firestore:"country,omitempty"`
	ZipCode string `firestore:"zipCode,omitempty"`
}

type orderCustomerDocument struct {
	ID    string `firestore:"id,omitempty"`
	Name  string `firestore:"name,omitempty"`
	Email string `firestore:"email,omitempty"`
	Phone string `firestore:"phone,omitempty"`
}

type orderDocument struct {
	Number         string                 `firestore:"number"`
	Status         string                 `firestore:"status"`
	Total          string                 `firestore:"total,omitempty"`
	Currency       string                 `firestore:"currency,omitempty"`
	Carrier        string                 `firestore:"carrier,omitempty"`
	TrackingNumber string                 `firestore:"trackingNumber,omitempty"`
	Billing        *orderAddressDocument  `firestore:"billing,omitempty"`
	Customer       *orderCustomerDocument `firestore:"customer,omitempty"`
	CreatedAt      time.Time              `firestore:"createdAt"`
	UpdatedAt      time.Time              `firestore:"updatedAt"`
}

func orderToDocument(order domain.Order) orderDocument {
	doc := orderDocument{
		Number:         order.Number,
		Status:         string(order.Status),
		Total:          order.Total,
		Currency:       order.Currency,
		Carrier:        order.Carrier,
		TrackingNumber: order.TrackingNumber,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
	if order.Billing != nil {
		doc.Billing = &orderAddressDocument{
			Name:    order.Billing.Name,
			Phone:   order.Billing.Phone,
			Line1:   order.Billing.Line1,
			Line2:   order.Billing.Line2,
			City:    order.Billing.City,
			Country: order.Billing.Country,
			ZipCode: order.Billing.ZipCode,
		}
	}
	if order.Customer != nil {
		doc.Customer = &orderCustomerDocument{
			ID:    order.Customer.ID,
			Name:  order.Customer.Name,
			Email: order.Customer.Email,
			Phone: order.Customer.Phone,
		}
	}
	return doc
}

func (d orderDocument) toDomain(id string) domain.Order {
	order := domain.Order{
		ID:             id,
		Number:         d.Number,
		Status:         domain.OrderStatus(d.Status),
		Total:          d.Total,
		Currency:       d.Currency,
		Carrier:        d.Carrier,
		TrackingNumber: d.TrackingNumber,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	if d.Billing != nil {
		order.Billing = &domain.Address{
			Name:    d.Billing.Name,
			Phone:   d.Billing.Phone,
			Line1:   d.Billing.Line1,
			Line2:   d.Billing.Line2,
			City:    d.Billing.City,
			Country: d.Billing.Country,
			ZipCode: d.Billing.ZipCode,
		}
	}
	if d.Customer != nil {
		order.Customer = &domain.Customer{
			ID:    d.Customer.ID,
			Name:  d.Customer.Name,
			Email: d.Customer.Email,
			Phone: d.Customer.Phone,
		}
	}
	return order
}

// OrderRepository implements repositories.OrderRepository backed by Firestore.
type OrderRepository struct {
	provider *pfirestore.Provider
	orders   *pfirestore.BaseRepository[orderDocument]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, ordersCollection, nil, nil)
	return &OrderRepository{
		provider: provider,
		orders:   base,
	}, nil
}

// Insert persists a new order header.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.provider == nil {
		return errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("order repository: order id is required")
	}

	_, err := r.orders.Set(ctx, id, orderToDocument(order))
	return err
}

// Update replaces the order header.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	return r.Insert(ctx, order)
}

// FindByID fetches an order by identifier.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}

	doc, err := r.orders.Get(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return domain.Order{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}
