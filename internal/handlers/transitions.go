package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/loom-field/api/internal/domain"
	"github.com/loom-field/api/internal/platform/httpx"
	"github.com/loom-field/api/internal/services"
)

const maxTransitionBodySize = 256 * 1024

// TransitionHandlers receives entity transition hooks from the persistence
// layer and feeds them to the lifecycle dispatcher.
type TransitionHandlers struct {
	dispatcher services.LifecycleDispatcher
}

// NewTransitionHandlers constructs the transition handler set.
func NewTransitionHandlers(dispatcher services.LifecycleDispatcher) *TransitionHandlers {
	return &TransitionHandlers{dispatcher: dispatcher}
}

// Routes registers the transition endpoints beneath /internal.
func (h *TransitionHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/transitions/products", h.productTransition)
	r.Post("/transitions/orders", h.orderTransition)
}

func (h *TransitionHandlers) productTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.dispatcher == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "lifecycle dispatcher not available", http.StatusServiceUnavailable))
		return
	}

	body, err := readTransitionBody(w, r)
	if body == nil || err != nil {
		return
	}

	var req productTransitionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	event := strings.ToLower(strings.TrimSpace(req.Event))
	switch event {
	case "saved":
		if req.Current == nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "current product is required", http.StatusBadRequest))
			return
		}
		var previous *domain.Product
		if req.Previous != nil {
			prev := req.Previous.toDomain()
			previous = &prev
		}
		h.dispatcher.ProductSaved(ctx, previous, req.Current.toDomain())
	case "deleted":
		if req.Current == nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "current product is required", http.StatusBadRequest))
			return
		}
		h.dispatcher.ProductDeleted(ctx, req.Current.toDomain())
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "event must be saved or deleted", http.StatusBadRequest))
		return
	}

	writeJSONResponse(w, http.StatusAccepted, transitionResponse{Status: "accepted"})
}

func (h *TransitionHandlers) orderTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.dispatcher == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "lifecycle dispatcher not available", http.StatusServiceUnavailable))
		return
	}

	body, err := readTransitionBody(w, r)
	if body == nil || err != nil {
		return
	}

	var req orderTransitionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}
	if req.Order == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order is required", http.StatusBadRequest))
		return
	}

	order := req.Order.toDomain()
	if _, ok := domain.ParseOrderStatus(string(order.Status)); !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unknown order status", http.StatusBadRequest))
		return
	}

	var previous *domain.OrderStatus
	if req.PreviousStatus != nil {
		status, ok := domain.ParseOrderStatus(*req.PreviousStatus)
		if !ok {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unknown previous order status", http.StatusBadRequest))
			return
		}
		previous = &status
	}

	h.dispatcher.OrderSaved(ctx, previous, order)

	writeJSONResponse(w, http.StatusAccepted, transitionResponse{Status: "accepted"})
}

func readTransitionBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := readLimitedBody(r, maxTransitionBodySize)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(r.Context(), w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		case errors.Is(err, errEmptyBody):
			httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "request body is required", http.StatusBadRequest))
		default:
			httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return nil, err
	}
	return body, nil
}

type transitionResponse struct {
	Status string `json:"status"`
}

type productTransitionRequest struct {
	Event    string             `json:"event"`
	Previous *productTransition `json:"previous"`
	Current  *productTransition `json:"current"`
}

type productTransition struct {
	ID      string                     `json:"id"`
	Name    string                     `json:"name"`
	SKU     string                     `json:"sku"`
	Slug    string                     `json:"slug"`
	Status  string                     `json:"status"`
	Price   string                     `json:"price"`
	Qty     string                     `json:"qty"`
	InStock bool                       `json:"in_stock"`
	Variant []productVariantTransition `json:"variants"`
}

type productVariantTransition struct {
	ID      string `json:"id"`
	SKU     string `json:"sku"`
	Price   string `json:"price"`
	Qty     string `json:"qty"`
	Active  bool   `json:"active"`
	InStock bool   `json:"in_stock"`
}

func (p *productTransition) toDomain() domain.Product {
	product := domain.Product{
		ID:      p.ID,
		Name:    p.Name,
		SKU:     p.SKU,
		Slug:    p.Slug,
		Status:  domain.ProductStatus(p.Status),
		Price:   p.Price,
		Qty:     p.Qty,
		InStock: p.InStock,
	}
	for _, variant := range p.Variant {
		product.Variants = append(product.Variants, domain.ProductVariant{
			ID:      variant.ID,
			SKU:     variant.SKU,
			Price:   variant.Price,
			Qty:     variant.Qty,
			Active:  variant.Active,
			InStock: variant.InStock,
		})
	}
	return product
}

type orderTransitionRequest struct {
	PreviousStatus *string          `json:"previous_status"`
	Order          *orderTransition `json:"order"`
}

type orderTransition struct {
	ID             string           `json:"id"`
	Number         string           `json:"number"`
	Status         string           `json:"status"`
	Total          string           `json:"total"`
	Currency       string           `json:"currency"`
	Carrier        string           `json:"carrier"`
	TrackingNumber string           `json:"tracking_number"`
	Billing        *addressPayload  `json:"billing"`
	Customer       *customerPayload `json:"customer"`
}

type addressPayload struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2"`
	City    string `json:"city"`
	Country string `json:"country"`
	ZipCode string `json:"zip_code"`
}

type customerPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (o *orderTransition) toDomain() domain.Order {
	order := domain.Order{
		ID:             o.ID,
		Number:         o.Number,
		Status:         domain.OrderStatus(strings.ToLower(strings.TrimSpace(o.Status))),
		Total:          o.Total,
		Currency:       o.Currency,
		Carrier:        o.Carrier,
		TrackingNumber: o.TrackingNumber,
	}
	if o.Billing != nil {
		order.Billing = &domain.Address{
			Name:    o.Billing.Name,
			Phone:   o.Billing.Phone,
			Line1:   o.Billing.Line1,
			Line2:   o.Billing.Line2,
			City:    o.Billing.City,
			Country: o.Billing.Country,
			ZipCode: o.Billing.ZipCode,
		}
	}
	if o.Customer != nil {
		order.Customer = &domain.Customer{
			ID:    o.Customer.ID,
			Name:  o.Customer.Name,
			Email: o.Customer.Email,
			Phone: o.Customer.Phone,
		}
	}
	return order
}
