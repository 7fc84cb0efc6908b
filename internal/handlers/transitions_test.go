package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/loom-field/api/internal/domain"
	"github.com/loom-field/api/internal/services"
)

type dispatcherCall struct {
	kind           string
	previous       *domain.Product
	current        domain.Product
	previousStatus *domain.OrderStatus
	order          domain.Order
}

type stubDispatcher struct {
	calls []dispatcherCall
}

func (s *stubDispatcher) ProductSaved(_ context.Context, previous *domain.Product, current domain.Product) {
	s.calls = append(s.calls, dispatcherCall{kind: "product_saved", previous: previous, current: current})
}

func (s *stubDispatcher) ProductDeleted(_ context.Context, deleted domain.Product) {
	s.calls = append(s.calls, dispatcherCall{kind: "product_deleted", current: deleted})
}

func (s *stubDispatcher) OrderSaved(_ context.Context, previousStatus *domain.OrderStatus, order domain.Order) {
	s.calls = append(s.calls, dispatcherCall{kind: "order_saved", previousStatus: previousStatus, order: order})
}

func newTransitionRouter(dispatcher services.LifecycleDispatcher) chi.Router {
	r := chi.NewRouter()
	NewTransitionHandlers(dispatcher).Routes(r)
	return r
}

func TestTransitionHandlersProductSaved(t *testing.T) {
	dispatcher := &stubDispatcher{}
	router := newTransitionRouter(dispatcher)

	payload := `{
		"event": "saved",
		"previous": {"id": "prod_1", "slug": "keten-ortu", "qty": "0", "in_stock": false},
		"current": {
			"id": "prod_1",
			"name": "Keten Örtü",
			"slug": "keten-ortu-yeni",
			"status": "active",
			"price": "249.90",
			"qty": "5",
			"in_stock": true,
			"variants": [
				{"id": "var_1", "sku": "KO-1", "price": "249.90", "qty": "5", "active": true, "in_stock": true}
			]
		}
	}`

	req := httptest.NewRequest(http.MethodPost, "/transitions/products", strings.NewReader(payload))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", rr.Code, rr.Body.String())
	}

	var body transitionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if body.Status != "accepted" {
		t.Fatalf("expected accepted status, got %s", body.Status)
	}

	if len(dispatcher.calls) != 1 {
		t.Fatalf("expected one dispatcher call, got %d", len(dispatcher.calls))
	}
	call := dispatcher.calls[0]
	if call.kind != "product_saved" {
		t.Fatalf("expected product_saved call, got %s", call.kind)
	}
	if call.previous == nil || call.previous.Slug != "keten-ortu" {
		t.Fatalf("expected previous slug keten-ortu, got %+v", call.previous)
	}
	if call.current.Slug != "keten-ortu-yeni" {
		t.Fatalf("expected current slug keten-ortu-yeni, got %s", call.current.Slug)
	}
	if len(call.current.Variants) != 1 || call.current.Variants[0].SKU != "KO-1" {
		t.Fatalf("expected one variant with sku KO-1, got %+v", call.current.Variants)
	}
}

func TestTransitionHandlersProductSavedWithoutPrevious(t *testing.T) {
	dispatcher := &stubDispatcher{}
	router := newTransitionRouter(dispatcher)

	payload := `{"event": "saved", "current": {"id": "prod_2", "slug": "pamuk-havlu", "qty": "1", "in_stock": true}}`

	req := httptest.NewRequest(http.MethodPost, "/transitions/products", strings.NewReader(payload))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", rr.Code)
	}
	if len(dispatcher.calls) != 1 {
		t.Fatalf("expected one dispatcher call, got %d", len(dispatcher.calls))
	}
	if dispatcher.calls[0].previous != nil {
		t.Fatalf("expected nil previous product, got %+v", dispatcher.calls[0].previous)
	}
}

func TestTransitionHandlersProductDeleted(t *testing.T) {
	dispatcher := &stubDispatcher{}
	router := newTransitionRouter(dispatcher)

	payload := `{"event": "deleted", "current": {"id": "prod_3", "slug": "ipek-sal"}}`

	req := httptest.NewRequest(http.MethodPost, "/transitions/products", strings.NewReader(payload))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", rr.Code)
	}
	if len(dispatcher.calls) != 1 || dispatcher.calls[0].kind != "product_deleted" {
		t.Fatalf("expected product_deleted call, got %+v", dispatcher.calls)
	}
	if dispatcher.calls[0].current.Slug != "ipek-sal" {
		t.Fatalf("expected deleted slug ipek-sal, got %s", dispatcher.calls[0].current.Slug)
	}
}

func TestTransitionHandlersProductUnknownEvent(t *testing.T) {
	dispatcher := &stubDispatcher{}
	router := newTransitionRouter(dispatcher)

	payload := `{"event": "archived", "current": {"id": "prod_4"}}`

	req := httptest.NewRequest(http.MethodPost, "/transitions/products", strings.NewReader(payload))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if len(dispatcher.calls) != 0 {
		t.Fatalf("expected no dispatcher calls, got %d", len(dispatcher.calls))
	}
}

func TestTransitionHandlersProductMissingCurrent(t *testing.T) {
	router := newTransitionRouter(&stubDispatcher{})

	req := httptest.NewRequest(http.MethodPost, "/transitions/products", strings.NewReader(`{"event": "saved"}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if body["message"] != "current product is required" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestTransitionHandlersOrderSaved(t *testing.T) {
	dispatcher := &stubDispatcher{}
	router := newTransitionRouter(dispatcher)

	payload := `{
		"previous_status": "processing",
		"order": {
			"id": "ord_1",
			"number": "2024-0001",
			"status": "Shipped",
			"total": "1234.56",
			"currency": "TRY",
			"carrier": "Yurtiçi",
			"tracking_number": "YK123",
			"customer": {"id": "cust_1", "name": "Ayşe", "email": "ayse@example.com", "phone": "+905551112233"}
		}
	}`

	req := httptest.NewRequest(http.MethodPost, "/transitions/orders", strings.NewReader(payload))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", rr.Code, rr.Body.String())
	}

	if len(dispatcher.calls) != 1 {
		t.Fatalf("expected one dispatcher call, got %d", len(dispatcher.calls))
	}
	call := dispatcher.calls[0]
	if call.kind != "order_saved" {
		t.Fatalf("expected order_saved call, got %s", call.kind)
	}
	if call.previousStatus == nil || *call.previousStatus != domain.OrderStatusProcessing {
		t.Fatalf("expected previous status processing, got %v", call.previousStatus)
	}
	if call.order.Status != domain.OrderStatusShipped {
		t.Fatalf("expected shipped status after normalization, got %s", call.order.Status)
	}
	if call.order.Customer == nil || call.order.Customer.Email != "ayse@example.com" {
		t.Fatalf("expected customer email forwarded, got %+v", call.order.Customer)
	}
}

func TestTransitionHandlersOrderSavedWithoutPreviousStatus(t *testing.T) {
	dispatcher := &stubDispatcher{}
	router := newTransitionRouter(dispatcher)

	payload := `{"order": {"id": "ord_2", "number": "2024-0002", "status": "pending"}}`

	req := httptest.NewRequest(http.MethodPost, "/transitions/orders", strings.NewReader(payload))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", rr.Code)
	}
	if len(dispatcher.calls) != 1 || dispatcher.calls[0].previousStatus != nil {
		t.Fatalf("expected call without previous status, got %+v", dispatcher.calls)
	}
}

func TestTransitionHandlersOrderUnknownStatus(t *testing.T) {
	dispatcher := &stubDispatcher{}
	router := newTransitionRouter(dispatcher)

	payload := `{"order": {"id": "ord_3", "status": "exploded"}}`

	req := httptest.NewRequest(http.MethodPost, "/transitions/orders", strings.NewReader(payload))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if len(dispatcher.calls) != 0 {
		t.Fatalf("expected no dispatcher calls, got %d", len(dispatcher.calls))
	}
}

func TestTransitionHandlersOrderUnknownPreviousStatus(t *testing.T) {
	router := newTransitionRouter(&stubDispatcher{})

	payload := `{"previous_status": "limbo", "order": {"id": "ord_4", "status": "pending"}}`

	req := httptest.NewRequest(http.MethodPost, "/transitions/orders", strings.NewReader(payload))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestTransitionHandlersOrderMissingBody(t *testing.T) {
	router := newTransitionRouter(&stubDispatcher{})

	req := httptest.NewRequest(http.MethodPost, "/transitions/orders", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}
