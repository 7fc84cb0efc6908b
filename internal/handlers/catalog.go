package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loom-field/api/internal/platform/httpx"
	"github.com/loom-field/api/internal/services"
)

const maxSubmissionBodySize = 256 * 1024

// CatalogHandlers exposes the admin product submission endpoints.
type CatalogHandlers struct {
	validator services.SubmissionValidator
}

// NewCatalogHandlers constructs the catalog handler set.
func NewCatalogHandlers(validator services.SubmissionValidator) *CatalogHandlers {
	return &CatalogHandlers{validator: validator}
}

// Routes registers the catalog endpoints beneath /admin.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/products:validate", h.validateProduct)
}

func (h *CatalogHandlers) validateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.validator == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "submission validator not available", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxSubmissionBodySize)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		case errors.Is(err, errEmptyBody):
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is required", http.StatusBadRequest))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	result, err := h.validator.Validate(ctx, payload)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("validation_error", "failed to validate submission", http.StatusInternalServerError))
		return
	}

	if !result.Valid() {
		httpx.WriteError(ctx, w, httpx.NewError("validation_failed", "product submission failed validation", http.StatusUnprocessableEntity).
			WithDetails(map[string]any{"errors": result.FieldErrors}))
		return
	}

	writeJSONResponse(w, http.StatusOK, validateProductResponse{
		Valid:              true,
		Product:            result.Normalized,
		HasActiveVariants:  result.HasActiveVariants,
		UnitAllowsFraction: result.UnitAllowsFraction,
	})
}

type validateProductResponse struct {
	Valid              bool           `json:"valid"`
	Product            map[string]any `json:"product"`
	HasActiveVariants  bool           `json:"has_active_variants"`
	UnitAllowsFraction bool           `json:"unit_allows_fraction"`
}
