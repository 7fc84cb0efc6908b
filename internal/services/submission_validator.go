package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	msgPriceRequiredActive  = "Price is required for active variants."
	msgQtyRequiredActive    = "Quantity is required for active variants."
	msgDiscountExceedsPrice = "Discount price cannot be greater than regular price."
	msgQtyInvalidFormat     = "Invalid quantity format."
	msgQtyRequired          = "Quantity is required."
	msgPriceRequired        = "Price is required."
	msgQtyNotNumeric        = "Quantity must be a non-negative number."
	msgPriceNotNumeric      = "Price must be a non-negative number."
)

var (
	integerQtyPattern    = regexp.MustCompile(`^\d+$`)
	fractionalQtyPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
)

// SubmissionValidatorDeps bundles the collaborators required to construct a
// submission validator.
type SubmissionValidatorDeps struct {
	UnitPolicy UnitPolicyResolver
	Logger     func(ctx context.Context, event string, fields map[string]any)
}

type submissionValidator struct {
	unitPolicy UnitPolicyResolver
	logger     func(context.Context, string, map[string]any)
}

// NewSubmissionValidator wires dependencies into a concrete SubmissionValidator.
func NewSubmissionValidator(deps SubmissionValidatorDeps) (SubmissionValidator, error) {
	if deps.UnitPolicy == nil {
		return nil, errors.New("submission validator: unit policy resolver is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &submissionValidator{
		unitPolicy: deps.UnitPolicy,
		logger:     logger,
	}, nil
}

// Validate runs the full pipeline over a raw submission: normalization, derived
// flags, and the conditional rule set. The returned result carries field-keyed
// rejection messages; an empty map means the submission is ready to persist.
func (v *submissionValidator) Validate(ctx context.Context, payload map[string]any) (SubmissionResult, error) {
	if ctx == nil {
		return SubmissionResult{}, errors.New("submission validator: context is required")
	}

	normalized := NormalizeSubmission(payload)
	hasActive := HasActiveVariants(normalized)
	unitCfg := unitConfigFrom(normalized)
	allowsFraction := v.unitPolicy.AllowsFraction(ctx, unitCfg)
	step := customUnitStep(unitCfg)

	// An absent top-level qty stays absent when active variants suppress the
	// requirement; it must never be defaulted to zero.
	if hasActive {
		if raw, present := normalized["qty"]; present && isEmptyValue(raw) {
			delete(normalized, "qty")
		}
	}

	result := SubmissionResult{
		Normalized:         normalized,
		HasActiveVariants:  hasActive,
		UnitAllowsFraction: allowsFraction,
		FieldErrors:        map[string]string{},
	}

	v.checkProductQuantity(&result, step)
	v.checkProductPrice(&result)
	v.checkProductDiscount(&result)
	v.checkVariants(&result, step)

	return result, nil
}

func (v *submissionValidator) checkProductQuantity(result *SubmissionResult, step *decimal.Decimal) {
	raw, present := result.Normalized["qty"]

	if !result.HasActiveVariants {
		if !present || isEmptyValue(raw) {
			result.FieldErrors["qty"] = msgQtyRequired
			return
		}
		if msg := quantityFormatError(raw, result.UnitAllowsFraction, step); msg != "" {
			result.FieldErrors["qty"] = msg
		}
		return
	}

	// Optional when active variants exist; still numeric and non-negative when supplied.
	if present && !isEmptyValue(raw) {
		if value, ok := numericValue(raw); !ok || value < 0 {
			result.FieldErrors["qty"] = msgQtyNotNumeric
		}
	}
}

func (v *submissionValidator) checkProductPrice(result *SubmissionResult) {
	raw, present := result.Normalized["price"]

	if !result.HasActiveVariants && (!present || isEmptyValue(raw)) {
		result.FieldErrors["price"] = msgPriceRequired
		return
	}

	if present && !isEmptyValue(raw) {
		if value, ok := numericValue(raw); !ok || value < 0 {
			result.FieldErrors["price"] = msgPriceNotNumeric
		}
	}
}

func (v *submissionValidator) checkProductDiscount(result *SubmissionResult) {
	discount, ok := decimalValue(result.Normalized["discount_price"])
	if !ok {
		return
	}
	price, ok := decimalValue(result.Normalized["price"])
	if !ok {
		return
	}
	if discount.GreaterThan(price) {
		result.FieldErrors["discount_price"] = msgDiscountExceedsPrice
	}
}

func (v *submissionValidator) checkVariants(result *SubmissionResult, step *decimal.Decimal) {
	variants, ok := result.Normalized["variants"].([]any)
	if !ok {
		return
	}

	for index := range variants {
		variant, ok := variantAt(result.Normalized, index)
		if !ok {
			continue
		}
		active := isTruthy(variant["active"])

		pricePath := fmt.Sprintf("variants.%d.price", index)
		qtyPath := fmt.Sprintf("variants.%d.qty", index)
		discountPath := fmt.Sprintf("variants.%d.discount_price", index)

		priceRaw, pricePresent := variant["price"]
		qtyRaw, qtyPresent := variant["qty"]

		if active {
			if !pricePresent || isEmptyValue(priceRaw) {
				result.FieldErrors[pricePath] = msgPriceRequiredActive
			}
			if !qtyPresent || isEmptyValue(qtyRaw) {
				result.FieldErrors[qtyPath] = msgQtyRequiredActive
			} else if msg := quantityFormatError(qtyRaw, result.UnitAllowsFraction, step); msg != "" {
				result.FieldErrors[qtyPath] = msg
			}
		} else {
			if qtyPresent && !isEmptyValue(qtyRaw) {
				if value, ok := numericValue(qtyRaw); !ok || value < 0 {
					result.FieldErrors[qtyPath] = msgQtyNotNumeric
				}
			}
		}

		if _, reported := result.FieldErrors[pricePath]; !reported && pricePresent && !isEmptyValue(priceRaw) {
			if value, ok := numericValue(priceRaw); !ok || value < 0 {
				result.FieldErrors[pricePath] = msgPriceNotNumeric
			}
		}

		if discount, ok := decimalValue(variant["discount_price"]); ok {
			if price, ok := decimalValue(priceRaw); ok && discount.GreaterThan(price) {
				result.FieldErrors[discountPath] = msgDiscountExceedsPrice
			}
		}
	}
}

// variantAt resolves the variant entry at the given index from the full
// submission payload.
func variantAt(payload map[string]any, index int) (map[string]any, bool) {
	variants, ok := payload["variants"].([]any)
	if !ok || index < 0 || index >= len(variants) {
		return nil, false
	}
	variant, ok := variants[index].(map[string]any)
	return variant, ok
}

func quantityPattern(allowsFraction bool) *regexp.Regexp {
	if allowsFraction {
		return fractionalQtyPattern
	}
	return integerQtyPattern
}

// quantityFormatError applies the pattern for the unit policy first, then the
// custom-unit step rule: quantities must land on a multiple of the step, so a
// step of 0.5 accepts "2.5" and rejects "2.53".
func quantityFormatError(raw any, allowsFraction bool, step *decimal.Decimal) string {
	text := stringValue(raw)
	if !quantityPattern(allowsFraction).MatchString(text) {
		return msgQtyInvalidFormat
	}
	if step != nil {
		qty, err := decimal.NewFromString(text)
		if err != nil || !qty.Mod(*step).IsZero() {
			return msgQtyInvalidFormat
		}
	}
	return ""
}

// customUnitStep parses a custom unit's step for the multiple rule. Shared
// units carry no step and rely on the pattern alone; an unparseable or
// non-positive step is ignored the same way.
func customUnitStep(cfg UnitConfig) *decimal.Decimal {
	if cfg.Kind != UnitKindCustom {
		return nil
	}
	parsed, err := decimal.NewFromString(strings.TrimSpace(cfg.Step))
	if err != nil || !parsed.IsPositive() {
		return nil
	}
	return &parsed
}

func unitConfigFrom(payload map[string]any) UnitConfig {
	cfg := UnitConfig{}
	switch stringValue(payload["unit_type"]) {
	case "custom":
		cfg.Kind = UnitKindCustom
		cfg.Step = stringValue(payload["unit_step"])
	default:
		cfg.Kind = UnitKindGlobal
		cfg.UnitID = stringValue(payload["unit_id"])
	}
	return cfg
}

// isEmptyValue reports whether the submitted value counts as absent: nil or an
// empty/whitespace string.
func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}

func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

func numericValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// decimalValue parses the submitted value into an exact decimal. Absent or
// non-numeric values report false so cross-field checks treat them as not
// applicable rather than as failures.
func decimalValue(value any) (decimal.Decimal, bool) {
	raw := stringValue(value)
	if raw == "" {
		return decimal.Decimal{}, false
	}
	parsed, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return parsed, true
}
