package services

import (
	"context"
	"testing"
)

type fixedUnitPolicy struct {
	allows bool
}

func (f fixedUnitPolicy) AllowsFraction(context.Context, UnitConfig) bool {
	return f.allows
}

func newTestValidator(t *testing.T, allowsFraction bool) SubmissionValidator {
	t.Helper()
	validator, err := NewSubmissionValidator(SubmissionValidatorDeps{
		UnitPolicy: fixedUnitPolicy{allows: allowsFraction},
	})
	if err != nil {
		t.Fatalf("NewSubmissionValidator: %v", err)
	}
	return validator
}

func TestValidateRequiresQuantityWithoutActiveVariants(t *testing.T) {
	validator := newTestValidator(t, false)

	result, err := validator.Validate(context.Background(), map[string]any{
		"price": "10,00",
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Valid() {
		t.Fatalf("submission without qty should be rejected")
	}
	if got := result.FieldErrors["qty"]; got != "Quantity is required." {
		t.Fatalf("qty error = %q", got)
	}
}

func TestValidateQuantityPattern(t *testing.T) {
	cases := []struct {
		name           string
		allowsFraction bool
		step           string
		qty            string
		wantError      string
	}{
		{"integer only accepts integer", false, "", "2", ""},
		{"integer only rejects fraction", false, "", "2.5", "Invalid quantity format."},
		{"step one rejects fraction", false, "1", "2.5", "Invalid quantity format."},
		{"step one accepts integer", false, "1", "2", ""},
		{"step half accepts half", true, "0.5", "2.5", ""},
		{"step half rejects off-step decimals", true, "0.5", "2.53", "Invalid quantity format."},
		{"step half accepts integer", true, "0.5", "2", ""},
		{"step quarter accepts three quarters", true, "0.25", "2.75", ""},
		{"comma input normalized first", true, "0.5", "2,5", ""},
		{"shared decimal unit accepts two decimals", true, "", "2.53", ""},
		{"negative rejected", false, "", "-2", "Invalid quantity format."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			validator := newTestValidator(t, tc.allowsFraction)
			payload := map[string]any{
				"price": "10",
				"qty":   tc.qty,
			}
			if tc.step != "" {
				payload["unit_type"] = "custom"
				payload["unit_step"] = tc.step
			}
			result, err := validator.Validate(context.Background(), payload)
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if got := result.FieldErrors["qty"]; got != tc.wantError {
				t.Fatalf("qty error = %q, want %q", got, tc.wantError)
			}
		})
	}
}

func TestValidateRequiresPriceWithoutActiveVariants(t *testing.T) {
	validator := newTestValidator(t, false)

	result, err := validator.Validate(context.Background(), map[string]any{
		"name": "Towel",
		"qty":  "5",
		"variants": []any{
			map[string]any{"active": "0"},
		},
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Valid() {
		t.Fatalf("submission without price and without active variants should be rejected")
	}
	if got := result.FieldErrors["price"]; got != "Price is required." {
		t.Fatalf("price error = %q", got)
	}
}

func TestValidateActiveVariantsRelaxTopLevelQuantity(t *testing.T) {
	validator := newTestValidator(t, false)

	result, err := validator.Validate(context.Background(), map[string]any{
		"price": "10",
		"variants": []any{
			map[string]any{"active": "1", "price": "12", "qty": "3"},
		},
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !result.HasActiveVariants {
		t.Fatalf("HasActiveVariants should be true")
	}
	if !result.Valid() {
		t.Fatalf("unexpected errors: %v", result.FieldErrors)
	}
	if _, present := result.Normalized["qty"]; present {
		t.Fatalf("absent qty must stay absent, not defaulted")
	}
}

func TestValidateOptionalQuantityStillNumericWithActiveVariants(t *testing.T) {
	validator := newTestValidator(t, false)

	result, err := validator.Validate(context.Background(), map[string]any{
		"qty": "lots",
		"variants": []any{
			map[string]any{"active": true, "price": "12", "qty": "3"},
		},
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := result.FieldErrors["qty"]; got != "Quantity must be a non-negative number." {
		t.Fatalf("qty error = %q", got)
	}
}

func TestValidateDiscountCrossChecks(t *testing.T) {
	cases := []struct {
		name     string
		price    any
		discount any
		want     string
	}{
		{"discount above price", "10.00", "12.00", "Discount price cannot be greater than regular price."},
		{"discount equals price", "10.00", "10.00", ""},
		{"discount below price", "10.00", "8.50", ""},
		{"non numeric discount skipped", "10.00", "soon", ""},
		{"missing price skipped", nil, "12.00", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			validator := newTestValidator(t, false)
			payload := map[string]any{"qty": "1"}
			if tc.price != nil {
				payload["price"] = tc.price
			}
			payload["discount_price"] = tc.discount

			result, err := validator.Validate(context.Background(), payload)
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if got := result.FieldErrors["discount_price"]; got != tc.want {
				t.Fatalf("discount_price error = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidateActiveVariantRequirements(t *testing.T) {
	validator := newTestValidator(t, false)

	result, err := validator.Validate(context.Background(), map[string]any{
		"variants": []any{
			map[string]any{"active": "1"},
			map[string]any{"active": "0"},
			map[string]any{"active": true, "price": "20", "qty": "2.5"},
		},
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if got := result.FieldErrors["variants.0.price"]; got != "Price is required for active variants." {
		t.Fatalf("variants.0.price error = %q", got)
	}
	if got := result.FieldErrors["variants.0.qty"]; got != "Quantity is required for active variants." {
		t.Fatalf("variants.0.qty error = %q", got)
	}
	if _, found := result.FieldErrors["variants.1.price"]; found {
		t.Fatalf("inactive variant must not require price")
	}
	if got := result.FieldErrors["variants.2.qty"]; got != "Invalid quantity format." {
		t.Fatalf("variants.2.qty error = %q (integer-only policy applies uniformly)", got)
	}
}

func TestValidateVariantDiscountAgainstOwnPrice(t *testing.T) {
	validator := newTestValidator(t, false)

	result, err := validator.Validate(context.Background(), map[string]any{
		"price": "100",
		"qty":   "1",
		"variants": []any{
			map[string]any{"active": "1", "price": "10", "qty": "1", "discount_price": "15"},
			map[string]any{"active": "1", "price": "10", "qty": "1", "discount_price": "9,99"},
		},
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if got := result.FieldErrors["variants.0.discount_price"]; got != "Discount price cannot be greater than regular price." {
		t.Fatalf("variants.0.discount_price error = %q", got)
	}
	if _, found := result.FieldErrors["variants.1.discount_price"]; found {
		t.Fatalf("discount below variant price must pass")
	}
}

func TestValidateVariantQuantityStep(t *testing.T) {
	validator := newTestValidator(t, true)

	result, err := validator.Validate(context.Background(), map[string]any{
		"unit_type": "custom",
		"unit_step": "0.5",
		"variants": []any{
			map[string]any{"active": "1", "price": "10", "qty": "1.5"},
			map[string]any{"active": "1", "price": "10", "qty": "1.53"},
		},
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if _, found := result.FieldErrors["variants.0.qty"]; found {
		t.Fatalf("on-step variant quantity must pass: %v", result.FieldErrors)
	}
	if got := result.FieldErrors["variants.1.qty"]; got != "Invalid quantity format." {
		t.Fatalf("variants.1.qty error = %q", got)
	}
}

func TestVariantAt(t *testing.T) {
	payload := map[string]any{"variants": []any{
		map[string]any{"price": "5"},
		map[string]any{"price": "7"},
	}}
	variant, ok := variantAt(payload, 1)
	if !ok || variant["price"] != "7" {
		t.Fatalf("variantAt(1) = (%v, %v)", variant, ok)
	}
	if _, ok := variantAt(payload, 5); ok {
		t.Fatalf("out-of-range index should not resolve")
	}
	if _, ok := variantAt(map[string]any{}, 0); ok {
		t.Fatalf("missing variants should not resolve")
	}
}
