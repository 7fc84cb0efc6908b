package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/loom-field/api/internal/domain"
)

type stubUnitRepository struct {
	findByID func(ctx context.Context, unitID string) (domain.Unit, error)
}

func (s *stubUnitRepository) FindByID(ctx context.Context, unitID string) (domain.Unit, error) {
	if s.findByID == nil {
		return domain.Unit{}, errors.New("unexpected FindByID call")
	}
	return s.findByID(ctx, unitID)
}

func (s *stubUnitRepository) List(context.Context) ([]domain.Unit, error) {
	return nil, errors.New("unexpected List call")
}

func (s *stubUnitRepository) Upsert(context.Context, domain.Unit) (domain.Unit, error) {
	return domain.Unit{}, errors.New("unexpected Upsert call")
}

func newTestUnitPolicy(t *testing.T, units *stubUnitRepository) UnitPolicyResolver {
	t.Helper()
	resolver, err := NewUnitPolicyResolver(UnitPolicyDeps{Units: units})
	if err != nil {
		t.Fatalf("NewUnitPolicyResolver: %v", err)
	}
	return resolver
}

func TestUnitPolicyCustomStep(t *testing.T) {
	resolver := newTestUnitPolicy(t, &stubUnitRepository{})

	cases := []struct {
		name string
		step string
		want bool
	}{
		{"fractional step", "0.5", true},
		{"integer step", "1", false},
		{"larger fractional", "2.25", true},
		{"missing step", "", false},
		{"non numeric step", "abc", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := resolver.AllowsFraction(context.Background(), UnitConfig{
				Kind: domain.UnitKindCustom,
				Step: tc.step,
			})
			if got != tc.want {
				t.Fatalf("AllowsFraction(step=%q) = %v, want %v", tc.step, got, tc.want)
			}
		})
	}
}

func TestUnitPolicyGlobalUnit(t *testing.T) {
	resolver := newTestUnitPolicy(t, &stubUnitRepository{
		findByID: func(_ context.Context, unitID string) (domain.Unit, error) {
			switch unitID {
			case "unit-metre":
				return domain.Unit{ID: unitID, Name: "Metre", DecimalStock: true}, nil
			case "unit-piece":
				return domain.Unit{ID: unitID, Name: "Piece", DecimalStock: false}, nil
			default:
				return domain.Unit{}, errors.New("not found")
			}
		},
	})

	ctx := context.Background()
	if !resolver.AllowsFraction(ctx, UnitConfig{Kind: domain.UnitKindGlobal, UnitID: "unit-metre"}) {
		t.Fatalf("decimal stock unit should allow fractions")
	}
	if resolver.AllowsFraction(ctx, UnitConfig{Kind: domain.UnitKindGlobal, UnitID: "unit-piece"}) {
		t.Fatalf("integer stock unit should not allow fractions")
	}
	if resolver.AllowsFraction(ctx, UnitConfig{Kind: domain.UnitKindGlobal, UnitID: ""}) {
		t.Fatalf("missing unit id should degrade to integer-only")
	}
	if resolver.AllowsFraction(ctx, UnitConfig{Kind: domain.UnitKindGlobal, UnitID: "unit-gone"}) {
		t.Fatalf("failed lookup should degrade to integer-only")
	}
}
