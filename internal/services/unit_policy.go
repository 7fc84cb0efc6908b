package services

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/loom-field/api/internal/repositories"
)

// UnitPolicyDeps bundles the collaborators required to construct a unit policy resolver.
type UnitPolicyDeps struct {
	Units  repositories.UnitRepository
	Logger func(ctx context.Context, event string, fields map[string]any)
}

type unitPolicyResolver struct {
	units  repositories.UnitRepository
	logger func(context.Context, string, map[string]any)
}

// NewUnitPolicyResolver wires the unit lookup into a concrete UnitPolicyResolver.
func NewUnitPolicyResolver(deps UnitPolicyDeps) (UnitPolicyResolver, error) {
	if deps.Units == nil {
		return nil, errors.New("unit policy: unit repository is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &unitPolicyResolver{
		units:  deps.Units,
		logger: logger,
	}, nil
}

// AllowsFraction computes fractional-quantity eligibility from the product's
// unit configuration. The policy is resolved fresh on every call because the
// referenced unit can change between submissions. Lookup failures degrade to
// integer-only rather than erroring.
func (r *unitPolicyResolver) AllowsFraction(ctx context.Context, cfg UnitConfig) bool {
	switch cfg.Kind {
	case UnitKindCustom:
		return stepAllowsFraction(cfg.Step)
	case UnitKindGlobal:
		id := strings.TrimSpace(cfg.UnitID)
		if id == "" {
			return false
		}
		unit, err := r.units.FindByID(ctx, id)
		if err != nil {
			r.logger(ctx, "unit_policy.lookup_failed", map[string]any{
				"unit_id": id,
				"error":   err.Error(),
			})
			return false
		}
		return unit.DecimalStock
	default:
		return false
	}
}

// stepAllowsFraction reports whether a custom unit step permits fractional
// quantities: present, numeric, and carrying a non-zero remainder modulo 1.
func stepAllowsFraction(step string) bool {
	trimmed := strings.TrimSpace(step)
	if trimmed == "" {
		return false
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return false
	}
	return math.Mod(value, 1) != 0
}
