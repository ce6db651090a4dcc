package hooks

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/subcart/subcart/internal/domain/cart"
	"github.com/subcart/subcart/internal/domain/product"
)

// Bus exposes the engine's extension points. Implementations may veto
// or transform a decision; the engine's output stays deterministic for
// a fixed implementation. Injected explicitly, never registered in a
// process-wide registry.
type Bus interface {
	// ShouldApplySetupFee decides whether a product's setup fee is
	// charged, e.g. vetoed when the membership was already billed once.
	ShouldApplySetupFee(ctx context.Context, apply bool, p *product.Product) bool

	// AdjustProratedCredit may transform the final prorated credit
	// before it is appended as a credit line item.
	AdjustProratedCredit(ctx context.Context, credit decimal.Decimal) decimal.Decimal

	// TransformLineItem may rewrite the params of a line item about to
	// be built, e.g. a product charge or the scheduled swap credit.
	TransformLineItem(ctx context.Context, params cart.LineItemParams) cart.LineItemParams
}

// Noop is the default Bus: every decision passes through unchanged.
type Noop struct{}

func (Noop) ShouldApplySetupFee(_ context.Context, apply bool, _ *product.Product) bool {
	return apply
}

func (Noop) AdjustProratedCredit(_ context.Context, credit decimal.Decimal) decimal.Decimal {
	return credit
}

func (Noop) TransformLineItem(_ context.Context, params cart.LineItemParams) cart.LineItemParams {
	return params
}
