package product

import (
	"github.com/shopspring/decimal"
	"github.com/subcart/subcart/internal/types"
)

// PriceVariation is an alternate price for a product tied to a
// different billing period.
type PriceVariation struct {
	Duration     int                `json:"duration"`
	DurationUnit types.DurationUnit `json:"duration_unit"`
	Amount       decimal.Decimal    `json:"amount"`
}

// Product is a catalog entry: a plan, an add-on or a service.
type Product struct {
	ID          string            `json:"id"`
	Slug        string            `json:"slug"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Type        types.ProductType `json:"type"`

	// Hash is a stable identifier used to derive line item ids, so
	// re-adding the same product updates its line item in place.
	Hash string `json:"hash"`

	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`

	Recurring     bool               `json:"recurring"`
	Duration      int                `json:"duration"`
	DurationUnit  types.DurationUnit `json:"duration_unit"`
	BillingCycles int                `json:"billing_cycles"`

	SetupFee decimal.Decimal `json:"setup_fee"`

	Taxable     bool   `json:"taxable"`
	TaxCategory string `json:"tax_category"`

	TrialDuration     int                `json:"trial_duration"`
	TrialDurationUnit types.DurationUnit `json:"trial_duration_unit"`

	PriceVariations []PriceVariation `json:"price_variations"`

	types.BaseModel
}

// IsFree reports whether the product has no base price.
func (p *Product) IsFree() bool {
	return p.Amount.IsZero()
}

// HasTrial reports whether the product grants a trial period.
func (p *Product) HasTrial() bool {
	return p.TrialDuration > 0 && p.TrialDurationUnit != ""
}

// HasSetupFee reports whether the product carries a one-time setup fee.
func (p *Product) HasSetupFee() bool {
	return !p.SetupFee.IsZero()
}

// MatchesPeriod reports whether the product's native billing period is
// the given one.
func (p *Product) MatchesPeriod(duration int, unit types.DurationUnit) bool {
	return p.Duration == duration && p.DurationUnit == unit
}

// PriceVariation returns the price variation for the given billing
// period, or false when the product has none.
func (p *Product) PriceVariation(duration int, unit types.DurationUnit) (PriceVariation, bool) {
	for _, variation := range p.PriceVariations {
		if variation.Duration == duration && variation.DurationUnit == unit {
			return variation, true
		}
	}
	return PriceVariation{}, false
}

// AsVariation returns a copy of the product re-priced for the given
// billing period. When the product already settles on that period the
// product itself is returned. Returns nil when no variation exists.
func (p *Product) AsVariation(duration int, unit types.DurationUnit) *Product {
	if p.MatchesPeriod(duration, unit) {
		return p
	}

	variation, ok := p.PriceVariation(duration, unit)
	if !ok {
		return nil
	}

	clone := *p
	clone.Amount = variation.Amount
	clone.Duration = variation.Duration
	clone.DurationUnit = variation.DurationUnit

	return &clone
}
