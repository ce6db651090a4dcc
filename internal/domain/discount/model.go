package discount

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	ierr "github.com/subcart/subcart/internal/errors"
	"github.com/subcart/subcart/internal/types"
)

// Code is a discount code: a main rate applied to product line items
// and an optional setup-fee-specific rate applied to fee line items.
type Code struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`

	Value decimal.Decimal  `json:"value"`
	Type  types.AmountType `json:"type"`

	SetupFeeValue decimal.Decimal  `json:"setup_fee_value"`
	SetupFeeType  types.AmountType `json:"setup_fee_type"`

	ApplyToRenewals bool `json:"apply_to_renewals"`

	// AllowedProducts restricts the code to specific products.
	// Empty means the code applies to any product.
	AllowedProducts []string `json:"allowed_products"`

	MaxUses int `json:"max_uses"`
	Uses    int `json:"uses"`

	ValidFrom  *time.Time `json:"valid_from"`
	ValidUntil *time.Time `json:"valid_until"`

	types.BaseModel
}

// IsValid checks the code's redemption window and usage cap.
func (c *Code) IsValid(now time.Time) error {
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return ierr.NewError("discount code is not active yet").
			WithHintf("The code %s is not valid before %s", c.Code, c.ValidFrom.Format(time.DateOnly)).
			Mark(ierr.ErrValidation)
	}

	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return ierr.NewError("discount code has expired").
			WithHintf("The code %s is no longer valid", c.Code).
			Mark(ierr.ErrValidation)
	}

	if c.MaxUses > 0 && c.Uses >= c.MaxUses {
		return ierr.NewError("discount code is exhausted").
			WithHintf("The code %s has reached its usage limit", c.Code).
			Mark(ierr.ErrValidation)
	}

	return nil
}

// IsValidFor checks the code against a specific product on top of the
// general validity checks.
func (c *Code) IsValidFor(productID string, now time.Time) error {
	if err := c.IsValid(now); err != nil {
		return err
	}

	if productID != "" && len(c.AllowedProducts) > 0 && !lo.Contains(c.AllowedProducts, productID) {
		return ierr.NewError("discount code does not apply to this product").
			WithHintf("The code %s cannot be used with this product", c.Code).
			Mark(ierr.ErrValidation)
	}

	return nil
}
