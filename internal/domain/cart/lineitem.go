package cart

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/subcart/subcart/internal/domain/product"
	"github.com/subcart/subcart/internal/types"
)

// LineItemParams is the explicit parameter set accepted when building a
// line item. Unknown fields fail at compile time instead of being
// silently ignored.
type LineItemParams struct {
	Type        types.LineItemType
	Product     *product.Product
	Title       string
	Description string

	Quantity  int
	UnitPrice decimal.Decimal

	Discountable bool
	Taxable      bool
	TaxCategory  string

	Recurring     bool
	Duration      int
	DurationUnit  types.DurationUnit
	BillingCycles int
}

// LineItem is a single priced entry in a cart: a product charge, a
// setup fee, a discount or a proration credit. It is owned exclusively
// by the cart that created it and computes its own totals.
type LineItem struct {
	ID          string             `json:"id"`
	Type        types.LineItemType `json:"type"`
	ProductID   string             `json:"product_id,omitempty"`
	ProductSlug string             `json:"product_slug,omitempty"`
	Title       string             `json:"title"`
	Description string             `json:"description"`

	hash string

	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`

	Discountable bool `json:"discountable"`
	Taxable      bool `json:"taxable"`

	Recurring     bool               `json:"recurring"`
	Duration      int                `json:"duration"`
	DurationUnit  types.DurationUnit `json:"duration_unit"`
	BillingCycles int                `json:"billing_cycles"`

	DiscountRate            decimal.Decimal  `json:"discount_rate"`
	DiscountType            types.AmountType `json:"discount_type"`
	DiscountLabel           string           `json:"discount_label,omitempty"`
	ApplyDiscountToRenewals bool             `json:"apply_discount_to_renewals"`

	TaxRate      decimal.Decimal  `json:"tax_rate"`
	TaxType      types.AmountType `json:"tax_type"`
	TaxLabel     string           `json:"tax_label,omitempty"`
	TaxInclusive bool             `json:"tax_inclusive"`
	TaxExempt    bool             `json:"tax_exempt"`
	TaxCategory  string           `json:"tax_category,omitempty"`

	// Derived on every recalculation.
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	Total         decimal.Decimal `json:"total"`
}

// NewLineItem builds a line item from the given params. When a product
// is supplied its fields seed the item and explicit params override
// them. Totals are computed before returning.
func NewLineItem(params LineItemParams) *LineItem {
	item := &LineItem{
		Type:         params.Type,
		Title:        params.Title,
		Description:  params.Description,
		Quantity:     params.Quantity,
		UnitPrice:    params.UnitPrice,
		Discountable: params.Discountable,
		Taxable:      params.Taxable,
		TaxCategory:  params.TaxCategory,

		Recurring:     params.Recurring,
		Duration:      params.Duration,
		DurationUnit:  params.DurationUnit,
		BillingCycles: params.BillingCycles,

		DiscountType: types.AmountTypePercentage,
		TaxType:      types.AmountTypePercentage,
	}

	if params.Product != nil {
		item.setProduct(params.Product)

		// Explicit params win over product defaults.
		if params.Title != "" {
			item.Title = params.Title
		}
		if params.Description != "" {
			item.Description = params.Description
		}
		if !params.UnitPrice.IsZero() {
			item.UnitPrice = params.UnitPrice
		}
		if params.Duration != 0 {
			item.Duration = params.Duration
		}
		if params.DurationUnit != "" {
			item.DurationUnit = params.DurationUnit
		}
		if params.Type == types.LineItemTypeFee || params.Type == types.LineItemTypeCredit {
			item.Recurring = params.Recurring
			item.Taxable = params.Taxable
		}
	}

	if item.hash == "" {
		item.hash = types.GenerateShortID()
	}

	item.ID = deriveLineItemID(item.Type, item.hash)
	item.RecalculateTotals()

	return item
}

// setProduct seeds the item from a catalog product.
func (li *LineItem) setProduct(p *product.Product) {
	li.ProductID = p.ID
	li.ProductSlug = p.Slug
	li.hash = p.Hash
	li.Title = p.Name
	li.Description = p.Description
	li.UnitPrice = p.Amount
	li.Recurring = p.Recurring
	li.Duration = p.Duration
	li.DurationUnit = p.DurationUnit
	li.BillingCycles = p.BillingCycles
	li.Taxable = p.Taxable
	li.TaxCategory = p.TaxCategory
	li.Discountable = true
}

// deriveLineItemID builds the stable id, e.g. LN_FEE_AB12CD.
func deriveLineItemID(itemType types.LineItemType, hash string) string {
	return fmt.Sprintf("LN_%s_%s", strings.ToUpper(string(itemType)), hash)
}

// PeriodKey is the billing period signature of a recurring item.
func (li *LineItem) PeriodKey() string {
	return types.BillingPeriodKey(li.Duration, li.DurationUnit, li.BillingCycles)
}

// calculateDiscount computes the discount portion of the given subtotal.
func (li *LineItem) calculateDiscount(subtotal decimal.Decimal) decimal.Decimal {
	return types.ApplyRate(subtotal, li.DiscountRate, li.DiscountType, false)
}

// calculateTax computes the tax portion of the given base amount.
func (li *LineItem) calculateTax(base decimal.Decimal) decimal.Decimal {
	return types.ApplyRate(base, li.TaxRate, li.TaxType, li.TaxInclusive)
}

// RecalculateTotals recomputes the derived totals as a pure function of
// the item's own fields. Called after every mutation.
func (li *LineItem) RecalculateTotals() *LineItem {
	subtotal := decimal.NewFromInt(int64(li.Quantity)).Mul(li.UnitPrice)

	discount := li.calculateDiscount(subtotal)
	discounted := subtotal.Sub(discount)

	// The discount can never over-credit a single line item.
	if subtotal.GreaterThan(decimal.Zero) && discounted.LessThan(decimal.Zero) {
		discounted = decimal.Zero
		discount = subtotal
	}

	taxes := li.calculateTax(discounted)

	var total decimal.Decimal
	switch {
	case li.TaxExempt:
		total = discounted
	case li.TaxInclusive:
		// Tax is already embedded in the discounted subtotal.
		total = discounted
	default:
		total = discounted.Add(taxes)
	}

	if li.TaxExempt {
		taxes = decimal.Zero
	}

	li.Subtotal = subtotal
	li.DiscountTotal = discount
	li.TaxTotal = taxes
	li.Total = total

	return li
}

// SetDiscount attaches a discount to the item and recomputes totals.
func (li *LineItem) SetDiscount(rate decimal.Decimal, amountType types.AmountType, label string, applyToRenewals bool) {
	li.DiscountRate = rate
	li.DiscountType = amountType
	li.DiscountLabel = label
	li.ApplyDiscountToRenewals = applyToRenewals
	li.RecalculateTotals()
}

// SetTax attaches a tax rate to the item and recomputes totals.
func (li *LineItem) SetTax(rate decimal.Decimal, amountType types.AmountType, label string, inclusive, exempt bool) {
	li.TaxRate = rate
	li.TaxType = amountType
	li.TaxLabel = label
	li.TaxInclusive = inclusive
	li.TaxExempt = exempt
	li.RecalculateTotals()
}

// Clone returns an independent copy of the line item.
func (li *LineItem) Clone() *LineItem {
	clone := *li
	return &clone
}

// TotalWithoutDiscount recomputes the item's total as if no discount
// were attached. Used for recurring totals when a discount does not
// apply to renewals.
func (li *LineItem) TotalWithoutDiscount() decimal.Decimal {
	clone := li.Clone()
	clone.DiscountRate = decimal.Zero
	clone.RecalculateTotals()
	return clone.Total
}
