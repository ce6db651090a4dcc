package cart

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/subcart/subcart/internal/domain/discount"
	"github.com/subcart/subcart/internal/domain/product"
	"github.com/subcart/subcart/internal/types"
)

// Cart is the order under construction: a normalized transaction
// description plus an ordered set of line items. It is created fresh
// for every checkout computation and discarded after its snapshot is
// handed off; it is never shared across goroutines.
type Cart struct {
	Type types.CartType

	CustomerID   string
	MembershipID string
	PaymentID    string

	DiscountCode *discount.Code

	Country  string
	State    string
	City     string
	Currency string

	// Pinned once the first recurring product is added; later
	// additions must match or resolve to a matching variation.
	Duration      int
	DurationUnit  types.DurationUnit
	BillingCycles int

	// At most one plan-type product per cart.
	PlanID string

	// TrialEligible is whether the requesting customer may still use
	// a trial period.
	TrialEligible bool

	products []*product.Product

	// Line items live in an ordered slice with an id index; re-adding
	// an item with the same derived id updates it in place.
	items []*LineItem
	index map[string]int

	errors []Error

	now time.Time
}

// New creates an empty cart classified provisionally as new.
func New(now time.Time) *Cart {
	return &Cart{
		Type:  types.CartTypeNew,
		index: make(map[string]int),
		now:   now,
	}
}

// Now is the reference time the cart was built at.
func (c *Cart) Now() time.Time {
	return c.now
}

// AddError accumulates a (code, message) pair. The engine keeps running
// after most errors so the caller sees every problem at once.
func (c *Cart) AddError(code, message string) {
	c.errors = append(c.errors, Error{Code: code, Message: message})
}

// HasErrors reports whether any error was accumulated.
func (c *Cart) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns the accumulated errors.
func (c *Cart) Errors() []Error {
	return c.errors
}

// AddLineItem inserts a line item, updating in place when an item with
// the same derived id already exists.
func (c *Cart) AddLineItem(item *LineItem) {
	if item == nil {
		return
	}

	if pos, ok := c.index[item.ID]; ok {
		c.items[pos] = item
		return
	}

	c.index[item.ID] = len(c.items)
	c.items = append(c.items, item)
}

// AddProductRef records a resolved product snapshot on the cart.
func (c *Cart) AddProductRef(p *product.Product) {
	c.products = append(c.products, p)
}

// Products returns the resolved product snapshots added so far.
func (c *Cart) Products() []*product.Product {
	return c.products
}

// Plan returns the resolved plan product, or nil when the cart has none.
func (c *Cart) Plan() *product.Product {
	for _, p := range c.products {
		if p.Type == types.ProductTypePlan && p.ID == c.PlanID {
			return p
		}
	}
	return nil
}

// HasPlan reports whether a plan-type product is in the cart.
func (c *Cart) HasPlan() bool {
	return c.PlanID != ""
}

// Clear drops all products and line items, e.g. when classification
// decides the cart proposes no changes.
func (c *Cart) Clear() {
	c.products = nil
	c.items = nil
	c.index = make(map[string]int)
}

// LineItems returns the line items in insertion order.
func (c *Cart) LineItems() []*LineItem {
	return c.items
}

// LineItemsByType filters line items by type, preserving order.
func (c *Cart) LineItemsByType(itemType types.LineItemType) []*LineItem {
	return lo.Filter(c.items, func(item *LineItem, _ int) bool {
		return item.Type == itemType
	})
}

// Subtotal sums the subtotals of all charge line items, excluding
// discounts and credits, clamped to zero and rounded.
func (c *Cart) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero

	for _, item := range c.items {
		if item.Type == types.LineItemTypeDiscount || item.Type == types.LineItemTypeCredit {
			continue
		}
		subtotal = subtotal.Add(item.Subtotal)
	}

	return c.clampAndRound(subtotal)
}

// Total sums every line item's total, clamped to zero and rounded.
// Credits are negative so a scheduled swap can zero out today's charge.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero

	for _, item := range c.items {
		total = total.Add(item.Total)
	}

	return c.clampAndRound(total)
}

// RecurringSubtotal sums the subtotals of recurring line items.
func (c *Cart) RecurringSubtotal() decimal.Decimal {
	subtotal := decimal.Zero

	for _, item := range c.items {
		if !item.Recurring {
			continue
		}
		subtotal = subtotal.Add(item.Subtotal)
	}

	return c.clampAndRound(subtotal)
}

// RecurringTotal sums the totals of recurring line items. Items whose
// discount does not apply to renewals are recomputed without it.
func (c *Cart) RecurringTotal() decimal.Decimal {
	total := decimal.Zero

	for _, item := range c.items {
		if !item.Recurring {
			continue
		}

		amount := item.Total
		if item.DiscountTotal.GreaterThan(decimal.Zero) && !item.ApplyDiscountToRenewals {
			amount = item.TotalWithoutDiscount()
		}

		total = total.Add(amount)
	}

	return c.clampAndRound(total)
}

// TotalTaxes sums the per-item tax totals.
func (c *Cart) TotalTaxes() decimal.Decimal {
	taxes := decimal.Zero

	for _, item := range c.items {
		taxes = taxes.Add(item.TaxTotal)
	}

	return types.RoundCurrency(taxes, c.Currency)
}

// TotalDiscounts sums the per-item discount totals, negated and rounded.
func (c *Cart) TotalDiscounts() decimal.Decimal {
	discounts := decimal.Zero

	for _, item := range c.items {
		discounts = discounts.Sub(item.DiscountTotal)
	}

	return types.RoundCurrency(discounts, c.Currency)
}

// TotalFees sums fee line items. With onlyRecurring set, one-time fees
// are skipped.
func (c *Cart) TotalFees(onlyRecurring bool) decimal.Decimal {
	fees := decimal.Zero

	for _, item := range c.LineItemsByType(types.LineItemTypeFee) {
		if onlyRecurring && !item.Recurring {
			continue
		}
		fees = fees.Add(item.Total)
	}

	return types.RoundCurrency(fees, c.Currency)
}

// TaxBreakdown returns the tax collected per rate.
func (c *Cart) TaxBreakdown() map[string]decimal.Decimal {
	brackets := make(map[string]decimal.Decimal)

	for _, item := range c.items {
		if item.TaxTotal.IsZero() {
			continue
		}
		key := item.TaxRate.String()
		brackets[key] = brackets[key].Add(item.TaxTotal)
	}

	return brackets
}

func (c *Cart) clampAndRound(amount decimal.Decimal) decimal.Decimal {
	if amount.LessThan(decimal.Zero) {
		amount = decimal.Zero
	}
	return types.RoundCurrency(amount, c.Currency)
}

// IsValid reports whether the cart accumulated no errors and all
// recurring line items share one billing period signature.
func (c *Cart) IsValid() bool {
	if c.HasErrors() {
		return false
	}

	interval := ""

	for _, item := range c.items {
		if !item.Recurring {
			continue
		}

		itemInterval := item.PeriodKey()

		if interval == "" {
			interval = itemInterval
			continue
		}

		if itemInterval != interval {
			c.AddError(ErrCodeMixedIntervals, fmt.Sprintf("interval %s and %s do not match", itemInterval, interval))
			return false
		}
	}

	return true
}

// IsFree reports whether nothing is due today.
func (c *Cart) IsFree() bool {
	return c.Total().IsZero()
}

// HasRecurring reports whether the cart renews with a positive charge.
func (c *Cart) HasRecurring() bool {
	return c.RecurringTotal().GreaterThan(decimal.Zero)
}

// HasDiscount reports whether any discount actually applied.
func (c *Cart) HasDiscount() bool {
	return c.TotalDiscounts().LessThan(decimal.Zero)
}

// HasTrial reports whether every product in the cart grants a trial and
// the requesting customer is still eligible for one.
func (c *Cart) HasTrial() bool {
	if len(c.products) == 0 {
		return false
	}

	for _, p := range c.products {
		if !p.HasTrial() {
			return false
		}
	}

	return c.TrialEligible
}

// ShouldCollectPayment decides whether a payment method must be
// collected for this cart.
func (c *Cart) ShouldCollectPayment(allowTrialWithoutPayment bool) bool {
	if c.IsFree() && !c.HasRecurring() {
		return false
	}

	if c.HasTrial() {
		return !allowTrialWithoutPayment
	}

	return true
}

// BillingStartDate returns when billing starts: the end of the shortest
// trial when the cart has one, nil for free non-recurring carts.
func (c *Cart) BillingStartDate() *time.Time {
	if c.IsFree() && !c.HasRecurring() {
		return nil
	}

	if !c.HasTrial() {
		start := c.now
		return &start
	}

	var smallest *time.Time

	for _, p := range c.products {
		if !p.HasTrial() {
			continue
		}

		trialEnd := types.AddPeriod(c.now, p.TrialDuration, p.TrialDurationUnit)
		if smallest == nil || trialEnd.Before(*smallest) {
			smallest = &trialEnd
		}
	}

	return smallest
}

// NextChargeDate returns when the next recurring charge happens, or nil
// when nothing recurs. Downgrades are handled by the service, which
// knows the membership's cycle expiration.
func (c *Cart) NextChargeDate() *time.Time {
	var smallest *time.Time

	for _, p := range c.products {
		if !p.Recurring {
			continue
		}
		if p.HasTrial() && c.HasTrial() {
			continue
		}

		next := types.AddPeriod(c.now, p.Duration, p.DurationUnit)
		if smallest == nil || next.Before(*smallest) {
			smallest = &next
		}
	}

	return smallest
}

// Descriptor builds the gateway-facing description of the cart.
func (c *Cart) Descriptor(companyName string) string {
	titles := make([]string, 0, len(c.items))

	for _, item := range c.items {
		if item.ProductID == "" {
			continue
		}
		titles = append(titles, item.Title)
	}

	return strings.TrimSpace(fmt.Sprintf("%s - %s", companyName, strings.Join(titles, ", ")))
}
