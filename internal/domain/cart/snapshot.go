package cart

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/subcart/subcart/internal/types"
)

// RecurringTotals groups the renewal-cycle amounts.
type RecurringTotals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Total    decimal.Decimal `json:"total"`
}

// Totals aggregates every cart-level amount. Computed on demand from
// the current line item set, never cached beyond a single call.
type Totals struct {
	Recurring      RecurringTotals `json:"recurring"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TotalTaxes     decimal.Decimal `json:"total_taxes"`
	TotalFees      decimal.Decimal `json:"total_fees"`
	TotalDiscounts decimal.Decimal `json:"total_discounts"`
	Total          decimal.Decimal `json:"total"`
}

// SnapshotDates carries the computed billing dates.
type SnapshotDates struct {
	TrialEnd   *time.Time `json:"date_trial_end,omitempty"`
	NextCharge *time.Time `json:"date_next_charge,omitempty"`
}

// Snapshot is the immutable projection handed to the checkout
// processor once classification and pricing are done.
type Snapshot struct {
	Errors []Error        `json:"errors"`
	Type   types.CartType `json:"type"`
	Valid  bool           `json:"valid"`

	IsFree               bool `json:"is_free"`
	ShouldCollectPayment bool `json:"should_collect_payment"`

	HasPlan      bool `json:"has_plan"`
	HasRecurring bool `json:"has_recurring"`
	HasDiscount  bool `json:"has_discount"`
	HasTrial     bool `json:"has_trial"`
	AutoRenew    bool `json:"auto_renew"`

	Currency   string `json:"currency"`
	Descriptor string `json:"descriptor"`

	LineItems    []*LineItem `json:"line_items"`
	DiscountCode string      `json:"discount_code,omitempty"`

	Totals Totals        `json:"totals"`
	Dates  SnapshotDates `json:"dates"`
}

// SnapshotOptions are the deployment settings a snapshot depends on.
type SnapshotOptions struct {
	CompanyName              string
	AllowTrialWithoutPayment bool

	// AutoRenew is the effective renewal choice after deployment
	// settings are applied.
	AutoRenew bool

	// NextChargeOverride replaces the computed next charge date, used
	// for downgrades that take effect at the current cycle's end.
	NextChargeOverride *time.Time
}

// CalculateTotals computes all aggregate totals from the current line
// item set. Calling it twice on an unmodified cart yields identical
// results.
func (c *Cart) CalculateTotals() Totals {
	return Totals{
		Recurring: RecurringTotals{
			Subtotal: c.RecurringSubtotal(),
			Total:    c.RecurringTotal(),
		},
		Subtotal:       c.Subtotal(),
		TotalTaxes:     c.TotalTaxes(),
		TotalFees:      c.TotalFees(false),
		TotalDiscounts: c.TotalDiscounts(),
		Total:          c.Total(),
	}
}

// Snapshot builds the final projection of the cart.
func (c *Cart) Snapshot(opts SnapshotOptions) *Snapshot {
	nextCharge := c.NextChargeDate()
	if opts.NextChargeOverride != nil {
		nextCharge = opts.NextChargeOverride
	}

	discountCode := ""
	if c.DiscountCode != nil {
		discountCode = c.DiscountCode.Code
	}

	// Validation may accumulate errors of its own, so run it before
	// capturing the error slice.
	valid := c.IsValid()

	return &Snapshot{
		Errors: c.errors,
		Type:   c.Type,
		Valid:  valid,

		IsFree:               c.IsFree(),
		ShouldCollectPayment: c.ShouldCollectPayment(opts.AllowTrialWithoutPayment),

		HasPlan:      c.HasPlan(),
		HasRecurring: c.HasRecurring(),
		HasDiscount:  c.HasDiscount(),
		HasTrial:     c.HasTrial(),
		AutoRenew:    opts.AutoRenew,

		Currency:   c.Currency,
		Descriptor: c.Descriptor(opts.CompanyName),

		LineItems:    c.items,
		DiscountCode: discountCode,

		Totals: c.CalculateTotals(),
		Dates: SnapshotDates{
			TrialEnd:   c.BillingStartDate(),
			NextCharge: nextCharge,
		},
	}
}

// MembershipData seeds a persisted membership record from the cart.
type MembershipData struct {
	Recurring     bool               `json:"recurring"`
	PlanID        string             `json:"plan_id"`
	InitialAmount decimal.Decimal    `json:"initial_amount"`
	AddonProducts map[string]int     `json:"addon_products"`
	Currency      string             `json:"currency"`
	Duration      int                `json:"duration"`
	DurationUnit  types.DurationUnit `json:"duration_unit"`
	Amount        decimal.Decimal    `json:"amount"`
	TimesBilled   int                `json:"times_billed"`
	BillingCycles int                `json:"billing_cycles"`
	AutoRenew     bool               `json:"auto_renew"`
}

// ToMembershipData projects the cart onto the fields a membership
// record is created from.
func (c *Cart) ToMembershipData(autoRenew bool) MembershipData {
	addons := make(map[string]int)

	for _, item := range c.LineItemsByType(types.LineItemTypeProduct) {
		if item.ProductID == "" || item.ProductID == c.PlanID {
			continue
		}
		addons[item.ProductID] = item.Quantity
	}

	data := MembershipData{
		Recurring:     c.HasRecurring(),
		PlanID:        c.PlanID,
		InitialAmount: c.Total(),
		AddonProducts: addons,
		Currency:      c.Currency,
		Duration:      c.Duration,
		DurationUnit:  c.DurationUnit,
		Amount:        c.RecurringTotal(),
		TimesBilled:   0,
		AutoRenew:     autoRenew,
	}

	if plan := c.Plan(); plan != nil {
		data.BillingCycles = plan.BillingCycles
	}

	return data
}

// PaymentData seeds a persisted pending payment record from the cart.
type PaymentData struct {
	Status         types.PaymentStatus `json:"status"`
	Currency       string              `json:"currency"`
	Subtotal       decimal.Decimal     `json:"subtotal"`
	TaxTotal       decimal.Decimal     `json:"tax_total"`
	FeesTotal      decimal.Decimal     `json:"fees_total"`
	DiscountsTotal decimal.Decimal     `json:"discounts_total"`
	Total          decimal.Decimal     `json:"total"`
	DiscountCode   string              `json:"discount_code,omitempty"`
	LineItems      []*LineItem         `json:"line_items"`
}

// ToPaymentData projects the cart onto the fields a pending payment
// record is created from.
func (c *Cart) ToPaymentData() PaymentData {
	discountCode := ""
	if c.DiscountCode != nil {
		discountCode = c.DiscountCode.Code
	}

	return PaymentData{
		Status:         types.PaymentStatusPending,
		Currency:       c.Currency,
		Subtotal:       c.Subtotal(),
		TaxTotal:       c.TotalTaxes(),
		FeesTotal:      c.TotalFees(false),
		DiscountsTotal: c.TotalDiscounts(),
		Total:          c.Total(),
		DiscountCode:   discountCode,
		LineItems:      c.items,
	}
}
