package membership

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/subcart/subcart/internal/types"
)

// Membership is a customer's subscription record: the plan it settles
// on, its billing period and its lifecycle status.
type Membership struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	PlanID     string `json:"plan_id"`

	Status types.MembershipStatus `json:"status"`

	// Amount is the per-cycle charge; InitialAmount is what was paid
	// on the first invoice (setup fees and one-time items included).
	Amount        decimal.Decimal `json:"amount"`
	InitialAmount decimal.Decimal `json:"initial_amount"`

	Currency string `json:"currency"`
	Country  string `json:"country"`

	Recurring     bool               `json:"recurring"`
	Duration      int                `json:"duration"`
	DurationUnit  types.DurationUnit `json:"duration_unit"`
	BillingCycles int                `json:"billing_cycles"`

	// DateExpiration is when the current paid cycle ends.
	DateExpiration *time.Time `json:"date_expiration"`

	TimesBilled int `json:"times_billed"`

	// DiscountCode is the code attached when the membership was bought.
	DiscountCode string `json:"discount_code"`

	types.BaseModel
}

// lifetimeRemainingDays stands in for "unlimited" when a membership
// never expires.
const lifetimeRemainingDays = 10000

func (m *Membership) IsActive() bool {
	return m.Status == types.MembershipStatusActive
}

func (m *Membership) IsTrialing() bool {
	return m.Status == types.MembershipStatusTrialing
}

// IsLifetime reports whether the membership never renews.
func (m *Membership) IsLifetime() bool {
	return !m.Recurring
}

// IsFree reports whether the membership has no per-cycle charge.
func (m *Membership) IsFree() bool {
	return m.Amount.IsZero()
}

// PeriodKey is the membership's billing period signature.
func (m *Membership) PeriodKey() string {
	return types.BillingPeriodKey(m.Duration, m.DurationUnit, m.BillingCycles)
}

// RemainingDaysInCycle returns how many whole days of the current paid
// cycle are unused as of now. Non-recurring memberships report a very
// large number; a missing or past expiration date reports zero.
func (m *Membership) RemainingDaysInCycle(now time.Time) int {
	if !m.Recurring {
		return lifetimeRemainingDays
	}

	if m.DateExpiration == nil || m.DateExpiration.IsZero() {
		return 0
	}

	if !m.DateExpiration.After(now) {
		return 0
	}

	return int(m.DateExpiration.Sub(now).Hours() / 24)
}
