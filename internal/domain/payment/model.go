package payment

import (
	"github.com/shopspring/decimal"
	"github.com/subcart/subcart/internal/domain/cart"
	"github.com/subcart/subcart/internal/types"
)

// Payment is a pending or settled charge attempt, carrying a snapshot
// of the line items it was created from.
type Payment struct {
	ID           string `json:"id"`
	CustomerID   string `json:"customer_id"`
	MembershipID string `json:"membership_id"`

	Status   types.PaymentStatus `json:"status"`
	Currency string              `json:"currency"`

	DiscountCode string `json:"discount_code"`

	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxTotal       decimal.Decimal `json:"tax_total"`
	DiscountsTotal decimal.Decimal `json:"discounts_total"`
	Total          decimal.Decimal `json:"total"`

	LineItems []*cart.LineItem `json:"line_items"`

	types.BaseModel
}

// IsCompleted reports whether the payment already settled.
func (p *Payment) IsCompleted() bool {
	return p.Status == types.PaymentStatusCompleted
}
