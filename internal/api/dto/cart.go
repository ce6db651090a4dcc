package dto

import (
	"github.com/subcart/subcart/internal/domain/cart"
	"github.com/subcart/subcart/internal/service"
	"github.com/subcart/subcart/internal/types"
)

// CheckoutPreviewRequest describes the cart a client wants priced
// before committing to a checkout.
type CheckoutPreviewRequest struct {
	CartType types.CartType `json:"cart_type"`

	CustomerID   string `json:"customer_id"`
	MembershipID string `json:"membership_id"`
	PaymentID    string `json:"payment_id"`

	Products []string `json:"products"`

	DiscountCode string `json:"discount_code"`

	Country  string `json:"country"`
	State    string `json:"state"`
	City     string `json:"city"`
	Currency string `json:"currency"`

	Duration     int                `json:"duration"`
	DurationUnit types.DurationUnit `json:"duration_unit"`

	AutoRenew          bool `json:"auto_renew"`
	TaxExempt          bool `json:"tax_exempt"`
	CustomerHasTrialed bool `json:"customer_has_trialed"`
}

// ToServiceRequest maps the transport payload onto the engine's input.
func (r *CheckoutPreviewRequest) ToServiceRequest() service.CheckoutRequest {
	return service.CheckoutRequest{
		CartType:           r.CartType,
		CustomerID:         r.CustomerID,
		MembershipID:       r.MembershipID,
		PaymentID:          r.PaymentID,
		Products:           r.Products,
		DiscountCode:       r.DiscountCode,
		Country:            r.Country,
		State:              r.State,
		City:               r.City,
		Currency:           r.Currency,
		Duration:           r.Duration,
		DurationUnit:       r.DurationUnit,
		AutoRenew:          r.AutoRenew,
		TaxExempt:          r.TaxExempt,
		CustomerHasTrialed: r.CustomerHasTrialed,
	}
}

// CheckoutPreviewResponse is the priced cart handed back to clients.
type CheckoutPreviewResponse struct {
	*cart.Snapshot

	// DisplayTotal is the total formatted in the cart's currency,
	// e.g. "$44.00".
	DisplayTotal string `json:"display_total"`
}

func NewCheckoutPreviewResponse(snapshot *cart.Snapshot) *CheckoutPreviewResponse {
	return &CheckoutPreviewResponse{
		Snapshot:     snapshot,
		DisplayTotal: types.FormatAmount(snapshot.Totals.Total, snapshot.Currency),
	}
}
