package cart

// Error codes accumulated on a cart during construction. The presence
// of any error makes the cart unusable regardless of computed totals.
const (
	ErrCodePaymentNotFound       = "payment_not_found"
	ErrCodeMembershipNotFound    = "membership_not_found"
	ErrCodeLacksPermission       = "lacks_permission"
	ErrCodeInvalidStatus         = "invalid_status"
	ErrCodeNoChanges             = "no_changes"
	ErrCodeMissingProduct        = "missing_product"
	ErrCodeMissingPriceVariation = "missing_price_variation"
	ErrCodePlanAlreadyAdded      = "plan_already_added"
	ErrCodeDiscountCode          = "discount_code"
	ErrCodeMixedIntervals        = "mixed_intervals"
)

// Error is one (code, message) pair accumulated during cart construction.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
