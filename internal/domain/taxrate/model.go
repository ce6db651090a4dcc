package taxrate

import (
	"github.com/shopspring/decimal"
	"github.com/subcart/subcart/internal/types"
)

// TaxRate is one applicable rate for a jurisdiction and tax category.
type TaxRate struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	Country string `json:"country"`
	State   string `json:"state"`
	City    string `json:"city"`

	TaxCategory string `json:"tax_category"`

	Rate decimal.Decimal  `json:"rate"`
	Type types.AmountType `json:"type"`

	types.BaseModel
}

// Specificity ranks how precisely the rate targets a jurisdiction:
// country-only < country+state < country+state+city. Used to pick a
// single winner when several rates match.
func (t *TaxRate) Specificity() int {
	score := 0
	if t.State != "" {
		score++
	}
	if t.City != "" {
		score++
	}
	return score
}
