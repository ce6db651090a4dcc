package types

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ApplyRate computes the portion of a base amount that a discount or tax
// rate represents. Percentage rates apply to the base; with inclusive set
// the rate is assumed to be already embedded in the base and the embedded
// portion is extracted instead. Absolute rates are taken as-is.
//
// The result is clamped to [0, base]: a rate never credits below zero and
// never exceeds the base it applies to.
func ApplyRate(base decimal.Decimal, rate decimal.Decimal, amountType AmountType, inclusive bool) decimal.Decimal {
	amount := rate

	if amountType == AmountTypePercentage {
		if inclusive {
			// base - base / (1 + rate/100)
			divisor := decimal.NewFromInt(1).Add(rate.Div(hundred))
			amount = base.Sub(base.Div(divisor))
		} else {
			amount = base.Mul(rate).Div(hundred)
		}
	}

	if amount.LessThan(decimal.Zero) {
		return decimal.Zero
	}

	if base.GreaterThan(decimal.Zero) && amount.GreaterThan(base) {
		return base
	}

	if base.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	return amount
}
