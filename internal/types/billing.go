package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DurationUnit is the unit of a billing period ex day, week, month, year
type DurationUnit string

const (
	DurationUnitDay   DurationUnit = "day"
	DurationUnitWeek  DurationUnit = "week"
	DurationUnitMonth DurationUnit = "month"
	DurationUnitYear  DurationUnit = "year"
)

func (u DurationUnit) Validate() error {
	switch u {
	case DurationUnitDay, DurationUnitWeek, DurationUnitMonth, DurationUnitYear:
		return nil
	default:
		return fmt.Errorf("invalid duration unit: %s", u)
	}
}

// Average day counts per unit. Month and year use calendar averages so
// that per-day price comparisons across differing cycle lengths are fair.
var (
	daysPerMonth = decimal.NewFromFloat(30.4375)
	daysPerYear  = decimal.NewFromFloat(365.25)
	daysPerWeek  = decimal.NewFromInt(7)
)

// DaysInCycle returns the number of days in a billing cycle.
// An unknown unit yields zero, which callers treat as a degenerate
// cycle and fall back to the raw amount.
func DaysInCycle(unit DurationUnit, duration int) decimal.Decimal {
	d := decimal.NewFromInt(int64(duration))

	switch unit {
	case DurationUnitDay:
		return d
	case DurationUnitWeek:
		return d.Mul(daysPerWeek)
	case DurationUnitMonth:
		return d.Mul(daysPerMonth)
	case DurationUnitYear:
		return d.Mul(daysPerYear)
	default:
		return decimal.Zero
	}
}

// AddPeriod advances a point in time by one billing period.
func AddPeriod(t time.Time, duration int, unit DurationUnit) time.Time {
	switch unit {
	case DurationUnitDay:
		return t.AddDate(0, 0, duration)
	case DurationUnitWeek:
		return t.AddDate(0, 0, duration*7)
	case DurationUnitMonth:
		return t.AddDate(0, duration, 0)
	case DurationUnitYear:
		return t.AddDate(duration, 0, 0)
	default:
		return t
	}
}

// BillingPeriodKey builds the signature shared by all recurring line
// items of a valid cart. Mixed signatures make the cart invalid because
// no supported gateway can express mixed billing intervals in one charge.
func BillingPeriodKey(duration int, unit DurationUnit, cycles int) string {
	return fmt.Sprintf("%d-%s-%d", duration, unit, cycles)
}
