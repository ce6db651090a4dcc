package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subcart/subcart/internal/types"
)

func monthlyPlan() *Product {
	return &Product{
		ID:           "prod_1",
		Name:         "Pro",
		Type:         types.ProductTypePlan,
		Amount:       decimal.NewFromInt(30),
		Recurring:    true,
		Duration:     1,
		DurationUnit: types.DurationUnitMonth,
		PriceVariations: []PriceVariation{
			{Duration: 1, DurationUnit: types.DurationUnitYear, Amount: decimal.NewFromInt(300)},
		},
	}
}

func TestAsVariation(t *testing.T) {
	p := monthlyPlan()

	yearly := p.AsVariation(1, types.DurationUnitYear)
	require.NotNil(t, yearly)
	assert.True(t, yearly.Amount.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, types.DurationUnitYear, yearly.DurationUnit)

	// The original product is untouched.
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, types.DurationUnitMonth, p.DurationUnit)
}

func TestAsVariationSamePeriodReturnsSelf(t *testing.T) {
	p := monthlyPlan()
	assert.Same(t, p, p.AsVariation(1, types.DurationUnitMonth))
}

func TestAsVariationUnknownPeriod(t *testing.T) {
	p := monthlyPlan()
	assert.Nil(t, p.AsVariation(3, types.DurationUnitWeek))
}

func TestHasTrial(t *testing.T) {
	p := monthlyPlan()
	assert.False(t, p.HasTrial())

	p.TrialDuration = 14
	p.TrialDurationUnit = types.DurationUnitDay
	assert.True(t, p.HasTrial())
}

func TestIsFree(t *testing.T) {
	p := monthlyPlan()
	assert.False(t, p.IsFree())

	p.Amount = decimal.Zero
	assert.True(t, p.IsFree())
}
