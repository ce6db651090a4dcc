package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/subcart/subcart/internal/cache"
	"github.com/subcart/subcart/internal/config"
	"github.com/subcart/subcart/internal/domain/cart"
	"github.com/subcart/subcart/internal/domain/discount"
	"github.com/subcart/subcart/internal/domain/membership"
	"github.com/subcart/subcart/internal/domain/payment"
	"github.com/subcart/subcart/internal/domain/product"
	"github.com/subcart/subcart/internal/domain/taxrate"
	"github.com/subcart/subcart/internal/hooks"
	"github.com/subcart/subcart/internal/logger"
	"github.com/subcart/subcart/internal/testutil"
	"github.com/subcart/subcart/internal/types"
)

type CheckoutServiceSuite struct {
	suite.Suite
	ctx context.Context
	now time.Time

	products    *testutil.InMemoryProductStore
	memberships *testutil.InMemoryMembershipStore
	payments    *testutil.InMemoryPaymentStore
	discounts   *testutil.InMemoryDiscountStore
	taxrates    *testutil.InMemoryTaxRateStore

	cfg     *config.Configuration
	service *checkoutService
}

func TestCheckoutServiceSuite(t *testing.T) {
	suite.Run(t, new(CheckoutServiceSuite))
}

func (s *CheckoutServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	s.products = testutil.NewInMemoryProductStore()
	s.memberships = testutil.NewInMemoryMembershipStore()
	s.payments = testutil.NewInMemoryPaymentStore()
	s.discounts = testutil.NewInMemoryDiscountStore()
	s.taxrates = testutil.NewInMemoryTaxRateStore()

	s.cfg = &config.Configuration{
		Checkout: config.DefaultCheckoutConfig(),
	}

	s.service = &checkoutService{
		ServiceParams: ServiceParams{
			Logger:         logger.NewNop(),
			Config:         s.cfg,
			Cache:          cache.NewInMemoryCache(),
			Hooks:          hooks.Noop{},
			ProductRepo:    s.products,
			MembershipRepo: s.memberships,
			PaymentRepo:    s.payments,
			DiscountRepo:   s.discounts,
			TaxRateRepo:    s.taxrates,
		},
		timeNow: func() time.Time { return s.now },
	}

	s.seedCatalog()
}

func (s *CheckoutServiceSuite) seedCatalog() {
	s.products.Add(&product.Product{
		ID:          "prod_gold",
		Slug:        "gold",
		Name:        "Gold",
		Type:        types.ProductTypePlan,
		Hash:        "G0LDAA",
		Amount:      s.dec("30"),
		Currency:    "usd",
		Recurring:   true,
		Duration:    1,
		DurationUnit: types.DurationUnitMonth,
		SetupFee:    s.dec("10"),
		Taxable:     true,
		TaxCategory: "default",
		PriceVariations: []product.PriceVariation{
			{Duration: 1, DurationUnit: types.DurationUnitYear, Amount: s.dec("300")},
		},
	})

	s.products.Add(&product.Product{
		ID:          "prod_silver",
		Slug:        "silver",
		Name:        "Silver",
		Type:        types.ProductTypePlan,
		Hash:        "S1LVER",
		Amount:      s.dec("10"),
		Currency:    "usd",
		Recurring:   true,
		Duration:    1,
		DurationUnit: types.DurationUnitMonth,
		SetupFee:    s.dec("5"),
		Taxable:     true,
		TaxCategory: "default",
	})

	s.products.Add(&product.Product{
		ID:          "prod_seats",
		Slug:        "extra-seats",
		Name:        "Extra Seats",
		Type:        types.ProductTypeAddon,
		Hash:        "SEAT55",
		Amount:      s.dec("5"),
		Currency:    "usd",
		Recurring:   true,
		Duration:    1,
		DurationUnit: types.DurationUnitMonth,
		Taxable:     true,
		TaxCategory: "default",
	})

	s.products.Add(&product.Product{
		ID:          "prod_trial",
		Slug:        "starter",
		Name:        "Starter",
		Type:        types.ProductTypePlan,
		Hash:        "TR1AL1",
		Amount:      s.dec("15"),
		Currency:    "usd",
		Recurring:   true,
		Duration:    1,
		DurationUnit:      types.DurationUnitMonth,
		TrialDuration:     14,
		TrialDurationUnit: types.DurationUnitDay,
	})

	s.taxrates.Add(&taxrate.TaxRate{
		ID:          "tax_us",
		Title:       "US Tax",
		Country:     "US",
		TaxCategory: "default",
		Rate:        s.dec("10"),
		Type:        types.AmountTypePercentage,
	})
}

func (s *CheckoutServiceSuite) dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	s.Require().NoError(err)
	return d
}

func (s *CheckoutServiceSuite) assertAmount(expected string, actual decimal.Decimal) {
	s.True(s.dec(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func (s *CheckoutServiceSuite) build(req CheckoutRequest) *cart.Cart {
	c, err := s.service.BuildCart(s.ctx, req)
	s.Require().NoError(err)
	return c
}

func (s *CheckoutServiceSuite) errorCodes(c *cart.Cart) []string {
	codes := make([]string, 0, len(c.Errors()))
	for _, e := range c.Errors() {
		codes = append(codes, e.Code)
	}
	return codes
}

func (s *CheckoutServiceSuite) TestNewCartWithPlan() {
	c := s.build(CheckoutRequest{
		CustomerID: "cust_1",
		Products:   []string{"prod_gold"},
		Country:    "US",
	})

	s.Equal(types.CartTypeNew, c.Type)
	s.True(c.IsValid())
	s.Len(c.LineItems(), 2)

	s.assertAmount("40", c.Subtotal())
	s.assertAmount("4", c.TotalTaxes())
	s.assertAmount("44", c.Total())
	s.assertAmount("33", c.RecurringTotal())
	s.assertAmount("11", c.TotalFees(false))
	s.Equal("usd", c.Currency)
	s.Equal("prod_gold", c.PlanID)
}

func (s *CheckoutServiceSuite) TestResolvesProductBySlug() {
	c := s.build(CheckoutRequest{
		CustomerID: "cust_1",
		Products:   []string{"gold"},
		Country:    "US",
	})

	s.True(c.IsValid())
	s.Equal("prod_gold", c.PlanID)
}

func (s *CheckoutServiceSuite) TestMissingProduct() {
	c := s.build(CheckoutRequest{
		CustomerID: "cust_1",
		Products:   []string{"does-not-exist"},
	})

	s.False(c.IsValid())
	s.Contains(s.errorCodes(c), cart.ErrCodeMissingProduct)
}

func (s *CheckoutServiceSuite) TestSecondPlanRejected() {
	c := s.build(CheckoutRequest{
		CustomerID: "cust_1",
		Products:   []string{"prod_gold", "prod_silver"},
		Country:    "US",
	})

	s.False(c.IsValid())
	s.Contains(s.errorCodes(c), cart.ErrCodePlanAlreadyAdded)
	s.Equal("prod_gold", c.PlanID)
}

func (s *CheckoutServiceSuite) TestMissingPriceVariation() {
	c := s.build(CheckoutRequest{
		CustomerID:   "cust_1",
		Products:     []string{"prod_silver"},
		Duration:     1,
		DurationUnit: types.DurationUnitYear,
		Country:      "US",
	})

	s.False(c.IsValid())
	s.Contains(s.errorCodes(c), cart.ErrCodeMissingPriceVariation)
}

func (s *CheckoutServiceSuite) TestPriceVariationRepricesPlan() {
	c := s.build(CheckoutRequest{
		CustomerID:   "cust_1",
		Products:     []string{"prod_gold"},
		Duration:     1,
		DurationUnit: types.DurationUnitYear,
		Country:      "US",
	})

	s.True(c.IsValid())
	// 300 + 30 tax + 10 fee + 1 tax.
	s.assertAmount("341", c.Total())
}

func (s *CheckoutServiceSuite) TestDiscountCode() {
	s.discounts.Add(&discount.Code{
		ID:    "disc_1",
		Code:  "WELCOME10",
		Value: s.dec("10"),
		Type:  types.AmountTypePercentage,
	})

	c := s.build(CheckoutRequest{
		CustomerID:   "cust_1",
		Products:     []string{"prod_gold"},
		Country:      "US",
		DiscountCode: "welcome10",
	})

	s.True(c.IsValid())
	s.True(c.HasDiscount())

	// Product: 30 - 3 discount, taxed on 27. Fee: no setup fee rate on
	// the code, so full 10 + 1 tax.
	s.assertAmount("-3", c.TotalDiscounts())
	s.assertAmount("40.7", c.Total())

	// The discount does not apply to renewals, so the renewal cycle
	// pays full price.
	s.assertAmount("33", c.RecurringTotal())
}

func (s *CheckoutServiceSuite) TestDiscountCodeAppliesToRenewals() {
	s.discounts.Add(&discount.Code{
		ID:              "disc_2",
		Code:            "FOREVER10",
		Value:           s.dec("10"),
		Type:            types.AmountTypePercentage,
		ApplyToRenewals: true,
	})

	c := s.build(CheckoutRequest{
		CustomerID:   "cust_1",
		Products:     []string{"prod_gold"},
		Country:      "US",
		DiscountCode: "FOREVER10",
	})

	// 27 + 2.7 tax on the recurring product item.
	s.assertAmount("29.7", c.RecurringTotal())
}

func (s *CheckoutServiceSuite) TestUnknownDiscountCode() {
	c := s.build(CheckoutRequest{
		CustomerID:   "cust_1",
		Products:     []string{"prod_gold"},
		Country:      "US",
		DiscountCode: "NOPE",
	})

	s.False(c.IsValid())
	s.Contains(s.errorCodes(c), cart.ErrCodeDiscountCode)
}

func (s *CheckoutServiceSuite) TestExpiredDiscountCode() {
	expired := s.now.AddDate(0, -1, 0)
	s.discounts.Add(&discount.Code{
		ID:         "disc_3",
		Code:       "OLDTIMES",
		Value:      s.dec("50"),
		Type:       types.AmountTypePercentage,
		ValidUntil: &expired,
	})

	c := s.build(CheckoutRequest{
		CustomerID:   "cust_1",
		Products:     []string{"prod_gold"},
		Country:      "US",
		DiscountCode: "OLDTIMES",
	})

	s.False(c.IsValid())
	s.Contains(s.errorCodes(c), cart.ErrCodeDiscountCode)
	s.Nil(c.DiscountCode)
}

func (s *CheckoutServiceSuite) TestAbsoluteDiscountCapped() {
	s.discounts.Add(&discount.Code{
		ID:    "disc_4",
		Code:  "BIGCUT",
		Value: s.dec("1000"),
		Type:  types.AmountTypeAbsolute,
	})

	c := s.build(CheckoutRequest{
		CustomerID:   "cust_1",
		Products:     []string{"prod_gold"},
		Country:      "US",
		DiscountCode: "BIGCUT",
	})

	// The discount cannot credit past the product subtotal; only the
	// fee item remains payable.
	s.assertAmount("-30", c.TotalDiscounts())
	s.assertAmount("11", c.Total())
	s.True(c.Total().GreaterThanOrEqual(decimal.Zero))
}

func (s *CheckoutServiceSuite) TestDiscountRestrictedToOtherProduct() {
	s.discounts.Add(&discount.Code{
		ID:              "disc_5",
		Code:            "SILVERONLY",
		Value:           s.dec("10"),
		Type:            types.AmountTypePercentage,
		AllowedProducts: []string{"prod_silver"},
	})

	c := s.build(CheckoutRequest{
		CustomerID:   "cust_1",
		Products:     []string{"prod_gold"},
		Country:      "US",
		DiscountCode: "SILVERONLY",
	})

	// Valid code, wrong product: the item keeps its full price.
	s.True(c.IsValid())
	s.False(c.HasDiscount())
	s.assertAmount("44", c.Total())
}

func (s *CheckoutServiceSuite) TestUpgradeWithProratedCredit() {
	expiration := s.now.Add(15 * 24 * time.Hour)
	s.memberships.Add(&membership.Membership{
		ID:             "mem_1",
		CustomerID:     "cust_1",
		PlanID:         "prod_silver",
		Status:         types.MembershipStatusActive,
		Amount:         s.dec("30"),
		Currency:       "usd",
		Country:        "US",
		Recurring:      true,
		Duration:       30,
		DurationUnit:   types.DurationUnitDay,
		DateExpiration: &expiration,
		TimesBilled:    1,
	})

	c := s.build(CheckoutRequest{
		CustomerID:   "cust_1",
		MembershipID: "mem_1",
		Products:     []string{"prod_gold"},
	})

	s.Equal(types.CartTypeUpgrade, c.Type)
	s.True(c.IsValid())

	credits := c.LineItemsByType(types.LineItemTypeCredit)
	s.Require().Len(credits, 1)

	// 15 unused days at 1/day, plus the smaller signup fee (5) taxed
	// at 10%.
	s.assertAmount("-20.5", credits[0].UnitPrice)
	s.Equal("Credit", credits[0].Title)

	// 30 + 3 tax + 10 fee + 1 tax - 20.50 credit.
	s.assertAmount("23.5", c.Total())
}

func (s *CheckoutServiceSuite) TestLifetimeMembershipUpgradeCreditsInitialAmount() {
	s.memberships.Add(&membership.Membership{
		ID:            "mem_life",
		CustomerID:    "cust_1",
		PlanID:        "prod_silver",
		Status:        types.MembershipStatusActive,
		Amount:        decimal.Zero,
		InitialAmount: s.dec("100"),
		Currency:      "usd",
		Country:       "US",
		Recurring:     false,
	})

	c := s.build(CheckoutRequest{
		CustomerID:   "cust_1",
		MembershipID: "mem_life",
		Products:     []string{"prod_gold"},
	})

	s.Equal(types.CartTypeUpgrade, c.Type)

	credits := c.LineItemsByType(types.LineItemTypeCredit)
	s.Require().Len(credits, 1)
	s.assertAmount("-105.5", credits[0].UnitPrice)

	// The credit exceeds the charge; the total clamps at zero instead
	// of going negative.
	s.assertAmount("0", c.Total())
	s.True(c.IsFree())
}

func (s *CheckoutServiceSuite) TestTrialingMembershipEarnsNoCredit() {
	expiration := s.now.Add(20 * 24 * time.Hour)
	s.memberships.Add(&membership.Membership{
		ID:             "mem_trialing",
		CustomerID:     "cust_1",
		PlanID:         "prod_silver",
		Status:         types.MembershipStatusTrialing,
		Amount:         s.dec("10"),
		Currency:       "usd",
		Country:        "US",
		Recurring:      true,
		Duration:       1,
		DurationUnit:   types.DurationUnitMonth,
		DateExpiration: &expiration,
	})

	c := s.build(CheckoutRequest{
		CustomerID:   "cust_1",
		MembershipID: "mem_trialing",
		Products:     []string{"prod_gold"},
	})

	s.Equal(types.CartTypeUpgrade, c.Type)
	s.Empty(c.LineItemsByType(types.LineItemTypeCredit))
}

func (s *CheckoutServiceSuite) TestDowngradeSchedulesSwapCredit() {
	expiration := s.now.AddDate(0, 0, 20)
	s.memberships.Add(&membership.Membership{
		ID:             "mem_2",
		CustomerID:     "cust_1",
		PlanID:         "prod_gold",
		Status:         types.MembershipStatusActive,
		Amount:         s.dec("30"),
		Currency:       "usd",
		Country:        "US",
		Recurring:      true,
		Duration:       1,
		DurationUnit:   types.DurationUnitMonth,
		DateExpiration: &expiration,
	})

	c := s.build(CheckoutRequest{
		CustomerID:   "cust_1",
		MembershipID: "mem_2",
		Products:     []string{"prod_silver"},
	})

	s.Equal(types.CartTypeDowngrade, c.Type)
	s.True(c.IsValid())

	credits := c.LineItemsByType(types.LineItemTypeCredit)
	s.Require().Len(credits, 1)
	s.Equal("Scheduled Swap Credit", credits[0].Title)
	s.Equal("Swap scheduled to next billing cycle.", credits[0].Description)

	// Nothing due today; the renewal totals reflect the new plan.
	s.assertAmount("0", c.Total())
	s.assertAmount("11", c.RecurringTotal())

	// The swap takes effect when the paid cycle ends.
	snap, err := s.service.Build(s.ctx, CheckoutRequest{
		CustomerID:   "cust_1",
		MembershipID: "mem_2",
		Products:     []string{"prod_silver"},
	})
	s.Require().NoError(err)
	s.Require().NotNil(snap.Dates.NextCharge)
	s.True(snap.Dates.NextCharge.Equal(expiration))
}

func (s *CheckoutServiceSuite) TestYearlyToMonthlySamePlanIsDowngrade() {
	expiration := s.now.AddDate(0, 6, 0)
	s.memberships.Add(&membership.Membership{
		ID:             "mem_3",
		CustomerID:     "cust_1",
		PlanID:         "prod_gold",
		Status:         types.MembershipStatusActive,
		Amount:         s.dec("300"),
		Currency:       "usd",
		Country:        "US",
		Recurring:      true,
		Duration:       1,
		DurationUnit:   types.DurationUnitYear,
		DateExpiration: &expiration,
	})

	c := s.build(CheckoutRequest{
		CustomerID:   "cust_1",
		MembershipID: "mem_3",
		Products:     []string{"prod_gold"},
	})

	// Paying less overall on the same plan swaps at cycle end.
	s.Equal(types.CartTypeDowngrade, c.Type)
	s.assertAmount("0", c.Total())
	s.Require().Len(c.LineItemsByType(types.LineItemTypeCredit), 1)
}

func (s *CheckoutServiceSuite) TestActiveLongerCycleBlocksPricierShortCycle() {
	// Bronze only bills yearly and undercuts Gold's yearly variation
	// by a wide margin per day.
	s.products.Add(&product.Product{
		ID:           "prod_bronze",
		Slug:         "bronze",
		Name:         "Bronze",
		Type:         types.ProductTypePlan,
		Hash:         "BR0NZE",
		Amount:       s.dec("60"),
		Currency:     "usd",
		Recurring:    true,
		Duration:     1,
		DurationUnit: types.DurationUnitYear,
		Taxable:      true,
		TaxCategory:  "default",
	})

	expiration := s.now.AddDate(0, 6, 0)
	s.memberships.Add(&membership.Membership{
		ID:             "mem_bronze",
		CustomerID:     "cust_1",
		PlanID:         "prod_bronze",
		Status:         types.MembershipStatusActive,
		Amount:         s.dec("60"),
		Currency:       "usd",
		Country:        "US",
		Recurring:      true,
		Duration:       1,
		DurationUnit:   types.DurationUnitYear,
		DateExpiration: &expiration,
	})

	c := s.build(CheckoutRequest{
		CustomerID:   "cust_1",
		MembershipID: "mem_bronze",
		Products:     []string{"prod_gold"},
	})

	// The paid yearly cycle still runs; selling a pricier monthly
	// cycle on top of it would double-charge the customer.
	s.False(c.IsValid())
	s.Contains(s.errorCodes(c), cart.ErrCodeNoChanges)
	s.Empty(c.LineItems())
}

func (s *CheckoutServiceSuite) TestAddonPurchase() {
	expiration := s.now.Add(15 * 24 * time.Hour)
	s.memberships.Add(&membership.Membership{
		ID:             "mem_4",
		CustomerID:     "cust_1",
		PlanID:         "prod_gold",
		Status:         types.MembershipStatusActive,
		Amount:         s.dec("30"),
		Currency:       "usd",
		Country:        "US",
		Recurring:      true,
		Duration:       30,
		DurationUnit:   types.DurationUnitDay,
		DateExpiration: &expiration,
		TimesBilled:    2,
	})

	c := s.build(CheckoutRequest{
		CustomerID:   "cust_1",
		MembershipID: "mem_4",
		Products:     []string{"prod_seats"},
	})

	s.Equal(types.CartTypeAddon, c.Type)
	s.True(c.IsValid())

	// The membership already paid the signup fee on its first invoice.
	s.Empty(c.LineItemsByType(types.LineItemTypeFee))

	credits := c.LineItemsByType(types.LineItemTypeCredit)
	s.Require().Len(credits, 1)
	s.assertAmount("-15", credits[0].UnitPrice)

	// Seats 5 + 0.50 tax, plan 30 + 3 tax, minus 15 credit.
	s.assertAmount("23.5", c.Total())
	s.assertAmount("38.5", c.RecurringTotal())
}

func (s *CheckoutServiceSuite) TestNoChangesProposed() {
	s.memberships.Add(&membership.Membership{
		ID:           "mem_5",
		CustomerID:   "cust_1",
		PlanID:       "prod_gold",
		Status:       types.MembershipStatusActive,
		Amount:       s.dec("30"),
		Currency:     "usd",
		Country:      "US",
		Recurring:    true,
		Duration:     1,
		DurationUnit: types.DurationUnitMonth,
	})

	c := s.build(CheckoutRequest{
		CustomerID:   "cust_1",
		MembershipID: "mem_5",
		Products:     []string{"prod_gold"},
	})

	s.False(c.IsValid())
	s.Contains(s.errorCodes(c), cart.ErrCodeNoChanges)
	s.Empty(c.LineItems())
}

func (s *CheckoutServiceSuite) TestMembershipOwnership() {
	s.memberships.Add(&membership.Membership{
		ID:         "mem_6",
		CustomerID: "cust_2",
		PlanID:     "prod_gold",
		Status:     types.MembershipStatusActive,
		Currency:   "usd",
	})

	c := s.build(CheckoutRequest{
		CustomerID:   "cust_1",
		MembershipID: "mem_6",
		Products:     []string{"prod_silver"},
	})

	s.False(c.IsValid())
	s.Contains(s.errorCodes(c), cart.ErrCodeLacksPermission)
}

func (s *CheckoutServiceSuite) TestMembershipNotFound() {
	c := s.build(CheckoutRequest{
		CustomerID:   "cust_1",
		MembershipID: "mem_missing",
		Products:     []string{"prod_gold"},
	})

	s.False(c.IsValid())
	s.Contains(s.errorCodes(c), cart.ErrCodeMembershipNotFound)
}

func (s *CheckoutServiceSuite) seedPendingPayment() {
	s.memberships.Add(&membership.Membership{
		ID:           "mem_pay",
		CustomerID:   "cust_1",
		PlanID:       "prod_gold",
		Status:       types.MembershipStatusPending,
		Amount:       s.dec("33"),
		Currency:     "usd",
		Country:      "US",
		Recurring:    true,
		Duration:     1,
		DurationUnit: types.DurationUnitMonth,
	})

	// The payment's line items are the ones a fresh gold checkout
	// produces.
	original := s.build(CheckoutRequest{
		CustomerID: "cust_1",
		Products:   []string{"prod_gold"},
		Country:    "US",
	})
	data := original.ToPaymentData()

	s.payments.Add(&payment.Payment{
		ID:           "pay_1",
		CustomerID:   "cust_1",
		MembershipID: "mem_pay",
		Status:       types.PaymentStatusPending,
		Currency:     data.Currency,
		Subtotal:     data.Subtotal,
		TaxTotal:     data.TaxTotal,
		Total:        data.Total,
		LineItems:    data.LineItems,
	})
}

func (s *CheckoutServiceSuite) TestPaymentRetry() {
	s.seedPendingPayment()

	c := s.build(CheckoutRequest{
		CustomerID: "cust_1",
		PaymentID:  "pay_1",
		Country:    "US",
	})

	s.Equal(types.CartTypeRetry, c.Type)
	s.True(c.IsValid())
	s.Equal("mem_pay", c.MembershipID)
	s.Equal("pay_1", c.PaymentID)

	// The retry cart reproduces the original charge.
	s.Len(c.LineItems(), 2)
	s.assertAmount("40", c.Subtotal())
	s.assertAmount("44", c.Total())
}

func (s *CheckoutServiceSuite) TestPaymentRetryOwnership() {
	s.seedPendingPayment()

	c := s.build(CheckoutRequest{
		CustomerID: "cust_intruder",
		PaymentID:  "pay_1",
	})

	s.False(c.IsValid())
	s.Contains(s.errorCodes(c), cart.ErrCodeLacksPermission)
}

func (s *CheckoutServiceSuite) TestPaymentNotFound() {
	c := s.build(CheckoutRequest{
		CustomerID: "cust_1",
		PaymentID:  "pay_missing",
	})

	s.False(c.IsValid())
	s.Contains(s.errorCodes(c), cart.ErrCodePaymentNotFound)
}

func (s *CheckoutServiceSuite) TestPaymentNonRetryableStatus() {
	s.seedPendingPayment()

	pay, err := s.payments.Get(s.ctx, "pay_1")
	s.Require().NoError(err)
	pay.Status = types.PaymentStatusFailed

	c := s.build(CheckoutRequest{
		CustomerID: "cust_1",
		PaymentID:  "pay_1",
		Country:    "US",
	})

	s.False(c.IsValid())
	s.Contains(s.errorCodes(c), cart.ErrCodeInvalidStatus)
}

func (s *CheckoutServiceSuite) TestCompletedPaymentFallsThrough() {
	s.seedPendingPayment()

	pay, err := s.payments.Get(s.ctx, "pay_1")
	s.Require().NoError(err)
	pay.Status = types.PaymentStatusCompleted

	c := s.build(CheckoutRequest{
		CustomerID: "cust_1",
		PaymentID:  "pay_1",
		Country:    "US",
	})

	// A settled payment is not retried; the cart is treated as a
	// fresh checkout of the same items.
	s.NotEqual(types.CartTypeRetry, c.Type)
	s.True(c.IsValid())
	s.assertAmount("44", c.Total())
}

func (s *CheckoutServiceSuite) TestTaxSpecificityWins() {
	s.taxrates.Add(&taxrate.TaxRate{
		ID:          "tax_ca",
		Title:       "CA Tax",
		Country:     "US",
		State:       "CA",
		TaxCategory: "default",
		Rate:        s.dec("7.25"),
		Type:        types.AmountTypePercentage,
	})

	c := s.build(CheckoutRequest{
		CustomerID: "cust_1",
		Products:   []string{"prod_gold"},
		Country:    "US",
		State:      "CA",
	})

	items := c.LineItemsByType(types.LineItemTypeProduct)
	s.Require().Len(items, 1)
	s.Equal("CA Tax", items[0].TaxLabel)
	s.assertAmount("7.25", items[0].TaxRate)
}

func (s *CheckoutServiceSuite) TestTaxExemptCustomer() {
	c := s.build(CheckoutRequest{
		CustomerID: "cust_1",
		Products:   []string{"prod_gold"},
		Country:    "US",
		TaxExempt:  true,
	})

	s.assertAmount("0", c.TotalTaxes())
	s.assertAmount("40", c.Total())
}

func (s *CheckoutServiceSuite) TestInclusiveTax() {
	s.cfg.Checkout.InclusiveTax = true

	c := s.build(CheckoutRequest{
		CustomerID: "cust_1",
		Products:   []string{"prod_gold"},
		Country:    "US",
	})

	// Catalog prices already contain the tax, so the total equals the
	// subtotal while the extracted tax portion stays visible.
	s.assertAmount("40", c.Total())
	s.assertAmount("3.64", c.TotalTaxes())
}

func (s *CheckoutServiceSuite) TestTaxesDisabled() {
	s.cfg.Checkout.CollectTaxes = false

	c := s.build(CheckoutRequest{
		CustomerID: "cust_1",
		Products:   []string{"prod_gold"},
		Country:    "US",
	})

	s.assertAmount("0", c.TotalTaxes())
	s.assertAmount("40", c.Total())
}

func (s *CheckoutServiceSuite) TestTrialCart() {
	snap, err := s.service.Build(s.ctx, CheckoutRequest{
		CustomerID: "cust_1",
		Products:   []string{"prod_trial"},
	})
	s.Require().NoError(err)

	s.True(snap.HasTrial)
	s.True(snap.ShouldCollectPayment)

	s.Require().NotNil(snap.Dates.TrialEnd)
	s.True(snap.Dates.TrialEnd.Equal(s.now.AddDate(0, 0, 14)))
}

func (s *CheckoutServiceSuite) TestTrialBlockedForReturningCustomer() {
	snap, err := s.service.Build(s.ctx, CheckoutRequest{
		CustomerID:         "cust_1",
		Products:           []string{"prod_trial"},
		CustomerHasTrialed: true,
	})
	s.Require().NoError(err)

	s.False(snap.HasTrial)
}

func (s *CheckoutServiceSuite) TestTrialWithoutPaymentSetting() {
	s.cfg.Checkout.AllowTrialWithoutPayment = true

	snap, err := s.service.Build(s.ctx, CheckoutRequest{
		CustomerID: "cust_1",
		Products:   []string{"prod_trial"},
	})
	s.Require().NoError(err)

	s.True(snap.HasTrial)
	s.False(snap.ShouldCollectPayment)
}

func (s *CheckoutServiceSuite) TestForceAutoRenew() {
	req := CheckoutRequest{
		CustomerID: "cust_1",
		Products:   []string{"prod_gold"},
		Country:    "US",
		AutoRenew:  false,
	}

	snap, err := s.service.Build(s.ctx, req)
	s.Require().NoError(err)
	s.False(snap.AutoRenew)

	req.AutoRenew = true
	snap, err = s.service.Build(s.ctx, req)
	s.Require().NoError(err)
	s.True(snap.AutoRenew)

	req.AutoRenew = false
	s.cfg.Checkout.ForceAutoRenew = true

	snap, err = s.service.Build(s.ctx, req)
	s.Require().NoError(err)
	s.True(snap.AutoRenew)
}

func (s *CheckoutServiceSuite) TestBuildIsIdempotent() {
	req := CheckoutRequest{
		CustomerID: "cust_1",
		Products:   []string{"prod_gold"},
		Country:    "US",
	}

	first := s.build(req)
	second := s.build(req)

	s.True(first.Total().Equal(second.Total()))
	s.True(first.RecurringTotal().Equal(second.RecurringTotal()))
	s.Equal(len(first.LineItems()), len(second.LineItems()))
}

func (s *CheckoutServiceSuite) TestMembershipDataProjection() {
	c := s.build(CheckoutRequest{
		CustomerID: "cust_1",
		Products:   []string{"prod_gold", "prod_seats"},
		Country:    "US",
	})

	data := c.ToMembershipData(true)

	s.Equal("prod_gold", data.PlanID)
	s.True(data.Recurring)
	s.True(data.AutoRenew)
	s.Equal(map[string]int{"prod_seats": 1}, data.AddonProducts)
	s.True(data.InitialAmount.Equal(c.Total()))
	s.True(data.Amount.Equal(c.RecurringTotal()))
	s.Zero(data.TimesBilled)
}
