package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/subcart/subcart/internal/domain/cart"
	"github.com/subcart/subcart/internal/domain/membership"
	"github.com/subcart/subcart/internal/domain/payment"
	"github.com/subcart/subcart/internal/domain/product"
	"github.com/subcart/subcart/internal/domain/taxrate"
	ierr "github.com/subcart/subcart/internal/errors"
	"github.com/subcart/subcart/internal/types"
	"github.com/subcart/subcart/internal/validator"
)

// CheckoutRequest is the raw transaction description a checkout form or
// API client submits. Everything is optional except that at least one
// of Products, MembershipID or PaymentID must be set for the cart to
// propose any change.
type CheckoutRequest struct {
	CartType types.CartType `json:"cart_type" validate:"omitempty,oneof=new renewal upgrade downgrade addon retry"`

	CustomerID   string `json:"customer_id"`
	MembershipID string `json:"membership_id"`
	PaymentID    string `json:"payment_id"`

	// Products are catalog ids or slugs.
	Products []string `json:"products"`

	DiscountCode string `json:"discount_code"`

	Country  string `json:"country"`
	State    string `json:"state"`
	City     string `json:"city"`
	Currency string `json:"currency"`

	Duration     int                `json:"duration" validate:"omitempty,min=1"`
	DurationUnit types.DurationUnit `json:"duration_unit" validate:"omitempty,oneof=day week month year"`

	AutoRenew bool `json:"auto_renew"`

	// TaxExempt flags customers whose purchases are not taxed, e.g.
	// validated VAT-registered businesses.
	TaxExempt bool `json:"tax_exempt"`

	// CustomerHasTrialed blocks a second trial for returning customers.
	CustomerHasTrialed bool `json:"customer_has_trialed"`
}

type CheckoutService interface {
	// Build classifies and prices the request, returning the snapshot
	// the checkout processor consumes. Request-level problems surface
	// as errors on the snapshot; the returned error is reserved for
	// malformed requests and infrastructure failures.
	Build(ctx context.Context, req CheckoutRequest) (*cart.Snapshot, error)

	// BuildCart runs the same classification but returns the live cart,
	// for callers that need the projection helpers.
	BuildCart(ctx context.Context, req CheckoutRequest) (*cart.Cart, error)
}

type checkoutService struct {
	ServiceParams

	// timeNow is swapped out in tests.
	timeNow func() time.Time
}

func NewCheckoutService(params ServiceParams) CheckoutService {
	return &checkoutService{
		ServiceParams: params,
		timeNow:       time.Now,
	}
}

func (s *checkoutService) Build(ctx context.Context, req CheckoutRequest) (*cart.Snapshot, error) {
	c, err := s.BuildCart(ctx, req)
	if err != nil {
		return nil, err
	}

	opts := cart.SnapshotOptions{
		CompanyName:              s.Config.Checkout.CompanyName,
		AllowTrialWithoutPayment: s.Config.Checkout.AllowTrialWithoutPayment,
		AutoRenew:                req.AutoRenew,
	}

	// The deployment may take the renewal choice away from the form.
	if s.Config.Checkout.ForceAutoRenew {
		opts.AutoRenew = true
	}

	// A downgrade takes effect when the current paid cycle ends, so the
	// next charge is the membership's expiration, not now + period.
	if c.Type == types.CartTypeDowngrade && c.MembershipID != "" {
		m, err := s.MembershipRepo.Get(ctx, c.MembershipID)
		if err == nil && m.DateExpiration != nil && !m.DateExpiration.IsZero() {
			opts.NextChargeOverride = m.DateExpiration
		}
	}

	return c.Snapshot(opts), nil
}

func (s *checkoutService) BuildCart(ctx context.Context, req CheckoutRequest) (*cart.Cart, error) {
	if err := validator.ValidateRequest(req); err != nil {
		return nil, err
	}

	now := s.timeNow().UTC()
	c := cart.New(now)

	if req.CartType != "" {
		c.Type = req.CartType
	}

	c.CustomerID = req.CustomerID
	c.Country = req.Country
	c.State = req.State
	c.City = req.City
	c.Currency = strings.ToLower(req.Currency)
	c.Duration = req.Duration
	c.DurationUnit = req.DurationUnit
	c.TrialEligible = !req.CustomerHasTrialed

	s.setDiscountCode(ctx, c, req.DiscountCode)

	b := &cartBuilder{
		svc:       s,
		cart:      c,
		req:       req,
		taxExempt: req.TaxExempt,
	}
	b.build(ctx)

	s.Logger.Debugw("cart built",
		"cart_type", c.Type,
		"customer_id", c.CustomerID,
		"line_items", len(c.LineItems()),
		"errors", len(c.Errors()),
	)

	return c, nil
}

// setDiscountCode resolves and validates the submitted code. A bad
// code is an accumulated cart error, not a hard failure, so the
// customer still sees the rest of the cart.
func (s *checkoutService) setDiscountCode(ctx context.Context, c *cart.Cart, rawCode string) {
	if rawCode == "" {
		return
	}

	code := strings.ToUpper(strings.TrimSpace(rawCode))

	dc, err := s.DiscountRepo.GetByCode(ctx, code)
	if err != nil {
		c.AddError(cart.ErrCodeDiscountCode, fmt.Sprintf("The code %s does not exist or is no longer valid.", code))
		return
	}

	if err := dc.IsValid(c.Now()); err != nil {
		c.AddError(cart.ErrCodeDiscountCode, ierr.Hint(err))
		return
	}

	c.DiscountCode = dc
}

// cartBuilder carries the per-request classification state. It is
// created for one build call and never reused.
type cartBuilder struct {
	svc  *checkoutService
	cart *cart.Cart
	req  CheckoutRequest

	payment    *payment.Payment
	membership *membership.Membership

	taxExempt bool

	// applySetupFee, when set, overrides the default setup fee decision
	// for plan products. The addon path sets it so a membership that
	// was already billed once is not charged the signup fee again.
	applySetupFee *bool
}

// build runs the classification state machine: the payment-retry path
// first, the membership-change path second, the plain product list as
// the default.
func (b *cartBuilder) build(ctx context.Context) {
	if b.buildFromPayment(ctx) {
		return
	}

	if b.buildFromMembership(ctx) {
		return
	}

	for _, ref := range b.req.Products {
		b.addProduct(ctx, ref, 1)
	}
}

// buildFromPayment recovers the cart of an existing pending payment so
// the customer can retry it. Returns true when this path handled the
// request, even if it handled it by recording an error.
func (b *cartBuilder) buildFromPayment(ctx context.Context) bool {
	if b.req.PaymentID == "" {
		return false
	}

	c := b.cart

	pay, err := b.svc.PaymentRepo.Get(ctx, b.req.PaymentID)
	if err != nil {
		c.AddError(cart.ErrCodePaymentNotFound, "The payment in question was not found.")
		return true
	}

	b.payment = pay
	c.PaymentID = pay.ID
	c.Currency = pay.Currency

	if c.CustomerID == "" || c.CustomerID != pay.CustomerID {
		c.AddError(cart.ErrCodeLacksPermission, "You are not allowed to modify this payment.")
		return true
	}

	m, err := b.svc.MembershipRepo.Get(ctx, pay.MembershipID)
	if err != nil {
		c.AddError(cart.ErrCodeMembershipNotFound, "The membership in question was not found.")
		return true
	}

	b.membership = m
	c.MembershipID = m.ID
	c.Duration = m.Duration
	c.DurationUnit = m.DurationUnit

	// The payment's code takes precedence over whatever the form sent.
	if pay.DiscountCode != "" {
		if dc, err := b.svc.DiscountRepo.GetByCode(ctx, strings.ToUpper(pay.DiscountCode)); err == nil {
			c.DiscountCode = dc
		}
	}

	b.copyPaymentLineItems(ctx, pay)

	if pay.IsCompleted() {
		// Someone else settled it in the meantime. Fall through so a
		// membership change can still be classified.
		return false
	}

	if !b.svc.Config.Checkout.IsRetryableStatus(pay.Status) {
		c.AddError(cart.ErrCodeInvalidStatus, fmt.Sprintf("Payments with the %s status cannot be retried.", pay.Status))
		return true
	}

	// An already-provisioned membership means the payment recovery has
	// nothing left to collect for.
	if m.IsActive() || (m.IsTrialing() && !c.HasTrial()) {
		return false
	}

	c.Type = types.CartTypeRetry
	return true
}

// copyPaymentLineItems re-creates the payment's line items on the cart,
// re-resolving product snapshots so catalog changes and price
// variations are honored.
func (b *cartBuilder) copyPaymentLineItems(ctx context.Context, pay *payment.Payment) {
	c := b.cart

	for _, item := range pay.LineItems {
		li := item.Clone()

		if li.ProductID != "" {
			p, err := b.svc.ProductRepo.Get(ctx, li.ProductID)
			if err == nil {
				if p.Recurring && !p.MatchesPeriod(c.Duration, c.DurationUnit) {
					if v := p.AsVariation(c.Duration, c.DurationUnit); v != nil {
						p = v
					}
				}

				c.AddProductRef(p)

				if li.Type == types.LineItemTypeProduct && p.Type == types.ProductTypePlan && !c.HasPlan() {
					c.PlanID = p.ID
					c.BillingCycles = p.BillingCycles
					c.Duration = li.Duration
					c.DurationUnit = li.DurationUnit
				}
			}
		}

		b.addLineItem(ctx, li)
	}
}

// buildFromMembership classifies a change against an existing
// membership: upgrade, downgrade, addon, or no change at all. Returns
// true when this path handled the request.
func (b *cartBuilder) buildFromMembership(ctx context.Context) bool {
	if b.req.MembershipID == "" {
		return false
	}

	c := b.cart

	// Provisional. Narrowed to addon or downgrade below.
	c.Type = types.CartTypeUpgrade

	m := b.membership
	if m == nil || m.ID != b.req.MembershipID {
		var err error
		m, err = b.svc.MembershipRepo.Get(ctx, b.req.MembershipID)
		if err != nil {
			c.AddError(cart.ErrCodeMembershipNotFound, "The membership in question was not found.")
			return true
		}
		b.membership = m
	}

	c.MembershipID = m.ID

	if c.CustomerID == "" || c.CustomerID != m.CustomerID {
		c.AddError(cart.ErrCodeLacksPermission, "You are not allowed to modify this membership.")
		return true
	}

	if c.Country == "" {
		c.Country = m.Country
	}
	c.Currency = m.Currency

	// Keep the code the membership was bought with, unless the request
	// carried its own.
	if c.DiscountCode == nil && m.DiscountCode != "" {
		if dc, err := b.svc.DiscountRepo.GetByCode(ctx, strings.ToUpper(m.DiscountCode)); err == nil {
			c.DiscountCode = dc
		}
	}

	if len(b.req.Products) == 0 {
		if b.payment != nil {
			return false
		}
		c.AddError(cart.ErrCodeNoChanges, "This cart proposes no changes to the current membership.")
		return true
	}

	for _, ref := range b.req.Products {
		b.addProduct(ctx, ref, 1)
	}

	// Only addons submitted: keep the current plan and prorate nothing
	// but the new products.
	if !c.HasPlan() {
		if len(c.Products()) == 0 {
			c.AddError(cart.ErrCodeNoChanges, "This cart proposes no changes to the current membership.")
			return true
		}
		b.classifyAddon(ctx, m)
		return true
	}

	planChanged := m.PlanID != c.PlanID ||
		m.Duration != c.Duration ||
		m.DurationUnit != c.DurationUnit

	if len(c.Products()) > 1 && !planChanged {
		b.classifyAddon(ctx, m)
		return true
	}

	if !planChanged {
		c.Clear()
		c.AddError(cart.ErrCodeNoChanges, "This cart proposes no changes to the current membership.")
		return true
	}

	// Moving onto a lifetime plan is always an upgrade.
	if !c.HasRecurring() && !c.IsFree() {
		b.prorateCredits(ctx)
		return true
	}

	b.classifyPlanChange(ctx, m)

	if c.Type == types.CartTypeUpgrade {
		b.prorateCredits(ctx)
	}

	return true
}

// classifyAddon marks the cart as an addon purchase and re-adds the
// membership's current plan so totals and the renewal period stay
// anchored to it.
func (b *cartBuilder) classifyAddon(ctx context.Context, m *membership.Membership) {
	c := b.cart
	c.Type = types.CartTypeAddon

	plan, err := b.svc.ProductRepo.Get(ctx, m.PlanID)
	if err == nil && !m.IsFree() {
		c.Duration = plan.Duration
		c.DurationUnit = plan.DurationUnit
	}

	// The signup fee was settled on the first invoice; never charge it
	// again for a membership that has billed at least once.
	apply := m.TimesBilled <= 0
	b.applySetupFee = &apply

	b.addProduct(ctx, m.PlanID, 1)
	b.prorateCredits(ctx)
}

// classifyPlanChange compares the current membership against the cart's
// plan on a price-per-day basis and narrows the provisional upgrade to
// a downgrade where appropriate.
func (b *cartBuilder) classifyPlanChange(ctx context.Context, m *membership.Membership) {
	c := b.cart

	daysOld := types.DaysInCycle(m.DurationUnit, m.Duration)
	daysNew := types.DaysInCycle(c.DurationUnit, c.Duration)

	oldPerDay := perDay(m.Amount, daysOld)
	newPerDay := perDay(c.RecurringTotal(), daysNew)

	samePlan := m.PlanID == c.PlanID

	// Different cycle lengths make the raw comparison unfair. Re-read
	// both plans through price variations settling on a common period;
	// when no common period exists, fall back to the raw numbers.
	if !daysOld.Equal(daysNew) {
		oldPlan, err := b.svc.ProductRepo.Get(ctx, m.PlanID)
		newPlan := c.Plan()

		if err == nil && oldPlan != nil && newPlan != nil {
			if op, np, ok := b.samePeriodPlans(oldPlan, newPlan); ok {
				oldPerDay = perDay(op.Amount, types.DaysInCycle(op.DurationUnit, op.Duration))
				newPerDay = perDay(np.Amount, types.DaysInCycle(np.DurationUnit, np.Duration))
			}
		}
	}

	// Same daily price on a shorter cycle while the current agreement
	// still runs: there is nothing to sell.
	if !m.IsFree() && m.IsActive() &&
		oldPerDay.LessThan(newPerDay) && daysOld.GreaterThan(daysNew) {
		c.Clear()
		c.AddError(cart.ErrCodeNoChanges, fmt.Sprintf("You already have an active agreement with a %d %s billing period.", m.Duration, m.DurationUnit))
		return
	}

	isDowngrade := (samePlan && m.Amount.GreaterThan(c.RecurringTotal())) ||
		(!samePlan && oldPerDay.GreaterThan(newPerDay))

	if !isDowngrade {
		return
	}

	c.Type = types.CartTypeDowngrade

	// The swap happens at the end of the paid cycle, so nothing is due
	// today. The credit zeroes out the cart without touching the
	// renewal totals.
	if m.IsActive() || m.IsTrialing() {
		params := cart.LineItemParams{
			Type:        types.LineItemTypeCredit,
			Title:       "Scheduled Swap Credit",
			Description: "Swap scheduled to next billing cycle.",
			Quantity:    1,
			UnitPrice:   c.Total().Neg(),
		}
		params = b.svc.Hooks.TransformLineItem(ctx, params)
		c.AddLineItem(cart.NewLineItem(params))
	}
}

// perDay divides a per-cycle amount by the cycle length in days.
func perDay(amount, days decimal.Decimal) decimal.Decimal {
	if days.LessThanOrEqual(decimal.Zero) {
		return amount
	}
	return amount.Div(days)
}

// samePeriodPlans tries to re-read two plans onto a common billing
// period so their amounts compare fairly.
func (b *cartBuilder) samePeriodPlans(a, p *product.Product) (*product.Product, *product.Product, bool) {
	if a.MatchesPeriod(p.Duration, p.DurationUnit) {
		return a, p, true
	}

	if av := a.AsVariation(p.Duration, p.DurationUnit); av != nil {
		return av, p, true
	}

	if pv := p.AsVariation(a.Duration, a.DurationUnit); pv != nil {
		return a, pv, true
	}

	// Neither plan reaches the other's period. Try the cart's pinned
	// period as a meeting point.
	c := b.cart
	if c.Duration == 0 || c.DurationUnit == "" {
		return nil, nil, false
	}

	av := a.AsVariation(c.Duration, c.DurationUnit)
	if av == nil {
		return nil, nil, false
	}

	if p.MatchesPeriod(av.Duration, av.DurationUnit) {
		return av, p, true
	}

	if pv := p.AsVariation(c.Duration, c.DurationUnit); pv != nil {
		return av, pv, true
	}

	return nil, nil, false
}

// addProduct resolves a catalog reference and appends its line items:
// the product charge and, when applicable, its signup fee. Returns
// false when the reference could not be resolved.
func (b *cartBuilder) addProduct(ctx context.Context, ref string, quantity int) bool {
	c := b.cart

	p, err := b.svc.ProductRepo.Get(ctx, ref)
	if err != nil {
		p, err = b.svc.ProductRepo.GetBySlug(ctx, ref)
	}
	if err != nil {
		c.AddError(cart.ErrCodeMissingProduct, fmt.Sprintf("The product %s was not found.", ref))
		return false
	}

	// A recurring product joining a cart pinned to a different period
	// must re-price through one of its variations.
	if p.Recurring && c.Duration != 0 && !p.MatchesPeriod(c.Duration, c.DurationUnit) {
		v := p.AsVariation(c.Duration, c.DurationUnit)
		if v == nil {
			c.AddError(cart.ErrCodeMissingPriceVariation, fmt.Sprintf("The product %s has no price for a %d %s billing period.", p.Name, c.Duration, c.DurationUnit))
			return false
		}
		p = v
	}

	if p.Type == types.ProductTypePlan {
		if c.HasPlan() && c.PlanID != p.ID {
			c.AddError(cart.ErrCodePlanAlreadyAdded, "A cart can only hold one plan at a time.")
			return false
		}
		c.PlanID = p.ID
		c.BillingCycles = p.BillingCycles
	}

	// The first recurring product pins the cart's billing period.
	if c.Duration == 0 || !p.Recurring {
		c.Duration = p.Duration
		c.DurationUnit = p.DurationUnit
	}

	if c.Currency == "" {
		c.Currency = strings.ToLower(p.Currency)
	}

	c.AddProductRef(p)

	params := cart.LineItemParams{
		Type:     types.LineItemTypeProduct,
		Product:  p,
		Quantity: quantity,
	}
	params = b.svc.Hooks.TransformLineItem(ctx, params)
	b.addLineItem(ctx, cart.NewLineItem(params))

	b.addSetupFee(ctx, p, quantity)

	return true
}

// addSetupFee appends the product's signup fee line item unless the
// cart type, the membership history or a hook vetoes it.
func (b *cartBuilder) addSetupFee(ctx context.Context, p *product.Product, quantity int) {
	if !p.HasSetupFee() {
		return
	}

	c := b.cart

	apply := c.Type != types.CartTypeRenewal
	if b.applySetupFee != nil {
		apply = *b.applySetupFee
	}
	apply = b.svc.Hooks.ShouldApplySetupFee(ctx, apply, p)
	if !apply {
		return
	}

	title := fmt.Sprintf("Signup Fee for %s", p.Name)
	if p.SetupFee.LessThan(decimal.Zero) {
		title = fmt.Sprintf("Signup Credit for %s", p.Name)
	}

	params := cart.LineItemParams{
		Type:        types.LineItemTypeFee,
		Product:     p,
		Title:       title,
		Description: "--",
		Quantity:    quantity,
		UnitPrice:   p.SetupFee,
		Taxable:     p.Taxable,
		TaxCategory: p.TaxCategory,
		Recurring:   false,
	}
	params = b.svc.Hooks.TransformLineItem(ctx, params)
	b.addLineItem(ctx, cart.NewLineItem(params))
}

// addLineItem runs the pricing pipeline on an item before inserting it:
// discounts first, taxes on the discounted amount.
func (b *cartBuilder) addLineItem(ctx context.Context, item *cart.LineItem) {
	if item.Discountable {
		b.applyDiscount(item)
	}
	if item.Taxable {
		b.applyTaxes(ctx, item)
	}
	b.cart.AddLineItem(item)
}

// applyDiscount attaches the cart's discount code to the item. Fee
// items use the code's setup-fee rate; everything else uses the main
// rate. A code that fails per-product validation is skipped silently,
// the item just keeps its full price.
func (b *cartBuilder) applyDiscount(item *cart.LineItem) {
	code := b.cart.DiscountCode
	if code == nil {
		return
	}

	if err := code.IsValidFor(item.ProductID, b.cart.Now()); err != nil {
		return
	}

	label := strings.ToUpper(code.Code)

	if item.Type == types.LineItemTypeFee {
		if code.SetupFeeValue.LessThanOrEqual(decimal.Zero) {
			return
		}
		item.SetDiscount(code.SetupFeeValue, code.SetupFeeType, label, false)
		return
	}

	item.SetDiscount(code.Value, code.Type, label, code.ApplyToRenewals)
}

// applyTaxes attaches the winning tax rate for the cart's jurisdiction
// and the item's tax category.
func (b *cartBuilder) applyTaxes(ctx context.Context, item *cart.LineItem) {
	cfg := b.svc.Config.Checkout
	if !cfg.CollectTaxes {
		return
	}

	if item.TaxCategory == "" {
		return
	}

	c := b.cart

	rates, err := b.taxRatesFor(ctx, c.Country, item.TaxCategory, c.State, c.City)
	if err != nil {
		b.svc.Logger.Warnw("tax rate lookup failed",
			"country", c.Country,
			"tax_category", item.TaxCategory,
			"error", err,
		)
		return
	}

	winner := pickTaxRate(rates)
	if winner == nil {
		return
	}

	item.SetTax(winner.Rate, winner.Type, winner.Title, cfg.InclusiveTax, b.taxExempt)
}

// pickTaxRate chooses a single rate out of all matches: the most
// jurisdiction-specific one, then the highest, so a city override beats
// its country default.
func pickTaxRate(rates []*taxrate.TaxRate) *taxrate.TaxRate {
	var winner *taxrate.TaxRate

	for _, rate := range rates {
		if winner == nil {
			winner = rate
			continue
		}
		if rate.Specificity() > winner.Specificity() {
			winner = rate
			continue
		}
		if rate.Specificity() == winner.Specificity() && rate.Rate.GreaterThan(winner.Rate) {
			winner = rate
		}
	}

	return winner
}

// taxRatesFor looks up the applicable rates, caching per jurisdiction
// and category. Rates change rarely and every taxable item in a cart
// hits the same key.
func (b *cartBuilder) taxRatesFor(ctx context.Context, country, category, state, city string) ([]*taxrate.TaxRate, error) {
	key := fmt.Sprintf("taxrates:%s:%s:%s:%s", country, category, state, city)

	if cached, ok := b.svc.Cache.Get(ctx, key); ok {
		if rates, ok := cached.([]*taxrate.TaxRate); ok {
			return rates, nil
		}
	}

	rates, err := b.svc.TaxRateRepo.RatesFor(ctx, country, category, state, city)
	if err != nil {
		return nil, err
	}

	b.svc.Cache.Set(ctx, key, rates, 5*time.Minute)
	return rates, nil
}

// prorateCredits computes the unused value of the current membership
// and appends it as a credit line item. Trialing memberships paid
// nothing, so they earn nothing.
func (b *cartBuilder) prorateCredits(ctx context.Context) {
	m := b.membership
	if m == nil || m.IsTrialing() {
		return
	}

	c := b.cart

	var credit decimal.Decimal

	if m.IsLifetime() {
		// A lifetime membership has no cycle to prorate; credit what
		// was actually paid up front.
		credit = m.InitialAmount
	} else {
		daysUnused := decimal.NewFromInt(int64(m.RemainingDaysInCycle(c.Now())))
		daysInCycle := types.DaysInCycle(m.DurationUnit, m.Duration)

		credit = perDay(m.Amount, daysInCycle).Mul(daysUnused)
		if credit.GreaterThan(m.Amount) {
			credit = m.Amount
		}
	}

	if credit.IsZero() {
		return
	}

	credit = credit.Add(b.setupFeeCredit(ctx, m))

	credit = b.svc.Hooks.AdjustProratedCredit(ctx, credit)
	credit = types.RoundCurrency(credit, c.Currency)

	if credit.IsZero() {
		return
	}

	params := cart.LineItemParams{
		Type:        types.LineItemTypeCredit,
		Title:       "Credit",
		Description: "Prorated amount based on the previous membership.",
		Quantity:    1,
		UnitPrice:   credit.Neg(),
	}
	params = b.svc.Hooks.TransformLineItem(ctx, params)
	c.AddLineItem(cart.NewLineItem(params))
}

// setupFeeCredit returns the smaller of the old and new plans' signup
// fees, taxed the way the fee itself would be, so a customer switching
// plans is not charged the signup fee twice. Applies only when the cart
// charges a fee or the change is an upgrade.
func (b *cartBuilder) setupFeeCredit(ctx context.Context, m *membership.Membership) decimal.Decimal {
	c := b.cart

	hasFeeItems := len(c.LineItemsByType(types.LineItemTypeFee)) > 0
	if !hasFeeItems && c.Type != types.CartTypeUpgrade {
		return decimal.Zero
	}

	oldPlan, err := b.svc.ProductRepo.Get(ctx, m.PlanID)
	if err != nil {
		return decimal.Zero
	}

	newPlan := c.Plan()
	if newPlan == nil {
		return decimal.Zero
	}

	feeCredit := oldPlan.SetupFee
	if newPlan.SetupFee.LessThan(feeCredit) {
		feeCredit = newPlan.SetupFee
	}

	if feeCredit.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	// Priced through a throwaway fee item so taxes come out identical
	// to the fee being credited. The item itself is never added.
	feeItem := cart.NewLineItem(cart.LineItemParams{
		Type:        types.LineItemTypeFee,
		Product:     oldPlan,
		Description: "--",
		Quantity:    1,
		UnitPrice:   feeCredit,
		Taxable:     oldPlan.Taxable,
		TaxCategory: oldPlan.TaxCategory,
	})
	b.applyTaxes(ctx, feeItem)

	return feeItem.Total
}
