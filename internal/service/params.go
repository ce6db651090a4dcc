package service

import (
	"github.com/subcart/subcart/internal/cache"
	"github.com/subcart/subcart/internal/config"
	"github.com/subcart/subcart/internal/domain/discount"
	"github.com/subcart/subcart/internal/domain/membership"
	"github.com/subcart/subcart/internal/domain/payment"
	"github.com/subcart/subcart/internal/domain/product"
	"github.com/subcart/subcart/internal/domain/taxrate"
	"github.com/subcart/subcart/internal/hooks"
	"github.com/subcart/subcart/internal/logger"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	Cache  cache.Cache
	Hooks  hooks.Bus

	// Collaborators the pricing engine resolves entities through.
	ProductRepo    product.Repository
	MembershipRepo membership.Repository
	PaymentRepo    payment.Repository
	DiscountRepo   discount.Repository
	TaxRateRepo    taxrate.Repository
}
