package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/subcart/subcart/internal/types"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Checkout   CheckoutConfig   `validate:"required"`
	Catalog    CatalogConfig
}

type DeploymentConfig struct {
	Mode string `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level string `validate:"required"`
}

// CatalogConfig points the server at the JSON file its catalog,
// discount codes and tax rates are loaded from.
type CatalogConfig struct {
	Path string
}

// CheckoutConfig carries the settings the pricing engine reads. These are
// the knobs a deployment flips, not per-request inputs.
type CheckoutConfig struct {
	// CompanyName prefixes the cart descriptor handed to gateways.
	CompanyName string

	// CollectTaxes enables tax application on taxable line items.
	CollectTaxes bool

	// InclusiveTax treats catalog prices as already containing tax.
	InclusiveTax bool

	// ForceAutoRenew marks every recurring checkout as auto-renewing.
	ForceAutoRenew bool

	// AllowTrialWithoutPayment skips payment method collection for
	// carts that start with a trial.
	AllowTrialWithoutPayment bool

	// RetryablePaymentStatuses is the allowlist of payment statuses a
	// retry cart may recover. Defaults to pending only.
	RetryablePaymentStatuses []types.PaymentStatus
}

// IsRetryableStatus reports whether a payment in the given status can be
// recovered by a retry cart.
func (c CheckoutConfig) IsRetryableStatus(status types.PaymentStatus) bool {
	for _, allowed := range c.RetryablePaymentStatuses {
		if allowed == status {
			return true
		}
	}
	return false
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/subcart")

	v.SetEnvPrefix("SUBCART")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", "local")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", "info")
	v.SetDefault("checkout.collecttaxes", true)
	v.SetDefault("checkout.retryablepaymentstatuses", []string{string(types.PaymentStatusPending)})
	v.SetDefault("catalog.path", "catalog.json")
}

func (c Configuration) Validate() error {
	return validator.New().Struct(c)
}

// DefaultCheckoutConfig returns the checkout settings used when no
// configuration file is present. Also used by tests.
func DefaultCheckoutConfig() CheckoutConfig {
	return CheckoutConfig{
		CollectTaxes:             true,
		RetryablePaymentStatuses: []types.PaymentStatus{types.PaymentStatusPending},
	}
}
