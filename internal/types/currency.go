package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CURRENCY_CODES_SYMBOLS is a map of 3 digit ISO currency codes to their symbols
var CURRENCY_CODES_SYMBOLS = map[string]string{
	"usd": "$",
	"eur": "€",
	"gbp": "£",
	"aud": "AU$",
	"cad": "CA$",
	"chf": "CHF",
	"sek": "kr",
	"nzd": "NZ$",
	"hkd": "HK$",
	"sgd": "S$",
	"jpy": "¥",
	"cny": "¥",
	"inr": "₹",
	"brl": "R$",
	"rub": "₽",
	"mxn": "MX$",
	"krw": "₩",
	"try": "₺",
	"zar": "R",
	"myr": "RM",
}

// DEFAULT_CURRENCY_PRECISION is the decimal precision used when a
// currency has no explicit configuration.
const DEFAULT_CURRENCY_PRECISION int32 = 2

// zeroDecimalCurrencies are currencies without fractional minor units.
var zeroDecimalCurrencies = map[string]bool{
	"jpy": true,
	"krw": true,
	"vnd": true,
	"clp": true,
	"bif": true,
	"pyg": true,
	"xof": true,
	"xaf": true,
}

// CurrencyConfig holds per-currency formatting rules
type CurrencyConfig struct {
	Precision int32
	Symbol    string
}

// GetCurrencyConfig returns the config for a given 3 digit ISO currency code
func GetCurrencyConfig(code string) CurrencyConfig {
	code = strings.ToLower(code)

	config := CurrencyConfig{
		Precision: DEFAULT_CURRENCY_PRECISION,
		Symbol:    GetCurrencySymbol(code),
	}

	if zeroDecimalCurrencies[code] {
		config.Precision = 0
	}

	return config
}

// GetCurrencySymbol returns the symbol for a given currency code
// if the code is not found, it returns the code itself
func GetCurrencySymbol(code string) string {
	if symbol, ok := CURRENCY_CODES_SYMBOLS[strings.ToLower(code)]; ok {
		return symbol
	}
	return code
}

// RoundCurrency rounds an amount to the precision of the given currency.
// Every aggregate total in the cart goes through this before it is exposed.
func RoundCurrency(amount decimal.Decimal, currency string) decimal.Decimal {
	config := GetCurrencyConfig(currency)
	return amount.Round(config.Precision)
}

// FormatAmount returns the amount in the currency ex $12.00
func FormatAmount(amount decimal.Decimal, currency string) string {
	config := GetCurrencyConfig(currency)
	return fmt.Sprintf("%s%s", config.Symbol, amount.StringFixed(config.Precision))
}
