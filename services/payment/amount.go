package payment

import "math"

// zeroDecimalCurrencies are ISO 4217 currencies without a minor unit
var zeroDecimalCurrencies = map[string]bool{
	"JPY": true,
	"KRW": true,
	"UGX": true,
	"XAF": true,
	"XOF": true,
}

// SupportedCurrencies are the currencies the configured gateways accept
var SupportedCurrencies = map[string]bool{
	"GHS": true,
	"NGN": true,
	"KES": true,
	"ZAR": true,
	"USD": true,
	"EUR": true,
	"GBP": true,
}

// ToMinorUnits converts a major-unit amount (e.g. 49.99) to the provider's
// minor-unit representation (e.g. 4999 pesewas/kobo/cents). Rounding, not
// truncation: 49.99 in float64 is slightly below 4999.
func ToMinorUnits(amount float64, currency string) int64 {
	if zeroDecimalCurrencies[currency] {
		return int64(math.Round(amount))
	}
	return int64(math.Round(amount * 100))
}

// FromMinorUnits converts a provider-reported minor-unit amount back to
// major units.
func FromMinorUnits(amount int64, currency string) float64 {
	if zeroDecimalCurrencies[currency] {
		return float64(amount)
	}
	return float64(amount) / 100
}

// IsSupportedCurrency reports whether checkout accepts the currency code
func IsSupportedCurrency(currency string) bool {
	return SupportedCurrencies[currency]
}
