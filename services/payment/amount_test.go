package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		currency string
		want     int64
	}{
		{"whole cedis", 150.00, "GHS", 15000},
		{"fractional rounds not truncates", 49.99, "GHS", 4999},
		{"naira", 250.50, "NGN", 25050},
		{"zero", 0, "GHS", 0},
		{"zero-decimal yen", 5000, "JPY", 5000},
		{"zero-decimal franc rounds", 1234.6, "XOF", 1235},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToMinorUnits(tt.amount, tt.currency))
		})
	}
}

func TestFromMinorUnits(t *testing.T) {
	assert.Equal(t, 150.00, FromMinorUnits(15000, "GHS"))
	assert.Equal(t, 49.99, FromMinorUnits(4999, "USD"))
	assert.Equal(t, 5000.0, FromMinorUnits(5000, "JPY"))
}

func TestMinorUnitsRoundTrip(t *testing.T) {
	for _, amount := range []float64{0.01, 1, 49.99, 150, 9999.99} {
		got := FromMinorUnits(ToMinorUnits(amount, "GHS"), "GHS")
		assert.InDelta(t, amount, got, 0.001)
	}
}

func TestIsSupportedCurrency(t *testing.T) {
	assert.True(t, IsSupportedCurrency("GHS"))
	assert.True(t, IsSupportedCurrency("NGN"))
	assert.False(t, IsSupportedCurrency("JPY"))
	assert.False(t, IsSupportedCurrency(""))
	assert.False(t, IsSupportedCurrency("ghs"), "currency codes are uppercase")
}
