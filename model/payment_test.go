package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentStatusCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    PaymentStatus
		to      PaymentStatus
		allowed bool
	}{
		{"pending to succeeded", PaymentStatusPending, PaymentStatusSucceeded, true},
		{"pending to failed", PaymentStatusPending, PaymentStatusFailed, true},
		{"pending to refunded", PaymentStatusPending, PaymentStatusRefunded, false},
		{"succeeded to refunded", PaymentStatusSucceeded, PaymentStatusRefunded, true},
		{"succeeded to failed", PaymentStatusSucceeded, PaymentStatusFailed, false},
		{"succeeded to succeeded", PaymentStatusSucceeded, PaymentStatusSucceeded, false},
		{"failed to succeeded", PaymentStatusFailed, PaymentStatusSucceeded, false},
		{"failed to refunded", PaymentStatusFailed, PaymentStatusRefunded, false},
		{"refunded to succeeded", PaymentStatusRefunded, PaymentStatusSucceeded, false},
		{"refunded to pending", PaymentStatusRefunded, PaymentStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransition(tt.to))
		})
	}
}

func TestPaymentStatusIsTerminal(t *testing.T) {
	assert.False(t, PaymentStatusPending.IsTerminal())
	assert.False(t, PaymentStatusSucceeded.IsTerminal(), "succeeded still accepts a refund")
	assert.True(t, PaymentStatusFailed.IsTerminal())
	assert.True(t, PaymentStatusRefunded.IsTerminal())
}
