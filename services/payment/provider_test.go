package payment

import (
	"errors"
	"testing"

	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	registry := NewRegistry(model.ProviderPaystack)
	registry.Register(NewPaystackProvider(PaystackConfig{SecretKey: "sk_test"}))
	registry.Register(NewFlutterwaveProvider(FlutterwaveConfig{SecretKey: "flw_test", SecretHash: "h"}))

	t.Run("get registered adapter", func(t *testing.T) {
		p, err := registry.Get(model.ProviderFlutterwave)
		require.NoError(t, err)
		assert.Equal(t, model.ProviderFlutterwave, p.Name())
	})

	t.Run("default adapter", func(t *testing.T) {
		p, err := registry.Default()
		require.NoError(t, err)
		assert.Equal(t, model.ProviderPaystack, p.Name())
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := registry.Get("stripe")
		assert.ErrorIs(t, err, ErrUnknownProvider)
	})
}

func TestProviderErrorUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &ProviderError{Provider: model.ProviderPaystack, Op: "verify", Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "verify")
}
