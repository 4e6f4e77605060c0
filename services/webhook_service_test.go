package services

import (
	"context"
	"testing"

	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/model"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/services/payment"
	"github.com/stretchr/testify/assert"
)

func TestEventHash(t *testing.T) {
	a := EventHash([]byte(`{"event":"charge.success"}`))
	b := EventHash([]byte(`{"event":"charge.success"}`))
	c := EventHash([]byte(`{"event":"charge.failed"}`))

	assert.Equal(t, a, b, "identical bytes hash identically")
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64, "sha256 hex digest")

	// Semantically equal but byte-different payloads are different events
	d := EventHash([]byte(`{"event": "charge.success"}`))
	assert.NotEqual(t, a, d)
}

// A forged delivery must be rejected before the event is recorded. The nil
// DB makes any storage access panic, so passing proves nothing was touched.
func TestWebhookHandleRejectsInvalidSignatureBeforeSideEffects(t *testing.T) {
	registry := payment.NewRegistry(model.ProviderPaystack)
	registry.Register(newFakeProvider(model.ProviderPaystack))

	svc := NewWebhookService(nil, registry, nil)

	body := fakeWebhookBody(payment.EventPaymentSucceeded, "uv-ref", 15000)
	err := svc.Handle(context.Background(), model.ProviderPaystack, body, "forged")
	assert.ErrorIs(t, err, payment.ErrInvalidSignature)
}

func TestWebhookHandleUnknownProvider(t *testing.T) {
	registry := payment.NewRegistry(model.ProviderPaystack)

	svc := NewWebhookService(nil, registry, nil)

	err := svc.Handle(context.Background(), "stripe", []byte(`{}`), "valid")
	assert.ErrorIs(t, err, payment.ErrUnknownProvider)
}
