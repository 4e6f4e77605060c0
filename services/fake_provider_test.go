package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/model"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/services/payment"
)

// fakeProvider is a deterministic in-memory gateway for tests. Signature
// verification accepts exactly "valid"; webhook payloads are the JSON form
// of a payment.Notification.
type fakeProvider struct {
	name model.PaymentProvider

	// verifyResults maps reference -> notification returned by Verify
	verifyResults map[string]*payment.Notification

	// failParse makes the next ParseWebhook calls fail, decrementing per call
	failParse int

	initializeCalls int
	initializeErr   error
	refundCalls     int
	refundErr       error
}

func newFakeProvider(name model.PaymentProvider) *fakeProvider {
	return &fakeProvider{
		name:          name,
		verifyResults: make(map[string]*payment.Notification),
	}
}

func (f *fakeProvider) Name() model.PaymentProvider { return f.name }

func (f *fakeProvider) Initialize(ctx context.Context, req payment.InitializeRequest) (*payment.InitializeResponse, error) {
	f.initializeCalls++
	if f.initializeErr != nil {
		return nil, f.initializeErr
	}
	return &payment.InitializeResponse{
		ProviderReference: req.Reference,
		AuthorizationURL:  "https://pay.example.com/" + req.Reference,
	}, nil
}

func (f *fakeProvider) Verify(ctx context.Context, reference string) (*payment.Notification, []byte, error) {
	n, ok := f.verifyResults[reference]
	if !ok {
		return nil, nil, &payment.ProviderError{Provider: f.name, Op: "verify", StatusCode: 404, Message: "not found"}
	}
	raw, _ := json.Marshal(n)
	return n, raw, nil
}

func (f *fakeProvider) Refund(ctx context.Context, reference string, reason string) (*payment.RefundResponse, error) {
	f.refundCalls++
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	return &payment.RefundResponse{ProviderReference: reference, Status: "processed"}, nil
}

func (f *fakeProvider) VerifySignature(payload []byte, signature string) error {
	if signature != "valid" {
		return payment.ErrInvalidSignature
	}
	return nil
}

func (f *fakeProvider) ParseWebhook(payload []byte) (*payment.Notification, error) {
	if f.failParse > 0 {
		f.failParse--
		return nil, errors.New("injected parse failure")
	}
	var n payment.Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, fmt.Errorf("failed to parse webhook: %w", err)
	}
	return &n, nil
}

// fakeWebhookBody builds the raw payload bytes the fake provider parses
func fakeWebhookBody(kind payment.EventKind, reference string, amount int64) []byte {
	body, _ := json.Marshal(payment.Notification{
		Kind:      kind,
		EventType: string(kind),
		Reference: reference,
		Amount:    amount,
		Currency:  "GHS",
	})
	return body
}
