package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/model"
)

const (
	// PaystackBaseURL is the Paystack API base URL
	PaystackBaseURL = "https://api.paystack.co"
)

// PaystackProvider implements the Provider interface against Paystack.
// Signatures are HMAC-SHA512 of the raw request body with the secret key,
// delivered in the x-paystack-signature header.
type PaystackProvider struct {
	client    *apiClient
	secretKey string
}

// PaystackConfig holds configuration for the Paystack adapter
type PaystackConfig struct {
	SecretKey string
	BaseURL   string
}

// NewPaystackProvider creates a new Paystack adapter
func NewPaystackProvider(cfg PaystackConfig) *PaystackProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = PaystackBaseURL
	}
	return &PaystackProvider{
		client:    newAPIClient(cfg.BaseURL, cfg.SecretKey),
		secretKey: cfg.SecretKey,
	}
}

// Name returns the provider identifier
func (p *PaystackProvider) Name() model.PaymentProvider {
	return model.ProviderPaystack
}

// paystackEnvelope is the common response wrapper
type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// paystackTransaction is the subset of transaction fields the ledger needs
type paystackTransaction struct {
	Reference        string `json:"reference"`
	Status           string `json:"status"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
}

// Initialize opens a Paystack transaction and returns the hosted checkout URL
func (p *PaystackProvider) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	body := map[string]interface{}{
		"email":     req.Email,
		"amount":    req.Amount,
		"currency":  req.Currency,
		"reference": req.Reference,
	}
	if req.CallbackURL != "" {
		body["callback_url"] = req.CallbackURL
	}
	if len(req.Metadata) > 0 {
		body["metadata"] = req.Metadata
	}

	var env paystackEnvelope
	_, code, err := p.client.doJSON(ctx, http.MethodPost, "/transaction/initialize", body, &env)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Op: "initialize", Err: err}
	}
	if code != http.StatusOK || !env.Status {
		return nil, &ProviderError{Provider: p.Name(), Op: "initialize", StatusCode: code, Message: env.Message}
	}

	var tx paystackTransaction
	if err := json.Unmarshal(env.Data, &tx); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Op: "initialize", Err: err}
	}

	return &InitializeResponse{
		ProviderReference: req.Reference,
		AuthorizationURL:  tx.AuthorizationURL,
		AccessCode:        tx.AccessCode,
	}, nil
}

// Verify queries the authoritative transaction state by reference
func (p *PaystackProvider) Verify(ctx context.Context, reference string) (*Notification, []byte, error) {
	var env paystackEnvelope
	raw, code, err := p.client.doJSON(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &env)
	if err != nil {
		return nil, nil, &ProviderError{Provider: p.Name(), Op: "verify", Err: err}
	}
	if code == http.StatusNotFound {
		return nil, nil, &ProviderError{Provider: p.Name(), Op: "verify", StatusCode: code, Message: "transaction not found"}
	}
	if code != http.StatusOK || !env.Status {
		return nil, nil, &ProviderError{Provider: p.Name(), Op: "verify", StatusCode: code, Message: env.Message}
	}

	var tx paystackTransaction
	if err := json.Unmarshal(env.Data, &tx); err != nil {
		return nil, nil, &ProviderError{Provider: p.Name(), Op: "verify", Err: err}
	}

	n := &Notification{
		EventType: "verify:" + tx.Status,
		Reference: tx.Reference,
		Amount:    tx.Amount,
		Currency:  tx.Currency,
	}
	switch tx.Status {
	case "success":
		n.Kind = EventPaymentSucceeded
	case "failed", "abandoned":
		n.Kind = EventPaymentFailed
	case "reversed":
		n.Kind = EventRefundProcessed
	default:
		// still pending at the provider
		n.Kind = EventIgnored
	}
	return n, raw, nil
}

// Refund asks Paystack to refund a settled transaction
func (p *PaystackProvider) Refund(ctx context.Context, reference string, reason string) (*RefundResponse, error) {
	body := map[string]interface{}{
		"transaction": reference,
	}
	if reason != "" {
		body["merchant_note"] = reason
	}

	var env paystackEnvelope
	raw, code, err := p.client.doJSON(ctx, http.MethodPost, "/refund", body, &env)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Op: "refund", Err: err}
	}
	if code != http.StatusOK || !env.Status {
		return nil, &ProviderError{Provider: p.Name(), Op: "refund", StatusCode: code, Message: env.Message}
	}

	return &RefundResponse{
		ProviderReference: reference,
		Status:            "processed",
		RawPayload:        raw,
	}, nil
}

// VerifySignature checks x-paystack-signature against the raw body
func (p *PaystackProvider) VerifySignature(payload []byte, signature string) error {
	if signature == "" {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha512.New, []byte(p.secretKey))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return ErrInvalidSignature
	}
	return nil
}

// paystackWebhook is the shape of a Paystack webhook payload
type paystackWebhook struct {
	Event string              `json:"event"`
	Data  paystackTransaction `json:"data"`
}

// ParseWebhook normalizes a signature-verified Paystack payload
func (p *PaystackProvider) ParseWebhook(payload []byte) (*Notification, error) {
	var wh paystackWebhook
	if err := json.Unmarshal(payload, &wh); err != nil {
		return nil, fmt.Errorf("failed to parse paystack webhook: %w", err)
	}

	n := &Notification{
		EventType: wh.Event,
		Reference: wh.Data.Reference,
		Amount:    wh.Data.Amount,
		Currency:  wh.Data.Currency,
	}
	switch wh.Event {
	case "charge.success":
		n.Kind = EventPaymentSucceeded
	case "charge.failed":
		n.Kind = EventPaymentFailed
	case "refund.processed":
		n.Kind = EventRefundProcessed
	default:
		n.Kind = EventIgnored
	}
	return n, nil
}
