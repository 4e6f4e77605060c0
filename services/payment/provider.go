package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/model"
)

var (
	// ErrInvalidSignature is returned when a webhook signature does not match.
	// The payload is rejected outright, never queued.
	ErrInvalidSignature = errors.New("webhook signature verification failed")

	// ErrUnknownProvider is returned when no adapter is registered for a name
	ErrUnknownProvider = errors.New("unknown payment provider")
)

// ProviderError wraps a failed call to the remote provider. These are
// retryable by the caller: local state is never mutated on a provider error.
type ProviderError struct {
	Provider   model.PaymentProvider
	Op         string // initialize, verify, refund
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s failed: %s", e.Provider, e.Op, e.Message)
	}
	return fmt.Sprintf("%s %s failed", e.Provider, e.Op)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// EventKind is the provider-agnostic classification of a webhook or verify
// result. Adapters normalize their wire-level event types into one of these;
// the reconciliation engine only ever sees kinds.
type EventKind string

const (
	EventPaymentSucceeded EventKind = "payment.succeeded"
	EventPaymentFailed    EventKind = "payment.failed"
	EventRefundProcessed  EventKind = "refund.processed"
	EventIgnored          EventKind = "ignored" // recognized but irrelevant to the ledger
)

// InitializeRequest captures what a provider needs to open a transaction
type InitializeRequest struct {
	Reference   string // locally generated, becomes the provider reference
	Email       string
	Amount      int64 // minor units
	Currency    string
	CallbackURL string
	Metadata    map[string]interface{}
}

// InitializeResponse is the client-facing handle returned by the provider
type InitializeResponse struct {
	ProviderReference string
	AuthorizationURL  string // hosted checkout redirect
	AccessCode        string // client-side token, when the provider issues one
}

// Notification is the normalized form of a webhook payload or a verify
// response, ready to be fed through the reconciliation engine.
type Notification struct {
	Kind      EventKind
	EventType string // provider's own event type string, kept for the ledger
	Reference string
	Amount    int64 // minor units as reported by the provider
	Currency  string
}

// RefundResponse reports the outcome of a refund call
type RefundResponse struct {
	ProviderReference string
	Status            string
	RawPayload        []byte
}

// Provider is the capability surface every gateway adapter implements. The
// reconciliation engine is entirely provider-agnostic; adding a gateway means
// implementing exactly this interface and registering it.
type Provider interface {
	Name() model.PaymentProvider

	// Initialize opens a remote transaction and returns the client handle
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResponse, error)

	// Verify queries the authoritative transaction state by reference
	Verify(ctx context.Context, reference string) (*Notification, []byte, error)

	// Refund asks the provider to refund a settled transaction
	Refund(ctx context.Context, reference string, reason string) (*RefundResponse, error)

	// VerifySignature checks the signature header against the raw body using
	// a constant-time compare. Must be called on the untouched request bytes.
	VerifySignature(payload []byte, signature string) error

	// ParseWebhook normalizes a signature-verified payload. Unknown event
	// types come back as EventIgnored, not as an error.
	ParseWebhook(payload []byte) (*Notification, error)
}

// Registry holds the configured provider adapters, constructed once at
// process start and passed by reference to whatever needs them.
type Registry struct {
	providers map[model.PaymentProvider]Provider
	def       model.PaymentProvider
}

// NewRegistry creates a registry with the given default provider name
func NewRegistry(def model.PaymentProvider) *Registry {
	return &Registry{
		providers: make(map[model.PaymentProvider]Provider),
		def:       def,
	}
}

// Register adds an adapter to the registry
func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

// Get returns the adapter for the given provider name
func (r *Registry) Get(name model.PaymentProvider) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

// Default returns the adapter used for checkout when none is requested
func (r *Registry) Default() (Provider, error) {
	return r.Get(r.def)
}
