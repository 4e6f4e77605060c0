package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/model"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/services/payment"
	"gorm.io/gorm"
)

// RefundService issues refunds at the provider and records the resulting
// state through the reconciliation engine.
type RefundService struct {
	db       *gorm.DB
	registry *payment.Registry
	recon    *ReconciliationService
}

// NewRefundService creates a new refund service
func NewRefundService(db *gorm.DB, registry *payment.Registry, recon *ReconciliationService) *RefundService {
	return &RefundService{
		db:       db,
		registry: registry,
		recon:    recon,
	}
}

// Refund refunds a succeeded payment. Precondition failures never reach the
// provider; provider failures never mutate local state, so the refund stays
// retryable.
func (s *RefundService) Refund(ctx context.Context, paymentID uint, reason string) (*model.Payment, error) {
	var p model.Payment
	if err := s.db.First(&p, paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}

	if p.Status != model.PaymentStatusSucceeded {
		return nil, NewValidationError(fmt.Sprintf("payment %d is %s, only succeeded payments can be refunded", p.ID, p.Status))
	}
	if p.ProviderReference == "" {
		return nil, NewValidationError(fmt.Sprintf("payment %d has no provider reference", p.ID))
	}

	adapter, err := s.registry.Get(p.Provider)
	if err != nil {
		return nil, err
	}

	res, err := adapter.Refund(ctx, p.ProviderReference, reason)
	if err != nil {
		return nil, err
	}

	// Record the refund through the same transition function the webhook
	// and verify paths use. If the provider's own refund webhook lands
	// first, Apply discards this as a stale transition, which is fine:
	// the ledger already says refunded.
	n := &payment.Notification{
		Kind:      payment.EventRefundProcessed,
		EventType: "refund.requested",
		Reference: p.ProviderReference,
	}
	if err := s.recon.Apply(ctx, p.Provider, n, res.RawPayload); err != nil {
		return nil, err
	}

	log.Printf("[REFUND] payment %d refunded at %s (%s)", p.ID, p.Provider, reason)

	if err := s.db.First(&p, paymentID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
