package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/model"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/services/payment"
	"gorm.io/gorm"
)

// VerificationService is the pull-based fallback for missed or delayed
// webhooks: it re-queries the provider's authoritative transaction state and
// feeds the result through the same reconciliation Apply used by the push
// path.
type VerificationService struct {
	db       *gorm.DB
	registry *payment.Registry
	recon    *ReconciliationService
}

// NewVerificationService creates a new verification service
func NewVerificationService(db *gorm.DB, registry *payment.Registry, recon *ReconciliationService) *VerificationService {
	return &VerificationService{
		db:       db,
		registry: registry,
		recon:    recon,
	}
}

// VerifyResult reports the provider's view next to the local ledger's view
type VerifyResult struct {
	Reference      string           `json:"reference"`
	ProviderStatus string           `json:"provider_status"`
	Payment        *model.Payment   `json:"payment,omitempty"`
}

// VerifyReference queries the provider for a transaction reference and
// reconciles the answer. For references with no local payment — orphans from
// a checkout whose local persist failed — the provider is still queried and
// the answer reported; Apply no-ops on the missing row.
func (s *VerificationService) VerifyReference(ctx context.Context, reference string) (*VerifyResult, error) {
	var p model.Payment
	err := s.db.Where("provider_reference = ?", reference).First(&p).Error

	var adapter payment.Provider
	switch {
	case err == nil:
		adapter, err = s.registry.Get(p.Provider)
		if err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		log.Printf("[VERIFY] no local payment for reference %s, querying default provider", reference)
		adapter, err = s.registry.Default()
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}

	n, raw, err := adapter.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	if err := s.recon.Apply(ctx, adapter.Name(), n, raw); err != nil {
		return nil, err
	}

	result := &VerifyResult{
		Reference:      reference,
		ProviderStatus: n.EventType,
	}
	var reloaded model.Payment
	if err := s.db.Where("provider_reference = ?", reference).First(&reloaded).Error; err == nil {
		result.Payment = &reloaded
	}
	return result, nil
}

// SweepStalePending re-verifies payments that have sat in PENDING longer
// than olderThan. Called from the cron scheduler; a verify failure for one
// payment never stops the sweep.
func (s *VerificationService) SweepStalePending(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	var stale []model.Payment
	err := s.db.Where("status = ? AND created_at < ?", model.PaymentStatusPending, time.Now().Add(-olderThan)).
		Order("created_at").
		Limit(limit).
		Find(&stale).Error
	if err != nil {
		return 0, err
	}

	verified := 0
	for _, p := range stale {
		if _, err := s.VerifyReference(ctx, p.ProviderReference); err != nil {
			log.Printf("[VERIFY] sweep: reference %s failed: %v", p.ProviderReference, err)
			continue
		}
		verified++
	}
	return verified, nil
}
