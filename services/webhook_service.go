package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/model"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/services/payment"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WebhookService ingests provider webhooks: signature verification over the
// raw bytes, content-hash deduplication, then dispatch to reconciliation.
// Delivery is at-least-once and possibly out of order; the unique event hash
// is the sole dedup key for identical payload bytes.
type WebhookService struct {
	db       *gorm.DB
	registry *payment.Registry
	recon    *ReconciliationService
}

// NewWebhookService creates a new webhook service
func NewWebhookService(db *gorm.DB, registry *payment.Registry, recon *ReconciliationService) *WebhookService {
	return &WebhookService{
		db:       db,
		registry: registry,
		recon:    recon,
	}
}

// EventHash returns the content fingerprint used for deduplication
func EventHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Handle processes one webhook delivery. The body must be the untouched raw
// request bytes. Returned errors:
//   - payment.ErrInvalidSignature: reject before any side effect (4xx)
//   - anything else: processing failed after the claim; the event row is
//     marked FAILED and the caller returns non-2xx so the provider
//     redelivers. A redelivery with identical bytes re-claims the FAILED
//     row and is attempted again rather than duplicated.
func (s *WebhookService) Handle(ctx context.Context, providerName model.PaymentProvider, body []byte, signature string) error {
	adapter, err := s.registry.Get(providerName)
	if err != nil {
		return err
	}

	// 1. Authenticate the payload before touching anything
	if err := adapter.VerifySignature(body, signature); err != nil {
		return err
	}

	// 2. Claim the payload by unique hash insert
	hash := EventHash(body)
	event := model.WebhookEvent{
		EventHash: hash,
		Provider:  providerName,
		Status:    model.WebhookEventStatusProcessing,
	}
	if json.Valid(body) {
		event.RawPayload = datatypes.JSON(body)
	}

	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to record webhook event: %w", err)
		}
		// Another delivery already claimed these bytes. Only a FAILED row
		// is worth retrying; anything else short-circuits as success.
		claimed, err := s.reclaimFailed(ctx, hash)
		if err != nil {
			return err
		}
		if !claimed {
			log.Printf("[WEBHOOK] duplicate %s delivery %s, already handled", providerName, hash[:12])
			return nil
		}
		if err := s.db.WithContext(ctx).Where("event_hash = ?", hash).First(&event).Error; err != nil {
			return fmt.Errorf("failed to load webhook event: %w", err)
		}
	}

	// 3. Only after a successful claim: parse and reconcile
	if err := s.process(ctx, adapter, &event, body); err != nil {
		s.db.Model(&model.WebhookEvent{}).Where("id = ?", event.ID).
			Updates(map[string]interface{}{
				"status": model.WebhookEventStatusFailed,
				"error":  err.Error(),
			})
		return err
	}

	return nil
}

// reclaimFailed flips a FAILED event row back to PROCESSING. The guarded
// update makes sure only one of several concurrent redeliveries wins.
func (s *WebhookService) reclaimFailed(ctx context.Context, hash string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.WebhookEvent{}).
		Where("event_hash = ? AND status = ?", hash, model.WebhookEventStatusFailed).
		Update("status", model.WebhookEventStatusProcessing)
	if res.Error != nil {
		return false, fmt.Errorf("failed to reclaim webhook event: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *WebhookService) process(ctx context.Context, adapter payment.Provider, event *model.WebhookEvent, body []byte) error {
	n, err := adapter.ParseWebhook(body)
	if err != nil {
		return err
	}

	if err := s.recon.Apply(ctx, adapter.Name(), n, body); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Model(&model.WebhookEvent{}).
		Where("id = ?", event.ID).
		Updates(map[string]interface{}{
			"status":     model.WebhookEventStatusProcessed,
			"event_type": n.EventType,
			"error":      "",
		}).Error
}

// ListEvents returns webhook events for the admin inspection endpoint
func (s *WebhookService) ListEvents(status model.WebhookEventStatus, limit, offset int) ([]model.WebhookEvent, int64, error) {
	query := s.db.Model(&model.WebhookEvent{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []model.WebhookEvent
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, err
}
