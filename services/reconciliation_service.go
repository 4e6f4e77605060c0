package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/model"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/services/payment"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReconciliationService applies provider-reported status changes to the
// payment ledger. Every path that learns about provider state — webhook push,
// verify pull, refund confirmation — funnels through Apply, so the transition
// rules exist exactly once.
type ReconciliationService struct {
	db         *gorm.DB
	enrollment *EnrollmentService
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(db *gorm.DB, enrollment *EnrollmentService) *ReconciliationService {
	return &ReconciliationService{
		db:         db,
		enrollment: enrollment,
	}
}

// metadataEntry is one append-only audit record in Payment.Metadata
type metadataEntry struct {
	At        time.Time       `json:"at"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// appendMetadata appends a raw provider payload to the payment's audit blob
func appendMetadata(existing datatypes.JSON, eventType string, raw []byte) (datatypes.JSON, error) {
	var entries []metadataEntry
	if len(existing) > 0 {
		// A malformed blob is replaced rather than blocking the transition
		if err := json.Unmarshal(existing, &entries); err != nil {
			entries = nil
		}
	}

	entry := metadataEntry{At: time.Now().UTC(), EventType: eventType}
	if json.Valid(raw) {
		entry.Payload = json.RawMessage(raw)
	}
	entries = append(entries, entry)

	out, err := json.Marshal(entries)
	if err != nil {
		return existing, err
	}
	return datatypes.JSON(out), nil
}

// targetStatus maps a normalized event kind to the status it asks for
func targetStatus(kind payment.EventKind) (model.PaymentStatus, bool) {
	switch kind {
	case payment.EventPaymentSucceeded:
		return model.PaymentStatusSucceeded, true
	case payment.EventPaymentFailed:
		return model.PaymentStatusFailed, true
	case payment.EventRefundProcessed:
		return model.PaymentStatusRefunded, true
	default:
		return "", false
	}
}

// Apply reconciles one provider notification against the local ledger.
//
// Unknown references and stale transitions both return nil: a webhook must
// never surface an error that triggers endless provider redelivery for an
// event that can never succeed. Only real processing failures (DB errors,
// enrollment failure) return non-nil, which marks the webhook event FAILED
// and lets the provider redeliver it.
func (s *ReconciliationService) Apply(ctx context.Context, provider model.PaymentProvider, n *payment.Notification, rawPayload []byte) error {
	if n.Kind == payment.EventIgnored {
		log.Printf("[RECON] ignoring %s event %q for reference %s", provider, n.EventType, n.Reference)
		return nil
	}

	to, ok := targetStatus(n.Kind)
	if !ok {
		log.Printf("[RECON] no transition for %s event kind %q, discarding", provider, n.Kind)
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Payment
		err := tx.Where("provider = ? AND provider_reference = ?", provider, n.Reference).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Unrecognized or foreign transaction.
			log.Printf("[RECON] no payment for %s reference %s, ignoring %s", provider, n.Reference, n.EventType)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load payment: %w", err)
		}

		if !p.Status.CanTransition(to) {
			// Replayed or reordered event whose precondition no longer
			// holds. Discarding keeps Apply commutative and idempotent.
			log.Printf("[RECON] discarding %s event %q for payment %d: %s -> %s not allowed",
				provider, n.EventType, p.ID, p.Status, to)
			return nil
		}

		metadata, err := appendMetadata(p.Metadata, n.EventType, rawPayload)
		if err != nil {
			return fmt.Errorf("failed to append payment metadata: %w", err)
		}

		// Guarded update: the WHERE clause re-checks the status read above,
		// so a concurrent transition makes this a no-op instead of a
		// double-apply.
		res := tx.Model(&model.Payment{}).
			Where("id = ? AND status = ?", p.ID, p.Status).
			Updates(map[string]interface{}{
				"status":   to,
				"metadata": metadata,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to transition payment %d: %w", p.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			log.Printf("[RECON] payment %d moved concurrently, discarding %s", p.ID, n.EventType)
			return nil
		}

		log.Printf("[RECON] payment %d: %s -> %s (%s %s)", p.ID, p.Status, to, provider, n.EventType)

		// Enrollment happens in the same transaction as the transition to
		// SUCCEEDED. If it fails the whole event fails and the provider
		// redelivers: "payment succeeded, no enrollment" never persists.
		if to == model.PaymentStatusSucceeded {
			if err := s.enrollment.EnsureEnrolled(tx, p.UserID, p.CourseID, p.ID); err != nil {
				return fmt.Errorf("enrollment for payment %d failed: %w", p.ID, err)
			}
		}
		return nil
	})
}
