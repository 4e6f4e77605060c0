package model

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookEventStatus represents the processing state of a received webhook
type WebhookEventStatus string

const (
	WebhookEventStatusReceived   WebhookEventStatus = "received"
	WebhookEventStatusProcessing WebhookEventStatus = "processing"
	WebhookEventStatusProcessed  WebhookEventStatus = "processed"
	WebhookEventStatusFailed     WebhookEventStatus = "failed"
)

// WebhookEvent records one signature-verified webhook payload. The unique
// EventHash is what guarantees at-most-once processing of duplicate
// deliveries of identical bytes: the first delivery to insert the row owns
// the payload, later identical deliveries hit the unique constraint and
// short-circuit. Rows are never deleted.
type WebhookEvent struct {
	ID         uint               `gorm:"primaryKey" json:"id"`
	EventHash  string             `gorm:"type:varchar(64);not null;uniqueIndex" json:"event_hash"`
	Provider   PaymentProvider    `gorm:"type:varchar(30);not null;index" json:"provider"`
	EventType  string             `gorm:"type:varchar(100)" json:"event_type"`
	RawPayload datatypes.JSON     `gorm:"type:jsonb" json:"raw_payload,omitempty"`
	Status     WebhookEventStatus `gorm:"type:varchar(20);not null;default:'received';index" json:"status"`
	Error      string             `gorm:"type:text" json:"error,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// TableName specifies the table name for WebhookEvent
func (WebhookEvent) TableName() string {
	return "webhook_events"
}
