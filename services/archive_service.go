package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/model"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"gorm.io/gorm"
)

// ArchiveService exports settled payments and their webhook payloads to
// S3-compatible object storage as a nightly audit snapshot. Pure audit: an
// archive failure never touches payment state.
type ArchiveService struct {
	db       *gorm.DB
	s3Client *s3.S3
	bucket   string
}

// ArchiveConfig holds configuration for the archive service
type ArchiveConfig struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
}

// NewArchiveService creates a new archive service
func NewArchiveService(db *gorm.DB, config ArchiveConfig) (*ArchiveService, error) {
	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		),
		Endpoint:         aws.String(config.Endpoint),
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create archive session: %w", err)
	}

	return &ArchiveService{
		db:       db,
		s3Client: s3.New(sess),
		bucket:   config.Bucket,
	}, nil
}

// archiveSnapshot is the JSON document written per archive run
type archiveSnapshot struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Since       time.Time            `json:"since"`
	Payments    []model.Payment      `json:"payments"`
	Webhooks    []model.WebhookEvent `json:"webhook_events"`
}

// ArchiveSettled uploads all payments that left PENDING since the given
// time, together with the webhook events processed in the same window.
func (s *ArchiveService) ArchiveSettled(ctx context.Context, since time.Time) (string, error) {
	var payments []model.Payment
	err := s.db.Where("status <> ? AND updated_at >= ?", model.PaymentStatusPending, since).
		Order("updated_at").
		Find(&payments).Error
	if err != nil {
		return "", fmt.Errorf("failed to load settled payments: %w", err)
	}

	var webhooks []model.WebhookEvent
	err = s.db.Where("updated_at >= ?", since).
		Order("updated_at").
		Find(&webhooks).Error
	if err != nil {
		return "", fmt.Errorf("failed to load webhook events: %w", err)
	}

	if len(payments) == 0 && len(webhooks) == 0 {
		log.Println("[ARCHIVE] nothing settled since last run, skipping upload")
		return "", nil
	}

	snapshot := archiveSnapshot{
		GeneratedAt: time.Now().UTC(),
		Since:       since,
		Payments:    payments,
		Webhooks:    webhooks,
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to encode archive snapshot: %w", err)
	}

	key := fmt.Sprintf("payments/settled-%s.json", time.Now().UTC().Format("2006-01-02T15-04-05"))
	_, err = s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        aws.ReadSeekCloser(bytes.NewReader(data)),
		ACL:         aws.String("private"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload archive: %w", err)
	}

	log.Printf("[ARCHIVE] uploaded %s: %d payments, %d webhook events", key, len(payments), len(webhooks))
	return key, nil
}
