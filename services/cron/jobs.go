package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/model"
)

const (
	// stalePendingAge is how long a payment may sit in PENDING before the
	// sweep re-verifies it against the provider
	stalePendingAge = 15 * time.Minute

	// sweepBatchSize bounds how many payments one sweep run verifies
	sweepBatchSize = 50

	// stuckProcessingAge is how long a webhook event may stay PROCESSING
	// before it is considered abandoned (crashed worker, lost connection)
	stuckProcessingAge = 30 * time.Minute

	// cronLogRetention is how long cron job logs are kept
	cronLogRetention = 30 * 24 * time.Hour
)

// VerifyStalePendingPayments re-queries the provider for payments stuck in
// PENDING and feeds the answers through the reconciliation engine.
func (m *CronManager) VerifyStalePendingPayments() {
	jobName := "verify_stale_pending"
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	verified, err := m.verification.SweepStalePending(ctx, stalePendingAge, sweepBatchSize)
	if err != nil {
		m.logJobError(jobName, err)
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("re-verified %d stale pending payments", verified))
}

// ReapStuckWebhookEvents flips webhook events abandoned in PROCESSING to
// FAILED so the next identical delivery can reclaim and retry them.
func (m *CronManager) ReapStuckWebhookEvents() {
	jobName := "reap_stuck_webhooks"

	res := m.db.Model(&model.WebhookEvent{}).
		Where("status = ? AND updated_at < ?", model.WebhookEventStatusProcessing, time.Now().Add(-stuckProcessingAge)).
		Updates(map[string]interface{}{
			"status": model.WebhookEventStatusFailed,
			"error":  "processing timed out",
		})
	if res.Error != nil {
		m.logJobError(jobName, res.Error)
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("reaped %d stuck webhook events", res.RowsAffected))
}

// ArchiveSettledPayments exports the last day's settled payments to object
// storage. Skipped entirely when the archive is not configured.
func (m *CronManager) ArchiveSettledPayments() {
	jobName := "archive_settled_payments"

	if m.archive == nil {
		m.logJobComplete(jobName, "archive not configured, skipped")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	key, err := m.archive.ArchiveSettled(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		m.logJobError(jobName, err)
		return
	}
	if key == "" {
		m.logJobComplete(jobName, "nothing to archive")
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("uploaded %s", key))
}

// CleanupOldCronLogs deletes cron job logs past the retention window
func (m *CronManager) CleanupOldCronLogs() {
	jobName := "cleanup_cron_logs"

	res := m.db.Where("created_at < ?", time.Now().Add(-cronLogRetention)).
		Delete(&model.CronJobLog{})
	if res.Error != nil {
		m.logJobError(jobName, res.Error)
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("deleted %d old cron logs", res.RowsAffected))
}
