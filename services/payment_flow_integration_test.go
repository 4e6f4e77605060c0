package services

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/model"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/services/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// flowContext holds the service graph wired against a real Postgres with a
// fake gateway. Run with:
//
//	RUN_INTEGRATION_TESTS=true DB_HOST=... DB_USER_NAME=... go test ./services/
type flowContext struct {
	db       *gorm.DB
	provider *fakeProvider
	registry *payment.Registry

	enrollment   *EnrollmentService
	recon        *ReconciliationService
	webhooks     *WebhookService
	checkout     *CheckoutService
	refund       *RefundService
	verification *VerificationService

	user   model.User
	course model.Course
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func setupFlowContext(t *testing.T) *flowContext {
	t.Helper()

	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run")
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		getEnvOrDefault("DB_HOST", "localhost"),
		os.Getenv("DB_USER_NAME"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		getEnvOrDefault("DB_PORT", "5432"),
		getEnvOrDefault("DB_SSL_MODE", "disable"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Unique violations must surface as gorm.ErrDuplicatedKey for the
		// dedup claim and the enrollment guard
		TranslateError: true,
	})
	require.NoError(t, err, "failed to connect to test database")

	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Course{}, &model.Coupon{},
		&model.Payment{}, &model.WebhookEvent{}, &model.Enrollment{},
	))

	// Clean slate per test
	for _, table := range []string{"enrollments", "webhook_events", "payments", "coupons", "courses", "users"} {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}

	provider := newFakeProvider(model.ProviderPaystack)
	registry := payment.NewRegistry(model.ProviderPaystack)
	registry.Register(provider)

	enrollment := NewEnrollmentService(db)
	recon := NewReconciliationService(db, enrollment)

	ctx := &flowContext{
		db:           db,
		provider:     provider,
		registry:     registry,
		enrollment:   enrollment,
		recon:        recon,
		webhooks:     NewWebhookService(db, registry, recon),
		checkout:     NewCheckoutService(db, registry, "https://app.example.com/callback", "GHS"),
		refund:       NewRefundService(db, registry, recon),
		verification: NewVerificationService(db, registry, recon),
	}

	ctx.user = model.User{Email: "learner@example.com", PasswordHash: "x", Name: "Learner", Role: "student"}
	require.NoError(t, db.Create(&ctx.user).Error)

	ctx.course = model.Course{Title: "Test Course", Slug: "test-course", Price: 150, Currency: "GHS", Published: true}
	require.NoError(t, db.Create(&ctx.course).Error)

	return ctx
}

// checkoutPending creates a pending payment through the real checkout path
func (fc *flowContext) checkoutPending(t *testing.T) *CheckoutResult {
	t.Helper()
	res, err := fc.checkout.Checkout(context.Background(), &fc.user, CheckoutRequest{CourseID: fc.course.ID})
	require.NoError(t, err)
	return res
}

func (fc *flowContext) paymentByRef(t *testing.T, ref string) model.Payment {
	t.Helper()
	var p model.Payment
	require.NoError(t, fc.db.Where("provider_reference = ?", ref).First(&p).Error)
	return p
}

func (fc *flowContext) enrollmentCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, fc.db.Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", fc.user.ID, fc.course.ID).Count(&n).Error)
	return n
}

func TestSuccessWebhookEnrollsExactlyOnce(t *testing.T) {
	fc := setupFlowContext(t)
	ctx := context.Background()

	res := fc.checkoutPending(t)
	assert.Equal(t, model.PaymentStatusPending, fc.paymentByRef(t, res.Reference).Status)

	body := fakeWebhookBody(payment.EventPaymentSucceeded, res.Reference, 15000)
	require.NoError(t, fc.webhooks.Handle(ctx, model.ProviderPaystack, body, "valid"))

	p := fc.paymentByRef(t, res.Reference)
	assert.Equal(t, model.PaymentStatusSucceeded, p.Status)
	assert.NotEmpty(t, p.Metadata, "raw payload recorded in the audit blob")
	assert.Equal(t, int64(1), fc.enrollmentCount(t))

	// Identical redelivery: acknowledged, no second enrollment
	require.NoError(t, fc.webhooks.Handle(ctx, model.ProviderPaystack, body, "valid"))
	assert.Equal(t, int64(1), fc.enrollmentCount(t))
	assert.Equal(t, model.PaymentStatusSucceeded, fc.paymentByRef(t, res.Reference).Status)

	var events int64
	require.NoError(t, fc.db.Model(&model.WebhookEvent{}).Count(&events).Error)
	assert.Equal(t, int64(1), events, "one event row per unique payload")
}

func TestOutOfOrderFailureAfterSuccessIsDiscarded(t *testing.T) {
	fc := setupFlowContext(t)
	ctx := context.Background()

	res := fc.checkoutPending(t)

	success := fakeWebhookBody(payment.EventPaymentSucceeded, res.Reference, 15000)
	require.NoError(t, fc.webhooks.Handle(ctx, model.ProviderPaystack, success, "valid"))

	// A stale failure event arrives after the success; different bytes, so
	// it passes dedup and must be discarded by the transition rules instead.
	failed := fakeWebhookBody(payment.EventPaymentFailed, res.Reference, 15000)
	require.NoError(t, fc.webhooks.Handle(ctx, model.ProviderPaystack, failed, "valid"))

	assert.Equal(t, model.PaymentStatusSucceeded, fc.paymentByRef(t, res.Reference).Status)
	assert.Equal(t, int64(1), fc.enrollmentCount(t))
}

func TestRefundEventForPendingPaymentIsDiscarded(t *testing.T) {
	fc := setupFlowContext(t)
	ctx := context.Background()

	res := fc.checkoutPending(t)

	// A refund notification with no preceding success has no valid
	// transition from PENDING; it is acknowledged and dropped.
	refund := fakeWebhookBody(payment.EventRefundProcessed, res.Reference, 15000)
	require.NoError(t, fc.webhooks.Handle(ctx, model.ProviderPaystack, refund, "valid"))

	assert.Equal(t, model.PaymentStatusPending, fc.paymentByRef(t, res.Reference).Status)
	assert.Zero(t, fc.enrollmentCount(t))

	var event model.WebhookEvent
	require.NoError(t, fc.db.Where("event_hash = ?", EventHash(refund)).First(&event).Error)
	assert.Equal(t, model.WebhookEventStatusProcessed, event.Status, "discarded events are still acknowledged")

	// The ledger is not poisoned: the real success still settles and enrolls.
	success := fakeWebhookBody(payment.EventPaymentSucceeded, res.Reference, 15000)
	require.NoError(t, fc.webhooks.Handle(ctx, model.ProviderPaystack, success, "valid"))
	assert.Equal(t, model.PaymentStatusSucceeded, fc.paymentByRef(t, res.Reference).Status)
	assert.Equal(t, int64(1), fc.enrollmentCount(t))
}

func TestFailedWebhookEventIsReclaimedOnRedelivery(t *testing.T) {
	fc := setupFlowContext(t)
	ctx := context.Background()

	res := fc.checkoutPending(t)
	body := fakeWebhookBody(payment.EventPaymentSucceeded, res.Reference, 15000)

	// First delivery fails mid-processing
	fc.provider.failParse = 1
	err := fc.webhooks.Handle(ctx, model.ProviderPaystack, body, "valid")
	require.Error(t, err)

	var event model.WebhookEvent
	require.NoError(t, fc.db.Where("event_hash = ?", EventHash(body)).First(&event).Error)
	assert.Equal(t, model.WebhookEventStatusFailed, event.Status)
	assert.Contains(t, event.Error, "injected parse failure")
	assert.Equal(t, model.PaymentStatusPending, fc.paymentByRef(t, res.Reference).Status)

	// Redelivery with identical bytes reclaims the FAILED row and succeeds
	require.NoError(t, fc.webhooks.Handle(ctx, model.ProviderPaystack, body, "valid"))

	require.NoError(t, fc.db.Where("event_hash = ?", EventHash(body)).First(&event).Error)
	assert.Equal(t, model.WebhookEventStatusProcessed, event.Status)
	assert.Equal(t, model.PaymentStatusSucceeded, fc.paymentByRef(t, res.Reference).Status)
	assert.Equal(t, int64(1), fc.enrollmentCount(t))
}

func TestConcurrentIdenticalDeliveriesProcessOnce(t *testing.T) {
	fc := setupFlowContext(t)
	ctx := context.Background()

	res := fc.checkoutPending(t)
	body := fakeWebhookBody(payment.EventPaymentSucceeded, res.Reference, 15000)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = fc.webhooks.Handle(ctx, model.ProviderPaystack, body, "valid")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, model.PaymentStatusSucceeded, fc.paymentByRef(t, res.Reference).Status)
	assert.Equal(t, int64(1), fc.enrollmentCount(t))

	var events int64
	require.NoError(t, fc.db.Model(&model.WebhookEvent{}).Count(&events).Error)
	assert.Equal(t, int64(1), events)
}

func TestRefundFlow(t *testing.T) {
	fc := setupFlowContext(t)
	ctx := context.Background()

	res := fc.checkoutPending(t)

	t.Run("refund of pending payment is rejected locally", func(t *testing.T) {
		_, err := fc.refund.Refund(ctx, res.PaymentID, "changed mind")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Zero(t, fc.provider.refundCalls, "precondition failures never reach the provider")
	})

	body := fakeWebhookBody(payment.EventPaymentSucceeded, res.Reference, 15000)
	require.NoError(t, fc.webhooks.Handle(ctx, model.ProviderPaystack, body, "valid"))

	t.Run("refund of succeeded payment", func(t *testing.T) {
		p, err := fc.refund.Refund(ctx, res.PaymentID, "course cancelled")
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusRefunded, p.Status)
		assert.Equal(t, 1, fc.provider.refundCalls)
	})

	t.Run("second refund is rejected", func(t *testing.T) {
		_, err := fc.refund.Refund(ctx, res.PaymentID, "again")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, 1, fc.provider.refundCalls)
	})

	// Enrollment survives the refund; access revocation is a separate
	// decision, not an automatic side effect.
	assert.Equal(t, int64(1), fc.enrollmentCount(t))
}

func TestVerificationResolvesStalePending(t *testing.T) {
	fc := setupFlowContext(t)
	ctx := context.Background()

	res := fc.checkoutPending(t)

	t.Run("provider still pending leaves payment untouched", func(t *testing.T) {
		fc.provider.verifyResults[res.Reference] = &payment.Notification{
			Kind: payment.EventIgnored, EventType: "verify:pending", Reference: res.Reference,
		}
		result, err := fc.verification.VerifyReference(ctx, res.Reference)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusPending, result.Payment.Status)
	})

	t.Run("provider success settles the payment and enrolls", func(t *testing.T) {
		fc.provider.verifyResults[res.Reference] = &payment.Notification{
			Kind: payment.EventPaymentSucceeded, EventType: "verify:success",
			Reference: res.Reference, Amount: 15000, Currency: "GHS",
		}
		result, err := fc.verification.VerifyReference(ctx, res.Reference)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusSucceeded, result.Payment.Status)
		assert.Equal(t, int64(1), fc.enrollmentCount(t))
	})

	t.Run("webhook arriving after pull resolution is discarded", func(t *testing.T) {
		body := fakeWebhookBody(payment.EventPaymentSucceeded, res.Reference, 15000)
		require.NoError(t, fc.webhooks.Handle(ctx, model.ProviderPaystack, body, "valid"))
		assert.Equal(t, model.PaymentStatusSucceeded, fc.paymentByRef(t, res.Reference).Status)
		assert.Equal(t, int64(1), fc.enrollmentCount(t))
	})
}

func TestSweepStalePending(t *testing.T) {
	fc := setupFlowContext(t)
	ctx := context.Background()

	res := fc.checkoutPending(t)
	fc.provider.verifyResults[res.Reference] = &payment.Notification{
		Kind: payment.EventPaymentFailed, EventType: "verify:abandoned",
		Reference: res.Reference, Amount: 15000, Currency: "GHS",
	}

	// negative age so the fresh payment counts as stale
	verified, err := fc.verification.SweepStalePending(ctx, -time.Minute, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, verified)
	assert.Equal(t, model.PaymentStatusFailed, fc.paymentByRef(t, res.Reference).Status)
	assert.Zero(t, fc.enrollmentCount(t))
}

func TestCheckoutWithCoupon(t *testing.T) {
	fc := setupFlowContext(t)

	coupon := model.Coupon{Code: "TEST20", DiscountPct: 20, Active: true}
	require.NoError(t, fc.db.Create(&coupon).Error)

	res, err := fc.checkout.Checkout(context.Background(), &fc.user, CheckoutRequest{
		CourseID:   fc.course.ID,
		CouponCode: "TEST20",
	})
	require.NoError(t, err)
	assert.InDelta(t, 120.0, res.Amount, 0.0001)

	var reloaded model.Coupon
	require.NoError(t, fc.db.First(&reloaded, coupon.ID).Error)
	assert.Equal(t, 1, reloaded.Redemptions)
}

func TestCouponNotBurnedWhenCheckoutFails(t *testing.T) {
	fc := setupFlowContext(t)
	ctx := context.Background()

	coupon := model.Coupon{Code: "FRAGILE20", DiscountPct: 20, Active: true}
	require.NoError(t, fc.db.Create(&coupon).Error)

	fc.provider.initializeErr = &payment.ProviderError{
		Provider: model.ProviderPaystack, Op: "initialize", StatusCode: 502, Message: "gateway down",
	}
	_, err := fc.checkout.Checkout(ctx, &fc.user, CheckoutRequest{
		CourseID:   fc.course.ID,
		CouponCode: "FRAGILE20",
	})
	require.Error(t, err)

	var reloaded model.Coupon
	require.NoError(t, fc.db.First(&reloaded, coupon.ID).Error)
	assert.Zero(t, reloaded.Redemptions, "a checkout that never produced a payment must not consume the coupon")

	// Once the gateway recovers the same coupon redeems normally.
	fc.provider.initializeErr = nil
	res, err := fc.checkout.Checkout(ctx, &fc.user, CheckoutRequest{
		CourseID:   fc.course.ID,
		CouponCode: "FRAGILE20",
	})
	require.NoError(t, err)
	assert.InDelta(t, 120.0, res.Amount, 0.0001)

	require.NoError(t, fc.db.First(&reloaded, coupon.ID).Error)
	assert.Equal(t, 1, reloaded.Redemptions)
}

func TestWebhookForUnknownReferenceIsAcknowledged(t *testing.T) {
	fc := setupFlowContext(t)

	body := fakeWebhookBody(payment.EventPaymentSucceeded, "uv-never-issued", 15000)
	require.NoError(t, fc.webhooks.Handle(context.Background(), model.ProviderPaystack, body, "valid"))

	var event model.WebhookEvent
	require.NoError(t, fc.db.Where("event_hash = ?", EventHash(body)).First(&event).Error)
	assert.Equal(t, model.WebhookEventStatusProcessed, event.Status)
	assert.Zero(t, fc.enrollmentCount(t))
}
