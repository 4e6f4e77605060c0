package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/model"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/services/payment"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CheckoutService opens a remote transaction with the payment provider and
// records the matching local PENDING payment.
type CheckoutService struct {
	db          *gorm.DB
	registry    *payment.Registry
	callbackURL string
	currency    string // default currency when the request omits one
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(db *gorm.DB, registry *payment.Registry, callbackURL, defaultCurrency string) *CheckoutService {
	return &CheckoutService{
		db:          db,
		registry:    registry,
		callbackURL: callbackURL,
		currency:    defaultCurrency,
	}
}

// CheckoutRequest is the validated checkout input
type CheckoutRequest struct {
	CourseID   uint
	Amount     float64 // major units; 0 means "use the course price"
	Currency   string
	CouponCode string
}

// CheckoutResult is the client-facing handle for completing the payment
type CheckoutResult struct {
	PaymentID        uint    `json:"payment_id"`
	Reference        string  `json:"reference"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
	AuthorizationURL string  `json:"authorization_url,omitempty"`
	AccessCode       string  `json:"access_code,omitempty"`
}

// Checkout validates the request, opens the remote transaction, and persists
// the PENDING payment carrying the provider reference.
//
// If the remote call succeeds but the local insert fails, an orphan remote
// transaction exists with no local row. The verification sweep resolves it
// later; see VerificationService.
func (s *CheckoutService) Checkout(ctx context.Context, user *model.User, req CheckoutRequest) (*CheckoutResult, error) {
	var course model.Course
	if err := s.db.First(&course, req.CourseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = course.Currency
	}
	if currency == "" {
		currency = s.currency
	}
	if !payment.IsSupportedCurrency(currency) {
		return nil, NewValidationError(fmt.Sprintf("unsupported currency %q", currency))
	}

	amount := req.Amount
	if amount == 0 {
		amount = course.Price
	}
	if amount <= 0 {
		return nil, NewValidationError("amount must be positive")
	}

	var coupon *model.Coupon
	if req.CouponCode != "" {
		var err error
		coupon, amount, err = s.applyCoupon(req.CouponCode, amount)
		if err != nil {
			return nil, err
		}
	}

	adapter, err := s.registry.Default()
	if err != nil {
		return nil, err
	}

	reference := "uv-" + uuid.NewString()

	// Remote call first; the local row only exists once the provider knows
	// the reference. Provider failures are retryable by the caller.
	init, err := adapter.Initialize(ctx, payment.InitializeRequest{
		Reference:   reference,
		Email:       user.Email,
		Amount:      payment.ToMinorUnits(amount, currency),
		Currency:    currency,
		CallbackURL: s.callbackURL,
		Metadata: map[string]interface{}{
			"user_id":   user.ID,
			"course_id": course.ID,
		},
	})
	if err != nil {
		return nil, err
	}

	p := model.Payment{
		UserID:            user.ID,
		CourseID:          course.ID,
		Amount:            amount,
		Currency:          currency,
		Provider:          adapter.Name(),
		ProviderReference: init.ProviderReference,
		Status:            model.PaymentStatusPending,
		CouponCode:        req.CouponCode,
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		log.Printf("[CHECKOUT] orphan remote transaction %s: local persist failed: %v", reference, err)
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	// Count the redemption only once the payment row exists; a failed
	// provider call or persist must not burn the coupon.
	if coupon != nil {
		if err := s.db.Model(coupon).
			Update("redemptions", gorm.Expr("redemptions + 1")).Error; err != nil {
			log.Printf("[CHECKOUT] failed to count redemption for coupon %s: %v", coupon.Code, err)
		}
	}

	log.Printf("[CHECKOUT] payment %d pending: user %d course %d %s %.2f (%s)",
		p.ID, user.ID, course.ID, currency, amount, reference)

	return &CheckoutResult{
		PaymentID:        p.ID,
		Reference:        init.ProviderReference,
		Amount:           amount,
		Currency:         currency,
		AuthorizationURL: init.AuthorizationURL,
		AccessCode:       init.AccessCode,
	}, nil
}

// applyCoupon validates the coupon code and returns the coupon with the
// discounted amount. The redemption counter is not touched here; the caller
// counts it after the payment row is committed.
func (s *CheckoutService) applyCoupon(code string, amount float64) (*model.Coupon, float64, error) {
	var coupon model.Coupon
	if err := s.db.Where("code = ?", code).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, NewValidationError(fmt.Sprintf("unknown coupon code %q", code))
		}
		return nil, 0, fmt.Errorf("failed to load coupon: %w", err)
	}
	if !coupon.IsRedeemable(time.Now()) {
		return nil, 0, NewValidationError(fmt.Sprintf("coupon %q is no longer valid", code))
	}

	return &coupon, coupon.Apply(amount), nil
}

// GetForUser loads a payment visible to the given user. Admins see all
// payments; everyone else only their own.
func (s *CheckoutService) GetForUser(user *model.User, paymentID uint) (*model.Payment, error) {
	var p model.Payment
	query := s.db.Preload("Course")
	if !user.IsAdmin() {
		query = query.Where("user_id = ?", user.ID)
	}
	if err := query.First(&p, paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListForUser returns payments newest first, filtered by owner unless admin
func (s *CheckoutService) ListForUser(user *model.User, status model.PaymentStatus, limit, offset int) ([]model.Payment, int64, error) {
	query := s.db.Model(&model.Payment{})
	if !user.IsAdmin() {
		query = query.Where("user_id = ?", user.ID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payments []model.Payment
	err := query.Preload("Course").Order("created_at DESC").Limit(limit).Offset(offset).Find(&payments).Error
	return payments, total, err
}
