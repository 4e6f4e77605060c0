package payment

import (
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/model"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/services"
	paymentsvc "github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/services/payment"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/utils/middleware"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/utils/response"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles checkout, verification, refund and payment listing
type PaymentHandler struct {
	checkout     *services.CheckoutService
	refund       *services.RefundService
	verification *services.VerificationService
	validator    *validation.Validator
}

func NewPaymentHandler(checkout *services.CheckoutService, refund *services.RefundService, verification *services.VerificationService) *PaymentHandler {
	return &PaymentHandler{
		checkout:     checkout,
		refund:       refund,
		verification: verification,
		validator:    validation.NewValidator(),
	}
}

// PaymentResponse is the payment shape returned to clients
type PaymentResponse struct {
	ID                uint      `json:"id"`
	UserID            uint      `json:"user_id"`
	CourseID          uint      `json:"course_id"`
	Provider          string    `json:"provider"`
	ProviderReference string    `json:"provider_reference"`
	Amount            float64   `json:"amount"`
	Currency          string    `json:"currency"`
	Status            string    `json:"status"`
	CouponCode        string    `json:"coupon_code,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toPaymentResponse(p *model.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                p.ID,
		UserID:            p.UserID,
		CourseID:          p.CourseID,
		Provider:          string(p.Provider),
		ProviderReference: p.ProviderReference,
		Amount:            p.Amount,
		Currency:          p.Currency,
		Status:            string(p.Status),
		CouponCode:        p.CouponCode,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// CheckoutRequest represents a checkout initiation request
type CheckoutRequest struct {
	CourseID   uint    `json:"course_id" validate:"required"`
	Amount     float64 `json:"amount" validate:"omitempty,gt=0"` // major units; omit to use course price
	Currency   string  `json:"currency" validate:"omitempty,len=3"`
	CouponCode string  `json:"coupon_code" validate:"omitempty,max=64"`
}

// Checkout initiates a payment for a course and returns the provider's
// authorization URL
func (h *PaymentHandler) Checkout(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	result, err := h.checkout.Checkout(c.Context(), user, services.CheckoutRequest{
		CourseID:   req.CourseID,
		Amount:     req.Amount,
		Currency:   req.Currency,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.Is(err, services.ErrCourseNotFound):
			return response.NotFound(c, "Course not found")
		case errors.As(err, &verr):
			return response.BadRequest(c, verr.Error())
		default:
			log.Printf("Checkout failed for user %d course %d: %v", user.ID, req.CourseID, err)
			return response.RetryableError(c, fiber.StatusBadGateway,
				"Payment provider is unavailable, please try again", "PROVIDER_ERROR")
		}
	}

	return response.Created(c, result)
}

// GetPayment returns a single payment; students see only their own
func (h *PaymentHandler) GetPayment(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid payment ID")
	}

	p, err := h.checkout.GetForUser(user, uint(id))
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			return response.NotFound(c, "Payment not found")
		}
		return response.InternalServerError(c, "Failed to fetch payment")
	}

	return response.Success(c, toPaymentResponse(p))
}

// ListPayments returns the caller's payments; admins see all payments
func (h *PaymentHandler) ListPayments(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	status := model.PaymentStatus(c.Query("status"))

	payments, total, err := h.checkout.ListForUser(user, status, limit, (page-1)*limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch payments")
	}

	items := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		items = append(items, toPaymentResponse(&payments[i]))
	}

	return response.Paginated(c, items, response.CalculatePagination(page, limit, total))
}

// VerifyPayment queries the provider for a reference and reconciles the
// answer into the local ledger. Used by callback pages after checkout.
func (h *PaymentHandler) VerifyPayment(c *fiber.Ctx) error {
	reference := c.Params("reference")
	if reference == "" {
		return response.BadRequest(c, "Payment reference is required")
	}

	result, err := h.verification.VerifyReference(c.Context(), reference)
	if err != nil {
		var perr *paymentsvc.ProviderError
		if errors.As(err, &perr) && perr.StatusCode == fiber.StatusNotFound {
			return response.NotFound(c, "Unknown payment reference")
		}
		log.Printf("Verification failed for reference %s: %v", reference, err)
		return response.RetryableError(c, fiber.StatusBadGateway,
			"Payment provider is unavailable, please try again", "PROVIDER_ERROR")
	}

	return response.Success(c, result)
}

// RefundRequest represents a refund request
type RefundRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=255"`
}

// RefundPayment issues a refund for a succeeded payment. Admin only.
func (h *PaymentHandler) RefundPayment(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid payment ID")
	}

	var req RefundRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	p, err := h.refund.Refund(c.Context(), uint(id), req.Reason)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.Is(err, services.ErrPaymentNotFound):
			return response.NotFound(c, "Payment not found")
		case errors.As(err, &verr):
			return response.Conflict(c, verr.Error())
		default:
			log.Printf("Refund failed for payment %d: %v", id, err)
			return response.RetryableError(c, fiber.StatusBadGateway,
				"Refund could not be completed, please try again", "PROVIDER_ERROR")
		}
	}

	return response.SuccessWithMessage(c, "Refund processed", toPaymentResponse(p))
}
