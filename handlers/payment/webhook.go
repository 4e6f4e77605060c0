package payment

import (
	"errors"
	"log"

	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/model"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/services"
	paymentsvc "github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/services/payment"
	"github.com/gofiber/fiber/v2"
)

// WebhookHandler receives provider webhook deliveries. These endpoints are
// unauthenticated; the signature over the raw body is the only credential.
type WebhookHandler struct {
	webhooks *services.WebhookService
}

func NewWebhookHandler(webhooks *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// signatureHeader returns the header each gateway signs its deliveries with
func signatureHeader(provider model.PaymentProvider) string {
	switch provider {
	case model.ProviderFlutterwave:
		return "verif-hash"
	default:
		return "x-paystack-signature"
	}
}

// Receive handles one webhook delivery. The response status drives the
// provider's redelivery behavior: 2xx acknowledges, 4xx rejects a forged
// payload, anything else asks for a retry.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	provider := model.PaymentProvider(c.Params("provider"))

	// c.Body() is the untouched raw bytes; the signature is computed over
	// them, so no parsing may happen first.
	body := c.Body()
	signature := c.Get(signatureHeader(provider))

	err := h.webhooks.Handle(c.Context(), provider, body, signature)
	if err == nil {
		return c.Status(fiber.StatusOK).SendString("ok")
	}

	switch {
	case errors.Is(err, paymentsvc.ErrUnknownProvider):
		return c.Status(fiber.StatusNotFound).SendString("unknown provider")
	case errors.Is(err, paymentsvc.ErrInvalidSignature):
		log.Printf("[WEBHOOK] rejected %s delivery: invalid signature", provider)
		return c.Status(fiber.StatusBadRequest).SendString("invalid signature")
	default:
		// Processing failed after the claim; a non-2xx here makes the
		// provider redeliver and the FAILED row gets reclaimed.
		log.Printf("[WEBHOOK] %s delivery failed: %v", provider, err)
		return c.Status(fiber.StatusInternalServerError).SendString("processing failed")
	}
}
