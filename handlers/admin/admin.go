package admin

import (
	"strconv"

	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/model"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/services"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdminHandler exposes operational inspection endpoints: webhook event audit
// trail and cron job history. All routes require the admin role.
type AdminHandler struct {
	db       *gorm.DB
	webhooks *services.WebhookService
}

func NewAdminHandler(db *gorm.DB, webhooks *services.WebhookService) *AdminHandler {
	return &AdminHandler{db: db, webhooks: webhooks}
}

func pagination(c *fiber.Ctx) (page, limit int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	limit, _ = strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// ListWebhookEvents returns the webhook event trail, optionally filtered by
// status (received, processing, processed, failed)
func (h *AdminHandler) ListWebhookEvents(c *fiber.Ctx) error {
	page, limit := pagination(c)
	status := model.WebhookEventStatus(c.Query("status"))

	events, total, err := h.webhooks.ListEvents(status, limit, (page-1)*limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch webhook events")
	}

	return response.Paginated(c, events, response.CalculatePagination(page, limit, total))
}

// GetWebhookEvent returns a single webhook event with its raw payload
func (h *AdminHandler) GetWebhookEvent(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid event ID")
	}

	var event model.WebhookEvent
	if err := h.db.First(&event, id).Error; err != nil {
		return response.NotFound(c, "Webhook event not found")
	}

	return response.Success(c, event)
}

// ListCronJobLogs returns recent cron job runs, newest first
func (h *AdminHandler) ListCronJobLogs(c *fiber.Ctx) error {
	page, limit := pagination(c)
	jobName := c.Query("job_name")

	query := h.db.Model(&model.CronJobLog{})
	if jobName != "" {
		query = query.Where("job_name = ?", jobName)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count cron job logs")
	}

	var logs []model.CronJobLog
	if err := query.Order("started_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&logs).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch cron job logs")
	}

	return response.Paginated(c, logs, response.CalculatePagination(page, limit, total))
}
