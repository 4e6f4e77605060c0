package enrollment

import (
	"time"

	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/model"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/services"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/utils/middleware"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/utils/response"
	"github.com/gofiber/fiber/v2"
)

// EnrollmentHandler serves a user's course enrollments
type EnrollmentHandler struct {
	enrollments *services.EnrollmentService
}

func NewEnrollmentHandler(enrollments *services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// EnrollmentResponse is the enrollment shape returned to clients
type EnrollmentResponse struct {
	ID         uint      `json:"id"`
	CourseID   uint      `json:"course_id"`
	PaymentID  uint      `json:"payment_id"`
	Status     string    `json:"status"`
	EnrolledAt time.Time `json:"enrolled_at"`
	Course     *struct {
		Title string `json:"title"`
		Slug  string `json:"slug"`
	} `json:"course,omitempty"`
}

func toEnrollmentResponse(e *model.Enrollment) EnrollmentResponse {
	res := EnrollmentResponse{
		ID:         e.ID,
		CourseID:   e.CourseID,
		PaymentID:  e.PaymentID,
		Status:     string(e.Status),
		EnrolledAt: e.EnrolledAt,
	}
	if e.Course.ID != 0 {
		res.Course = &struct {
			Title string `json:"title"`
			Slug  string `json:"slug"`
		}{Title: e.Course.Title, Slug: e.Course.Slug}
	}
	return res
}

// ListMyEnrollments returns the authenticated user's enrollments
func (h *EnrollmentHandler) ListMyEnrollments(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	enrollments, err := h.enrollments.ListForUser(user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch enrollments")
	}

	items := make([]EnrollmentResponse, 0, len(enrollments))
	for i := range enrollments {
		items = append(items, toEnrollmentResponse(&enrollments[i]))
	}

	return response.Success(c, items)
}
