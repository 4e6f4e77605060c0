package course

import (
	"errors"
	"strconv"

	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/model"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CourseHandler serves the public course catalog
type CourseHandler struct {
	db *gorm.DB
}

func NewCourseHandler(db *gorm.DB) *CourseHandler {
	return &CourseHandler{db: db}
}

// CourseResponse is the public course shape
type CourseResponse struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
}

func toCourseResponse(course *model.Course) CourseResponse {
	return CourseResponse{
		ID:          course.ID,
		Title:       course.Title,
		Slug:        course.Slug,
		Description: course.Description,
		Price:       course.Price,
		Currency:    course.Currency,
	}
}

// ListCourses returns all published courses
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var courses []model.Course
	var total int64

	query := h.db.Model(&model.Course{}).Where("published = ?", true)
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count courses")
	}
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&courses).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	items := make([]CourseResponse, 0, len(courses))
	for i := range courses {
		items = append(items, toCourseResponse(&courses[i]))
	}

	return response.Paginated(c, items, response.CalculatePagination(page, limit, total))
}

// GetCourse returns a single published course by ID or slug
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	idOrSlug := c.Params("id")

	var course model.Course
	query := h.db.Where("published = ?", true)
	if id, err := strconv.ParseUint(idOrSlug, 10, 64); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("slug = ?", idOrSlug)
	}

	if err := query.First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	return response.Success(c, toCourseResponse(&course))
}
