package services

import (
	"errors"
	"log"
	"time"

	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/model"
	"gorm.io/gorm"
)

// EnrollmentService grants course access as the side effect of a successful
// payment. Safe under webhook replay: the (user_id, course_id) unique index
// is the authoritative guard, and hitting it counts as success.
type EnrollmentService struct {
	db *gorm.DB
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(db *gorm.DB) *EnrollmentService {
	return &EnrollmentService{db: db}
}

// EnsureEnrolled creates the enrollment for (userID, courseID) if it does not
// exist yet. It runs on the caller's transaction handle so the enrollment
// commits or rolls back together with the payment transition.
func (s *EnrollmentService) EnsureEnrolled(tx *gorm.DB, userID, courseID, paymentID uint) error {
	var existing model.Enrollment
	err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&existing).Error
	if err == nil {
		log.Printf("[ENROLL] user %d already enrolled in course %d, skipping", userID, courseID)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	enrollment := model.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		PaymentID:  paymentID,
		Status:     model.EnrollmentStatusInProgress,
		EnrolledAt: time.Now().UTC(),
	}
	if err := tx.Create(&enrollment).Error; err != nil {
		// A concurrent success event for the same pair won the insert race.
		// The constraint did its job; this is success, not an error.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Printf("[ENROLL] concurrent enrollment for user %d course %d, treating as success", userID, courseID)
			return nil
		}
		return err
	}

	log.Printf("[ENROLL] enrolled user %d in course %d (payment %d)", userID, courseID, paymentID)
	return nil
}

// ListForUser returns a user's enrollments, newest first, with the course
func (s *EnrollmentService) ListForUser(userID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := s.db.Preload("Course").
		Where("user_id = ?", userID).
		Order("enrolled_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}
