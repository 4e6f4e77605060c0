package model

import "time"

// EnrollmentStatus represents a learner's progress through a course
type EnrollmentStatus string

const (
	EnrollmentStatusInProgress EnrollmentStatus = "in_progress"
	EnrollmentStatusCompleted  EnrollmentStatus = "completed"
)

// Enrollment grants a user access to a course. The composite unique index on
// (user_id, course_id) is the authoritative guard: no matter how many
// successful-payment events are replayed, at most one row exists per pair.
type Enrollment struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	UserID     uint             `gorm:"not null;uniqueIndex:idx_enrollments_user_course" json:"user_id"`
	CourseID   uint             `gorm:"not null;uniqueIndex:idx_enrollments_user_course" json:"course_id"`
	PaymentID  uint             `gorm:"not null;index" json:"payment_id"`
	Status     EnrollmentStatus `gorm:"type:varchar(20);not null;default:'in_progress'" json:"status"`
	EnrolledAt time.Time        `gorm:"not null" json:"enrolled_at"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`

	// Relationships
	User    User    `gorm:"foreignKey:UserID" json:"-"`
	Course  Course  `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Payment Payment `gorm:"foreignKey:PaymentID" json:"-"`
}

// TableName specifies the table name for Enrollment
func (Enrollment) TableName() string {
	return "enrollments"
}
