package model

import (
	"time"

	"gorm.io/gorm"
)

// Course represents a purchasable course. Catalog management lives in the
// course subsystem; this service only reads the row to validate existence
// and pricing before creating a payment.
type Course struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Title       string         `gorm:"not null" json:"title"`
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`
	Description string         `gorm:"type:text" json:"description"`
	Price       float64        `gorm:"not null" json:"price"`
	Currency    string         `gorm:"type:varchar(10);not null;default:'GHS'" json:"currency"`
	Published   bool           `gorm:"default:false;index" json:"published"`

	// Relationships
	Enrollments []Enrollment `gorm:"foreignKey:CourseID" json:"-"`
	Payments    []Payment    `gorm:"foreignKey:CourseID" json:"-"`
}

// TableName specifies the table name for Course
func (Course) TableName() string {
	return "courses"
}
