package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/model"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/utils/auth"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("🌱 Starting database seeding...")

	// Run seeds in order (respecting foreign key constraints)
	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedCourses(); err != nil {
		return fmt.Errorf("failed to seed courses: %w", err)
	}

	if err := s.SeedCoupons(); err != nil {
		return fmt.Errorf("failed to seed coupons: %w", err)
	}

	log.Println("✅ Database seeding completed successfully!")
	return nil
}

// SeedAdminUser creates the default admin user
func (s *Seeder) SeedAdminUser() error {
	// Check if admin already exists
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", "admin").Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Admin user already exists, skipping...")
		return nil
	}

	// Get admin credentials from environment variables
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		log.Println("⚠️  ADMIN_EMAIL and ADMIN_PASSWORD environment variables not set, skipping admin user creation")
		return nil
	}

	// Hash password
	passwordHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.User{
		Email:        adminEmail,
		PasswordHash: passwordHash,
		Name:         "System Administrator",
		Role:         "admin",
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Created admin user: %s", adminEmail)
	return nil
}

// SeedCourses creates a small published catalog for local development
func (s *Seeder) SeedCourses() error {
	var count int64
	if err := s.db.Model(&model.Course{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Courses already exist, skipping...")
		return nil
	}

	courses := []model.Course{
		{
			Title:       "Introduction to UI/UX Design",
			Slug:        "intro-ui-ux-design",
			Description: "Foundations of user interface and user experience design.",
			Price:       150.00,
			Currency:    "GHS",
			Published:   true,
		},
		{
			Title:       "Frontend Web Development",
			Slug:        "frontend-web-development",
			Description: "HTML, CSS and JavaScript from zero to a deployed site.",
			Price:       250.00,
			Currency:    "GHS",
			Published:   true,
		},
		{
			Title:       "Motion Design Essentials",
			Slug:        "motion-design-essentials",
			Description: "Animation principles for product and brand work.",
			Price:       200.00,
			Currency:    "GHS",
			Published:   true,
		},
		{
			Title:       "Data Analytics Bootcamp",
			Slug:        "data-analytics-bootcamp",
			Description: "Spreadsheets to SQL to dashboards.",
			Price:       300.00,
			Currency:    "GHS",
			Published:   false, // draft, not purchasable yet
		},
	}

	for i := range courses {
		if err := s.db.Create(&courses[i]).Error; err != nil {
			return err
		}
	}

	log.Printf("✅ Created %d courses", len(courses))
	return nil
}

// SeedCoupons creates a demo discount coupon
func (s *Seeder) SeedCoupons() error {
	var count int64
	if err := s.db.Model(&model.Coupon{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Coupons already exist, skipping...")
		return nil
	}

	now := time.Now().UTC()
	launchEnd := now.AddDate(0, 3, 0)
	studentEnd := now.AddDate(1, 0, 0)
	coupons := []model.Coupon{
		{
			Code:           "LAUNCH20",
			DiscountPct:    20,
			Active:         true,
			ValidFrom:      &now,
			ValidUntil:     &launchEnd,
			MaxRedemptions: 500,
		},
		{
			Code:           "STUDENT10",
			DiscountPct:    10,
			Active:         true,
			ValidFrom:      &now,
			ValidUntil:     &studentEnd,
			MaxRedemptions: 0, // unlimited
		},
	}

	for i := range coupons {
		if err := s.db.Create(&coupons[i]).Error; err != nil {
			return err
		}
	}

	log.Printf("✅ Created %d coupons", len(coupons))
	return nil
}

// RunSeeds is a convenience function to run all seeds
func RunSeeds(db *gorm.DB) error {
	seeder := NewSeeder(db)
	return seeder.SeedAll()
}
