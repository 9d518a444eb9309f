package database

import (
	"fmt"
	"log"
	"os"

	"github.com/sgkm-college/atkt-backend/model"
	"github.com/sgkm-college/atkt-backend/utils/auth"
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

	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedMasterForms(); err != nil {
		return fmt.Errorf("failed to seed master forms: %w", err)
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
		Name:         "Exam Cell Administrator",
		Role:         "admin",
		TokenVersion: 0,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Created admin user: %s\n", admin.Email)
	return nil
}

// SeedMasterForms creates a sample master form per stream so a fresh install
// has something students can apply against.
func (s *Seeder) SeedMasterForms() error {
	var count int64
	if err := s.db.Model(&model.MasterForm{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Master forms already exist, skipping...")
		return nil
	}

	forms := []model.MasterForm{
		{
			Stream:   "CS",
			Semester: "SEM 3",
			Scheme:   "NEP",
			Subjects: []model.MasterSubject{
				{Name: "Data Structures", Internal: true, Theory: true, Practical: true},
				{Name: "Operating Systems", Internal: true, Theory: true, Practical: true},
				{Name: "Discrete Mathematics", Internal: true, Theory: true, Practical: false},
			},
		},
		{
			Stream:   "IT",
			Semester: "SEM 3",
			Scheme:   "NEP",
			Subjects: []model.MasterSubject{
				{Name: "Database Management Systems", Internal: true, Theory: true, Practical: true},
				{Name: "Computer Networks", Internal: true, Theory: true, Practical: true},
			},
		},
		{
			Stream:   "BMS",
			Semester: "SEM 3",
			Scheme:   "NON-NEP",
			Subjects: []model.MasterSubject{
				{Name: "Business Economics", Internal: true, Theory: true, Practical: false},
				{Name: "Accounting for Management", Internal: true, Theory: true, Practical: false},
			},
		},
		{
			Stream:   "BAF",
			Semester: "SEM 3",
			Scheme:   "NON-NEP",
			Subjects: []model.MasterSubject{
				{Name: "Financial Accounting", Internal: true, Theory: true, Practical: false},
				{Name: "Taxation", Internal: true, Theory: true, Practical: false},
			},
		},
	}

	for i := range forms {
		if err := s.db.Create(&forms[i]).Error; err != nil {
			return err
		}
	}

	log.Printf("✅ Created %d master forms\n", len(forms))
	return nil
}

// RunSeeds is a convenience wrapper used by cmd/seed
func RunSeeds(db *gorm.DB) error {
	return NewSeeder(db).SeedAll()
}
