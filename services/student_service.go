package services

import (
	"context"
	"errors"
	"log"

	"github.com/sgkm-college/atkt-backend/model"
	"gorm.io/gorm"
)

var (
	ErrMissingFilter   = errors.New("both course and year are required for batch deletion")
	ErrProfileNotFound = errors.New("student profile not found")
)

// StudentService manages the student registry: self-service profile upserts
// and the admin-facing listing/deletion operations.
type StudentService struct {
	db *gorm.DB
}

// NewStudentService creates a new student service
func NewStudentService(db *gorm.DB) *StudentService {
	return &StudentService{db: db}
}

// ProfileInput carries the fields a student may set on their own profile.
// Empty fields are left untouched on update (merge-upsert).
type ProfileInput struct {
	Surname    string `json:"surname" validate:"required"`
	Name       string `json:"name" validate:"required"`
	FatherName string `json:"father_name" validate:"required"`
	MotherName string `json:"mother_name" validate:"required"`
	Gender     string `json:"gender" validate:"required,oneof=Male Female Other"`
	RollNo     string `json:"roll_no" validate:"required"`
	Mobile     string `json:"mobile" validate:"required"`
	Address    string `json:"address"`
	Email      string `json:"email" validate:"omitempty,email"`
}

// UpsertProfile creates or merge-updates the profile owned by userID. Only
// supplied (non-empty) fields overwrite existing values.
func (s *StudentService) UpsertProfile(ctx context.Context, userID uint, input ProfileInput) (*model.StudentProfile, error) {
	var profile model.StudentProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = model.StudentProfile{
			UserID:     &userID,
			Surname:    input.Surname,
			Name:       input.Name,
			FatherName: input.FatherName,
			MotherName: input.MotherName,
			Gender:     input.Gender,
			RollNo:     input.RollNo,
			Mobile:     input.Mobile,
			Address:    input.Address,
			Email:      input.Email,
		}
		if createErr := s.db.WithContext(ctx).Create(&profile).Error; createErr != nil {
			return nil, createErr
		}
		return &profile, nil
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	setIfPresent := func(column, value string) {
		if value != "" {
			updates[column] = value
		}
	}
	setIfPresent("surname", input.Surname)
	setIfPresent("name", input.Name)
	setIfPresent("father_name", input.FatherName)
	setIfPresent("mother_name", input.MotherName)
	setIfPresent("gender", input.Gender)
	setIfPresent("roll_no", input.RollNo)
	setIfPresent("mobile", input.Mobile)
	setIfPresent("address", input.Address)
	setIfPresent("email", input.Email)

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&profile).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return &profile, nil
}

// GetProfileByUser loads the profile owned by userID.
func (s *StudentService) GetProfileByUser(ctx context.Context, userID uint) (*model.StudentProfile, error) {
	var profile model.StudentProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListStudents returns registry entries, optionally filtered by course and
// year (empty filter values match everything).
func (s *StudentService) ListStudents(ctx context.Context, course, year string) ([]model.StudentProfile, error) {
	query := s.db.WithContext(ctx).Model(&model.StudentProfile{})
	if course != "" {
		query = query.Where("course = ?", course)
	}
	if year != "" {
		query = query.Where("year = ?", year)
	}

	var students []model.StudentProfile
	if err := query.Order("roll_no asc").Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

// DeleteBatch removes every student matching both course and year exactly and
// returns the count deleted. Both filters are mandatory so an unbounded
// delete can never reach the store; an empty batch deletes 0 rows and is not
// an error.
func (s *StudentService) DeleteBatch(ctx context.Context, course, year string) (int64, error) {
	if course == "" || year == "" {
		return 0, ErrMissingFilter
	}

	res := s.db.WithContext(ctx).
		Where("course = ? AND year = ?", course, year).
		Delete(&model.StudentProfile{})
	if res.Error != nil {
		return 0, res.Error
	}

	log.Printf("[STUDENTS] batch delete course=%s year=%s removed %d rows", course, year, res.RowsAffected)
	return res.RowsAffected, nil
}
