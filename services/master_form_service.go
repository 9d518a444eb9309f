package services

import (
	"context"
	"errors"

	"github.com/sgkm-college/atkt-backend/model"
	"gorm.io/gorm"
)

var (
	ErrMasterFormExists   = errors.New("a master form already exists for this stream, semester and scheme")
	ErrMasterFormNotFound = errors.New("master form not found")
)

// MasterFormService manages the per-offering subject lists admins configure.
type MasterFormService struct {
	db *gorm.DB
}

// NewMasterFormService creates a new master form service
func NewMasterFormService(db *gorm.DB) *MasterFormService {
	return &MasterFormService{db: db}
}

// MasterFormInput is the payload for creating or replacing a master form.
type MasterFormInput struct {
	Stream   string                `json:"stream" validate:"required,oneof=CS IT BMS BAF"`
	Semester string                `json:"semester" validate:"required"`
	Scheme   string                `json:"scheme" validate:"required,oneof=NEP NON-NEP"`
	Subjects []model.MasterSubject `json:"subjects" validate:"required,min=1,dive"`
}

// Create stores a new master form. At most one form may exist per
// (stream, semester, scheme) triple; the check runs inside a transaction so
// racing creates cannot both pass (the unique index backs this up).
func (s *MasterFormService) Create(ctx context.Context, createdBy uint, input MasterFormInput) (*model.MasterForm, error) {
	form := model.MasterForm{
		Stream:    input.Stream,
		Semester:  input.Semester,
		Scheme:    input.Scheme,
		Subjects:  input.Subjects,
		CreatedBy: createdBy,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.MasterForm{}).
			Where("stream = ? AND semester = ? AND scheme = ?", input.Stream, input.Semester, input.Scheme).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrMasterFormExists
		}
		return tx.Create(&form).Error
	})
	if err != nil {
		return nil, err
	}

	return &form, nil
}

// Find returns the form for one (stream, semester, scheme) offering.
func (s *MasterFormService) Find(ctx context.Context, stream, semester, scheme string) (*model.MasterForm, error) {
	var form model.MasterForm
	err := s.db.WithContext(ctx).
		Where("stream = ? AND semester = ? AND scheme = ?", stream, semester, scheme).
		First(&form).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMasterFormNotFound
	}
	if err != nil {
		return nil, err
	}
	return &form, nil
}

// List returns all configured master forms, newest first.
func (s *MasterFormService) List(ctx context.Context) ([]model.MasterForm, error) {
	var forms []model.MasterForm
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&forms).Error; err != nil {
		return nil, err
	}
	return forms, nil
}

// UpdateSubjects replaces the subject list of an existing form.
func (s *MasterFormService) UpdateSubjects(ctx context.Context, id uint, subjects []model.MasterSubject) (*model.MasterForm, error) {
	var form model.MasterForm
	err := s.db.WithContext(ctx).First(&form, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMasterFormNotFound
	}
	if err != nil {
		return nil, err
	}

	form.Subjects = subjects
	if err := s.db.WithContext(ctx).Model(&form).Update("subjects", form.Subjects).Error; err != nil {
		return nil, err
	}
	return &form, nil
}

// Delete removes a master form by id. The delete is permanent so the
// offering's slot under the unique index frees up for a future form.
func (s *MasterFormService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Unscoped().Delete(&model.MasterForm{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMasterFormNotFound
	}
	return nil
}
