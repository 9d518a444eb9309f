package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sgkm-college/atkt-backend/model"
	"gorm.io/gorm"
)

var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrNoSubjectsSelected  = errors.New("at least one subject must be selected")
	ErrSubjectNotOffered   = errors.New("selected subject is not part of the master form")
)

// ApplicationService handles ATKT application submission and retrieval.
// Submission is the point where a seat number is allocated; an allocated
// number that later fails to persist is simply never reused.
type ApplicationService struct {
	db         *gorm.DB
	seats      *SeatService
	students   *StudentService
	forms      *MasterFormService
	signatures *SignatureService
	pdf        *PDFService
}

// NewApplicationService creates a new application service
func NewApplicationService(db *gorm.DB, seats *SeatService, students *StudentService, forms *MasterFormService, signatures *SignatureService, pdf *PDFService) *ApplicationService {
	return &ApplicationService{
		db:         db,
		seats:      seats,
		students:   students,
		forms:      forms,
		signatures: signatures,
		pdf:        pdf,
	}
}

// SubmissionInput is the payload a student submits.
type SubmissionInput struct {
	Stream    string                  `json:"stream" validate:"required,oneof=CS IT BAF BMS"`
	Semester  string                  `json:"semester" validate:"required"`
	Scheme    string                  `json:"scheme" validate:"required,oneof=NEP NON-NEP"`
	Subjects  []model.SelectedSubject `json:"subjects" validate:"required,min=1,dive"`
	Signature string                  `json:"signature" validate:"required"` // data URL or base64 PNG
	Photo     string                  `json:"photo"`                         // optional, same encoding
}

// SubmissionResult carries the stored application and its rendered document.
type SubmissionResult struct {
	Application *model.ATKTApplication
	PDF         []byte
}

// Submit validates the request against the student's profile and the master
// form for the offering, allocates a seat number, stores the application and
// renders the two-part PDF.
func (s *ApplicationService) Submit(ctx context.Context, userID uint, email string, input SubmissionInput) (*SubmissionResult, error) {
	profile, err := s.students.GetProfileByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	form, err := s.forms.Find(ctx, input.Stream, input.Semester, input.Scheme)
	if err != nil {
		return nil, err
	}
	if err := validateSubjectSelection(form.Subjects, input.Subjects); err != nil {
		return nil, err
	}

	signature, err := DecodeImageDataURL(input.Signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature image: %w", err)
	}
	var photo []byte
	if input.Photo != "" {
		if photo, err = DecodeImageDataURL(input.Photo); err != nil {
			return nil, fmt.Errorf("invalid photo image: %w", err)
		}
	}

	seatNo, err := s.seats.AllocateSeatNumber(ctx, input.Stream, profile.RollNo)
	if err != nil {
		return nil, err
	}

	application := &model.ATKTApplication{
		UserID:      userID,
		Email:       email,
		StudentName: strings.TrimSpace(profile.Surname + " " + profile.Name),
		RollNo:      profile.RollNo,
		Stream:      input.Stream,
		Semester:    input.Semester,
		Scheme:      input.Scheme,
		Subjects:    input.Subjects,
		SeatNo:      seatNo,
		Status:      model.ApplicationStatusSubmitted,
	}
	if err := s.db.WithContext(ctx).Create(application).Error; err != nil {
		return nil, fmt.Errorf("failed to store application: %w", err)
	}

	pdfBytes, err := s.render(ctx, application, profile, signature, photo)
	if err != nil {
		return nil, err
	}
	return &SubmissionResult{Application: application, PDF: pdfBytes}, nil
}

// render assembles the application document, attaching the current official
// signatures when they exist.
func (s *ApplicationService) render(ctx context.Context, app *model.ATKTApplication, profile *model.StudentProfile, studentSig, photo []byte) ([]byte, error) {
	official, err := s.signatures.Get(ctx)
	if err != nil {
		return nil, err
	}

	doc := ApplicationDocument{
		Student: StudentIdentity{
			Surname:    profile.Surname,
			Name:       profile.Name,
			FatherName: profile.FatherName,
			MotherName: profile.MotherName,
			Gender:     profile.Gender,
			Mobile:     profile.Mobile,
			RollNo:     profile.RollNo,
		},
		Stream:             app.Stream,
		Semester:           app.Semester,
		Scheme:             app.Scheme,
		SeatNo:             app.SeatNo,
		Subjects:           app.Subjects,
		Photo:              photo,
		StudentSignature:   studentSig,
		HODSignature:       official.HODSignature,
		PrincipalSignature: official.PrincipalSignature,
	}
	return s.pdf.Assemble(doc)
}

// RegeneratePDF re-renders the document for an existing application. The
// student signature is not stored, so regenerated copies omit it.
func (s *ApplicationService) RegeneratePDF(ctx context.Context, id uint) ([]byte, error) {
	application, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	profile, err := s.students.GetProfileByUser(ctx, application.UserID)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, application, profile, nil, nil)
}

// GetByID returns one application.
func (s *ApplicationService) GetByID(ctx context.Context, id uint) (*model.ATKTApplication, error) {
	var application model.ATKTApplication
	if err := s.db.WithContext(ctx).First(&application, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to load application: %w", err)
	}
	return &application, nil
}

// ListByUser returns the caller's applications, newest first.
func (s *ApplicationService) ListByUser(ctx context.Context, userID uint) ([]model.ATKTApplication, error) {
	var applications []model.ATKTApplication
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&applications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return applications, nil
}

// ListAll returns applications for the admin view. stream and status filter
// when non-empty.
func (s *ApplicationService) ListAll(ctx context.Context, stream, status string) ([]model.ATKTApplication, error) {
	query := s.db.WithContext(ctx).Model(&model.ATKTApplication{})
	if stream != "" {
		query = query.Where("stream = ?", stream)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var applications []model.ATKTApplication
	if err := query.Order("created_at DESC").Find(&applications).Error; err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return applications, nil
}

// MarkProcessed transitions an application to the processed state.
func (s *ApplicationService) MarkProcessed(ctx context.Context, id uint) (*model.ATKTApplication, error) {
	application, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if application.Status == model.ApplicationStatusProcessed {
		return application, nil
	}
	application.Status = model.ApplicationStatusProcessed
	if err := s.db.WithContext(ctx).Model(application).Update("status", model.ApplicationStatusProcessed).Error; err != nil {
		return nil, fmt.Errorf("failed to update application status: %w", err)
	}
	return application, nil
}

// validateSubjectSelection checks every selected subject against the master
// form: the subject must exist and each requested component must be offered.
func validateSubjectSelection(offered []model.MasterSubject, selected []model.SelectedSubject) error {
	if len(selected) == 0 {
		return ErrNoSubjectsSelected
	}
	byName := make(map[string]model.MasterSubject, len(offered))
	for _, sub := range offered {
		byName[strings.ToUpper(strings.TrimSpace(sub.Name))] = sub
	}
	for _, sel := range selected {
		master, ok := byName[strings.ToUpper(strings.TrimSpace(sel.Name))]
		if !ok {
			return fmt.Errorf("%w: %s", ErrSubjectNotOffered, sel.Name)
		}
		if (sel.Internal && !master.Internal) || (sel.Theory && !master.Theory) || (sel.Practical && !master.Practical) {
			return fmt.Errorf("%w: %s has no such exam component", ErrSubjectNotOffered, sel.Name)
		}
	}
	return nil
}
