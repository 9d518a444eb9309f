package services

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/sgkm-college/atkt-backend/model"
	"gorm.io/gorm"
)

func newApplicationService(db *gorm.DB) *ApplicationService {
	return NewApplicationService(
		db,
		NewSeatService(db),
		NewStudentService(db),
		NewMasterFormService(db),
		NewSignatureService(db, nil),
		NewPDFService(),
	)
}

// seedApplicant creates a user account, its profile and the master form the
// submission will be validated against.
func seedApplicant(t *testing.T, db *gorm.DB, userID uint, rollNo string) {
	t.Helper()

	user := model.User{
		Email:        "student@example.com",
		PasswordHash: "x",
		Name:         "Rahul Sharma",
		Role:         "student",
	}
	user.ID = userID
	if err := db.Create(&user).Error; err != nil {
		t.Fatal(err)
	}

	profile := model.StudentProfile{
		UserID:     &userID,
		Surname:    "SHARMA",
		Name:       "RAHUL",
		FatherName: "SURESH",
		MotherName: "MEENA",
		Gender:     "Male",
		RollNo:     rollNo,
		Mobile:     "9876543210",
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatal(err)
	}

	form := model.MasterForm{
		Stream:   "CS",
		Semester: "SEM 3",
		Scheme:   "NEP",
		Subjects: []model.MasterSubject{
			{Name: "DATA STRUCTURES", Internal: true, Theory: true, Practical: true},
			{Name: "OPERATING SYSTEMS", Internal: true, Theory: true},
		},
	}
	if err := db.Create(&form).Error; err != nil {
		t.Fatal(err)
	}
}

func sampleSubmission(t *testing.T) SubmissionInput {
	return SubmissionInput{
		Stream:   "CS",
		Semester: "SEM 3",
		Scheme:   "NEP",
		Subjects: []model.SelectedSubject{
			{Name: "DATA STRUCTURES", Theory: true},
		},
		Signature: "data:image/png;base64," + base64.StdEncoding.EncodeToString(tinyPNG(t)),
	}
}

func TestSubmitHappyPath(t *testing.T) {
	db := newTestDB(t)
	svc := newApplicationService(db)
	ctx := context.Background()

	seedApplicant(t, db, 1, "A21045")

	result, err := svc.Submit(ctx, 1, "student@example.com", sampleSubmission(t))
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	app := result.Application
	if app.SeatNo != "21S001" {
		t.Errorf("SeatNo = %q, want 21S001", app.SeatNo)
	}
	if app.Status != model.ApplicationStatusSubmitted {
		t.Errorf("Status = %q, want submitted", app.Status)
	}
	if app.StudentName != "SHARMA RAHUL" {
		t.Errorf("StudentName = %q, want SHARMA RAHUL", app.StudentName)
	}
	if app.RollNo != "A21045" {
		t.Errorf("RollNo = %q", app.RollNo)
	}
	if len(result.PDF) == 0 {
		t.Error("no PDF was rendered")
	}

	// Stored and retrievable
	stored, err := svc.GetByID(ctx, app.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Subjects) != 1 || stored.Subjects[0].Name != "DATA STRUCTURES" {
		t.Errorf("stored subjects = %+v", stored.Subjects)
	}
}

func TestSubmitSequentialSeatNumbers(t *testing.T) {
	db := newTestDB(t)
	svc := newApplicationService(db)
	ctx := context.Background()

	seedApplicant(t, db, 1, "A21045")

	first, err := svc.Submit(ctx, 1, "student@example.com", sampleSubmission(t))
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Submit(ctx, 1, "student@example.com", sampleSubmission(t))
	if err != nil {
		t.Fatal(err)
	}

	if first.Application.SeatNo != "21S001" || second.Application.SeatNo != "21S002" {
		t.Errorf("seat numbers = %q, %q; want 21S001, 21S002",
			first.Application.SeatNo, second.Application.SeatNo)
	}
}

func TestSubmitRequiresProfile(t *testing.T) {
	db := newTestDB(t)
	svc := newApplicationService(db)

	_, err := svc.Submit(context.Background(), 42, "ghost@example.com", sampleSubmission(t))
	if !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("error = %v, want ErrProfileNotFound", err)
	}
}

func TestSubmitRequiresMasterForm(t *testing.T) {
	db := newTestDB(t)
	svc := newApplicationService(db)

	seedApplicant(t, db, 1, "A21045")

	input := sampleSubmission(t)
	input.Semester = "SEM 5" // no form exists for this offering
	_, err := svc.Submit(context.Background(), 1, "student@example.com", input)
	if !errors.Is(err, ErrMasterFormNotFound) {
		t.Errorf("error = %v, want ErrMasterFormNotFound", err)
	}
}

func TestSubmitRejectsUnknownSubject(t *testing.T) {
	db := newTestDB(t)
	svc := newApplicationService(db)
	ctx := context.Background()

	seedApplicant(t, db, 1, "A21045")

	input := sampleSubmission(t)
	input.Subjects = []model.SelectedSubject{{Name: "ASTROLOGY", Theory: true}}
	if _, err := svc.Submit(ctx, 1, "student@example.com", input); !errors.Is(err, ErrSubjectNotOffered) {
		t.Errorf("unknown subject error = %v, want ErrSubjectNotOffered", err)
	}

	// A component the master form does not offer is also rejected
	input.Subjects = []model.SelectedSubject{{Name: "OPERATING SYSTEMS", Practical: true}}
	if _, err := svc.Submit(ctx, 1, "student@example.com", input); !errors.Is(err, ErrSubjectNotOffered) {
		t.Errorf("missing component error = %v, want ErrSubjectNotOffered", err)
	}

	// Failed submissions must not consume seat numbers
	var count int64
	db.Model(&model.SeatCounter{}).Count(&count)
	if count != 0 {
		t.Errorf("seat counters after rejected submissions = %d, want 0", count)
	}
}

func TestSubmitRejectsBadSignature(t *testing.T) {
	db := newTestDB(t)
	svc := newApplicationService(db)

	seedApplicant(t, db, 1, "A21045")

	input := sampleSubmission(t)
	input.Signature = "data:image/png;base64,%%%not-base64%%%"
	if _, err := svc.Submit(context.Background(), 1, "student@example.com", input); err == nil {
		t.Error("invalid signature accepted")
	}
}

func TestMarkProcessed(t *testing.T) {
	db := newTestDB(t)
	svc := newApplicationService(db)
	ctx := context.Background()

	seedApplicant(t, db, 1, "A21045")
	result, err := svc.Submit(ctx, 1, "student@example.com", sampleSubmission(t))
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.MarkProcessed(ctx, result.Application.ID)
	if err != nil {
		t.Fatalf("MarkProcessed() error: %v", err)
	}
	if updated.Status != model.ApplicationStatusProcessed {
		t.Errorf("Status = %q, want processed", updated.Status)
	}

	// Idempotent
	again, err := svc.MarkProcessed(ctx, result.Application.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.Status != model.ApplicationStatusProcessed {
		t.Errorf("second MarkProcessed changed status to %q", again.Status)
	}

	if _, err := svc.MarkProcessed(ctx, 9999); !errors.Is(err, ErrApplicationNotFound) {
		t.Errorf("missing application error = %v, want ErrApplicationNotFound", err)
	}
}

func TestListByUserAndListAll(t *testing.T) {
	db := newTestDB(t)
	svc := newApplicationService(db)
	ctx := context.Background()

	seedApplicant(t, db, 1, "A21045")
	if _, err := svc.Submit(ctx, 1, "student@example.com", sampleSubmission(t)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Submit(ctx, 1, "student@example.com", sampleSubmission(t)); err != nil {
		t.Fatal(err)
	}

	mine, err := svc.ListByUser(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 {
		t.Errorf("ListByUser = %d applications, want 2", len(mine))
	}

	all, err := svc.ListAll(ctx, "CS", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("ListAll(CS) = %d, want 2", len(all))
	}

	none, err := svc.ListAll(ctx, "IT", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("ListAll(IT) = %d, want 0", len(none))
	}

	processed, err := svc.ListAll(ctx, "", model.ApplicationStatusProcessed)
	if err != nil {
		t.Fatal(err)
	}
	if len(processed) != 0 {
		t.Errorf("ListAll(processed) = %d, want 0", len(processed))
	}
}
