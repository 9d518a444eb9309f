package services

import (
	"context"
	"errors"
	"testing"

	"github.com/sgkm-college/atkt-backend/model"
)

func sampleFormInput() MasterFormInput {
	return MasterFormInput{
		Stream:   "CS",
		Semester: "SEM 3",
		Scheme:   "NEP",
		Subjects: []model.MasterSubject{
			{Name: "DATA STRUCTURES", Internal: true, Theory: true, Practical: true},
			{Name: "OPERATING SYSTEMS", Internal: true, Theory: true},
		},
	}
}

func TestMasterFormCreateAndFind(t *testing.T) {
	db := newTestDB(t)
	svc := NewMasterFormService(db)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, sampleFormInput())
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("form was not persisted")
	}

	found, err := svc.Find(ctx, "CS", "SEM 3", "NEP")
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if len(found.Subjects) != 2 {
		t.Fatalf("subjects = %d, want 2", len(found.Subjects))
	}
	if found.Subjects[1].Name != "OPERATING SYSTEMS" || found.Subjects[1].Practical {
		t.Errorf("subjects did not round-trip: %+v", found.Subjects)
	}
}

func TestMasterFormUniquePerOffering(t *testing.T) {
	db := newTestDB(t)
	svc := NewMasterFormService(db)
	ctx := context.Background()

	if _, err := svc.Create(ctx, 1, sampleFormInput()); err != nil {
		t.Fatal(err)
	}

	// Same offering again must be rejected
	if _, err := svc.Create(ctx, 1, sampleFormInput()); !errors.Is(err, ErrMasterFormExists) {
		t.Errorf("duplicate create error = %v, want ErrMasterFormExists", err)
	}

	// A different semester is a different offering
	other := sampleFormInput()
	other.Semester = "SEM 4"
	if _, err := svc.Create(ctx, 1, other); err != nil {
		t.Errorf("distinct offering rejected: %v", err)
	}
}

func TestMasterFormFindNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewMasterFormService(db)

	if _, err := svc.Find(context.Background(), "IT", "SEM 1", "NEP"); !errors.Is(err, ErrMasterFormNotFound) {
		t.Errorf("error = %v, want ErrMasterFormNotFound", err)
	}
}

func TestMasterFormUpdateSubjects(t *testing.T) {
	db := newTestDB(t)
	svc := NewMasterFormService(db)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, sampleFormInput())
	if err != nil {
		t.Fatal(err)
	}

	replacement := []model.MasterSubject{
		{Name: "COMPUTER NETWORKS", Theory: true},
	}
	updated, err := svc.UpdateSubjects(ctx, created.ID, replacement)
	if err != nil {
		t.Fatalf("UpdateSubjects() error: %v", err)
	}
	if len(updated.Subjects) != 1 || updated.Subjects[0].Name != "COMPUTER NETWORKS" {
		t.Errorf("subjects after update = %+v", updated.Subjects)
	}

	if _, err := svc.UpdateSubjects(ctx, 9999, replacement); !errors.Is(err, ErrMasterFormNotFound) {
		t.Errorf("missing form error = %v, want ErrMasterFormNotFound", err)
	}
}

func TestMasterFormDelete(t *testing.T) {
	db := newTestDB(t)
	svc := NewMasterFormService(db)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, sampleFormInput())
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := svc.Find(ctx, "CS", "SEM 3", "NEP"); !errors.Is(err, ErrMasterFormNotFound) {
		t.Errorf("form still findable after delete, err = %v", err)
	}

	if err := svc.Delete(ctx, created.ID); !errors.Is(err, ErrMasterFormNotFound) {
		t.Errorf("second delete error = %v, want ErrMasterFormNotFound", err)
	}

	// The offering slot frees up again
	if _, err := svc.Create(ctx, 1, sampleFormInput()); err != nil {
		t.Errorf("recreate after delete failed: %v", err)
	}
}
