package services

import (
	"context"
	"errors"
	"testing"

	"github.com/sgkm-college/atkt-backend/model"
)

func seedRoster(t *testing.T, svc *StudentService, profiles []model.StudentProfile) {
	t.Helper()
	for i := range profiles {
		if err := svc.db.Create(&profiles[i]).Error; err != nil {
			t.Fatalf("failed to seed profile: %v", err)
		}
	}
}

func TestUpsertProfileCreates(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentService(db)
	ctx := context.Background()

	input := ProfileInput{
		Surname:    "SHARMA",
		Name:       "RAHUL",
		FatherName: "SURESH",
		MotherName: "MEENA",
		Gender:     "Male",
		RollNo:     "A21045",
		Mobile:     "9876543210",
		Address:    "Ghatkopar, Mumbai",
		Email:      "rahul@example.com",
	}
	profile, err := svc.UpsertProfile(ctx, 7, input)
	if err != nil {
		t.Fatalf("UpsertProfile() error: %v", err)
	}
	if profile.ID == 0 {
		t.Fatal("profile was not persisted")
	}
	if profile.UserID == nil || *profile.UserID != 7 {
		t.Errorf("UserID = %v, want 7", profile.UserID)
	}

	loaded, err := svc.GetProfileByUser(ctx, 7)
	if err != nil {
		t.Fatalf("GetProfileByUser() error: %v", err)
	}
	if loaded.Surname != "SHARMA" || loaded.RollNo != "A21045" {
		t.Errorf("loaded profile = %+v", loaded)
	}
}

func TestUpsertProfileMergesOnUpdate(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentService(db)
	ctx := context.Background()

	if _, err := svc.UpsertProfile(ctx, 3, ProfileInput{
		Surname: "PATEL", Name: "PRIYA", FatherName: "RAMESH", MotherName: "SITA",
		Gender: "Female", RollNo: "A21010", Mobile: "9000000001", Address: "Mumbai",
	}); err != nil {
		t.Fatal(err)
	}

	// Partial update: only mobile changes, everything else stays
	if _, err := svc.UpsertProfile(ctx, 3, ProfileInput{Mobile: "9000000099"}); err != nil {
		t.Fatal(err)
	}

	loaded, err := svc.GetProfileByUser(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Mobile != "9000000099" {
		t.Errorf("Mobile = %q, want updated value", loaded.Mobile)
	}
	if loaded.Surname != "PATEL" || loaded.Address != "Mumbai" {
		t.Errorf("untouched fields changed: %+v", loaded)
	}

	// No second row was created
	var count int64
	db.Model(&model.StudentProfile{}).Where("user_id = ?", 3).Count(&count)
	if count != 1 {
		t.Errorf("profile rows for user = %d, want 1", count)
	}
}

func TestGetProfileByUserNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentService(db)

	if _, err := svc.GetProfileByUser(context.Background(), 99); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("error = %v, want ErrProfileNotFound", err)
	}
}

func TestListStudentsFilters(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentService(db)
	ctx := context.Background()

	seedRoster(t, svc, []model.StudentProfile{
		{FullName: "A", Course: "CS", Year: "FY", RollNo: "A21003"},
		{FullName: "B", Course: "CS", Year: "FY", RollNo: "A21001"},
		{FullName: "C", Course: "CS", Year: "SY", RollNo: "A20001"},
		{FullName: "D", Course: "IT", Year: "FY", RollNo: "B21001"},
	})

	all, err := svc.ListStudents(ctx, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("unfiltered count = %d, want 4", len(all))
	}

	csFY, err := svc.ListStudents(ctx, "CS", "FY")
	if err != nil {
		t.Fatal(err)
	}
	if len(csFY) != 2 {
		t.Fatalf("CS/FY count = %d, want 2", len(csFY))
	}
	// Ordered by roll number
	if csFY[0].RollNo != "A21001" || csFY[1].RollNo != "A21003" {
		t.Errorf("list not ordered by roll number: %s, %s", csFY[0].RollNo, csFY[1].RollNo)
	}
}

func TestDeleteBatchRequiresBothFilters(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentService(db)
	ctx := context.Background()

	seedRoster(t, svc, []model.StudentProfile{
		{FullName: "A", Course: "CS", Year: "FY", RollNo: "A21001"},
	})

	cases := []struct{ course, year string }{
		{"", "FY"},
		{"CS", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if _, err := svc.DeleteBatch(ctx, tc.course, tc.year); !errors.Is(err, ErrMissingFilter) {
			t.Errorf("DeleteBatch(%q, %q) error = %v, want ErrMissingFilter", tc.course, tc.year, err)
		}
	}

	// Nothing was deleted by the rejected calls
	var count int64
	db.Model(&model.StudentProfile{}).Count(&count)
	if count != 1 {
		t.Errorf("rows after rejected deletes = %d, want 1", count)
	}
}

func TestDeleteBatchRemovesOnlyMatching(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentService(db)
	ctx := context.Background()

	seedRoster(t, svc, []model.StudentProfile{
		{FullName: "A", Course: "CS", Year: "FY", RollNo: "A21001"},
		{FullName: "B", Course: "CS", Year: "FY", RollNo: "A21002"},
		{FullName: "C", Course: "CS", Year: "FY", RollNo: "A21003"},
		{FullName: "D", Course: "CS", Year: "SY", RollNo: "A20001"},
		{FullName: "E", Course: "IT", Year: "FY", RollNo: "B21001"},
	})

	deleted, err := svc.DeleteBatch(ctx, "CS", "FY")
	if err != nil {
		t.Fatalf("DeleteBatch() error: %v", err)
	}
	if deleted != 3 {
		t.Errorf("deleted = %d, want 3", deleted)
	}

	remaining, err := svc.ListStudents(ctx, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 2 {
		t.Errorf("remaining = %d, want 2", len(remaining))
	}

	// Idempotent: running the same delete again removes nothing
	deleted, err = svc.DeleteBatch(ctx, "CS", "FY")
	if err != nil {
		t.Fatalf("second DeleteBatch() error: %v", err)
	}
	if deleted != 0 {
		t.Errorf("second delete removed %d rows, want 0", deleted)
	}
}
