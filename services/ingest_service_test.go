package services

import (
	"context"
	"testing"

	"github.com/sgkm-college/atkt-backend/model"
)

func validRosterRow(name, roll string) RawRow {
	return RawRow{
		"FullName":     name,
		"CourseName":   "FY CS",
		"Gender":       "Male",
		"RollNumber":   roll,
		"MobileNumber": "9876543210",
		"EmailId":      "student@example.com",
	}
}

func drain(ch <-chan IngestUpdate) []IngestUpdate {
	var updates []IngestUpdate
	for u := range ch {
		updates = append(updates, u)
	}
	return updates
}

func TestIngestMixedBatch(t *testing.T) {
	db := newTestDB(t)
	svc := NewIngestService(db, nil)

	rows := []RawRow{
		validRosterRow("RAHUL SHARMA", "A21001"),
		validRosterRow("PRIYA PATEL", "A21002"),
		{"FullName": "NO ROLL", "CourseName": "FY CS", "MobileNumber": "9876543210", "EmailId": "x@y.com"},
		{"FullName": "BAD MOBILE", "CourseName": "FY CS", "RollNumber": "A21003", "MobileNumber": "not-a-number", "EmailId": "x@y.com"},
		validRosterRow("AMIT VERMA", "A21004"),
	}

	updates := drain(svc.Ingest(context.Background(), "upload-1", rows))

	// One update per row plus the completion update
	if len(updates) != len(rows)+1 {
		t.Fatalf("got %d updates, want %d", len(updates), len(rows)+1)
	}

	// Progress events arrive in row order
	for i, u := range updates[:len(rows)] {
		if u.Processed != i+1 {
			t.Errorf("update %d: Processed = %d, want %d", i, u.Processed, i+1)
		}
		if u.Completed {
			t.Errorf("update %d: Completed set before the final update", i)
		}
		if u.LastRow == nil || u.LastRow.Row != i+1 {
			t.Errorf("update %d: LastRow does not reference row %d", i, i+1)
		}
	}

	final := updates[len(updates)-1]
	if !final.Completed {
		t.Error("final update is not marked completed")
	}
	if final.Added != 3 || final.Skipped != 0 || final.Failed != 2 {
		t.Errorf("final counts = added %d, skipped %d, failed %d; want 3/0/2",
			final.Added, final.Skipped, final.Failed)
	}
	if final.Added+final.Skipped+final.Failed != final.TotalRows {
		t.Error("final counts do not sum to total rows")
	}

	var stored int64
	db.Model(&model.StudentProfile{}).Count(&stored)
	if stored != 3 {
		t.Errorf("stored profiles = %d, want 3", stored)
	}
}

func TestIngestProgressWithoutTracker(t *testing.T) {
	db := newTestDB(t)
	svc := NewIngestService(db, nil) // no Redis mirror

	rows := []RawRow{
		validRosterRow("RAHUL SHARMA", "A21001"),
		validRosterRow("PRIYA PATEL", "A21002"),
		validRosterRow("AMIT VERMA", "A21003"),
		validRosterRow("ASHA NAIR", "A21004"),
	}

	updates := drain(svc.Ingest(context.Background(), "upload-pct", rows))
	if len(updates) != len(rows)+1 {
		t.Fatalf("got %d updates, want %d", len(updates), len(rows)+1)
	}

	// The percentage must be carried on every event even when the Redis
	// mirror is unavailable.
	for i, u := range updates[:len(rows)] {
		want := (i + 1) * 100 / len(rows)
		if u.Progress != want {
			t.Errorf("update %d: Progress = %d, want %d", i, u.Progress, want)
		}
	}
	if final := updates[len(updates)-1]; final.Progress != 100 {
		t.Errorf("final Progress = %d, want 100", final.Progress)
	}
}

func TestIngestSkipsDuplicates(t *testing.T) {
	db := newTestDB(t)
	svc := NewIngestService(db, nil)
	ctx := context.Background()

	existing := model.StudentProfile{
		FullName: "ORIGINAL NAME",
		Course:   "CS",
		Year:     "FY",
		RollNo:   "A21001",
		Mobile:   "1112223334",
		Email:    "original@example.com",
	}
	if err := db.Create(&existing).Error; err != nil {
		t.Fatal(err)
	}

	rows := []RawRow{
		validRosterRow("REPLACEMENT NAME", "A21001"), // same roll, same course
		validRosterRow("FRESH STUDENT", "A21002"),
	}
	updates := drain(svc.Ingest(ctx, "upload-2", rows))

	final := updates[len(updates)-1]
	if final.Added != 1 || final.Skipped != 1 || final.Failed != 0 {
		t.Errorf("final counts = added %d, skipped %d, failed %d; want 1/1/0",
			final.Added, final.Skipped, final.Failed)
	}

	// The duplicate must not modify the existing record
	var stored model.StudentProfile
	if err := db.First(&stored, existing.ID).Error; err != nil {
		t.Fatal(err)
	}
	if stored.FullName != "ORIGINAL NAME" || stored.Email != "original@example.com" {
		t.Errorf("existing record was modified: %+v", stored)
	}
}

func TestIngestSameRollDifferentCourse(t *testing.T) {
	db := newTestDB(t)
	svc := NewIngestService(db, nil)

	rows := []RawRow{
		validRosterRow("CS STUDENT", "A21001"),
		{
			"FullName":     "IT STUDENT",
			"CourseName":   "FY IT",
			"Gender":       "Female",
			"RollNumber":   "A21001", // same roll, different course
			"MobileNumber": "9876543211",
			"EmailId":      "it@example.com",
		},
	}
	updates := drain(svc.Ingest(context.Background(), "upload-3", rows))

	final := updates[len(updates)-1]
	if final.Added != 2 || final.Skipped != 0 {
		t.Errorf("final counts = added %d, skipped %d; want 2/0", final.Added, final.Skipped)
	}
}

func TestIngestEmptyBatch(t *testing.T) {
	db := newTestDB(t)
	svc := NewIngestService(db, nil)

	updates := drain(svc.Ingest(context.Background(), "upload-4", nil))

	if len(updates) != 1 {
		t.Fatalf("got %d updates for empty batch, want 1", len(updates))
	}
	if !updates[0].Completed {
		t.Error("empty batch did not complete")
	}
	if updates[0].Added != 0 || updates[0].Skipped != 0 || updates[0].Failed != 0 {
		t.Errorf("empty batch counts = %+v, want zeros", updates[0])
	}
}

func TestIngestUpdatesDurableBatchRow(t *testing.T) {
	db := newTestDB(t)
	svc := NewIngestService(db, nil)

	batch := model.UploadBatch{UploadID: "upload-5", TotalRows: 1}
	if err := db.Create(&batch).Error; err != nil {
		t.Fatal(err)
	}

	drain(svc.Ingest(context.Background(), "upload-5", []RawRow{validRosterRow("A", "A21009")}))

	var stored model.UploadBatch
	if err := db.Where("upload_id = ?", "upload-5").First(&stored).Error; err != nil {
		t.Fatal(err)
	}
	if !stored.Completed || stored.Added != 1 || stored.Processed != 1 {
		t.Errorf("durable batch row = %+v, want completed with 1 added", stored)
	}
}

func TestNormalizeRowHeaderTolerance(t *testing.T) {
	raw := RawRow{
		"Full Name":     "ASHA NAIR",
		"course_name":   "TYBAF",
		"SEX":           "f",
		"Roll-Number":   "B21077",
		"Mobile.Number": "9000000000",
		"EMAILID":       "asha@example.com",
	}
	row := normalizeRow(raw)

	if row.FullName != "ASHA NAIR" {
		t.Errorf("FullName = %q", row.FullName)
	}
	if row.Course != "BAF" || row.Year != "TY" {
		t.Errorf("Course/Year = %q/%q, want BAF/TY", row.Course, row.Year)
	}
	if row.Gender != "Female" {
		t.Errorf("Gender = %q, want Female", row.Gender)
	}
	if row.RollNo != "B21077" || row.Mobile != "9000000000" || row.Email != "asha@example.com" {
		t.Errorf("row = %+v", row)
	}
}

func TestSplitCourseName(t *testing.T) {
	tests := []struct {
		in, stream, year string
	}{
		{"FY CS", "CS", "FY"},
		{"FYCS", "CS", "FY"},
		{"sy it", "IT", "SY"},
		{"TY BAF", "BAF", "TY"},
		{"CS", "CS", ""},
		{"BMS", "BMS", ""},
	}
	for _, tt := range tests {
		stream, year := splitCourseName(tt.in)
		if stream != tt.stream || year != tt.year {
			t.Errorf("splitCourseName(%q) = (%q, %q), want (%q, %q)", tt.in, stream, year, tt.stream, tt.year)
		}
	}
}
