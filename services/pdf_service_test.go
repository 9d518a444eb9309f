package services

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/sgkm-college/atkt-backend/model"
	"github.com/sgkm-college/atkt-backend/utils/pdfvalidation"
)

// tinyPNG renders a small solid image for use as a photo or signature.
func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: 30, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test png: %v", err)
	}
	return buf.Bytes()
}

func sampleDocument(t *testing.T) ApplicationDocument {
	return ApplicationDocument{
		Student: StudentIdentity{
			Surname:    "SHARMA",
			Name:       "RAHUL",
			FatherName: "SURESH",
			MotherName: "MEENA",
			Gender:     "Male",
			Mobile:     "9876543210",
			RollNo:     "A21045",
		},
		Stream:   "CS",
		Semester: "SEM 3",
		Scheme:   "NEP",
		SeatNo:   "21S001",
		Subjects: []model.SelectedSubject{
			{Name: "DATA STRUCTURES", Internal: true, Theory: true},
			{Name: "OPERATING SYSTEMS", Theory: true, Practical: true},
		},
		StudentSignature: tinyPNG(t),
	}
}

func TestAssembleProducesValidPDF(t *testing.T) {
	svc := NewPDFService()

	out, err := svc.Assemble(sampleDocument(t))
	if err != nil {
		t.Fatalf("Assemble() error: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("Assemble() returned empty output")
	}

	result, err := pdfvalidation.ValidatePDFBytes(out, pdfvalidation.ApplicationLimits)
	if err != nil {
		t.Fatalf("validation error: %v", err)
	}
	if !result.Valid {
		t.Fatalf("output is not a valid PDF: %s", result.Error)
	}
	if result.PageCount != 1 {
		t.Errorf("page count = %d, want 1", result.PageCount)
	}
}

func TestAssembleIsDeterministic(t *testing.T) {
	svc := NewPDFService()
	doc := sampleDocument(t)

	first, err := svc.Assemble(doc)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Assemble(doc)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("same input produced different PDF bytes")
	}
}

func TestAssembleInputChangesOutput(t *testing.T) {
	svc := NewPDFService()

	base, err := svc.Assemble(sampleDocument(t))
	if err != nil {
		t.Fatal(err)
	}

	changed := sampleDocument(t)
	changed.SeatNo = "21S002"
	other, err := svc.Assemble(changed)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(base, other) {
		t.Error("different seat numbers produced identical PDFs")
	}
}

func TestAssembleWithoutOptionalImages(t *testing.T) {
	svc := NewPDFService()
	doc := sampleDocument(t)
	doc.StudentSignature = nil
	doc.Photo = nil

	out, err := svc.Assemble(doc)
	if err != nil {
		t.Fatalf("Assemble() without images error: %v", err)
	}
	result, err := pdfvalidation.ValidatePDFBytes(out, pdfvalidation.ApplicationLimits)
	if err != nil || !result.Valid {
		t.Fatalf("output invalid without images: %v %v", err, result)
	}
}

func TestDetectImageType(t *testing.T) {
	if got := detectImageType(tinyPNG(t)); got != "PNG" {
		t.Errorf("png detection = %q, want PNG", got)
	}
	if got := detectImageType([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}); got != "JPG" {
		t.Errorf("jpeg detection = %q, want JPG", got)
	}
	if got := detectImageType([]byte("GIF89a")); got != "" {
		t.Errorf("gif detection = %q, want empty", got)
	}
	if got := detectImageType(nil); got != "" {
		t.Errorf("nil detection = %q, want empty", got)
	}
}

func TestComponentFlag(t *testing.T) {
	if componentFlag(true) != "YES" || componentFlag(false) != "-" {
		t.Error("componentFlag mapping is wrong")
	}
}
