package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/sgkm-college/atkt-backend/model"
	"github.com/sgkm-college/atkt-backend/utils/pdfvalidation"
)

// Fixed creation timestamp so the same input always produces the same bytes.
var pdfCreationDate = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

const (
	collegeName    = "MSG-SGKM COLLEGE OF ARTS, SCIENCE AND COMMERCE"
	collegeAddress = "GHATKOPAR (E), MUMBAI - 400 077"
	formTitle      = "APPLICATION FOR ATKT / ADDITIONAL EXAMINATION"
)

// StudentIdentity is the identity block printed on the form.
type StudentIdentity struct {
	Surname    string `json:"surname"`
	Name       string `json:"name"`
	FatherName string `json:"father_name"`
	MotherName string `json:"mother_name"`
	Gender     string `json:"gender"`
	Mobile     string `json:"mobile"`
	RollNo     string `json:"roll_no"`
}

// ApplicationDocument is the full field set the assembler renders. Image
// payloads are raw PNG or JPEG bytes; optional images render as blank boxes.
type ApplicationDocument struct {
	Student  StudentIdentity         `json:"student"`
	Stream   string                  `json:"stream"`
	Semester string                  `json:"semester"`
	Scheme   string                  `json:"scheme"`
	SeatNo   string                  `json:"seat_no"`
	Subjects []model.SelectedSubject `json:"subjects"`

	Photo              []byte `json:"-"` // optional
	StudentSignature   []byte `json:"-"` // required for a complete application
	HODSignature       []byte `json:"-"` // optional
	PrincipalSignature []byte `json:"-"` // optional
}

// PDFService renders the two-part ATKT document: the application form and the
// hall ticket, separated by a dashed cut line. Pure field substitution into a
// fixed layout; same input bytes always yield the same output bytes.
type PDFService struct{}

// NewPDFService creates a new PDF service
func NewPDFService() *PDFService {
	return &PDFService{}
}

// Assemble renders the document and returns the PDF bytes.
func (s *PDFService) Assemble(doc ApplicationDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(pdfCreationDate)
	pdf.SetMargins(12, 10, 12)
	pdf.SetAutoPageBreak(false, 10)
	pdf.AddPage()

	s.registerImages(pdf, doc)

	s.writeApplicationForm(pdf, doc)
	s.writeCutLine(pdf)
	s.writeHallTicket(pdf, doc)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf rendering failed: %w", err)
	}

	result, err := pdfvalidation.ValidatePDFBytes(buf.Bytes(), pdfvalidation.ApplicationLimits)
	if err != nil {
		return nil, fmt.Errorf("pdf validation failed: %w", err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("rendered document is not a valid PDF: %s", result.Error)
	}
	return buf.Bytes(), nil
}

// registerImages registers every supplied image payload under a stable name.
func (s *PDFService) registerImages(pdf *gofpdf.Fpdf, doc ApplicationDocument) {
	register := func(name string, data []byte) {
		if len(data) == 0 {
			return
		}
		imgType := detectImageType(data)
		if imgType == "" {
			return
		}
		pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: imgType}, bytes.NewReader(data))
	}

	register("photo", doc.Photo)
	register("student_sig", doc.StudentSignature)
	register("hod_sig", doc.HODSignature)
	register("principal_sig", doc.PrincipalSignature)
}

func (s *PDFService) writeApplicationForm(pdf *gofpdf.Fpdf, doc ApplicationDocument) {
	// College header
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 5, collegeName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 4, collegeAddress, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(0, 5, formTitle, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	// Addressee and seat number
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(130, 4, "To,", "", 2, "L", false, 0, "")
	pdf.CellFormat(130, 4, "The Principal,", "", 2, "L", false, 0, "")
	pdf.CellFormat(130, 4, "MSG-SGKM College of Arts, Science & Commerce", "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(0, 4, fmt.Sprintf("Class: %s %s (%s)", doc.Stream, doc.Semester, doc.Scheme), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 4, "Seat No: "+doc.SeatNo, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	// Name grid: SURNAME | NAME | FATHER'S NAME | MOTHER'S NAME
	colW := 46.5
	pdf.SetFont("Helvetica", "B", 7)
	for _, h := range []string{"SURNAME", "NAME", "FATHER'S NAME", "MOTHER'S NAME"} {
		pdf.CellFormat(colW, 5, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 8)
	for _, v := range []string{doc.Student.Surname, doc.Student.Name, doc.Student.FatherName, doc.Student.MotherName} {
		pdf.CellFormat(colW, 6, v, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(62, 4, "Gender: "+doc.Student.Gender, "", 0, "L", false, 0, "")
	pdf.CellFormat(62, 4, "Mobile: "+doc.Student.Mobile, "", 0, "L", false, 0, "")
	pdf.CellFormat(62, 4, "Roll No: "+doc.Student.RollNo, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	// Subject table
	s.subjectTable(pdf, doc.Subjects, []float64{11, 86, 22, 22, 22, 23}, true)
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 4, "Received fees Rs ______ Receipt No ______ Date ______", "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 4, "Clerk / Cashier", "", 1, "R", false, 0, "")
}

// writeCutLine draws the dashed separator between the form and hall ticket.
func (s *PDFService) writeCutLine(pdf *gofpdf.Fpdf) {
	pdf.Ln(3)
	y := pdf.GetY()
	pdf.SetDashPattern([]float64{2, 2}, 0)
	pdf.Line(12, y, 198, y)
	pdf.SetDashPattern([]float64{}, 0)
	pdf.Ln(4)
}

func (s *PDFService) writeHallTicket(pdf *gofpdf.Fpdf, doc ApplicationDocument) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 5, collegeName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(0, 5, "HALL TICKET", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	// Identity block on the left, photo box on the right
	topY := pdf.GetY()
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(130, 4, fmt.Sprintf("Name: %s %s", doc.Student.Surname, doc.Student.Name), "", 2, "L", false, 0, "")
	pdf.CellFormat(130, 4, fmt.Sprintf("Class: %s %s (%s)", doc.Stream, doc.Semester, doc.Scheme), "", 2, "L", false, 0, "")
	pdf.CellFormat(130, 4, "Roll No: "+doc.Student.RollNo, "", 2, "L", false, 0, "")
	pdf.CellFormat(130, 4, "Seat No: "+doc.SeatNo, "", 2, "L", false, 0, "")

	photoX, photoW, photoH := 166.0, 28.0, 34.0
	pdf.Rect(photoX, topY, photoW, photoH, "D")
	if imageUsable(doc.Photo) {
		pdf.ImageOptions("photo", photoX, topY, photoW, photoH, false, gofpdf.ImageOptions{}, 0, "")
	}
	if pdf.GetY() < topY+photoH {
		pdf.SetY(topY + photoH)
	}
	pdf.Ln(3)

	s.subjectTable(pdf, doc.Subjects, []float64{0, 108, 26, 26, 26, 0}, false)
	pdf.Ln(8)

	// Signature row: student, HOD, principal
	s.signatureBlock(pdf, 12, "student_sig", imageUsable(doc.StudentSignature), "Student Signature")
	s.signatureBlock(pdf, 78, "hod_sig", imageUsable(doc.HODSignature), "HOD Signature")
	s.signatureBlock(pdf, 144, "principal_sig", imageUsable(doc.PrincipalSignature), "Principal Signature")
}

// subjectTable draws the subject/component grid. widths holds the column
// widths for Sr, Subject, Int, Th, Pr and the trailing office column; a zero
// width drops that column (the hall ticket has no Sr / office columns).
func (s *PDFService) subjectTable(pdf *gofpdf.Fpdf, subjects []model.SelectedSubject, widths []float64, officeColumn bool) {
	pdf.SetFont("Helvetica", "B", 7)
	headers := []string{"Sr", "Subject", "Int", "Th", "Pr", "Office Use"}
	for i, h := range headers {
		if widths[i] == 0 {
			continue
		}
		pdf.CellFormat(widths[i], 5, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for i, sub := range subjects {
		if widths[0] > 0 {
			pdf.CellFormat(widths[0], 5, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		}
		pdf.CellFormat(widths[1], 5, sub.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 5, componentFlag(sub.Internal), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[3], 5, componentFlag(sub.Theory), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[4], 5, componentFlag(sub.Practical), "1", 0, "C", false, 0, "")
		if officeColumn && widths[5] > 0 {
			pdf.CellFormat(widths[5], 5, "", "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// signatureBlock draws one signature image (when present) above a rule line
// with a caption.
func (s *PDFService) signatureBlock(pdf *gofpdf.Fpdf, x float64, imageName string, hasImage bool, caption string) {
	y := pdf.GetY()
	if hasImage {
		pdf.ImageOptions(imageName, x+5, y, 44, 12, false, gofpdf.ImageOptions{}, 0, "")
	}
	pdf.Line(x, y+14, x+54, y+14)
	pdf.SetFont("Helvetica", "", 7)
	pdf.Text(x+14, y+18, caption)
}

func imageUsable(data []byte) bool {
	return len(data) > 0 && detectImageType(data) != ""
}

func componentFlag(applied bool) string {
	if applied {
		return "YES"
	}
	return "-"
}

// detectImageType sniffs PNG/JPEG magic bytes; other formats are ignored.
func detectImageType(data []byte) string {
	switch {
	case len(data) > 8 && bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "PNG"
	case len(data) > 3 && data[0] == 0xFF && data[1] == 0xD8:
		return "JPG"
	default:
		return ""
	}
}
