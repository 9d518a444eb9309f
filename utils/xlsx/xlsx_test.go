package xlsx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes the given rows to the default sheet, row by row, and
// returns the serialized workbook.
func buildWorkbook(t *testing.T, rows [][]string) io.Reader {
	t.Helper()

	workbook := excelize.NewFile()
	defer workbook.Close()

	sheet := workbook.GetSheetName(0)
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := workbook.SetCellValue(sheet, cell, value); err != nil {
				t.Fatal(err)
			}
		}
	}

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf
}

func TestDecodeRows(t *testing.T) {
	reader := buildWorkbook(t, [][]string{
		{"Name", "Course", "Roll No"},
		{"SHARMA RAHUL", "FYCS", "A21045"},
		{"  PATEL ASHA  ", "SYIT", "B20012"},
	})

	records, err := DecodeRows(reader)
	if err != nil {
		t.Fatalf("DecodeRows() error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first := records[0]
	if first["Name"] != "SHARMA RAHUL" || first["Course"] != "FYCS" || first["Roll No"] != "A21045" {
		t.Errorf("first record = %v", first)
	}
	if records[1]["Name"] != "PATEL ASHA" {
		t.Errorf("cell values should be trimmed, got %q", records[1]["Name"])
	}
}

func TestDecodeRowsSkipsBlankRows(t *testing.T) {
	reader := buildWorkbook(t, [][]string{
		{"Name", "Course"},
		{"SHARMA RAHUL", "FYCS"},
		{"", ""},
		{"   ", ""},
		{"PATEL ASHA", "SYIT"},
	})

	records, err := DecodeRows(reader)
	if err != nil {
		t.Fatalf("DecodeRows() error: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want 2 (blank rows skipped)", len(records))
	}
}

func TestDecodeRowsShortRows(t *testing.T) {
	// Rows narrower than the header still produce every header key.
	reader := buildWorkbook(t, [][]string{
		{"Name", "Course", "Mobile"},
		{"SHARMA RAHUL", "FYCS"},
	})

	records, err := DecodeRows(reader)
	if err != nil {
		t.Fatalf("DecodeRows() error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if value, ok := records[0]["Mobile"]; !ok || value != "" {
		t.Errorf("missing trailing cell should map to empty string, got %q (present=%v)", value, ok)
	}
}

func TestDecodeRowsNoHeader(t *testing.T) {
	reader := buildWorkbook(t, [][]string{
		{"", "", ""},
		{"SHARMA RAHUL", "FYCS", "A21045"},
	})

	if _, err := DecodeRows(reader); !errors.Is(err, ErrNoHeader) {
		t.Errorf("error = %v, want ErrNoHeader", err)
	}
}

func TestDecodeRowsEmptySheet(t *testing.T) {
	reader := buildWorkbook(t, [][]string{
		{"Name", "Course"},
	})

	if _, err := DecodeRows(reader); !errors.Is(err, ErrEmptySheet) {
		t.Errorf("header-only sheet: error = %v, want ErrEmptySheet", err)
	}
}

func TestDecodeRowsNotAWorkbook(t *testing.T) {
	if _, err := DecodeRows(bytes.NewReader([]byte("this is not a zip archive"))); err == nil {
		t.Error("garbage input accepted")
	}
}

func TestDecodeRowsRowLimit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large workbook build in short mode")
	}

	rows := make([][]string, 0, MaxRows+2)
	rows = append(rows, []string{"Name"})
	for i := 0; i < MaxRows+1; i++ {
		rows = append(rows, []string{fmt.Sprintf("STUDENT %d", i)})
	}

	if _, err := DecodeRows(buildWorkbook(t, rows)); err == nil {
		t.Error("workbook above the row limit accepted")
	}
}
