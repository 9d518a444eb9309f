package xlsx

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrEmptySheet = errors.New("spreadsheet has no data rows")
	ErrNoHeader   = errors.New("spreadsheet is missing a header row")
)

// MaxRows caps how many data rows a single upload may carry.
const MaxRows = 10000

// DecodeRows reads the first sheet of an xlsx workbook and returns one map
// per data row, keyed by the header row's cell values. Blank rows are
// skipped; cells beyond the header width are ignored.
func DecodeRows(r io.Reader) ([]map[string]string, error) {
	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}

	header := make([]string, len(rows[0]))
	empty := true
	for i, cell := range rows[0] {
		header[i] = strings.TrimSpace(cell)
		if header[i] != "" {
			empty = false
		}
	}
	if empty {
		return nil, ErrNoHeader
	}

	var records []map[string]string
	for _, row := range rows[1:] {
		record := make(map[string]string, len(header))
		blank := true
		for i, key := range header {
			if key == "" {
				continue
			}
			value := ""
			if i < len(row) {
				value = strings.TrimSpace(row[i])
			}
			record[key] = value
			if value != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		records = append(records, record)
		if len(records) > MaxRows {
			return nil, fmt.Errorf("spreadsheet exceeds the %d row limit", MaxRows)
		}
	}

	if len(records) == 0 {
		return nil, ErrEmptySheet
	}
	return records, nil
}
