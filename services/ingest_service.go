package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/sgkm-college/atkt-backend/model"
	"github.com/sgkm-college/atkt-backend/utils/validation"
	"gorm.io/gorm"
)

// RawRow is one decoded spreadsheet row: header name -> cell value, exactly
// as found in the file. Header normalization happens inside the pipeline.
type RawRow map[string]string

// Row outcome classifications
const (
	RowAdded   = "added"
	RowSkipped = "skipped"
	RowFailed  = "failed"
)

// RowOutcome is the classification of a single ingested row.
type RowOutcome struct {
	Row    int    `json:"row"` // 1-based position in file order
	Status string `json:"status"`
	RollNo string `json:"roll_no,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// IngestUpdate is one progress event emitted by the pipeline. Events arrive
// in row-processing order; the final event has Completed=true and carries the
// closing totals.
type IngestUpdate struct {
	UploadID  string      `json:"upload_id"`
	Processed int         `json:"processed"`
	TotalRows int         `json:"total_rows"`
	Progress  int         `json:"progress"` // 0-100
	Added     int         `json:"added"`
	Skipped   int         `json:"skipped"`
	Failed    int         `json:"failed"`
	Completed bool        `json:"completed"`
	LastRow   *RowOutcome `json:"last_row,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// studentRow is a normalized, not yet validated spreadsheet row.
type studentRow struct {
	FullName string
	Course   string
	Year     string
	Gender   string
	RollNo   string
	Mobile   string
	Email    string
}

// IngestService runs bulk student imports. Rows are processed sequentially
// and each accepted row commits independently, so abandoning the progress
// stream never corrupts rows already written.
type IngestService struct {
	db      *gorm.DB
	tracker *UploadTracker
}

// NewIngestService creates a new ingest service. tracker may be nil when no
// Redis is available; progress is then only observable through the returned
// channel.
func NewIngestService(db *gorm.DB, tracker *UploadTracker) *IngestService {
	return &IngestService{db: db, tracker: tracker}
}

// Ingest processes rows in file order and returns a channel of progress
// updates, one per row plus a final completed update. The channel is buffered
// for the whole batch so a consumer that disconnects never stalls the
// pipeline, and it is closed after the completed update.
func (s *IngestService) Ingest(ctx context.Context, uploadID string, rows []RawRow) <-chan IngestUpdate {
	updates := make(chan IngestUpdate, len(rows)+1)

	go func() {
		defer close(updates)
		s.run(ctx, uploadID, rows, updates)
	}()

	return updates
}

func (s *IngestService) run(ctx context.Context, uploadID string, rows []RawRow, updates chan<- IngestUpdate) {
	state := model.UploadState{
		UploadID:  uploadID,
		TotalRows: len(rows),
	}

	for i, raw := range rows {
		outcome := s.processRow(ctx, i+1, raw)

		switch outcome.Status {
		case RowAdded:
			state.Added++
		case RowSkipped:
			state.Skipped++
		default:
			state.Failed++
		}
		state.Processed++

		s.publish(ctx, &state, &outcome, false, updates)
	}

	state.Completed = true
	s.publish(ctx, &state, nil, true, updates)

	// Durable record of the run
	s.db.WithContext(ctx).Model(&model.UploadBatch{}).
		Where("upload_id = ?", uploadID).
		Updates(map[string]interface{}{
			"total_rows": state.TotalRows,
			"processed":  state.Processed,
			"added":      state.Added,
			"skipped":    state.Skipped,
			"failed":     state.Failed,
			"completed":  true,
		})

	log.Printf("[INGEST] upload %s completed: added=%d skipped=%d failed=%d",
		uploadID, state.Added, state.Skipped, state.Failed)
}

// processRow classifies one row as added, skipped or failed. Row-level
// problems are counted, never returned as errors.
func (s *IngestService) processRow(ctx context.Context, rowNum int, raw RawRow) RowOutcome {
	row := normalizeRow(raw)

	if reason := validateRow(row); reason != "" {
		return RowOutcome{Row: rowNum, Status: RowFailed, RollNo: row.RollNo, Reason: reason}
	}

	// Duplicate check on (roll number, course)
	var count int64
	err := s.db.WithContext(ctx).Model(&model.StudentProfile{}).
		Where("roll_no = ? AND course = ?", row.RollNo, row.Course).
		Count(&count).Error
	if err != nil {
		return RowOutcome{Row: rowNum, Status: RowFailed, RollNo: row.RollNo, Reason: "duplicate check failed: " + err.Error()}
	}
	if count > 0 {
		return RowOutcome{Row: rowNum, Status: RowSkipped, RollNo: row.RollNo, Reason: "student already exists"}
	}

	profile := model.StudentProfile{
		FullName: row.FullName,
		Course:   row.Course,
		Year:     row.Year,
		Gender:   row.Gender,
		RollNo:   row.RollNo,
		Mobile:   row.Mobile,
		Email:    row.Email,
	}
	if err := s.db.WithContext(ctx).Create(&profile).Error; err != nil {
		return RowOutcome{Row: rowNum, Status: RowFailed, RollNo: row.RollNo, Reason: "insert failed: " + err.Error()}
	}

	return RowOutcome{Row: rowNum, Status: RowAdded, RollNo: row.RollNo}
}

// publish mirrors the state into Redis (best effort) and emits one update on
// the channel. The channel is buffered for the full batch, so the send never
// blocks even when the consumer is gone.
func (s *IngestService) publish(ctx context.Context, state *model.UploadState, outcome *RowOutcome, completed bool, updates chan<- IngestUpdate) {
	state.RecalculateProgress()

	if s.tracker != nil {
		if err := s.tracker.UpdateState(ctx, state); err != nil {
			log.Printf("[INGEST] failed to update tracker for %s: %v", state.UploadID, err)
		}
	}

	updates <- IngestUpdate{
		UploadID:  state.UploadID,
		Processed: state.Processed,
		TotalRows: state.TotalRows,
		Progress:  state.Progress,
		Added:     state.Added,
		Skipped:   state.Skipped,
		Failed:    state.Failed,
		Completed: completed,
		LastRow:   outcome,
		Timestamp: time.Now(),
	}
}

// normalizeRow maps tolerant header spellings onto the canonical student
// fields. Header matching ignores case, spaces, underscores and dots.
func normalizeRow(raw RawRow) studentRow {
	var row studentRow

	for key, value := range raw {
		value = strings.TrimSpace(value)
		switch normalizeHeader(key) {
		case "fullname", "name", "studentname":
			row.FullName = value
		case "coursename", "course", "stream":
			row.Course, row.Year = splitCourseName(value)
		case "gender", "sex":
			row.Gender = normalizeGender(value)
		case "rollnumber", "rollno", "roll":
			row.RollNo = value
		case "mobilenumber", "mobileno", "mobile", "phone", "phonenumber":
			row.Mobile = value
		case "emailid", "email", "emailaddress":
			row.Email = value
		}
	}

	return row
}

func normalizeHeader(header string) string {
	header = strings.ToLower(header)
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '.', '-':
			return -1
		}
		return r
	}, header)
}

// splitCourseName separates an optional year prefix (FY/SY/TY) from the
// stream code, accepting "FY CS", "FYCS" and plain "CS".
func splitCourseName(course string) (stream, year string) {
	course = strings.ToUpper(strings.TrimSpace(course))

	for _, y := range []string{"FY", "SY", "TY"} {
		if strings.HasPrefix(course, y) {
			rest := strings.TrimSpace(strings.TrimPrefix(course, y))
			if rest != "" {
				return rest, y
			}
		}
	}
	return course, ""
}

func normalizeGender(gender string) string {
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "m", "male":
		return "Male"
	case "f", "female":
		return "Female"
	case "":
		return ""
	default:
		return "Other"
	}
}

// validateRow returns a human-readable reason when the row must be rejected,
// or "" if the row is acceptable.
func validateRow(row studentRow) string {
	var missing []string
	if row.FullName == "" {
		missing = append(missing, "FullName")
	}
	if row.Course == "" {
		missing = append(missing, "CourseName")
	}
	if row.RollNo == "" {
		missing = append(missing, "RollNumber")
	}
	if row.Mobile == "" {
		missing = append(missing, "MobileNumber")
	}
	if row.Email == "" {
		missing = append(missing, "EmailId")
	}
	if len(missing) > 0 {
		return "missing required fields: " + strings.Join(missing, ", ")
	}

	if !isNumeric(row.Mobile) {
		return "mobile number is not numeric"
	}
	if !validation.EmailRegex.MatchString(row.Email) {
		return "email address is not valid"
	}

	return ""
}

func isNumeric(s string) bool {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-':
			return -1
		}
		return r
	}, s)

	if cleaned == "" {
		return false
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
