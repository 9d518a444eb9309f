package model

import "time"

// UploadBatch tracks one in-flight (or finished) bulk student import. The
// authoritative live state lives in Redis so the SSE endpoint can serve
// reconnecting clients; the DB row is the durable record of the run.
type UploadBatch struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UploadID  string `gorm:"uniqueIndex;type:varchar(40);not null" json:"upload_id"`
	FileName  string `gorm:"type:varchar(255)" json:"file_name"`
	CreatedBy uint   `gorm:"index" json:"created_by"`

	TotalRows int  `json:"total_rows"`
	Processed int  `json:"processed"`
	Added     int  `json:"added"`
	Skipped   int  `json:"skipped"`
	Failed    int  `json:"failed"`
	Completed bool `gorm:"default:false" json:"completed"`
}

// TableName specifies the table name for UploadBatch
func (UploadBatch) TableName() string {
	return "upload_batches"
}

// UploadState is the live batch state stored in Redis while an import runs.
type UploadState struct {
	UploadID  string    `json:"upload_id"`
	TotalRows int       `json:"total_rows"`
	Processed int       `json:"processed"`
	Progress  int       `json:"progress"` // 0-100
	Added     int       `json:"added"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Completed bool      `json:"completed"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecalculateProgress refreshes the 0-100 percentage from the row counters.
// An empty batch is complete by definition.
func (s *UploadState) RecalculateProgress() {
	if s.TotalRows > 0 {
		s.Progress = s.Processed * 100 / s.TotalRows
	} else {
		s.Progress = 100
	}
}

// Redis key patterns for upload batches
const (
	// RedisKeyUploadState stores the full upload state as JSON
	// Usage: fmt.Sprintf(RedisKeyUploadState, uploadID)
	RedisKeyUploadState = "upload:state:%s"
)
