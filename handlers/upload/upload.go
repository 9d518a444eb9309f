package upload

import (
	"context"
	"log"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sgkm-college/atkt-backend/model"
	"github.com/sgkm-college/atkt-backend/services"
	"github.com/sgkm-college/atkt-backend/utils/middleware"
	"github.com/sgkm-college/atkt-backend/utils/response"
	"github.com/sgkm-college/atkt-backend/utils/xlsx"
	"gorm.io/gorm"
)

// UploadHandler handles bulk student roster imports
type UploadHandler struct {
	db      *gorm.DB
	ingest  *services.IngestService
	tracker *services.UploadTracker
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(db *gorm.DB, ingest *services.IngestService, tracker *services.UploadTracker) *UploadHandler {
	return &UploadHandler{
		db:      db,
		ingest:  ingest,
		tracker: tracker,
	}
}

// UploadStudents accepts an xlsx roster, starts the import in the background
// and returns the upload ID for progress streaming. Admin only.
func (h *UploadHandler) UploadStudents(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "A spreadsheet file is required")
	}

	if ext := strings.ToLower(filepath.Ext(fileHeader.Filename)); ext != ".xlsx" {
		return response.BadRequest(c, "Only .xlsx files are supported")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.InternalServerError(c, "Failed to read uploaded file")
	}
	defer file.Close()

	records, err := xlsx.DecodeRows(file)
	if err != nil {
		return response.BadRequest(c, "Failed to parse spreadsheet: "+err.Error())
	}

	rows := make([]services.RawRow, len(records))
	for i, record := range records {
		rows[i] = services.RawRow(record)
	}

	adminID, _ := middleware.GetUserID(c)
	uploadID := uuid.NewString()

	batch := model.UploadBatch{
		UploadID:  uploadID,
		FileName:  fileHeader.Filename,
		CreatedBy: adminID,
		TotalRows: len(rows),
	}
	if err := h.db.Create(&batch).Error; err != nil {
		return response.InternalServerError(c, "Failed to record upload")
	}

	if h.tracker != nil {
		if _, err := h.tracker.CreateUpload(c.Context(), uploadID, len(rows)); err != nil {
			log.Printf("[UPLOAD] Failed to create tracker state for %s: %v", uploadID, err)
		}
	}

	// The import runs detached from the request; clients follow it over SSE.
	// The updates channel is buffered for the whole batch, so nothing blocks
	// if no one ever listens.
	go func() {
		updates := h.ingest.Ingest(context.Background(), uploadID, rows)
		for range updates {
		}
	}()

	return response.Success(c, fiber.Map{
		"upload_id":  uploadID,
		"total_rows": len(rows),
	})
}
