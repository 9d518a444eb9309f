package admin

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sgkm-college/atkt-backend/model"
	"github.com/sgkm-college/atkt-backend/services"
	"github.com/sgkm-college/atkt-backend/utils/response"
	"gorm.io/gorm"
)

// AdminHandler serves the admin dashboard endpoints
type AdminHandler struct {
	db        *gorm.DB
	analytics *services.AnalyticsService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB, analytics *services.AnalyticsService) *AdminHandler {
	return &AdminHandler{
		db:        db,
		analytics: analytics,
	}
}

// GetDashboard returns the aggregate counts for the dashboard.
func (h *AdminHandler) GetDashboard(c *fiber.Ctx) error {
	overview, err := h.analytics.GetOverview(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to load dashboard")
	}
	return response.Success(c, overview)
}

// ListAuditLogs returns recent admin actions, paginated.
func (h *AdminHandler) ListAuditLogs(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var total int64
	if err := h.db.Model(&model.AdminAuditLog{}).Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count audit logs")
	}

	var logs []model.AdminAuditLog
	err := h.db.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to list audit logs")
	}

	return response.Paginated(c, logs, response.CalculatePagination(page, limit, total))
}

// ListUploadBatches returns past roster imports, newest first.
func (h *AdminHandler) ListUploadBatches(c *fiber.Ctx) error {
	var batches []model.UploadBatch
	err := h.db.
		Order("created_at DESC").
		Limit(100).
		Find(&batches).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to list uploads")
	}
	return response.Success(c, batches)
}
