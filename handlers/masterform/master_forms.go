package masterform

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sgkm-college/atkt-backend/model"
	"github.com/sgkm-college/atkt-backend/services"
	"github.com/sgkm-college/atkt-backend/utils/middleware"
	"github.com/sgkm-college/atkt-backend/utils/response"
	"github.com/sgkm-college/atkt-backend/utils/validation"
	"gorm.io/gorm"
)

// MasterFormHandler handles master form management
type MasterFormHandler struct {
	db        *gorm.DB
	forms     *services.MasterFormService
	validator *validation.Validator
}

// NewMasterFormHandler creates a new master form handler
func NewMasterFormHandler(db *gorm.DB, forms *services.MasterFormService) *MasterFormHandler {
	return &MasterFormHandler{
		db:        db,
		forms:     forms,
		validator: validation.NewValidator(),
	}
}

// CreateMasterForm creates the subject list for one offering. Admin only.
func (h *MasterFormHandler) CreateMasterForm(c *fiber.Ctx) error {
	userID, _ := middleware.GetUserID(c)

	var input services.MasterFormInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(input); err != nil {
		return response.ValidationError(c, err)
	}

	form, err := h.forms.Create(c.Context(), userID, input)
	if err != nil {
		if errors.Is(err, services.ErrMasterFormExists) {
			return response.Conflict(c, "A master form already exists for this stream, semester and scheme")
		}
		return response.InternalServerError(c, "Failed to create master form")
	}

	return response.Created(c, form)
}

// ListMasterForms returns all master forms.
func (h *MasterFormHandler) ListMasterForms(c *fiber.Ctx) error {
	forms, err := h.forms.List(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list master forms")
	}
	return response.Success(c, forms)
}

// FindMasterForm looks up the form for one offering by query parameters.
// Students use this to load the subject list before applying.
func (h *MasterFormHandler) FindMasterForm(c *fiber.Ctx) error {
	stream := c.Query("stream")
	semester := c.Query("semester")
	scheme := c.Query("scheme")
	if stream == "" || semester == "" || scheme == "" {
		return response.BadRequest(c, "stream, semester and scheme are required")
	}

	form, err := h.forms.Find(c.Context(), stream, semester, scheme)
	if err != nil {
		if errors.Is(err, services.ErrMasterFormNotFound) {
			return response.NotFound(c, "No master form exists for this offering")
		}
		return response.InternalServerError(c, "Failed to load master form")
	}

	return response.Success(c, form)
}

// UpdateSubjectsRequest carries the replacement subject list.
type UpdateSubjectsRequest struct {
	Subjects []model.MasterSubject `json:"subjects" validate:"required,min=1,dive"`
}

// UpdateMasterForm replaces the subject list of an existing form. Admin only.
func (h *MasterFormHandler) UpdateMasterForm(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid master form ID")
	}

	var req UpdateSubjectsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	form, err := h.forms.UpdateSubjects(c.Context(), uint(id), req.Subjects)
	if err != nil {
		if errors.Is(err, services.ErrMasterFormNotFound) {
			return response.NotFound(c, "Master form not found")
		}
		return response.InternalServerError(c, "Failed to update master form")
	}

	return response.Success(c, form)
}

// DeleteMasterForm removes a form. Admin only.
func (h *MasterFormHandler) DeleteMasterForm(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid master form ID")
	}

	if err := h.forms.Delete(c.Context(), uint(id)); err != nil {
		if errors.Is(err, services.ErrMasterFormNotFound) {
			return response.NotFound(c, "Master form not found")
		}
		return response.InternalServerError(c, "Failed to delete master form")
	}

	return response.NoContent(c)
}
