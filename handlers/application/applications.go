package application

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sgkm-college/atkt-backend/services"
	"github.com/sgkm-college/atkt-backend/utils/middleware"
	"github.com/sgkm-college/atkt-backend/utils/response"
	"github.com/sgkm-college/atkt-backend/utils/validation"
	"gorm.io/gorm"
)

// ApplicationHandler handles ATKT application requests
type ApplicationHandler struct {
	db           *gorm.DB
	applications *services.ApplicationService
	validator    *validation.Validator
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(db *gorm.DB, applications *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{
		db:           db,
		applications: applications,
		validator:    validation.NewValidator(),
	}
}

// Submit files an ATKT application and responds with the generated PDF
// (application form plus hall ticket). The allocated seat number travels in
// the X-Seat-Number header so the client does not have to parse the PDF.
func (h *ApplicationHandler) Submit(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	email, _ := middleware.GetUserEmail(c)

	var input services.SubmissionInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(input); err != nil {
		return response.ValidationError(c, err)
	}

	result, err := h.applications.Submit(c.Context(), userID, email, input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProfileNotFound):
			return response.BadRequest(c, "Complete your profile before applying")
		case errors.Is(err, services.ErrMasterFormNotFound):
			return response.BadRequest(c, "No subject list exists for this offering")
		case errors.Is(err, services.ErrNoSubjectsSelected),
			errors.Is(err, services.ErrSubjectNotOffered),
			errors.Is(err, services.ErrUnknownStream),
			errors.Is(err, services.ErrMalformedRollNumber):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, services.ErrAllocationFailed):
			return response.ServiceUnavailable(c, "Could not allocate a seat number, please retry")
		default:
			return response.InternalServerError(c, "Failed to submit application")
		}
	}

	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=atkt_%s.pdf", result.Application.SeatNo))
	c.Set("X-Seat-Number", result.Application.SeatNo)
	c.Set("X-Application-Id", strconv.FormatUint(uint64(result.Application.ID), 10))
	return c.Send(result.PDF)
}

// ListMine returns the caller's applications.
func (h *ApplicationHandler) ListMine(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	applications, err := h.applications.ListByUser(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list applications")
	}
	return response.Success(c, applications)
}

// DownloadPDF re-renders the document for one of the caller's applications.
func (h *ApplicationHandler) DownloadPDF(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid application ID")
	}

	application, err := h.applications.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrApplicationNotFound) {
			return response.NotFound(c, "Application not found")
		}
		return response.InternalServerError(c, "Failed to load application")
	}

	// Students may only fetch their own documents; admins may fetch any
	role, _ := middleware.GetUserRole(c)
	if application.UserID != userID && role != "admin" {
		return response.Forbidden(c, "Not your application")
	}

	pdfBytes, err := h.applications.RegeneratePDF(c.Context(), uint(id))
	if err != nil {
		return response.InternalServerError(c, "Failed to render document")
	}

	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=atkt_%s.pdf", application.SeatNo))
	return c.Send(pdfBytes)
}

// ListAll returns applications for the admin dashboard, filtered by optional
// stream and status query parameters.
func (h *ApplicationHandler) ListAll(c *fiber.Ctx) error {
	applications, err := h.applications.ListAll(c.Context(), c.Query("stream"), c.Query("status"))
	if err != nil {
		return response.InternalServerError(c, "Failed to list applications")
	}
	return response.Success(c, fiber.Map{
		"applications": applications,
		"count":        len(applications),
	})
}

// MarkProcessed transitions an application to processed. Admin only.
func (h *ApplicationHandler) MarkProcessed(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid application ID")
	}

	application, err := h.applications.MarkProcessed(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrApplicationNotFound) {
			return response.NotFound(c, "Application not found")
		}
		return response.InternalServerError(c, "Failed to update application")
	}

	return response.Success(c, application)
}
