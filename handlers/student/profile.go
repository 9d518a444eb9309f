package student

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sgkm-college/atkt-backend/services"
	"github.com/sgkm-college/atkt-backend/utils/middleware"
	"github.com/sgkm-college/atkt-backend/utils/response"
	"github.com/sgkm-college/atkt-backend/utils/validation"
	"gorm.io/gorm"
)

// StudentHandler handles student profile and roster requests
type StudentHandler struct {
	db        *gorm.DB
	students  *services.StudentService
	validator *validation.Validator
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(db *gorm.DB, students *services.StudentService) *StudentHandler {
	return &StudentHandler{
		db:        db,
		students:  students,
		validator: validation.NewValidator(),
	}
}

// GetMyProfile returns the caller's student profile.
func (h *StudentHandler) GetMyProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	profile, err := h.students.GetProfileByUser(c.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			return response.NotFound(c, "Profile not found. Complete your profile first.")
		}
		return response.InternalServerError(c, "Failed to load profile")
	}

	return response.Success(c, profile)
}

// UpsertMyProfile creates or updates the caller's student profile.
func (h *StudentHandler) UpsertMyProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var input services.ProfileInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(input); err != nil {
		return response.ValidationError(c, err)
	}

	profile, err := h.students.UpsertProfile(c.Context(), userID, input)
	if err != nil {
		return response.InternalServerError(c, "Failed to save profile")
	}

	return response.Success(c, profile)
}
