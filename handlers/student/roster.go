package student

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sgkm-college/atkt-backend/services"
	"github.com/sgkm-college/atkt-backend/utils/response"
)

// ListStudents returns the imported student roster, optionally filtered by
// course and/or year. Admin only.
func (h *StudentHandler) ListStudents(c *fiber.Ctx) error {
	course := c.Query("course")
	year := c.Query("year")

	students, err := h.students.ListStudents(c.Context(), course, year)
	if err != nil {
		return response.InternalServerError(c, "Failed to list students")
	}

	return response.Success(c, fiber.Map{
		"students": students,
		"count":    len(students),
	})
}

// DeleteStudentsRequest selects which roster slice to remove. Both fields are
// required; there is deliberately no way to delete everything at once.
type DeleteStudentsRequest struct {
	Course string `json:"course" validate:"required"`
	Year   string `json:"year" validate:"required"`
}

// DeleteStudents removes every roster row matching the course and year.
// Admin only.
func (h *StudentHandler) DeleteStudents(c *fiber.Ctx) error {
	var req DeleteStudentsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	deleted, err := h.students.DeleteBatch(c.Context(), req.Course, req.Year)
	if err != nil {
		if errors.Is(err, services.ErrMissingFilter) {
			return response.BadRequest(c, "Both course and year are required")
		}
		return response.InternalServerError(c, "Failed to delete students")
	}

	return response.Success(c, fiber.Map{
		"deleted": deleted,
		"course":  req.Course,
		"year":    req.Year,
	})
}
