package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sgkm-college/atkt-backend/services"
	authutil "github.com/sgkm-college/atkt-backend/utils/auth"
	"github.com/sgkm-college/atkt-backend/utils/response"
	"github.com/sgkm-college/atkt-backend/utils/validation"
)

// SendOTPRequest asks for a password reset code to be mailed out
type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest exchanges a mailed code for a new password
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// SendOTP starts the forgot-password flow. The response is the same whether
// or not the address is registered.
func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var req SendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Email == "" || !validation.EmailRegex.MatchString(req.Email) {
		return response.BadRequest(c, "A valid email is required")
	}

	if err := h.passwordReset.RequestReset(c.Context(), req.Email); err != nil {
		return response.InternalServerError(c, "Failed to process reset request")
	}

	return response.Success(c, fiber.Map{
		"message": "If the email is registered, a reset code has been sent",
	})
}

// ResetPassword completes the forgot-password flow with the mailed code.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Email == "" || req.OTP == "" || req.NewPassword == "" {
		return response.BadRequest(c, "Email, OTP and new password are required")
	}

	if !authutil.IsPasswordValid(req.NewPassword) {
		return response.BadRequest(c, "Password must be at least 8 characters long")
	}

	err := h.passwordReset.Reset(c.Context(), req.Email, req.OTP, req.NewPassword)
	if errors.Is(err, services.ErrInvalidResetCode) {
		return response.BadRequest(c, "Invalid or expired reset code")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to reset password")
	}

	return response.Success(c, fiber.Map{
		"message": "Password reset successfully. Please log in with your new password.",
	})
}
