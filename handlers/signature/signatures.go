package signature

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sgkm-college/atkt-backend/services"
	"github.com/sgkm-college/atkt-backend/utils/middleware"
	"github.com/sgkm-college/atkt-backend/utils/response"
	"gorm.io/gorm"
)

// SignatureHandler manages the official HOD and Principal signatures
type SignatureHandler struct {
	db         *gorm.DB
	signatures *services.SignatureService
}

// NewSignatureHandler creates a new signature handler
func NewSignatureHandler(db *gorm.DB, signatures *services.SignatureService) *SignatureHandler {
	return &SignatureHandler{
		db:         db,
		signatures: signatures,
	}
}

// UpdateSignaturesRequest carries replacement signature images as base64 data
// URLs. Either field may be omitted to keep the current image.
type UpdateSignaturesRequest struct {
	HODSignature       string `json:"hod_signature"`
	PrincipalSignature string `json:"principal_signature"`
}

// UpdateSignatures replaces the stored official signatures. Admin only.
func (h *SignatureHandler) UpdateSignatures(c *fiber.Ctx) error {
	adminID, _ := middleware.GetUserID(c)

	var req UpdateSignaturesRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var hod, principal []byte
	var err error
	if req.HODSignature != "" {
		if hod, err = services.DecodeImageDataURL(req.HODSignature); err != nil {
			return response.BadRequest(c, "Invalid HOD signature image")
		}
	}
	if req.PrincipalSignature != "" {
		if principal, err = services.DecodeImageDataURL(req.PrincipalSignature); err != nil {
			return response.BadRequest(c, "Invalid Principal signature image")
		}
	}

	set, err := h.signatures.Update(c.Context(), adminID, hod, principal)
	if err != nil {
		if errors.Is(err, services.ErrNoSignatureSupplied) {
			return response.BadRequest(c, "At least one signature image is required")
		}
		return response.InternalServerError(c, "Failed to update signatures")
	}

	return response.Success(c, set)
}

// GetSignatures returns the current signature set metadata. Admin only.
func (h *SignatureHandler) GetSignatures(c *fiber.Ctx) error {
	set, err := h.signatures.Get(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to load signatures")
	}
	return response.Success(c, fiber.Map{
		"hod_signature_set":       len(set.HODSignature) > 0,
		"principal_signature_set": len(set.PrincipalSignature) > 0,
		"hod_signature_url":       set.HODSignatureURL,
		"principal_signature_url": set.PrincipalSignatureURL,
		"updated_at":              set.UpdatedAt,
	})
}
