package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/sgkm-college/atkt-backend/model"
	"github.com/sgkm-college/atkt-backend/services/digitalocean"
	"gorm.io/gorm"
)

var ErrNoSignatureSupplied = errors.New("at least one signature image is required")

// SignatureService manages the official HOD and Principal signature images
// printed on hall tickets. The raw PNG bytes live in the database so PDF
// assembly stays local; Spaces holds a public copy for the admin UI preview.
type SignatureService struct {
	db     *gorm.DB
	spaces *digitalocean.SpacesClient // may be nil when Spaces is not configured
}

// NewSignatureService creates a new signature service
func NewSignatureService(db *gorm.DB, spaces *digitalocean.SpacesClient) *SignatureService {
	return &SignatureService{db: db, spaces: spaces}
}

// Update stores new signature images. Either image may be nil to leave the
// stored one unchanged.
func (s *SignatureService) Update(ctx context.Context, adminID uint, hodPNG, principalPNG []byte) (*model.SignatureSet, error) {
	if len(hodPNG) == 0 && len(principalPNG) == 0 {
		return nil, ErrNoSignatureSupplied
	}

	set, err := s.current(ctx)
	if err != nil {
		return nil, err
	}

	if len(hodPNG) > 0 {
		set.HODSignature = hodPNG
		set.HODSignatureURL = s.mirror(ctx, "signatures/hod.png", hodPNG)
	}
	if len(principalPNG) > 0 {
		set.PrincipalSignature = principalPNG
		set.PrincipalSignatureURL = s.mirror(ctx, "signatures/principal.png", principalPNG)
	}
	set.UpdatedBy = adminID

	if err := s.db.WithContext(ctx).Save(set).Error; err != nil {
		return nil, err
	}
	return set, nil
}

// Get returns the stored signature set. A missing set is not an error; the
// caller gets an empty set and the PDF renders blank signature boxes.
func (s *SignatureService) Get(ctx context.Context) (*model.SignatureSet, error) {
	return s.current(ctx)
}

func (s *SignatureService) current(ctx context.Context) (*model.SignatureSet, error) {
	var set model.SignatureSet
	err := s.db.WithContext(ctx).Order("id asc").First(&set).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.SignatureSet{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &set, nil
}

// mirror uploads a public copy to Spaces, best effort.
func (s *SignatureService) mirror(ctx context.Context, key string, data []byte) string {
	if s.spaces == nil {
		return ""
	}
	url, err := s.spaces.UploadBytes(ctx, key, data, "image/png")
	if err != nil {
		log.Printf("[SIGNATURES] failed to mirror %s to Spaces: %v", key, err)
		return ""
	}
	return url
}

// DecodeImageDataURL decodes a browser-supplied data URL
// ("data:image/png;base64,....") or a bare base64 string into raw bytes.
func DecodeImageDataURL(input string) ([]byte, error) {
	if input == "" {
		return nil, nil
	}

	payload := input
	if strings.HasPrefix(input, "data:") {
		idx := strings.Index(input, ",")
		if idx < 0 {
			return nil, fmt.Errorf("malformed data URL")
		}
		payload = input[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image payload: %w", err)
	}
	return data, nil
}
