package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/sgkm-college/atkt-backend/model"
	authutil "github.com/sgkm-college/atkt-backend/utils/auth"
	"gorm.io/gorm"
)

// ErrInvalidResetCode covers every rejection of a reset attempt: unknown
// email, wrong code, expired code, reused code. Collapsing them keeps the
// endpoint from leaking which part failed.
var ErrInvalidResetCode = errors.New("invalid or expired reset code")

const resetCodeTTL = 10 * time.Minute

// PasswordResetService runs the forgot-password flow: a one-time code is
// mailed to the account's address and exchanged for a new password.
type PasswordResetService struct {
	db     *gorm.DB
	mailer *EmailService
}

// NewPasswordResetService creates a new password reset service
func NewPasswordResetService(db *gorm.DB, mailer *EmailService) *PasswordResetService {
	return &PasswordResetService{db: db, mailer: mailer}
}

// RequestReset issues a fresh code for the account behind email and mails it.
// An unknown address is not an error, so the endpoint cannot be used to probe
// which emails are registered. A new request supersedes outstanding codes.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up account: %w", err)
	}

	code, err := generateResetCode()
	if err != nil {
		return fmt.Errorf("failed to generate reset code: %w", err)
	}

	err = s.db.WithContext(ctx).
		Where("user_id = ? AND used_at IS NULL", user.ID).
		Delete(&model.PasswordResetOTP{}).Error
	if err != nil {
		return fmt.Errorf("failed to supersede previous codes: %w", err)
	}

	reset := model.PasswordResetOTP{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: time.Now().Add(resetCodeTTL),
	}
	if err := s.db.WithContext(ctx).Create(&reset).Error; err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}

	// Mail delivery is best effort; the stored code stays valid and the
	// admin can read it from the server log when SMTP is down.
	if err := s.mailer.SendPasswordResetOTP(user.Email, user.Name, code); err != nil {
		log.Printf("[AUTH] failed to mail reset code to %s: %v", user.Email, err)
	}
	return nil
}

// Reset verifies the code and sets the new password. The token version is
// bumped alongside the hash so every outstanding JWT stops working.
func (s *PasswordResetService) Reset(ctx context.Context, email, code, newPassword string) error {
	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidResetCode
	}
	if err != nil {
		return fmt.Errorf("failed to look up account: %w", err)
	}

	var reset model.PasswordResetOTP
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND code = ?", user.ID, code).
		Order("id DESC").
		First(&reset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidResetCode
	}
	if err != nil {
		return fmt.Errorf("failed to look up reset code: %w", err)
	}
	if reset.IsUsed() || reset.IsExpired() {
		return ErrInvalidResetCode
	}

	hashedPassword, err := authutil.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to process password: %w", err)
	}

	err = s.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"password_hash": hashedPassword,
		"token_version": user.TokenVersion + 1,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	reset.MarkAsUsed()
	if err := s.db.WithContext(ctx).Save(&reset).Error; err != nil {
		return fmt.Errorf("failed to mark reset code used: %w", err)
	}
	return nil
}

// generateResetCode returns a 6-digit numeric one-time code.
func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
