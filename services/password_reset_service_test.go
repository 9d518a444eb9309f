package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sgkm-college/atkt-backend/model"
	authutil "github.com/sgkm-college/atkt-backend/utils/auth"
	"gorm.io/gorm"
)

// newResetService wires an unconfigured mailer so codes land in the log, not
// on the wire.
func newResetService(db *gorm.DB) *PasswordResetService {
	return NewPasswordResetService(db, &EmailService{})
}

func seedAccount(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()

	hash, err := authutil.HashPassword("original-pass")
	if err != nil {
		t.Fatal(err)
	}
	user := model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Rahul Sharma",
		Role:         "student",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatal(err)
	}
	return &user
}

func issuedCode(t *testing.T, db *gorm.DB, userID uint) *model.PasswordResetOTP {
	t.Helper()

	var reset model.PasswordResetOTP
	err := db.Where("user_id = ? AND used_at IS NULL", userID).
		Order("id DESC").First(&reset).Error
	if err != nil {
		t.Fatalf("no outstanding reset code: %v", err)
	}
	return &reset
}

func TestRequestResetIssuesCode(t *testing.T) {
	db := newTestDB(t)
	svc := newResetService(db)
	ctx := context.Background()

	user := seedAccount(t, db, "student@example.com")

	if err := svc.RequestReset(ctx, "student@example.com"); err != nil {
		t.Fatalf("RequestReset() error: %v", err)
	}

	reset := issuedCode(t, db, user.ID)
	if len(reset.Code) != 6 {
		t.Errorf("code length = %d, want 6", len(reset.Code))
	}
	if remaining := time.Until(reset.ExpiresAt); remaining <= 0 || remaining > resetCodeTTL {
		t.Errorf("expiry %v out of the TTL window", remaining)
	}
}

func TestRequestResetUnknownEmail(t *testing.T) {
	db := newTestDB(t)
	svc := newResetService(db)

	// Not an error, and nothing is stored
	if err := svc.RequestReset(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("RequestReset() error: %v", err)
	}
	var count int64
	db.Model(&model.PasswordResetOTP{}).Count(&count)
	if count != 0 {
		t.Errorf("stored codes = %d, want 0", count)
	}
}

func TestResetHappyPath(t *testing.T) {
	db := newTestDB(t)
	svc := newResetService(db)
	ctx := context.Background()

	user := seedAccount(t, db, "student@example.com")
	if err := svc.RequestReset(ctx, "student@example.com"); err != nil {
		t.Fatal(err)
	}
	reset := issuedCode(t, db, user.ID)

	if err := svc.Reset(ctx, "student@example.com", reset.Code, "brand-new-pass"); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}

	var updated model.User
	if err := db.First(&updated, user.ID).Error; err != nil {
		t.Fatal(err)
	}
	if err := authutil.VerifyPassword(updated.PasswordHash, "brand-new-pass"); err != nil {
		t.Error("new password does not verify")
	}
	if authutil.VerifyPassword(updated.PasswordHash, "original-pass") == nil {
		t.Error("old password still verifies")
	}
	if updated.TokenVersion != user.TokenVersion+1 {
		t.Errorf("TokenVersion = %d, want %d (outstanding tokens must die)",
			updated.TokenVersion, user.TokenVersion+1)
	}

	var used model.PasswordResetOTP
	if err := db.First(&used, reset.ID).Error; err != nil {
		t.Fatal(err)
	}
	if !used.IsUsed() {
		t.Error("code not marked used")
	}

	// Single use
	err := svc.Reset(ctx, "student@example.com", reset.Code, "another-pass")
	if !errors.Is(err, ErrInvalidResetCode) {
		t.Errorf("reused code: error = %v, want ErrInvalidResetCode", err)
	}
}

func TestResetRejectsWrongCode(t *testing.T) {
	db := newTestDB(t)
	svc := newResetService(db)
	ctx := context.Background()

	user := seedAccount(t, db, "student@example.com")
	if err := svc.RequestReset(ctx, "student@example.com"); err != nil {
		t.Fatal(err)
	}

	wrongCode := "000000"
	if issuedCode(t, db, user.ID).Code == wrongCode {
		wrongCode = "000001"
	}
	err := svc.Reset(ctx, "student@example.com", wrongCode, "brand-new-pass")
	if !errors.Is(err, ErrInvalidResetCode) {
		t.Errorf("wrong code: error = %v, want ErrInvalidResetCode", err)
	}

	if err := svc.Reset(ctx, "ghost@example.com", "123456", "brand-new-pass"); !errors.Is(err, ErrInvalidResetCode) {
		t.Errorf("unknown email: error = %v, want ErrInvalidResetCode", err)
	}
}

func TestResetRejectsExpiredCode(t *testing.T) {
	db := newTestDB(t)
	svc := newResetService(db)
	ctx := context.Background()

	user := seedAccount(t, db, "student@example.com")
	if err := svc.RequestReset(ctx, "student@example.com"); err != nil {
		t.Fatal(err)
	}
	reset := issuedCode(t, db, user.ID)

	expired := time.Now().Add(-time.Minute)
	if err := db.Model(reset).Update("expires_at", expired).Error; err != nil {
		t.Fatal(err)
	}

	if err := svc.Reset(ctx, "student@example.com", reset.Code, "brand-new-pass"); !errors.Is(err, ErrInvalidResetCode) {
		t.Errorf("expired code: error = %v, want ErrInvalidResetCode", err)
	}
}

func TestRequestResetSupersedesPreviousCode(t *testing.T) {
	db := newTestDB(t)
	svc := newResetService(db)
	ctx := context.Background()

	user := seedAccount(t, db, "student@example.com")
	if err := svc.RequestReset(ctx, "student@example.com"); err != nil {
		t.Fatal(err)
	}
	first := issuedCode(t, db, user.ID)

	if err := svc.RequestReset(ctx, "student@example.com"); err != nil {
		t.Fatal(err)
	}
	second := issuedCode(t, db, user.ID)
	if first.ID == second.ID {
		t.Fatal("second request did not issue a new code")
	}

	// Only the latest code is accepted
	if first.Code != second.Code {
		if err := svc.Reset(ctx, "student@example.com", first.Code, "brand-new-pass"); !errors.Is(err, ErrInvalidResetCode) {
			t.Errorf("superseded code: error = %v, want ErrInvalidResetCode", err)
		}
	}
	if err := svc.Reset(ctx, "student@example.com", second.Code, "brand-new-pass"); err != nil {
		t.Errorf("latest code rejected: %v", err)
	}
}
