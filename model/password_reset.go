package model

import (
	"time"

	"gorm.io/gorm"
)

// PasswordResetOTP stores the one-time codes mailed out by the forgot-password
// flow. A code is single-use and short-lived; issuing a new one supersedes any
// outstanding unused codes for the same user.
type PasswordResetOTP struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"index;not null" json:"user_id"`
	Code      string         `gorm:"index;not null;type:varchar(10)" json:"-"`
	ExpiresAt time.Time      `gorm:"index;not null" json:"expires_at"`
	UsedAt    *time.Time     `json:"used_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

// TableName specifies the table name for PasswordResetOTP
func (PasswordResetOTP) TableName() string {
	return "password_reset_otps"
}

// IsExpired checks if the code has expired
func (p *PasswordResetOTP) IsExpired() bool {
	return time.Now().After(p.ExpiresAt)
}

// IsUsed checks if the code has been used
func (p *PasswordResetOTP) IsUsed() bool {
	return p.UsedAt != nil
}

// MarkAsUsed marks the code as used
func (p *PasswordResetOTP) MarkAsUsed() {
	now := time.Now()
	p.UsedAt = &now
}
