package model

import (
	"time"

	"gorm.io/gorm"
)

// SignatureSet holds the official HOD and Principal signature images used on
// generated hall tickets. The raw PNG bytes are kept in the row so PDF
// assembly never needs a network fetch; the Spaces URLs exist for the admin
// UI preview. A single row (the most recent) is authoritative.
type SignatureSet struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	HODSignature       []byte `gorm:"type:bytea" json:"-"`
	PrincipalSignature []byte `gorm:"type:bytea" json:"-"`

	HODSignatureURL       string `gorm:"type:varchar(512)" json:"hod_signature_url"`
	PrincipalSignatureURL string `gorm:"type:varchar(512)" json:"principal_signature_url"`

	UpdatedBy uint `gorm:"index" json:"updated_by"`
}

// TableName specifies the table name for SignatureSet
func (SignatureSet) TableName() string {
	return "signature_sets"
}
