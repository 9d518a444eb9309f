package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MasterSubject is one subject entry inside a master form. The three flags
// mark which exam components exist for the subject, not which ones a student
// failed.
type MasterSubject struct {
	Name      string `json:"name"`
	Internal  bool   `json:"internal"`
	Theory    bool   `json:"theory"`
	Practical bool   `json:"practical"`
}

// MasterForm defines the canonical subject list for one
// (stream, semester, scheme) offering. At most one form may exist per triple;
// the service layer enforces this at write time.
type MasterForm struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Stream   string `gorm:"type:varchar(10);not null;uniqueIndex:idx_master_forms_offering" json:"stream"`
	Semester string `gorm:"type:varchar(10);not null;uniqueIndex:idx_master_forms_offering" json:"semester"` // "SEM 1".."SEM 6"
	Scheme   string `gorm:"type:varchar(10);not null;uniqueIndex:idx_master_forms_offering" json:"scheme"`   // NEP, NON-NEP

	Subjects datatypes.JSONSlice[MasterSubject] `json:"subjects"`

	CreatedBy uint `gorm:"index" json:"created_by"`
}

// TableName specifies the table name for MasterForm
func (MasterForm) TableName() string {
	return "master_forms"
}
