package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Application status values
const (
	ApplicationStatusSubmitted = "submitted"
	ApplicationStatusProcessed = "processed"
)

// SelectedSubject is one subject a student is applying to retake, with the
// components (internal/theory/practical) they failed.
type SelectedSubject struct {
	Name      string `json:"name"`
	Internal  bool   `json:"internal"`
	Theory    bool   `json:"theory"`
	Practical bool   `json:"practical"`
}

// ATKTApplication is a submitted exam-retake request. Applications are
// immutable once created; a student who needs a change submits a new one.
type ATKTApplication struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID      uint   `gorm:"not null;index" json:"user_id"`
	Email       string `gorm:"type:varchar(255)" json:"email"`
	StudentName string `gorm:"type:varchar(200);not null" json:"student_name"`
	RollNo      string `gorm:"type:varchar(20);not null;index" json:"roll_no"`

	Stream   string `gorm:"type:varchar(10);not null;index" json:"stream"`
	Semester string `gorm:"type:varchar(10);not null" json:"semester"`
	Scheme   string `gorm:"type:varchar(10);not null" json:"scheme"`

	Subjects datatypes.JSONSlice[SelectedSubject] `json:"subjects"`

	SeatNo string `gorm:"type:varchar(10);not null;uniqueIndex" json:"seat_no"`
	Status string `gorm:"type:varchar(20);default:'submitted'" json:"status"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for ATKTApplication
func (ATKTApplication) TableName() string {
	return "atkt_applications"
}
