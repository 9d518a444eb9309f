package model

import (
	"time"

	"gorm.io/gorm"
)

// StudentProfile is the identity record for a student. Rows arrive from two
// places: the student filling in their own details (keyed by UserID, fields
// like Surname/FatherName populated), and admin bulk imports from spreadsheets
// (FullName/Course/Year populated, no owning user yet). Updates are
// merge-upserts: only supplied fields overwrite.
type StudentProfile struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID *uint `gorm:"index" json:"user_id,omitempty"`

	// Detailed identity (student-entered, printed on the ATKT form)
	Surname    string `gorm:"type:varchar(100)" json:"surname"`
	Name       string `gorm:"type:varchar(100)" json:"name"`
	FatherName string `gorm:"type:varchar(100)" json:"father_name"`
	MotherName string `gorm:"type:varchar(100)" json:"mother_name"`
	Gender     string `gorm:"type:varchar(10)" json:"gender"` // Male, Female, Other
	Address    string `gorm:"type:text" json:"address"`

	// Registry identity (bulk-imported, used for batch management)
	FullName string `gorm:"type:varchar(200)" json:"full_name"`
	Course   string `gorm:"type:varchar(10);index:idx_students_course_roll" json:"course"` // CS, IT, BMS, BAF
	Year     string `gorm:"type:varchar(5);index" json:"year"`                             // FY, SY, TY

	RollNo string `gorm:"type:varchar(20);not null;index:idx_students_course_roll" json:"roll_no"`
	Mobile string `gorm:"type:varchar(15)" json:"mobile"`
	Email  string `gorm:"type:varchar(255)" json:"email"`
}

// TableName specifies the table name for StudentProfile
func (StudentProfile) TableName() string {
	return "student_profiles"
}
