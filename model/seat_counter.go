package model

import "time"

// SeatCounter holds the next running number for one (admission year, stream)
// key, e.g. "24_CS". Current only ever increases; every mutation goes through
// a conditional write (WHERE current = <seen value>), never a plain save.
type SeatCounter struct {
	ID        string    `gorm:"primaryKey;type:varchar(10)" json:"id"`
	Current   int       `gorm:"not null" json:"current"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for SeatCounter
func (SeatCounter) TableName() string {
	return "seat_counters"
}
