package models

import (
	"time"
)

// Location is a known place a user can work from.
type Location struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null;size:255" json:"name"`
	Country   string    `gorm:"size:2" json:"country"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Location model.
func (Location) TableName() string {
	return "locations"
}

// Whereabout records where a user is during an interval within a single
// calendar day, attached to the timesheet of the matching month.
type Whereabout struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TimesheetID uint      `gorm:"not null;index" json:"timesheet_id"`
	Timesheet   Timesheet `gorm:"foreignKey:TimesheetID" json:"timesheet,omitempty"`
	LocationID  uint      `gorm:"not null" json:"location_id"`
	Location    Location  `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Description string    `gorm:"type:text" json:"description"`
	StartsAt    time.Time `gorm:"not null;index" json:"starts_at"`
	EndsAt      time.Time `gorm:"not null" json:"ends_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for Whereabout model.
func (Whereabout) TableName() string {
	return "whereabouts"
}
