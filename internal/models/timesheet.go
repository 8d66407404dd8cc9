package models

import (
	"time"
)

// Timesheet status machine: active -> pending -> {closed, active}.
const (
	TimesheetStatusActive  = "active"
	TimesheetStatusPending = "pending"
	TimesheetStatusClosed  = "closed"
)

// Timesheet collects one user's performances, leave dates and whereabouts for
// a single month.
type Timesheet struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_timesheet_user_period,priority:1" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Year      int       `gorm:"not null;uniqueIndex:idx_timesheet_user_period,priority:2" json:"year"`
	Month     int       `gorm:"not null;uniqueIndex:idx_timesheet_user_period,priority:3" json:"month"`
	Status    string    `gorm:"size:16;not null;default:active;index" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Timesheet model.
func (Timesheet) TableName() string {
	return "timesheets"
}

// DateRange returns the first and last day of the timesheet's month.
func (t *Timesheet) DateRange() (time.Time, time.Time) {
	return MonthRange(t.Year, time.Month(t.Month))
}

// ContainsDate reports whether a date belongs to the timesheet's month.
func (t *Timesheet) ContainsDate(date time.Time) bool {
	return date.Year() == t.Year && int(date.Month()) == t.Month
}
