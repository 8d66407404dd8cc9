package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Leave status constants.
const (
	LeaveStatusDraft    = "draft"
	LeaveStatusPending  = "pending"
	LeaveStatusApproved = "approved"
	LeaveStatusRejected = "rejected"
)

// LeaveType classifies leave requests. Overtime-flagged types consume banked
// overtime; sickness-flagged types surface as a distinct availability tag.
type LeaveType struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null;size:255" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Overtime    bool      `gorm:"default:false" json:"overtime"`
	Sickness    bool      `gorm:"default:false" json:"sickness"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for LeaveType model.
func (LeaveType) TableName() string {
	return "leave_types"
}

// Leave is a leave request; the actual time is carried by its LeaveDates.
type Leave struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UserID      uint        `gorm:"not null;index" json:"user_id"`
	User        User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	LeaveTypeID uint        `gorm:"not null" json:"leave_type_id"`
	LeaveType   LeaveType   `gorm:"foreignKey:LeaveTypeID" json:"leave_type,omitempty"`
	Description string      `gorm:"type:text" json:"description"`
	Status      string      `gorm:"size:16;not null;default:draft;index" json:"status"`
	LeaveDates  []LeaveDate `gorm:"foreignKey:LeaveID" json:"leave_dates,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// TableName specifies the table name for Leave model.
func (Leave) TableName() string {
	return "leaves"
}

// LeaveDate is a leave interval within a single calendar day, attached to the
// timesheet of the matching month.
type LeaveDate struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	LeaveID     uint      `gorm:"not null;index" json:"leave_id"`
	Leave       Leave     `gorm:"foreignKey:LeaveID" json:"leave,omitempty"`
	TimesheetID uint      `gorm:"not null;index" json:"timesheet_id"`
	Timesheet   Timesheet `gorm:"foreignKey:TimesheetID" json:"timesheet,omitempty"`
	StartsAt    time.Time `gorm:"not null;index" json:"starts_at"`
	EndsAt      time.Time `gorm:"not null" json:"ends_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for LeaveDate model.
func (LeaveDate) TableName() string {
	return "leave_dates"
}

// Duration returns the leave date length in hours, rounded to two decimals.
func (ld *LeaveDate) Duration() decimal.Decimal {
	hours := ld.EndsAt.Sub(ld.StartsAt).Seconds() / 3600
	return decimal.NewFromFloat(hours).Round(2)
}
