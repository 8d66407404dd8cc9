package calculation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/laurensOost/925r/internal/models"
)

// Options controls what GetRangeInfo computes beyond the per-user totals.
type Options struct {
	// Daily retains the per-day detail map keyed by ISO date.
	Daily bool
	// Detailed attaches the underlying leave and performance records to each
	// day detail. Implies Daily.
	Detailed bool
	// Summary groups performed hours by contract.
	Summary bool
}

// DayDetail is the resolved view of a single calendar day for one user.
type DayDetail struct {
	Date              time.Time       `json:"date"`
	WorkHours         decimal.Decimal `json:"work_hours"`
	ScheduledHours    decimal.Decimal `json:"scheduled_hours"`
	HolidayHours      decimal.Decimal `json:"holiday_hours"`
	LeaveHours        decimal.Decimal `json:"leave_hours"`
	PerformedHours    decimal.Decimal `json:"performed_hours"`
	OvertimeHours     decimal.Decimal `json:"overtime_hours"`
	RemainingHours    decimal.Decimal `json:"remaining_hours"`
	StandbyDays       int             `json:"standby_days"`
	UsedOvertimeHours decimal.Decimal `json:"used_overtime_hours"`

	// Populated when Options.Detailed is set.
	Holidays     []models.Holiday     `json:"holidays,omitempty"`
	LeaveDates   []models.LeaveDate   `json:"leave_dates,omitempty"`
	Performances []models.Performance `json:"performances,omitempty"`
}

// ContractPerformance is a summary row grouping performed hours by contract.
type ContractPerformance struct {
	ContractID   uint            `json:"contract_id"`
	ContractName string          `json:"contract_name"`
	ContractKind string          `json:"contract_kind"`
	Duration     decimal.Decimal `json:"duration"`
	StandbyDays  int             `json:"standby_days"`
}

// Summary groups a range's performances by contract for invoicing reports.
type Summary struct {
	Performances []ContractPerformance `json:"performances"`
}

// RangeInfo is the aggregate of all day details in a date range for one user.
type RangeInfo struct {
	WorkHours         decimal.Decimal `json:"work_hours"`
	HolidayHours      decimal.Decimal `json:"holiday_hours"`
	LeaveHours        decimal.Decimal `json:"leave_hours"`
	PerformedHours    decimal.Decimal `json:"performed_hours"`
	OvertimeHours     decimal.Decimal `json:"overtime_hours"`
	RemainingHours    decimal.Decimal `json:"remaining_hours"`
	UsedOvertimeHours decimal.Decimal `json:"used_overtime_hours"`
	StandbyDays       int             `json:"standby_days"`

	// Details is keyed by ISO date ("2006-01-02"). Nil unless Options.Daily.
	Details map[string]*DayDetail `json:"details,omitempty"`
	// Summary is nil unless Options.Summary.
	Summary *Summary `json:"summary,omitempty"`
}
