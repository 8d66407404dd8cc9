package validation

import (
	"github.com/laurensOost/925r/internal/models"
)

// ValidateNewTimesheet checks that a timesheet can be created. New timesheets
// must start out active and be unique per (user, year, month).
func ValidateNewTimesheet(candidate *models.Timesheet, existingForPeriod int64) error {
	if candidate.Month < 1 || candidate.Month > 12 {
		return Conflict("month", "the month should be between 1 and 12")
	}
	if candidate.Status != models.TimesheetStatusActive {
		return Conflict("status", "timesheets must be set to active when created")
	}
	if existingForPeriod > 0 {
		return Conflict("year", "a timesheet for this user, year and month already exists")
	}
	return nil
}

// ValidateTimesheetStatusChange enforces the monotonic status machine:
// active -> pending -> {closed, active}.
func ValidateTimesheetStatusChange(oldStatus, newStatus string) error {
	if oldStatus == newStatus {
		return nil
	}
	switch oldStatus {
	case models.TimesheetStatusActive:
		if newStatus != models.TimesheetStatusPending {
			return Conflict("status", "active timesheets can only be made pending")
		}
	case models.TimesheetStatusPending:
		if newStatus != models.TimesheetStatusClosed && newStatus != models.TimesheetStatusActive {
			return Conflict("status", "pending timesheets can only be closed or reactivated")
		}
	case models.TimesheetStatusClosed:
		return Conflict("status", "closed timesheets cannot change status")
	}
	return nil
}
