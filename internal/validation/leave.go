package validation

import (
	"github.com/laurensOost/925r/internal/models"
)

// ValidateLeaveDate checks a candidate leave date against the user's other
// non-rejected leave dates and its linked leave and timesheet.
//
// The caller provides `existing` restricted to the same user, excluding leave
// dates whose leaves are rejected.
func ValidateLeaveDate(candidate *models.LeaveDate, leave *models.Leave, timesheet *models.Timesheet, existing []models.LeaveDate) error {
	if candidate.StartsAt.IsZero() {
		return Conflict("starts_at", "the start date/time should be set")
	}
	if candidate.EndsAt.IsZero() {
		return Conflict("ends_at", "the end date/time should be set")
	}
	if !candidate.StartsAt.Before(candidate.EndsAt) {
		return Conflict("starts_at", "the start date should be set before the end date")
	}
	if !models.SameDate(candidate.StartsAt, candidate.EndsAt) {
		return Conflict("starts_at", "the start date should occur on the same day as the end date")
	}

	for i := range existing {
		other := &existing[i]
		if other.ID == candidate.ID {
			continue
		}
		// Closed interval comparison: touching boundaries conflict.
		if !candidate.StartsAt.After(other.EndsAt) && !other.StartsAt.After(candidate.EndsAt) {
			return Conflict("user", "user already has leave planned during this time")
		}
	}

	if !timesheet.ContainsDate(candidate.StartsAt) {
		return Conflict("timesheet", "you cannot attach leave dates to a timesheet for a different month")
	}
	if timesheet.Status != models.TimesheetStatusActive {
		return Conflict("timesheet", "you can only add leave dates to active timesheets")
	}
	if leave.UserID != timesheet.UserID {
		return Conflict("leave", "you cannot attach leave dates to leaves and timesheets for different users")
	}

	return nil
}

// ValidateWhereabout checks a candidate whereabout against the user's other
// whereabouts and its linked timesheet. Same rules as leave dates minus the
// leave link; the overlap comparison is open-ended, so touching boundaries
// are allowed.
func ValidateWhereabout(candidate *models.Whereabout, timesheet *models.Timesheet, existing []models.Whereabout) error {
	if !candidate.StartsAt.Before(candidate.EndsAt) {
		return Conflict("starts_at", "the start date should be set before the end date")
	}
	if !models.SameDate(candidate.StartsAt, candidate.EndsAt) {
		return Conflict("starts_at", "the start date should occur on the same day as the end date")
	}

	for i := range existing {
		other := &existing[i]
		if other.ID == candidate.ID {
			continue
		}
		if candidate.StartsAt.Before(other.EndsAt) && other.StartsAt.Before(candidate.EndsAt) {
			return Conflict("user", "user already has a whereabout during this time")
		}
	}

	if !timesheet.ContainsDate(candidate.StartsAt) {
		return Conflict("timesheet", "you cannot attach whereabouts to a timesheet for a different month")
	}
	if timesheet.Status != models.TimesheetStatusActive {
		return Conflict("timesheet", "you can only add whereabouts to active timesheets")
	}

	return nil
}
