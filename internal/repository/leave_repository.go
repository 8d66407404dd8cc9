package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/laurensOost/925r/internal/models"
	"github.com/laurensOost/925r/internal/validation"
)

// LeaveRepository handles leave and leave date operations.
type LeaveRepository struct {
	db *DB
}

// NewLeaveRepository creates a new leave repository.
func NewLeaveRepository(db *DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// CreateLeave persists a new leave request.
func (r *LeaveRepository) CreateLeave(leave *models.Leave) error {
	if err := r.db.Create(leave).Error; err != nil {
		return fmt.Errorf("failed to create leave: %w", err)
	}
	return nil
}

// UpdateLeaveStatus moves a leave request through its status machine.
func (r *LeaveRepository) UpdateLeaveStatus(leaveID uint, status string) error {
	result := r.db.Model(&models.Leave{}).Where("id = ?", leaveID).Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update leave %d status: %w", leaveID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("leave %d not found", leaveID)
	}
	return nil
}

// CreateLeaveDate validates and persists a leave date inside one transaction.
// The overlap scope is all non-rejected leave dates of the same user.
func (r *LeaveRepository) CreateLeaveDate(leaveDate *models.LeaveDate) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var leave models.Leave
		if err := tx.First(&leave, leaveDate.LeaveID).Error; err != nil {
			return fmt.Errorf("failed to load leave %d: %w", leaveDate.LeaveID, err)
		}

		var timesheet models.Timesheet
		if err := tx.First(&timesheet, leaveDate.TimesheetID).Error; err != nil {
			return fmt.Errorf("failed to load timesheet %d: %w", leaveDate.TimesheetID, err)
		}

		var existing []models.LeaveDate
		err := tx.
			Joins("JOIN leaves ON leaves.id = leave_dates.leave_id").
			Where("leaves.user_id = ?", leave.UserID).
			Where("leaves.status <> ?", models.LeaveStatusRejected).
			Find(&existing).Error
		if err != nil {
			return fmt.Errorf("failed to load leave dates for user %d: %w", leave.UserID, err)
		}

		if err := validation.ValidateLeaveDate(leaveDate, &leave, &timesheet, existing); err != nil {
			return observeConflict("leave_date", err)
		}

		return tx.Create(leaveDate).Error
	})
}

// FindApprovedLeaveDates retrieves approved leave dates overlapping a date
// range for a set of users, keyed by user ID. The leave and leave type are
// preloaded so callers can split by overtime and sickness flags.
func (r *LeaveRepository) FindApprovedLeaveDates(userIDs []uint, from, until time.Time) (map[uint][]models.LeaveDate, error) {
	rangeStart := models.DateOf(from)
	rangeEnd := models.DateOf(until).Add(24 * time.Hour)

	var leaveDates []models.LeaveDate
	err := r.db.
		Preload("Leave").Preload("Leave.LeaveType").
		Joins("JOIN leaves ON leaves.id = leave_dates.leave_id").
		Where("leaves.user_id IN ?", userIDs).
		Where("leaves.status = ?", models.LeaveStatusApproved).
		Where("leave_dates.starts_at < ?", rangeEnd).
		Where("leave_dates.ends_at >= ?", rangeStart).
		Order("leave_dates.starts_at").
		Find(&leaveDates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find approved leave dates: %w", err)
	}

	result := make(map[uint][]models.LeaveDate)
	for _, leaveDate := range leaveDates {
		result[leaveDate.Leave.UserID] = append(result[leaveDate.Leave.UserID], leaveDate)
	}
	return result, nil
}
