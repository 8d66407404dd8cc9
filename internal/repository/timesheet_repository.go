package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/laurensOost/925r/internal/models"
	"github.com/laurensOost/925r/internal/validation"
)

// TimesheetRepository handles timesheet operations.
type TimesheetRepository struct {
	db *DB
}

// NewTimesheetRepository creates a new timesheet repository.
func NewTimesheetRepository(db *DB) *TimesheetRepository {
	return &TimesheetRepository{db: db}
}

// Create validates and persists a new timesheet.
func (r *TimesheetRepository) Create(timesheet *models.Timesheet) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.Timesheet{}).
			Where("user_id = ? AND year = ? AND month = ?", timesheet.UserID, timesheet.Year, timesheet.Month).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to count timesheets: %w", err)
		}

		if err := validation.ValidateNewTimesheet(timesheet, count); err != nil {
			return observeConflict("timesheet", err)
		}

		return tx.Create(timesheet).Error
	})
}

// GetForUser retrieves the timesheet of a user for a month, or nil if none
// exists.
func (r *TimesheetRepository) GetForUser(userID uint, year, month int) (*models.Timesheet, error) {
	var timesheet models.Timesheet
	err := r.db.Where("user_id = ? AND year = ? AND month = ?", userID, year, month).First(&timesheet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get timesheet for user %d: %w", userID, err)
	}
	return &timesheet, nil
}

// SetStatus validates and applies a status transition.
func (r *TimesheetRepository) SetStatus(timesheetID uint, status string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var timesheet models.Timesheet
		if err := tx.First(&timesheet, timesheetID).Error; err != nil {
			return fmt.Errorf("failed to load timesheet %d: %w", timesheetID, err)
		}

		if err := validation.ValidateTimesheetStatusChange(timesheet.Status, status); err != nil {
			return observeConflict("timesheet", err)
		}

		return tx.Model(&timesheet).Update("status", status).Error
	})
}

// EnsureForMonth creates an active timesheet for the user and month if none
// exists yet, returning the timesheet either way.
func (r *TimesheetRepository) EnsureForMonth(userID uint, year, month int) (*models.Timesheet, error) {
	timesheet, err := r.GetForUser(userID, year, month)
	if err != nil {
		return nil, err
	}
	if timesheet != nil {
		return timesheet, nil
	}

	timesheet = &models.Timesheet{
		UserID: userID,
		Year:   year,
		Month:  month,
		Status: models.TimesheetStatusActive,
	}
	if err := r.Create(timesheet); err != nil {
		return nil, err
	}
	return timesheet, nil
}
