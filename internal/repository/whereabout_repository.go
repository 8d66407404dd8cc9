package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/laurensOost/925r/internal/models"
	"github.com/laurensOost/925r/internal/validation"
)

// WhereaboutRepository handles whereabout operations.
type WhereaboutRepository struct {
	db *DB
}

// NewWhereaboutRepository creates a new whereabout repository.
func NewWhereaboutRepository(db *DB) *WhereaboutRepository {
	return &WhereaboutRepository{db: db}
}

// Create validates and persists a whereabout inside one transaction. The
// overlap scope is all whereabouts of the same user.
func (r *WhereaboutRepository) Create(whereabout *models.Whereabout) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var timesheet models.Timesheet
		if err := tx.First(&timesheet, whereabout.TimesheetID).Error; err != nil {
			return fmt.Errorf("failed to load timesheet %d: %w", whereabout.TimesheetID, err)
		}

		var existing []models.Whereabout
		err := tx.
			Joins("JOIN timesheets ON timesheets.id = whereabouts.timesheet_id").
			Where("timesheets.user_id = ?", timesheet.UserID).
			Find(&existing).Error
		if err != nil {
			return fmt.Errorf("failed to load whereabouts for user %d: %w", timesheet.UserID, err)
		}

		if err := validation.ValidateWhereabout(whereabout, &timesheet, existing); err != nil {
			return observeConflict("whereabout", err)
		}

		return tx.Create(whereabout).Error
	})
}

// FindForUserInRange retrieves a user's whereabouts within a date range.
func (r *WhereaboutRepository) FindForUserInRange(userID uint, from, until time.Time) ([]models.Whereabout, error) {
	rangeStart := models.DateOf(from)
	rangeEnd := models.DateOf(until).Add(24 * time.Hour)

	var whereabouts []models.Whereabout
	err := r.db.
		Preload("Location").
		Joins("JOIN timesheets ON timesheets.id = whereabouts.timesheet_id").
		Where("timesheets.user_id = ?", userID).
		Where("whereabouts.starts_at < ?", rangeEnd).
		Where("whereabouts.ends_at >= ?", rangeStart).
		Order("whereabouts.starts_at").
		Find(&whereabouts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find whereabouts for user %d: %w", userID, err)
	}
	return whereabouts, nil
}
