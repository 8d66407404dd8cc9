package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/laurensOost/925r/internal/models"
)

// HolidayRepository handles holiday operations.
type HolidayRepository struct {
	db *DB
}

// NewHolidayRepository creates a new holiday repository.
func NewHolidayRepository(db *DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// Create persists a holiday. Duplicate (name, date, country) rows are ignored
// so calendar imports are idempotent.
func (r *HolidayRepository) Create(holiday *models.Holiday) error {
	holiday.Date = models.DateOf(holiday.Date)
	err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(holiday).Error
	if err != nil {
		return fmt.Errorf("failed to create holiday %q: %w", holiday.Name, err)
	}
	return nil
}

// FindInRange retrieves holidays for a country within a date range, keyed by
// ISO date string.
func (r *HolidayRepository) FindInRange(country string, from, until time.Time) (map[string][]models.Holiday, error) {
	from, until = models.DateOf(from), models.DateOf(until)

	var holidays []models.Holiday
	err := r.db.
		Where("country = ?", country).
		Where("date BETWEEN ? AND ?", from, until).
		Find(&holidays).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find holidays for %s: %w", country, err)
	}

	result := make(map[string][]models.Holiday)
	for _, holiday := range holidays {
		key := holiday.Date.Format(models.ISODate)
		result[key] = append(result[key], holiday)
	}
	return result, nil
}
