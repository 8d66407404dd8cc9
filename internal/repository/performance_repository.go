package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/laurensOost/925r/internal/models"
	"github.com/laurensOost/925r/internal/validation"
)

// PerformanceRepository handles performance operations.
type PerformanceRepository struct {
	db *DB
}

// NewPerformanceRepository creates a new performance repository.
func NewPerformanceRepository(db *DB) *PerformanceRepository {
	return &PerformanceRepository{db: db}
}

// Create validates and persists a new performance, dispatching on its kind.
func (r *PerformanceRepository) Create(performance *models.Performance) error {
	return r.save(performance, func(tx *gorm.DB) error {
		return tx.Create(performance).Error
	})
}

// Update validates and persists changes to a performance.
func (r *PerformanceRepository) Update(performance *models.Performance) error {
	return r.save(performance, func(tx *gorm.DB) error {
		return tx.Save(performance).Error
	})
}

func (r *PerformanceRepository) save(performance *models.Performance, write func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var timesheet models.Timesheet
		if err := tx.First(&timesheet, performance.TimesheetID).Error; err != nil {
			return fmt.Errorf("failed to load timesheet %d: %w", performance.TimesheetID, err)
		}

		var contract *models.Contract
		if performance.ContractID != nil {
			contract = &models.Contract{}
			if err := tx.Preload("PerformanceTypes").First(contract, *performance.ContractID).Error; err != nil {
				return fmt.Errorf("failed to load contract %d: %w", *performance.ContractID, err)
			}
		}

		switch performance.Kind {
		case models.PerformanceKindActivity:
			roleAllowed := false
			if contract != nil && performance.ContractRoleID != nil {
				var count int64
				err := tx.Model(&models.ContractUser{}).
					Where("contract_id = ? AND user_id = ? AND contract_role_id = ?",
						contract.ID, timesheet.UserID, *performance.ContractRoleID).
					Count(&count).Error
				if err != nil {
					return fmt.Errorf("failed to check contract role: %w", err)
				}
				roleAllowed = count > 0
			}

			var allowedTypes []models.PerformanceType
			if contract != nil {
				allowedTypes = contract.PerformanceTypes
			}

			if err := validation.ValidateActivityPerformance(performance, &timesheet, contract, roleAllowed, allowedTypes); err != nil {
				return observeConflict("performance", err)
			}

		case models.PerformanceKindStandby:
			var existing []models.Performance
			if err := tx.Where("timesheet_id = ? AND kind = ?", performance.TimesheetID, models.PerformanceKindStandby).
				Find(&existing).Error; err != nil {
				return fmt.Errorf("failed to load standby performances: %w", err)
			}

			if err := validation.ValidateStandbyPerformance(performance, &timesheet, contract, existing); err != nil {
				return observeConflict("performance", err)
			}

		default:
			return observeConflict("performance", validation.Conflict("kind", "unknown performance kind"))
		}

		return write(tx)
	})
}

// FindForUsersInRange retrieves performances within a date range for a set of
// users, keyed by user ID. Contract and performance type are preloaded for
// normalization and summary grouping.
func (r *PerformanceRepository) FindForUsersInRange(userIDs []uint, from, until time.Time) (map[uint][]models.Performance, error) {
	from, until = models.DateOf(from), models.DateOf(until)

	var performances []models.Performance
	err := r.db.
		Preload("Timesheet").Preload("Contract").Preload("PerformanceType").
		Joins("JOIN timesheets ON timesheets.id = performances.timesheet_id").
		Where("timesheets.user_id IN ?", userIDs).
		Where("performances.date BETWEEN ? AND ?", from, until).
		Order("performances.date").
		Find(&performances).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find performances: %w", err)
	}

	result := make(map[uint][]models.Performance)
	for _, performance := range performances {
		result[performance.Timesheet.UserID] = append(result[performance.Timesheet.UserID], performance)
	}
	return result, nil
}

// FindByRedmineIDs retrieves a user's performances imported from the given
// Redmine time entry IDs, keyed by Redmine ID.
func (r *PerformanceRepository) FindByRedmineIDs(userID uint, redmineIDs []string) (map[string]uint, error) {
	if len(redmineIDs) == 0 {
		return map[string]uint{}, nil
	}

	var performances []models.Performance
	err := r.db.
		Joins("JOIN timesheets ON timesheets.id = performances.timesheet_id").
		Where("timesheets.user_id = ?", userID).
		Where("performances.redmine_id IN ?", redmineIDs).
		Find(&performances).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find imported performances for user %d: %w", userID, err)
	}

	result := make(map[string]uint, len(performances))
	for _, performance := range performances {
		result[performance.RedmineID] = performance.ID
	}
	return result, nil
}
