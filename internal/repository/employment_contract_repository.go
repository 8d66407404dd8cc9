package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/laurensOost/925r/internal/models"
	"github.com/laurensOost/925r/internal/validation"
)

// EmploymentContractRepository handles employment contract operations.
type EmploymentContractRepository struct {
	db *DB
}

// NewEmploymentContractRepository creates a new employment contract repository.
func NewEmploymentContractRepository(db *DB) *EmploymentContractRepository {
	return &EmploymentContractRepository{db: db}
}

// Create validates and persists a new employment contract.
func (r *EmploymentContractRepository) Create(contract *models.EmploymentContract) error {
	return r.save(contract, func(tx *gorm.DB) error {
		return tx.Create(contract).Error
	})
}

// Update validates and persists changes to an employment contract.
func (r *EmploymentContractRepository) Update(contract *models.EmploymentContract) error {
	return r.save(contract, func(tx *gorm.DB) error {
		return tx.Save(contract).Error
	})
}

// save runs the overlap validation and the write inside one transaction.
func (r *EmploymentContractRepository) save(contract *models.EmploymentContract, write func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var company models.Company
		if err := tx.First(&company, contract.CompanyID).Error; err != nil {
			return fmt.Errorf("failed to load company %d: %w", contract.CompanyID, err)
		}

		var existing []models.EmploymentContract
		if err := tx.Where("user_id = ? AND company_id = ?", contract.UserID, contract.CompanyID).
			Find(&existing).Error; err != nil {
			return fmt.Errorf("failed to load employment contracts for user %d: %w", contract.UserID, err)
		}

		if err := validation.ValidateEmploymentContract(contract, &company, existing); err != nil {
			return observeConflict("employment_contract", err)
		}

		return write(tx)
	})
}

// FindForUserOn retrieves the employment contracts active for a user on a
// date, ordered by start date.
func (r *EmploymentContractRepository) FindForUserOn(userID uint, date time.Time) ([]models.EmploymentContract, error) {
	date = models.DateOf(date)

	var contracts []models.EmploymentContract
	err := r.db.Preload("Company").Preload("WorkSchedule").
		Where("user_id = ?", userID).
		Where("started_at <= ?", date).
		Where("ended_at IS NULL OR ended_at >= ?", date).
		Order("started_at").
		Find(&contracts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find employment contracts for user %d: %w", userID, err)
	}
	return contracts, nil
}

// FindForUsersInRange retrieves employment contracts overlapping a date range
// for a set of users, keyed by user ID.
func (r *EmploymentContractRepository) FindForUsersInRange(userIDs []uint, from, until time.Time) (map[uint][]models.EmploymentContract, error) {
	from, until = models.DateOf(from), models.DateOf(until)

	var contracts []models.EmploymentContract
	err := r.db.Preload("Company").Preload("WorkSchedule").
		Where("user_id IN ?", userIDs).
		Where("started_at <= ?", until).
		Where("ended_at IS NULL OR ended_at >= ?", from).
		Order("started_at").
		Find(&contracts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find employment contracts: %w", err)
	}

	result := make(map[uint][]models.EmploymentContract)
	for _, contract := range contracts {
		result[contract.UserID] = append(result[contract.UserID], contract)
	}
	return result, nil
}

// EarliestStartForUser returns the start date of the user's first employment
// contract, or the zero time if the user never had one.
func (r *EmploymentContractRepository) EarliestStartForUser(userID uint) (time.Time, error) {
	var contract models.EmploymentContract
	err := r.db.Where("user_id = ?", userID).Order("started_at").First(&contract).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to find first employment contract for user %d: %w", userID, err)
	}
	return contract.StartedAt, nil
}
