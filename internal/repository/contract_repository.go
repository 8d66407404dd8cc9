package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/laurensOost/925r/internal/models"
	"github.com/laurensOost/925r/internal/validation"
)

// ContractRepository handles contract, contract user and contract user work
// schedule operations.
type ContractRepository struct {
	db *DB
}

// NewContractRepository creates a new contract repository.
func NewContractRepository(db *DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// Create validates and persists a new contract.
func (r *ContractRepository) Create(contract *models.Contract) error {
	if err := validation.ValidateContract(contract); err != nil {
		return observeConflict("contract", err)
	}
	if err := r.db.Create(contract).Error; err != nil {
		return fmt.Errorf("failed to create contract: %w", err)
	}
	return nil
}

// GetByID retrieves a contract by ID.
func (r *ContractRepository) GetByID(id uint) (*models.Contract, error) {
	var contract models.Contract
	if err := r.db.Preload("Customer").Preload("Company").First(&contract, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get contract %d: %w", id, err)
	}
	return &contract, nil
}

// FindForUser retrieves all contracts a user is assigned to.
func (r *ContractRepository) FindForUser(userID uint) ([]models.Contract, error) {
	var contracts []models.Contract
	err := r.db.
		Joins("JOIN contract_users ON contract_users.contract_id = contracts.id").
		Where("contract_users.user_id = ?", userID).
		Distinct().
		Find(&contracts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find contracts for user %d: %w", userID, err)
	}
	return contracts, nil
}

// CreateContractUser assigns a user to a contract with a role.
func (r *ContractRepository) CreateContractUser(contractUser *models.ContractUser) error {
	if err := r.db.Create(contractUser).Error; err != nil {
		return fmt.Errorf("failed to create contract user: %w", err)
	}
	return nil
}

// HasContractUserRole reports whether the (contract, user, role) triple exists.
func (r *ContractRepository) HasContractUserRole(contractID, userID, roleID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.ContractUser{}).
		Where("contract_id = ? AND user_id = ? AND contract_role_id = ?", contractID, userID, roleID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check contract user role: %w", err)
	}
	return count > 0, nil
}

// AllowedPerformanceTypes retrieves the performance type whitelist of a
// contract. An empty result means any type is allowed.
func (r *ContractRepository) AllowedPerformanceTypes(contractID uint) ([]models.PerformanceType, error) {
	var contract models.Contract
	if err := r.db.Preload("PerformanceTypes").First(&contract, contractID).Error; err != nil {
		return nil, fmt.Errorf("failed to load performance types for contract %d: %w", contractID, err)
	}
	return contract.PerformanceTypes, nil
}

// CreateContractUserWorkSchedule validates and persists a schedule override.
func (r *ContractRepository) CreateContractUserWorkSchedule(schedule *models.ContractUserWorkSchedule) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing []models.ContractUserWorkSchedule
		if err := tx.Where("contract_user_id = ?", schedule.ContractUserID).Find(&existing).Error; err != nil {
			return fmt.Errorf("failed to load work schedules for contract user %d: %w", schedule.ContractUserID, err)
		}

		if err := validation.ValidateContractUserWorkSchedule(schedule, existing); err != nil {
			return observeConflict("contract_user_work_schedule", err)
		}

		return tx.Create(schedule).Error
	})
}

// FindContractUserWorkSchedules retrieves schedule overrides overlapping a
// date range for a set of users, keyed by user ID.
func (r *ContractRepository) FindContractUserWorkSchedules(userIDs []uint, from, until time.Time) (map[uint][]models.ContractUserWorkSchedule, error) {
	from, until = models.DateOf(from), models.DateOf(until)

	var schedules []models.ContractUserWorkSchedule
	err := r.db.
		Preload("ContractUser").Preload("ContractUser.Contract").Preload("ContractUser.ContractRole").
		Joins("JOIN contract_users ON contract_users.id = contract_user_work_schedules.contract_user_id").
		Where("contract_users.user_id IN ?", userIDs).
		Where("contract_user_work_schedules.starts_at <= ?", until).
		Where("contract_user_work_schedules.ends_at IS NULL OR contract_user_work_schedules.ends_at >= ?", from).
		Find(&schedules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find contract user work schedules: %w", err)
	}

	result := make(map[uint][]models.ContractUserWorkSchedule)
	for _, schedule := range schedules {
		result[schedule.ContractUser.UserID] = append(result[schedule.ContractUser.UserID], schedule)
	}
	return result, nil
}

// RedmineMapping returns a map of Redmine project IDs to contract IDs for the
// contracts a user is assigned to, plus the set of those contract IDs.
func (r *ContractRepository) RedmineMapping(userID uint) (map[string]uint, map[uint]bool, error) {
	contracts, err := r.FindForUser(userID)
	if err != nil {
		return nil, nil, err
	}

	projects := make(map[string]uint)
	ids := make(map[uint]bool)
	for _, contract := range contracts {
		ids[contract.ID] = true
		if contract.RedmineID != "" {
			projects[contract.RedmineID] = contract.ID
		}
	}
	return projects, ids, nil
}

// FindExpiringConsultancy retrieves active consultancy contracts, used by the
// contract overview reports.
func (r *ContractRepository) FindExpiringConsultancy() ([]models.Contract, error) {
	var contracts []models.Contract
	err := r.db.Preload("Customer").
		Where("kind = ? AND active = ?", models.ContractKindConsultancy, true).
		Find(&contracts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find consultancy contracts: %w", err)
	}
	return contracts, nil
}

// GetRole retrieves a contract role by ID.
func (r *ContractRepository) GetRole(id uint) (*models.ContractRole, error) {
	var role models.ContractRole
	err := r.db.First(&role, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("contract role %d not found", id)
		}
		return nil, fmt.Errorf("failed to get contract role %d: %w", id, err)
	}
	return &role, nil
}
