package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/laurensOost/925r/internal/models"
)

// UserRepository handles user and user info operations.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user.
func (r *UserRepository) Create(user *models.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get user by id %d: %w", id, err)
	}
	return &user, nil
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to get user by username %s: %w", username, err)
	}
	return &user, nil
}

// ListActive retrieves all active users.
func (r *UserRepository) ListActive() ([]models.User, error) {
	var users []models.User
	if err := r.db.Where("active = ?", true).Order("username").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	return users, nil
}

// GetInfo retrieves the user info record for a user, or nil if none exists.
func (r *UserRepository) GetInfo(userID uint) (*models.UserInfo, error) {
	var info models.UserInfo
	err := r.db.Where("user_id = ?", userID).First(&info).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user info for user %d: %w", userID, err)
	}
	return &info, nil
}

// SaveInfo creates or updates the user info record for a user.
func (r *UserRepository) SaveInfo(info *models.UserInfo) error {
	var existing models.UserInfo
	err := r.db.Where("user_id = ?", info.UserID).First(&existing).Error
	if err == nil {
		info.ID = existing.ID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up user info for user %d: %w", info.UserID, err)
	}
	if err := r.db.Save(info).Error; err != nil {
		return fmt.Errorf("failed to save user info for user %d: %w", info.UserID, err)
	}
	return nil
}
