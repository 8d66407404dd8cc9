// Package models defines the time-bound domain entities backing the engine.
package models

import (
	"time"
)

// User represents a tracked employee.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null;size:255" json:"username"`
	Email     string    `gorm:"size:255" json:"email"`
	FirstName string    `gorm:"size:255" json:"first_name"`
	LastName  string    `gorm:"size:255" json:"last_name"`
	Active    bool      `gorm:"default:true;index" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model.
func (User) TableName() string {
	return "users"
}

// UserInfo carries per-user settings that do not belong on the auth record.
type UserInfo struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Country   string    `gorm:"size:2" json:"country"`
	RedmineID string    `gorm:"size:255" json:"redmine_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for UserInfo model.
func (UserInfo) TableName() string {
	return "user_info"
}

// Company represents an internal company or a customer.
type Company struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null;size:255" json:"name"`
	Country   string    `gorm:"size:2" json:"country"`
	VATNumber string    `gorm:"size:32" json:"vat_number"`
	Internal  bool      `gorm:"default:false;index" json:"internal"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Company model.
func (Company) TableName() string {
	return "companies"
}
