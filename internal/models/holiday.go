package models

import (
	"time"
)

// Holiday is a public holiday for a country on a single calendar date.
type Holiday struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;size:255;uniqueIndex:idx_holiday,priority:1" json:"name"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:idx_holiday,priority:2" json:"date"`
	Country   string    `gorm:"size:2;not null;uniqueIndex:idx_holiday,priority:3" json:"country"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Holiday model.
func (Holiday) TableName() string {
	return "holidays"
}
