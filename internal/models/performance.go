package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PerformanceKind discriminates the performance variants.
const (
	PerformanceKindActivity = "activity"
	PerformanceKindStandby  = "standby"
)

// Performance records work done on a single date, attached to the timesheet of
// the matching month. Activity performances carry a duration scaled by their
// performance type multiplier; standby performances count as standby days.
// Kind-specific fields are nullable and only meaningful for the matching kind.
type Performance struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Kind        string    `gorm:"size:16;not null;index" json:"kind"`
	TimesheetID uint      `gorm:"not null;index" json:"timesheet_id"`
	Timesheet   Timesheet `gorm:"foreignKey:TimesheetID" json:"timesheet,omitempty"`
	Date        time.Time `gorm:"type:date;not null;index" json:"date"`
	ContractID  *uint     `gorm:"index" json:"contract_id"`
	Contract    *Contract `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
	RedmineID   string    `gorm:"size:255;index" json:"redmine_id"`

	// Activity performances.
	PerformanceTypeID *uint            `json:"performance_type_id,omitempty"`
	PerformanceType   *PerformanceType `gorm:"foreignKey:PerformanceTypeID" json:"performance_type,omitempty"`
	ContractRoleID    *uint            `json:"contract_role_id,omitempty"`
	ContractRole      *ContractRole    `gorm:"foreignKey:ContractRoleID" json:"contract_role,omitempty"`
	Description       string           `gorm:"type:text" json:"description"`
	Duration          *decimal.Decimal `gorm:"type:decimal(4,2)" json:"duration,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Performance model.
func (Performance) TableName() string {
	return "performances"
}

// IsActivity reports whether this is an activity performance.
func (p *Performance) IsActivity() bool {
	return p.Kind == PerformanceKindActivity
}

// NormalizedDuration returns the duration scaled by the performance type
// multiplier. Standby performances have no duration and return zero.
func (p *Performance) NormalizedDuration() decimal.Decimal {
	if p.Kind != PerformanceKindActivity || p.Duration == nil {
		return decimal.Zero
	}
	multiplier := decimal.NewFromInt(1)
	if p.PerformanceType != nil {
		multiplier = p.PerformanceType.Multiplier
	}
	return p.Duration.Mul(multiplier).Round(2)
}
