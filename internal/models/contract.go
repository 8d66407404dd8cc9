package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContractKind discriminates the contract variants.
const (
	ContractKindProject     = "project"
	ContractKindConsultancy = "consultancy"
	ContractKindSupport     = "support"
)

// Fixed fee period constants for support contracts.
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

// Contract is a billable agreement between an internal company and a
// customer. Kind-specific fields are nullable and only meaningful for the
// matching kind; consumers dispatch on Kind.
type Contract struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Kind       string     `gorm:"size:16;not null;index" json:"kind"`
	Name       string     `gorm:"not null;size:255" json:"name"`
	CustomerID uint       `gorm:"not null;index" json:"customer_id"`
	Customer   Company    `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	CompanyID  uint       `gorm:"not null;index" json:"company_id"`
	Company    Company    `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	StartsAt   time.Time  `gorm:"type:date;not null" json:"starts_at"`
	EndsAt     *time.Time `gorm:"type:date" json:"ends_at"`
	Active     bool       `gorm:"default:true;index" json:"active"`
	RedmineID  string     `gorm:"size:255;index" json:"redmine_id"`

	// Project contracts.
	FixedFee *decimal.Decimal `gorm:"type:decimal(9,2)" json:"fixed_fee,omitempty"`
	// Consultancy contracts: allotted duration in hours.
	Duration *decimal.Decimal `gorm:"type:decimal(6,2)" json:"duration,omitempty"`
	// Consultancy and support contracts.
	DayRate *decimal.Decimal `gorm:"type:decimal(6,2)" json:"day_rate,omitempty"`
	// Support contracts.
	FixedFeePeriod *string `gorm:"size:10" json:"fixed_fee_period,omitempty"`

	PerformanceTypes []PerformanceType `gorm:"many2many:contract_performance_types" json:"performance_types,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// TableName specifies the table name for Contract model.
func (Contract) TableName() string {
	return "contracts"
}

// IsSupport reports whether this is a support (standby-eligible) contract.
func (c *Contract) IsSupport() bool {
	return c.Kind == ContractKindSupport
}

// ContractRole names the role a user fulfils on a contract.
type ContractRole struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null;size:255" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for ContractRole model.
func (ContractRole) TableName() string {
	return "contract_roles"
}

// ContractUser assigns a user to a contract with a role.
type ContractUser struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	UserID         uint         `gorm:"not null;index;uniqueIndex:idx_contract_user_role,priority:1" json:"user_id"`
	User           User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ContractID     uint         `gorm:"not null;index;uniqueIndex:idx_contract_user_role,priority:2" json:"contract_id"`
	Contract       Contract     `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
	ContractRoleID uint         `gorm:"not null;uniqueIndex:idx_contract_user_role,priority:3" json:"contract_role_id"`
	ContractRole   ContractRole `gorm:"foreignKey:ContractRoleID" json:"contract_role,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// TableName specifies the table name for ContractUser model.
func (ContractUser) TableName() string {
	return "contract_users"
}

// PerformanceType scales logged durations, e.g. 100% normal, 150% overtime.
type PerformanceType struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"not null;size:255" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Multiplier  decimal.Decimal `gorm:"type:decimal(4,2);default:1" json:"multiplier"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName specifies the table name for PerformanceType model.
func (PerformanceType) TableName() string {
	return "performance_types"
}
