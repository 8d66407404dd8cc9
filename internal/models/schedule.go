package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WeekdayHours holds expected hours per weekday, each in [0, 24].
// Embedded by WorkSchedule and ContractUserWorkSchedule.
type WeekdayHours struct {
	Monday    decimal.Decimal `gorm:"type:decimal(4,2);default:0" json:"monday"`
	Tuesday   decimal.Decimal `gorm:"type:decimal(4,2);default:0" json:"tuesday"`
	Wednesday decimal.Decimal `gorm:"type:decimal(4,2);default:0" json:"wednesday"`
	Thursday  decimal.Decimal `gorm:"type:decimal(4,2);default:0" json:"thursday"`
	Friday    decimal.Decimal `gorm:"type:decimal(4,2);default:0" json:"friday"`
	Saturday  decimal.Decimal `gorm:"type:decimal(4,2);default:0" json:"saturday"`
	Sunday    decimal.Decimal `gorm:"type:decimal(4,2);default:0" json:"sunday"`
}

// HoursOn returns the expected hours for a weekday.
func (w WeekdayHours) HoursOn(day time.Weekday) decimal.Decimal {
	switch day {
	case time.Monday:
		return w.Monday
	case time.Tuesday:
		return w.Tuesday
	case time.Wednesday:
		return w.Wednesday
	case time.Thursday:
		return w.Thursday
	case time.Friday:
		return w.Friday
	case time.Saturday:
		return w.Saturday
	default:
		return w.Sunday
	}
}

// WorkSchedule is a named template of expected hours per weekday. It carries
// no validity interval of its own; it is scoped by the employment contract or
// contract user work schedule that references it.
type WorkSchedule struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"uniqueIndex;not null;size:255" json:"name"`
	WeekdayHours `gorm:"embedded"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for WorkSchedule model.
func (WorkSchedule) TableName() string {
	return "work_schedules"
}

// EmploymentContract binds a user to an internal company and a work schedule
// for a validity interval. The end date is nil for ongoing contracts.
type EmploymentContract struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	UserID         uint         `gorm:"not null;index" json:"user_id"`
	User           User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CompanyID      uint         `gorm:"not null;index" json:"company_id"`
	Company        Company      `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	WorkScheduleID uint         `gorm:"not null" json:"work_schedule_id"`
	WorkSchedule   WorkSchedule `gorm:"foreignKey:WorkScheduleID" json:"work_schedule,omitempty"`
	StartedAt      time.Time    `gorm:"type:date;not null" json:"started_at"`
	EndedAt        *time.Time   `gorm:"type:date" json:"ended_at"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// TableName specifies the table name for EmploymentContract model.
func (EmploymentContract) TableName() string {
	return "employment_contracts"
}

// CoversDate reports whether the contract is active on the given date.
func (ec *EmploymentContract) CoversDate(date time.Time) bool {
	date = DateOf(date)
	if DateOf(ec.StartedAt).After(date) {
		return false
	}
	return ec.EndedAt == nil || !DateOf(*ec.EndedAt).Before(date)
}

// ContractUserWorkSchedule overrides the expected per-weekday hours for one
// contract assignment during a validity interval.
type ContractUserWorkSchedule struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	ContractUserID uint         `gorm:"not null;index" json:"contract_user_id"`
	ContractUser   ContractUser `gorm:"foreignKey:ContractUserID" json:"contract_user,omitempty"`
	StartsAt       time.Time    `gorm:"type:date;not null" json:"starts_at"`
	EndsAt         *time.Time   `gorm:"type:date" json:"ends_at"`
	WeekdayHours   `gorm:"embedded"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for ContractUserWorkSchedule model.
func (ContractUserWorkSchedule) TableName() string {
	return "contract_user_work_schedules"
}

// CoversDate reports whether the schedule override applies on the given date.
func (s *ContractUserWorkSchedule) CoversDate(date time.Time) bool {
	date = DateOf(date)
	if DateOf(s.StartsAt).After(date) {
		return false
	}
	return s.EndsAt == nil || !DateOf(*s.EndsAt).Before(date)
}
