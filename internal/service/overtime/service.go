// Package overtime maintains the month-over-month overtime balance fold.
package overtime

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/laurensOost/925r/internal/models"
	"github.com/laurensOost/925r/internal/repository"
	"github.com/laurensOost/925r/internal/service/calculation"
	"github.com/laurensOost/925r/pkg/logger"
)

// RangeResolver interface for monthly aggregate lookups.
type RangeResolver interface {
	GetRangeInfo(ctx context.Context, userIDs []uint, from, until time.Time, opts calculation.Options) (map[uint]*calculation.RangeInfo, error)
}

// EmploymentContractRepository interface for epoch resolution.
type EmploymentContractRepository interface {
	EarliestStartForUser(userID uint) (time.Time, error)
}

// MonthlyOvertime is one month's entry in the overtime series.
type MonthlyOvertime struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`

	OvertimeHours          decimal.Decimal `json:"overtime_hours"`
	RemainingHours         decimal.Decimal `json:"remaining_hours"`
	UsedOvertimeHours      decimal.Decimal `json:"used_overtime_hours"`
	RemainingOvertimeHours decimal.Decimal `json:"remaining_overtime_hours"`
}

// Service computes running overtime balances. The balance is a pure fold over
// monthly range aggregates; nothing is persisted.
type Service struct {
	resolver       RangeResolver
	employmentRepo EmploymentContractRepository
	log            *logger.Logger
}

// NewService creates a new overtime service.
func NewService(resolver *calculation.Service, employmentRepo *repository.EmploymentContractRepository, log *logger.Logger) *Service {
	return NewServiceWithInterfaces(resolver, employmentRepo, log)
}

// NewServiceWithInterfaces creates a new overtime service with interface
// dependencies (useful for testing).
func NewServiceWithInterfaces(resolver RangeResolver, employmentRepo EmploymentContractRepository, log *logger.Logger) *Service {
	return &Service{resolver: resolver, employmentRepo: employmentRepo, log: log}
}

// GetOvertimeSeries walks the months in [from, until] in ascending order and
// folds the running balance. A zero `from` is resolved to the user's first
// employment contract start, the only epoch for which the fold is stable.
func (s *Service) GetOvertimeSeries(ctx context.Context, userID uint, from, until time.Time) ([]MonthlyOvertime, error) {
	if from.IsZero() {
		epoch, err := s.employmentRepo.EarliestStartForUser(userID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve overtime epoch: %w", err)
		}
		if epoch.IsZero() {
			return nil, nil
		}
		from = epoch
	}
	from, until = models.DateOf(from), models.DateOf(until)
	if until.Before(from) {
		return nil, fmt.Errorf("invalid range: until %s before from %s", until.Format(models.ISODate), from.Format(models.ISODate))
	}

	var series []MonthlyOvertime
	balance := decimal.Zero

	cursor := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cursor.After(until) {
		monthStart, monthEnd := models.MonthRange(cursor.Year(), cursor.Month())

		infos, err := s.resolver.GetRangeInfo(ctx, []uint{userID}, monthStart, monthEnd, calculation.Options{})
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate %s: %w", cursor.Format("2006-01"), err)
		}
		info := infos[userID]
		if info == nil {
			info = &calculation.RangeInfo{}
		}

		balance = balance.Add(info.OvertimeHours).Sub(info.RemainingHours).Sub(info.UsedOvertimeHours)

		series = append(series, MonthlyOvertime{
			Year:                   cursor.Year(),
			Month:                  cursor.Month(),
			OvertimeHours:          info.OvertimeHours,
			RemainingHours:         info.RemainingHours,
			UsedOvertimeHours:      info.UsedOvertimeHours,
			RemainingOvertimeHours: balance,
		})

		cursor = cursor.AddDate(0, 1, 0)
	}

	s.log.Debug().
		Uint("user_id", userID).
		Int("months", len(series)).
		Msg("Computed overtime series")

	return series, nil
}
