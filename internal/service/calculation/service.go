// Package calculation resolves contracts, schedules, holidays, leave and
// performances into per-day and per-range work hour aggregates.
package calculation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	prommetrics "github.com/laurensOost/925r/internal/metrics"
	"github.com/laurensOost/925r/internal/models"
	"github.com/laurensOost/925r/internal/repository"
	"github.com/laurensOost/925r/pkg/logger"
)

// EmploymentContractRepository interface for employment contract lookups.
type EmploymentContractRepository interface {
	FindForUsersInRange(userIDs []uint, from, until time.Time) (map[uint][]models.EmploymentContract, error)
}

// ContractRepository interface for contract schedule lookups.
type ContractRepository interface {
	FindContractUserWorkSchedules(userIDs []uint, from, until time.Time) (map[uint][]models.ContractUserWorkSchedule, error)
}

// HolidayRepository interface for holiday calendar lookups.
type HolidayRepository interface {
	FindInRange(country string, from, until time.Time) (map[string][]models.Holiday, error)
}

// LeaveRepository interface for approved leave lookups.
type LeaveRepository interface {
	FindApprovedLeaveDates(userIDs []uint, from, until time.Time) (map[uint][]models.LeaveDate, error)
}

// PerformanceRepository interface for performance lookups.
type PerformanceRepository interface {
	FindForUsersInRange(userIDs []uint, from, until time.Time) (map[uint][]models.Performance, error)
}

// Service computes day details and range aggregates. All read paths are
// stateless; every call reloads from the repositories.
type Service struct {
	employmentRepo  EmploymentContractRepository
	contractRepo    ContractRepository
	holidayRepo     HolidayRepository
	leaveRepo       LeaveRepository
	performanceRepo PerformanceRepository
	workers         int
	log             *logger.Logger
}

// NewService creates a new calculation service.
func NewService(
	employmentRepo *repository.EmploymentContractRepository,
	contractRepo *repository.ContractRepository,
	holidayRepo *repository.HolidayRepository,
	leaveRepo *repository.LeaveRepository,
	performanceRepo *repository.PerformanceRepository,
	workers int,
	log *logger.Logger,
) *Service {
	return NewServiceWithInterfaces(employmentRepo, contractRepo, holidayRepo, leaveRepo, performanceRepo, workers, log)
}

// NewServiceWithInterfaces creates a new calculation service with interface
// dependencies (useful for testing).
func NewServiceWithInterfaces(
	employmentRepo EmploymentContractRepository,
	contractRepo ContractRepository,
	holidayRepo HolidayRepository,
	leaveRepo LeaveRepository,
	performanceRepo PerformanceRepository,
	workers int,
	log *logger.Logger,
) *Service {
	if workers <= 0 {
		workers = 8
	}
	return &Service{
		employmentRepo:  employmentRepo,
		contractRepo:    contractRepo,
		holidayRepo:     holidayRepo,
		leaveRepo:       leaveRepo,
		performanceRepo: performanceRepo,
		workers:         workers,
		log:             log,
	}
}

// userData is the preloaded slice of store contents one user's day resolution
// reads from.
type userData struct {
	contracts    []models.EmploymentContract
	schedules    []models.ContractUserWorkSchedule
	leaveDates   []models.LeaveDate
	performances []models.Performance
	// holidays is keyed by country, then ISO date.
	holidays map[string]map[string][]models.Holiday
}

// ResolveDay computes the day detail for a single user and date.
func (s *Service) ResolveDay(ctx context.Context, userID uint, date time.Time) (*DayDetail, error) {
	date = models.DateOf(date)

	infos, err := s.GetRangeInfo(ctx, []uint{userID}, date, date, Options{Daily: true})
	if err != nil {
		return nil, err
	}

	info := infos[userID]
	if info == nil {
		return nil, fmt.Errorf("no range info computed for user %d", userID)
	}
	return info.Details[date.Format(models.ISODate)], nil
}

// GetRangeInfo computes per-user aggregates over [from, until] inclusive.
// Users are resolved concurrently with a bounded worker pool; days within a
// user stay sequential.
func (s *Service) GetRangeInfo(ctx context.Context, userIDs []uint, from, until time.Time, opts Options) (map[uint]*RangeInfo, error) {
	start := time.Now()
	from, until = models.DateOf(from), models.DateOf(until)

	if until.Before(from) {
		return nil, fmt.Errorf("invalid range: until %s before from %s", until.Format(models.ISODate), from.Format(models.ISODate))
	}
	if opts.Detailed {
		opts.Daily = true
	}

	data, err := s.loadRange(userIDs, from, until)
	if err != nil {
		prommetrics.RangeQueriesTotal.WithLabelValues("range_info", "error").Inc()
		return nil, err
	}

	result := make(map[uint]*RangeInfo, len(userIDs))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.workers)

	for _, userID := range userIDs {
		wg.Add(1)
		sem <- struct{}{}
		go func(userID uint) {
			defer wg.Done()
			defer func() { <-sem }()

			info := s.aggregateUser(data[userID], from, until, opts)
			mu.Lock()
			result[userID] = info
			mu.Unlock()
		}(userID)
	}
	wg.Wait()

	prommetrics.RangeQueriesTotal.WithLabelValues("range_info", "ok").Inc()
	prommetrics.RangeQueryDurationSeconds.WithLabelValues("range_info").Observe(time.Since(start).Seconds())

	s.log.Debug().
		Int("users", len(userIDs)).
		Str("from", from.Format(models.ISODate)).
		Str("until", until.Format(models.ISODate)).
		Msg("Computed range info")

	return result, nil
}

// loadRange batch-loads everything the day resolution needs for all users.
func (s *Service) loadRange(userIDs []uint, from, until time.Time) (map[uint]*userData, error) {
	contracts, err := s.employmentRepo.FindForUsersInRange(userIDs, from, until)
	if err != nil {
		return nil, fmt.Errorf("failed to load employment contracts: %w", err)
	}
	schedules, err := s.contractRepo.FindContractUserWorkSchedules(userIDs, from, until)
	if err != nil {
		return nil, fmt.Errorf("failed to load work schedule overrides: %w", err)
	}
	leaveDates, err := s.leaveRepo.FindApprovedLeaveDates(userIDs, from, until)
	if err != nil {
		return nil, fmt.Errorf("failed to load leave dates: %w", err)
	}
	performances, err := s.performanceRepo.FindForUsersInRange(userIDs, from, until)
	if err != nil {
		return nil, fmt.Errorf("failed to load performances: %w", err)
	}

	// Holiday calendars are per country; load each country once.
	holidays := make(map[string]map[string][]models.Holiday)
	for _, userContracts := range contracts {
		for _, contract := range userContracts {
			country := contract.Company.Country
			if country == "" {
				continue
			}
			if _, loaded := holidays[country]; loaded {
				continue
			}
			countryHolidays, err := s.holidayRepo.FindInRange(country, from, until)
			if err != nil {
				return nil, fmt.Errorf("failed to load holidays for %s: %w", country, err)
			}
			holidays[country] = countryHolidays
		}
	}

	data := make(map[uint]*userData, len(userIDs))
	for _, userID := range userIDs {
		data[userID] = &userData{
			contracts:    contracts[userID],
			schedules:    schedules[userID],
			leaveDates:   leaveDates[userID],
			performances: performances[userID],
			holidays:     holidays,
		}
	}
	return data, nil
}

// aggregateUser folds the day details over the range into a RangeInfo.
func (s *Service) aggregateUser(data *userData, from, until time.Time, opts Options) *RangeInfo {
	info := &RangeInfo{}
	if opts.Daily {
		info.Details = make(map[string]*DayDetail)
	}

	for date := from; !date.After(until); date = date.AddDate(0, 0, 1) {
		detail := resolveDay(data, date, opts.Detailed)

		info.WorkHours = info.WorkHours.Add(detail.WorkHours)
		info.HolidayHours = info.HolidayHours.Add(detail.HolidayHours)
		info.LeaveHours = info.LeaveHours.Add(detail.LeaveHours)
		info.PerformedHours = info.PerformedHours.Add(detail.PerformedHours)
		info.OvertimeHours = info.OvertimeHours.Add(detail.OvertimeHours)
		info.RemainingHours = info.RemainingHours.Add(detail.RemainingHours)
		info.UsedOvertimeHours = info.UsedOvertimeHours.Add(detail.UsedOvertimeHours)
		info.StandbyDays += detail.StandbyDays

		if opts.Daily {
			info.Details[date.Format(models.ISODate)] = detail
		}
	}

	if opts.Summary {
		info.Summary = summarize(data.performances)
	}
	return info
}

// resolveDay computes one day's detail from preloaded data.
func resolveDay(data *userData, date time.Time, detailed bool) *DayDetail {
	detail := &DayDetail{Date: date}
	if data == nil {
		return detail
	}

	// Expected hours come from the employment contract active on the date.
	var country string
	for i := range data.contracts {
		contract := &data.contracts[i]
		if !contract.CoversDate(date) {
			continue
		}
		detail.WorkHours = contract.WorkSchedule.HoursOn(date.Weekday())
		country = contract.Company.Country
		break
	}

	// Per-contract schedule overrides answer the commitment question; they do
	// not replace the employment obligation.
	for i := range data.schedules {
		schedule := &data.schedules[i]
		if !schedule.CoversDate(date) {
			continue
		}
		detail.ScheduledHours = detail.ScheduledHours.Add(schedule.HoursOn(date.Weekday()))
	}

	// A matching holiday waives the day's obligation without zeroing it.
	if country != "" {
		if holidays := data.holidays[country][date.Format(models.ISODate)]; len(holidays) > 0 {
			detail.HolidayHours = detail.WorkHours
			if detailed {
				detail.Holidays = holidays
			}
		}
	}

	for i := range data.leaveDates {
		leaveDate := &data.leaveDates[i]
		if !models.SameDate(leaveDate.StartsAt, date) {
			continue
		}
		if leaveDate.Leave.LeaveType.Overtime {
			detail.UsedOvertimeHours = detail.UsedOvertimeHours.Add(leaveDate.Duration())
		} else {
			detail.LeaveHours = detail.LeaveHours.Add(leaveDate.Duration())
		}
		if detailed {
			detail.LeaveDates = append(detail.LeaveDates, *leaveDate)
		}
	}

	for i := range data.performances {
		performance := &data.performances[i]
		if !models.SameDate(performance.Date, date) {
			continue
		}
		if performance.IsActivity() {
			detail.PerformedHours = detail.PerformedHours.Add(performance.NormalizedDuration())
		} else {
			detail.StandbyDays++
		}
		if detailed {
			detail.Performances = append(detail.Performances, *performance)
		}
	}

	// Deficits never show at the day level; the month fold accounts for them.
	owed := detail.WorkHours.Sub(detail.HolidayHours).Sub(detail.LeaveHours)
	if owed.IsNegative() {
		owed = decimal.Zero
	}
	detail.RemainingHours = owed.Sub(detail.PerformedHours)
	if detail.RemainingHours.IsNegative() {
		detail.RemainingHours = decimal.Zero
	}
	detail.OvertimeHours = detail.PerformedHours.Sub(owed)
	if detail.OvertimeHours.IsNegative() {
		detail.OvertimeHours = decimal.Zero
	}
	return detail
}

// summarize groups a range's performances by contract.
func summarize(performances []models.Performance) *Summary {
	byContract := make(map[uint]*ContractPerformance)
	for i := range performances {
		performance := &performances[i]
		if performance.ContractID == nil {
			continue
		}

		row, ok := byContract[*performance.ContractID]
		if !ok {
			row = &ContractPerformance{ContractID: *performance.ContractID}
			if performance.Contract != nil {
				row.ContractName = performance.Contract.Name
				row.ContractKind = performance.Contract.Kind
			}
			byContract[*performance.ContractID] = row
		}

		if performance.IsActivity() {
			row.Duration = row.Duration.Add(performance.NormalizedDuration())
		} else {
			row.StandbyDays++
		}
	}

	summary := &Summary{Performances: make([]ContractPerformance, 0, len(byContract))}
	for _, row := range byContract {
		summary.Performances = append(summary.Performances, *row)
	}
	sort.Slice(summary.Performances, func(i, j int) bool {
		return summary.Performances[i].ContractID < summary.Performances[j].ContractID
	})
	return summary
}
