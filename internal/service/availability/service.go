// Package availability tags calendar days with presence information and
// computes who has slack for internal work.
package availability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/laurensOost/925r/internal/models"
	"github.com/laurensOost/925r/internal/redmine"
	"github.com/laurensOost/925r/internal/repository"
	"github.com/laurensOost/925r/internal/service/calculation"
	"github.com/laurensOost/925r/pkg/logger"
)

// Availability tags.
const (
	TagWeekend    = "weekend"
	TagHoliday    = "holiday"
	TagLeave      = "leave"
	TagSickness   = "sickness"
	TagWhereabout = "whereabout"
	TagScheduled  = "scheduled"
	TagNoInternal = "not_available_for_internal_work"
	TagFreeHours  = "free_hours_available"
)

// RangeResolver interface for day detail lookups.
type RangeResolver interface {
	GetRangeInfo(ctx context.Context, userIDs []uint, from, until time.Time, opts calculation.Options) (map[uint]*calculation.RangeInfo, error)
}

// WhereaboutRepository interface for whereabout lookups.
type WhereaboutRepository interface {
	FindForUserInRange(userID uint, from, until time.Time) ([]models.Whereabout, error)
}

// UserRepository interface for identity lookups.
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	GetInfo(userID uint) (*models.UserInfo, error)
}

// DayAvailability is the tagged view of one user day.
type DayAvailability struct {
	Date        time.Time           `json:"date"`
	Tags        []string            `json:"tags"`
	LeaveDates  []models.LeaveDate  `json:"leave_dates,omitempty"`
	Whereabouts []models.Whereabout `json:"whereabouts,omitempty"`
}

// ColoredIssue pairs an open Redmine issue with its freshness color.
type ColoredIssue struct {
	Issue redmine.Issue `json:"issue"`
	Color string        `json:"color"`
}

// InternalAvailability reports a user's slack for internal work on one day.
type InternalAvailability struct {
	Date           time.Time       `json:"date"`
	WorkHours      decimal.Decimal `json:"work_hours"`
	ScheduledHours decimal.Decimal `json:"scheduled_hours"`
	FreeHours      decimal.Decimal `json:"free_hours"`
	Issues         []ColoredIssue  `json:"issues,omitempty"`
}

// Service computes availability views.
type Service struct {
	resolver       RangeResolver
	whereaboutRepo WhereaboutRepository
	userRepo       UserRepository
	redmine        redmine.API
	policy         IssueColorPolicy
	log            *logger.Logger
}

// NewService creates a new availability service with the default color policy.
func NewService(
	resolver *calculation.Service,
	whereaboutRepo *repository.WhereaboutRepository,
	userRepo *repository.UserRepository,
	redmineAPI redmine.API,
	log *logger.Logger,
) *Service {
	return NewServiceWithInterfaces(resolver, whereaboutRepo, userRepo, redmineAPI, &RecencyPolicy{}, log)
}

// NewServiceWithInterfaces creates a new availability service with interface
// dependencies (useful for testing, or to swap the color policy).
func NewServiceWithInterfaces(
	resolver RangeResolver,
	whereaboutRepo WhereaboutRepository,
	userRepo UserRepository,
	redmineAPI redmine.API,
	policy IssueColorPolicy,
	log *logger.Logger,
) *Service {
	return &Service{
		resolver:       resolver,
		whereaboutRepo: whereaboutRepo,
		userRepo:       userRepo,
		redmine:        redmineAPI,
		policy:         policy,
		log:            log,
	}
}

// GetAvailabilityInfo tags every day in [from, until] for each user. The
// result is keyed by user ID, then ISO date.
func (s *Service) GetAvailabilityInfo(ctx context.Context, userIDs []uint, from, until time.Time) (map[uint]map[string]*DayAvailability, error) {
	from, until = models.DateOf(from), models.DateOf(until)

	infos, err := s.resolver.GetRangeInfo(ctx, userIDs, from, until, calculation.Options{Detailed: true})
	if err != nil {
		return nil, err
	}

	result := make(map[uint]map[string]*DayAvailability, len(userIDs))
	for _, userID := range userIDs {
		whereabouts, err := s.whereaboutRepo.FindForUserInRange(userID, from, until)
		if err != nil {
			return nil, fmt.Errorf("failed to load whereabouts for user %d: %w", userID, err)
		}
		whereaboutsByDate := make(map[string][]models.Whereabout)
		for _, whereabout := range whereabouts {
			key := models.DateOf(whereabout.StartsAt).Format(models.ISODate)
			whereaboutsByDate[key] = append(whereaboutsByDate[key], whereabout)
		}

		days := make(map[string]*DayAvailability)
		info := infos[userID]
		for key, detail := range info.Details {
			days[key] = tagDay(detail, whereaboutsByDate[key])
		}
		result[userID] = days
	}
	return result, nil
}

// tagDay derives the availability tags for one resolved day.
func tagDay(detail *calculation.DayDetail, whereabouts []models.Whereabout) *DayAvailability {
	day := &DayAvailability{Date: detail.Date, Whereabouts: whereabouts}

	if weekday := detail.Date.Weekday(); weekday == time.Saturday || weekday == time.Sunday {
		day.Tags = append(day.Tags, TagWeekend)
	}
	// Keyed off the holiday records, not the hours: a holiday on a day with
	// no work obligation still shows up.
	if len(detail.Holidays) > 0 {
		day.Tags = append(day.Tags, TagHoliday)
	}

	sick := false
	for i := range detail.LeaveDates {
		if detail.LeaveDates[i].Leave.LeaveType.Sickness {
			sick = true
		}
	}
	if len(detail.LeaveDates) > 0 {
		day.Tags = append(day.Tags, TagLeave)
		day.LeaveDates = detail.LeaveDates
	}
	if sick {
		day.Tags = append(day.Tags, TagSickness)
	}
	if len(whereabouts) > 0 {
		day.Tags = append(day.Tags, TagWhereabout)
	}

	if detail.ScheduledHours.IsPositive() {
		day.Tags = append(day.Tags, TagScheduled)
		if detail.WorkHours.IsPositive() && detail.ScheduledHours.GreaterThanOrEqual(detail.WorkHours) {
			day.Tags = append(day.Tags, TagNoInternal)
		}
	}
	if detail.WorkHours.Sub(detail.ScheduledHours).GreaterThanOrEqual(decimal.NewFromInt(1)) {
		day.Tags = append(day.Tags, TagFreeHours)
	}
	return day
}

// GetInternalAvailabilityInfo computes each user's slack for internal work on
// a single day. For users with at least one free hour on a current or future
// day, their open Redmine issues are fetched and colored. Connector failures
// degrade to an empty issue list.
func (s *Service) GetInternalAvailabilityInfo(ctx context.Context, userIDs []uint, date time.Time) (map[uint]*InternalAvailability, error) {
	date = models.DateOf(date)

	infos, err := s.resolver.GetRangeInfo(ctx, userIDs, date, date, calculation.Options{Daily: true})
	if err != nil {
		return nil, err
	}

	key := date.Format(models.ISODate)
	result := make(map[uint]*InternalAvailability, len(userIDs))
	for _, userID := range userIDs {
		detail := infos[userID].Details[key]

		free := detail.WorkHours.Sub(detail.ScheduledHours)
		if free.IsNegative() {
			free = decimal.Zero
		}

		entry := &InternalAvailability{
			Date:           date,
			WorkHours:      detail.WorkHours,
			ScheduledHours: detail.ScheduledHours,
			FreeHours:      free,
		}
		result[userID] = entry

		if free.LessThan(decimal.NewFromInt(1)) || date.Before(models.DateOf(time.Now())) {
			continue
		}
		entry.Issues = s.coloredIssues(ctx, userID, date)
	}
	return result, nil
}

// coloredIssues fetches and colors a user's open issues. Failures are logged
// and yield an empty list so report generation keeps going.
func (s *Service) coloredIssues(ctx context.Context, userID uint, date time.Time) []ColoredIssue {
	redmineID, err := s.resolveRedmineID(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Uint("user_id", userID).Msg("Failed to resolve Redmine identity")
		return nil
	}
	if redmineID == 0 {
		return nil
	}

	issues, err := s.redmine.ListAssignedIssues(ctx, redmineID)
	if err != nil {
		s.log.Warn().Err(err).Uint("user_id", userID).Msg("Failed to list assigned Redmine issues")
		return nil
	}

	colored := make([]ColoredIssue, 0, len(issues))
	for i := range issues {
		colored = append(colored, ColoredIssue{Issue: issues[i], Color: s.policy.Color(&issues[i], date)})
	}
	return colored
}

// resolveRedmineID returns the user's Redmine account ID, preferring the
// stored mapping over a login lookup. Zero means no identity.
func (s *Service) resolveRedmineID(ctx context.Context, userID uint) (int, error) {
	info, err := s.userRepo.GetInfo(userID)
	if err != nil {
		return 0, err
	}
	if info != nil && info.RedmineID != "" {
		id, err := strconv.Atoi(info.RedmineID)
		if err != nil {
			return 0, fmt.Errorf("invalid stored redmine id %q: %w", info.RedmineID, err)
		}
		return id, nil
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return 0, err
	}
	remote, err := s.redmine.FindUserByLogin(ctx, user.Username)
	if err != nil || remote == nil {
		return 0, err
	}
	return remote.ID, nil
}
