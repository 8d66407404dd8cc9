// Package reconciler attributes Redmine time entries to internal contracts
// and turns them into performance records.
package reconciler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	prommetrics "github.com/laurensOost/925r/internal/metrics"
	"github.com/laurensOost/925r/internal/models"
	"github.com/laurensOost/925r/internal/redmine"
	"github.com/laurensOost/925r/internal/repository"
	"github.com/laurensOost/925r/pkg/logger"
)

// UserRepository interface for identity lookups and mapping persistence.
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	GetInfo(userID uint) (*models.UserInfo, error)
	SaveInfo(info *models.UserInfo) error
}

// ContractRepository interface for contract attribution lookups.
type ContractRepository interface {
	RedmineMapping(userID uint) (map[string]uint, map[uint]bool, error)
}

// PerformanceRepository interface for import persistence and deduplication.
type PerformanceRepository interface {
	FindByRedmineIDs(userID uint, redmineIDs []string) (map[string]uint, error)
	Create(performance *models.Performance) error
	Update(performance *models.Performance) error
}

// TimesheetRepository interface for timesheet provisioning during import.
type TimesheetRepository interface {
	EnsureForMonth(userID uint, year, month int) (*models.Timesheet, error)
}

// PerformanceCandidate is an attributed, deduplicated external time entry.
// ID is the existing performance row to update, or zero for a new one.
type PerformanceCandidate struct {
	ID          uint            `json:"id"`
	ContractID  uint            `json:"contract_id"`
	RedmineID   string          `json:"redmine_id"`
	Date        time.Time       `json:"date"`
	Duration    decimal.Decimal `json:"duration"`
	Description string          `json:"description"`
}

// Service reconciles external time entries against internal contracts.
type Service struct {
	userRepo        UserRepository
	contractRepo    ContractRepository
	performanceRepo PerformanceRepository
	timesheetRepo   TimesheetRepository
	redmine         redmine.API
	log             *logger.Logger
}

// NewService creates a new reconciler service.
func NewService(
	userRepo *repository.UserRepository,
	contractRepo *repository.ContractRepository,
	performanceRepo *repository.PerformanceRepository,
	timesheetRepo *repository.TimesheetRepository,
	redmineAPI redmine.API,
	log *logger.Logger,
) *Service {
	return NewServiceWithInterfaces(userRepo, contractRepo, performanceRepo, timesheetRepo, redmineAPI, log)
}

// NewServiceWithInterfaces creates a new reconciler service with interface
// dependencies (useful for testing).
func NewServiceWithInterfaces(
	userRepo UserRepository,
	contractRepo ContractRepository,
	performanceRepo PerformanceRepository,
	timesheetRepo TimesheetRepository,
	redmineAPI redmine.API,
	log *logger.Logger,
) *Service {
	return &Service{
		userRepo:        userRepo,
		contractRepo:    contractRepo,
		performanceRepo: performanceRepo,
		timesheetRepo:   timesheetRepo,
		redmine:         redmineAPI,
		log:             log,
	}
}

// GetUserExternalPerformances fetches a user's Redmine time entries in the
// range, attributes each to one of the user's contracts, and deduplicates
// against already-imported performances. Unattributable entries are dropped
// and logged, never failing the batch.
func (s *Service) GetUserExternalPerformances(ctx context.Context, userID uint, from, until time.Time) ([]PerformanceCandidate, error) {
	if !s.redmine.Configured() {
		s.log.Debug().Msg("Redmine is not configured, skipping external performances")
		return nil, nil
	}

	redmineUserID, err := s.resolveIdentity(ctx, userID)
	if err != nil {
		return nil, err
	}
	if redmineUserID == 0 {
		s.log.Debug().Uint("user_id", userID).Msg("User has no Redmine identity")
		return nil, nil
	}

	entries, err := s.redmine.ListTimeEntries(ctx, redmineUserID, from, until)
	if err != nil {
		return nil, fmt.Errorf("failed to list time entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	projectMap, contractSet, err := s.contractRepo.RedmineMapping(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract mapping: %w", err)
	}

	issueIndex, err := s.fetchIssueClosure(ctx, entries)
	if err != nil {
		return nil, err
	}

	candidates := make([]PerformanceCandidate, 0, len(entries))
	redmineIDs := make([]string, 0, len(entries))
	for i := range entries {
		entry := &entries[i]

		contractID := s.attribute(entry, issueIndex, projectMap, contractSet)
		if contractID == 0 {
			prommetrics.RedmineEntriesSkippedTotal.WithLabelValues("unattributable").Inc()
			s.log.Warn().
				Uint("user_id", userID).
				Int("time_entry_id", entry.ID).
				Int("project_id", entry.Project.ID).
				Msg("Dropping time entry without contract attribution")
			continue
		}

		externalID := strconv.Itoa(entry.ID)
		candidates = append(candidates, PerformanceCandidate{
			ContractID:  contractID,
			RedmineID:   externalID,
			Date:        models.DateOf(entry.SpentOn.Time),
			Duration:    decimal.NewFromFloat(entry.Hours).Round(2),
			Description: entry.Comments,
		})
		redmineIDs = append(redmineIDs, externalID)
	}

	// Repeated imports are idempotent: known external IDs resolve to the
	// existing performance row.
	existing, err := s.performanceRepo.FindByRedmineIDs(userID, redmineIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to deduplicate against imported performances: %w", err)
	}
	for i := range candidates {
		candidates[i].ID = existing[candidates[i].RedmineID]
	}
	return candidates, nil
}

// ImportUserPerformances persists the user's external performances for the
// range as activity performances through the validated store. Per-candidate
// failures are logged and counted, the batch continues.
func (s *Service) ImportUserPerformances(ctx context.Context, userID uint, from, until time.Time) (int, error) {
	candidates, err := s.GetUserExternalPerformances(ctx, userID, from, until)
	if err != nil {
		prommetrics.RedmineImportsTotal.WithLabelValues("error").Inc()
		return 0, err
	}

	imported := 0
	for i := range candidates {
		candidate := &candidates[i]

		timesheet, err := s.timesheetRepo.EnsureForMonth(userID, candidate.Date.Year(), int(candidate.Date.Month()))
		if err != nil {
			s.log.Error().Err(err).Str("redmine_id", candidate.RedmineID).Msg("Failed to provision timesheet for import")
			prommetrics.RedmineEntriesSkippedTotal.WithLabelValues("timesheet").Inc()
			continue
		}

		duration := candidate.Duration
		performance := &models.Performance{
			ID:          candidate.ID,
			Kind:        models.PerformanceKindActivity,
			TimesheetID: timesheet.ID,
			ContractID:  &candidate.ContractID,
			Date:        candidate.Date,
			Duration:    &duration,
			Description: candidate.Description,
			RedmineID:   candidate.RedmineID,
		}

		if candidate.ID == 0 {
			err = s.performanceRepo.Create(performance)
		} else {
			err = s.performanceRepo.Update(performance)
		}
		if err != nil {
			s.log.Warn().Err(err).Str("redmine_id", candidate.RedmineID).Msg("Failed to persist imported performance")
			prommetrics.RedmineEntriesSkippedTotal.WithLabelValues("validation").Inc()
			continue
		}
		imported++
		prommetrics.RedmineEntriesImportedTotal.Inc()
	}

	prommetrics.RedmineImportsTotal.WithLabelValues("ok").Inc()
	s.log.Info().
		Uint("user_id", userID).
		Int("candidates", len(candidates)).
		Int("imported", imported).
		Msg("Imported external performances")
	return imported, nil
}

// resolveIdentity returns the user's Redmine account ID, preferring the
// stored mapping, else resolving by login and persisting the result. Zero
// means no identity.
func (s *Service) resolveIdentity(ctx context.Context, userID uint) (int, error) {
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
	if err != nil {
		return 0, fmt.Errorf("failed to look up redmine user: %w", err)
	}
	if remote == nil {
		return 0, nil
	}

	if info == nil {
		info = &models.UserInfo{UserID: userID}
	}
	info.RedmineID = strconv.Itoa(remote.ID)
	if err := s.userRepo.SaveInfo(info); err != nil {
		s.log.Warn().Err(err).Uint("user_id", userID).Msg("Failed to persist Redmine identity mapping")
	}
	return remote.ID, nil
}

// fetchIssueClosure batch-fetches the issues referenced by the entries plus
// every ancestor reachable through parent links. Issues the server does not
// return stay absent, terminating the walk.
func (s *Service) fetchIssueClosure(ctx context.Context, entries []redmine.TimeEntry) (map[int]*redmine.Issue, error) {
	index := make(map[int]*redmine.Issue)
	requested := make(map[int]bool)

	var pending []int
	for i := range entries {
		if issue := entries[i].Issue; issue != nil && !requested[issue.ID] {
			requested[issue.ID] = true
			pending = append(pending, issue.ID)
		}
	}

	for len(pending) > 0 {
		issues, err := s.redmine.GetIssues(ctx, pending)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch issues: %w", err)
		}

		pending = pending[:0]
		for i := range issues {
			issue := issues[i]
			index[issue.ID] = &issue
			if issue.Parent != nil && !requested[issue.Parent.ID] {
				requested[issue.Parent.ID] = true
				pending = append(pending, issue.Parent.ID)
			}
		}
	}
	return index, nil
}

// attribute resolves the contract a time entry belongs to: the contract
// custom field walking the issue's parent chain, else the stored project
// mapping. A resolved contract the user is not assigned to drops the entry
// rather than trying the next source. Zero means unattributable.
func (s *Service) attribute(entry *redmine.TimeEntry, index map[int]*redmine.Issue, projectMap map[string]uint, contractSet map[uint]bool) uint {
	contractID := s.contractFromIssue(entry, index)
	if contractID == 0 {
		contractID = projectMap[strconv.Itoa(entry.Project.ID)]
	}
	if !contractSet[contractID] {
		return 0
	}
	return contractID
}

// contractFromIssue walks the entry's issue and its ancestors for the
// contract custom field. Values are stored as "<id>|<label>"; the first
// non-empty value found decides and ends the walk.
func (s *Service) contractFromIssue(entry *redmine.TimeEntry, index map[int]*redmine.Issue) uint {
	fieldName := s.redmine.ContractFieldName()
	if entry.Issue == nil || fieldName == "" {
		return 0
	}

	visited := make(map[int]bool)
	for issueID := entry.Issue.ID; issueID != 0 && !visited[issueID]; {
		visited[issueID] = true
		issue := index[issueID]
		if issue == nil {
			return 0
		}
		if value := issue.CustomFieldValue(fieldName); value != "" {
			contractID, err := strconv.ParseUint(strings.SplitN(value, "|", 2)[0], 10, 64)
			if err != nil {
				s.log.Warn().Int("issue_id", issueID).Str("value", value).Msg("Unparseable contract custom field value")
				return 0
			}
			return uint(contractID)
		}
		if issue.Parent == nil {
			return 0
		}
		issueID = issue.Parent.ID
	}
	return 0
}
