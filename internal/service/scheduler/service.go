// Package scheduler runs the recurring background jobs: monthly timesheet
// provisioning and the nightly Redmine import batch.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/laurensOost/925r/internal/config"
	prommetrics "github.com/laurensOost/925r/internal/metrics"
	"github.com/laurensOost/925r/internal/models"
	"github.com/laurensOost/925r/internal/repository"
	"github.com/laurensOost/925r/internal/service/reconciler"
	"github.com/laurensOost/925r/pkg/logger"
)

// UserRepository interface for listing importable users.
type UserRepository interface {
	ListActive() ([]models.User, error)
}

// TimesheetRepository interface for monthly provisioning.
type TimesheetRepository interface {
	EnsureForMonth(userID uint, year, month int) (*models.Timesheet, error)
}

// Importer interface for the per-user Redmine import batch.
type Importer interface {
	ImportUserPerformances(ctx context.Context, userID uint, from, until time.Time) (int, error)
}

// Service handles cron job scheduling.
type Service struct {
	config        *config.Config
	userRepo      UserRepository
	timesheetRepo TimesheetRepository
	importer      Importer
	log           *logger.Logger
	cron          *cron.Cron
}

// NewService creates a new scheduler service.
func NewService(
	cfg *config.Config,
	userRepo *repository.UserRepository,
	timesheetRepo *repository.TimesheetRepository,
	importer *reconciler.Service,
	log *logger.Logger,
) *Service {
	return NewServiceWithInterfaces(cfg, userRepo, timesheetRepo, importer, log)
}

// NewServiceWithInterfaces creates a new scheduler service with interface
// dependencies (useful for testing).
func NewServiceWithInterfaces(
	cfg *config.Config,
	userRepo UserRepository,
	timesheetRepo TimesheetRepository,
	importer Importer,
	log *logger.Logger,
) *Service {
	return &Service{
		config:        cfg,
		userRepo:      userRepo,
		timesheetRepo: timesheetRepo,
		importer:      importer,
		log:           log,
	}
}

// Start initializes and starts the cron scheduler.
func (s *Service) Start() error {
	if !s.config.Scheduler.Enabled {
		s.log.Info().Msg("Scheduler is disabled in configuration")
		return nil
	}

	location, err := s.config.Scheduler.GetLocation()
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.config.Scheduler.Timezone, err)
	}

	s.cron = cron.New(cron.WithLocation(location))

	timesheetCron := s.config.Scheduler.TimesheetCron
	if timesheetCron == "" {
		// First day of the month at 00:30.
		timesheetCron = "30 0 1 * *"
	}
	if _, err := s.cron.AddFunc(timesheetCron, func() { s.ProvisionTimesheets(time.Now()) }); err != nil {
		return fmt.Errorf("failed to register timesheet provisioning job: %w", err)
	}

	importCron := s.config.Scheduler.ImportCron
	if importCron == "" {
		// Nightly at 02:00.
		importCron = "0 2 * * *"
	}
	if _, err := s.cron.AddFunc(importCron, func() { s.RunImportBatch(context.Background(), time.Now()) }); err != nil {
		return fmt.Errorf("failed to register import batch job: %w", err)
	}

	s.cron.Start()

	s.log.Info().
		Str("timesheet_cron", timesheetCron).
		Str("import_cron", importCron).
		Str("timezone", s.config.Scheduler.Timezone).
		Msg("Scheduler started successfully")

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.log.Info().Msg("Scheduler stopped")
	}
}

// ProvisionTimesheets creates the current month's timesheet for every active
// user. Existing timesheets are left untouched.
func (s *Service) ProvisionTimesheets(now time.Time) {
	users, err := s.userRepo.ListActive()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list users for timesheet provisioning")
		prommetrics.SchedulerJobsRunTotal.WithLabelValues("provision_timesheets", "error").Inc()
		return
	}

	provisioned := 0
	for _, user := range users {
		if _, err := s.timesheetRepo.EnsureForMonth(user.ID, now.Year(), int(now.Month())); err != nil {
			s.log.Error().Err(err).Uint("user_id", user.ID).Msg("Failed to provision timesheet")
			continue
		}
		provisioned++
	}

	prommetrics.TimesheetsProvisioned.Set(float64(provisioned))
	prommetrics.SchedulerJobsRunTotal.WithLabelValues("provision_timesheets", "ok").Inc()
	s.log.Info().
		Int("users", len(users)).
		Int("provisioned", provisioned).
		Msg("Timesheet provisioning completed")
}

// RunImportBatch imports the current month's Redmine time entries for every
// active user. Each user runs under its own timeout; a failing user does not
// stop the batch.
func (s *Service) RunImportBatch(ctx context.Context, now time.Time) {
	users, err := s.userRepo.ListActive()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list users for Redmine import")
		prommetrics.SchedulerJobsRunTotal.WithLabelValues("redmine_import", "error").Inc()
		return
	}

	timeout := time.Duration(s.config.Scheduler.ImportTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	from, until := models.MonthRange(now.Year(), now.Month())

	imported := 0
	for _, user := range users {
		userCtx, cancel := context.WithTimeout(ctx, timeout)
		count, err := s.importer.ImportUserPerformances(userCtx, user.ID, from, until)
		cancel()
		if err != nil {
			s.log.Warn().Err(err).Uint("user_id", user.ID).Msg("Redmine import failed for user")
			continue
		}
		imported += count
	}

	prommetrics.SchedulerJobsRunTotal.WithLabelValues("redmine_import", "ok").Inc()
	s.log.Info().
		Int("users", len(users)).
		Int("imported", imported).
		Msg("Redmine import batch completed")
}
