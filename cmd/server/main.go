package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/laurensOost/925r/internal/api"
	"github.com/laurensOost/925r/internal/cache"
	"github.com/laurensOost/925r/internal/config"
	"github.com/laurensOost/925r/internal/redmine"
	"github.com/laurensOost/925r/internal/repository"
	"github.com/laurensOost/925r/internal/service/availability"
	"github.com/laurensOost/925r/internal/service/calculation"
	"github.com/laurensOost/925r/internal/service/holidays"
	"github.com/laurensOost/925r/internal/service/overtime"
	"github.com/laurensOost/925r/internal/service/reconciler"
	"github.com/laurensOost/925r/internal/service/scheduler"
	"github.com/laurensOost/925r/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.Get()

	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.Postgres.MigrationsDir != "" {
		if err := db.Migrate(cfg.Database.Postgres.MigrationsDir); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	} else if err := db.AutoMigrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to auto-migrate database")
	}

	redisCache, err := cache.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisCache.Close()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	employmentRepo := repository.NewEmploymentContractRepository(db)
	contractRepo := repository.NewContractRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	performanceRepo := repository.NewPerformanceRepository(db)
	timesheetRepo := repository.NewTimesheetRepository(db)
	whereaboutRepo := repository.NewWhereaboutRepository(db)

	// External connector.
	redmineClient := redmine.NewClient(&cfg.Redmine, redisCache, log)
	if !redmineClient.Configured() {
		log.Warn().Msg("Redmine is not configured, imports and issue lookups are disabled")
	}

	// Services.
	calculationService := calculation.NewService(
		employmentRepo, contractRepo, holidayRepo, leaveRepo, performanceRepo,
		cfg.Aggregation.WorkerCount(), log)
	overtimeService := overtime.NewService(calculationService, employmentRepo, log)
	availabilityService := availability.NewService(calculationService, whereaboutRepo, userRepo, redmineClient, log)
	reconcilerService := reconciler.NewService(userRepo, contractRepo, performanceRepo, timesheetRepo, redmineClient, log)

	if cfg.Holidays.CalendarDir != "" {
		importer := holidays.NewImporter(holidayRepo, log)
		if count, err := importer.ImportDir(cfg.Holidays.CalendarDir); err != nil {
			log.Error().Err(err).Msg("Failed to import holiday calendars")
		} else {
			log.Info().Int("holidays", count).Msg("Holiday calendars imported")
		}
	}

	schedulerService := scheduler.NewService(cfg, userRepo, timesheetRepo, reconcilerService, log)
	if err := schedulerService.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	defer schedulerService.Stop()

	handler := api.NewHandler(calculationService, availabilityService, overtimeService, reconcilerService, db, log)
	router := api.NewRouter(cfg, handler)

	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", port).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server stopped")
}
