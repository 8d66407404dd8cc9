// Package repository is the interval store: data access for the time-bound
// domain records using GORM. Write paths for guarded entities run the
// validation package inside their transactions before committing.
package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file" // file:// migration source
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/laurensOost/925r/internal/config"
	prommetrics "github.com/laurensOost/925r/internal/metrics"
	"github.com/laurensOost/925r/internal/models"
	"github.com/laurensOost/925r/internal/validation"
	"github.com/laurensOost/925r/pkg/logger"
)

// DB holds the database connection.
type DB struct {
	*gorm.DB
}

// observeConflict counts a surfaced validation conflict before returning it.
func observeConflict(entity string, err error) error {
	if conflict, ok := validation.AsConflict(err); ok {
		prommetrics.ValidationConflictsTotal.WithLabelValues(entity, conflict.Field).Inc()
	}
	return err
}

// NewDB creates a new database connection.
func NewDB(cfg *config.PostgresConfig, log *logger.Logger) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Database,
		cfg.SSLMode,
	)

	var gormLogLevel gormlogger.LogLevel
	switch log.GetLogger().GetLevel() {
	case 0: // debug
		gormLogLevel = gormlogger.Info
	default:
		gormLogLevel = gormlogger.Warn
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("Connected to PostgreSQL")

	return &DB{db}, nil
}

// AutoMigrate creates or updates the schema for all models. Used by tests and
// development setups; production deployments run Migrate instead.
func (db *DB) AutoMigrate() error {
	return db.DB.AutoMigrate(
		&models.User{},
		&models.UserInfo{},
		&models.Company{},
		&models.WorkSchedule{},
		&models.EmploymentContract{},
		&models.Contract{},
		&models.ContractRole{},
		&models.ContractUser{},
		&models.ContractUserWorkSchedule{},
		&models.PerformanceType{},
		&models.Holiday{},
		&models.LeaveType{},
		&models.Leave{},
		&models.LeaveDate{},
		&models.Timesheet{},
		&models.Performance{},
		&models.Location{},
		&models.Whereabout{},
	)
}

// Migrate applies versioned SQL migrations from the given directory.
func (db *DB) Migrate(migrationsDir string) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsDir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks if the database is healthy.
func (db *DB) Health() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
