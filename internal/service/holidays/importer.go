// Package holidays imports YAML holiday calendars into the holiday table.
package holidays

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/laurensOost/925r/internal/models"
	"github.com/laurensOost/925r/internal/repository"
	"github.com/laurensOost/925r/pkg/logger"
)

// HolidayRepository interface for holiday persistence.
type HolidayRepository interface {
	Create(holiday *models.Holiday) error
}

// Calendar is one country's holiday calendar file.
type Calendar struct {
	Country  string          `yaml:"country"`
	Holidays []CalendarEntry `yaml:"holidays"`
}

// CalendarEntry is a single holiday in a calendar file.
type CalendarEntry struct {
	Name string `yaml:"name"`
	Date string `yaml:"date"`
}

// Importer loads holiday calendars. Imports are idempotent: entries already
// present are skipped by the repository.
type Importer struct {
	holidayRepo HolidayRepository
	log         *logger.Logger
}

// NewImporter creates a new holiday calendar importer.
func NewImporter(holidayRepo *repository.HolidayRepository, log *logger.Logger) *Importer {
	return NewImporterWithInterfaces(holidayRepo, log)
}

// NewImporterWithInterfaces creates a new importer with interface
// dependencies (useful for testing).
func NewImporterWithInterfaces(holidayRepo HolidayRepository, log *logger.Logger) *Importer {
	return &Importer{holidayRepo: holidayRepo, log: log}
}

// ImportReader parses one calendar document and persists its holidays.
func (i *Importer) ImportReader(r io.Reader) (int, error) {
	var calendar Calendar
	if err := yaml.NewDecoder(r).Decode(&calendar); err != nil {
		return 0, fmt.Errorf("failed to parse holiday calendar: %w", err)
	}
	if calendar.Country == "" {
		return 0, fmt.Errorf("holiday calendar is missing a country")
	}

	imported := 0
	for _, entry := range calendar.Holidays {
		date, err := time.ParseInLocation(models.ISODate, entry.Date, time.UTC)
		if err != nil {
			return imported, fmt.Errorf("invalid holiday date %q: %w", entry.Date, err)
		}
		holiday := &models.Holiday{Name: entry.Name, Date: date, Country: calendar.Country}
		if err := i.holidayRepo.Create(holiday); err != nil {
			return imported, fmt.Errorf("failed to persist holiday %q: %w", entry.Name, err)
		}
		imported++
	}

	i.log.Info().
		Str("country", calendar.Country).
		Int("holidays", imported).
		Msg("Imported holiday calendar")
	return imported, nil
}

// ImportFile imports a single calendar file.
func (i *Importer) ImportFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open holiday calendar: %w", err)
	}
	defer f.Close()
	return i.ImportReader(f)
}

// ImportDir imports every .yaml/.yml calendar in a directory.
func (i *Importer) ImportDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read calendar directory: %w", err)
	}

	total := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		count, err := i.ImportFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return total, fmt.Errorf("failed to import %s: %w", entry.Name(), err)
		}
		total += count
	}
	return total, nil
}
