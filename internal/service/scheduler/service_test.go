package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/laurensOost/925r/internal/config"
	"github.com/laurensOost/925r/internal/models"
	"github.com/laurensOost/925r/pkg/logger"
)

type mockUserRepo struct {
	users []models.User
}

func (m *mockUserRepo) ListActive() ([]models.User, error) { return m.users, nil }

type mockTimesheetRepo struct {
	ensured [][3]int
	fail    map[uint]bool
}

func (m *mockTimesheetRepo) EnsureForMonth(userID uint, year, month int) (*models.Timesheet, error) {
	if m.fail[userID] {
		return nil, errors.New("boom")
	}
	m.ensured = append(m.ensured, [3]int{int(userID), year, month})
	return &models.Timesheet{UserID: userID, Year: year, Month: month}, nil
}

type mockImporter struct {
	calls  []uint
	counts map[uint]int
	fail   map[uint]bool
}

func (m *mockImporter) ImportUserPerformances(_ context.Context, userID uint, _, _ time.Time) (int, error) {
	m.calls = append(m.calls, userID)
	if m.fail[userID] {
		return 0, errors.New("redmine down")
	}
	return m.counts[userID], nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Scheduler.Enabled = true
	cfg.Scheduler.Timezone = "UTC"
	return cfg
}

func TestProvisionTimesheets(t *testing.T) {
	users := &mockUserRepo{users: []models.User{{ID: 1}, {ID: 2}, {ID: 3}}}
	timesheets := &mockTimesheetRepo{fail: map[uint]bool{2: true}}
	service := NewServiceWithInterfaces(testConfig(), users, timesheets, &mockImporter{}, logger.New("error", "console", "stdout"))

	service.ProvisionTimesheets(time.Date(2024, 5, 1, 0, 30, 0, 0, time.UTC))

	if len(timesheets.ensured) != 2 {
		t.Fatalf("Expected 2 provisioned timesheets, got %d", len(timesheets.ensured))
	}
	if timesheets.ensured[0] != [3]int{1, 2024, 5} {
		t.Errorf("Unexpected provisioning call: %v", timesheets.ensured[0])
	}
}

func TestRunImportBatch_ContinuesAfterFailure(t *testing.T) {
	users := &mockUserRepo{users: []models.User{{ID: 1}, {ID: 2}}}
	importer := &mockImporter{counts: map[uint]int{2: 5}, fail: map[uint]bool{1: true}}
	service := NewServiceWithInterfaces(testConfig(), users, &mockTimesheetRepo{}, importer, logger.New("error", "console", "stdout"))

	service.RunImportBatch(context.Background(), time.Date(2024, 5, 15, 2, 0, 0, 0, time.UTC))

	if len(importer.calls) != 2 {
		t.Fatalf("Expected both users to be imported, got calls for %v", importer.calls)
	}
}

func TestStart_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Scheduler.Enabled = false
	service := NewServiceWithInterfaces(cfg, &mockUserRepo{}, &mockTimesheetRepo{}, &mockImporter{}, logger.New("error", "console", "stdout"))

	if err := service.Start(); err != nil {
		t.Fatalf("Disabled scheduler must start as a no-op, got %v", err)
	}
	service.Stop()
}

func TestStart_InvalidTimezone(t *testing.T) {
	cfg := testConfig()
	cfg.Scheduler.Timezone = "Mars/Olympus"
	service := NewServiceWithInterfaces(cfg, &mockUserRepo{}, &mockTimesheetRepo{}, &mockImporter{}, logger.New("error", "console", "stdout"))

	if err := service.Start(); err == nil {
		t.Fatal("Expected an error for an invalid timezone")
	}
}
