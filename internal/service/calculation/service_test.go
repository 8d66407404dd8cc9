package calculation

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/laurensOost/925r/internal/models"
	"github.com/laurensOost/925r/internal/repository"
	"github.com/laurensOost/925r/pkg/logger"
)

// fixture wires the calculation service to real repositories backed by an
// in-memory SQLite database.
type fixture struct {
	db      *repository.DB
	service *Service
	user    *models.User
	company *models.Company
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	db := &repository.DB{DB: gormDB}
	if err := db.AutoMigrate(); err != nil {
		t.Fatalf("Failed to auto-migrate tables: %v", err)
	}

	log := logger.New("error", "console", "stdout")
	service := NewService(
		repository.NewEmploymentContractRepository(db),
		repository.NewContractRepository(db),
		repository.NewHolidayRepository(db),
		repository.NewLeaveRepository(db),
		repository.NewPerformanceRepository(db),
		4,
		log,
	)

	user := &models.User{Username: "jdoe", Email: "jdoe@example.com", Active: true}
	company := &models.Company{Name: "Acme", Country: "BE", Internal: true}
	for _, record := range []interface{}{user, company} {
		if err := db.Create(record).Error; err != nil {
			t.Fatalf("Failed to create fixture record: %v", err)
		}
	}

	return &fixture{db: db, service: service, user: user, company: company}
}

// withEmployment gives the fixture user an open-ended 8h Mon-Fri contract
// starting 2024-01-01.
func (f *fixture) withEmployment(t *testing.T) {
	t.Helper()

	eight := decimal.NewFromInt(8)
	schedule := &models.WorkSchedule{
		Name: "fulltime",
		WeekdayHours: models.WeekdayHours{
			Monday: eight, Tuesday: eight, Wednesday: eight, Thursday: eight, Friday: eight,
		},
	}
	if err := f.db.Create(schedule).Error; err != nil {
		t.Fatalf("Failed to create work schedule: %v", err)
	}

	contract := &models.EmploymentContract{
		UserID: f.user.ID, CompanyID: f.company.ID, WorkScheduleID: schedule.ID,
		StartedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := repository.NewEmploymentContractRepository(f.db).Create(contract); err != nil {
		t.Fatalf("Failed to create employment contract: %v", err)
	}
}

// withActivity logs an activity performance on the fixture user's May 2024
// timesheet and returns the contract it was booked on.
func (f *fixture) withActivity(t *testing.T, date time.Time, hours float64, multiplier float64) *models.Contract {
	t.Helper()

	contract := &models.Contract{
		Kind: models.ContractKindProject, Name: "website relaunch",
		CustomerID: f.company.ID, CompanyID: f.company.ID,
		StartsAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Active: true,
	}
	if err := f.db.Create(contract).Error; err != nil {
		t.Fatalf("Failed to create contract: %v", err)
	}

	performanceType := &models.PerformanceType{Name: "normal", Multiplier: decimal.NewFromFloat(multiplier)}
	if err := f.db.Create(performanceType).Error; err != nil {
		t.Fatalf("Failed to create performance type: %v", err)
	}

	timesheet, err := repository.NewTimesheetRepository(f.db).EnsureForMonth(f.user.ID, date.Year(), int(date.Month()))
	if err != nil {
		t.Fatalf("Failed to ensure timesheet: %v", err)
	}

	duration := decimal.NewFromFloat(hours)
	performance := &models.Performance{
		Kind: models.PerformanceKindActivity, TimesheetID: timesheet.ID,
		ContractID: &contract.ID, PerformanceTypeID: &performanceType.ID,
		Date: date, Duration: &duration, Description: "frontend work",
	}
	if err := repository.NewPerformanceRepository(f.db).Create(performance); err != nil {
		t.Fatalf("Failed to create performance: %v", err)
	}
	return contract
}

func assertHours(t *testing.T, label string, got decimal.Decimal, want float64) {
	t.Helper()
	if !got.Equal(decimal.NewFromFloat(want)) {
		t.Errorf("Expected %s = %v, got %v", label, want, got)
	}
}

func TestResolveDay_HolidayWaivesObligation(t *testing.T) {
	f := setupFixture(t)
	f.withEmployment(t)

	holiday := &models.Holiday{Name: "Labour Day", Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Country: "BE"}
	if err := repository.NewHolidayRepository(f.db).Create(holiday); err != nil {
		t.Fatalf("Failed to create holiday: %v", err)
	}
	f.withActivity(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), 4, 1.0)

	// 2024-05-01 is a Wednesday.
	detail, err := f.service.ResolveDay(context.Background(), f.user.ID, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ResolveDay failed: %v", err)
	}

	assertHours(t, "work_hours", detail.WorkHours, 8)
	assertHours(t, "holiday_hours", detail.HolidayHours, 8)
	assertHours(t, "performed_hours", detail.PerformedHours, 4)
	assertHours(t, "leave_hours", detail.LeaveHours, 0)
	assertHours(t, "remaining_hours", detail.RemainingHours, 0)
	// With the obligation waived, the performed hours count as overtime.
	assertHours(t, "overtime_hours", detail.OvertimeHours, 4)
}

func TestResolveDay_NoContractMeansNoObligation(t *testing.T) {
	f := setupFixture(t)

	detail, err := f.service.ResolveDay(context.Background(), f.user.ID, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ResolveDay failed: %v", err)
	}

	assertHours(t, "work_hours", detail.WorkHours, 0)
	assertHours(t, "remaining_hours", detail.RemainingHours, 0)
}

func TestResolveDay_WeekendHasNoObligation(t *testing.T) {
	f := setupFixture(t)
	f.withEmployment(t)

	// 2024-05-04 is a Saturday.
	detail, err := f.service.ResolveDay(context.Background(), f.user.ID, time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ResolveDay failed: %v", err)
	}

	assertHours(t, "work_hours", detail.WorkHours, 0)
}

func TestResolveDay_ApprovedLeaveReducesRemaining(t *testing.T) {
	f := setupFixture(t)
	f.withEmployment(t)

	leaveType := &models.LeaveType{Name: "vacation"}
	if err := f.db.Create(leaveType).Error; err != nil {
		t.Fatalf("Failed to create leave type: %v", err)
	}
	timesheet, err := repository.NewTimesheetRepository(f.db).EnsureForMonth(f.user.ID, 2024, 5)
	if err != nil {
		t.Fatalf("Failed to ensure timesheet: %v", err)
	}
	leaveRepo := repository.NewLeaveRepository(f.db)
	leave := &models.Leave{UserID: f.user.ID, LeaveTypeID: leaveType.ID, Status: models.LeaveStatusApproved}
	if err := leaveRepo.CreateLeave(leave); err != nil {
		t.Fatalf("Failed to create leave: %v", err)
	}
	leaveDate := &models.LeaveDate{
		LeaveID: leave.ID, TimesheetID: timesheet.ID,
		StartsAt: time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2024, 5, 2, 13, 0, 0, 0, time.UTC),
	}
	if err := leaveRepo.CreateLeaveDate(leaveDate); err != nil {
		t.Fatalf("Failed to create leave date: %v", err)
	}

	detail, err := f.service.ResolveDay(context.Background(), f.user.ID, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ResolveDay failed: %v", err)
	}

	assertHours(t, "work_hours", detail.WorkHours, 8)
	assertHours(t, "leave_hours", detail.LeaveHours, 4)
	assertHours(t, "remaining_hours", detail.RemainingHours, 4)
}

func TestGetRangeInfo_MonthTotalsAndSummary(t *testing.T) {
	f := setupFixture(t)
	f.withEmployment(t)

	holidayRepo := repository.NewHolidayRepository(f.db)
	if err := holidayRepo.Create(&models.Holiday{Name: "Labour Day", Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Country: "BE"}); err != nil {
		t.Fatalf("Failed to create holiday: %v", err)
	}
	contract := f.withActivity(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), 4, 1.0)

	infos, err := f.service.GetRangeInfo(context.Background(), []uint{f.user.ID},
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
		Options{Daily: true, Summary: true})
	if err != nil {
		t.Fatalf("GetRangeInfo failed: %v", err)
	}

	info := infos[f.user.ID]
	if info == nil {
		t.Fatal("Expected range info for the user")
	}

	// May 2024 has 23 weekdays at 8h.
	assertHours(t, "work_hours", info.WorkHours, 184)
	assertHours(t, "holiday_hours", info.HolidayHours, 8)
	assertHours(t, "performed_hours", info.PerformedHours, 4)
	// 22 non-holiday weekdays remain fully unperformed.
	assertHours(t, "remaining_hours", info.RemainingHours, 176)

	if len(info.Details) != 31 {
		t.Errorf("Expected 31 day details, got %d", len(info.Details))
	}
	day := info.Details["2024-05-01"]
	if day == nil {
		t.Fatal("Expected day detail for 2024-05-01")
	}
	assertHours(t, "day performed_hours", day.PerformedHours, 4)

	if info.Summary == nil || len(info.Summary.Performances) != 1 {
		t.Fatalf("Expected a single-contract summary, got %+v", info.Summary)
	}
	row := info.Summary.Performances[0]
	if row.ContractID != contract.ID || row.ContractName != "website relaunch" {
		t.Errorf("Unexpected summary row: %+v", row)
	}
	assertHours(t, "summary duration", row.Duration, 4)
}

func TestGetRangeInfo_MultiplierNormalizesDuration(t *testing.T) {
	f := setupFixture(t)
	f.withEmployment(t)
	f.withActivity(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), 4, 1.5)

	infos, err := f.service.GetRangeInfo(context.Background(), []uint{f.user.ID},
		time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		Options{})
	if err != nil {
		t.Fatalf("GetRangeInfo failed: %v", err)
	}

	assertHours(t, "performed_hours", infos[f.user.ID].PerformedHours, 6)
	assertHours(t, "remaining_hours", infos[f.user.ID].RemainingHours, 2)
}

func TestGetRangeInfo_InvalidRange(t *testing.T) {
	f := setupFixture(t)

	_, err := f.service.GetRangeInfo(context.Background(), []uint{f.user.ID},
		time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Options{})
	if err == nil {
		t.Fatal("Expected an error for an inverted range")
	}
}
