package reconciler

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/laurensOost/925r/internal/models"
	"github.com/laurensOost/925r/internal/redmine"
	"github.com/laurensOost/925r/pkg/logger"
	"github.com/laurensOost/925r/test/mocks"
)

type mockUserRepo struct {
	user  *models.User
	info  *models.UserInfo
	saved *models.UserInfo
}

func (m *mockUserRepo) GetByID(uint) (*models.User, error)     { return m.user, nil }
func (m *mockUserRepo) GetInfo(uint) (*models.UserInfo, error) { return m.info, nil }
func (m *mockUserRepo) SaveInfo(info *models.UserInfo) error {
	m.saved = info
	return nil
}

type mockContractRepo struct {
	projectMap  map[string]uint
	contractSet map[uint]bool
}

func (m *mockContractRepo) RedmineMapping(uint) (map[string]uint, map[uint]bool, error) {
	return m.projectMap, m.contractSet, nil
}

type mockPerformanceRepo struct {
	existing map[string]uint
	created  []*models.Performance
	updated  []*models.Performance
}

func (m *mockPerformanceRepo) FindByRedmineIDs(_ uint, _ []string) (map[string]uint, error) {
	if m.existing == nil {
		return map[string]uint{}, nil
	}
	return m.existing, nil
}

func (m *mockPerformanceRepo) Create(p *models.Performance) error {
	m.created = append(m.created, p)
	return nil
}

func (m *mockPerformanceRepo) Update(p *models.Performance) error {
	m.updated = append(m.updated, p)
	return nil
}

type mockTimesheetRepo struct{}

func (m *mockTimesheetRepo) EnsureForMonth(userID uint, year, month int) (*models.Timesheet, error) {
	return &models.Timesheet{ID: 99, UserID: userID, Year: year, Month: month, Status: models.TimesheetStatusActive}, nil
}

func date(day int) time.Time {
	return time.Date(2024, 5, day, 0, 0, 0, 0, time.UTC)
}

func testService(userRepo UserRepository, contractRepo ContractRepository, performanceRepo PerformanceRepository, api redmine.API) *Service {
	return NewServiceWithInterfaces(userRepo, contractRepo, performanceRepo, &mockTimesheetRepo{}, api, logger.New("error", "console", "stdout"))
}

func TestGetUserExternalPerformances_CustomFieldWalk(t *testing.T) {
	// Entry 10 logs on issue 5, whose parent 3 carries the contract field.
	api := &mocks.MockRedmineAPI{
		ListTimeEntriesFunc: func(context.Context, int, time.Time, time.Time) ([]redmine.TimeEntry, error) {
			return []redmine.TimeEntry{
				{ID: 10, Issue: &redmine.Ref{ID: 5}, Project: redmine.Ref{ID: 77}, Hours: 3.5, Comments: "support call", SpentOn: redmine.Date{Time: date(2)}},
			}, nil
		},
		GetIssuesFunc: func(_ context.Context, ids []int) ([]redmine.Issue, error) {
			switch ids[0] {
			case 5:
				return []redmine.Issue{{ID: 5, Parent: &redmine.Ref{ID: 3}}}, nil
			case 3:
				return []redmine.Issue{{ID: 3, CustomFields: []redmine.CustomField{{Name: "Contract", Value: "12"}}}}, nil
			}
			return nil, nil
		},
	}
	userRepo := &mockUserRepo{info: &models.UserInfo{UserID: 1, RedmineID: "42"}}
	contractRepo := &mockContractRepo{contractSet: map[uint]bool{12: true}}

	service := testService(userRepo, contractRepo, &mockPerformanceRepo{}, api)
	candidates, err := service.GetUserExternalPerformances(context.Background(), 1, date(1), date(31))
	if err != nil {
		t.Fatalf("GetUserExternalPerformances failed: %v", err)
	}

	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}
	candidate := candidates[0]
	if candidate.ContractID != 12 {
		t.Errorf("Expected attribution to contract 12, got %d", candidate.ContractID)
	}
	if candidate.RedmineID != "10" || !candidate.Duration.Equal(decimal.NewFromFloat(3.5)) {
		t.Errorf("Unexpected candidate: %+v", candidate)
	}
}

func TestGetUserExternalPerformances_PipedCustomFieldValue(t *testing.T) {
	// Redmine stores the field as "<id>|<label>"; only the id segment counts.
	api := &mocks.MockRedmineAPI{
		ListTimeEntriesFunc: func(context.Context, int, time.Time, time.Time) ([]redmine.TimeEntry, error) {
			return []redmine.TimeEntry{
				{ID: 14, Issue: &redmine.Ref{ID: 7}, Project: redmine.Ref{ID: 77}, Hours: 2, SpentOn: redmine.Date{Time: date(8)}},
			}, nil
		},
		GetIssuesFunc: func(context.Context, []int) ([]redmine.Issue, error) {
			return []redmine.Issue{{ID: 7, CustomFields: []redmine.CustomField{{Name: "Contract", Value: "12|Website Support"}}}}, nil
		},
	}
	userRepo := &mockUserRepo{info: &models.UserInfo{UserID: 1, RedmineID: "42"}}
	contractRepo := &mockContractRepo{contractSet: map[uint]bool{12: true}}

	service := testService(userRepo, contractRepo, &mockPerformanceRepo{}, api)
	candidates, err := service.GetUserExternalPerformances(context.Background(), 1, date(1), date(31))
	if err != nil {
		t.Fatalf("GetUserExternalPerformances failed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].ContractID != 12 {
		t.Fatalf("Expected attribution to contract 12 from the piped value, got %+v", candidates)
	}
}

func TestGetUserExternalPerformances_ForeignCustomFieldContractDropped(t *testing.T) {
	// The custom field decides attribution even when it names a contract the
	// user is not assigned to; the project mapping must not override it.
	api := &mocks.MockRedmineAPI{
		ListTimeEntriesFunc: func(context.Context, int, time.Time, time.Time) ([]redmine.TimeEntry, error) {
			return []redmine.TimeEntry{
				{ID: 15, Issue: &redmine.Ref{ID: 9}, Project: redmine.Ref{ID: 77}, Hours: 2, SpentOn: redmine.Date{Time: date(9)}},
			}, nil
		},
		GetIssuesFunc: func(context.Context, []int) ([]redmine.Issue, error) {
			return []redmine.Issue{{ID: 9, CustomFields: []redmine.CustomField{{Name: "Contract", Value: "999|Other Team"}}}}, nil
		},
	}
	userRepo := &mockUserRepo{info: &models.UserInfo{UserID: 1, RedmineID: "42"}}
	contractRepo := &mockContractRepo{
		projectMap:  map[string]uint{"77": 8},
		contractSet: map[uint]bool{8: true},
	}

	service := testService(userRepo, contractRepo, &mockPerformanceRepo{}, api)
	candidates, err := service.GetUserExternalPerformances(context.Background(), 1, date(1), date(31))
	if err != nil {
		t.Fatalf("GetUserExternalPerformances failed: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("Expected entry with foreign contract field to be dropped, got %+v", candidates)
	}
}

func TestGetUserExternalPerformances_ProjectMappingFallback(t *testing.T) {
	api := &mocks.MockRedmineAPI{
		ListTimeEntriesFunc: func(context.Context, int, time.Time, time.Time) ([]redmine.TimeEntry, error) {
			return []redmine.TimeEntry{
				{ID: 11, Project: redmine.Ref{ID: 77}, Hours: 2, SpentOn: redmine.Date{Time: date(3)}},
			}, nil
		},
	}
	userRepo := &mockUserRepo{info: &models.UserInfo{UserID: 1, RedmineID: "42"}}
	contractRepo := &mockContractRepo{
		projectMap:  map[string]uint{"77": 8},
		contractSet: map[uint]bool{8: true},
	}

	service := testService(userRepo, contractRepo, &mockPerformanceRepo{}, api)
	candidates, err := service.GetUserExternalPerformances(context.Background(), 1, date(1), date(31))
	if err != nil {
		t.Fatalf("GetUserExternalPerformances failed: %v", err)
	}

	if len(candidates) != 1 || candidates[0].ContractID != 8 {
		t.Fatalf("Expected project mapping attribution to contract 8, got %+v", candidates)
	}
}

func TestGetUserExternalPerformances_DropsUnattributable(t *testing.T) {
	api := &mocks.MockRedmineAPI{
		ListTimeEntriesFunc: func(context.Context, int, time.Time, time.Time) ([]redmine.TimeEntry, error) {
			return []redmine.TimeEntry{
				{ID: 12, Project: redmine.Ref{ID: 99}, Hours: 1, SpentOn: redmine.Date{Time: date(4)}},
			}, nil
		},
	}
	userRepo := &mockUserRepo{info: &models.UserInfo{UserID: 1, RedmineID: "42"}}

	service := testService(userRepo, &mockContractRepo{}, &mockPerformanceRepo{}, api)
	candidates, err := service.GetUserExternalPerformances(context.Background(), 1, date(1), date(31))
	if err != nil {
		t.Fatalf("GetUserExternalPerformances failed: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("Expected unattributable entry to be dropped, got %+v", candidates)
	}
}

func TestGetUserExternalPerformances_ParentCycle(t *testing.T) {
	// Issues 5 and 6 are each other's parent and neither carries the field.
	api := &mocks.MockRedmineAPI{
		ListTimeEntriesFunc: func(context.Context, int, time.Time, time.Time) ([]redmine.TimeEntry, error) {
			return []redmine.TimeEntry{
				{ID: 13, Issue: &redmine.Ref{ID: 5}, Project: redmine.Ref{ID: 77}, Hours: 1, SpentOn: redmine.Date{Time: date(5)}},
			}, nil
		},
		GetIssuesFunc: func(_ context.Context, ids []int) ([]redmine.Issue, error) {
			switch ids[0] {
			case 5:
				return []redmine.Issue{{ID: 5, Parent: &redmine.Ref{ID: 6}}}, nil
			case 6:
				return []redmine.Issue{{ID: 6, Parent: &redmine.Ref{ID: 5}}}, nil
			}
			return nil, nil
		},
	}
	userRepo := &mockUserRepo{info: &models.UserInfo{UserID: 1, RedmineID: "42"}}
	contractRepo := &mockContractRepo{
		projectMap:  map[string]uint{"77": 8},
		contractSet: map[uint]bool{8: true},
	}

	service := testService(userRepo, contractRepo, &mockPerformanceRepo{}, api)
	candidates, err := service.GetUserExternalPerformances(context.Background(), 1, date(1), date(31))
	if err != nil {
		t.Fatalf("Parent cycle must not hang or fail: %v", err)
	}
	if len(candidates) != 1 || candidates[0].ContractID != 8 {
		t.Fatalf("Expected fallback attribution despite the cycle, got %+v", candidates)
	}
}

func TestGetUserExternalPerformances_IdentityLookupPersisted(t *testing.T) {
	api := &mocks.MockRedmineAPI{
		FindUserByLoginFunc: func(_ context.Context, login string) (*redmine.User, error) {
			if login != "jdoe" {
				t.Errorf("Expected lookup by username jdoe, got %s", login)
			}
			return &redmine.User{ID: 42, Login: "jdoe"}, nil
		},
		ListTimeEntriesFunc: func(_ context.Context, userID int, _, _ time.Time) ([]redmine.TimeEntry, error) {
			if userID != 42 {
				t.Errorf("Expected entries for Redmine user 42, got %d", userID)
			}
			return nil, nil
		},
	}
	userRepo := &mockUserRepo{user: &models.User{ID: 1, Username: "jdoe"}}

	service := testService(userRepo, &mockContractRepo{}, &mockPerformanceRepo{}, api)
	if _, err := service.GetUserExternalPerformances(context.Background(), 1, date(1), date(31)); err != nil {
		t.Fatalf("GetUserExternalPerformances failed: %v", err)
	}

	if userRepo.saved == nil || userRepo.saved.RedmineID != "42" {
		t.Errorf("Expected resolved identity to be persisted, got %+v", userRepo.saved)
	}
}

func TestImportUserPerformances_CreatesAndUpdates(t *testing.T) {
	api := &mocks.MockRedmineAPI{
		ListTimeEntriesFunc: func(context.Context, int, time.Time, time.Time) ([]redmine.TimeEntry, error) {
			return []redmine.TimeEntry{
				{ID: 20, Project: redmine.Ref{ID: 77}, Hours: 2, Comments: "new entry", SpentOn: redmine.Date{Time: date(6)}},
				{ID: 21, Project: redmine.Ref{ID: 77}, Hours: 4, Comments: "seen before", SpentOn: redmine.Date{Time: date(7)}},
			}, nil
		},
	}
	userRepo := &mockUserRepo{info: &models.UserInfo{UserID: 1, RedmineID: "42"}}
	contractRepo := &mockContractRepo{
		projectMap:  map[string]uint{"77": 8},
		contractSet: map[uint]bool{8: true},
	}
	performanceRepo := &mockPerformanceRepo{existing: map[string]uint{"21": 500}}

	service := testService(userRepo, contractRepo, performanceRepo, api)
	imported, err := service.ImportUserPerformances(context.Background(), 1, date(1), date(31))
	if err != nil {
		t.Fatalf("ImportUserPerformances failed: %v", err)
	}

	if imported != 2 {
		t.Errorf("Expected 2 imported performances, got %d", imported)
	}
	if len(performanceRepo.created) != 1 || performanceRepo.created[0].RedmineID != "20" {
		t.Errorf("Expected entry 20 to be created, got %+v", performanceRepo.created)
	}
	if len(performanceRepo.updated) != 1 || performanceRepo.updated[0].ID != 500 {
		t.Errorf("Expected entry 21 to update performance 500, got %+v", performanceRepo.updated)
	}
}

func TestGetUserExternalPerformances_Unconfigured(t *testing.T) {
	api := &mocks.MockRedmineAPI{ConfiguredFunc: func() bool { return false }}
	service := testService(&mockUserRepo{}, &mockContractRepo{}, &mockPerformanceRepo{}, api)

	candidates, err := service.GetUserExternalPerformances(context.Background(), 1, date(1), date(31))
	if err != nil {
		t.Fatalf("Unconfigured connector must be a no-op, got %v", err)
	}
	if candidates != nil {
		t.Errorf("Expected no candidates, got %+v", candidates)
	}
}
