package mocks

import (
	"context"
	"time"

	"github.com/laurensOost/925r/internal/redmine"
)

// MockRedmineAPI is a mock implementation of the redmine.API interface using
// function fields, so each test overrides only the calls it cares about.
type MockRedmineAPI struct {
	ConfiguredFunc         func() bool
	ContractFieldNameFunc  func() string
	FindUserByLoginFunc    func(ctx context.Context, login string) (*redmine.User, error)
	ListTimeEntriesFunc    func(ctx context.Context, userID int, from, until time.Time) ([]redmine.TimeEntry, error)
	GetIssuesFunc          func(ctx context.Context, ids []int) ([]redmine.Issue, error)
	ListAssignedIssuesFunc func(ctx context.Context, userID int) ([]redmine.Issue, error)
}

// Configured calls the mocked function or returns true.
func (m *MockRedmineAPI) Configured() bool {
	if m.ConfiguredFunc != nil {
		return m.ConfiguredFunc()
	}
	return true
}

// ContractFieldName calls the mocked function or returns "Contract".
func (m *MockRedmineAPI) ContractFieldName() string {
	if m.ContractFieldNameFunc != nil {
		return m.ContractFieldNameFunc()
	}
	return "Contract"
}

// FindUserByLogin calls the mocked function or returns nil.
func (m *MockRedmineAPI) FindUserByLogin(ctx context.Context, login string) (*redmine.User, error) {
	if m.FindUserByLoginFunc != nil {
		return m.FindUserByLoginFunc(ctx, login)
	}
	return nil, nil
}

// ListTimeEntries calls the mocked function or returns nil.
func (m *MockRedmineAPI) ListTimeEntries(ctx context.Context, userID int, from, until time.Time) ([]redmine.TimeEntry, error) {
	if m.ListTimeEntriesFunc != nil {
		return m.ListTimeEntriesFunc(ctx, userID, from, until)
	}
	return nil, nil
}

// GetIssues calls the mocked function or returns nil.
func (m *MockRedmineAPI) GetIssues(ctx context.Context, ids []int) ([]redmine.Issue, error) {
	if m.GetIssuesFunc != nil {
		return m.GetIssuesFunc(ctx, ids)
	}
	return nil, nil
}

// ListAssignedIssues calls the mocked function or returns nil.
func (m *MockRedmineAPI) ListAssignedIssues(ctx context.Context, userID int) ([]redmine.Issue, error) {
	if m.ListAssignedIssuesFunc != nil {
		return m.ListAssignedIssuesFunc(ctx, userID)
	}
	return nil, nil
}
