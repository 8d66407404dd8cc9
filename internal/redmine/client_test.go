package redmine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laurensOost/925r/internal/config"
	"github.com/laurensOost/925r/pkg/logger"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logger.New("debug", "console", "stdout")
	return NewClient(&config.RedmineConfig{URL: server.URL, APIKey: "test-key"}, nil, log)
}

func TestClient_Unconfigured(t *testing.T) {
	log := logger.New("debug", "console", "stdout")
	c := NewClient(&config.RedmineConfig{}, nil, log)

	assert.False(t, c.Configured())

	user, err := c.FindUserByLogin(context.Background(), "jdoe")
	require.NoError(t, err)
	assert.Nil(t, user)

	entries, err := c.ListTimeEntries(context.Background(), 1, time.Now(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClient_FindUserByLogin(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Redmine-API-Key"))
		assert.Equal(t, "/users.json", r.URL.Path)
		assert.Equal(t, "jdoe", r.URL.Query().Get("name"))

		_ = json.NewEncoder(w).Encode(usersResponse{
			Users: []User{
				{ID: 7, Login: "jdoe2", Firstname: "Jane"},
				{ID: 42, Login: "jdoe", Firstname: "John"},
			},
			TotalCount: 2,
		})
	}))

	user, err := c.FindUserByLogin(context.Background(), "jdoe")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, 42, user.ID)
}

func TestClient_FindUserByLogin_NoMatch(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(usersResponse{})
	}))

	user, err := c.FindUserByLogin(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestClient_ListTimeEntries_Paginated(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/time_entries.json", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("user_id"))
		assert.Equal(t, "2024-05-01", r.URL.Query().Get("from"))

		resp := timeEntriesResponse{TotalCount: 150, Limit: pageSize}
		offset := r.URL.Query().Get("offset")
		count := pageSize
		if offset != "0" {
			count = 50
		}
		for i := 0; i < count; i++ {
			resp.TimeEntries = append(resp.TimeEntries, TimeEntry{ID: i, Hours: 1})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))

	entries, err := c.ListTimeEntries(context.Background(), 42,
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, entries, 150)
}

func TestClient_GetIssues_Batch(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/issues.json", r.URL.Path)
		assert.Equal(t, "1,2,3", r.URL.Query().Get("issue_id"))
		assert.Equal(t, "*", r.URL.Query().Get("status_id"))

		_ = json.NewEncoder(w).Encode(issuesResponse{
			Issues: []Issue{
				{ID: 1, Subject: "first", CustomFields: []CustomField{{Name: "Contract", Value: "support desk"}}},
				{ID: 2, Subject: "second", Parent: &Ref{ID: 1}},
			},
			TotalCount: 2,
		})
	}))

	issues, err := c.GetIssues(context.Background(), []int{1, 2, 3})
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "support desk", issues[0].CustomFieldValue("Contract"))
	assert.Equal(t, "", issues[1].CustomFieldValue("Contract"))
}

func TestClient_GetIssues_BatchSplit(t *testing.T) {
	var batches []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		batches = append(batches, r.URL.Query().Get("issue_id"))
		_ = json.NewEncoder(w).Encode(issuesResponse{
			Issues:     []Issue{{ID: 1}},
			TotalCount: 1,
		})
	}))
	t.Cleanup(server.Close)

	log := logger.New("debug", "console", "stdout")
	c := NewClient(&config.RedmineConfig{URL: server.URL, APIKey: "test-key", ParentLookupBatch: 2}, nil, log)

	issues, err := c.GetIssues(context.Background(), []int{1, 2, 3})
	require.NoError(t, err)
	assert.Len(t, issues, 2)
	assert.Equal(t, []string{"1,2", "3"}, batches)
}

func TestClient_ListAssignedIssues_ProjectFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/issues.json", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("assigned_to_id"))
		assert.Equal(t, "internal", r.URL.Query().Get("project_id"))

		_ = json.NewEncoder(w).Encode(issuesResponse{
			Issues:     []Issue{{ID: 5, Subject: "available"}},
			TotalCount: 1,
		})
	}))
	t.Cleanup(server.Close)

	log := logger.New("debug", "console", "stdout")
	c := NewClient(&config.RedmineConfig{URL: server.URL, APIKey: "test-key", AvailabilityProject: "internal"}, nil, log)

	issues, err := c.ListAssignedIssues(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, 5, issues[0].ID)
}

func TestClient_ServerError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.GetIssues(context.Background(), []int{1})
	assert.Error(t, err)
}

func TestDate_UnmarshalJSON(t *testing.T) {
	var entry TimeEntry
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"spent_on":"2024-05-02","hours":4}`), &entry))
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), entry.SpentOn.Time)

	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"spent_on":null}`), &entry))
	assert.True(t, entry.SpentOn.IsZero())
}
