// Package redmine provides a REST client for the Redmine time tracking API.
package redmine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/laurensOost/925r/internal/cache"
	"github.com/laurensOost/925r/internal/config"
	"github.com/laurensOost/925r/internal/metrics"
	"github.com/laurensOost/925r/pkg/logger"
)

const pageSize = 100

// API is the part of the Redmine client consumed by services. Test mocks
// implement this interface.
type API interface {
	Configured() bool
	ContractFieldName() string
	FindUserByLogin(ctx context.Context, login string) (*User, error)
	ListTimeEntries(ctx context.Context, userID int, from, until time.Time) ([]TimeEntry, error)
	GetIssues(ctx context.Context, ids []int) ([]Issue, error)
	ListAssignedIssues(ctx context.Context, userID int) ([]Issue, error)
}

// Client talks to a Redmine instance using API key authentication. A client
// built from an empty configuration is valid: every lookup returns empty
// results so callers need no special casing.
type Client struct {
	baseURL       string
	apiKey        string
	contractField string
	projectFilter string
	batchSize     int
	cacheTTL      time.Duration
	httpClient    *http.Client
	cache         cache.Cache
	log           *logger.Logger
}

// NewClient creates a Redmine client. The cache is optional; when nil,
// user lookups are not memoized.
func NewClient(cfg *config.RedmineConfig, c cache.Cache, log *logger.Logger) *Client {
	return &Client{
		baseURL:       strings.TrimRight(cfg.URL, "/"),
		apiKey:        cfg.APIKey,
		contractField: cfg.IssueContractField,
		projectFilter: cfg.AvailabilityProject,
		batchSize:     cfg.ParentBatch(),
		cacheTTL:      cfg.CacheTTL(),
		httpClient:    &http.Client{Timeout: cfg.Timeout()},
		cache:         c,
		log:           log,
	}
}

// Configured reports whether the client can reach a Redmine instance.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// ContractFieldName returns the issue custom field holding the contract label.
func (c *Client) ContractFieldName() string {
	return c.contractField
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	start := time.Now()

	u := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Redmine-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RedmineRequestDurationSeconds.WithLabelValues(endpoint, "error").Observe(time.Since(start).Seconds())
		return fmt.Errorf("redmine request failed: %w", err)
	}
	defer resp.Body.Close()

	metrics.RedmineRequestDurationSeconds.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("redmine returned status %d for %s", resp.StatusCode, endpoint)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode redmine response: %w", err)
	}
	return nil
}

// FindUserByLogin resolves a Redmine account by its login name. Returns nil
// when no account matches. Results are memoized in the cache.
func (c *Client) FindUserByLogin(ctx context.Context, login string) (*User, error) {
	if !c.Configured() {
		c.log.Debug().Msg("Redmine is not configured, skipping user lookup")
		return nil, nil
	}

	cacheKey := "redmine:user:" + login
	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, cacheKey); err == nil && cached != "" {
			var user User
			if err := json.Unmarshal([]byte(cached), &user); err == nil {
				return &user, nil
			}
		}
	}

	query := url.Values{}
	query.Set("name", login)

	var page usersResponse
	if err := c.get(ctx, "users.json", query, &page); err != nil {
		return nil, err
	}

	for i := range page.Users {
		if page.Users[i].Login != login {
			continue
		}
		if c.cache != nil {
			if payload, err := json.Marshal(&page.Users[i]); err == nil {
				_ = c.cache.Set(ctx, cacheKey, string(payload), c.cacheTTL)
			}
		}
		return &page.Users[i], nil
	}
	return nil, nil
}

// ListTimeEntries returns all time entries a user logged in the date range,
// following pagination until the server reports no more pages.
func (c *Client) ListTimeEntries(ctx context.Context, userID int, from, until time.Time) ([]TimeEntry, error) {
	if !c.Configured() {
		c.log.Debug().Msg("Redmine is not configured, skipping time entry lookup")
		return nil, nil
	}

	var entries []TimeEntry
	for offset := 0; ; offset += pageSize {
		query := url.Values{}
		query.Set("user_id", strconv.Itoa(userID))
		query.Set("from", from.Format("2006-01-02"))
		query.Set("to", until.Format("2006-01-02"))
		query.Set("limit", strconv.Itoa(pageSize))
		query.Set("offset", strconv.Itoa(offset))

		var page timeEntriesResponse
		if err := c.get(ctx, "time_entries.json", query, &page); err != nil {
			return nil, err
		}

		entries = append(entries, page.TimeEntries...)
		if offset+len(page.TimeEntries) >= page.TotalCount || len(page.TimeEntries) == 0 {
			break
		}
	}
	return entries, nil
}

// GetIssues fetches issues by ID in batched requests, regardless of their
// status. Unknown IDs are silently absent from the result.
func (c *Client) GetIssues(ctx context.Context, ids []int) ([]Issue, error) {
	if !c.Configured() || len(ids) == 0 {
		return nil, nil
	}

	var issues []Issue
	for start := 0; start < len(ids); start += c.batchSize {
		end := start + c.batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			batch = append(batch, strconv.Itoa(id))
		}

		for offset := 0; ; offset += pageSize {
			query := url.Values{}
			query.Set("issue_id", strings.Join(batch, ","))
			query.Set("status_id", "*")
			query.Set("limit", strconv.Itoa(pageSize))
			query.Set("offset", strconv.Itoa(offset))

			var page issuesResponse
			if err := c.get(ctx, "issues.json", query, &page); err != nil {
				return nil, err
			}

			issues = append(issues, page.Issues...)
			if offset+len(page.Issues) >= page.TotalCount || len(page.Issues) == 0 {
				break
			}
		}
	}
	return issues, nil
}

// ListAssignedIssues returns the open issues currently assigned to a user,
// optionally scoped to the configured availability project.
func (c *Client) ListAssignedIssues(ctx context.Context, userID int) ([]Issue, error) {
	if !c.Configured() {
		c.log.Debug().Msg("Redmine is not configured, skipping issue lookup")
		return nil, nil
	}

	var issues []Issue
	for offset := 0; ; offset += pageSize {
		query := url.Values{}
		query.Set("assigned_to_id", strconv.Itoa(userID))
		if c.projectFilter != "" {
			query.Set("project_id", c.projectFilter)
		}
		query.Set("limit", strconv.Itoa(pageSize))
		query.Set("offset", strconv.Itoa(offset))

		var page issuesResponse
		if err := c.get(ctx, "issues.json", query, &page); err != nil {
			return nil, err
		}

		issues = append(issues, page.Issues...)
		if offset+len(page.Issues) >= page.TotalCount || len(page.Issues) == 0 {
			break
		}
	}
	return issues, nil
}
