package redmine

import (
	"fmt"
	"strings"
	"time"
)

// Date is a calendar date serialized as "2006-01-02" in the Redmine API.
type Date struct {
	time.Time
}

// UnmarshalJSON parses a quoted "2006-01-02" value. Null and empty values
// leave the date zero.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid redmine date %q: %w", s, err)
	}
	d.Time = parsed
	return nil
}

// MarshalJSON renders the date as a quoted "2006-01-02" value.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

// Ref is a numbered reference to another Redmine resource.
type Ref struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

// CustomField is a configurable field attached to issues and users.
type CustomField struct {
	ID    int         `json:"id"`
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// User is a Redmine account.
type User struct {
	ID        int    `json:"id"`
	Login     string `json:"login"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Mail      string `json:"mail"`
}

// Issue is a Redmine issue with the fields the importer and availability
// lookups need.
type Issue struct {
	ID           int           `json:"id"`
	Subject      string        `json:"subject"`
	Project      Ref           `json:"project"`
	Status       Ref           `json:"status"`
	AssignedTo   *Ref          `json:"assigned_to,omitempty"`
	Parent       *Ref          `json:"parent,omitempty"`
	CustomFields []CustomField `json:"custom_fields,omitempty"`
	StartDate    Date          `json:"start_date,omitempty"`
	DueDate      Date          `json:"due_date,omitempty"`
	UpdatedOn    time.Time     `json:"updated_on"`
}

// CustomFieldValue returns the string value of a named custom field, or ""
// when the field is absent or empty.
func (i *Issue) CustomFieldValue(name string) string {
	for _, field := range i.CustomFields {
		if field.Name != name {
			continue
		}
		if s, ok := field.Value.(string); ok {
			return s
		}
	}
	return ""
}

// TimeEntry is a logged unit of work on an issue or project.
type TimeEntry struct {
	ID       int     `json:"id"`
	Project  Ref     `json:"project"`
	Issue    *Ref    `json:"issue,omitempty"`
	User     Ref     `json:"user"`
	Activity Ref     `json:"activity"`
	Hours    float64 `json:"hours"`
	Comments string  `json:"comments"`
	SpentOn  Date    `json:"spent_on"`
}

type usersResponse struct {
	Users      []User `json:"users"`
	TotalCount int    `json:"total_count"`
	Offset     int    `json:"offset"`
	Limit      int    `json:"limit"`
}

type issuesResponse struct {
	Issues     []Issue `json:"issues"`
	TotalCount int     `json:"total_count"`
	Offset     int     `json:"offset"`
	Limit      int     `json:"limit"`
}

type timeEntriesResponse struct {
	TimeEntries []TimeEntry `json:"time_entries"`
	TotalCount  int         `json:"total_count"`
	Offset      int         `json:"offset"`
	Limit       int         `json:"limit"`
}
