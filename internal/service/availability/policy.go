package availability

import (
	"time"

	"github.com/laurensOost/925r/internal/models"
	"github.com/laurensOost/925r/internal/redmine"
)

// Issue freshness colors.
const (
	ColorGreen  = "green"
	ColorYellow = "yellow"
	ColorRed    = "red"
)

// Redmine status IDs treated as "being worked on".
const (
	statusInProgress = 2
	statusReady      = 9
)

// IssueColorPolicy decides the freshness color of an open issue for a day.
type IssueColorPolicy interface {
	Color(issue *redmine.Issue, date time.Time) string
}

// RecencyPolicy is the default policy. For today, an issue must have started
// and been touched within the last day to count at all; its status then
// decides green (in progress or ready) versus yellow. For any other day the
// issue is green when its due date has not passed and it was touched within a
// day of that date, red otherwise.
type RecencyPolicy struct {
	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// Color implements IssueColorPolicy.
func (p *RecencyPolicy) Color(issue *redmine.Issue, date time.Time) string {
	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}
	day := models.DateOf(date)

	if models.SameDate(date, now) {
		started := !issue.StartDate.IsZero() && !issue.StartDate.After(day)
		fresh := !issue.UpdatedOn.Before(now.AddDate(0, 0, -1))
		if started && fresh {
			if issue.Status.ID == statusInProgress || issue.Status.ID == statusReady {
				return ColorGreen
			}
			return ColorYellow
		}
		return ColorRed
	}

	due := !issue.DueDate.IsZero() && !issue.DueDate.Before(day)
	fresh := !issue.UpdatedOn.Before(day.AddDate(0, 0, -1))
	if due && fresh {
		return ColorGreen
	}
	return ColorRed
}
