// Package validation enforces the interval-overlap and validity-window
// invariants on time-bound records. Every function is a pure check of a
// candidate record against the existing records for the same subject; the
// persistence layer runs them inside its write transactions.
package validation

import (
	"errors"
	"fmt"
	"time"

	"github.com/laurensOost/925r/internal/models"
)

// ConflictError reports an invariant violation, tagged with the field that
// caused it so callers can surface a correctable message.
type ConflictError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Conflict builds a field-tagged validation error.
func Conflict(field, message string) error {
	return &ConflictError{Field: field, Message: message}
}

// AsConflict unwraps a ConflictError from err, if any.
func AsConflict(err error) (*ConflictError, bool) {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict, true
	}
	return nil, false
}

// intervalsOverlap reports whether two date intervals overlap. A nil end
// means the interval is ongoing and extends to infinity.
func intervalsOverlap(aStart time.Time, aEnd *time.Time, bStart time.Time, bEnd *time.Time) bool {
	aStart, bStart = models.DateOf(aStart), models.DateOf(bStart)
	if aEnd != nil && models.DateOf(*aEnd).Before(bStart) {
		return false
	}
	if bEnd != nil && models.DateOf(*bEnd).Before(aStart) {
		return false
	}
	return true
}
