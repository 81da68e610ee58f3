package evaluator

import (
	"context"
	"time"

	"github.com/availd-io/availd/internal/domain/availability"
)

// Weekdays matches when the moment falls on one of the configured ISO
// weekdays (1=Monday .. 7=Sunday).
//
// Config: days — sequence of integers. Non-numeric entries and values
// outside [1,7] are dropped; an empty effective set never matches.
type Weekdays struct{}

// Matches implements availability.Predicate.
func (Weekdays) Matches(_ context.Context, cfg map[string]any, moment time.Time, _ availability.Subject) (bool, error) {
	days := intSet(cfg["days"], func(n int) bool { return n >= 1 && n <= 7 })
	if len(days) == 0 {
		return false, nil
	}
	_, ok := days[isoWeekday(moment)]
	return ok, nil
}

// isoWeekday returns the ISO-8601 weekday (Monday=1 .. Sunday=7).
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

var _ availability.Predicate = Weekdays{}
