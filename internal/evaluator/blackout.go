package evaluator

import (
	"context"
	"time"

	"github.com/availd-io/availd/internal/domain/availability"
)

const dateLayout = "2006-01-02"

// BlackoutDates matches when the moment's local calendar date equals one of
// the configured dates. Time of day is ignored.
//
// Config: dates — sequence of "YYYY-MM-DD" strings. Non-strings, empty
// strings, and unparseable strings are dropped; duplicates collapse.
type BlackoutDates struct{}

// Matches implements availability.Predicate.
func (BlackoutDates) Matches(_ context.Context, cfg map[string]any, moment time.Time, _ availability.Subject) (bool, error) {
	items := sequence(cfg["dates"])
	if len(items) == 0 {
		return false, nil
	}

	loc := moment.Location()
	dates := make(map[string]struct{}, len(items))
	for _, item := range items {
		s, ok := stringValue(item)
		if !ok || s == "" {
			continue
		}
		d, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			continue
		}
		dates[d.Format(dateLayout)] = struct{}{}
	}
	if len(dates) == 0 {
		return false, nil
	}

	_, ok := dates[moment.Format(dateLayout)]
	return ok, nil
}

var _ availability.Predicate = BlackoutDates{}
