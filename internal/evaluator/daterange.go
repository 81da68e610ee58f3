package evaluator

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/availd-io/availd/internal/domain/availability"
)

// DateRange matches when the moment falls inside a date interval.
//
// Config: kind — "absolute" (default) or "yearly".
//
// Absolute: from, to — "YYYY-MM-DD" in the subject's zone. Reversed bounds
// are swapped. The interval spans from the start of the from-day through the
// end of the to-day, inclusive.
//
// Yearly: from, to — "MM-DD". Each boundary and the moment are encoded as
// month*100+day; when from > to the interval wraps across the year end.
// The year of the moment never participates.
type DateRange struct{}

// Matches implements availability.Predicate.
func (DateRange) Matches(_ context.Context, cfg map[string]any, moment time.Time, _ availability.Subject) (bool, error) {
	kind, _ := stringValue(cfg["kind"])
	if kind == "yearly" {
		return matchYearlyRange(cfg, moment), nil
	}
	return matchAbsoluteRange(cfg, moment), nil
}

func matchAbsoluteRange(cfg map[string]any, moment time.Time) bool {
	loc := moment.Location()
	from, ok := parseConfigDate(cfg["from"], loc)
	if !ok {
		return false
	}
	to, ok := parseConfigDate(cfg["to"], loc)
	if !ok {
		return false
	}
	if from.After(to) {
		from, to = to, from
	}

	// [from.startOfDay, to.endOfDay] == [from, to+1day)
	end := to.AddDate(0, 0, 1)
	return !moment.Before(from) && moment.Before(end)
}

func matchYearlyRange(cfg map[string]any, moment time.Time) bool {
	fromKey, ok := monthDayKey(cfg["from"])
	if !ok {
		return false
	}
	toKey, ok := monthDayKey(cfg["to"])
	if !ok {
		return false
	}

	momentKey := int(moment.Month())*100 + moment.Day()
	if fromKey <= toKey {
		return fromKey <= momentKey && momentKey <= toKey
	}
	// Wrap across the year end (e.g. 11-01 .. 02-28).
	return momentKey >= fromKey || momentKey <= toKey
}

// parseConfigDate parses a "YYYY-MM-DD" config value at start of day in loc.
func parseConfigDate(v any, loc *time.Location) (time.Time, bool) {
	s, ok := stringValue(v)
	if !ok || s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// monthDayKey parses an "MM-DD" config value into month*100+day.
func monthDayKey(v any) (int, bool) {
	s, ok := stringValue(v)
	if !ok {
		return 0, false
	}
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, false
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || month < 1 || month > 12 {
		return 0, false
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || day < 1 || day > 31 {
		return 0, false
	}
	return month*100 + day, true
}

var _ availability.Predicate = DateRange{}
