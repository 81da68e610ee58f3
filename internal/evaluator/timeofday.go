package evaluator

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/availd-io/availd/internal/domain/availability"
)

// TimeOfDay matches when the moment's local second-of-day falls inside the
// configured window, endpoints inclusive.
//
// Config: from, to — "HH:MM" or "HH:MM:SS", 24-hour. Equal endpoints mean
// the whole day; from > to wraps past midnight (the wrap endpoint is
// included, so 06:00 matches a 22:00-06:00 window).
type TimeOfDay struct{}

// Matches implements availability.Predicate.
func (TimeOfDay) Matches(_ context.Context, cfg map[string]any, moment time.Time, _ availability.Subject) (bool, error) {
	from, ok := secondOfDay(cfg["from"])
	if !ok {
		return false, nil
	}
	to, ok := secondOfDay(cfg["to"])
	if !ok {
		return false, nil
	}

	s := moment.Hour()*3600 + moment.Minute()*60 + moment.Second()
	switch {
	case from == to:
		return true, nil
	case from < to:
		return from <= s && s <= to, nil
	default:
		return s >= from || s <= to, nil
	}
}

// secondOfDay parses a clock value into seconds since midnight.
func secondOfDay(v any) (int, bool) {
	raw, ok := stringValue(v)
	if !ok {
		return 0, false
	}
	parts := strings.Split(raw, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, false
	}

	fields := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0, false
		}
		fields[i] = n
	}
	if fields[0] > 23 || fields[1] > 59 || fields[2] > 59 {
		return 0, false
	}
	return fields[0]*3600 + fields[1]*60 + fields[2], true
}

var _ availability.Predicate = TimeOfDay{}
