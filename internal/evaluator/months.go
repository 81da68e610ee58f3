package evaluator

import (
	"context"
	"time"

	"github.com/availd-io/availd/internal/domain/availability"
)

// MonthsOfYear matches when the moment falls in one of the configured ISO
// months (1=January .. 12=December).
//
// Config: months — sequence of integers. Non-numeric entries are dropped.
// Out-of-range values are kept but can never equal a real month, so they
// simply never match.
type MonthsOfYear struct{}

// Matches implements availability.Predicate.
func (MonthsOfYear) Matches(_ context.Context, cfg map[string]any, moment time.Time, _ availability.Subject) (bool, error) {
	months := intSet(cfg["months"], nil)
	if len(months) == 0 {
		return false, nil
	}
	_, ok := months[int(moment.Month())]
	return ok, nil
}

var _ availability.Predicate = MonthsOfYear{}
