package evaluator

import (
	"github.com/availd-io/availd/internal/domain/availability"
	"github.com/availd-io/availd/internal/registry"
)

// Canonical rule-type names for the builtin predicates.
const (
	TypeWeekdays      = "weekdays"
	TypeMonthsOfYear  = "months_of_year"
	TypeBlackoutDates = "blackout_dates"
	TypeTimeOfDay     = "time_of_day"
	TypeDateRange     = "date_range"
	TypeRRule         = "rrule"
	TypeInventoryGate = "inventory_gate"
)

// BuiltinNames lists the identifiers the Factory resolves, in registration
// order.
var BuiltinNames = []string{
	TypeWeekdays,
	TypeMonthsOfYear,
	TypeBlackoutDates,
	TypeTimeOfDay,
	TypeDateRange,
	TypeRRule,
	TypeInventoryGate,
}

// Factory resolves builtin identifiers to predicate instances. It satisfies
// registry.Factory so hosts can register rule types declaratively.
type Factory struct {
	// Inventory configures the inventory_gate resolver adapter.
	Inventory ResolverConfig
}

// New implements registry.Factory. Unknown identifiers yield nil.
func (f *Factory) New(name string) availability.Predicate {
	switch name {
	case TypeWeekdays:
		return Weekdays{}
	case TypeMonthsOfYear:
		return MonthsOfYear{}
	case TypeBlackoutDates:
		return BlackoutDates{}
	case TypeTimeOfDay:
		return TimeOfDay{}
	case TypeDateRange:
		return DateRange{}
	case TypeRRule:
		return NewRRule()
	case TypeInventoryGate:
		return NewInventoryGate(f.Inventory)
	default:
		return nil
	}
}

// InstallBuiltins registers every builtin under its canonical name as an
// identifier definition, exercising the registry's lazy factory path.
func InstallBuiltins(reg *registry.Registry) {
	for _, name := range BuiltinNames {
		reg.Register(name, name)
	}
}

var _ registry.Factory = (*Factory)(nil)
