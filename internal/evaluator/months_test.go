package evaluator

import (
	"testing"
	"time"
)

func TestMonthsOfYearMatches(t *testing.T) {
	june := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	december := time.Date(2025, 12, 15, 12, 0, 0, 0, time.UTC)

	cfg := map[string]any{"months": []any{6, 7, 8}}
	if !matches(t, MonthsOfYear{}, cfg, june) {
		t.Error("June should match summer months")
	}
	if matches(t, MonthsOfYear{}, cfg, december) {
		t.Error("December should not match summer months")
	}
}

func TestMonthsOfYearOutOfRangeNeverMatches(t *testing.T) {
	june := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	// Out-of-range values are kept but cannot equal a real month.
	if matches(t, MonthsOfYear{}, map[string]any{"months": []any{0, 13, -6}}, june) {
		t.Error("out-of-range months should never match")
	}
	// A valid month alongside garbage still matches.
	if !matches(t, MonthsOfYear{}, map[string]any{"months": []any{"6", 13, "x"}}, june) {
		t.Error("valid coerced month should match despite garbage entries")
	}
}

func TestMonthsOfYearMissingOrEmpty(t *testing.T) {
	june := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	for _, months := range []any{nil, []any{}, []any{"x"}} {
		if matches(t, MonthsOfYear{}, map[string]any{"months": months}, june) {
			t.Errorf("months=%v should never match", months)
		}
	}
}
