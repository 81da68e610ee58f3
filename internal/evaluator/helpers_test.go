package evaluator

import (
	"context"
	"testing"
	"time"

	"github.com/availd-io/availd/internal/domain/availability"
)

// testSubject implements availability.Subject for predicate tests.
type testSubject struct {
	class string
	tz    string
	def   availability.Effect
	rules []availability.Rule
}

func (s *testSubject) Class() string                      { return s.class }
func (s *testSubject) DefaultEffect() availability.Effect { return s.def }
func (s *testSubject) Timezone() string                   { return s.tz }
func (s *testSubject) AvailabilityRules(context.Context) ([]availability.Rule, error) {
	return s.rules, nil
}

// mustZone loads an IANA zone or fails the test.
func mustZone(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("LoadLocation(%s): %v", name, err)
	}
	return loc
}

// matches runs a pure predicate and fails on unexpected errors.
func matches(t *testing.T, p availability.Predicate, cfg map[string]any, moment time.Time) bool {
	t.Helper()
	ok, err := p.Matches(context.Background(), cfg, moment, &testSubject{class: "Test"})
	if err != nil {
		t.Fatalf("Matches returned error: %v", err)
	}
	return ok
}
