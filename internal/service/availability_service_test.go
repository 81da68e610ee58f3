package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/availd-io/availd/internal/domain/availability"
	"github.com/availd-io/availd/internal/evaluator"
	"github.com/availd-io/availd/internal/registry"
)

// fakeSubject is an in-test availability.Subject.
type fakeSubject struct {
	class string
	tz    string
	def   availability.Effect
	rules []availability.Rule
	err   error
}

func (s *fakeSubject) Class() string                      { return s.class }
func (s *fakeSubject) DefaultEffect() availability.Effect { return s.def }
func (s *fakeSubject) Timezone() string                   { return s.tz }
func (s *fakeSubject) AvailabilityRules(context.Context) ([]availability.Rule, error) {
	return s.rules, s.err
}

// spyPredicate records the moments it sees and answers a fixed verdict.
type spyPredicate struct {
	match bool
	err   error
	seen  []time.Time
}

func (p *spyPredicate) Matches(_ context.Context, _ map[string]any, moment time.Time, _ availability.Subject) (bool, error) {
	p.seen = append(p.seen, moment)
	return p.match, p.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func builtinEngine(t *testing.T, inv evaluator.ResolverConfig) *AvailabilityService {
	t.Helper()
	reg := registry.New(&evaluator.Factory{Inventory: inv})
	evaluator.InstallBuiltins(reg)
	return NewAvailabilityService(reg, testLogger())
}

func rule(id, typ string, cfg map[string]any, effect availability.Effect, priority int) availability.Rule {
	return availability.Rule{
		ID:       id,
		Type:     typ,
		Config:   cfg,
		Effect:   effect,
		Priority: priority,
		Enabled:  true,
	}
}

func TestIsAvailableDefaultEffectWithoutRules(t *testing.T) {
	engine := builtinEngine(t, evaluator.ResolverConfig{})
	moment := time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)

	for _, def := range []availability.Effect{availability.EffectAllow, availability.EffectDeny} {
		subject := &fakeSubject{class: "Room", tz: "UTC", def: def}
		got, err := engine.IsAvailable(context.Background(), subject, moment)
		if err != nil {
			t.Fatalf("default %s: %v", def, err)
		}
		if got != def.Allows() {
			t.Errorf("default %s: got %v", def, got)
		}
	}
}

func TestIsAvailableLastMatchWins(t *testing.T) {
	engine := builtinEngine(t, evaluator.ResolverConfig{})
	moment := time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)

	// All three match; the whole-day window makes that trivially true.
	always := map[string]any{"from": "00:00", "to": "00:00"}
	subject := &fakeSubject{
		class: "Room", tz: "UTC", def: availability.EffectDeny,
		rules: []availability.Rule{
			rule("r1", evaluator.TypeTimeOfDay, always, availability.EffectAllow, 10),
			rule("r2", evaluator.TypeTimeOfDay, always, availability.EffectDeny, 50),
			rule("r3", evaluator.TypeTimeOfDay, always, availability.EffectAllow, 100),
		},
	}

	got, err := engine.IsAvailable(context.Background(), subject, moment)
	if err != nil {
		t.Fatal(err)
	}
	if !got {
		t.Error("the highest-priority matching rule (allow) should win")
	}

	// Flip the final rule and the verdict flips with it.
	subject.rules[2].Effect = availability.EffectDeny
	got, err = engine.IsAvailable(context.Background(), subject, moment)
	if err != nil {
		t.Fatal(err)
	}
	if got {
		t.Error("a deny at the highest priority should win")
	}
}

func TestIsAvailableSortsByPriority(t *testing.T) {
	engine := builtinEngine(t, evaluator.ResolverConfig{})
	moment := time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)

	always := map[string]any{"from": "00:00", "to": "00:00"}
	subject := &fakeSubject{
		class: "Room", tz: "UTC", def: availability.EffectDeny,
		// Deliberately out of order: the p90 allow must still win.
		rules: []availability.Rule{
			rule("high", evaluator.TypeTimeOfDay, always, availability.EffectAllow, 90),
			rule("low", evaluator.TypeTimeOfDay, always, availability.EffectDeny, 10),
		},
	}

	got, err := engine.IsAvailable(context.Background(), subject, moment)
	if err != nil {
		t.Fatal(err)
	}
	if !got {
		t.Error("rules must be applied in ascending priority regardless of store order")
	}
}

func TestIsAvailableEqualPriorityKeepsStoreOrder(t *testing.T) {
	engine := builtinEngine(t, evaluator.ResolverConfig{})
	moment := time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)

	always := map[string]any{"from": "00:00", "to": "00:00"}
	subject := &fakeSubject{
		class: "Room", tz: "UTC", def: availability.EffectDeny,
		rules: []availability.Rule{
			rule("first", evaluator.TypeTimeOfDay, always, availability.EffectDeny, 10),
			rule("second", evaluator.TypeTimeOfDay, always, availability.EffectAllow, 10),
		},
	}

	got, err := engine.IsAvailable(context.Background(), subject, moment)
	if err != nil {
		t.Fatal(err)
	}
	if !got {
		t.Error("equal priorities must keep store order, so the later rule wins")
	}
}

func TestIsAvailableSkipsDisabledRules(t *testing.T) {
	engine := builtinEngine(t, evaluator.ResolverConfig{})
	moment := time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)

	deny := rule("off", evaluator.TypeTimeOfDay, map[string]any{"from": "00:00", "to": "00:00"}, availability.EffectDeny, 10)
	deny.Enabled = false
	subject := &fakeSubject{
		class: "Room", tz: "UTC", def: availability.EffectAllow,
		rules: []availability.Rule{deny},
	}

	got, err := engine.IsAvailable(context.Background(), subject, moment)
	if err != nil {
		t.Fatal(err)
	}
	if !got {
		t.Error("a disabled rule must not affect the outcome")
	}
}

func TestIsAvailableSkipsUnregisteredTypes(t *testing.T) {
	engine := builtinEngine(t, evaluator.ResolverConfig{})
	moment := time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)

	subject := &fakeSubject{
		class: "Room", tz: "UTC", def: availability.EffectAllow,
		rules: []availability.Rule{
			rule("mystery", "lunar_phase", nil, availability.EffectDeny, 10),
		},
	}

	got, err := engine.IsAvailable(context.Background(), subject, moment)
	if err != nil {
		t.Fatal(err)
	}
	if !got {
		t.Error("a rule with no registered predicate is skipped, not failed")
	}
}

func TestIsAvailableLocalizesMomentWithoutMutation(t *testing.T) {
	spy := &spyPredicate{match: true}
	reg := registry.New(nil)
	reg.Register("spy", availability.Predicate(spy))
	engine := NewAvailabilityService(reg, testLogger())

	moment := time.Date(2025, 6, 4, 16, 0, 0, 0, time.UTC)
	original := moment
	subject := &fakeSubject{
		class: "Room", tz: "America/New_York", def: availability.EffectDeny,
		rules: []availability.Rule{rule("r", "spy", nil, availability.EffectAllow, 10)},
	}

	if _, err := engine.IsAvailable(context.Background(), subject, moment); err != nil {
		t.Fatal(err)
	}
	if !moment.Equal(original) || moment.Location() != original.Location() {
		t.Error("caller's moment must never change")
	}

	if len(spy.seen) != 1 {
		t.Fatalf("predicate ran %d times, want 1", len(spy.seen))
	}
	seen := spy.seen[0]
	if !seen.Equal(moment) {
		t.Error("localization must preserve the instant")
	}
	if seen.Location().String() != "America/New_York" {
		t.Errorf("predicate saw zone %s, want America/New_York", seen.Location())
	}
	if seen.Hour() != 12 {
		t.Errorf("16:00 UTC should read 12:00 in New York in June, got %02d:00", seen.Hour())
	}
}

func TestIsAvailableUnknownZoneFallsBack(t *testing.T) {
	spy := &spyPredicate{match: true}
	reg := registry.New(nil)
	reg.Register("spy", availability.Predicate(spy))
	engine := NewAvailabilityService(reg, testLogger())

	subject := &fakeSubject{
		class: "Room", tz: "Mars/Olympus", def: availability.EffectDeny,
		rules: []availability.Rule{rule("r", "spy", nil, availability.EffectAllow, 10)},
	}

	got, err := engine.IsAvailable(context.Background(), subject, time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("an unknown zone must not fail the evaluation: %v", err)
	}
	if !got {
		t.Error("evaluation should proceed in the fallback zone")
	}
	if len(spy.seen) != 1 || spy.seen[0].Location() != time.Local {
		t.Error("the process-default zone should be used for unknown names")
	}
}

func TestIsAvailableRuleLoadErrorWraps(t *testing.T) {
	engine := builtinEngine(t, evaluator.ResolverConfig{})
	boom := errors.New("store offline")
	subject := &fakeSubject{class: "Room", tz: "UTC", def: availability.EffectAllow, err: boom}

	_, err := engine.IsAvailable(context.Background(), subject, time.Now())
	if !errors.Is(err, boom) {
		t.Fatalf("store errors must propagate, got %v", err)
	}
}

func TestIsAvailablePredicateErrorCarriesRuleID(t *testing.T) {
	boom := errors.New("inventory offline")
	spy := &spyPredicate{err: boom}
	reg := registry.New(nil)
	reg.Register("gate", availability.Predicate(spy))
	engine := NewAvailabilityService(reg, testLogger())

	subject := &fakeSubject{
		class: "Room", tz: "UTC", def: availability.EffectAllow,
		rules: []availability.Rule{rule("rule-77", "gate", nil, availability.EffectAllow, 10)},
	}

	_, err := engine.IsAvailable(context.Background(), subject, time.Now())
	if !errors.Is(err, boom) {
		t.Fatalf("predicate errors must propagate, got %v", err)
	}
	if !strings.Contains(err.Error(), "rule-77") {
		t.Errorf("error should name the failing rule, got %q", err)
	}
}

func TestIsAvailableBusinessHours(t *testing.T) {
	engine := builtinEngine(t, evaluator.ResolverConfig{})
	subject := &fakeSubject{
		class: "Room", tz: "America/New_York", def: availability.EffectDeny,
		rules: []availability.Rule{
			rule("weekdays", evaluator.TypeWeekdays,
				map[string]any{"days": []any{1, 2, 3, 4, 5}}, availability.EffectAllow, 10),
			rule("after-hours", evaluator.TypeTimeOfDay,
				map[string]any{"from": "17:00:01", "to": "08:59:59"}, availability.EffectDeny, 20),
			rule("holidays", evaluator.TypeBlackoutDates,
				map[string]any{"dates": []any{"2025-12-25"}}, availability.EffectDeny, 80),
		},
	}

	cases := []struct {
		name   string
		moment time.Time
		want   bool
	}{
		{"weekday afternoon", time.Date(2025, 6, 4, 17, 0, 0, 0, time.UTC), true},  // Wed 13:00 NYC
		{"weekend", time.Date(2025, 6, 7, 17, 0, 0, 0, time.UTC), false},           // Sat 13:00 NYC
		{"weekday night", time.Date(2025, 6, 5, 3, 0, 0, 0, time.UTC), false},      // Wed 23:00 NYC
		{"holiday", time.Date(2025, 12, 25, 18, 0, 0, 0, time.UTC), false},         // Thu 13:00 NYC
	}
	for _, tc := range cases {
		got, err := engine.IsAvailable(context.Background(), subject, tc.moment)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsAvailableOvernightWindow(t *testing.T) {
	engine := builtinEngine(t, evaluator.ResolverConfig{})
	subject := &fakeSubject{
		class: "Batch", tz: "UTC", def: availability.EffectDeny,
		rules: []availability.Rule{
			rule("window", evaluator.TypeTimeOfDay,
				map[string]any{"from": "22:00", "to": "06:00"}, availability.EffectAllow, 10),
		},
	}

	cases := []struct {
		moment time.Time
		want   bool
	}{
		{time.Date(2025, 6, 4, 23, 30, 0, 0, time.UTC), true},
		{time.Date(2025, 6, 5, 5, 30, 0, 0, time.UTC), true},
		{time.Date(2025, 6, 5, 6, 0, 0, 0, time.UTC), true},
		{time.Date(2025, 6, 5, 14, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		got, err := engine.IsAvailable(context.Background(), subject, tc.moment)
		if err != nil {
			t.Fatal(err)
		}
		if got != tc.want {
			t.Errorf("%v: got %v, want %v", tc.moment, got, tc.want)
		}
	}
}

func TestIsAvailableInventoryWildcard(t *testing.T) {
	engine := builtinEngine(t, evaluator.ResolverConfig{
		Resolvers: map[string]any{
			"Showroom": evaluator.ResolverFunc(func(context.Context, availability.Subject, time.Time, map[string]any) (any, error) {
				return 0, nil
			}),
			"*": evaluator.ResolverFunc(func(context.Context, availability.Subject, time.Time, map[string]any) (any, error) {
				return 100, nil
			}),
		},
	})
	subject := &fakeSubject{
		class: "Widget", tz: "UTC", def: availability.EffectDeny,
		rules: []availability.Rule{
			rule("stock", evaluator.TypeInventoryGate,
				map[string]any{"min": 50}, availability.EffectAllow, 10),
		},
	}

	got, err := engine.IsAvailable(context.Background(), subject, time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if !got {
		t.Error("a class without a dedicated resolver should use the wildcard")
	}
}

func TestIsAvailableDeterministic(t *testing.T) {
	engine := builtinEngine(t, evaluator.ResolverConfig{})
	moment := time.Date(2025, 6, 4, 17, 0, 0, 0, time.UTC)
	subject := &fakeSubject{
		class: "Room", tz: "America/New_York", def: availability.EffectDeny,
		rules: []availability.Rule{
			rule("weekdays", evaluator.TypeWeekdays,
				map[string]any{"days": []any{1, 2, 3, 4, 5}}, availability.EffectAllow, 10),
		},
	}

	first, err := engine.IsAvailable(context.Background(), subject, moment)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		got, err := engine.IsAvailable(context.Background(), subject, moment)
		if err != nil {
			t.Fatal(err)
		}
		if got != first {
			t.Fatalf("run %d flipped the verdict", i)
		}
	}
}
