package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/availd-io/availd/internal/domain/availability"
	"github.com/availd-io/availd/internal/evaluator"
	"github.com/availd-io/availd/internal/registry"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if !labelsMatch(m, labels) {
				continue
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func labelsMatch(m *dto.Metric, labels map[string]string) bool {
	seen := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		seen[lp.GetName()] = lp.GetValue()
	}
	for k, v := range labels {
		if seen[k] != v {
			return false
		}
	}
	return true
}

func TestMetricsRecordEvaluations(t *testing.T) {
	promReg := prometheus.NewRegistry()
	metrics := NewMetrics(promReg)

	reg := registry.New(&evaluator.Factory{})
	evaluator.InstallBuiltins(reg)
	engine := NewAvailabilityService(reg, testLogger(), WithMetrics(metrics))

	subject := &fakeSubject{
		class: "Room", tz: "UTC", def: availability.EffectDeny,
		rules: []availability.Rule{
			rule("window", evaluator.TypeTimeOfDay,
				map[string]any{"from": "00:00", "to": "00:00"}, availability.EffectAllow, 10),
			rule("mystery", "lunar_phase", nil, availability.EffectDeny, 20),
		},
	}

	moment := time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)
	if _, err := engine.IsAvailable(context.Background(), subject, moment); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.IsAvailable(context.Background(), subject, moment); err != nil {
		t.Fatal(err)
	}

	if got := counterValue(t, promReg, "availd_evaluations_total", map[string]string{"result": "available"}); got != 2 {
		t.Errorf("evaluations_total{result=available} = %v, want 2", got)
	}
	if got := counterValue(t, promReg, "availd_rule_matches_total", map[string]string{"type": evaluator.TypeTimeOfDay}); got != 2 {
		t.Errorf("rule_matches_total{type=time_of_day} = %v, want 2", got)
	}
	if got := counterValue(t, promReg, "availd_rules_skipped_total", nil); got != 2 {
		t.Errorf("rules_skipped_total = %v, want 2", got)
	}
}

func TestMetricsAreOptional(t *testing.T) {
	reg := registry.New(&evaluator.Factory{})
	evaluator.InstallBuiltins(reg)
	engine := NewAvailabilityService(reg, testLogger())

	subject := &fakeSubject{class: "Room", tz: "UTC", def: availability.EffectAllow}
	if _, err := engine.IsAvailable(context.Background(), subject, time.Now()); err != nil {
		t.Fatalf("engine without metrics should work: %v", err)
	}
}
