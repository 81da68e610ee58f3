// Package service contains application services.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/availd-io/availd/internal/domain/availability"
	"github.com/availd-io/availd/internal/registry"
)

// AvailabilityService implements availability.Engine: it folds a subject's
// enabled rules, in priority-ascending order, into a final allow/deny.
//
// Last match wins. Callers layer broad allow/deny bands at low priority and
// narrow overrides at high priority. Rules whose type has no registered
// predicate are skipped, not failed. The only error path is a side-effecting
// predicate whose external lookup fails; that error carries the rule ID and
// propagates to the caller.
type AvailabilityService struct {
	registry *registry.Registry
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
}

// AvailabilityServiceOption configures AvailabilityService.
type AvailabilityServiceOption func(*AvailabilityService)

// WithMetrics attaches evaluation metrics.
func WithMetrics(m *Metrics) AvailabilityServiceOption {
	return func(s *AvailabilityService) {
		s.metrics = m
	}
}

// NewAvailabilityService creates the engine on top of a predicate registry.
func NewAvailabilityService(reg *registry.Registry, logger *slog.Logger, opts ...AvailabilityServiceOption) *AvailabilityService {
	s := &AvailabilityService{
		registry: reg,
		logger:   logger,
		tracer:   otel.Tracer("availd/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsAvailable reports whether the subject is available at the given moment.
//
// The moment is localized to the subject's zone before any predicate sees it;
// the caller's value is never mutated (time.Time.In returns a copy). An
// unknown zone name falls back to the process-default zone rather than
// failing the evaluation.
func (s *AvailabilityService) IsAvailable(ctx context.Context, subject availability.Subject, moment time.Time) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "availability.IsAvailable",
		trace.WithAttributes(attribute.String("subject.class", subject.Class())))
	defer span.End()

	start := time.Now()

	local := moment.In(s.subjectLocation(subject))

	rules, err := subject.AvailabilityRules(ctx)
	if err != nil {
		return false, fmt.Errorf("load availability rules: %w", err)
	}

	// Stores promise priority-ascending stable order; re-sorting stably here
	// costs little and makes the ordering invariant independent of the store.
	ordered := make([]availability.Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	state := subject.DefaultEffect().Allows()
	for i := range ordered {
		rule := &ordered[i]
		if !rule.Enabled {
			continue
		}

		predicate := s.registry.Get(rule.Type)
		if predicate == nil {
			s.logger.Debug("skipping rule with unregistered type",
				"rule_id", rule.ID, "type", rule.Type)
			if s.metrics != nil {
				s.metrics.RulesSkippedTotal.Inc()
			}
			continue
		}

		matched, err := predicate.Matches(ctx, rule.NormalizedConfig(), local, subject)
		if err != nil {
			return false, fmt.Errorf("rule %s (%s): %w", rule.ID, rule.Type, err)
		}
		if matched {
			state = rule.Effect.Allows()
			if s.metrics != nil {
				s.metrics.RuleMatchesTotal.WithLabelValues(rule.Type).Inc()
			}
		}
	}

	if s.metrics != nil {
		result := "unavailable"
		if state {
			result = "available"
		}
		s.metrics.EvaluationsTotal.WithLabelValues(result).Inc()
		s.metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	}
	span.SetAttributes(attribute.Bool("availability.result", state))

	return state, nil
}

// subjectLocation resolves the subject's zone, falling back to the process
// default for empty or unknown names.
func (s *AvailabilityService) subjectLocation(subject availability.Subject) *time.Location {
	tz := subject.Timezone()
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.logger.Warn("unknown subject timezone, using process default",
			"subject_class", subject.Class(), "timezone", tz)
		return time.Local
	}
	return loc
}

// Compile-time interface verification.
var _ availability.Engine = (*AvailabilityService)(nil)
