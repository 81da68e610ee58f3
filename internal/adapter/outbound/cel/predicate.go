// Package cel provides a CEL-based extension predicate. It is not one of the
// seven builtins; hosts register it under a rule type of their choosing to
// express one-off conditions without writing a new evaluator.
package cel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/availd-io/availd/internal/domain/availability"
)

// maxExpressionLength bounds rule expressions; anything longer never matches.
const maxExpressionLength = 1024

// Predicate evaluates config["expression"] as a CEL program over the
// localized moment and the subject. Programs are compiled once per
// expression and cached; the registry's predicate cache keeps a single
// Predicate instance alive across evaluations.
//
// Available variables: year, month, day, weekday (ISO, 1=Monday), hour,
// minute, second, second_of_day, date ("YYYY-MM-DD"), zone, subject_class.
//
// Like the builtins, the predicate is total: an invalid, oversized, or
// non-boolean expression simply never matches.
type Predicate struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program // expression -> program (nil = invalid)
}

// NewPredicate creates the CEL predicate with the moment environment.
func NewPredicate() (*Predicate, error) {
	env, err := cel.NewEnv(
		cel.Variable("year", cel.IntType),
		cel.Variable("month", cel.IntType),
		cel.Variable("day", cel.IntType),
		cel.Variable("weekday", cel.IntType),
		cel.Variable("hour", cel.IntType),
		cel.Variable("minute", cel.IntType),
		cel.Variable("second", cel.IntType),
		cel.Variable("second_of_day", cel.IntType),
		cel.Variable("date", cel.StringType),
		cel.Variable("zone", cel.StringType),
		cel.Variable("subject_class", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	return &Predicate{
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// Matches implements availability.Predicate.
func (p *Predicate) Matches(_ context.Context, cfg map[string]any, moment time.Time, subject availability.Subject) (bool, error) {
	expr, ok := cfg["expression"].(string)
	if !ok || expr == "" || len(expr) > maxExpressionLength {
		return false, nil
	}

	prg := p.program(expr)
	if prg == nil {
		return false, nil
	}

	out, _, err := prg.Eval(map[string]any{
		"year":          moment.Year(),
		"month":         int(moment.Month()),
		"day":           moment.Day(),
		"weekday":       isoWeekday(moment),
		"hour":          moment.Hour(),
		"minute":        moment.Minute(),
		"second":        moment.Second(),
		"second_of_day": moment.Hour()*3600 + moment.Minute()*60 + moment.Second(),
		"date":          moment.Format("2006-01-02"),
		"zone":          moment.Location().String(),
		"subject_class": subject.Class(),
	})
	if err != nil {
		return false, nil
	}
	result, ok := out.Value().(bool)
	return ok && result, nil
}

// program compiles and caches the expression. Invalid expressions cache a
// nil program so they are compiled at most once.
func (p *Predicate) program(expr string) cel.Program {
	p.mu.RLock()
	prg, ok := p.programs[expr]
	p.mu.RUnlock()
	if ok {
		return prg
	}

	prg = p.compile(expr)
	p.mu.Lock()
	p.programs[expr] = prg
	p.mu.Unlock()
	return prg
}

func (p *Predicate) compile(expr string) cel.Program {
	ast, issues := p.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil
	}
	prg, err := p.env.Program(ast, cel.EvalOptions(cel.OptOptimize))
	if err != nil {
		return nil
	}
	return prg
}

// isoWeekday returns the ISO-8601 weekday (Monday=1 .. Sunday=7).
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// Compile-time interface verification.
var _ availability.Predicate = (*Predicate)(nil)
