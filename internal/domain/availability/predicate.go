package availability

import (
	"context"
	"time"
)

// Predicate decides whether a rule applies at a moment. The moment is already
// localized to the subject's zone; implementations must not mutate it or the
// subject.
//
// Predicates are total with respect to malformed config: missing keys, wrong
// types, unparseable strings, and out-of-range values return (false, nil),
// never an error. The error return exists for side-effecting predicates whose
// external lookups can fail; those failures propagate to the caller.
type Predicate interface {
	Matches(ctx context.Context, cfg map[string]any, moment time.Time, subject Subject) (bool, error)
}

// SideEffecting marks predicates that consult external state. Pure predicates
// do not implement it.
type SideEffecting interface {
	SideEffecting() bool
}

// Engine answers the single availability question.
type Engine interface {
	// IsAvailable reports whether the subject is available at the given
	// moment. The moment passed in is never mutated.
	IsAvailable(ctx context.Context, subject Subject, moment time.Time) (bool, error)
}
