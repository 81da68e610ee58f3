package availability

import "time"

// Rule is one persisted policy clause. Rules belong to a subject through the
// (SubjectType, SubjectID) back-reference; the engine treats that pairing
// opaquely and only consumes the evaluation fields.
type Rule struct {
	// ID is the unique identifier for this rule. Assigned by the store.
	ID string
	// SubjectType identifies the class of the owning subject.
	SubjectType string
	// SubjectID identifies the owning subject within its class.
	SubjectID string
	// Type is the registry key identifying which predicate to apply.
	Type string
	// Config holds predicate-specific parameters. Nil is equivalent to empty.
	Config map[string]any
	// Effect is applied when the predicate matches.
	Effect Effect
	// Priority orders evaluation (lower first; ties keep insertion order).
	Priority int
	// Enabled excludes the rule from evaluation when false.
	Enabled bool
	// CreatedAt is when the rule was created (UTC).
	CreatedAt time.Time
}

// NormalizedConfig returns the rule config as a non-nil map. Predicates
// always receive a map, never nil.
func (r *Rule) NormalizedConfig() map[string]any {
	if r.Config == nil {
		return map[string]any{}
	}
	return r.Config
}
