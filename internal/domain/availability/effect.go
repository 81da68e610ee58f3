// Package availability contains domain types for point-in-time availability
// evaluation: effects, rules, subjects, and the predicate capability.
package availability

import "fmt"

// Effect is the verdict a rule contributes when its predicate matches.
type Effect string

const (
	// EffectAllow marks the subject available.
	EffectAllow Effect = "allow"
	// EffectDeny marks the subject unavailable.
	EffectDeny Effect = "deny"
)

// Allows reports whether the effect permits availability.
func (e Effect) Allows() bool {
	return e == EffectAllow
}

// Valid reports whether the effect is one of the two known values.
func (e Effect) Valid() bool {
	return e == EffectAllow || e == EffectDeny
}

// ParseEffect converts a stored string into an Effect.
// Returns an error for anything other than "allow" or "deny".
func ParseEffect(s string) (Effect, error) {
	switch Effect(s) {
	case EffectAllow:
		return EffectAllow, nil
	case EffectDeny:
		return EffectDeny, nil
	default:
		return "", fmt.Errorf("unknown effect %q", s)
	}
}
