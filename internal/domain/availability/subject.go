package availability

import "context"

// Subject is anything availability can be decided for.
type Subject interface {
	// Class names the subject's type. The inventory resolver adapter keys
	// its per-class resolver cache on this value.
	Class() string
	// DefaultEffect is the verdict when no rule matches.
	DefaultEffect() Effect
	// Timezone returns the subject's IANA zone name. Empty string means
	// "use the process-default zone".
	Timezone() string
	// AvailabilityRules returns the subject's enabled rules in
	// priority-ascending order, stable with respect to insertion order.
	AvailabilityRules(ctx context.Context) ([]Rule, error)
}

// StoredSubject binds a persisted subject record to the store that holds its
// rules. It is the store-backed Subject implementation used by the CLI.
type StoredSubject struct {
	record SubjectRecord
	store  RuleStore
}

// NewStoredSubject creates a Subject backed by the given record and store.
func NewStoredSubject(record SubjectRecord, store RuleStore) *StoredSubject {
	return &StoredSubject{record: record, store: store}
}

// Class returns the record's subject type.
func (s *StoredSubject) Class() string { return s.record.Type }

// DefaultEffect returns the record's default effect, falling back to deny
// when the record carries an unknown value.
func (s *StoredSubject) DefaultEffect() Effect {
	if s.record.DefaultEffect.Valid() {
		return s.record.DefaultEffect
	}
	return EffectDeny
}

// Timezone returns the record's IANA zone name (may be empty).
func (s *StoredSubject) Timezone() string { return s.record.Timezone }

// AvailabilityRules loads the subject's enabled rules from the store.
func (s *StoredSubject) AvailabilityRules(ctx context.Context) ([]Rule, error) {
	return s.store.RulesFor(ctx, s.record.Type, s.record.ID)
}

// Compile-time interface verification.
var _ Subject = (*StoredSubject)(nil)
