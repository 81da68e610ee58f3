package availability

import "context"

// SubjectRecord is the persisted shape of a subject: enough to construct a
// StoredSubject without host-specific entity types.
type SubjectRecord struct {
	// Type is the subject class (e.g. "room", "listing").
	Type string
	// ID identifies the subject within its class.
	ID string
	// Timezone is the subject's IANA zone name. Empty means process default.
	Timezone string
	// DefaultEffect is the verdict when no rule matches.
	DefaultEffect Effect
}

// RuleStore persists rules and subject records.
// Interface lives in the domain package; adapters implement it.
type RuleStore interface {
	// RulesFor returns the enabled rules for a subject in priority-ascending
	// order, stable with respect to insertion order.
	RulesFor(ctx context.Context, subjectType, subjectID string) ([]Rule, error)
	// AllRulesFor returns every rule for a subject, including disabled ones.
	AllRulesFor(ctx context.Context, subjectType, subjectID string) ([]Rule, error)
	// SaveRule creates or updates a rule. Assigns r.ID when empty.
	SaveRule(ctx context.Context, r *Rule) error
	// DeleteRule removes a rule by ID.
	DeleteRule(ctx context.Context, id string) error
	// GetSubject returns a subject record.
	GetSubject(ctx context.Context, subjectType, subjectID string) (*SubjectRecord, error)
	// SaveSubject creates or updates a subject record.
	SaveSubject(ctx context.Context, rec *SubjectRecord) error
}
