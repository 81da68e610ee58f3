// Package state provides the file-backed rule store: a single YAML document
// holding subjects and rules, written atomically and guarded by a file lock.
package state

import (
	"time"

	"github.com/availd-io/availd/internal/domain/availability"
)

// Document is the on-disk shape of the rules file.
type Document struct {
	// Subjects are the persisted subject records.
	Subjects []SubjectDoc `yaml:"subjects"`
	// Rules are the persisted rules, in file order. File order is the
	// insertion order used to break priority ties.
	Rules []RuleDoc `yaml:"rules"`
	// UpdatedAt is when the file was last written (UTC).
	UpdatedAt time.Time `yaml:"updated_at,omitempty"`
}

// SubjectDoc is one subject record in the rules file.
type SubjectDoc struct {
	Type          string `yaml:"type"`
	ID            string `yaml:"id"`
	Timezone      string `yaml:"timezone,omitempty"`
	DefaultEffect string `yaml:"default_effect,omitempty"`
}

// RuleDoc is one rule in the rules file. Enabled defaults to true and
// priority to 0 when omitted.
type RuleDoc struct {
	ID          string         `yaml:"id,omitempty"`
	SubjectType string         `yaml:"subject_type"`
	SubjectID   string         `yaml:"subject_id"`
	Type        string         `yaml:"type"`
	Config      map[string]any `yaml:"config,omitempty"`
	Effect      string         `yaml:"effect"`
	Priority    int            `yaml:"priority,omitempty"`
	Enabled     *bool          `yaml:"enabled,omitempty"`
	CreatedAt   time.Time      `yaml:"created_at,omitempty"`
}

// Rule converts the document form into the domain form.
func (d RuleDoc) Rule() availability.Rule {
	effect, err := availability.ParseEffect(d.Effect)
	if err != nil {
		effect = availability.EffectDeny
	}
	enabled := true
	if d.Enabled != nil {
		enabled = *d.Enabled
	}
	return availability.Rule{
		ID:          d.ID,
		SubjectType: d.SubjectType,
		SubjectID:   d.SubjectID,
		Type:        d.Type,
		Config:      d.Config,
		Effect:      effect,
		Priority:    d.Priority,
		Enabled:     enabled,
		CreatedAt:   d.CreatedAt,
	}
}

// ruleDoc converts a domain rule into its document form.
func ruleDoc(r *availability.Rule) RuleDoc {
	enabled := r.Enabled
	return RuleDoc{
		ID:          r.ID,
		SubjectType: r.SubjectType,
		SubjectID:   r.SubjectID,
		Type:        r.Type,
		Config:      r.Config,
		Effect:      string(r.Effect),
		Priority:    r.Priority,
		Enabled:     &enabled,
		CreatedAt:   r.CreatedAt,
	}
}

// Record converts the document form into the domain record.
func (d SubjectDoc) Record() availability.SubjectRecord {
	effect, err := availability.ParseEffect(d.DefaultEffect)
	if err != nil {
		effect = availability.EffectDeny
	}
	return availability.SubjectRecord{
		Type:          d.Type,
		ID:            d.ID,
		Timezone:      d.Timezone,
		DefaultEffect: effect,
	}
}
