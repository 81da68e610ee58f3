// Package memory provides in-memory store implementations.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/availd-io/availd/internal/domain/availability"
)

// Error types for rule store operations.
var (
	ErrRuleNotFound    = errors.New("rule not found")
	ErrSubjectNotFound = errors.New("subject not found")
)

// RuleStore implements availability.RuleStore with in-memory maps.
// Thread-safe for concurrent access. For development/testing only.
type RuleStore struct {
	rules    map[string][]availability.Rule // subject key -> rules in insertion order
	subjects map[string]availability.SubjectRecord
	mu       sync.RWMutex
}

// NewRuleStore creates a new in-memory rule store.
func NewRuleStore() *RuleStore {
	return &RuleStore{
		rules:    make(map[string][]availability.Rule),
		subjects: make(map[string]availability.SubjectRecord),
	}
}

func subjectKey(subjectType, subjectID string) string {
	return subjectType + "\x00" + subjectID
}

// RulesFor returns the subject's enabled rules, priority ascending, stable
// with respect to insertion order.
func (s *RuleStore) RulesFor(ctx context.Context, subjectType, subjectID string) ([]availability.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []availability.Rule
	for _, r := range s.rules[subjectKey(subjectType, subjectID)] {
		if r.Enabled {
			result = append(result, copyRule(r))
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority < result[j].Priority
	})
	return result, nil
}

// AllRulesFor returns every rule for the subject, disabled ones included,
// priority ascending.
func (s *RuleStore) AllRulesFor(ctx context.Context, subjectType, subjectID string) ([]availability.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.rules[subjectKey(subjectType, subjectID)]
	result := make([]availability.Rule, 0, len(stored))
	for _, r := range stored {
		result = append(result, copyRule(r))
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority < result[j].Priority
	})
	return result, nil
}

// SaveRule creates or updates a rule. Assigns a UUID when r.ID is empty.
func (s *RuleStore) SaveRule(ctx context.Context, r *availability.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	key := subjectKey(r.SubjectType, r.SubjectID)
	for i, existing := range s.rules[key] {
		if existing.ID == r.ID {
			s.rules[key][i] = copyRule(*r)
			return nil
		}
	}
	s.rules[key] = append(s.rules[key], copyRule(*r))
	return nil
}

// DeleteRule removes a rule by ID.
// Returns ErrRuleNotFound if no rule carries the ID.
func (s *RuleStore) DeleteRule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, rules := range s.rules {
		for i, r := range rules {
			if r.ID == id {
				s.rules[key] = append(rules[:i], rules[i+1:]...)
				return nil
			}
		}
	}
	return ErrRuleNotFound
}

// GetSubject returns a subject record.
// Returns ErrSubjectNotFound if the subject doesn't exist.
func (s *RuleStore) GetSubject(ctx context.Context, subjectType, subjectID string) (*availability.SubjectRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.subjects[subjectKey(subjectType, subjectID)]
	if !ok {
		return nil, ErrSubjectNotFound
	}
	return &rec, nil
}

// SaveSubject creates or updates a subject record.
func (s *RuleStore) SaveSubject(ctx context.Context, rec *availability.SubjectRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subjects[subjectKey(rec.Type, rec.ID)] = *rec
	return nil
}

// copyRule returns a copy with its own config map, preventing callers from
// mutating stored state.
func copyRule(r availability.Rule) availability.Rule {
	if r.Config != nil {
		cfg := make(map[string]any, len(r.Config))
		for k, v := range r.Config {
			cfg[k] = v
		}
		r.Config = cfg
	}
	return r
}

// Compile-time interface verification.
var _ availability.RuleStore = (*RuleStore)(nil)
