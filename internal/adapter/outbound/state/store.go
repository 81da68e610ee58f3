package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/availd-io/availd/internal/domain/availability"
)

// Error types for file store operations.
var (
	ErrRuleNotFound    = errors.New("rule not found")
	ErrSubjectNotFound = errors.New("subject not found")
)

// FileRuleStore implements availability.RuleStore on a single YAML file.
// It provides atomic writes (write-tmp-then-rename), automatic backups, and
// file locking (flock for cross-process, mutex for in-process). A missing
// file reads as an empty document.
type FileRuleStore struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewFileRuleStore creates a FileRuleStore for the given file path.
func NewFileRuleStore(path string, logger *slog.Logger) *FileRuleStore {
	return &FileRuleStore{
		path:   path,
		logger: logger,
	}
}

// RulesFor returns the subject's enabled rules, priority ascending, with
// file order breaking ties.
func (s *FileRuleStore) RulesFor(ctx context.Context, subjectType, subjectID string) ([]availability.Rule, error) {
	return s.rulesFor(subjectType, subjectID, true)
}

// AllRulesFor returns every rule for the subject, disabled ones included.
func (s *FileRuleStore) AllRulesFor(ctx context.Context, subjectType, subjectID string) ([]availability.Rule, error) {
	return s.rulesFor(subjectType, subjectID, false)
}

func (s *FileRuleStore) rulesFor(subjectType, subjectID string, enabledOnly bool) ([]availability.Rule, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	var result []availability.Rule
	for _, d := range doc.Rules {
		if d.SubjectType != subjectType || d.SubjectID != subjectID {
			continue
		}
		r := d.Rule()
		if enabledOnly && !r.Enabled {
			continue
		}
		result = append(result, r)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority < result[j].Priority
	})
	return result, nil
}

// SaveRule creates or updates a rule. Assigns a UUID when r.ID is empty.
func (s *FileRuleStore) SaveRule(ctx context.Context, r *availability.Rule) error {
	return s.mutate(func(doc *Document) error {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		for i, d := range doc.Rules {
			if d.ID == r.ID {
				doc.Rules[i] = ruleDoc(r)
				return nil
			}
		}
		doc.Rules = append(doc.Rules, ruleDoc(r))
		return nil
	})
}

// DeleteRule removes a rule by ID.
// Returns ErrRuleNotFound if no rule carries the ID.
func (s *FileRuleStore) DeleteRule(ctx context.Context, id string) error {
	return s.mutate(func(doc *Document) error {
		for i, d := range doc.Rules {
			if d.ID == id {
				doc.Rules = append(doc.Rules[:i], doc.Rules[i+1:]...)
				return nil
			}
		}
		return ErrRuleNotFound
	})
}

// GetSubject returns a subject record.
// Returns ErrSubjectNotFound if the subject doesn't exist.
func (s *FileRuleStore) GetSubject(ctx context.Context, subjectType, subjectID string) (*availability.SubjectRecord, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, d := range doc.Subjects {
		if d.Type == subjectType && d.ID == subjectID {
			rec := d.Record()
			return &rec, nil
		}
	}
	return nil, ErrSubjectNotFound
}

// SaveSubject creates or updates a subject record.
func (s *FileRuleStore) SaveSubject(ctx context.Context, rec *availability.SubjectRecord) error {
	return s.mutate(func(doc *Document) error {
		d := SubjectDoc{
			Type:          rec.Type,
			ID:            rec.ID,
			Timezone:      rec.Timezone,
			DefaultEffect: string(rec.DefaultEffect),
		}
		for i, existing := range doc.Subjects {
			if existing.Type == d.Type && existing.ID == d.ID {
				doc.Subjects[i] = d
				return nil
			}
		}
		doc.Subjects = append(doc.Subjects, d)
		return nil
	})
}

// load reads and parses the rules file.
// If the file does not exist, it returns an empty document.
func (s *FileRuleStore) load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Document{}, nil
		}
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	return &doc, nil
}

// mutate loads the document, applies fn, and writes the result back
// atomically under both the in-process mutex and the cross-process flock.
func (s *FileRuleStore) mutate(fn func(*Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lockPath := s.path + ".lock"
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer func() { _ = lockFile.Close() }()

	if err := flockLock(lockFile.Fd()); err != nil {
		return fmt.Errorf("acquire file lock: %w", err)
	}
	defer flockUnlock(lockFile.Fd()) //nolint:errcheck

	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	doc.UpdatedAt = time.Now().UTC()

	// Back up the current file before overwriting (ignore a missing file).
	if current, readErr := os.ReadFile(s.path); readErr == nil {
		if writeErr := os.WriteFile(s.path+".bak", current, 0600); writeErr != nil {
			s.logger.Warn("failed to create backup", "error", writeErr)
		}
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}

	if err := s.writeAtomic(data); err != nil {
		return err
	}
	s.logger.Debug("rules file saved", "path", s.path)
	return nil
}

// writeAtomic writes data to a temp file, fsyncs it, and renames it over the
// target path. On any error the temp file is cleaned up.
func (s *FileRuleStore) writeAtomic(data []byte) error {
	tmpPath := s.path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := f.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp to rules file: %w", err)
	}
	return nil
}

// Compile-time interface verification.
var _ availability.RuleStore = (*FileRuleStore)(nil)
