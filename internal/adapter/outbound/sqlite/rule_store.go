// Package sqlite provides the SQLite-backed rule store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/availd-io/availd/internal/domain/availability"
)

// Error types for rule store operations.
var (
	ErrRuleNotFound    = errors.New("rule not found")
	ErrSubjectNotFound = errors.New("subject not found")
)

// DefaultTable is the rules table name when the host config leaves `table`
// unset. Subject records live in "<table>_subjects".
const DefaultTable = "availability_rules"

// RuleStore implements availability.RuleStore on SQLite via database/sql.
// Priority ties are broken by rowid, which preserves insertion order.
type RuleStore struct {
	db    *sql.DB
	table string
}

// Open opens (or creates) the database at path and ensures the schema.
// table overrides the rules table name; empty means DefaultTable.
func Open(path, table string) (*RuleStore, error) {
	if table == "" {
		table = DefaultTable
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	s := &RuleStore{db: db, table: table}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database handle.
func (s *RuleStore) Close() error {
	return s.db.Close()
}

func (s *RuleStore) ensureSchema() error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			subject_type TEXT NOT NULL,
			subject_id TEXT NOT NULL,
			type TEXT NOT NULL,
			config TEXT,
			effect TEXT NOT NULL,
			priority INTEGER NOT NULL DEFAULT 0,
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL
		)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_subject
			ON %s (subject_type, subject_id)`, s.table, s.table),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s_subjects (
			subject_type TEXT NOT NULL,
			subject_id TEXT NOT NULL,
			timezone TEXT,
			default_effect TEXT NOT NULL DEFAULT 'deny',
			PRIMARY KEY (subject_type, subject_id)
		)`, s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// RulesFor returns the subject's enabled rules, priority ascending, rowid
// breaking ties.
func (s *RuleStore) RulesFor(ctx context.Context, subjectType, subjectID string) ([]availability.Rule, error) {
	return s.queryRules(ctx, subjectType, subjectID, true)
}

// AllRulesFor returns every rule for the subject, disabled ones included.
func (s *RuleStore) AllRulesFor(ctx context.Context, subjectType, subjectID string) ([]availability.Rule, error) {
	return s.queryRules(ctx, subjectType, subjectID, false)
}

func (s *RuleStore) queryRules(ctx context.Context, subjectType, subjectID string, enabledOnly bool) ([]availability.Rule, error) {
	query := fmt.Sprintf(`SELECT id, subject_type, subject_id, type, config, effect, priority, enabled, created_at
		FROM %s WHERE subject_type = ? AND subject_id = ?`, s.table)
	if enabledOnly {
		query += " AND enabled = 1"
	}
	query += " ORDER BY priority ASC, rowid ASC"

	rows, err := s.db.QueryContext(ctx, query, subjectType, subjectID)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []availability.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return result, nil
}

func scanRule(rows *sql.Rows) (availability.Rule, error) {
	var (
		r         availability.Rule
		config    sql.NullString
		effect    string
		enabled   int
		createdAt string
	)
	if err := rows.Scan(&r.ID, &r.SubjectType, &r.SubjectID, &r.Type, &config, &effect, &r.Priority, &enabled, &createdAt); err != nil {
		return availability.Rule{}, fmt.Errorf("scan rule: %w", err)
	}

	if config.Valid && config.String != "" {
		// Stored config that is not a JSON object stays nil; the engine
		// normalizes nil to an empty map before predicates run.
		var cfg map[string]any
		if err := json.Unmarshal([]byte(config.String), &cfg); err == nil {
			r.Config = cfg
		}
	}

	parsed, err := availability.ParseEffect(effect)
	if err != nil {
		parsed = availability.EffectDeny
	}
	r.Effect = parsed
	r.Enabled = enabled != 0
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		r.CreatedAt = t
	}
	return r, nil
}

// SaveRule creates or updates a rule. Assigns a UUID when r.ID is empty.
func (s *RuleStore) SaveRule(ctx context.Context, r *availability.Rule) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	var config any
	if r.Config != nil {
		data, err := json.Marshal(r.Config)
		if err != nil {
			return fmt.Errorf("marshal rule config: %w", err)
		}
		config = string(data)
	}

	enabled := 0
	if r.Enabled {
		enabled = 1
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, subject_type, subject_id, type, config, effect, priority, enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			subject_type = excluded.subject_type,
			subject_id = excluded.subject_id,
			type = excluded.type,
			config = excluded.config,
			effect = excluded.effect,
			priority = excluded.priority,
			enabled = excluded.enabled`, s.table)
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.SubjectType, r.SubjectID, r.Type, config, string(r.Effect),
		r.Priority, enabled, r.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save rule: %w", err)
	}
	return nil
}

// DeleteRule removes a rule by ID.
// Returns ErrRuleNotFound if no rule carries the ID.
func (s *RuleStore) DeleteRule(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.table), id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// GetSubject returns a subject record.
// Returns ErrSubjectNotFound if the subject doesn't exist.
func (s *RuleStore) GetSubject(ctx context.Context, subjectType, subjectID string) (*availability.SubjectRecord, error) {
	query := fmt.Sprintf(`SELECT timezone, default_effect FROM %s_subjects
		WHERE subject_type = ? AND subject_id = ?`, s.table)

	var (
		timezone sql.NullString
		effect   string
	)
	err := s.db.QueryRowContext(ctx, query, subjectType, subjectID).Scan(&timezone, &effect)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query subject: %w", err)
	}

	parsed, err := availability.ParseEffect(effect)
	if err != nil {
		parsed = availability.EffectDeny
	}
	return &availability.SubjectRecord{
		Type:          subjectType,
		ID:            subjectID,
		Timezone:      timezone.String,
		DefaultEffect: parsed,
	}, nil
}

// SaveSubject creates or updates a subject record.
func (s *RuleStore) SaveSubject(ctx context.Context, rec *availability.SubjectRecord) error {
	query := fmt.Sprintf(`INSERT INTO %s_subjects (subject_type, subject_id, timezone, default_effect)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(subject_type, subject_id) DO UPDATE SET
			timezone = excluded.timezone,
			default_effect = excluded.default_effect`, s.table)
	_, err := s.db.ExecContext(ctx, query, rec.Type, rec.ID, rec.Timezone, string(rec.DefaultEffect))
	if err != nil {
		return fmt.Errorf("save subject: %w", err)
	}
	return nil
}

// Compile-time interface verification.
var _ availability.RuleStore = (*RuleStore)(nil)
