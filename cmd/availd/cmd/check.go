package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/availd-io/availd/internal/adapter/outbound/memory"
	"github.com/availd-io/availd/internal/adapter/outbound/sqlite"
	"github.com/availd-io/availd/internal/adapter/outbound/state"
	"github.com/availd-io/availd/internal/config"
	"github.com/availd-io/availd/internal/domain/availability"
)

var (
	checkSubjectType string
	checkSubjectID   string
	checkAt          string
)

// momentLayouts are accepted by --at, tried in order.
var momentLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether a subject is available at a moment",
	Long: `Check evaluates the subject's availability rules at a moment and prints
"available" or "unavailable".

The moment defaults to now. --at accepts RFC 3339 or a local date/time such
as "2025-06-04 13:00"; moments without an explicit offset are interpreted in
the process-local zone and localized to the subject's zone during evaluation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg.LogLevel)

		shutdown, err := setupTracing(cfg)
		if err != nil {
			return err
		}
		defer shutdown()

		store, closeStore, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = closeStore() }()

		engine, err := buildEngine(cfg, logger)
		if err != nil {
			return err
		}

		moment := time.Now()
		if checkAt != "" {
			moment, err = parseMoment(checkAt)
			if err != nil {
				return err
			}
		}

		ctx := context.Background()
		subject, err := loadSubject(ctx, cfg, store, checkSubjectType, checkSubjectID)
		if err != nil {
			return err
		}

		available, err := engine.IsAvailable(ctx, subject, moment)
		if err != nil {
			return fmt.Errorf("evaluate availability: %w", err)
		}

		if available {
			fmt.Println("available")
		} else {
			fmt.Println("unavailable")
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkSubjectType, "subject-type", "", "subject class (required)")
	checkCmd.Flags().StringVar(&checkSubjectID, "subject-id", "", "subject identifier (required)")
	checkCmd.Flags().StringVar(&checkAt, "at", "", "moment to evaluate (default: now)")
	_ = checkCmd.MarkFlagRequired("subject-type")
	_ = checkCmd.MarkFlagRequired("subject-id")
	rootCmd.AddCommand(checkCmd)
}

// parseMoment parses the --at flag in the process-local zone.
func parseMoment(s string) (time.Time, error) {
	for _, layout := range momentLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized moment %q", s)
}

// loadSubject fetches the subject record, applying the configured default
// effect when the record carries none.
func loadSubject(ctx context.Context, cfg *config.Config, store availability.RuleStore, subjectType, subjectID string) (availability.Subject, error) {
	rec, err := store.GetSubject(ctx, subjectType, subjectID)
	if err != nil {
		if errors.Is(err, memory.ErrSubjectNotFound) ||
			errors.Is(err, state.ErrSubjectNotFound) ||
			errors.Is(err, sqlite.ErrSubjectNotFound) {
			return nil, fmt.Errorf("subject %s/%s not found (seed it first)", subjectType, subjectID)
		}
		return nil, fmt.Errorf("load subject: %w", err)
	}
	if !rec.DefaultEffect.Valid() {
		rec.DefaultEffect = defaultEffect(cfg)
	}
	return availability.NewStoredSubject(*rec, store), nil
}
