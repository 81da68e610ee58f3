package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/availd-io/availd/internal/adapter/outbound/state"
	"github.com/availd-io/availd/internal/config"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load subjects and rules from a YAML file into the store",
	Long: `Seed reads a YAML document of subjects and rules (the same shape the
file store uses) and writes it into the configured store. Existing entries
with matching IDs are updated; nothing is deleted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg.LogLevel)

		data, err := os.ReadFile(seedFile)
		if err != nil {
			return fmt.Errorf("read seed file: %w", err)
		}
		var doc state.Document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse seed file: %w", err)
		}

		store, closeStore, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = closeStore() }()

		ctx := context.Background()
		for _, s := range doc.Subjects {
			rec := s.Record()
			if err := store.SaveSubject(ctx, &rec); err != nil {
				return fmt.Errorf("save subject %s/%s: %w", s.Type, s.ID, err)
			}
		}
		for _, d := range doc.Rules {
			r := d.Rule()
			if err := store.SaveRule(ctx, &r); err != nil {
				return fmt.Errorf("save rule for %s/%s: %w", d.SubjectType, d.SubjectID, err)
			}
		}

		logger.Info("seeded store",
			"subjects", len(doc.Subjects),
			"rules", len(doc.Rules),
			"driver", cfg.Store.Driver,
		)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "rules.yaml", "seed file to load")
	rootCmd.AddCommand(seedCmd)
}
