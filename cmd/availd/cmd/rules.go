package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/availd-io/availd/internal/config"
)

var (
	rulesSubjectType string
	rulesSubjectID   string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List a subject's availability rules",
	Long: `Rules prints every rule attached to a subject, disabled ones included,
in evaluation order (priority ascending).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg.LogLevel)

		store, closeStore, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = closeStore() }()

		rules, err := store.AllRulesFor(context.Background(), rulesSubjectType, rulesSubjectID)
		if err != nil {
			return fmt.Errorf("load rules: %w", err)
		}
		if len(rules) == 0 {
			fmt.Printf("no rules for %s/%s\n", rulesSubjectType, rulesSubjectID)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PRIORITY\tTYPE\tEFFECT\tENABLED\tID")
		for _, r := range rules {
			fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%s\n", r.Priority, r.Type, r.Effect, r.Enabled, r.ID)
		}
		return w.Flush()
	},
}

func init() {
	rulesCmd.Flags().StringVar(&rulesSubjectType, "subject-type", "", "subject class (required)")
	rulesCmd.Flags().StringVar(&rulesSubjectID, "subject-id", "", "subject identifier (required)")
	_ = rulesCmd.MarkFlagRequired("subject-type")
	_ = rulesCmd.MarkFlagRequired("subject-id")
	rootCmd.AddCommand(rulesCmd)
}
