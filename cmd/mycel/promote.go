package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var promoteDryRun bool

var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Rename generated relations after their meaning",
	Long: `Promote rewrites every auto-generated predicate into a named relation chosen
from the verb vocabulary, and moves topic references to the new ids.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		report, err := svc.Promote(cmd.Context(), promoteDryRun)
		if err != nil {
			return err
		}

		if jsonOut {
			if err := writeJSON(out, report); err != nil {
				return err
			}
		} else {
			printWarnings(cmd.ErrOrStderr(), report.LoadWarnings, report.Warnings)
			for _, p := range report.Promotions {
				fmt.Fprintf(out, "%s -> %s (%s)\n", p.OldID, p.NewID, p.RelationName)
			}
			for _, r := range report.Rewrites {
				fmt.Fprintf(out, "  %s: %s -> %s\n", r.TopicID, r.OldID, r.NewID)
			}
			for _, f := range report.Failed {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed: %v\n", f)
			}
			fmt.Fprintf(out, "promoted: %d  failed: %d\n", len(report.Promotions), len(report.Failed))
		}

		if len(report.Failed) > 0 {
			return &exitError{code: exitOrphans, err: fmt.Errorf("%d promotions failed", len(report.Failed))}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(promoteCmd)
	promoteCmd.Flags().BoolVar(&promoteDryRun, "dry-run", false, "Show the promotion plan without writing anything")
	promoteCmd.Flags().BoolVar(&commit, "commit", false, "Commit written records with git")
	promoteCmd.Flags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
}
