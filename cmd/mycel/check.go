package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/mycel/pkg/engine"
)

var (
	checkFix    bool
	checkDryRun bool
	checkOutput string
	message     string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report records that no topic reaches",
	Long: `Check loads the content root, builds the graph and lists every orphan.
With --fix it also proposes a relation for each orphan it can score and applies
the batch, or renders it to --output for review.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if !checkFix {
			report, err := svc.Check(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				if err := writeJSON(out, report); err != nil {
					return err
				}
			} else {
				printWarnings(cmd.ErrOrStderr(), report.Warnings)
				printOrphans(out, report.Analysis.Orphans)
				printSummary(out, report.Summary)
			}
			if !report.Connected() {
				return errOrphans
			}
			return nil
		}

		report, err := svc.Fix(cmd.Context(), engine.FixOptions{
			DryRun:       checkDryRun,
			OutputDir:    checkOutput,
			ChangeReason: message,
		})
		if err != nil {
			return err
		}

		if jsonOut {
			if err := writeJSON(out, report); err != nil {
				return err
			}
		} else {
			printWarnings(cmd.ErrOrStderr(), report.Before.Warnings, report.Warnings)
			for _, a := range report.Batch.Artifacts {
				fmt.Fprintf(out, "%-16s %s -> %s (score %.0f)\n", a.Kind, a.RecordID, a.TopicID, a.Score)
			}
			for _, path := range report.Written {
				fmt.Fprintf(out, "wrote %s\n", path)
			}
			if report.Applied != nil {
				for _, f := range report.Applied.Failed {
					fmt.Fprintf(cmd.ErrOrStderr(), "failed: %v\n", f)
				}
			}
			if report.After != nil {
				printOrphans(out, report.After.Analysis.Orphans)
			} else {
				printOrphans(out, report.Before.Analysis.Orphans)
			}
			printSummary(out, report.Summary)
		}

		if !report.Connected() {
			return errOrphans
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&checkFix, "fix", false, "Generate and apply relations for orphans")
	checkCmd.Flags().BoolVar(&checkDryRun, "dry-run", false, "Generate the fix batch without writing anything")
	checkCmd.Flags().StringVar(&checkOutput, "output", "", "Render the fix batch into this directory instead of applying it")
	checkCmd.Flags().BoolVar(&commit, "commit", false, "Commit written records with git")
	checkCmd.Flags().StringVarP(&message, "message", "m", "", "Commit message for the applied batch (with --commit)")
	checkCmd.Flags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
}
