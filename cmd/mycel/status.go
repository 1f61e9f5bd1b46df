package main

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the engine and repository state as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		if _, err := svc.Check(cmd.Context()); err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), svc.State())
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
