package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/mycel"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of mycel",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mycel version %s\n", strings.TrimSpace(mycel.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
