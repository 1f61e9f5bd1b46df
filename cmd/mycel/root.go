package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/mycel"
	"github.com/aretw0/mycel/pkg/core"
)

// Exit codes.
const (
	exitConnected = 0
	exitOrphans   = 1
	exitFatal     = 2
)

var (
	verbose   bool
	directory string
	jsonOut   bool
	commit    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mycel",
	Short: "Connectivity checker for JSON-LD knowledge graphs",
	Long: `Mycel proves that every concept, predicate and resource of a knowledge
graph can be reached from a topic, proposes relations for the ones that cannot,
and promotes generated relations into named ones.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// exitError carries the process exit code of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// errOrphans reports a run that finished with records still disconnected.
var errOrphans = &exitError{code: exitOrphans}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	err := rootCmd.Execute()
	code := exitCode(err)
	if err != nil && code == exitFatal {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}

func exitCode(err error) int {
	if err == nil {
		return exitConnected
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitFatal
}

// openService builds the engine for the selected root.
func openService() (*mycel.Service, error) {
	root := directory
	if root == "" {
		root = "."
		if found, err := mycel.FindRoot("."); err == nil {
			root = found
		}
	}

	svc, err := mycel.New(root,
		mycel.WithMustExist(true),
		mycel.WithVersioning(commit),
		mycel.WithLogger(slog.Default()),
	)
	if err != nil {
		if errors.Is(err, core.ErrRootNotFound) {
			return nil, fmt.Errorf("no content root at %s: %w", root, err)
		}
		return nil, err
	}
	return svc, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&directory, "directory", "d", "", "Content root (default: discovered from the working directory)")
}
