package mycel

import (
	"log/slog"
	"time"

	"github.com/aretw0/mycel/internal/platform"
	"github.com/aretw0/mycel/pkg/config"
	"github.com/aretw0/mycel/pkg/core"
	"github.com/aretw0/mycel/pkg/engine"
	"github.com/aretw0/mycel/pkg/git"
)

// --- Types ---

// Service is the engine bound to one content root.
type Service = engine.Service

// Config is the engine configuration read from .mycel.yaml.
type Config = config.Config

// FixOptions selects what Service.Fix does with a generated batch.
type FixOptions = engine.FixOptions

// --- Configuration ---

// Option defines a functional option for configuring the engine.
type Option = platform.Option

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithConfig replaces the configuration read from the root.
func WithConfig(cfg Config) Option {
	return platform.WithConfig(cfg)
}

// WithVersioning enables or disables git commits on write.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithAutoInit creates the root and its category directories when missing.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithMustExist ensures the root directory already exists.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithParallelism overrides the number of concurrent file parses per category.
func WithParallelism(n int) Option {
	return platform.WithParallelism(n)
}

// WithClock sets the time source used for generated timestamps.
func WithClock(now func() time.Time) Option {
	return platform.WithClock(now)
}

// WithStore injects a custom store.
func WithStore(store core.TransactionalStore) Option {
	return platform.WithStore(store)
}

// --- Factory ---

// New creates the engine service for the content root at path.
func New(path string, opts ...Option) (*Service, error) {
	return platform.New(path, opts...)
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return config.Default()
}

// FindRoot looks upwards from startDir for a content root.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}

// --- Semantic Commits ---

const (
	CommitTypeFeat     = git.CommitTypeFeat
	CommitTypeFix      = git.CommitTypeFix
	CommitTypeRefactor = git.CommitTypeRefactor
	CommitTypeChore    = git.CommitTypeChore
)

// FormatChangeReason builds a Conventional Commit message.
func FormatChangeReason(ctype, scope, subject, body string) string {
	return git.FormatChangeReason(ctype, scope, subject, body)
}
