package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/mycel/pkg/config"
	"github.com/aretw0/mycel/pkg/core"
)

// options holds the internal configuration for the engine service.
type options struct {
	store       core.TransactionalStore
	logger      *slog.Logger
	config      *config.Config
	versioning  *bool
	autoInit    bool
	mustExist   bool
	parallelism int
	clock       func() time.Time
}

// Option defines a functional option for configuring the engine.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{}
}

// WithLogger sets the logger for the service and its store.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithConfig replaces the configuration read from the root's .mycel.yaml.
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		o.config = &cfg
	}
}

// WithVersioning enables or disables git commits on write.
// When not set, versioning is on if the root is already a git repository.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.versioning = &enabled
	}
}

// WithAutoInit creates the root, its category directories and, when
// versioning is on, the git repository if they are missing.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.autoInit = auto
	}
}

// WithMustExist makes New fail when the root directory is missing, instead of
// deferring the error to the first load.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithParallelism overrides the number of concurrent file parses per category.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithClock sets the time source used for generated timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// WithStore injects a custom store. If provided, the filesystem adapter is skipped.
func WithStore(store core.TransactionalStore) Option {
	return func(o *options) {
		o.store = store
	}
}
