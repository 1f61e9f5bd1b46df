package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/mycel/pkg/adapters/fs"
	"github.com/aretw0/mycel/pkg/config"
	"github.com/aretw0/mycel/pkg/core"
	"github.com/aretw0/mycel/pkg/git"
)

// Init resolves the configuration and the store for the content root at path.
// It returns the store together with the effective configuration.
func Init(path string, opts ...Option) (core.TransactionalStore, config.Config, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	root, err := filepath.Abs(path)
	if err != nil {
		return nil, config.Config{}, err
	}

	cfg, err := resolveConfig(root, o)
	if err != nil {
		return nil, cfg, err
	}

	if o.store != nil {
		return o.store, cfg, nil
	}

	repo, err := initFS(root, cfg, o)
	if err != nil {
		return nil, cfg, err
	}
	return repo, cfg, nil
}

func resolveConfig(root string, o *options) (config.Config, error) {
	var cfg config.Config
	if o.config != nil {
		cfg = *o.config
	} else {
		loaded, err := config.Load(root)
		if err != nil {
			return loaded, err
		}
		cfg = loaded
	}
	if o.parallelism > 0 {
		cfg.Parallelism = o.parallelism
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initFS handles the initialization logic for the filesystem adapter.
func initFS(root string, cfg config.Config, o *options) (*fs.Repository, error) {
	categories := Categories(cfg)

	info, err := os.Stat(root)
	switch {
	case err == nil && !info.IsDir():
		return nil, fmt.Errorf("%w: %s is not a directory", core.ErrRootNotFound, root)
	case errors.Is(err, os.ErrNotExist) && o.autoInit:
		if err := os.MkdirAll(root, 0755); err != nil {
			return nil, fmt.Errorf("failed to create root: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && o.mustExist:
		return nil, fmt.Errorf("%w: %s", core.ErrRootNotFound, root)
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	if o.autoInit {
		for _, k := range core.Kinds {
			if err := os.MkdirAll(filepath.Join(root, categories[k]), 0755); err != nil {
				return nil, fmt.Errorf("failed to create %s directory: %w", k, err)
			}
		}
	}

	client := git.NewClient(root, o.logger)
	versioning := false
	if o.versioning != nil {
		versioning = *o.versioning
	} else if _, err := os.Stat(filepath.Join(root, ".git")); err == nil {
		versioning = true
		if o.logger != nil {
			o.logger.Debug("auto-detected versioning", "reason", ".git present")
		}
	}

	if versioning {
		if !git.IsInstalled() {
			return nil, fmt.Errorf("versioning requested but git is not installed")
		}
		if !client.IsRepo() {
			if !o.autoInit {
				return nil, fmt.Errorf("versioning requested but %s is not a git repository", root)
			}
			if err := client.Init(); err != nil {
				return nil, fmt.Errorf("failed to init git: %w", err)
			}
		}
	}

	return fs.NewRepository(fs.Config{
		Path:        root,
		Categories:  categories,
		Exclude:     cfg.Exclude,
		Parallelism: cfg.Parallelism,
		Versioning:  versioning,
		LockTimeout: cfg.LockTimeout,
		Logger:      o.logger,
	}), nil
}

// Categories maps the configured category directories to record kinds.
func Categories(cfg config.Config) map[core.Kind]string {
	return map[core.Kind]string{
		core.KindConcept:   cfg.Categories.Concepts,
		core.KindPredicate: cfg.Categories.Predicates,
		core.KindTopic:     cfg.Categories.Topics,
		core.KindResource:  cfg.Categories.Resources,
	}
}
