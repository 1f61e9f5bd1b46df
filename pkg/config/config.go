// Package config loads the optional .mycel.yaml file found at a content root.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up at the content root.
const FileName = ".mycel.yaml"

// Config is the full engine configuration.
type Config struct {
	Namespace   string        `yaml:"namespace"`
	Categories  Categories    `yaml:"categories"`
	Exclude     []string      `yaml:"exclude"`
	Parallelism int           `yaml:"parallelism"`
	LockTimeout time.Duration `yaml:"lock_timeout"`
	Propagation Propagation   `yaml:"propagation"`
	Scoring     Scoring       `yaml:"scoring"`
	Promotion   Promotion     `yaml:"promotion"`
}

// Categories maps each record kind to its directory under the root.
type Categories struct {
	Concepts   string `yaml:"concepts"`
	Predicates string `yaml:"predicates"`
	Topics     string `yaml:"topics"`
	Resources  string `yaml:"resources"`
}

// Propagation tunes the graph builder and the fixed-point analyzer.
type Propagation struct {
	MaxPasses               int  `yaml:"max_passes"`
	BidirectionalPredicates bool `yaml:"bidirectional_predicates"`
}

// Scoring tunes the relevance scorer.
type Scoring struct {
	TokenWeight    float64 `yaml:"token_weight"`
	RelatedWeight  float64 `yaml:"related_weight"`
	MinTokenLength int     `yaml:"min_token_length"`
}

// Promotion overrides the promotion vocabulary. Empty fields keep the defaults.
type Promotion struct {
	Marker      string            `yaml:"marker"`
	DefaultVerb string            `yaml:"default_verb"`
	Rules       []Rule            `yaml:"rules"`
	Phrases     map[string]string `yaml:"phrases"`
}

// Rule maps a slug keyword to a relation verb.
type Rule struct {
	Pattern string `yaml:"pattern"`
	Verb    string `yaml:"verb"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Namespace: "mycel",
		Categories: Categories{
			Concepts:   "concepts",
			Predicates: "predicates",
			Topics:     "topics",
			Resources:  "resources",
		},
		Parallelism: 8,
		LockTimeout: 5 * time.Second,
		Propagation: Propagation{MaxPasses: 5},
		Scoring: Scoring{
			TokenWeight:    5,
			RelatedWeight:  10,
			MinTokenLength: 4,
		},
		Promotion: Promotion{
			Marker:      "auto-relatedTo",
			DefaultVerb: "informs",
		},
	}
}

// Load reads FileName from root on top of the defaults.
// A missing file is not an error.
func Load(root string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(root, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", FileName, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the invariants the engine relies on.
func (c Config) Validate() error {
	var errs []error
	if c.Parallelism < 1 {
		errs = append(errs, fmt.Errorf("parallelism must be positive, got %d", c.Parallelism))
	}
	if c.LockTimeout <= 0 {
		errs = append(errs, fmt.Errorf("lock_timeout must be positive, got %s", c.LockTimeout))
	}
	if c.Propagation.MaxPasses < 1 {
		errs = append(errs, fmt.Errorf("propagation.max_passes must be positive, got %d", c.Propagation.MaxPasses))
	}
	if c.Scoring.MinTokenLength < 1 {
		errs = append(errs, fmt.Errorf("scoring.min_token_length must be positive, got %d", c.Scoring.MinTokenLength))
	}
	if c.Promotion.Marker == "" {
		errs = append(errs, errors.New("promotion.marker must not be empty"))
	}
	for _, dir := range []string{c.Categories.Concepts, c.Categories.Predicates, c.Categories.Topics, c.Categories.Resources} {
		if dir == "" {
			errs = append(errs, errors.New("category directories must not be empty"))
			break
		}
	}
	for _, p := range c.Exclude {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("invalid exclude pattern %q", p))
		}
	}
	for i, r := range c.Promotion.Rules {
		if r.Pattern == "" || r.Verb == "" {
			errs = append(errs, fmt.Errorf("promotion.rules[%d] needs both pattern and verb", i))
		}
	}
	return errors.Join(errs...)
}
