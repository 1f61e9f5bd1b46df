// Package engine runs the connectivity pipeline over a content store:
// load, build, analyze, and then either fix or promote.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/mycel/pkg/config"
	"github.com/aretw0/mycel/pkg/core"
	"github.com/aretw0/mycel/pkg/fix"
	"github.com/aretw0/mycel/pkg/git"
	"github.com/aretw0/mycel/pkg/graph"
	"github.com/aretw0/mycel/pkg/promote"
	"github.com/aretw0/mycel/pkg/relevance"
)

// Service orchestrates one engine invocation over a store.
type Service struct {
	store   core.TransactionalStore
	config  config.Config
	logger  *slog.Logger
	now     func() time.Time
	encoder fix.Encoder

	mu       sync.RWMutex
	lastRun  *time.Time
	lastKind string
	lastSum  *Summary
}

// NewService creates a new Service. encoder renders propose-only artifacts and
// may be nil when the caller never writes them.
func NewService(store core.TransactionalStore, cfg config.Config, encoder fix.Encoder, logger *slog.Logger, now func() time.Time) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:   store,
		config:  cfg,
		logger:  logger,
		now:     now,
		encoder: encoder,
	}
}

// Summary is the end-of-run count reported by every command.
type Summary struct {
	Total        int `json:"total"`
	Connected    int `json:"connected"`
	Disconnected int `json:"disconnected"`
	Fixed        int `json:"fixed"`
	Skipped      int `json:"skipped"`
}

// CheckReport is the result of a connectivity check.
type CheckReport struct {
	Counts   map[core.Kind]int `json:"counts"`
	Analysis graph.Analysis    `json:"analysis"`
	Warnings []core.Warning    `json:"warnings,omitempty"`
	Summary  Summary           `json:"summary"`

	corpus *core.Corpus
	graph  *graph.Graph
}

// Connected reports whether no orphans remain.
func (r CheckReport) Connected() bool {
	return len(r.Analysis.Orphans) == 0
}

// FixOptions selects what Fix does with the generated batch.
type FixOptions struct {
	// DryRun generates the batch and stops. Nothing is written.
	DryRun bool
	// OutputDir, when set, renders the batch there for review instead of applying it.
	OutputDir string
	// ChangeReason is the commit message used when versioning is on.
	ChangeReason string
}

// FixReport is the result of a fix run.
type FixReport struct {
	Before  CheckReport      `json:"before"`
	Batch   fix.Batch        `json:"batch"`
	Written []string         `json:"written,omitempty"`
	Applied *fix.ApplyReport `json:"applied,omitempty"`
	// After is the check re-run on the store once the batch was applied.
	After    *CheckReport   `json:"after,omitempty"`
	Warnings []core.Warning `json:"warnings,omitempty"`
	Summary  Summary        `json:"summary"`
}

// Connected reports whether no orphans remain after the run.
func (r FixReport) Connected() bool {
	if r.After != nil {
		return r.After.Connected()
	}
	return r.Before.Connected()
}

// PromoteReport is the result of a promotion run.
type PromoteReport struct {
	promote.Report
	LoadWarnings []core.Warning `json:"load_warnings,omitempty"`
}

// Check loads the corpus, builds the graph and proves which records are orphaned.
func (s *Service) Check(ctx context.Context) (CheckReport, error) {
	corpus, warnings, err := s.store.Load(ctx)
	if err != nil {
		return CheckReport{}, fmt.Errorf("failed to load corpus: %w", err)
	}

	g, buildWarnings := graph.Build(corpus, graph.Options{
		BidirectionalPredicates: s.config.Propagation.BidirectionalPredicates,
	})
	warnings = append(warnings, buildWarnings...)

	analysis := graph.Analyze(g, s.config.Propagation.MaxPasses)
	warnings = append(warnings, analysis.Warnings...)

	report := CheckReport{
		Counts:   make(map[core.Kind]int, len(core.Kinds)),
		Analysis: analysis,
		Warnings: warnings,
		corpus:   corpus,
		graph:    g,
	}
	for _, k := range core.Kinds {
		report.Counts[k] = len(corpus.Category(k))
	}
	total := corpus.Len() - report.Counts[core.KindTopic]
	report.Summary = Summary{
		Total:        total,
		Connected:    total - len(analysis.Orphans),
		Disconnected: len(analysis.Orphans),
	}

	for _, w := range warnings {
		s.logger.Debug(w.Message, "code", w.Code, "id", w.ID, "path", w.Path)
	}
	s.logger.Info("connectivity checked",
		"total", report.Summary.Total,
		"connected", report.Summary.Connected,
		"orphans", report.Summary.Disconnected,
		"passes", analysis.Passes,
		"converged", analysis.Converged,
	)

	s.record("check", report.Summary)
	return report, nil
}

// Fix checks the corpus and generates artifacts for its orphans. Depending on
// opts the batch is only returned, rendered to a directory, or applied to the
// store and re-checked.
func (s *Service) Fix(ctx context.Context, opts FixOptions) (FixReport, error) {
	before, err := s.Check(ctx)
	if err != nil {
		return FixReport{}, err
	}

	gen := fix.NewGenerator(s.scorer())
	gen.Namespace = s.config.Namespace
	gen.Marker = s.config.Promotion.Marker
	gen.Now = s.now

	batch := gen.Generate(before.graph, before.Analysis.Orphans, opts.DryRun)
	report := FixReport{Before: before, Batch: batch, Warnings: batch.Warnings}
	report.Summary = before.Summary
	report.Summary.Fixed = batch.Summary.Fixed
	report.Summary.Skipped = batch.Summary.Skipped

	for _, w := range batch.Warnings {
		s.logger.Debug(w.Message, "code", w.Code, "id", w.ID)
	}
	s.logger.Info("fix batch generated",
		"batch", batch.ID,
		"artifacts", batch.Summary.Artifacts,
		"fixed", batch.Summary.Fixed,
		"skipped", batch.Summary.Skipped,
		"dry_run", opts.DryRun,
	)

	switch {
	case opts.DryRun:
	case opts.OutputDir != "":
		if s.encoder == nil {
			return report, fmt.Errorf("no artifact encoder configured")
		}
		written, warnings, err := fix.WriteArtifacts(opts.OutputDir, batch, before.corpus, s.encoder)
		report.Written = written
		report.Warnings = append(report.Warnings, warnings...)
		if err != nil {
			return report, err
		}
		s.logger.Info("artifacts written", "dir", opts.OutputDir, "files", len(written))
	default:
		if len(batch.Artifacts) == 0 {
			break
		}
		reason := opts.ChangeReason
		if reason == "" {
			reason = git.FormatChangeReason(git.CommitTypeFix, "graph",
				fmt.Sprintf("reconnect %d orphaned records", batch.Summary.Fixed),
				"Batch: "+batch.ID)
		}
		applier := fix.NewApplier(s.store, s.logger)
		applier.Now = s.now
		applied, err := applier.Apply(ctx, batch, reason)
		report.Applied = &applied
		if err != nil {
			return report, err
		}

		after, err := s.Check(ctx)
		if err != nil {
			return report, err
		}
		report.After = &after
		report.Summary.Total = after.Summary.Total
		report.Summary.Connected = after.Summary.Connected
		report.Summary.Disconnected = after.Summary.Disconnected
	}

	s.record("fix", report.Summary)
	return report, nil
}

// Promote rewrites placeholder predicates into named relations.
func (s *Service) Promote(ctx context.Context, dryRun bool) (PromoteReport, error) {
	corpus, warnings, err := s.store.Load(ctx)
	if err != nil {
		return PromoteReport{}, fmt.Errorf("failed to load corpus: %w", err)
	}

	p := promote.NewPromoter(s.store, s.logger)
	p.Vocabulary = s.vocabulary()
	p.Marker = s.config.Promotion.Marker
	p.Now = s.now

	if !dryRun {
		ctx = context.WithValue(ctx, core.ChangeReasonKey,
			git.FormatChangeReason(git.CommitTypeRefactor, "graph", "promote placeholder relations", ""))
	}
	report, err := p.Promote(ctx, corpus, dryRun)
	if err != nil {
		return PromoteReport{Report: report, LoadWarnings: warnings}, err
	}

	s.record("promote", Summary{Total: len(report.Promotions) + len(report.Failed), Fixed: len(report.Promotions)})
	return PromoteReport{Report: report, LoadWarnings: warnings}, nil
}

func (s *Service) scorer() *relevance.Scorer {
	return &relevance.Scorer{
		TokenWeight:    s.config.Scoring.TokenWeight,
		RelatedWeight:  s.config.Scoring.RelatedWeight,
		MinTokenLength: s.config.Scoring.MinTokenLength,
	}
}

// vocabulary layers the configured promotion table over the defaults.
// Configured rules take precedence over the built-in ones.
func (s *Service) vocabulary() promote.Vocabulary {
	v := promote.DefaultVocabulary()
	cfg := s.config.Promotion

	if len(cfg.Rules) > 0 {
		rules := make([]promote.Rule, 0, len(cfg.Rules)+len(v.Rules))
		for _, r := range cfg.Rules {
			rules = append(rules, promote.Rule{Pattern: r.Pattern, Verb: r.Verb})
		}
		v.Rules = append(rules, v.Rules...)
	}
	for verb, phrase := range cfg.Phrases {
		v.Phrases[verb] = phrase
	}
	if cfg.DefaultVerb != "" {
		v.DefaultVerb = cfg.DefaultVerb
	}
	return v
}

func (s *Service) record(kind string, sum Summary) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun = &now
	s.lastKind = kind
	s.lastSum = &sum
}
