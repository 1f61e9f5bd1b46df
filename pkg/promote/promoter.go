package promote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/mycel/pkg/core"
)

// DefaultMarker is the id component that flags a placeholder predicate.
const DefaultMarker = "auto-relatedTo"

// Promotion is the plan for one placeholder predicate.
type Promotion struct {
	OldID         string `json:"old_id"`
	NewID         string `json:"new_id"`
	OldPath       string `json:"old_path,omitempty"`
	NewPath       string `json:"new_path,omitempty"`
	Source        string `json:"source"`
	Target        string `json:"target"`
	RelationName  string `json:"relation_name"`
	RelationValue string `json:"relation_value"`
	Description   string `json:"description"`
	// Reused is set when a record with NewID already existed and was kept as is.
	Reused bool `json:"reused,omitempty"`
}

// Rewrite is one topic reference moved from a placeholder to its promoted id.
type Rewrite struct {
	TopicID string `json:"topic"`
	OldID   string `json:"old_id"`
	NewID   string `json:"new_id"`
}

// Report is the outcome of a promotion run.
type Report struct {
	DryRun     bool             `json:"dry_run"`
	Promotions []Promotion      `json:"promotions"`
	Rewrites   []Rewrite        `json:"rewrites"`
	Warnings   []core.Warning   `json:"warnings,omitempty"`
	Failed     []core.ItemError `json:"failed,omitempty"`
}

// Promoter renames placeholder predicates and keeps topic references in step.
type Promoter struct {
	Store      core.Store
	Vocabulary Vocabulary
	Marker     string
	Logger     *slog.Logger
	Now        func() time.Time
}

// NewPromoter creates a promoter with the default vocabulary.
func NewPromoter(store core.Store, logger *slog.Logger) *Promoter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Promoter{
		Store:      store,
		Vocabulary: DefaultVocabulary(),
		Marker:     DefaultMarker,
		Logger:     logger,
		Now:        time.Now,
	}
}

// ParsePlaceholder splits a placeholder id of the form
// <prefix>:<marker>:<source-slug>:<target-slug>. isPlaceholder reports whether
// the id carries the marker at all; ok whether it is also well formed.
func ParsePlaceholder(id, marker string) (source, target string, isPlaceholder, ok bool) {
	parts := strings.Split(id, ":")
	for i, p := range parts {
		if p != marker {
			continue
		}
		if len(parts) != i+3 || parts[i+1] == "" || parts[i+2] == "" {
			return "", "", true, false
		}
		return parts[i+1], parts[i+2], true, true
	}
	return "", "", false, false
}

// PromotedID replaces the marker component of a placeholder id with name.
func PromotedID(id, marker, name string) string {
	parts := strings.Split(id, ":")
	for i, p := range parts {
		if p == marker {
			parts[i] = name
			break
		}
	}
	return strings.Join(parts, ":")
}

// Plan lists the promotions corpus calls for, in corpus order. Malformed
// placeholders are reported as warnings.
func (p *Promoter) Plan(corpus *core.Corpus) ([]Promotion, []core.Warning) {
	var plan []Promotion
	var warnings []core.Warning

	for _, rec := range corpus.Records(core.KindPredicate) {
		source, target, isPlaceholder, ok := ParsePlaceholder(rec.ID, p.Marker)
		if !isPlaceholder {
			continue
		}
		if !ok {
			warnings = append(warnings, core.Warning{
				Code:    core.WarnBadPlaceholder,
				ID:      rec.ID,
				Path:    rec.Path,
				Message: fmt.Sprintf("expected <prefix>:%s:<source>:<target>", p.Marker),
			})
			continue
		}

		verb := p.Vocabulary.Resolve(source)
		phrase := p.Vocabulary.Phrase(verb)
		name := RelationName(verb, source)
		newID := PromotedID(rec.ID, p.Marker, name)

		oldPath := rec.Path
		if oldPath == "" {
			oldPath = p.Store.Locate(core.KindPredicate, rec.ID)
		}
		plan = append(plan, Promotion{
			OldID:         rec.ID,
			NewID:         newID,
			OldPath:       oldPath,
			NewPath:       p.Store.Locate(core.KindPredicate, newID),
			Source:        source,
			Target:        target,
			RelationName:  name,
			RelationValue: phrase,
			Description:   fmt.Sprintf("%s %s %s", Humanize(source), phrase, Humanize(target)),
		})
	}
	return plan, warnings
}

// Promote rewrites every placeholder predicate of corpus into its named form,
// then moves topic references over to the new ids. With dryRun it only plans.
//
// For each placeholder the new record is written first; the old file is removed
// only when the new path differs and the new record is in place. A record that
// already exists under the new id is kept, not overwritten. A topic reference
// is rewritten only once the new predicate is confirmed on disk.
func (p *Promoter) Promote(ctx context.Context, corpus *core.Corpus, dryRun bool) (Report, error) {
	plan, warnings := p.Plan(corpus)
	report := Report{DryRun: dryRun, Warnings: warnings}
	now := p.Now().UTC().Truncate(time.Second)

	if dryRun {
		report.Promotions = plan
		report.Rewrites = plannedRewrites(corpus, plan)
		return report, nil
	}

	for _, pr := range plan {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		old := corpus.Predicates[pr.OldID]
		if p.Store.Exists(ctx, core.KindPredicate, pr.NewID) {
			pr.Reused = true
		} else if err := p.Store.Save(ctx, p.promoted(old, pr, now)); err != nil {
			p.Logger.Debug("promotion write failed", "id", pr.NewID, "error", err)
			report.Failed = append(report.Failed, core.ItemError{ID: pr.NewID, Path: pr.NewPath, Err: err})
			continue
		}

		if pr.OldPath != pr.NewPath {
			if err := p.Store.Delete(ctx, core.KindPredicate, pr.OldID); err != nil && !errors.Is(err, core.ErrNotFound) {
				report.Failed = append(report.Failed, core.ItemError{ID: pr.OldID, Path: pr.OldPath, Err: err})
			}
		}
		p.Logger.Debug("promoted", "from", pr.OldID, "to", pr.NewID, "reused", pr.Reused)
		report.Promotions = append(report.Promotions, pr)
	}

	rewrites, rwWarnings, failed := p.rewriteReferences(ctx, corpus, plan, now)
	report.Rewrites = rewrites
	report.Warnings = append(report.Warnings, rwWarnings...)
	report.Failed = append(report.Failed, failed...)

	p.Logger.Info("promotion finished",
		"promoted", len(report.Promotions),
		"rewrites", len(report.Rewrites),
		"warnings", len(report.Warnings),
		"failed", len(report.Failed),
	)
	return report, nil
}

func (p *Promoter) promoted(old core.Record, pr Promotion, now time.Time) core.Record {
	rec := old.Clone()
	rec.ID = pr.NewID
	rec.Kind = core.KindPredicate
	rec.RelationName = pr.RelationName
	rec.RelationValue = pr.RelationValue
	rec.Description = pr.Description
	if rec.DisplayName == "" {
		rec.DisplayName = pr.Description
	}
	rec.AutoGenerated = false
	rec.SemanticRelationship = true
	rec.Path = ""
	if rec.Created.IsZero() {
		rec.Created = now
	}
	rec.Touch(now)
	return rec
}
