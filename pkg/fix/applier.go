package fix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/mycel/pkg/core"
)

// ErrSubjectConflict reports a create artifact whose id already belongs to a
// relation about another subject.
var ErrSubjectConflict = errors.New("relation id already used for another subject")

// ApplyReport is the outcome of applying a batch.
type ApplyReport struct {
	BatchID string `json:"batch"`
	// Applied lists the records that were written.
	Applied []string `json:"applied"`
	// Unchanged lists the records that already held the artifact's content.
	Unchanged []string         `json:"unchanged,omitempty"`
	Failed    []core.ItemError `json:"failed,omitempty"`
}

// Applier merges artifacts into the store.
type Applier struct {
	Store  core.TransactionalStore
	Logger *slog.Logger
	Now    func() time.Time
}

// NewApplier creates an applier over store.
func NewApplier(store core.TransactionalStore, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Applier{Store: store, Logger: logger, Now: time.Now}
}

// Apply merges every artifact of batch into the current persisted state of its
// record and writes the records that changed. A record that cannot be read or
// written is collected in the report and the rest of the batch continues.
// Applying a batch that is already merged writes nothing.
func (ap *Applier) Apply(ctx context.Context, batch Batch, changeReason string) (ApplyReport, error) {
	report := ApplyReport{BatchID: batch.ID}
	now := ap.Now().UTC().Truncate(time.Second)

	tx, err := ap.Store.Begin(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to begin transaction: %w", err)
	}

	var staged []string
	for _, a := range batch.Artifacts {
		kind := artifactKind(a.Kind)
		current, err := tx.Get(ctx, kind, a.RecordID)
		switch {
		case err == nil:
		case errors.Is(err, core.ErrNotFound) && a.Kind == CreatePredicate:
			current = core.Record{}
		default:
			ap.Logger.Debug("cannot read record", "id", a.RecordID, "error", err)
			report.Failed = append(report.Failed, core.ItemError{ID: a.RecordID, Err: err})
			continue
		}

		if conflicts(current, a) {
			err := fmt.Errorf("%w: %s has subject %s", ErrSubjectConflict, a.RecordID, current.SubjectID)
			ap.Logger.Debug("refusing artifact", "id", a.RecordID, "error", err)
			report.Failed = append(report.Failed, core.ItemError{ID: a.RecordID, Path: current.Path, Err: err})
			continue
		}

		merged, changed := Merge(current, a)
		if !changed {
			report.Unchanged = append(report.Unchanged, a.RecordID)
			continue
		}
		merged.Touch(now)
		if err := tx.Save(ctx, merged); err != nil {
			report.Failed = append(report.Failed, core.ItemError{ID: a.RecordID, Err: err})
			continue
		}
		staged = append(staged, a.RecordID)
	}

	if len(staged) == 0 {
		_ = tx.Rollback(ctx)
		return report, nil
	}

	failed, err := tx.Commit(ctx, changeReason)
	report.Failed = append(report.Failed, failed...)
	if err != nil {
		return report, err
	}

	bad := make(map[string]bool, len(failed))
	for _, f := range failed {
		bad[f.ID] = true
	}
	for _, id := range staged {
		if !bad[id] {
			report.Applied = append(report.Applied, id)
		}
	}

	ap.Logger.Info("batch applied",
		"batch", batch.ID,
		"applied", len(report.Applied),
		"unchanged", len(report.Unchanged),
		"failed", len(report.Failed),
	)
	return report, nil
}

// Merge applies a to current with set semantics and reports whether anything
// changed. current is the zero Record when a create artifact has no existing
// record yet. Merge never touches dateCreated or dateModified.
func Merge(current core.Record, a Artifact) (core.Record, bool) {
	merged := current.Clone()
	switch a.Kind {
	case CreatePredicate:
		if a.Record == nil {
			return merged, false
		}
		if current.ID == "" {
			return a.Record.Clone(), true
		}
		if conflicts(current, a) {
			return merged, false
		}
		changed := false
		if merged.SubjectID == "" && a.Record.SubjectID != "" {
			merged.SubjectID = a.Record.SubjectID
			changed = true
		}
		var added bool
		merged.TargetIDs, added = core.AppendRefs(merged.TargetIDs, a.Record.TargetIDs...)
		return merged, changed || added
	case PatchResource:
		if merged.ContainerID == core.Ref(a.TopicID) {
			return merged, false
		}
		merged.ContainerID = core.Ref(a.TopicID)
		return merged, true
	case PatchTopic:
		var added bool
		merged.ContainedIDs, added = core.AppendRefs(merged.ContainedIDs, a.AddIDs...)
		return merged, added
	}
	return merged, false
}

// conflicts reports whether a create artifact names a different subject than
// the relation already stored under its id.
func conflicts(current core.Record, a Artifact) bool {
	return a.Kind == CreatePredicate && a.Record != nil &&
		current.SubjectID != "" && a.Record.SubjectID != "" &&
		current.SubjectID != a.Record.SubjectID
}

func artifactKind(k ArtifactKind) core.Kind {
	switch k {
	case PatchResource:
		return core.KindResource
	case PatchTopic:
		return core.KindTopic
	}
	return core.KindPredicate
}
