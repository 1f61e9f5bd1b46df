package promote

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/mycel/pkg/core"
)

// rewriteReferences moves topic containedIds entries from placeholder ids to
// their promoted ids. An entry is rewritten only if the promoted predicate
// exists in the store; otherwise it is left alone and a warning is emitted.
// Rewritten lists are deduplicated.
func (p *Promoter) rewriteReferences(ctx context.Context, corpus *core.Corpus, plan []Promotion, now time.Time) ([]Rewrite, []core.Warning, []core.ItemError) {
	renames := make(map[core.Ref]string, len(plan))
	for _, pr := range plan {
		renames[core.Ref(pr.OldID)] = pr.NewID
	}

	var rewrites []Rewrite
	var warnings []core.Warning
	var failed []core.ItemError

	for _, loaded := range corpus.Records(core.KindTopic) {
		if !references(loaded, renames) {
			continue
		}

		topic, err := p.Store.Get(ctx, core.KindTopic, loaded.ID)
		if err != nil {
			failed = append(failed, core.ItemError{ID: loaded.ID, Path: loaded.Path, Err: err})
			continue
		}

		var next []core.Ref
		var done []Rewrite
		for _, ref := range topic.ContainedIDs {
			newID, renamed := renames[ref]
			if renamed && !p.Store.Exists(ctx, core.KindPredicate, newID) {
				warnings = append(warnings, core.Warning{
					Code:    core.WarnUnresolvedPromote,
					ID:      topic.ID,
					Path:    topic.Path,
					Message: fmt.Sprintf("kept %s: promoted predicate %s does not exist", ref, newID),
				})
				renamed = false
			}
			if !renamed {
				next, _ = core.AppendRefs(next, ref)
				continue
			}
			next, _ = core.AppendRefs(next, core.Ref(newID))
			done = append(done, Rewrite{TopicID: topic.ID, OldID: string(ref), NewID: newID})
		}

		if len(done) == 0 {
			continue
		}
		topic.ContainedIDs = next
		topic.Touch(now)
		if err := p.Store.Save(ctx, topic); err != nil {
			failed = append(failed, core.ItemError{ID: topic.ID, Path: topic.Path, Err: err})
			continue
		}
		rewrites = append(rewrites, done...)
	}
	return rewrites, warnings, failed
}

// plannedRewrites lists the rewrites a run would attempt, without checking the store.
func plannedRewrites(corpus *core.Corpus, plan []Promotion) []Rewrite {
	renames := make(map[core.Ref]string, len(plan))
	for _, pr := range plan {
		renames[core.Ref(pr.OldID)] = pr.NewID
	}
	var out []Rewrite
	for _, topic := range corpus.Records(core.KindTopic) {
		for _, ref := range topic.ContainedIDs {
			if newID, ok := renames[ref]; ok {
				out = append(out, Rewrite{TopicID: topic.ID, OldID: string(ref), NewID: newID})
			}
		}
	}
	return out
}

func references(topic core.Record, renames map[core.Ref]string) bool {
	for _, ref := range topic.ContainedIDs {
		if _, ok := renames[ref]; ok {
			return true
		}
	}
	return false
}
