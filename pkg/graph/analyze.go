package graph

import (
	"fmt"

	"github.com/aretw0/mycel/pkg/core"
)

// DefaultMaxPasses bounds indirect propagation. Related-concept chains are
// shallow, so a corpus that needs more passes most likely holds a cycle.
const DefaultMaxPasses = 5

// Orphan is a non-Topic record with no path back to any Topic.
type Orphan struct {
	ID          string    `json:"id"`
	Kind        core.Kind `json:"kind"`
	DisplayName string    `json:"name"`
}

// TopicCount is the size of one topic's connected set.
type TopicCount struct {
	TopicID string `json:"topic"`
	Count   int    `json:"count"`
}

// Analysis is the result of a connectivity run.
type Analysis struct {
	Reachable             []string       `json:"reachable"`
	Orphans               []Orphan       `json:"orphans"`
	TopicConnectionCounts []TopicCount   `json:"topic_connection_counts"`
	Passes                int            `json:"passes"`
	Converged             bool           `json:"converged"`
	Warnings              []core.Warning `json:"warnings,omitempty"`

	reachable map[string]bool
}

// IsReachable reports whether id is connected to at least one topic.
func (a Analysis) IsReachable(id string) bool {
	return a.reachable[id]
}

// Analyze computes the reachable set and the orphans of g.
//
// The reachable set starts as the union of all topic edge sets, minus nested
// topics. Then, for up to
// maxPasses passes, every still-orphaned Concept whose relatedIds include a
// reachable concept (or a topic) inherits that id's topics. The loop stops early
// once a pass changes nothing. Hitting the bound is reported as a warning and
// whatever was reached is kept.
//
// Propagated concepts are added to the edge sets of their topics, so g reflects
// the final connectivity afterwards.
func Analyze(g *Graph, maxPasses int) Analysis {
	if maxPasses < 1 {
		maxPasses = DefaultMaxPasses
	}

	reachable := &idSet{}
	for _, t := range g.topics {
		for _, id := range g.edges[t].ids {
			if !g.IsTopic(id) {
				reachable.add(id)
			}
		}
	}

	concepts := g.corpus.Records(core.KindConcept)

	var a Analysis
	for a.Passes < maxPasses {
		a.Passes++
		changed := false
		for _, c := range concepts {
			if reachable.has(c.ID) {
				continue
			}
			inherited := g.inheritable(c, reachable)
			if len(inherited) == 0 {
				continue
			}
			for _, t := range inherited {
				g.connect(t, c.ID)
			}
			reachable.add(c.ID)
			changed = true
		}
		if !changed {
			a.Converged = true
			break
		}
	}

	if !a.Converged {
		// the last pass changed something; converged only if one more would not
		a.Converged = true
		for _, c := range concepts {
			if !reachable.has(c.ID) && len(g.inheritable(c, reachable)) > 0 {
				a.Converged = false
				break
			}
		}
	}
	if !a.Converged {
		a.Warnings = append(a.Warnings, core.Warning{
			Code:    core.WarnNoConvergence,
			Message: fmt.Sprintf("propagation still changing after %d passes, possible cycle or deep chain", maxPasses),
		})
	}

	a.Reachable = reachable.list()
	a.reachable = reachable.index
	if a.reachable == nil {
		a.reachable = map[string]bool{}
	}

	for _, kind := range []core.Kind{core.KindConcept, core.KindPredicate, core.KindResource} {
		for _, rec := range g.corpus.Records(kind) {
			if !reachable.has(rec.ID) {
				a.Orphans = append(a.Orphans, Orphan{ID: rec.ID, Kind: rec.Kind, DisplayName: rec.DisplayName})
			}
		}
	}

	for _, t := range g.topics {
		a.TopicConnectionCounts = append(a.TopicConnectionCounts, TopicCount{TopicID: t, Count: g.edges[t].len()})
	}

	return a
}

// inheritable returns the topics concept c would inherit through its
// relatedIds: the topics of each reachable related id, or the id itself when it
// names a topic.
func (g *Graph) inheritable(c core.Record, reachable *idSet) []string {
	var out idSet
	for _, ref := range c.RelatedIDs {
		id := string(ref)
		if id == c.ID {
			continue
		}
		if g.IsTopic(id) {
			out.add(id)
			continue
		}
		if !reachable.has(id) {
			continue
		}
		for _, t := range g.topicsOf[id].list() {
			out.add(t)
		}
	}
	return out.ids
}
