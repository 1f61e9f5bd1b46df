package graph

import (
	"fmt"

	"github.com/aretw0/mycel/pkg/core"
)

// Options configures graph construction.
type Options struct {
	// BidirectionalPredicates also flows the topics of a predicate's targets
	// back to the predicate and its subject. Off by default: inheritance runs
	// forward only, from subject to targets.
	BidirectionalPredicates bool
}

// Build derives the connectivity graph of corpus.
//
// Edges are added in this order:
//  1. Topic containment: every id in a topic's containedIds.
//  2. Resource containment: a resource's containerId, when it names a topic.
//  3. Predicates, in corpus order. A topic named directly as subject or target
//     anchors the predicate and its other endpoints. The predicate then inherits
//     the topics of its subject, and each target inherits the predicate's topics.
//
// References to unknown ids are reported as warnings and otherwise ignored.
func Build(corpus *core.Corpus, opts Options) (*Graph, []core.Warning) {
	g := newGraph(corpus)
	var warnings []core.Warning

	dangling := func(owner, field string, ref core.Ref) {
		warnings = append(warnings, core.Warning{
			Code:    core.WarnDangling,
			ID:      owner,
			Message: fmt.Sprintf("%s references unknown id %s", field, ref),
		})
	}

	for _, topic := range corpus.Records(core.KindTopic) {
		for _, ref := range topic.ContainedIDs {
			if _, ok := g.nodes[string(ref)]; !ok {
				dangling(topic.ID, "hasPart", ref)
				continue
			}
			g.connect(topic.ID, string(ref))
		}
	}

	for _, res := range corpus.Records(core.KindResource) {
		if res.ContainerID == "" {
			continue
		}
		container := string(res.ContainerID)
		switch {
		case g.IsTopic(container):
			g.connect(container, res.ID)
		case g.hasNode(container):
			warnings = append(warnings, core.Warning{
				Code:    core.WarnBadReference,
				ID:      res.ID,
				Message: fmt.Sprintf("isPartOf %s is not a topic", container),
			})
		default:
			dangling(res.ID, "isPartOf", res.ContainerID)
		}
	}

	// relatedIds are only hints for the analyzer, but unknown ones are still reported
	for _, c := range corpus.Records(core.KindConcept) {
		for _, ref := range c.RelatedIDs {
			if !g.hasNode(string(ref)) {
				dangling(c.ID, "relatedConcepts", ref)
			}
		}
	}

	for _, pred := range corpus.Records(core.KindPredicate) {
		var endpoints []string
		if pred.SubjectID != "" {
			if g.hasNode(string(pred.SubjectID)) {
				endpoints = append(endpoints, string(pred.SubjectID))
			} else {
				dangling(pred.ID, "subjectOf", pred.SubjectID)
			}
		}
		var targets []string
		for _, ref := range pred.TargetIDs {
			if !g.hasNode(string(ref)) {
				dangling(pred.ID, "targetCollection", ref)
				continue
			}
			endpoints = append(endpoints, string(ref))
			targets = append(targets, string(ref))
		}

		for _, anchor := range endpoints {
			if !g.IsTopic(anchor) {
				continue
			}
			g.connect(anchor, pred.ID)
			for _, other := range endpoints {
				g.connect(anchor, other)
			}
		}

		if pred.SubjectID != "" {
			for _, t := range g.TopicsOf(string(pred.SubjectID)) {
				g.connect(t, pred.ID)
			}
		}
		inherited := g.TopicsOf(pred.ID)
		for _, target := range targets {
			for _, t := range inherited {
				g.connect(t, target)
			}
		}

		if opts.BidirectionalPredicates {
			for _, target := range targets {
				for _, t := range g.TopicsOf(target) {
					g.connect(t, pred.ID)
					if pred.SubjectID != "" && g.hasNode(string(pred.SubjectID)) {
						g.connect(t, string(pred.SubjectID))
					}
				}
			}
		}
	}

	return g, warnings
}

func (g *Graph) hasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}
