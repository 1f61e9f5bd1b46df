package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/mycel/pkg/core"
	"github.com/aretw0/mycel/pkg/graph"
)

func topic(id, name string, parts ...string) core.Record {
	return core.Record{ID: id, Kind: core.KindTopic, DisplayName: name, ContainedIDs: core.Refs(parts...)}
}

func concept(id, name string, related ...string) core.Record {
	return core.Record{ID: id, Kind: core.KindConcept, DisplayName: name, RelatedIDs: core.Refs(related...)}
}

func predicate(id, subject string, targets ...string) core.Record {
	return core.Record{ID: id, Kind: core.KindPredicate, SubjectID: core.Ref(subject), TargetIDs: core.Refs(targets...)}
}

func resource(id, container string) core.Record {
	return core.Record{ID: id, Kind: core.KindResource, ContainerID: core.Ref(container)}
}

func corpusOf(records ...core.Record) *core.Corpus {
	c := core.NewCorpus()
	for _, r := range records {
		c.Put(r)
	}
	return c
}

func orphanIDs(a graph.Analysis) []string {
	var ids []string
	for _, o := range a.Orphans {
		ids = append(ids, o.ID)
	}
	return ids
}

func TestBuild(t *testing.T) {
	t.Run("Containment Edges", func(t *testing.T) {
		g, warnings := graph.Build(corpusOf(
			topic("t1", "T1", "c1", "ghost"),
			concept("c1", "C1"),
			resource("r1", "t1"),
			resource("r2", "c1"),
			resource("r3", "nowhere"),
		), graph.Options{})

		assert.Equal(t, []string{"c1", "r1"}, g.Edges("t1"))
		assert.Equal(t, []string{"t1"}, g.TopicsOf("r1"))
		assert.False(t, g.Connected("r2", "t1"))

		codes := map[string]string{}
		for _, w := range warnings {
			codes[w.ID+" "+w.Message] = w.Code
		}
		assert.Equal(t, core.WarnDangling, codes["t1 hasPart references unknown id ghost"])
		assert.Equal(t, core.WarnBadReference, codes["r2 isPartOf c1 is not a topic"])
		assert.Equal(t, core.WarnDangling, codes["r3 isPartOf references unknown id nowhere"])
	})

	t.Run("Predicate Inherits Forward", func(t *testing.T) {
		g, warnings := graph.Build(corpusOf(
			topic("t1", "T1", "a"),
			concept("a", "A"),
			concept("b", "B"),
			predicate("p", "a", "b"),
			predicate("q", "b", "a"),
		), graph.Options{})
		assert.Empty(t, warnings)

		assert.True(t, g.Connected("p", "t1"))
		assert.True(t, g.Connected("b", "t1"))
		// q is processed after p connected b, so it inherits too
		assert.True(t, g.Connected("q", "t1"))
	})

	t.Run("Forward Only By Default", func(t *testing.T) {
		records := []core.Record{
			topic("t1", "T1", "b"),
			concept("a", "A"),
			concept("b", "B"),
			predicate("p", "a", "b"),
		}

		g, _ := graph.Build(corpusOf(records...), graph.Options{})
		assert.False(t, g.Connected("a", "t1"))
		assert.False(t, g.Connected("p", "t1"))

		g, _ = graph.Build(corpusOf(records...), graph.Options{BidirectionalPredicates: true})
		assert.True(t, g.Connected("a", "t1"))
		assert.True(t, g.Connected("p", "t1"))
	})

	t.Run("Topic Endpoint Anchors the Relation", func(t *testing.T) {
		g, _ := graph.Build(corpusOf(
			topic("t1", "T1"),
			concept("c1", "C1"),
			predicate("p", "c1", "t1"),
		), graph.Options{})

		assert.True(t, g.Connected("p", "t1"))
		assert.True(t, g.Connected("c1", "t1"))
		assert.False(t, g.Connected("t1", "t1"))
	})

	t.Run("Dangling Predicate Endpoints", func(t *testing.T) {
		_, warnings := graph.Build(corpusOf(predicate("p", "missing", "also-missing")), graph.Options{})
		require.Len(t, warnings, 2)
		for _, w := range warnings {
			assert.Equal(t, core.WarnDangling, w.Code)
			assert.Equal(t, "p", w.ID)
		}
	})
}

func TestAnalyze(t *testing.T) {
	t.Run("Scenario A: Unreferenced Concept Is an Orphan", func(t *testing.T) {
		g, _ := graph.Build(corpusOf(topic("t1", "T1"), concept("c1", "C1")), graph.Options{})
		a := graph.Analyze(g, graph.DefaultMaxPasses)

		assert.Equal(t, []graph.Orphan{{ID: "c1", Kind: core.KindConcept, DisplayName: "C1"}}, a.Orphans)
		assert.Equal(t, []graph.TopicCount{{TopicID: "t1", Count: 0}}, a.TopicConnectionCounts)
		assert.True(t, a.Converged)
		assert.Equal(t, 1, a.Passes)
	})

	t.Run("Related Concepts Propagate", func(t *testing.T) {
		g, _ := graph.Build(corpusOf(
			topic("t1", "T1", "a"),
			concept("a", "A"),
			// c comes first in corpus order and depends on b, so it needs a second pass
			concept("c", "C", "b"),
			concept("b", "B", "a"),
			concept("d", "D", "t1"),
			concept("lonely", "Lonely", "nobody"),
		), graph.Options{})
		a := graph.Analyze(g, graph.DefaultMaxPasses)

		assert.Equal(t, []string{"lonely"}, orphanIDs(a))
		assert.True(t, a.IsReachable("c"))
		assert.True(t, a.IsReachable("d"))
		assert.Equal(t, 3, a.Passes)
		assert.True(t, a.Converged)
		assert.Equal(t, []string{"t1"}, g.TopicsOf("c"))
		assert.Equal(t, []graph.TopicCount{{TopicID: "t1", Count: 4}}, a.TopicConnectionCounts)
	})

	t.Run("Bound Without Convergence", func(t *testing.T) {
		// a chain in reverse corpus order gains one concept per pass
		g, _ := graph.Build(corpusOf(
			concept("c4", "C4", "c3"),
			concept("c3", "C3", "c2"),
			concept("c2", "C2", "c1"),
			concept("c1", "C1", "c0"),
			concept("c0", "C0"),
			topic("t", "T", "c0"),
		), graph.Options{})
		a := graph.Analyze(g, 2)

		assert.False(t, a.Converged)
		assert.Equal(t, 2, a.Passes)
		assert.Equal(t, []string{"c4", "c3"}, orphanIDs(a))
		require.Len(t, a.Warnings, 1)
		assert.Equal(t, core.WarnNoConvergence, a.Warnings[0].Code)
	})

	t.Run("Converged When the Last Allowed Pass Finishes the Job", func(t *testing.T) {
		g, _ := graph.Build(corpusOf(
			concept("c2", "C2", "c1"),
			concept("c1", "C1", "c0"),
			concept("c0", "C0"),
			topic("t", "T", "c0"),
		), graph.Options{})
		a := graph.Analyze(g, 2)

		assert.True(t, a.Converged)
		assert.Empty(t, a.Orphans)
		assert.Empty(t, a.Warnings)
	})

	t.Run("Partition", func(t *testing.T) {
		c := corpusOf(
			topic("t1", "T1", "t2", "c1", "p1"),
			topic("t2", "T2"),
			concept("c1", "C1"),
			concept("c2", "C2", "c1"),
			concept("c3", "C3"),
			predicate("p1", "c1", "c4"),
			predicate("p2", "c3", "c5"),
			concept("c4", "C4"),
			concept("c5", "C5"),
			resource("r1", "t2"),
			resource("r2", ""),
		)
		g, _ := graph.Build(c, graph.Options{})
		a := graph.Analyze(g, graph.DefaultMaxPasses)

		nonTopic := map[string]bool{}
		for _, k := range []core.Kind{core.KindConcept, core.KindPredicate, core.KindResource} {
			for _, id := range c.IDs(k) {
				nonTopic[id] = true
			}
		}
		for _, o := range a.Orphans {
			assert.False(t, a.IsReachable(o.ID), o.ID)
		}
		for id := range nonTopic {
			isOrphan := false
			for _, o := range a.Orphans {
				isOrphan = isOrphan || o.ID == id
			}
			assert.NotEqual(t, isOrphan, a.IsReachable(id), id)
		}
		assert.Equal(t, []string{"c3", "c5", "p2", "r2"}, orphanIDs(a))
		assert.False(t, a.IsReachable("t2"))
		assert.NotContains(t, a.Reachable, "t2")
		assert.Len(t, a.Reachable, len(nonTopic)-len(a.Orphans))
	})

	t.Run("Deterministic", func(t *testing.T) {
		build := func() graph.Analysis {
			g, _ := graph.Build(corpusOf(
				topic("t2", "T2", "b"),
				topic("t1", "T1", "a"),
				concept("a", "A"),
				concept("b", "B"),
				concept("x", "X", "a", "b"),
				concept("y", "Y"),
				resource("z", ""),
			), graph.Options{})
			return graph.Analyze(g, graph.DefaultMaxPasses)
		}
		first, second := build(), build()
		assert.Equal(t, first.Orphans, second.Orphans)
		assert.Equal(t, first.TopicConnectionCounts, second.TopicConnectionCounts)
		assert.Equal(t, []graph.TopicCount{{TopicID: "t2", Count: 2}, {TopicID: "t1", Count: 2}}, first.TopicConnectionCounts)
	})
}
