// Package graph derives the connectivity graph of a corpus and proves which
// records are reachable from a Topic.
package graph

import "github.com/aretw0/mycel/pkg/core"

// idSet is an insertion-ordered set of ids.
type idSet struct {
	ids   []string
	index map[string]bool
}

func (s *idSet) add(id string) bool {
	if s.index == nil {
		s.index = make(map[string]bool)
	}
	if s.index[id] {
		return false
	}
	s.index[id] = true
	s.ids = append(s.ids, id)
	return true
}

func (s *idSet) has(id string) bool {
	return s != nil && s.index[id]
}

func (s *idSet) list() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.ids...)
}

func (s *idSet) len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// Graph is the in-memory connectivity view of a corpus. It is rebuilt on every
// run and never persisted.
type Graph struct {
	corpus *core.Corpus
	nodes  map[string]core.Record
	topics []string

	// topic id -> ids connected to it
	edges map[string]*idSet
	// id -> topics it is connected to (reverse of edges)
	topicsOf map[string]*idSet
}

func newGraph(corpus *core.Corpus) *Graph {
	g := &Graph{
		corpus:   corpus,
		nodes:    make(map[string]core.Record, corpus.Len()),
		topics:   corpus.IDs(core.KindTopic),
		edges:    make(map[string]*idSet),
		topicsOf: make(map[string]*idSet),
	}
	for _, kind := range core.Kinds {
		for id, rec := range corpus.Category(kind) {
			g.nodes[id] = rec
		}
	}
	for _, t := range g.topics {
		g.edges[t] = &idSet{}
	}
	return g
}

// connect records that id is connected to topic, in both directions.
// A topic is never connected to itself.
func (g *Graph) connect(topic, id string) bool {
	if topic == id {
		return false
	}
	edges, ok := g.edges[topic]
	if !ok {
		return false
	}
	if !edges.add(id) {
		return false
	}
	set, ok := g.topicsOf[id]
	if !ok {
		set = &idSet{}
		g.topicsOf[id] = set
	}
	set.add(topic)
	return true
}

// Corpus returns the corpus the graph was built from.
func (g *Graph) Corpus() *core.Corpus {
	return g.corpus
}

// Node looks a record up by id.
func (g *Graph) Node(id string) (core.Record, bool) {
	rec, ok := g.nodes[id]
	return rec, ok
}

// IsTopic reports whether id names a Topic of the corpus.
func (g *Graph) IsTopic(id string) bool {
	_, ok := g.edges[id]
	return ok
}

// Topics returns topic ids in corpus order.
func (g *Graph) Topics() []string {
	return append([]string(nil), g.topics...)
}

// Edges returns the ids connected to topic, in the order they were connected.
func (g *Graph) Edges(topic string) []string {
	return g.edges[topic].list()
}

// TopicsOf returns the topics id is connected to.
func (g *Graph) TopicsOf(id string) []string {
	return g.topicsOf[id].list()
}

// Connected reports whether id is connected to topic.
func (g *Graph) Connected(id, topic string) bool {
	return g.edges[topic].has(id)
}
