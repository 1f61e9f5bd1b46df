package core

// Corpus is the full set of loaded records, one id-keyed map per kind.
// Each category also keeps insertion order so that every stage enumerates
// records deterministically.
type Corpus struct {
	Concepts   map[string]Record
	Predicates map[string]Record
	Topics     map[string]Record
	Resources  map[string]Record

	order map[Kind][]string
}

// NewCorpus returns an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{
		Concepts:   make(map[string]Record),
		Predicates: make(map[string]Record),
		Topics:     make(map[string]Record),
		Resources:  make(map[string]Record),
		order:      make(map[Kind][]string),
	}
}

// Category returns the map holding records of kind k.
func (c *Corpus) Category(k Kind) map[string]Record {
	switch k {
	case KindConcept:
		return c.Concepts
	case KindPredicate:
		return c.Predicates
	case KindTopic:
		return c.Topics
	case KindResource:
		return c.Resources
	}
	return nil
}

// Put inserts or replaces a record. A replaced record keeps its position.
func (c *Corpus) Put(r Record) {
	m := c.Category(r.Kind)
	if m == nil {
		return
	}
	if _, ok := m[r.ID]; !ok {
		c.order[r.Kind] = append(c.order[r.Kind], r.ID)
	}
	m[r.ID] = r
}

// Remove deletes a record and its ordering slot.
func (c *Corpus) Remove(k Kind, id string) {
	m := c.Category(k)
	if _, ok := m[id]; !ok {
		return
	}
	delete(m, id)
	ids := c.order[k]
	for i, v := range ids {
		if v == id {
			c.order[k] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
}

// Get looks a record up in any category.
func (c *Corpus) Get(id string) (Record, bool) {
	for _, k := range Kinds {
		if r, ok := c.Category(k)[id]; ok {
			return r, true
		}
	}
	return Record{}, false
}

// IDs returns the ids of kind k in insertion order.
func (c *Corpus) IDs(k Kind) []string {
	return append([]string(nil), c.order[k]...)
}

// Records returns the records of kind k in insertion order.
func (c *Corpus) Records(k Kind) []Record {
	m := c.Category(k)
	out := make([]Record, 0, len(c.order[k]))
	for _, id := range c.order[k] {
		out = append(out, m[id])
	}
	return out
}

// Len returns the number of records across all categories.
func (c *Corpus) Len() int {
	return len(c.Concepts) + len(c.Predicates) + len(c.Topics) + len(c.Resources)
}
