package core_test

import (
	"testing"
	"time"

	"github.com/aretw0/mycel/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	k, ok := core.ParseKind("topic")
	require.True(t, ok)
	assert.Equal(t, core.KindTopic, k)

	_, ok = core.ParseKind("Person")
	assert.False(t, ok)
}

func TestAppendRefs(t *testing.T) {
	list := core.Refs("a", "b")

	list, changed := core.AppendRefs(list, "b", "c", "c", "")
	assert.True(t, changed)
	assert.Equal(t, core.Refs("a", "b", "c"), list)

	list, changed = core.AppendRefs(list, "a", "c")
	assert.False(t, changed)
	assert.Len(t, list, 3)
}

func TestRecord_Touch(t *testing.T) {
	created := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	r := core.Record{Created: created}

	r.Touch(created.Add(-time.Hour))
	assert.Equal(t, created, r.Modified, "modified must never precede created")

	later := created.Add(time.Hour)
	r.Touch(later)
	assert.Equal(t, later, r.Modified)
}

func TestRecord_Clone(t *testing.T) {
	r := core.Record{ID: "t", ContainedIDs: core.Refs("a"), Extra: map[string]any{"x": 1}}
	c := r.Clone()
	c.ContainedIDs[0] = "b"
	c.Extra["x"] = 2

	assert.Equal(t, core.Ref("a"), r.ContainedIDs[0])
	assert.Equal(t, 1, r.Extra["x"])
}

func TestSlugAndNamespace(t *testing.T) {
	id := "urn:lab:predicate:auto-relatedTo:coherence-norm:temporal-coherence"
	assert.Equal(t, "temporal-coherence", core.Slug(id))
	assert.Equal(t, "lab", core.Namespace(id))
	assert.Equal(t, "plain", core.Slug("plain"))
	assert.Equal(t, "", core.Namespace("plain"))
}

func TestCorpus_Order(t *testing.T) {
	c := core.NewCorpus()
	c.Put(core.Record{ID: "t2", Kind: core.KindTopic, DisplayName: "first"})
	c.Put(core.Record{ID: "t1", Kind: core.KindTopic})
	c.Put(core.Record{ID: "t2", Kind: core.KindTopic, DisplayName: "replaced"})

	assert.Equal(t, []string{"t2", "t1"}, c.IDs(core.KindTopic))
	assert.Equal(t, "replaced", c.Topics["t2"].DisplayName)

	c.Remove(core.KindTopic, "t2")
	assert.Equal(t, []string{"t1"}, c.IDs(core.KindTopic))
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get("t1")
	assert.True(t, ok)
}
