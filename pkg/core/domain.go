// Package core holds the domain model of the content corpus.
package core

import (
	"strings"
	"time"
)

// Kind is the category of a Record.
type Kind string

const (
	KindConcept   Kind = "Concept"
	KindPredicate Kind = "Predicate"
	KindTopic     Kind = "Topic"
	KindResource  Kind = "Resource"
)

// Kinds lists every kind in the order categories are loaded and reported.
var Kinds = []Kind{KindConcept, KindPredicate, KindTopic, KindResource}

// ParseKind maps an @type value to a Kind. Matching is case-insensitive.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if strings.EqualFold(s, string(k)) {
			return k, true
		}
	}
	return "", false
}

// Ref is a normalized reference to another record.
// On the wire it may be a bare string or an {"@id": ...} object.
type Ref string

// Refs converts plain ids into refs.
func Refs(ids ...string) []Ref {
	out := make([]Ref, 0, len(ids))
	for _, id := range ids {
		out = append(out, Ref(id))
	}
	return out
}

// Record is the unit of content.
// Kind-specific fields are zero for kinds that do not use them.
type Record struct {
	ID          string
	Kind        Kind
	DisplayName string
	Description string
	Created     time.Time
	Modified    time.Time

	// CreatedText and ModifiedText hold the dates exactly as read. They are
	// written back unchanged while they still denote Created and Modified.
	CreatedText  string
	ModifiedText string

	// Topic
	ContainedIDs []Ref
	// Concept
	RelatedIDs []Ref
	// Resource
	ContainerID Ref

	// Predicate
	SubjectID            Ref
	TargetIDs            []Ref
	RelationName         string
	RelationValue        string
	Confidence           float64
	Weight               float64
	AutoGenerated        bool
	SemanticRelationship bool

	// Path is the absolute file the record was loaded from. Empty for index stubs
	// and records not yet written.
	Path string
	// Extra keeps JSON keys the engine does not interpret so rewrites preserve them.
	Extra map[string]any
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	c := r
	c.ContainedIDs = append([]Ref(nil), r.ContainedIDs...)
	c.RelatedIDs = append([]Ref(nil), r.RelatedIDs...)
	c.TargetIDs = append([]Ref(nil), r.TargetIDs...)
	if r.Extra != nil {
		c.Extra = make(map[string]any, len(r.Extra))
		for k, v := range r.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

// Touch sets Modified to now, never earlier than Created.
func (r *Record) Touch(now time.Time) {
	if !r.Created.IsZero() && now.Before(r.Created) {
		now = r.Created
	}
	r.Modified = now
}

// AppendRefs adds ids to list with set semantics, keeping first-seen order.
// It reports whether list changed.
func AppendRefs(list []Ref, ids ...Ref) ([]Ref, bool) {
	seen := make(map[Ref]bool, len(list))
	for _, id := range list {
		seen[id] = true
	}
	changed := false
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		list = append(list, id)
		changed = true
	}
	return list, changed
}

// Slug returns the last ':'-separated component of a URN id.
func Slug(id string) string {
	if i := strings.LastIndex(id, ":"); i >= 0 {
		return id[i+1:]
	}
	return id
}

// Namespace returns the namespace of a "urn:<ns>:..." id, or "" for other ids.
func Namespace(id string) string {
	parts := strings.SplitN(id, ":", 3)
	if len(parts) < 3 || parts[0] != "urn" {
		return ""
	}
	return parts[1]
}

// Stem derives a file-system friendly name from an id:
// "urn:<ns>:<kind>:a:b" becomes "a-b". Other ids have separators replaced.
func Stem(id string) string {
	name := id
	if parts := strings.Split(id, ":"); len(parts) > 3 && parts[0] == "urn" {
		name = strings.Join(parts[3:], "-")
	}
	name = strings.NewReplacer(":", "-", "/", "-", "\\", "-").Replace(name)
	name = strings.Trim(name, ". ")
	if name == "" {
		name = "record"
	}
	return name
}
