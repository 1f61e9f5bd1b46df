// Package fix proposes and applies the changes that reconnect orphaned records.
package fix

import (
	"time"

	"github.com/aretw0/mycel/pkg/core"
	"github.com/aretw0/mycel/pkg/graph"
)

// ArtifactKind is the kind of change an artifact makes.
type ArtifactKind string

const (
	// CreatePredicate adds a new relation record linking a concept to a topic.
	CreatePredicate ArtifactKind = "predicate-create"
	// PatchResource sets the containerId of an existing resource.
	PatchResource ArtifactKind = "resource-update"
	// PatchTopic appends ids to the containedIds of an existing topic.
	PatchTopic ArtifactKind = "topic-update"
)

// Artifact is one proposed change. Applying it twice has the same effect as
// applying it once.
type Artifact struct {
	Kind ArtifactKind `json:"kind"`
	// RecordID is the record the artifact creates or patches.
	RecordID string `json:"record"`
	// TopicID is the topic the orphans are reconnected to.
	TopicID string `json:"topic"`
	// Sources are the orphans this artifact reconnects.
	Sources []string `json:"sources"`
	Score   float64  `json:"score"`

	// Record is the full new record of a CreatePredicate artifact.
	Record *core.Record `json:"-"`
	// AddIDs are appended to the topic of a PatchTopic artifact.
	AddIDs []core.Ref `json:"add,omitempty"`
}

// Summary counts the outcome of a generation run.
type Summary struct {
	Total     int `json:"total"`
	Fixed     int `json:"fixed"`
	Skipped   int `json:"skipped"`
	Artifacts int `json:"artifacts"`
}

// Batch is the set of artifacts produced for one run.
type Batch struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	DryRun    bool           `json:"dry_run"`
	Artifacts []Artifact     `json:"artifacts"`
	Unfixable []graph.Orphan `json:"unfixable,omitempty"`
	Summary   Summary        `json:"summary"`
	Warnings  []core.Warning `json:"warnings,omitempty"`
}
