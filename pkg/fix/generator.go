package fix

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/mycel/pkg/core"
	"github.com/aretw0/mycel/pkg/graph"
	"github.com/aretw0/mycel/pkg/relevance"
)

// Defaults for generated relation records.
const (
	DefaultNamespace     = "mycel"
	DefaultMarker        = "auto-relatedTo"
	GeneratedRelation    = "relatedTo"
	GeneratedRelationVal = "related to"
)

// Generator turns orphans into artifacts.
type Generator struct {
	Scorer *relevance.Scorer
	// Namespace is used for generated ids when the orphan id is not a URN.
	Namespace string
	// Marker is the id component that flags a placeholder predicate.
	Marker string
	Now    func() time.Time
}

// NewGenerator returns a generator with default settings.
func NewGenerator(scorer *relevance.Scorer) *Generator {
	if scorer == nil {
		scorer = relevance.NewScorer()
	}
	return &Generator{
		Scorer:    scorer,
		Namespace: DefaultNamespace,
		Marker:    DefaultMarker,
		Now:       time.Now,
	}
}

// Generate emits one artifact per fixable orphan, in orphan order. Predicate
// orphans sent to the same topic collapse into a single topic patch placed where
// the first of them appeared. Generate has no side effects; dryRun is only
// recorded on the batch for the caller.
func (gen *Generator) Generate(g *graph.Graph, orphans []graph.Orphan, dryRun bool) Batch {
	now := gen.Now().UTC().Truncate(time.Second)
	batch := Batch{
		ID:        uuid.NewString(),
		CreatedAt: now,
		DryRun:    dryRun,
	}
	topicPatch := make(map[string]int)
	created := make(map[string]string)

	for _, o := range orphans {
		rec, ok := g.Node(o.ID)
		if !ok {
			continue
		}

		topic, score, ok := gen.Scorer.Best(rec, g)
		if !ok {
			batch.Unfixable = append(batch.Unfixable, o)
			batch.Warnings = append(batch.Warnings, core.Warning{
				Code:    core.WarnUnscored,
				ID:      o.ID,
				Message: "no topic scores above zero, left for manual handling",
			})
			continue
		}

		switch o.Kind {
		case core.KindConcept:
			pred := gen.placeholder(rec, topic, score, now)
			if other, taken := created[pred.ID]; taken {
				batch.Unfixable = append(batch.Unfixable, o)
				batch.Warnings = append(batch.Warnings, core.Warning{
					Code:    core.WarnDuplicateID,
					ID:      o.ID,
					Message: fmt.Sprintf("generated relation %s is already proposed for %s", pred.ID, other),
				})
				continue
			}
			created[pred.ID] = o.ID
			batch.Artifacts = append(batch.Artifacts, Artifact{
				Kind:     CreatePredicate,
				RecordID: pred.ID,
				TopicID:  topic.ID,
				Sources:  []string{o.ID},
				Score:    score,
				Record:   &pred,
			})
		case core.KindResource:
			batch.Artifacts = append(batch.Artifacts, Artifact{
				Kind:     PatchResource,
				RecordID: o.ID,
				TopicID:  topic.ID,
				Sources:  []string{o.ID},
				Score:    score,
			})
		case core.KindPredicate:
			if i, ok := topicPatch[topic.ID]; ok {
				a := &batch.Artifacts[i]
				a.AddIDs, _ = core.AppendRefs(a.AddIDs, core.Ref(o.ID))
				a.Sources = append(a.Sources, o.ID)
				if score > a.Score {
					a.Score = score
				}
				break
			}
			topicPatch[topic.ID] = len(batch.Artifacts)
			batch.Artifacts = append(batch.Artifacts, Artifact{
				Kind:     PatchTopic,
				RecordID: topic.ID,
				TopicID:  topic.ID,
				Sources:  []string{o.ID},
				Score:    score,
				AddIDs:   core.Refs(o.ID),
			})
		default:
			continue
		}
		batch.Summary.Fixed++
	}

	batch.Summary.Total = len(orphans)
	batch.Summary.Skipped = batch.Summary.Total - batch.Summary.Fixed
	batch.Summary.Artifacts = len(batch.Artifacts)
	return batch
}

// PlaceholderID builds the id of a generated relation:
// urn:<ns>:predicate:<marker>:<source-stem>:<target-stem>. A stem joins every
// component after the kind, so distinct URNs keep distinct ids.
func PlaceholderID(namespace, marker, sourceID, targetID string) string {
	return fmt.Sprintf("urn:%s:predicate:%s:%s:%s", namespace, marker, core.Stem(sourceID), core.Stem(targetID))
}

func (gen *Generator) placeholder(orphan, topic core.Record, score float64, now time.Time) core.Record {
	ns := core.Namespace(orphan.ID)
	if ns == "" {
		ns = gen.Namespace
	}
	return core.Record{
		ID:            PlaceholderID(ns, gen.Marker, orphan.ID, topic.ID),
		Kind:          core.KindPredicate,
		DisplayName:   fmt.Sprintf("%s %s %s", nameOf(orphan), GeneratedRelationVal, nameOf(topic)),
		Created:       now,
		Modified:      now,
		SubjectID:     core.Ref(orphan.ID),
		TargetIDs:     core.Refs(topic.ID),
		RelationName:  GeneratedRelation,
		RelationValue: GeneratedRelationVal,
		Confidence:    score / (score + 10),
		Weight:        score,
		AutoGenerated: true,
	}
}

func nameOf(rec core.Record) string {
	if rec.DisplayName != "" {
		return rec.DisplayName
	}
	return core.Slug(rec.ID)
}
