package fs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/mycel/pkg/core"
)

// JSON-LD keys the engine interprets.
const (
	keyID            = "@id"
	keyType          = "@type"
	keyName          = "name"
	keyDescription   = "description"
	keyCreated       = "dateCreated"
	keyModified      = "dateModified"
	keyHasPart       = "hasPart"
	keyIsPartOf      = "isPartOf"
	keyRelated       = "relatedConcepts"
	keySubject       = "subjectOf"
	keyTargets       = "targetCollection"
	keyRelationName  = "relationName"
	keyRelationValue = "relationValue"
	keyConfidence    = "confidence"
	keyWeight        = "weight"
	keyAutoGenerated = "autoGenerated"
	keySemantic      = "semanticRelationship"
)

var errMissingID = fmt.Errorf("%w: missing %s", core.ErrInvalidRecord, keyID)

var commonKeys = []string{keyID, keyName, keyDescription, keyCreated, keyModified}

var kindKeys = map[core.Kind][]string{
	core.KindTopic:    {keyHasPart},
	core.KindConcept:  {keyRelated},
	core.KindResource: {keyIsPartOf},
	core.KindPredicate: {
		keySubject, keyTargets, keyRelationName, keyRelationValue,
		keyConfidence, keyWeight, keyAutoGenerated, keySemantic,
	},
}

// Serializer reads and writes records as JSON-LD objects.
type Serializer struct{}

// NewSerializer creates a new JSON-LD serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Parse reads one record. The kind is decided by the category directory; an
// @type that disagrees is reported as a warning. Reference fields are
// normalized into core.Ref lists.
func (s *Serializer) Parse(r io.Reader, kind core.Kind) (core.Record, []core.Warning, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return core.Record{}, nil, err
	}

	var payload map[string]any
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return core.Record{}, nil, fmt.Errorf("%w: invalid json: %v", core.ErrInvalidRecord, err)
	}
	return s.FromMap(payload, kind)
}

// FromMap builds a record from a decoded JSON object.
// When kind is empty it is taken from @type.
func (s *Serializer) FromMap(payload map[string]any, kind core.Kind) (core.Record, []core.Warning, error) {
	id, _ := payload[keyID].(string)
	id = strings.TrimSpace(id)
	if id == "" {
		return core.Record{}, nil, errMissingID
	}

	d := decoder{id: id}

	declared, hasType := typeKind(payload[keyType])
	switch {
	case kind == "" && !hasType:
		return core.Record{}, nil, fmt.Errorf("%w: %s has no recognizable %s", core.ErrInvalidRecord, id, keyType)
	case kind == "":
		kind = declared
	case hasType && declared != kind:
		d.warn(core.WarnKindMismatch, fmt.Sprintf("%s says %s, stored as %s", keyType, declared, kind))
	}

	rec := core.Record{
		ID:          id,
		Kind:        kind,
		DisplayName: d.str(payload, keyName),
		Description: d.str(payload, keyDescription),
		Created:     d.date(payload, keyCreated),
		Modified:    d.date(payload, keyModified),
		Extra:       make(map[string]any),
	}
	rec.CreatedText, _ = payload[keyCreated].(string)
	rec.ModifiedText, _ = payload[keyModified].(string)

	switch kind {
	case core.KindTopic:
		rec.ContainedIDs, _ = core.AppendRefs(nil, d.refs(payload, keyHasPart)...)
	case core.KindConcept:
		rec.RelatedIDs, _ = core.AppendRefs(nil, d.refs(payload, keyRelated)...)
	case core.KindResource:
		rec.ContainerID = d.ref(payload, keyIsPartOf)
	case core.KindPredicate:
		rec.SubjectID = d.ref(payload, keySubject)
		rec.TargetIDs, _ = core.AppendRefs(nil, d.refs(payload, keyTargets)...)
		rec.RelationName = d.str(payload, keyRelationName)
		rec.RelationValue = d.str(payload, keyRelationValue)
		rec.Confidence = d.num(payload, keyConfidence)
		rec.Weight = d.num(payload, keyWeight)
		rec.AutoGenerated = d.flag(payload, keyAutoGenerated)
		rec.SemanticRelationship = d.flag(payload, keySemantic)
		if rec.SubjectID == "" {
			d.warn(core.WarnBadReference, "predicate has no subject")
		}
		if len(rec.TargetIDs) == 0 {
			d.warn(core.WarnBadReference, "predicate has no targets")
		}
	}

	if !rec.Created.IsZero() && !rec.Modified.IsZero() && rec.Modified.Before(rec.Created) {
		d.warn(core.WarnDateOrder, "dateModified precedes dateCreated")
	}

	known := make(map[string]bool)
	for _, k := range commonKeys {
		known[k] = true
	}
	for _, k := range kindKeys[kind] {
		known[k] = true
	}
	for k, v := range payload {
		if !known[k] {
			rec.Extra[k] = v
		}
	}

	return rec, d.warnings, nil
}

// Serialize renders a record as an indented JSON-LD object. Keys are sorted,
// so equal records always produce identical bytes.
func (s *Serializer) Serialize(rec core.Record) ([]byte, error) {
	data, err := json.MarshalIndent(s.ToMap(rec), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// ToMap converts a record back into its JSON-LD object.
func (s *Serializer) ToMap(rec core.Record) map[string]any {
	payload := make(map[string]any, len(rec.Extra)+8)
	for k, v := range rec.Extra {
		payload[k] = v
	}

	payload[keyID] = rec.ID
	if _, ok := payload[keyType]; !ok {
		payload[keyType] = string(rec.Kind)
	}
	payload[keyName] = rec.DisplayName
	if rec.Description != "" {
		payload[keyDescription] = rec.Description
	}
	if v := dateText(rec.Created, rec.CreatedText); v != "" {
		payload[keyCreated] = v
	}
	if v := dateText(rec.Modified, rec.ModifiedText); v != "" {
		payload[keyModified] = v
	}

	switch rec.Kind {
	case core.KindTopic:
		payload[keyHasPart] = refStrings(rec.ContainedIDs)
	case core.KindConcept:
		if len(rec.RelatedIDs) > 0 {
			payload[keyRelated] = refStrings(rec.RelatedIDs)
		}
	case core.KindResource:
		if rec.ContainerID != "" {
			payload[keyIsPartOf] = string(rec.ContainerID)
		}
	case core.KindPredicate:
		payload[keySubject] = string(rec.SubjectID)
		payload[keyTargets] = refStrings(rec.TargetIDs)
		payload[keyRelationName] = rec.RelationName
		if rec.RelationValue != "" {
			payload[keyRelationValue] = rec.RelationValue
		}
		payload[keyConfidence] = rec.Confidence
		payload[keyWeight] = rec.Weight
		payload[keyAutoGenerated] = rec.AutoGenerated
		if rec.SemanticRelationship {
			payload[keySemantic] = true
		}
	}
	return payload
}

// --- Helpers ---

// decoder accumulates warnings while reading the fields of one record.
type decoder struct {
	id       string
	warnings []core.Warning
}

func (d *decoder) warn(code, msg string) {
	d.warnings = append(d.warnings, core.Warning{Code: code, ID: d.id, Message: msg})
}

func (d *decoder) str(payload map[string]any, key string) string {
	switch v := payload[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		d.warn(core.WarnBadReference, fmt.Sprintf("%s is not a string", key))
		return ""
	}
}

func (d *decoder) num(payload map[string]any, key string) float64 {
	switch v := payload[key].(type) {
	case nil:
		return 0
	case json.Number:
		f, err := v.Float64()
		if err == nil {
			return f
		}
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	d.warn(core.WarnBadReference, fmt.Sprintf("%s is not a number", key))
	return 0
}

func (d *decoder) flag(payload map[string]any, key string) bool {
	switch v := payload[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}

func (d *decoder) date(payload map[string]any, key string) time.Time {
	raw, ok := payload[key].(string)
	if !ok || raw == "" {
		return time.Time{}
	}
	if t, ok := parseDate(raw); ok {
		return t
	}
	d.warn(core.WarnDateOrder, fmt.Sprintf("%s %q is not an ISO-8601 timestamp", key, raw))
	return time.Time{}
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dateText renders a date field. The text read from disk is kept when t is
// unset (it did not parse) or still the same instant; otherwise t is written
// as UTC RFC 3339.
func dateText(t time.Time, text string) string {
	if text != "" {
		if t.IsZero() {
			return text
		}
		if parsed, ok := parseDate(text); ok && parsed.Equal(t) {
			return text
		}
	}
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// refs normalizes a reference field: a bare string, an {"@id": ...} object, or
// an array of either. Elements of any other shape are dropped with a warning.
func (d *decoder) refs(payload map[string]any, key string) []core.Ref {
	v, ok := payload[key]
	if !ok || v == nil {
		return nil
	}
	items, isList := v.([]any)
	if !isList {
		items = []any{v}
	}
	var out []core.Ref
	for _, item := range items {
		ref, ok := refOf(item)
		if !ok {
			d.warn(core.WarnBadReference, fmt.Sprintf("%s contains an unusable reference %v", key, item))
			continue
		}
		if ref != "" {
			out = append(out, ref)
		}
	}
	return out
}

// ref reads a single-valued reference field.
func (d *decoder) ref(payload map[string]any, key string) core.Ref {
	refs := d.refs(payload, key)
	if len(refs) == 0 {
		return ""
	}
	if len(refs) > 1 {
		d.warn(core.WarnBadReference, fmt.Sprintf("%s holds %d references, keeping the first", key, len(refs)))
	}
	return refs[0]
}

func refOf(v any) (core.Ref, bool) {
	switch x := v.(type) {
	case string:
		return core.Ref(strings.TrimSpace(x)), true
	case map[string]any:
		if id, ok := x[keyID].(string); ok {
			return core.Ref(strings.TrimSpace(id)), true
		}
	}
	return "", false
}

// typeKind reads @type, which JSON-LD allows to be a string or a list.
func typeKind(v any) (core.Kind, bool) {
	switch x := v.(type) {
	case string:
		return core.ParseKind(x)
	case []any:
		for _, item := range x {
			if s, ok := item.(string); ok {
				if k, ok := core.ParseKind(s); ok {
					return k, true
				}
			}
		}
	}
	return "", false
}

func refStrings(refs []core.Ref) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, string(r))
	}
	return out
}
