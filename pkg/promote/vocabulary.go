// Package promote rewrites placeholder relations into named ones.
package promote

import (
	"strings"
	"unicode"
)

// Rule maps a keyword found in a source slug to a relation verb.
type Rule struct {
	Pattern string `yaml:"pattern" json:"pattern"`
	Verb    string `yaml:"verb" json:"verb"`
}

// Vocabulary decides the relation verb of a promoted predicate.
//
// Matching precedence for a source slug:
//  1. a rule whose pattern equals the slug, in table order;
//  2. a rule whose pattern is contained in the slug, in table order;
//  3. DefaultVerb.
type Vocabulary struct {
	Rules       []Rule
	Phrases     map[string]string
	DefaultVerb string
}

// DefaultVocabulary returns the built-in keyword table.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Rules: []Rule{
			{Pattern: "norm", Verb: "defines"},
			{Pattern: "principle", Verb: "grounds"},
			{Pattern: "axiom", Verb: "grounds"},
			{Pattern: "definition", Verb: "defines"},
			{Pattern: "theorem", Verb: "proves"},
			{Pattern: "proof", Verb: "proves"},
			{Pattern: "method", Verb: "enables"},
			{Pattern: "process", Verb: "enables"},
			{Pattern: "measure", Verb: "quantifies"},
			{Pattern: "metric", Verb: "quantifies"},
			{Pattern: "example", Verb: "illustrates"},
			{Pattern: "model", Verb: "models"},
			{Pattern: "system", Verb: "structures"},
			{Pattern: "field", Verb: "extends"},
		},
		Phrases: map[string]string{
			"defines":     "defines",
			"grounds":     "provides grounding for",
			"proves":      "proves a result about",
			"enables":     "enables",
			"quantifies":  "quantifies",
			"illustrates": "illustrates",
			"models":      "models",
			"structures":  "structures",
			"extends":     "extends",
			"informs":     "informs",
		},
		DefaultVerb: "informs",
	}
}

// Resolve returns the verb for a source slug.
func (v Vocabulary) Resolve(slug string) string {
	s := strings.ToLower(slug)
	for _, r := range v.Rules {
		if s == strings.ToLower(r.Pattern) {
			return r.Verb
		}
	}
	for _, r := range v.Rules {
		if r.Pattern != "" && strings.Contains(s, strings.ToLower(r.Pattern)) {
			return r.Verb
		}
	}
	if v.DefaultVerb == "" {
		return "informs"
	}
	return v.DefaultVerb
}

// Phrase returns the descriptive phrase of verb, or verb itself when the
// table has no entry.
func (v Vocabulary) Phrase(verb string) string {
	if p, ok := v.Phrases[verb]; ok && p != "" {
		return p
	}
	return verb
}

// RelationName joins a verb and a source slug: ("defines", "coherence-norm")
// gives "definesCoherenceNorm".
func RelationName(verb, slug string) string {
	return verb + PascalCase(slug)
}

// PascalCase joins the words of a slug, each capitalized.
func PascalCase(slug string) string {
	var b strings.Builder
	for _, w := range words(slug) {
		b.WriteString(capitalize(w))
	}
	return b.String()
}

// Humanize turns a slug into a title-cased name: "temporal-coherence" gives
// "Temporal Coherence".
func Humanize(slug string) string {
	ws := words(slug)
	for i, w := range ws {
		ws[i] = capitalize(w)
	}
	return strings.Join(ws, " ")
}

func words(slug string) []string {
	return strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || unicode.IsSpace(r)
	})
}

func capitalize(w string) string {
	rs := []rune(w)
	if len(rs) == 0 {
		return w
	}
	rs[0] = unicode.ToUpper(rs[0])
	return string(rs)
}
