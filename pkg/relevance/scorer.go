// Package relevance ranks candidate topics for an orphaned record.
package relevance

import (
	"strings"
	"unicode"

	"github.com/aretw0/mycel/pkg/core"
	"github.com/aretw0/mycel/pkg/graph"
)

// Default weights.
const (
	DefaultTokenWeight    = 5
	DefaultRelatedWeight  = 10
	DefaultMinTokenLength = 4
)

// Scorer scores how well a topic fits an orphan.
type Scorer struct {
	// TokenWeight is added for each name token shared by orphan and topic.
	TokenWeight float64
	// RelatedWeight is added for each related concept already connected to the topic.
	RelatedWeight float64
	// MinTokenLength is the shortest word that counts as a token.
	MinTokenLength int
}

// NewScorer returns a scorer with the default weights.
func NewScorer() *Scorer {
	return &Scorer{
		TokenWeight:    DefaultTokenWeight,
		RelatedWeight:  DefaultRelatedWeight,
		MinTokenLength: DefaultMinTokenLength,
	}
}

// Score returns a non-negative relevance of topic for orphan.
func (s *Scorer) Score(orphan, topic core.Record, g *graph.Graph) float64 {
	var score float64

	topicTokens := s.Tokens(topic.DisplayName)
	for tok := range s.Tokens(orphan.DisplayName) {
		if topicTokens[tok] {
			score += s.TokenWeight
		}
	}

	if orphan.Kind == core.KindConcept && g != nil {
		for _, ref := range orphan.RelatedIDs {
			if g.Connected(string(ref), topic.ID) {
				score += s.RelatedWeight
			}
		}
	}
	return score
}

// Best returns the topic with the strictly highest score, enumerating topics in
// corpus order so ties go to the first one. ok is false when no topic scores
// above zero.
func (s *Scorer) Best(orphan core.Record, g *graph.Graph) (topic core.Record, score float64, ok bool) {
	for _, id := range g.Topics() {
		candidate, found := g.Node(id)
		if !found {
			continue
		}
		if sc := s.Score(orphan, candidate, g); sc > score {
			topic, score = candidate, sc
		}
	}
	return topic, score, score > 0
}

// Tokens splits name into its set of lowercase words of at least
// MinTokenLength letters or digits.
func (s *Scorer) Tokens(name string) map[string]bool {
	minLen := s.MinTokenLength
	if minLen < 1 {
		minLen = DefaultMinTokenLength
	}
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make(map[string]bool, len(words))
	for _, w := range words {
		if len([]rune(w)) >= minLen {
			out[w] = true
		}
	}
	return out
}
