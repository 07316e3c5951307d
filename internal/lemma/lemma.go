// Package lemma reduces user-selected terms to a stable base form so that
// deck lookups and deck writes agree on the same key.
package lemma

import (
	"fmt"
	"strings"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
)

// Normalizer lowercases and lemmatizes terms token by token, leaving members
// of the irregular-verb exception set untouched. It holds no mutable state,
// so a single instance is safe for concurrent use.
type Normalizer struct {
	irregular  map[string]struct{}
	lemmatizer *golem.Lemmatizer
}

// NewNormalizer loads the English dictionary and indexes the exception set.
func NewNormalizer(irregularVerbs []string) (*Normalizer, error) {
	lemmatizer, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("load english lemmatizer: %w", err)
	}

	irregular := make(map[string]struct{}, len(irregularVerbs))
	for _, verb := range irregularVerbs {
		irregular[strings.ToLower(strings.TrimSpace(verb))] = struct{}{}
	}

	return &Normalizer{irregular: irregular, lemmatizer: lemmatizer}, nil
}

// Normalize returns the canonical form of term: lowercased, trimmed, and
// lemmatized per token. Tokens matching the irregular-verb set pass through
// verbatim, so inflected irregular forms like "bought" keep their surface
// form. Multi-word terms are normalized token by token, not as a unit.
func (n *Normalizer) Normalize(term string) string {
	lowered := strings.ToLower(strings.TrimSpace(term))
	if _, ok := n.irregular[lowered]; ok {
		return lowered
	}

	tokens := strings.Fields(lowered)
	for i, token := range tokens {
		if _, ok := n.irregular[token]; ok {
			continue
		}
		tokens[i] = n.lemmatizer.Lemma(token)
	}
	return strings.Join(tokens, " ")
}
