package lemma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var irregularVerbs = []string{
	"be", "was", "were", "been", "is", "are", "am",
	"buy", "bought",
	"go", "went", "gone",
	"take", "took", "taken",
	"get", "got", "gotten",
}

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	n, err := NewNormalizer(irregularVerbs)
	require.NoError(t, err)
	return n
}

func TestNormalizeIrregularPassthrough(t *testing.T) {
	n := newTestNormalizer(t)

	// Irregular forms keep their surface form instead of being lemmatized.
	assert.Equal(t, "bought", n.Normalize("Bought"))
	assert.Equal(t, "went", n.Normalize("went"))
	assert.Equal(t, "was", n.Normalize("  WAS  "))
}

func TestNormalizeLemmatizesRegularWords(t *testing.T) {
	n := newTestNormalizer(t)

	assert.Equal(t, "run", n.Normalize("running"))
	assert.Equal(t, "cat", n.Normalize("cats"))
	assert.Equal(t, "study", n.Normalize("Studying"))
}

func TestNormalizeTrimsAndLowercases(t *testing.T) {
	n := newTestNormalizer(t)

	assert.Equal(t, "run", n.Normalize("  Running "))
	assert.Equal(t, n.Normalize("running"), n.Normalize("RUNNING"))
}

func TestNormalizePhrasesTokenByToken(t *testing.T) {
	n := newTestNormalizer(t)

	// Phrasal verbs with irregular parts preserve only the irregular token.
	assert.Equal(t, "took off", n.Normalize("Took Off"))
	assert.Equal(t, "go away", n.Normalize("going away"))
}

func TestNormalizeIdempotent(t *testing.T) {
	n := newTestNormalizer(t)

	for _, term := range []string{"running", "bought", "took off", "cats and dogs", "was"} {
		once := n.Normalize(term)
		assert.Equal(t, once, n.Normalize(once), "normalize(normalize(%q))", term)
	}
}

func TestNormalizeJoinsWithSingleSpaces(t *testing.T) {
	n := newTestNormalizer(t)

	assert.Equal(t, "take it easy", n.Normalize("take   it\teasy"))
}
