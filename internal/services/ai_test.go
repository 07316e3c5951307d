package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytlearner/internal/models"
)

func TestParseFlashcardsStripsCodeFence(t *testing.T) {
	raw := "```json\n[{\"english_sentence\":\"a\",\"portuguese_translation\":\"b\",\"term_translation\":\"c\"}]\n```"

	cards, err := parseFlashcards(raw)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "a", cards[0].EnglishSentence)
	assert.Equal(t, "b", cards[0].PortugueseTranslation)
	assert.Equal(t, "c", cards[0].TermTranslation)
}

func TestParseFlashcardsBareArray(t *testing.T) {
	raw := `[
		{"english_sentence":"He is running <b>fast</b>.","portuguese_translation":"Ele está correndo <b>rápido</b>.","term_translation":"rápido"},
		{"english_sentence":"The monk will <b>fast</b> for a day.","portuguese_translation":"O monge vai <b>jejuar</b> por um dia.","term_translation":"jejuar"}
	]`

	cards, err := parseFlashcards(raw)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "jejuar", cards[1].TermTranslation)
}

func TestParseFlashcardsSurroundingProse(t *testing.T) {
	raw := "Here are your flashcards:\n[{\"english_sentence\":\"a\",\"portuguese_translation\":\"b\",\"term_translation\":\"c\"}]\nLet me know if you need more."

	cards, err := parseFlashcards(raw)
	require.NoError(t, err)
	require.Len(t, cards, 1)
}

func TestParseFlashcardsRejectsNonJSON(t *testing.T) {
	_, err := parseFlashcards("I'm sorry, I cannot help with that.")
	assert.ErrorIs(t, err, ErrInvalidModelResponse)
}

func TestParseFlashcardsRejectsMissingKey(t *testing.T) {
	raw := `[{"english_sentence":"a","portuguese_translation":"b"}]`

	_, err := parseFlashcards(raw)
	assert.ErrorIs(t, err, ErrInvalidModelResponse)
}

func TestParseFlashcardsRejectsNonObjectEntries(t *testing.T) {
	_, err := parseFlashcards(`["just", "strings"]`)
	assert.ErrorIs(t, err, ErrInvalidModelResponse)
}

func TestBuildInitialPrompt(t *testing.T) {
	subCtx := models.SubtitleContext{
		Previous: "the line before",
		Current:  "he bought a brand new car",
		Next:     "the line after",
	}

	prompt := buildInitialPrompt("bought", subCtx, "")

	assert.Contains(t, prompt, "exactly 4 flashcards")
	assert.Contains(t, prompt, `"bought"`)
	assert.Contains(t, prompt, "he bought a brand new car")
	assert.Contains(t, prompt, "the line before")
	assert.Contains(t, prompt, "the line after")
	assert.Contains(t, prompt, "english_sentence")
	assert.Contains(t, prompt, "portuguese_translation")
	assert.Contains(t, prompt, "term_translation")
	assert.NotContains(t, prompt, "themes")
}

func TestBuildInitialPromptWithThemes(t *testing.T) {
	prompt := buildInitialPrompt("fast", models.SubtitleContext{Current: "a fast car"}, "cooking, travel")
	assert.Contains(t, prompt, "cooking, travel")
}

func TestBuildFollowupPromptSameSense(t *testing.T) {
	existing := []models.Flashcard{
		{EnglishSentence: "He is running <b>fast</b>.", PortugueseTranslation: "x", TermTranslation: "rápido"},
	}

	prompt := buildFollowupPrompt("fast", models.SubtitleContext{Current: "a fast car"}, existing, ContextSameSense, "")

	assert.Contains(t, prompt, "exactly 2 more flashcards")
	assert.Contains(t, prompt, "same sense")
	// Existing sentences are listed without emphasis markup.
	assert.Contains(t, prompt, "He is running fast.")
	assert.NotContains(t, prompt, "distinct from")
}

func TestBuildFollowupPromptDifferentSense(t *testing.T) {
	prompt := buildFollowupPrompt("fast", models.SubtitleContext{Current: "a fast car"}, nil, ContextDifferentSense, "sports")

	assert.Contains(t, prompt, "distinct from")
	assert.Contains(t, prompt, "sports")
}

func TestEmphasizeTerm(t *testing.T) {
	assert.Equal(t,
		"He is running <b>fast</b> today.",
		emphasizeTerm("He is running fast today.", "fast"),
	)
	// Case-insensitive match keeps the original casing.
	assert.Equal(t,
		"<b>Fast</b> cars are fun.",
		emphasizeTerm("Fast cars are fun.", "fast"),
	)
	// Sentences the model already emphasized are left alone.
	already := "He is running <b>fast</b> today."
	assert.Equal(t, already, emphasizeTerm(already, "fast"))
	// Term absent from the sentence: no change.
	assert.Equal(t, "No match here.", emphasizeTerm("No match here.", "fast"))
}

func TestGenerateFlashcardsWithoutKey(t *testing.T) {
	service := NewAIService("", "gemini-1.5-flash", "")

	_, err := service.GenerateFlashcards(context.Background(), "fast", models.SubtitleContext{}, "")
	assert.ErrorIs(t, err, ErrAIUnavailable)

	_, err = service.GenerateMoreFlashcards(context.Background(), "fast", models.SubtitleContext{}, nil, ContextSameSense, "")
	assert.ErrorIs(t, err, ErrAIUnavailable)
}

func TestExtractJSONArrayUnterminatedFence(t *testing.T) {
	raw := "```json\n[1, 2]"
	assert.Equal(t, "[1, 2]", extractJSONArray(raw))
}

func TestStripEmphasis(t *testing.T) {
	assert.Equal(t, "a fast car", stripEmphasis("a <b>fast</b> car"))
	assert.False(t, strings.Contains(stripEmphasis("<b>x</b>"), "<b>"))
}
