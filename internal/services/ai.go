package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"ytlearner/internal/models"
)

var (
	// ErrAIUnavailable is returned when the Gemini integration is not configured.
	ErrAIUnavailable = errors.New("gemini integration is not configured")
	// ErrInvalidModelResponse is returned when the model reply cannot be
	// decoded into the expected flashcard list.
	ErrInvalidModelResponse = errors.New("model response is not a valid flashcard list")
)

// Context strategies for follow-up generation.
const (
	ContextSameSense      = "same_sense"
	ContextDifferentSense = "different_sense"
)

// AIService builds generation prompts and parses the model's JSON replies.
// The Gemini API is reached through its OpenAI-compatible endpoint.
type AIService struct {
	client *openai.Client
	model  string
}

func NewAIService(apiKey, model, baseURL string) *AIService {
	if apiKey == "" {
		return &AIService{}
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &AIService{client: openai.NewClientWithConfig(cfg), model: model}
}

func (s *AIService) disabled() bool {
	return s.client == nil || s.model == ""
}

// GenerateFlashcards requests the initial batch of exactly 4 candidate cards:
// two preserving the sense the term has in the current subtitle line, two
// exhibiting distinct senses.
func (s *AIService) GenerateFlashcards(ctx context.Context, term string, subCtx models.SubtitleContext, themes string) ([]models.Flashcard, error) {
	if s.disabled() {
		return nil, ErrAIUnavailable
	}
	return s.complete(ctx, term, buildInitialPrompt(term, subCtx, themes))
}

// GenerateMoreFlashcards requests 2 additional cards, avoiding sentences
// already present in existing. The contextType selects whether the new cards
// pin the sense from the current subtitle line or explicitly diverge from it.
func (s *AIService) GenerateMoreFlashcards(ctx context.Context, term string, subCtx models.SubtitleContext, existing []models.Flashcard, contextType, themes string) ([]models.Flashcard, error) {
	if s.disabled() {
		return nil, ErrAIUnavailable
	}
	return s.complete(ctx, term, buildFollowupPrompt(term, subCtx, existing, contextType, themes))
}

func (s *AIService) complete(ctx context.Context, term, prompt string) ([]models.Flashcard, error) {
	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You create example-sentence flashcards for Brazilian Portuguese speakers learning English. You always answer with bare JSON, never with prose or markdown fences.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0.7,
		MaxTokens:   2048,
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("request flashcard generation: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: model returned no choices", ErrInvalidModelResponse)
	}

	cards, err := parseFlashcards(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	for i := range cards {
		cards[i].EnglishSentence = emphasizeTerm(cards[i].EnglishSentence, term)
	}
	return cards, nil
}

func buildInitialPrompt(term string, subCtx models.SubtitleContext, themes string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create exactly 4 flashcards for the English term or expression: %q.\n\n", term)

	writeContext(&b, subCtx)

	b.WriteString("Cards 1 and 2 must use the term with the same sense it has in the subtitle line above. ")
	b.WriteString("The surrounding lines are only there to disambiguate that sense; do not copy their topic into the sentences.\n")
	b.WriteString("Cards 3 and 4 must use senses of the term that are distinct from that context.")
	if themes != "" {
		fmt.Fprintf(&b, " Steer cards 3 and 4 toward these themes: %s.", themes)
	}
	b.WriteString("\n\n")

	writeCardInstructions(&b, term)
	fmt.Fprintf(&b, "Respond with EXACTLY a JSON array of 4 objects.\n\n")
	writeFormatExample(&b)
	return b.String()
}

func buildFollowupPrompt(term string, subCtx models.SubtitleContext, existing []models.Flashcard, contextType, themes string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create exactly 2 more flashcards for the English term or expression: %q.\n\n", term)

	writeContext(&b, subCtx)

	switch contextType {
	case ContextDifferentSense:
		b.WriteString("Both cards must use senses of the term that are distinct from the one in the subtitle line above.")
		if themes != "" {
			fmt.Fprintf(&b, " Steer the sentences toward these themes: %s.", themes)
		}
	default:
		b.WriteString("Both cards must use the term with the same sense it has in the subtitle line above.")
	}
	b.WriteString("\n\n")

	if len(existing) > 0 {
		b.WriteString("Do NOT repeat any of these sentences, already generated earlier:\n")
		for _, card := range existing {
			fmt.Fprintf(&b, "- %s\n", stripEmphasis(card.EnglishSentence))
		}
		b.WriteString("\n")
	}

	writeCardInstructions(&b, term)
	b.WriteString("Respond with EXACTLY a JSON array of 2 objects.\n\n")
	writeFormatExample(&b)
	return b.String()
}

func writeContext(b *strings.Builder, subCtx models.SubtitleContext) {
	if subCtx.Current == "" {
		return
	}
	fmt.Fprintf(b, "The term was selected from this YouTube subtitle line: %q.\n", subCtx.Current)
	if subCtx.Previous != "" {
		fmt.Fprintf(b, "Preceding line: %q.\n", subCtx.Previous)
	}
	if subCtx.Next != "" {
		fmt.Fprintf(b, "Following line: %q.\n", subCtx.Next)
	}
	b.WriteString("\n")
}

func writeCardInstructions(b *strings.Builder, term string) {
	b.WriteString("For each flashcard provide:\n")
	fmt.Fprintf(b, "1. A simple, clear example sentence in English using the term, with the term wrapped in <b></b>.\n")
	fmt.Fprintf(b, "2. The full Brazilian Portuguese translation of that sentence, with the term's translation wrapped in <b></b>.\n")
	fmt.Fprintf(b, "3. The specific Portuguese translation of %q within the context of that sentence.\n\n", term)
	b.WriteString("Each JSON object must have the keys \"english_sentence\", \"portuguese_translation\" and \"term_translation\". ")
	b.WriteString("Do not include any extra formatting such as markdown or ``` fences, and no text outside the JSON.\n")
}

func writeFormatExample(b *strings.Builder) {
	b.WriteString(`Example response format for the term "fast":
[
    {
        "english_sentence": "He is running <b>fast</b>.",
        "portuguese_translation": "Ele está correndo <b>rápido</b>.",
        "term_translation": "rápido"
    },
    {
        "english_sentence": "The monk will <b>fast</b> for a day.",
        "portuguese_translation": "O monge vai <b>jejuar</b> por um dia.",
        "term_translation": "jejuar"
    }
]
`)
}

var requiredCardKeys = []string{"english_sentence", "portuguese_translation", "term_translation"}

// parseFlashcards decodes the model reply, tolerating a markdown code fence
// around the JSON. Presence of the three keys is required; emptiness and
// further typing are deliberately not checked.
func parseFlashcards(raw string) ([]models.Flashcard, error) {
	jsonStr := extractJSONArray(raw)

	var entries []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &entries); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidModelResponse, err)
	}

	cards := make([]models.Flashcard, 0, len(entries))
	for i, entry := range entries {
		fields := make(map[string]string, len(requiredCardKeys))
		for _, key := range requiredCardKeys {
			rawValue, ok := entry[key]
			if !ok {
				return nil, fmt.Errorf("%w: card %d is missing key %q", ErrInvalidModelResponse, i, key)
			}
			var value string
			if err := json.Unmarshal(rawValue, &value); err != nil {
				return nil, fmt.Errorf("%w: card %d key %q is not a string", ErrInvalidModelResponse, i, key)
			}
			fields[key] = value
		}
		cards = append(cards, models.Flashcard{
			EnglishSentence:       fields["english_sentence"],
			PortugueseTranslation: fields["portuguese_translation"],
			TermTranslation:       fields["term_translation"],
		})
	}
	return cards, nil
}

// extractJSONArray removes markdown code block formatting if present and
// slices out the JSON array.
func extractJSONArray(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		// Skip past the opening ``` and optional language identifier (e.g., "json")
		start := 3
		if newlineIdx := strings.Index(content[start:], "\n"); newlineIdx != -1 {
			start += newlineIdx + 1
		}
		if endIdx := strings.Index(content[start:], "```"); endIdx != -1 {
			content = content[start : start+endIdx]
		} else {
			content = content[start:]
		}
	}

	content = strings.TrimSpace(content)

	if startIdx := strings.Index(content, "["); startIdx != -1 {
		if endIdx := strings.LastIndex(content, "]"); endIdx != -1 && endIdx > startIdx {
			content = content[startIdx : endIdx+1]
		}
	}

	return strings.TrimSpace(content)
}

// emphasizeTerm bolds the first occurrence of the term when the model did not
// add any emphasis itself.
func emphasizeTerm(sentence, term string) string {
	if term == "" || strings.Contains(strings.ToLower(sentence), "<b>") {
		return sentence
	}

	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(term))
	if err != nil {
		return sentence
	}
	loc := re.FindStringIndex(sentence)
	if loc == nil {
		return sentence
	}
	return sentence[:loc[0]] + "<b>" + sentence[loc[0]:loc[1]] + "</b>" + sentence[loc[1]:]
}

var emphasisTags = strings.NewReplacer("<b>", "", "</b>", "")

func stripEmphasis(s string) string {
	return emphasisTags.Replace(s)
}
