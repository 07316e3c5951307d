package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ytlearner/internal/models"
)

var (
	// ErrAnkiUnavailable is returned when AnkiConnect cannot be reached.
	ErrAnkiUnavailable = errors.New("ankiconnect is unreachable")
	// ErrAnkiRejected is returned when AnkiConnect reports a request-level error.
	ErrAnkiRejected = errors.New("ankiconnect rejected the request")
)

const noteTag = "youtube_learner"

// AnkiService talks to the AnkiConnect add-on over local HTTP. Duplicate
// lookups degrade to "not duplicate" when Anki is down; submissions fail
// loudly instead.
type AnkiService struct {
	url        string
	deck       string
	noteModel  string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewAnkiService(url, deck, noteModel string, logger *slog.Logger) *AnkiService {
	return &AnkiService{
		url:       url,
		deck:      deck,
		noteModel: noteModel,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

type ankiAction struct {
	Action string `json:"action"`
	Params any    `json:"params,omitempty"`
}

type ankiRequest struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params,omitempty"`
}

type ankiResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

type ankiNote struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Tags      []string          `json:"tags"`
}

func (s *AnkiService) invoke(ctx context.Context, action string, params any, out any) error {
	body, err := json.Marshal(ankiRequest{Action: action, Version: 6, Params: params})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAnkiUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAnkiUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", ErrAnkiUnavailable, resp.StatusCode)
	}

	var decoded ankiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrAnkiUnavailable, err)
	}
	if decoded.Error != nil && *decoded.Error != "" {
		return fmt.Errorf("%w: %s", ErrAnkiRejected, *decoded.Error)
	}
	if out != nil && decoded.Result != nil {
		if err := json.Unmarshal(decoded.Result, out); err != nil {
			return fmt.Errorf("%w: decode result: %v", ErrAnkiRejected, err)
		}
	}
	return nil
}

// duplicateKey forms the deck's unique-identifier field. It must match what
// Submit writes, or duplicate detection silently diverges from the deck.
func duplicateKey(normalizedTerm, termTranslation string) string {
	return fmt.Sprintf("%s(%s)", normalizedTerm, termTranslation)
}

// CheckDuplicates queries the deck for each candidate in one combined call:
// per card one lookup by unique identifier and one plain-term lookup against
// Basic notes, recovered by positional pairing. Any transport or batch error
// yields "not duplicate" for every card; a false negative is preferred over
// blocking the workflow when Anki is closed.
func (s *AnkiService) CheckDuplicates(ctx context.Context, normalizedTerm string, cards []models.Flashcard) []models.DuplicateStatus {
	statuses := make([]models.DuplicateStatus, len(cards))
	for i, card := range cards {
		statuses[i] = models.DuplicateStatus{Flashcard: card}
	}
	if len(cards) == 0 {
		return statuses
	}

	actions := make([]ankiAction, 0, 2*len(cards))
	for _, card := range cards {
		uniqueID := duplicateKey(normalizedTerm, card.TermTranslation)
		actions = append(actions,
			ankiAction{
				Action: "findNotes",
				Params: map[string]string{"query": fmt.Sprintf("deck:%q UniqueID:%q", s.deck, uniqueID)},
			},
			ankiAction{
				Action: "findNotes",
				Params: map[string]string{"query": fmt.Sprintf("deck:%q note:Basic Front:%q", s.deck, normalizedTerm)},
			},
		)
	}

	var results [][]int64
	if err := s.invoke(ctx, "multi", map[string]any{"actions": actions}, &results); err != nil {
		s.logger.Warn("duplicate check skipped", "error", err)
		return statuses
	}
	if len(results) < 2*len(cards) {
		s.logger.Warn("duplicate check returned short result set", "got", len(results), "want", 2*len(cards))
		return statuses
	}

	for i := range cards {
		statuses[i].IsDuplicate = len(results[i*2]) > 0 || len(results[i*2+1]) > 0
	}
	return statuses
}

// Submit maps each candidate into the deck's note schema and adds them in one
// batch. AnkiConnect answers with one opaque id per note, null marking a
// failed note; nulls are counted as failures.
func (s *AnkiService) Submit(ctx context.Context, normalizedTerm string, cards []models.Flashcard) (models.SubmitResult, error) {
	if len(cards) == 0 {
		return models.SubmitResult{Message: "No new cards to add."}, nil
	}

	notes := make([]ankiNote, 0, len(cards))
	for _, card := range cards {
		notes = append(notes, ankiNote{
			DeckName:  s.deck,
			ModelName: s.noteModel,
			Fields: map[string]string{
				"UniqueID":           duplicateKey(normalizedTerm, card.TermTranslation),
				"Term":               normalizedTerm,
				"Meaning":            card.TermTranslation,
				"ExampleSentence":    card.EnglishSentence,
				"ExampleTranslation": card.PortugueseTranslation,
			},
			Tags: []string{noteTag},
		})
	}

	var ids []*int64
	if err := s.invoke(ctx, "addNotes", map[string]any{"notes": notes}, &ids); err != nil {
		return models.SubmitResult{}, err
	}

	failed := 0
	for _, id := range ids {
		if id == nil {
			failed++
		}
	}

	result := models.SubmitResult{
		Submitted: len(notes) - failed,
		Failed:    failed,
	}
	if failed > 0 {
		result.Message = fmt.Sprintf("%d of %d cards failed.", failed, len(notes))
		if result.Submitted > 0 {
			result.Message += fmt.Sprintf(" %d were added successfully.", result.Submitted)
		}
	} else {
		result.Message = fmt.Sprintf("%d flashcards were sent to Anki successfully!", len(notes))
	}
	return result, nil
}
