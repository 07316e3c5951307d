package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"ytlearner/internal/captions"
	"ytlearner/internal/lemma"
	"ytlearner/internal/models"
	"ytlearner/internal/services"
)

type Server struct {
	mux        *http.ServeMux
	captions   *services.CaptionService
	ai         *services.AIService
	anki       *services.AnkiService
	normalizer *lemma.Normalizer
}

func NewServer(
	captionService *services.CaptionService,
	aiService *services.AIService,
	ankiService *services.AnkiService,
	normalizer *lemma.Normalizer,
) *Server {
	s := &Server{
		mux:        http.NewServeMux(),
		captions:   captionService,
		ai:         aiService,
		anki:       ankiService,
		normalizer: normalizer,
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/process-video", s.handleProcessVideo)
	s.mux.HandleFunc("/api/process-vtt", s.handleProcessVTT)
	s.mux.HandleFunc("/api/generate-flashcards", s.handleGenerateFlashcards)
	s.mux.HandleFunc("/api/generate-more-flashcards", s.handleGenerateMoreFlashcards)
	s.mux.HandleFunc("/api/check-duplicates", s.handleCheckDuplicates)
	s.mux.HandleFunc("/api/send-to-anki", s.handleSendToAnki)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type processVideoRequest struct {
	VideoURL string `json:"video_url"`
}

func (s *Server) handleProcessVideo(w http.ResponseWriter, r *http.Request) {
	var payload processVideoRequest
	if !decodePost(w, r, &payload) {
		return
	}
	if strings.TrimSpace(payload.VideoURL) == "" {
		writeError(w, http.StatusBadRequest, "video_url must not be empty")
		return
	}

	video, err := s.captions.ProcessVideo(r.Context(), payload.VideoURL)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"video_id":    video.VideoID,
		"video_title": video.Title,
		"subtitles":   video.Segments,
	})
}

type processVTTRequest struct {
	VTTContent string `json:"vtt_content"`
}

func (s *Server) handleProcessVTT(w http.ResponseWriter, r *http.Request) {
	var payload processVTTRequest
	if !decodePost(w, r, &payload) {
		return
	}
	if payload.VTTContent == "" {
		writeError(w, http.StatusBadRequest, "vtt_content must not be empty")
		return
	}

	segments, err := s.captions.ProcessVTT(payload.VTTContent)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"subtitles": segments})
}

type generateRequest struct {
	Words            []string `json:"words"`
	PreviousSubtitle string   `json:"previous_subtitle"`
	CurrentSubtitle  string   `json:"current_subtitle"`
	NextSubtitle     string   `json:"next_subtitle"`
	CustomThemes     string   `json:"custom_themes"`
}

func (r generateRequest) subtitleContext() models.SubtitleContext {
	return models.SubtitleContext{
		Previous: r.PreviousSubtitle,
		Current:  r.CurrentSubtitle,
		Next:     r.NextSubtitle,
	}
}

func (s *Server) handleGenerateFlashcards(w http.ResponseWriter, r *http.Request) {
	var payload generateRequest
	if !decodePost(w, r, &payload) {
		return
	}
	term, ok := joinWords(w, payload.Words)
	if !ok {
		return
	}

	cards, err := s.ai.GenerateFlashcards(r.Context(), term, payload.subtitleContext(), payload.CustomThemes)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"flashcards": cards})
}

type generateMoreRequest struct {
	generateRequest
	ExistingFlashcards []models.Flashcard `json:"existing_flashcards"`
	ContextType        string             `json:"context_type"`
}

func (s *Server) handleGenerateMoreFlashcards(w http.ResponseWriter, r *http.Request) {
	var payload generateMoreRequest
	if !decodePost(w, r, &payload) {
		return
	}
	term, ok := joinWords(w, payload.Words)
	if !ok {
		return
	}
	if payload.ContextType != services.ContextSameSense && payload.ContextType != services.ContextDifferentSense {
		writeError(w, http.StatusBadRequest, "context_type must be 'same_sense' or 'different_sense'")
		return
	}

	cards, err := s.ai.GenerateMoreFlashcards(
		r.Context(),
		term,
		payload.subtitleContext(),
		payload.ExistingFlashcards,
		payload.ContextType,
		payload.CustomThemes,
	)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"flashcards": cards})
}

type cardBatchRequest struct {
	Words      []string           `json:"words"`
	Flashcards []models.Flashcard `json:"flashcards"`
}

func (s *Server) handleCheckDuplicates(w http.ResponseWriter, r *http.Request) {
	var payload cardBatchRequest
	if !decodePost(w, r, &payload) {
		return
	}
	term, ok := joinWords(w, payload.Words)
	if !ok {
		return
	}

	statuses := s.anki.CheckDuplicates(r.Context(), s.normalizer.Normalize(term), payload.Flashcards)
	writeJSON(w, http.StatusOK, map[string]any{"duplication_status": statuses})
}

func (s *Server) handleSendToAnki(w http.ResponseWriter, r *http.Request) {
	var payload cardBatchRequest
	if !decodePost(w, r, &payload) {
		return
	}
	term, ok := joinWords(w, payload.Words)
	if !ok {
		return
	}

	result, err := s.anki.Submit(r.Context(), s.normalizer.Normalize(term), payload.Flashcards)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if result.Failed > 0 {
		// Partial failure is surfaced, never silently dropped.
		writeError(w, http.StatusBadRequest, result.Message)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": result.Message})
}

// writeServiceError translates the service error taxonomy into HTTP statuses
// with user-facing messages.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrAIUnavailable):
		writeError(w, http.StatusBadRequest, "The Gemini API key is not configured on the server.")
	case errors.Is(err, services.ErrInvalidModelResponse):
		writeError(w, http.StatusInternalServerError, "Failed to decode the AI response: it was not valid flashcard JSON.")
	case errors.Is(err, services.ErrAnkiUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Could not reach Anki. Make sure Anki is open and the AnkiConnect add-on is installed.")
	case errors.Is(err, services.ErrAnkiRejected):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, captions.ErrNoCaptions):
		writeError(w, http.StatusInternalServerError, "No English captions (automatic or manual) were found for this video.")
	case errors.Is(err, captions.ErrUnsupportedFormat):
		writeError(w, http.StatusInternalServerError, "The video's captions are not offered in WebVTT format.")
	case errors.Is(err, captions.ErrResolutionFailed):
		writeError(w, http.StatusInternalServerError, "Could not extract video information. The video may be unavailable or in an incompatible format.")
	case errors.Is(err, captions.ErrTrackUnavailable):
		writeError(w, http.StatusServiceUnavailable, "The caption track could not be downloaded.")
	case errors.Is(err, captions.ErrMalformedVTT):
		writeError(w, http.StatusBadRequest, "The subtitle content could not be parsed as WebVTT.")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodePost(w http.ResponseWriter, r *http.Request, payload any) bool {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return false
	}
	return true
}

func joinWords(w http.ResponseWriter, words []string) (string, bool) {
	term := strings.TrimSpace(strings.Join(words, " "))
	if term == "" {
		writeError(w, http.StatusBadRequest, "words must not be empty")
		return "", false
	}
	return term, true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
