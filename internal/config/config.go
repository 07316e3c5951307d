package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration loaded from environment variables.
// It is loaded once at startup and read-only thereafter.
type Config struct {
	GeminiKey      string
	GeminiBaseURL  string
	GeminiModel    string
	AnkiConnectURL string
	DeckName       string
	NoteModel      string
	CaptionLang    string
	Database       string
	CORSOrigin     string
	IrregularVerbs []string
}

// Load reads configuration from the environment, providing sensible defaults.
// A missing Gemini key does not prevent startup; generation routes report it
// per request instead.
func Load() Config {
	// Load .env file if it exists (useful for development)
	_ = godotenv.Load()
	cfg := Config{
		GeminiKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:  getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		AnkiConnectURL: getEnv("ANKI_CONNECT_URL", "http://localhost:8765"),
		DeckName:       getEnv("ANKI_DECK_NAME", "ENGLISH-A2"),
		NoteModel:      getEnv("ANKI_NOTE_MODEL", "YTLearner-Advanced"),
		CaptionLang:    getEnv("CAPTION_LANG", "en"),
		Database:       getEnv("DATABASE_PATH", "./data/captions.db"),
		CORSOrigin:     getEnv("CORS_ORIGIN", "http://localhost:3000"),
		IrregularVerbs: irregularVerbs(),
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database), 0o755); err != nil {
		log.Fatalf("failed to ensure database dir %s: %v", cfg.Database, err)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

// irregularVerbs returns the exception set used by term normalization. The
// inflected forms are listed alongside the base forms so that neither gets
// rewritten by the lemmatizer. Overridable via IRREGULAR_VERBS as a
// comma-separated list.
func irregularVerbs() []string {
	if raw := os.Getenv("IRREGULAR_VERBS"); raw != "" {
		var verbs []string
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				verbs = append(verbs, v)
			}
		}
		if len(verbs) > 0 {
			return verbs
		}
	}
	return []string{
		"be", "was", "were", "been", "is", "are", "am",
		"buy", "bought",
		"go", "went", "gone",
		"do", "did", "done",
		"have", "had",
		"make", "made",
		"say", "said",
		"see", "saw", "seen",
		"take", "took", "taken",
		"get", "got", "gotten",
		"think", "thought",
		"know", "knew", "known",
		"come", "came",
		"find", "found",
		"give", "gave", "given",
		"tell", "told",
	}
}
