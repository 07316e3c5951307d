package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"ytlearner/internal/api"
	"ytlearner/internal/captions"
	"ytlearner/internal/config"
	"ytlearner/internal/db"
	"ytlearner/internal/lemma"
	"ytlearner/internal/services"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	conn, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer conn.Close()

	normalizer, err := lemma.NewNormalizer(cfg.IrregularVerbs)
	if err != nil {
		log.Fatalf("load normalizer: %v", err)
	}

	resolver := captions.NewResolver(cfg.CaptionLang, logger)
	captionStore := captions.NewStore(conn)
	captionService := services.NewCaptionService(resolver, captionStore, cfg.CaptionLang, logger)
	aiService := services.NewAIService(cfg.GeminiKey, cfg.GeminiModel, cfg.GeminiBaseURL)
	ankiService := services.NewAnkiService(cfg.AnkiConnectURL, cfg.DeckName, cfg.NoteModel, logger)

	if cfg.GeminiKey == "" {
		logger.Warn("GEMINI_API_KEY is not set; generation routes will return an error")
	}

	server := api.NewServer(captionService, aiService, ankiService, normalizer)

	handler := api.CORS(cfg.CORSOrigin, api.RequestLogging(logger, server.Handler()))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.Info("listening", "port", port)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
}
