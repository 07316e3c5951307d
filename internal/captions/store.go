package captions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Store persists raw caption text per video so a re-processed video does not
// hit the caption host again. Losing the cache only costs a re-download.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the cached raw VTT for a video, if present.
func (s *Store) Get(ctx context.Context, videoID, lang string) (string, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT raw_vtt FROM caption_cache WHERE video_id = ? AND language = ?;`,
		videoID, lang,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query caption cache: %w", err)
	}
	return raw, true, nil
}

// Put stores or replaces the cached raw VTT for a video.
func (s *Store) Put(ctx context.Context, videoID, lang, title, raw string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO caption_cache (video_id, language, title, raw_vtt, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(video_id, language) DO UPDATE SET
			title = excluded.title,
			raw_vtt = excluded.raw_vtt,
			fetched_at = excluded.fetched_at;`,
		videoID, lang, title, raw, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("store caption cache: %w", err)
	}
	return nil
}
