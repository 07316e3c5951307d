package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open connects to the SQLite caption cache and runs schema migrations.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_foreign_keys=1", path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	if err := migrate(conn); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return conn, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS caption_cache (
			video_id TEXT NOT NULL,
			language TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			raw_vtt TEXT NOT NULL,
			fetched_at DATETIME NOT NULL,
			PRIMARY KEY(video_id, language)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_caption_cache_fetched ON caption_cache(fetched_at);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("execute %q: %w", stmt, err)
		}
	}
	return nil
}
