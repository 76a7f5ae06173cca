package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversation_prefs (
	conversation_id TEXT PRIMARY KEY,
	language        TEXT NOT NULL,
	updated_at      TIMESTAMP NOT NULL
)`

// SQLiteStore persists preferences in a SQLite database so they survive
// restarts.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at dsn. Use
// ":memory:" for a throwaway database.
func OpenSQLite(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		return nil, errors.New("prefs: sqlite dsn is required")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("prefs: open %s: %w", dsn, err)
	}
	// ":memory:" databases are per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("prefs: enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("prefs: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Language(ctx context.Context, conversationID string) (string, bool, error) {
	var lang string
	err := s.db.QueryRowContext(ctx,
		`SELECT language FROM conversation_prefs WHERE conversation_id = ?`, conversationID,
	).Scan(&lang)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("prefs: read %s: %w", conversationID, err)
	}
	return lang, true, nil
}

func (s *SQLiteStore) SetLanguage(ctx context.Context, conversationID, lang string) error {
	if conversationID == "" {
		return ErrEmptyConversation
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_prefs (conversation_id, language, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET
			language = excluded.language,
			updated_at = excluded.updated_at`,
		conversationID, lang, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("prefs: write %s: %w", conversationID, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
