// Package chatlog keeps an append-only transcript of inbound and outbound
// messages plus the archive of recorded broadcasts.
package chatlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

type Entry struct {
	ChatID      int64
	Direction   string // inbound | outbound
	ActorID     string
	DisplayName string
	Text        string
	Timestamp   time.Time
}

type Broadcast struct {
	ID         string
	Text       string
	RecordedAt time.Time
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite pragmas: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) AutoMigrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id INTEGER NOT NULL,
			direction TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			display_name TEXT,
			text TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS broadcasts (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
	}
	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("migrate chatlog: %w", err)
		}
	}
	return nil
}

// Append writes one transcript row. Blank text is skipped without error.
func (s *Store) Append(ctx context.Context, entry Entry) error {
	text := strings.TrimSpace(entry.Text)
	if text == "" {
		return nil
	}
	direction := strings.ToLower(strings.TrimSpace(entry.Direction))
	if direction == "" {
		direction = "inbound"
	}
	timestamp := entry.Timestamp.UTC()
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (chat_id, direction, actor_id, display_name, text, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ChatID, direction, strings.TrimSpace(entry.ActorID), strings.TrimSpace(entry.DisplayName), text, timestamp.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("append transcript: %w", err)
	}
	return nil
}

func (s *Store) CountMessages(ctx context.Context, chatID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE chat_id = ?`, chatID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count transcript: %w", err)
	}
	return count, nil
}

// RecordBroadcast archives broadcast text and returns its id. Recording
// only — no delivery fan-out happens here.
func (s *Store) RecordBroadcast(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("broadcast text is empty")
	}
	id := "bcast-" + uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO broadcasts (id, text, recorded_at) VALUES (?, ?, ?)`,
		id, text, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("record broadcast: %w", err)
	}
	return id, nil
}

func (s *Store) Broadcasts(ctx context.Context, limit int) ([]Broadcast, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, recorded_at FROM broadcasts ORDER BY recorded_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list broadcasts: %w", err)
	}
	defer rows.Close()

	var broadcasts []Broadcast
	for rows.Next() {
		var broadcast Broadcast
		var recordedAt string
		if err := rows.Scan(&broadcast.ID, &broadcast.Text, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan broadcast: %w", err)
		}
		if parsed, parseErr := time.Parse(time.RFC3339, recordedAt); parseErr == nil {
			broadcast.RecordedAt = parsed
		}
		broadcasts = append(broadcasts, broadcast)
	}
	return broadcasts, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
