// ABOUTME: SQLite transcript ledger recording every inbound and outbound message
// ABOUTME: Append-only audit trail, queried per chat for inspection and debugging

package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Direction constants for transcript events.
const (
	DirectionIn  = "in"  // user -> gateway
	DirectionOut = "out" // gateway -> user
)

// Event is one recorded message in a conversation transcript.
type Event struct {
	ID        string
	ChatID    int64
	Direction string
	Text      string
	CreatedAt time.Time
}

// Ledger is the SQLite-backed transcript store.
type Ledger struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens the ledger database at path. The schema is created if
// it doesn't exist, and parent directories are created if needed.
func Open(path string, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "ledger")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	// WAL mode for better concurrent read/write behavior
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	l := &Ledger{db: db, logger: logger}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("transcript ledger ready", "path", path)
	return l, nil
}

func (l *Ledger) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS transcript_events (
			id TEXT PRIMARY KEY,
			chat_id INTEGER NOT NULL,
			direction TEXT NOT NULL,
			text TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_transcript_chat_created
			ON transcript_events(chat_id, created_at);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Append records one transcript event.
func (l *Ledger) Append(ctx context.Context, ev *Event) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO transcript_events (id, chat_id, direction, text, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		ev.ID, ev.ChatID, ev.Direction, ev.Text, ev.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting transcript event: %w", err)
	}
	return nil
}

// ListByChat returns a chat's transcript in chronological order. limit bounds
// the result size; 0 means no limit.
func (l *Ledger) ListByChat(ctx context.Context, chatID int64, limit int) ([]*Event, error) {
	query := `SELECT id, chat_id, direction, text, created_at
		FROM transcript_events WHERE chat_id = ? ORDER BY created_at, id`
	args := []any{chatID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transcript: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.ChatID, &ev.Direction, &ev.Text, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning transcript event: %w", err)
		}
		events = append(events, &ev)
	}
	return events, rows.Err()
}

// Close releases the database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}
