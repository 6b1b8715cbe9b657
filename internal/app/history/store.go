package history

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"voxpair/internal/app/session"
)

// Store persists translated messages.
type Store interface {
	Save(ctx context.Context, msg session.Message) error
}

// Noop discards every message. Used when no database is configured.
type Noop struct{}

// Save does nothing.
func (Noop) Save(context.Context, session.Message) error { return nil }

type executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const insertMessageSQL = `INSERT INTO translation_messages (
        id,
        session_id,
        sender_id,
        original_text,
        translated_text,
        source_language,
        target_language,
        latency_total_ms,
        created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// PostgresStore writes messages to the translation_messages table.
type PostgresStore struct {
	db executor
}

// NewPostgresStore wraps a pgx pool (or any compatible executor).
func NewPostgresStore(db executor) *PostgresStore {
	return &PostgresStore{db: db}
}

// Save inserts msg. Re-saving an id that already exists is not an error.
func (s *PostgresStore) Save(ctx context.Context, msg session.Message) error {
	var latency *float64
	if msg.Latency != nil {
		total := msg.Latency.Total
		latency = &total
	}

	_, err := s.db.Exec(ctx, insertMessageSQL,
		msg.ID,
		msg.SessionID,
		msg.SenderID,
		msg.OriginalText,
		msg.TranslatedText,
		msg.SourceLanguage,
		msg.TargetLanguage,
		latency,
		time.UnixMilli(msg.CreatedAtMs).UTC(),
	)
	if err != nil && !IsUniqueViolation(err) {
		return err
	}

	return nil
}
