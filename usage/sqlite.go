package usage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteSink persists usage records in a local SQLite database. The pure-Go
// driver keeps the binary cgo-free.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (or creates) the database at dbPath and ensures the
// schema exists. WAL mode and a busy timeout keep concurrent emitters from
// tripping over each other.
func NewSQLiteSink(dbPath string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sink := &SQLiteSink{db: db}
	if err := sink.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return sink, nil
}

var _ Sink = (*SQLiteSink)(nil)

// initSchema creates the usage table if it does not exist.
func (s *SQLiteSink) initSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS usage_records (
    request_id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    model_id TEXT NOT NULL,
    prompt_tokens INTEGER NOT NULL DEFAULT 0,
    completion_tokens INTEGER NOT NULL DEFAULT 0,
    success INTEGER NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_user ON usage_records(user_id, created_at);
`
	_, err := s.db.Exec(schema)
	return err
}

// Emit inserts one record.
func (s *SQLiteSink) Emit(record Record) error {
	_, err := s.db.Exec(
		`INSERT INTO usage_records
		 (request_id, user_id, model_id, prompt_tokens, completion_tokens, success, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.RequestID,
		record.UserID,
		record.ModelID,
		record.PromptTokens,
		record.CompletionTokens,
		boolToInt(record.Success),
		record.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert usage record: %w", err)
	}
	return nil
}

// ByUser returns all records for userID in chronological order. Used by the
// operator tooling to inspect consumption.
func (s *SQLiteSink) ByUser(userID string) ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT request_id, user_id, model_id, prompt_tokens, completion_tokens, success, created_at
		 FROM usage_records WHERE user_id = ? ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query usage records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var success int
		var createdAt string
		if err := rows.Scan(&r.RequestID, &r.UserID, &r.ModelID, &r.PromptTokens, &r.CompletionTokens, &success, &createdAt); err != nil {
			return nil, fmt.Errorf("scan usage record: %w", err)
		}
		r.Success = success != 0
		if ts, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			r.Timestamp = ts
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteSink) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
