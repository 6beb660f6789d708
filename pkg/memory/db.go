package memory

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// sqliteTimeFormat is the timestamp format used for all SQLite datetime values.
const sqliteTimeFormat = "2006-01-02 15:04:05"

// User is one row in the users table. Exactly one row exists per user ID;
// rows are created on first observed message and updated on every one after.
type User struct {
	ID                string
	Username          string
	DisplayName       string
	FirstSeen         time.Time
	LastSeen          time.Time
	MessageCount      int64
	VoiceMinutes      float64
	RelationshipScore int64
	PersonalityNotes  string
	CreatedAt         time.Time
}

// ConversationTurn is one utterance in a user's append-only conversation log.
type ConversationTurn struct {
	ID        int64
	UserID    string
	ChannelID string
	MessageID string
	Role      string
	Content   string
	Timestamp time.Time
}

// Memory is a durable, typed, confidence-scored fact derived about a user.
type Memory struct {
	ID              int64
	UserID          string
	Type            string
	Content         string
	Confidence      float64
	SourceMessageID string
	CreatedAt       time.Time
	LastAccessed    time.Time
	AccessCount     int64
}

// Store manages the SQLite-backed user, conversation and memory tables.
// It holds one long-lived connection pool, opened once at startup.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open creates or opens the bot database at dataDir/memory.db.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "memory.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for concurrent reads while the write path runs in background
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DBPath returns the path to the database file.
func (s *Store) DBPath() string {
	return s.dbPath
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		user_id            TEXT PRIMARY KEY,
		username           TEXT,
		display_name       TEXT,
		first_seen         DATETIME,
		last_seen          DATETIME,
		message_count      INTEGER NOT NULL DEFAULT 0,
		voice_minutes      REAL NOT NULL DEFAULT 0,
		relationship_score INTEGER NOT NULL DEFAULT 50,
		personality_notes  TEXT,
		created_at         DATETIME NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS conversations (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    TEXT NOT NULL,
		channel_id TEXT,
		message_id TEXT,
		role       TEXT NOT NULL,
		content    TEXT NOT NULL,
		timestamp  DATETIME NOT NULL DEFAULT (datetime('now')),
		FOREIGN KEY (user_id) REFERENCES users(user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id);

	CREATE TABLE IF NOT EXISTS memories (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id           TEXT NOT NULL,
		memory_type       TEXT NOT NULL,
		content           TEXT NOT NULL,
		confidence        REAL NOT NULL DEFAULT 0.8,
		source_message_id TEXT,
		created_at        DATETIME NOT NULL DEFAULT (datetime('now')),
		last_accessed     DATETIME,
		access_count      INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (user_id) REFERENCES users(user_id)
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_memories_unique
		ON memories(user_id, memory_type, content);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// parseTime parses a timestamp string, trying sqliteTimeFormat first then RFC3339.
func parseTime(str string) time.Time {
	if t, err := time.Parse(sqliteTimeFormat, str); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, str); err == nil {
		return t
	}
	return time.Time{}
}

// nullable maps an empty string to SQL NULL for optional columns.
func nullable(str string) any {
	if str == "" {
		return nil
	}
	return str
}
