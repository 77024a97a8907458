package convo

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite-backed Store.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and runs
// migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return store, nil
}

// migrate creates the database schema.
func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		ended_at TIMESTAMP,
		report TEXT NOT NULL DEFAULT '',
		latitude REAL,
		longitude REAL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		is_voice BOOLEAN NOT NULL DEFAULT FALSE,
		timestamp TIMESTAMP NOT NULL,
		FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateConversation starts a new conversation.
func (s *SQLiteStore) CreateConversation(userID string) (*Conversation, error) {
	conv := &Conversation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    userID,
		StartedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(`
		INSERT INTO conversations (id, user_id, started_at)
		VALUES (?, ?, ?)
	`, conv.ID, conv.UserID, conv.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	return conv, nil
}

// Conversation retrieves a conversation with its message history.
func (s *SQLiteStore) Conversation(id string) (*Conversation, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, started_at, ended_at, report, latitude, longitude
		FROM conversations WHERE id = ?
	`, id)

	var conv Conversation
	err := row.Scan(&conv.ID, &conv.UserID, &conv.StartedAt, &conv.EndedAt,
		&conv.Report, &conv.Latitude, &conv.Longitude)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	conv.Messages, err = s.messages(id)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *SQLiteStore) messages(conversationID string) ([]Message, error) {
	rows, err := s.db.Query(`
		SELECT id, role, content, is_voice, timestamp
		FROM messages
		WHERE conversation_id = ?
		ORDER BY timestamp ASC, id ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.IsVoice, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// AppendMessage adds a message to an active conversation. The insert
// only matches an un-ended conversation, so a turn racing an end never
// writes to an ended conversation.
func (s *SQLiteStore) AppendMessage(conversationID string, msg Message) error {
	res, err := s.db.Exec(`
		INSERT INTO messages (id, conversation_id, role, content, is_voice, timestamp)
		SELECT ?, id, ?, ?, ?, ?
		FROM conversations WHERE id = ? AND ended_at IS NULL
	`, msg.ID, msg.Role, msg.Content, msg.IsVoice, msg.Timestamp, conversationID)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return s.checkActive(res, conversationID)
}

// SetLocation records the user's coordinates.
func (s *SQLiteStore) SetLocation(conversationID string, lat, lon float64) error {
	res, err := s.db.Exec(`
		UPDATE conversations SET latitude = ?, longitude = ?
		WHERE id = ? AND ended_at IS NULL
	`, lat, lon, conversationID)
	if err != nil {
		return fmt.Errorf("set location: %w", err)
	}
	return s.checkActive(res, conversationID)
}

// EndConversation marks the conversation ended.
func (s *SQLiteStore) EndConversation(id string) (time.Time, error) {
	now := time.Now().UTC()
	res, err := s.db.Exec(`
		UPDATE conversations SET ended_at = ?
		WHERE id = ? AND ended_at IS NULL
	`, now, id)
	if err != nil {
		return time.Time{}, fmt.Errorf("end conversation: %w", err)
	}
	if err := s.checkActive(res, id); err != nil {
		return time.Time{}, err
	}
	return now, nil
}

// SetReport attaches the summary report to an ended conversation.
func (s *SQLiteStore) SetReport(id, report string) error {
	res, err := s.db.Exec(`
		UPDATE conversations SET report = ?
		WHERE id = ? AND ended_at IS NOT NULL
	`, report, id)
	if err != nil {
		return fmt.Errorf("set report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if !s.exists(id) {
			return ErrNotFound
		}
		return ErrNotEnded
	}
	return nil
}

// checkActive maps a zero-row write to ErrNotFound or ErrEnded.
func (s *SQLiteStore) checkActive(res sql.Result, conversationID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if !s.exists(conversationID) {
			return ErrNotFound
		}
		return ErrEnded
	}
	return nil
}

func (s *SQLiteStore) exists(id string) bool {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM conversations WHERE id = ?`, id).Scan(&one)
	return err == nil
}
