package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/xiaot623/gogo/sdk/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	// Enable foreign keys so history and suggestions follow their session.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			user_id TEXT,
			agent_id TEXT NOT NULL,
			situation TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			metadata TEXT,
			render_templates INTEGER NOT NULL DEFAULT 0,
			token_budget INTEGER,
			context_overflow TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at)`,
		`CREATE TABLE IF NOT EXISTS messages (
			message_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			name TEXT,
			content TEXT NOT NULL,
			tool_calls TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS suggestions (
			suggestion_id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			target TEXT NOT NULL,
			content TEXT NOT NULL,
			message_id TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_suggestions_session ON suggestions(session_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	// Columns added after the first schema; SQLite has limited ALTER TABLE support.
	return s.ensureColumn("sessions", "summary", "ALTER TABLE sessions ADD COLUMN summary TEXT NOT NULL DEFAULT ''")
}

func (s *SQLiteStore) ensureColumn(tableName, columnName, ddl string) error {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull int
		var dfltValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return err
		}
		if name == columnName {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	_, err = s.db.Exec(ddl)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sessionColumns = `session_id, user_id, agent_id, situation, summary, metadata, render_templates, token_budget, context_overflow, created_at, updated_at`

// CreateSession creates a new session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *domain.Session) error {
	metadata, err := marshalMetadata(session.Metadata)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, nullString(session.UserID), session.AgentID, session.Situation, session.Summary,
		metadata, session.RenderTemplates, nullInt(session.TokenBudget), nullString(string(session.ContextOverflow)),
		session.CreatedAt, session.UpdatedAt)
	return err
}

// GetSession retrieves a session by ID. A missing session yields (nil, nil).
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE session_id = ?`, sessionID)
	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessions returns sessions, newest first. A non-positive limit means no limit.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit, offset int) ([]domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY created_at DESC, rowid DESC` + limitClause(limit, offset)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []domain.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// UpdateSession writes every mutable column of session. It reports whether a row matched.
func (s *SQLiteStore) UpdateSession(ctx context.Context, session *domain.Session) (bool, error) {
	metadata, err := marshalMetadata(session.Metadata)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET situation = ?, summary = ?, metadata = ?, render_templates = ?, token_budget = ?, context_overflow = ?, updated_at = ?
		WHERE session_id = ?`,
		session.Situation, session.Summary, metadata, session.RenderTemplates,
		nullInt(session.TokenBudget), nullString(string(session.ContextOverflow)), session.UpdatedAt,
		session.ID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteSession removes a session together with its history and suggestions.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// CreateMessage appends a message to a session's history.
func (s *SQLiteStore) CreateMessage(ctx context.Context, sessionID string, message *domain.ChatMLMessage) error {
	var toolCalls sql.NullString
	if len(message.ToolCalls) > 0 {
		data, err := json.Marshal(message.ToolCalls)
		if err != nil {
			return fmt.Errorf("failed to marshal tool calls: %w", err)
		}
		toolCalls = sql.NullString{String: string(data), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (message_id, session_id, role, name, content, tool_calls, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		message.ID, sessionID, message.Role, nullString(message.Name), message.Content, toolCalls, message.CreatedAt)
	return err
}

// GetMessages retrieves a session's history in chronological order.
func (s *SQLiteStore) GetMessages(ctx context.Context, sessionID string, limit, offset int) ([]domain.ChatMLMessage, error) {
	query := `SELECT message_id, role, name, content, tool_calls, created_at FROM messages WHERE session_id = ?
		ORDER BY created_at ASC, rowid ASC` + limitClause(limit, offset)

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []domain.ChatMLMessage{}
	for rows.Next() {
		var msg domain.ChatMLMessage
		var name, toolCalls sql.NullString
		if err := rows.Scan(&msg.ID, &msg.Role, &name, &msg.Content, &toolCalls, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.Name = name.String
		if toolCalls.Valid && toolCalls.String != "" {
			if err := json.Unmarshal([]byte(toolCalls.String), &msg.ToolCalls); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tool calls: %w", err)
			}
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// DeleteMessages removes a session's history and returns the number of removed messages.
func (s *SQLiteStore) DeleteMessages(ctx context.Context, sessionID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CreateSuggestion stores a suggestion.
func (s *SQLiteStore) CreateSuggestion(ctx context.Context, suggestion *domain.Suggestion) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO suggestions (session_id, target, content, message_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		suggestion.SessionID, suggestion.Target, suggestion.Content, nullString(suggestion.MessageID), suggestion.CreatedAt)
	return err
}

// ListSuggestions returns a session's suggestions, newest first.
func (s *SQLiteStore) ListSuggestions(ctx context.Context, sessionID string, limit, offset int) ([]domain.Suggestion, error) {
	query := `SELECT session_id, target, content, message_id, created_at FROM suggestions WHERE session_id = ?
		ORDER BY created_at DESC, suggestion_id DESC` + limitClause(limit, offset)

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suggestions := []domain.Suggestion{}
	for rows.Next() {
		var sg domain.Suggestion
		var messageID sql.NullString
		if err := rows.Scan(&sg.SessionID, &sg.Target, &sg.Content, &messageID, &sg.CreatedAt); err != nil {
			return nil, err
		}
		sg.MessageID = messageID.String
		suggestions = append(suggestions, sg)
	}
	return suggestions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var session domain.Session
	var userID, metadata, overflow sql.NullString
	var tokenBudget sql.NullInt64
	err := row.Scan(&session.ID, &userID, &session.AgentID, &session.Situation, &session.Summary,
		&metadata, &session.RenderTemplates, &tokenBudget, &overflow, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return nil, err
	}
	session.UserID = userID.String
	session.ContextOverflow = domain.ContextOverflow(overflow.String)
	if tokenBudget.Valid {
		budget := int(tokenBudget.Int64)
		session.TokenBudget = &budget
	}
	session.Metadata = map[string]any{}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &session.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &session, nil
}

func marshalMetadata(metadata map[string]any) (string, error) {
	if metadata == nil {
		return "{}", nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return string(data), nil
}

func limitClause(limit, offset int) string {
	switch {
	case limit > 0 && offset > 0:
		return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	case limit > 0:
		return fmt.Sprintf(" LIMIT %d", limit)
	case offset > 0:
		return fmt.Sprintf(" LIMIT -1 OFFSET %d", offset)
	default:
		return ""
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
