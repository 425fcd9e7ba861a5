package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dmulondo/sema-core/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS approvals (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			user_message TEXT NOT NULL,
			suggested_response TEXT NOT NULL,
			suggested_action TEXT,
			priority TEXT NOT NULL,
			business_type TEXT,
			language TEXT,
			status TEXT NOT NULL,
			admin_id TEXT,
			admin_response TEXT,
			auto_approval_reason TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_approvals_status ON approvals(status, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_approvals_session ON approvals(session_id)`,
		`CREATE TABLE IF NOT EXISTS conversation_messages (
			message_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			type TEXT NOT NULL,
			content TEXT NOT NULL,
			language TEXT,
			requires_approval INTEGER NOT NULL DEFAULT 0,
			approval_status TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON conversation_messages(session_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveApproval inserts or refreshes an archived approval request. Called
// on creation and again on every resolution.
func (s *SQLiteStore) SaveApproval(ctx context.Context, req *domain.ApprovalRequest) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO approvals (
			id, session_id, user_id, user_message, suggested_response,
			suggested_action, priority, business_type, language, status,
			admin_id, admin_response, auto_approval_reason, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			admin_id = excluded.admin_id,
			admin_response = excluded.admin_response`,
		req.ID, req.SessionID, req.UserID, req.UserMessage, req.SuggestedResponse,
		req.SuggestedAction, string(req.Priority), req.BusinessType, string(req.Language),
		string(req.Status), req.AdminID, req.AdminResponse, req.AutoApprovalReason,
		req.Timestamp)
	return err
}

// GetApproval retrieves an archived approval by id, or nil when absent.
func (s *SQLiteStore) GetApproval(ctx context.Context, id string) (*domain.ApprovalRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, user_id, user_message, suggested_response,
			suggested_action, priority, business_type, language, status,
			admin_id, admin_response, auto_approval_reason, created_at
		FROM approvals WHERE id = ?`, id)

	req, err := scanApproval(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

// ListApprovals returns archived approvals, newest first. An empty
// status matches all.
func (s *SQLiteStore) ListApprovals(ctx context.Context, status domain.ApprovalStatus, limit int) ([]domain.ApprovalRequest, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, session_id, user_id, user_message, suggested_response,
			suggested_action, priority, business_type, language, status,
			admin_id, admin_response, auto_approval_reason, created_at
		FROM approvals`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ApprovalRequest
	for rows.Next() {
		req, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

// SaveMessage archives a conversation message.
func (s *SQLiteStore) SaveMessage(ctx context.Context, sessionID, userID string, msg *domain.ConversationMessage) error {
	requires := 0
	if msg.RequiresApproval {
		requires = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversation_messages (
			message_id, session_id, user_id, type, content, language,
			requires_approval, approval_status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, sessionID, userID, string(msg.Type), msg.Content, string(msg.Language),
		requires, string(msg.ApprovalStatus), msg.Timestamp)
	return err
}

// GetSessionMessages returns the archived transcript for a session in
// append order.
func (s *SQLiteStore) GetSessionMessages(ctx context.Context, sessionID string, limit int) ([]domain.ConversationMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, type, content, language, requires_approval, approval_status, created_at
		FROM conversation_messages
		WHERE session_id = ?
		ORDER BY created_at ASC
		LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ConversationMessage
	for rows.Next() {
		var msg domain.ConversationMessage
		var msgType, language, approvalStatus sql.NullString
		var requires int
		if err := rows.Scan(&msg.ID, &msgType, &msg.Content, &language, &requires, &approvalStatus, &msg.Timestamp); err != nil {
			return nil, err
		}
		msg.Type = domain.MessageType(msgType.String)
		msg.Language = domain.Language(language.String)
		msg.RequiresApproval = requires != 0
		msg.ApprovalStatus = domain.ApprovalStatus(approvalStatus.String)
		out = append(out, msg)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApproval(row rowScanner) (*domain.ApprovalRequest, error) {
	var req domain.ApprovalRequest
	var priority, language, status string
	var businessType, adminID, adminResponse, autoReason, suggestedAction sql.NullString
	err := row.Scan(&req.ID, &req.SessionID, &req.UserID, &req.UserMessage,
		&req.SuggestedResponse, &suggestedAction, &priority, &businessType,
		&language, &status, &adminID, &adminResponse, &autoReason, &req.Timestamp)
	if err != nil {
		return nil, err
	}
	req.SuggestedAction = suggestedAction.String
	req.Priority = domain.Priority(priority)
	req.BusinessType = businessType.String
	req.Language = domain.Language(language)
	req.Status = domain.ApprovalStatus(status)
	req.AdminID = adminID.String
	req.AdminResponse = adminResponse.String
	req.AutoApprovalReason = autoReason.String
	return &req, nil
}
