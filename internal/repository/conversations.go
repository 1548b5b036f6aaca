package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"taskflow/internal/models"
	"taskflow/pkg/logger"
)

// CreateConversation starts a new conversation for the owner.
func (p *Postgres) CreateConversation(ctx context.Context, owner string) (*models.Conversation, error) {
	now := time.Now().UTC()
	c := &models.Conversation{
		ID:        uuid.New().String(),
		UserID:    owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		c.ID, c.UserID, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		logger.Error(ctx, "Repository create conversation failed", "error", err)
		return nil, err
	}
	return c, nil
}

// GetConversation returns a conversation by id, scoped to the owner.
func (p *Postgres) GetConversation(ctx context.Context, owner, id string) (*models.Conversation, error) {
	var c models.Conversation
	err := p.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, updated_at FROM conversations WHERE id = $1 AND user_id = $2`,
		id, owner).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// TouchConversation bumps the conversation's updated_at.
func (p *Postgres) TouchConversation(ctx context.Context, id string) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE conversations SET updated_at = $1 WHERE id = $2`, time.Now().UTC(), id)
	return err
}

// AppendMessage durably stores one message. Messages are immutable once written.
func (p *Postgres) AppendMessage(ctx context.Context, conversationID, owner string, role models.Role, content string) (*models.Message, error) {
	m := &models.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		UserID:         owner,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, user_id, role, content, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.ConversationID, m.UserID, m.Role, m.Content, m.CreatedAt)
	if err != nil {
		logger.Error(ctx, "Repository append message failed", "error", err)
		return nil, err
	}
	return m, nil
}

// ListMessages returns the conversation's full history, oldest first.
func (p *Postgres) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, conversation_id, user_id, role, content, created_at
		 FROM messages WHERE conversation_id = $1 ORDER BY created_at ASC`,
		conversationID)
	if err != nil {
		logger.Error(ctx, "Repository list messages failed", "error", err)
		return nil, err
	}
	defer rows.Close()
	var msgs []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// LookupSession reads a session token row written by the auth provider.
func (p *Postgres) LookupSession(ctx context.Context, token string) (string, time.Time, error) {
	var userID string
	var expiresAt time.Time
	err := p.db.QueryRowContext(ctx,
		`SELECT "userId", "expiresAt" FROM session WHERE token = $1`, token).
		Scan(&userID, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, ErrNotFound
	}
	if err != nil {
		return "", time.Time{}, err
	}
	return userID, expiresAt, nil
}
