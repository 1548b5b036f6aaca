// Package repository provides owner-scoped persistence for tasks,
// conversations and messages. Every operation takes the owner id and never
// returns or mutates rows belonging to a different owner.
package repository

import (
	"context"
	"errors"
	"time"

	"taskflow/internal/models"
)

// ErrNotFound is returned when a row does not exist under the given owner.
var ErrNotFound = errors.New("not found")

// StatusFilter narrows task listings by completion state.
type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusPending   StatusFilter = "pending"
	StatusCompleted StatusFilter = "completed"
)

// SortOrder controls task listing order.
type SortOrder string

const (
	SortCreated SortOrder = "created" // created_at descending
	SortTitle   SortOrder = "title"   // title ascending
)

// TaskUpdate carries the optional fields of a partial task update.
// Nil fields are left unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	Completed   *bool
}

// TaskStore is the owner-scoped task CRUD contract. Each mutation is a single
// durable transaction and bumps updated_at.
type TaskStore interface {
	Create(ctx context.Context, owner, title, description string) (*models.Task, error)
	Get(ctx context.Context, owner, id string) (*models.Task, error)
	List(ctx context.Context, owner string, status StatusFilter, sort SortOrder) ([]models.Task, error)
	Update(ctx context.Context, owner, id string, upd TaskUpdate) (*models.Task, error)
	ToggleCompleted(ctx context.Context, owner, id string) (*models.Task, error)
	Delete(ctx context.Context, owner, id string) error

	// FindByTitle returns all tasks whose title matches exactly (case-sensitive).
	FindByTitle(ctx context.Context, owner, title string) ([]models.Task, error)
	// SearchTitle returns all tasks whose title contains substr (case-insensitive).
	SearchTitle(ctx context.Context, owner, substr string) ([]models.Task, error)
}

// ConversationStore persists conversations and their ordered messages.
type ConversationStore interface {
	CreateConversation(ctx context.Context, owner string) (*models.Conversation, error)
	// GetConversation returns ErrNotFound when the id does not exist or does
	// not belong to the owner.
	GetConversation(ctx context.Context, owner, id string) (*models.Conversation, error)
	TouchConversation(ctx context.Context, id string) error
	AppendMessage(ctx context.Context, conversationID, owner string, role models.Role, content string) (*models.Message, error)
	// ListMessages returns the full history, ascending by creation time.
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
}

// SessionStore looks up auth-provider session tokens.
type SessionStore interface {
	// LookupSession returns the owning user id and expiry for a session token,
	// or ErrNotFound when no such session exists.
	LookupSession(ctx context.Context, token string) (userID string, expiresAt time.Time, err error)
}
