package models

import "time"

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Task represents a user-owned task.
type Task struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Conversation is a chat session. All state lives in the messages table;
// the conversation row itself only carries ownership and timestamps.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is a single immutable chat message. Messages are always read back
// in ascending CreatedAt order to reconstruct history.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// TaskEvent is the Kafka payload published after a task mutation commits.
// It is observability fan-out only; the mutation itself is already durable.
type TaskEvent struct {
	Action      string    `json:"action"` // create, update, delete, toggle
	TaskID      string    `json:"task_id"`
	UserID      string    `json:"user_id"`
	Source      string    `json:"source"` // api or chat
	RequestedAt time.Time `json:"requested_at"`
}
