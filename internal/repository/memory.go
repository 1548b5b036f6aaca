package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskflow/internal/models"
)

// Memory is an in-memory implementation of TaskStore, ConversationStore and
// SessionStore. It backs tests; semantics mirror the Postgres implementation.
type Memory struct {
	mu            sync.RWMutex
	tasks         map[string]models.Task
	conversations map[string]models.Conversation
	messages      map[string][]models.Message // conversation id -> ordered
	sessions      map[string]memorySession
	seq           int64 // monotonic tiebreaker for message ordering
}

type memorySession struct {
	userID    string
	expiresAt time.Time
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		tasks:         make(map[string]models.Task),
		conversations: make(map[string]models.Conversation),
		messages:      make(map[string][]models.Message),
		sessions:      make(map[string]memorySession),
	}
}

var (
	_ TaskStore         = (*Memory)(nil)
	_ ConversationStore = (*Memory)(nil)
	_ SessionStore      = (*Memory)(nil)
)

func (m *Memory) Create(_ context.Context, owner, title, description string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	t := models.Task{
		ID:          uuid.New().String(),
		UserID:      owner,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.tasks[t.ID] = t
	return &t, nil
}

func (m *Memory) Get(_ context.Context, owner, id string) (*models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok || t.UserID != owner {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (m *Memory) List(_ context.Context, owner string, status StatusFilter, sortOrder SortOrder) ([]models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Task
	for _, t := range m.tasks {
		if t.UserID != owner {
			continue
		}
		if status == StatusPending && t.Completed {
			continue
		}
		if status == StatusCompleted && !t.Completed {
			continue
		}
		out = append(out, t)
	}
	if sortOrder == SortTitle {
		sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out, nil
}

func (m *Memory) Update(_ context.Context, owner, id string, upd TaskUpdate) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.UserID != owner {
		return nil, ErrNotFound
	}
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.Completed != nil {
		t.Completed = *upd.Completed
	}
	t.UpdatedAt = time.Now().UTC()
	m.tasks[id] = t
	return &t, nil
}

func (m *Memory) ToggleCompleted(_ context.Context, owner, id string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.UserID != owner {
		return nil, ErrNotFound
	}
	t.Completed = !t.Completed
	t.UpdatedAt = time.Now().UTC()
	m.tasks[id] = t
	return &t, nil
}

func (m *Memory) Delete(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.UserID != owner {
		return ErrNotFound
	}
	delete(m.tasks, t.ID)
	return nil
}

func (m *Memory) FindByTitle(_ context.Context, owner, title string) ([]models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Task
	for _, t := range m.tasks {
		if t.UserID == owner && t.Title == title {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *Memory) SearchTitle(_ context.Context, owner, substr string) ([]models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	needle := strings.ToLower(substr)
	var out []models.Task
	for _, t := range m.tasks {
		if t.UserID == owner && strings.Contains(strings.ToLower(t.Title), needle) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *Memory) CreateConversation(_ context.Context, owner string) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	c := models.Conversation{
		ID:        uuid.New().String(),
		UserID:    owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.conversations[c.ID] = c
	return &c, nil
}

func (m *Memory) GetConversation(_ context.Context, owner, id string) (*models.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conversations[id]
	if !ok || c.UserID != owner {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *Memory) TouchConversation(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok {
		return ErrNotFound
	}
	c.UpdatedAt = time.Now().UTC()
	m.conversations[id] = c
	return nil
}

func (m *Memory) AppendMessage(_ context.Context, conversationID, owner string, role models.Role, content string) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.conversations[conversationID]; !ok {
		return nil, ErrNotFound
	}
	m.seq++
	msg := models.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		UserID:         owner,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC().Add(time.Duration(m.seq) * time.Nanosecond),
	}
	m.messages[conversationID] = append(m.messages[conversationID], msg)
	return &msg, nil
}

func (m *Memory) ListMessages(_ context.Context, conversationID string) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.messages[conversationID]
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// PutSession registers a session token, for tests and local setups.
func (m *Memory) PutSession(token, userID string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = memorySession{userID: userID, expiresAt: expiresAt}
}

func (m *Memory) LookupSession(_ context.Context, token string) (string, time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[token]
	if !ok {
		return "", time.Time{}, ErrNotFound
	}
	return s.userID, s.expiresAt, nil
}
