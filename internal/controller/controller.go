package controller

import (
	"context"
	"database/sql"
	"time"

	"golang.org/x/sync/singleflight"

	"taskflow/internal/cache"
	"taskflow/internal/chat"
	"taskflow/internal/models"
	"taskflow/internal/queue"
	"taskflow/internal/repository"
)

// Controller holds the HTTP handlers and their collaborators.
type Controller struct {
	tasks     repository.TaskStore
	orch      *chat.Orchestrator
	cache     *cache.Cache
	events    *queue.Publisher
	db        *sql.DB // readiness probe only; may be nil
	listGroup singleflight.Group
}

// New creates the Controller.
func New(tasks repository.TaskStore, orch *chat.Orchestrator, c *cache.Cache, events *queue.Publisher, db *sql.DB) *Controller {
	return &Controller{
		tasks:  tasks,
		orch:   orch,
		cache:  c,
		events: events,
		db:     db,
	}
}

// NewMutationHook builds a post-commit hook that invalidates the owner's
// cached listings and publishes a task event. Used for both the REST handlers
// and the chat tool registry, distinguished by source.
func NewMutationHook(c *cache.Cache, events *queue.Publisher, source string) chat.MutationHook {
	return func(ctx context.Context, owner, action, taskID string) {
		c.InvalidateTasks(ctx, owner)
		events.PublishTaskEvent(ctx, &models.TaskEvent{
			Action:      action,
			TaskID:      taskID,
			UserID:      owner,
			Source:      source,
			RequestedAt: time.Now().UTC(),
		})
	}
}

func (ct *Controller) afterMutation(ctx context.Context, owner, action, taskID string) {
	NewMutationHook(ct.cache, ct.events, "api")(ctx, owner, action, taskID)
}
