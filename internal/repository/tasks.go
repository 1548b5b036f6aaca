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

const taskColumns = `id, user_id, title, description, completed, created_at, updated_at`

// Postgres implements TaskStore, ConversationStore and SessionStore over a
// *sql.DB with parameterized queries.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a Postgres repository over the given pool.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

var (
	_ TaskStore         = (*Postgres)(nil)
	_ ConversationStore = (*Postgres)(nil)
	_ SessionStore      = (*Postgres)(nil)
)

// Create inserts a new task for the owner.
func (p *Postgres) Create(ctx context.Context, owner, title, description string) (*models.Task, error) {
	now := time.Now().UTC()
	t := &models.Task{
		ID:          uuid.New().String(),
		UserID:      owner,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, title, description, completed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.UserID, t.Title, t.Description, t.Completed, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		logger.Error(ctx, "Repository create task failed", "error", err)
		return nil, err
	}
	return t, nil
}

// Get returns a task by id, scoped to the owner.
func (p *Postgres) Get(ctx context.Context, owner, id string) (*models.Task, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`, id, owner)
	return scanTask(row)
}

// List returns the owner's tasks, filtered and sorted.
func (p *Postgres) List(ctx context.Context, owner string, status StatusFilter, sort SortOrder) ([]models.Task, error) {
	q := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`
	switch status {
	case StatusPending:
		q += ` AND completed = FALSE`
	case StatusCompleted:
		q += ` AND completed = TRUE`
	}
	if sort == SortTitle {
		q += ` ORDER BY title ASC`
	} else {
		q += ` ORDER BY created_at DESC`
	}
	return p.queryTasks(ctx, q, owner)
}

// Update applies a partial update and returns the updated task.
func (p *Postgres) Update(ctx context.Context, owner, id string, upd TaskUpdate) (*models.Task, error) {
	row := p.db.QueryRowContext(ctx,
		`UPDATE tasks
		 SET title = COALESCE($1, title),
		     description = COALESCE($2, description),
		     completed = COALESCE($3, completed),
		     updated_at = $4
		 WHERE id = $5 AND user_id = $6
		 RETURNING `+taskColumns,
		upd.Title, upd.Description, upd.Completed, time.Now().UTC(), id, owner)
	return scanTask(row)
}

// ToggleCompleted flips the completed flag and returns the updated task.
func (p *Postgres) ToggleCompleted(ctx context.Context, owner, id string) (*models.Task, error) {
	row := p.db.QueryRowContext(ctx,
		`UPDATE tasks SET completed = NOT completed, updated_at = $1
		 WHERE id = $2 AND user_id = $3
		 RETURNING `+taskColumns,
		time.Now().UTC(), id, owner)
	return scanTask(row)
}

// Delete removes a task permanently.
func (p *Postgres) Delete(ctx context.Context, owner, id string) error {
	res, err := p.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, owner)
	if err != nil {
		logger.Error(ctx, "Repository delete task failed", "error", err, "id", id)
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByTitle returns tasks with an exact case-sensitive title match.
func (p *Postgres) FindByTitle(ctx context.Context, owner, title string) ([]models.Task, error) {
	return p.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 AND title = $2 ORDER BY created_at DESC`,
		owner, title)
}

// SearchTitle returns tasks whose title contains substr, case-insensitively.
func (p *Postgres) SearchTitle(ctx context.Context, owner, substr string) ([]models.Task, error) {
	return p.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE user_id = $1 AND title ILIKE '%' || $2 || '%'
		 ORDER BY created_at DESC`,
		owner, substr)
}

func (p *Postgres) queryTasks(ctx context.Context, query string, args ...interface{}) ([]models.Task, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error(ctx, "Repository task query failed", "error", err)
		return nil, err
	}
	defer rows.Close()
	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanTask(row *sql.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
