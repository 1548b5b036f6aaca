package chat

import (
	"context"
	"errors"
	"fmt"

	"taskflow/internal/models"
	"taskflow/internal/repository"
)

var (
	// ErrAmbiguous means more than one task matched a title reference. The
	// caller must ask the user to disambiguate; resolution never guesses.
	ErrAmbiguous = errors.New("multiple tasks match")
	// ErrNoSelector means neither a task id nor a title was supplied.
	ErrNoSelector = errors.New("either a task id or a title is required")
)

// Resolver disambiguates a task referenced by id or fuzzy title.
type Resolver struct {
	tasks repository.TaskStore
}

// NewResolver creates a Resolver over the given task store.
func NewResolver(tasks repository.TaskStore) *Resolver {
	return &Resolver{tasks: tasks}
}

// Resolve finds the one task the reference denotes, scoped to the owner.
// Resolution order: exact id lookup, exact case-sensitive title match, then
// case-insensitive substring match. A substring match must be unique;
// zero matches report repository.ErrNotFound, two or more report ErrAmbiguous.
func (r *Resolver) Resolve(ctx context.Context, owner, id, title string) (*models.Task, error) {
	if id != "" {
		return r.tasks.Get(ctx, owner, id)
	}
	if title == "" {
		return nil, ErrNoSelector
	}

	exact, err := r.tasks.FindByTitle(ctx, owner, title)
	if err != nil {
		return nil, err
	}
	if task, err := pickOne(exact, title); task != nil || err != nil {
		return task, err
	}

	partial, err := r.tasks.SearchTitle(ctx, owner, title)
	if err != nil {
		return nil, err
	}
	if task, err := pickOne(partial, title); task != nil || err != nil {
		return task, err
	}
	return nil, repository.ErrNotFound
}

// pickOne returns the single match, ErrAmbiguous for several, or (nil, nil)
// for none so the caller can try the next resolution step.
func pickOne(matches []models.Task, title string) (*models.Task, error) {
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("%w %q", ErrAmbiguous, title)
	}
}
