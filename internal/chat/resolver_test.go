package chat

import (
	"context"
	"errors"
	"testing"

	"taskflow/internal/repository"
)

func TestResolveByID(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	task, _ := store.Create(ctx, "alice", "Buy milk", "")
	r := NewResolver(store)

	got, err := r.Resolve(ctx, "alice", task.ID, "")
	if err != nil {
		t.Fatalf("resolve by id: %v", err)
	}
	if got.ID != task.ID {
		t.Errorf("resolved wrong task: %s", got.ID)
	}
}

func TestResolveIDTakesPrecedenceOverTitle(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	byID, _ := store.Create(ctx, "alice", "Task A", "")
	store.Create(ctx, "alice", "Task B", "")
	r := NewResolver(store)

	got, err := r.Resolve(ctx, "alice", byID.ID, "Task B")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.ID != byID.ID {
		t.Errorf("id should win over title, got %q", got.Title)
	}
}

func TestResolveExactTitle(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	store.Create(ctx, "alice", "Buy milk", "")
	store.Create(ctx, "alice", "Buy milk today", "")
	r := NewResolver(store)

	// "Buy milk" is a substring of both titles, but the exact match is
	// unique and must win before substring search runs.
	got, err := r.Resolve(ctx, "alice", "", "Buy milk")
	if err != nil {
		t.Fatalf("resolve exact title: %v", err)
	}
	if got.Title != "Buy milk" {
		t.Errorf("want exact match, got %q", got.Title)
	}
}

func TestResolveSubstring(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	store.Create(ctx, "alice", "Buy milk at the store", "")
	store.Create(ctx, "alice", "Call dentist", "")
	r := NewResolver(store)

	got, err := r.Resolve(ctx, "alice", "", "MILK")
	if err != nil {
		t.Fatalf("resolve substring: %v", err)
	}
	if got.Title != "Buy milk at the store" {
		t.Errorf("want substring match, got %q", got.Title)
	}
}

func TestResolveAmbiguous(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	store.Create(ctx, "alice", "Buy milk", "")
	store.Create(ctx, "alice", "Buy bread", "")
	r := NewResolver(store)

	_, err := r.Resolve(ctx, "alice", "", "buy")
	if !errors.Is(err, ErrAmbiguous) {
		t.Errorf("want ErrAmbiguous, got %v", err)
	}
}

func TestResolveNotFound(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	store.Create(ctx, "alice", "Buy milk", "")
	r := NewResolver(store)

	_, err := r.Resolve(ctx, "alice", "", "nonexistent")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
	_, err = r.Resolve(ctx, "alice", "no-such-id", "")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("unknown id: want ErrNotFound, got %v", err)
	}
}

func TestResolveNoSelector(t *testing.T) {
	r := NewResolver(repository.NewMemory())
	_, err := r.Resolve(context.Background(), "alice", "", "")
	if !errors.Is(err, ErrNoSelector) {
		t.Errorf("want ErrNoSelector, got %v", err)
	}
}

func TestResolveScopedToOwner(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	store.Create(ctx, "bob", "Buy milk", "")
	r := NewResolver(store)

	_, err := r.Resolve(ctx, "alice", "", "Buy milk")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("another owner's task resolved: %v", err)
	}
}
