package chat

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"taskflow/internal/repository"
)

func newTestRegistry(t *testing.T) (*Registry, *repository.Memory) {
	t.Helper()
	store := repository.NewMemory()
	return NewRegistry(store, nil), store
}

func dispatch(t *testing.T, r *Registry, owner, name, args string) map[string]interface{} {
	t.Helper()
	return r.Dispatch(context.Background(), owner, name, args)
}

func wantSuccess(t *testing.T, result map[string]interface{}) {
	t.Helper()
	if errMsg, ok := result["error"]; ok {
		t.Fatalf("unexpected tool error: %v", errMsg)
	}
	if ok, _ := result["success"].(bool); !ok {
		t.Fatalf("expected success payload, got %v", result)
	}
}

func wantError(t *testing.T, result map[string]interface{}, substr string) {
	t.Helper()
	msg, ok := result["error"].(string)
	if !ok {
		t.Fatalf("expected error payload, got %v", result)
	}
	if !strings.Contains(msg, substr) {
		t.Fatalf("error %q does not contain %q", msg, substr)
	}
}

func TestRegistryCatalog(t *testing.T) {
	r, _ := newTestRegistry(t)
	infos := r.ToolInfos(context.Background())

	want := []string{"create_task", "list_tasks", "set_task_status", "delete_task", "update_task"}
	if len(infos) != len(want) {
		t.Fatalf("want %d tools, got %d", len(want), len(infos))
	}
	for i, info := range infos {
		if info.Name != want[i] {
			t.Errorf("tool[%d]: want %q, got %q", i, want[i], info.Name)
		}
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	r, _ := newTestRegistry(t)
	result := dispatch(t, r, "alice", "launch_rocket", "{}")
	wantError(t, result, "Unknown tool")
}

func TestCreateTaskTool(t *testing.T) {
	r, store := newTestRegistry(t)

	result := dispatch(t, r, "alice", "create_task", `{"title":"Buy milk","description":"2 liters"}`)
	wantSuccess(t, result)

	tasks, _ := store.List(context.Background(), "alice", repository.StatusAll, repository.SortCreated)
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" {
		t.Fatalf("task not persisted: %+v", tasks)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	r, store := newTestRegistry(t)

	wantError(t, dispatch(t, r, "alice", "create_task", `{"title":""}`), "required")
	wantError(t, dispatch(t, r, "alice", "create_task", `{"title":"   "}`), "required")

	long := strings.Repeat("x", 201)
	wantError(t, dispatch(t, r, "alice", "create_task", fmt.Sprintf(`{"title":%q}`, long)), "200 characters")

	tasks, _ := store.List(context.Background(), "alice", repository.StatusAll, repository.SortCreated)
	if len(tasks) != 0 {
		t.Errorf("invalid input persisted %d tasks", len(tasks))
	}
}

func TestCreateTaskMalformedArguments(t *testing.T) {
	r, _ := newTestRegistry(t)
	wantError(t, dispatch(t, r, "alice", "create_task", `{"title": `), "invalid arguments")
}

func TestListTasksTool(t *testing.T) {
	ctx := context.Background()
	r, store := newTestRegistry(t)
	done, _ := store.Create(ctx, "alice", "done task", "")
	store.Create(ctx, "alice", "open task", "")
	store.ToggleCompleted(ctx, "alice", done.ID)

	result := dispatch(t, r, "alice", "list_tasks", `{"status":"pending"}`)
	wantSuccess(t, result)
	if n, _ := result["count"].(float64); n != 1 {
		t.Errorf("pending count: want 1, got %v", result["count"])
	}

	result = dispatch(t, r, "alice", "list_tasks", "")
	wantSuccess(t, result)
	if n, _ := result["count"].(float64); n != 2 {
		t.Errorf("default listing count: want 2, got %v", result["count"])
	}

	wantError(t, dispatch(t, r, "alice", "list_tasks", `{"status":"bogus"}`), "Invalid status")
}

func TestSetTaskStatusTool(t *testing.T) {
	ctx := context.Background()
	r, store := newTestRegistry(t)
	task, _ := store.Create(ctx, "alice", "Buy milk", "")

	result := dispatch(t, r, "alice", "set_task_status", `{"title":"milk","completed":true}`)
	wantSuccess(t, result)
	got, _ := store.Get(ctx, "alice", task.ID)
	if !got.Completed {
		t.Error("task not marked completed")
	}

	result = dispatch(t, r, "alice", "set_task_status", fmt.Sprintf(`{"task_id":%q,"completed":false}`, task.ID))
	wantSuccess(t, result)
	got, _ = store.Get(ctx, "alice", task.ID)
	if got.Completed {
		t.Error("task not reverted to pending")
	}
}

func TestSetTaskStatusRequiresCompleted(t *testing.T) {
	ctx := context.Background()
	r, store := newTestRegistry(t)
	store.Create(ctx, "alice", "Buy milk", "")

	wantError(t, dispatch(t, r, "alice", "set_task_status", `{"title":"milk"}`), "completed status is required")
}

func TestDeleteTaskTool(t *testing.T) {
	ctx := context.Background()
	r, store := newTestRegistry(t)
	task, _ := store.Create(ctx, "alice", "Buy milk", "")

	result := dispatch(t, r, "alice", "delete_task", `{"title":"Buy milk"}`)
	wantSuccess(t, result)
	if _, err := store.Get(ctx, "alice", task.ID); err == nil {
		t.Error("task still present after delete")
	}
}

func TestDeleteTaskNotFound(t *testing.T) {
	r, _ := newTestRegistry(t)
	result := dispatch(t, r, "alice", "delete_task", `{"title":"nonexistent"}`)
	wantError(t, result, "not found")
	wantError(t, result, "list_tasks")
}

func TestDeleteTaskAmbiguous(t *testing.T) {
	ctx := context.Background()
	r, store := newTestRegistry(t)
	store.Create(ctx, "alice", "Buy milk", "")
	store.Create(ctx, "alice", "Buy bread", "")

	wantError(t, dispatch(t, r, "alice", "delete_task", `{"title":"buy"}`), "Multiple tasks match")
}

func TestDeleteTaskNoSelector(t *testing.T) {
	r, _ := newTestRegistry(t)
	wantError(t, dispatch(t, r, "alice", "delete_task", `{}`), "task id or a title")
}

func TestUpdateTaskTool(t *testing.T) {
	ctx := context.Background()
	r, store := newTestRegistry(t)
	task, _ := store.Create(ctx, "alice", "Buy milk", "old")

	result := dispatch(t, r, "alice", "update_task",
		`{"current_title":"Buy milk","new_title":"Buy oat milk","description":"from the market"}`)
	wantSuccess(t, result)

	got, _ := store.Get(ctx, "alice", task.ID)
	if got.Title != "Buy oat milk" || got.Description != "from the market" {
		t.Errorf("update not applied: %+v", got)
	}
}

func TestToolsScopedToOwner(t *testing.T) {
	ctx := context.Background()
	r, store := newTestRegistry(t)
	store.Create(ctx, "bob", "Bob's task", "")

	result := dispatch(t, r, "alice", "list_tasks", "")
	wantSuccess(t, result)
	if n, _ := result["count"].(float64); n != 0 {
		t.Errorf("alice sees %v of bob's tasks", result["count"])
	}

	wantError(t, dispatch(t, r, "alice", "delete_task", `{"title":"Bob's task"}`), "not found")
}

func TestMutationHookFires(t *testing.T) {
	store := repository.NewMemory()
	type call struct{ owner, action string }
	var calls []call
	r := NewRegistry(store, func(_ context.Context, owner, action, taskID string) {
		if taskID == "" {
			t.Errorf("hook called with empty task id for %s", action)
		}
		calls = append(calls, call{owner, action})
	})

	dispatch(t, r, "alice", "create_task", `{"title":"Buy milk"}`)
	dispatch(t, r, "alice", "set_task_status", `{"title":"milk","completed":true}`)
	dispatch(t, r, "alice", "update_task", `{"current_title":"milk","new_title":"Buy bread"}`)
	dispatch(t, r, "alice", "delete_task", `{"title":"bread"}`)
	// Failed dispatches must not fire the hook.
	dispatch(t, r, "alice", "delete_task", `{"title":"nonexistent"}`)

	want := []call{
		{"alice", "create"},
		{"alice", "toggle"},
		{"alice", "update"},
		{"alice", "delete"},
	}
	if len(calls) != len(want) {
		t.Fatalf("want %d hook calls, got %d: %v", len(want), len(calls), calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("hook call[%d]: want %v, got %v", i, want[i], calls[i])
		}
	}
}
