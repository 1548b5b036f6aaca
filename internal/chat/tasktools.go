package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"taskflow/internal/models"
	"taskflow/internal/repository"
)

const maxTitleLength = 200

// taskPayload is the public view of a task echoed in tool results.
type taskPayload struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Completed   bool   `json:"completed"`
}

func toTaskPayload(t *models.Task) taskPayload {
	return taskPayload{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
	}
}

// errResult renders a handler-level error payload. Handlers report failures
// this way instead of returning Go errors, so the model can read the message
// and adapt.
func errResult(format string, args ...interface{}) (string, error) {
	return marshalPayload(map[string]string{"error": fmt.Sprintf(format, args...)})
}

// resolveErrResult maps resolver failures to descriptive error payloads.
func resolveErrResult(id, title string, err error) (string, error) {
	switch {
	case errors.Is(err, ErrNoSelector):
		return errResult("Either a task id or a title is required")
	case errors.Is(err, ErrAmbiguous):
		return errResult("Multiple tasks match '%s'. Please be more specific or use the task id.", title)
	case errors.Is(err, repository.ErrNotFound):
		identifier := fmt.Sprintf("'%s'", title)
		if id != "" {
			identifier = "id " + id
		}
		return errResult("Task with %s not found. Use list_tasks to see available tasks.", identifier)
	default:
		return errResult("Task lookup failed: %v", err)
	}
}

// =============================================================================
// create_task
// =============================================================================

type createTaskTool struct {
	tasks repository.TaskStore
	hook  MutationHook
}

type createTaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (t *createTaskTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	spec := &ToolSpec{
		Name:        "create_task",
		Description: "Create a new task in the user's todo list",
		Parameters: map[string]ParamSpec{
			"title": {
				Type:        "string",
				Description: "The title of the task (required, 1-200 characters)",
				Required:    true,
			},
			"description": {
				Type:        "string",
				Description: "Optional description for the task",
			},
		},
	}
	return spec.toolInfo(), nil
}

func (t *createTaskTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var input createTaskInput
	if err := unmarshalArgs(argumentsInJSON, &input); err != nil {
		return errResult("create_task: %v", err)
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return errResult("Task title is required")
	}
	if len(title) > maxTitleLength {
		return errResult("Task title must be %d characters or less", maxTitleLength)
	}

	owner := ownerFromContext(ctx)
	task, err := t.tasks.Create(ctx, owner, title, input.Description)
	if err != nil {
		return errResult("Failed to create task: %v", err)
	}
	t.hook(ctx, owner, "create", task.ID)

	return marshalPayload(map[string]interface{}{
		"success": true,
		"task":    toTaskPayload(task),
		"message": fmt.Sprintf("Task '%s' created successfully", task.Title),
	})
}

// =============================================================================
// list_tasks
// =============================================================================

type listTasksTool struct {
	tasks repository.TaskStore
}

type listTasksInput struct {
	Status string `json:"status"`
}

func (t *listTasksTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	spec := &ToolSpec{
		Name:        "list_tasks",
		Description: "Get all tasks from the user's todo list",
		Parameters: map[string]ParamSpec{
			"status": {
				Type:        "string",
				Description: "Filter tasks by status (default: all)",
				Enum:        []string{"all", "pending", "completed"},
			},
		},
	}
	return spec.toolInfo(), nil
}

func (t *listTasksTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var input listTasksInput
	if err := unmarshalArgs(argumentsInJSON, &input); err != nil {
		return errResult("list_tasks: %v", err)
	}
	status := repository.StatusFilter(input.Status)
	switch status {
	case "", repository.StatusAll:
		status = repository.StatusAll
	case repository.StatusPending, repository.StatusCompleted:
	default:
		return errResult("Invalid status filter '%s'. Use all, pending or completed.", input.Status)
	}

	owner := ownerFromContext(ctx)
	tasks, err := t.tasks.List(ctx, owner, status, repository.SortCreated)
	if err != nil {
		return errResult("Failed to list tasks: %v", err)
	}

	payload := make([]taskPayload, len(tasks))
	for i := range tasks {
		payload[i] = toTaskPayload(&tasks[i])
	}
	return marshalPayload(map[string]interface{}{
		"success": true,
		"tasks":   payload,
		"count":   len(payload),
		"message": fmt.Sprintf("Found %d task(s)", len(payload)),
	})
}

// =============================================================================
// set_task_status
// =============================================================================

type setTaskStatusTool struct {
	tasks    repository.TaskStore
	resolver *Resolver
	hook     MutationHook
}

type setTaskStatusInput struct {
	TaskID    string `json:"task_id"`
	Title     string `json:"title"`
	Completed *bool  `json:"completed"`
}

func (t *setTaskStatusTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	spec := &ToolSpec{
		Name:        "set_task_status",
		Description: "Mark a task as completed or not completed. You can identify the task by id or by title.",
		Parameters: map[string]ParamSpec{
			"task_id": {
				Type:        "string",
				Description: "The id of the task",
			},
			"title": {
				Type:        "string",
				Description: "The title (or partial title) of the task",
			},
			"completed": {
				Type:        "boolean",
				Description: "Set to true to mark as completed, false to mark as not completed",
				Required:    true,
			},
		},
	}
	return spec.toolInfo(), nil
}

func (t *setTaskStatusTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var input setTaskStatusInput
	if err := unmarshalArgs(argumentsInJSON, &input); err != nil {
		return errResult("set_task_status: %v", err)
	}
	if input.Completed == nil {
		return errResult("completed status is required (true or false)")
	}

	owner := ownerFromContext(ctx)
	task, err := t.resolver.Resolve(ctx, owner, input.TaskID, input.Title)
	if err != nil {
		return resolveErrResult(input.TaskID, input.Title, err)
	}

	updated, err := t.tasks.Update(ctx, owner, task.ID, repository.TaskUpdate{Completed: input.Completed})
	if err != nil {
		return errResult("Failed to update task: %v", err)
	}
	t.hook(ctx, owner, "toggle", updated.ID)

	statusText := "not completed"
	if updated.Completed {
		statusText = "completed"
	}
	return marshalPayload(map[string]interface{}{
		"success": true,
		"task":    toTaskPayload(updated),
		"message": fmt.Sprintf("Task '%s' marked as %s", updated.Title, statusText),
	})
}

// =============================================================================
// delete_task
// =============================================================================

type deleteTaskTool struct {
	tasks    repository.TaskStore
	resolver *Resolver
	hook     MutationHook
}

type deleteTaskInput struct {
	TaskID string `json:"task_id"`
	Title  string `json:"title"`
}

func (t *deleteTaskTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	spec := &ToolSpec{
		Name:        "delete_task",
		Description: "Delete a task from the todo list. You can identify the task by id or by title.",
		Parameters: map[string]ParamSpec{
			"task_id": {
				Type:        "string",
				Description: "The id of the task to delete",
			},
			"title": {
				Type:        "string",
				Description: "The title (or partial title) of the task to delete",
			},
		},
	}
	return spec.toolInfo(), nil
}

func (t *deleteTaskTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var input deleteTaskInput
	if err := unmarshalArgs(argumentsInJSON, &input); err != nil {
		return errResult("delete_task: %v", err)
	}

	owner := ownerFromContext(ctx)
	task, err := t.resolver.Resolve(ctx, owner, input.TaskID, input.Title)
	if err != nil {
		return resolveErrResult(input.TaskID, input.Title, err)
	}

	if err := t.tasks.Delete(ctx, owner, task.ID); err != nil {
		return errResult("Failed to delete task: %v", err)
	}
	t.hook(ctx, owner, "delete", task.ID)

	return marshalPayload(map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Task '%s' deleted successfully", task.Title),
	})
}

// =============================================================================
// update_task
// =============================================================================

type updateTaskTool struct {
	tasks    repository.TaskStore
	resolver *Resolver
	hook     MutationHook
}

type updateTaskInput struct {
	TaskID       string  `json:"task_id"`
	CurrentTitle string  `json:"current_title"`
	NewTitle     string  `json:"new_title"`
	Description  *string `json:"description"`
}

func (t *updateTaskTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	spec := &ToolSpec{
		Name:        "update_task",
		Description: "Update a task's title or description. You can identify the task by id or by current title.",
		Parameters: map[string]ParamSpec{
			"task_id": {
				Type:        "string",
				Description: "The id of the task to update",
			},
			"current_title": {
				Type:        "string",
				Description: "The current title (or partial title) of the task to update",
			},
			"new_title": {
				Type:        "string",
				Description: "New title for the task",
			},
			"description": {
				Type:        "string",
				Description: "New description for the task",
			},
		},
	}
	return spec.toolInfo(), nil
}

func (t *updateTaskTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var input updateTaskInput
	if err := unmarshalArgs(argumentsInJSON, &input); err != nil {
		return errResult("update_task: %v", err)
	}

	owner := ownerFromContext(ctx)
	task, err := t.resolver.Resolve(ctx, owner, input.TaskID, input.CurrentTitle)
	if err != nil {
		return resolveErrResult(input.TaskID, input.CurrentTitle, err)
	}

	var upd repository.TaskUpdate
	if newTitle := strings.TrimSpace(input.NewTitle); newTitle != "" {
		if len(newTitle) > maxTitleLength {
			return errResult("Task title must be %d characters or less", maxTitleLength)
		}
		upd.Title = &newTitle
	}
	upd.Description = input.Description

	updated, err := t.tasks.Update(ctx, owner, task.ID, upd)
	if err != nil {
		return errResult("Failed to update task: %v", err)
	}
	t.hook(ctx, owner, "update", updated.ID)

	return marshalPayload(map[string]interface{}{
		"success": true,
		"task":    toTaskPayload(updated),
		"message": fmt.Sprintf("Task '%s' updated successfully", updated.Title),
	})
}

var (
	_ tool.InvokableTool = (*createTaskTool)(nil)
	_ tool.InvokableTool = (*listTasksTool)(nil)
	_ tool.InvokableTool = (*setTaskStatusTool)(nil)
	_ tool.InvokableTool = (*deleteTaskTool)(nil)
	_ tool.InvokableTool = (*updateTaskTool)(nil)
)
