package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskflow/internal/middleware"
	"taskflow/internal/models"
	"taskflow/internal/repository"
	"taskflow/pkg/logger"
)

type createTaskBody struct {
	Title       string `json:"title" binding:"required,min=1,max=200"`
	Description string `json:"description"`
}

type updateTaskBody struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// ListTasks returns the owner's tasks with optional filtering and sorting.
// Listings are served cache-first as raw JSON; concurrent misses for the same
// owner collapse into one database query.
func (ct *Controller) ListTasks(c *gin.Context) {
	ctx := c.Request.Context()
	owner := middleware.Owner(c)

	status := repository.StatusFilter(c.DefaultQuery("status", "all"))
	switch status {
	case repository.StatusAll, repository.StatusPending, repository.StatusCompleted:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}
	sort := repository.SortOrder(c.DefaultQuery("sort", "created"))
	switch sort {
	case repository.SortCreated, repository.SortTitle:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sort order"})
		return
	}

	if b, ok := ct.cache.GetTaskList(ctx, owner, string(status), string(sort)); ok {
		c.Data(http.StatusOK, "application/json", b)
		return
	}

	key := owner + ":" + string(status) + ":" + string(sort)
	v, err, _ := ct.listGroup.Do(key, func() (interface{}, error) {
		tasks, err := ct.tasks.List(ctx, owner, status, sort)
		if err != nil {
			return nil, err
		}
		if tasks == nil {
			tasks = []models.Task{} // encode as [] rather than null
		}
		return json.Marshal(tasks)
	})
	if err != nil {
		logger.Error(ctx, "List tasks failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tasks"})
		return
	}
	b := v.([]byte)
	c.Data(http.StatusOK, "application/json", b)
	ct.cache.SetTaskList(ctx, owner, string(status), string(sort), b)
}

// CreateTask creates a task for the owner.
func (ct *Controller) CreateTask(c *gin.Context) {
	ctx := c.Request.Context()
	owner := middleware.Owner(c)

	var body createTaskBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	task, err := ct.tasks.Create(ctx, owner, body.Title, body.Description)
	if err != nil {
		logger.Error(ctx, "Create task failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}
	ct.afterMutation(ctx, owner, "create", task.ID)
	c.JSON(http.StatusCreated, task)
}

// GetTask returns a single task by id.
func (ct *Controller) GetTask(c *gin.Context) {
	ctx := c.Request.Context()
	owner := middleware.Owner(c)

	task, err := ct.tasks.Get(ctx, owner, c.Param("task_id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	if err != nil {
		logger.Error(ctx, "Get task failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get task"})
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpdateTask applies a partial update to a task.
func (ct *Controller) UpdateTask(c *gin.Context) {
	ctx := c.Request.Context()
	owner := middleware.Owner(c)

	var body updateTaskBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	task, err := ct.tasks.Update(ctx, owner, c.Param("task_id"), repository.TaskUpdate{
		Title:       body.Title,
		Description: body.Description,
		Completed:   body.Completed,
	})
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	if err != nil {
		logger.Error(ctx, "Update task failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}
	ct.afterMutation(ctx, owner, "update", task.ID)
	c.JSON(http.StatusOK, task)
}

// DeleteTask removes a task permanently.
func (ct *Controller) DeleteTask(c *gin.Context) {
	ctx := c.Request.Context()
	owner := middleware.Owner(c)
	id := c.Param("task_id")

	err := ct.tasks.Delete(ctx, owner, id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	if err != nil {
		logger.Error(ctx, "Delete task failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}
	ct.afterMutation(ctx, owner, "delete", id)
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// ToggleComplete flips a task's completed flag.
func (ct *Controller) ToggleComplete(c *gin.Context) {
	ctx := c.Request.Context()
	owner := middleware.Owner(c)

	task, err := ct.tasks.ToggleCompleted(ctx, owner, c.Param("task_id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	if err != nil {
		logger.Error(ctx, "Toggle task failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle task"})
		return
	}
	ct.afterMutation(ctx, owner, "toggle", task.ID)
	c.JSON(http.StatusOK, task)
}
