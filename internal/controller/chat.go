package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskflow/internal/middleware"
	"taskflow/internal/repository"
	"taskflow/pkg/logger"
)

type chatBody struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message" binding:"required,max=4000"`
}

// Chat processes one chat turn for the owner. An explicit conversation id
// that does not belong to the owner yields 404; model failures never surface
// as errors here (the orchestrator degrades to its fallback reply).
func (ct *Controller) Chat(c *gin.Context) {
	ctx := c.Request.Context()
	owner := middleware.Owner(c)

	var body chatBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	message := strings.TrimSpace(body.Message)
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message cannot be empty or whitespace only"})
		return
	}

	result, err := ct.orch.ProcessTurn(ctx, owner, body.ConversationID, message)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}
	if err != nil {
		logger.Error(ctx, "Chat turn failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, result)
}
