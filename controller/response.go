package controller

import (
	"errors"
	"net/http"

	"enviroagent/platform"
	"enviroagent/service"

	"github.com/gin-gonic/gin"
)

var logger = platform.Logger

// respondError maps service errors onto {"error": ...} bodies. Unknown errors are
// logged and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	if msg, ok := service.IsValidation(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	switch {
	case errors.Is(err, service.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, service.ErrConversationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
	case errors.Is(err, service.ErrGoalNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Goal not found"})
	case errors.Is(err, service.ErrNoConversation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No conversation selected"})
	case errors.Is(err, service.ErrReplyPending):
		c.JSON(http.StatusConflict, gin.H{"error": "A reply is already in progress"})
	case errors.Is(err, service.ErrResetEmailFailed):
		logger.Errorf("[%s] %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send reset email"})
	default:
		logger.Errorf("[%s] %s %s failed, %s", c.GetString("requestId"), c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// bindJSON decodes the body; a malformed body is a 400.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		logger.Warnf("[%s] Invalid input, %s", c.GetString("requestId"), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return false
	}
	return true
}
