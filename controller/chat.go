package controller

import (
	"net/http"
	"strconv"

	"enviroagent/service"

	"github.com/gin-gonic/gin"
)

// ChatController serves the chat dashboard. Every handler runs behind TokenAuthMiddleware.
type ChatController struct {
	Chat     *service.ChatService
	Surfaces *service.SurfaceRegistry
}

func conversationID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return 0, false
	}
	return uint(id), true
}

func (ch ChatController) surface(c *gin.Context) (*service.Surface, uint) {
	userID := currentSession(c).User.ID
	return ch.Surfaces.Get(userID), userID
}

func (ch ChatController) State(c *gin.Context) {
	surface, _ := ch.surface(c)
	c.JSON(http.StatusOK, surface.Snapshot())
}

func (ch ChatController) ListConversations(c *gin.Context) {
	_, userID := ch.surface(c)
	conversations, err := ch.Chat.ListConversations(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

func (ch ChatController) CreateConversation(c *gin.Context) {
	var input struct {
		Title string `json:"title"`
	}
	// the body is optional
	if c.Request.ContentLength > 0 && !bindJSON(c, &input) {
		return
	}

	surface, userID := ch.surface(c)
	conversation, err := surface.NewConversation(c.Request.Context(), input.Title)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Infof("[%s] User %d created conversation %d", c.GetString("requestId"), userID, conversation.ID)
	c.JSON(http.StatusCreated, gin.H{"conversation": conversation, "state": surface.Snapshot()})
}

func (ch ChatController) SelectConversation(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}
	surface, _ := ch.surface(c)
	if err := surface.Select(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": surface.Snapshot()})
}

func (ch ChatController) Messages(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}
	_, userID := ch.surface(c)
	messages, err := ch.Chat.Messages(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": service.RenderMessages(messages)})
}

func (ch ChatController) Goal(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}
	_, userID := ch.surface(c)
	goal, err := ch.Chat.Goal(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

// SendMessage selects the conversation, stores the user message and answers 202
// while the reply is produced in the background.
func (ch ChatController) SendMessage(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}
	var input struct {
		Content string `json:"content"`
	}
	if !bindJSON(c, &input) {
		return
	}

	surface, userID := ch.surface(c)
	if err := surface.Select(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	message, err := surface.Send(c.Request.Context(), input.Content)
	if err != nil {
		logger.Warnf("[%s] User %d failed to send to conversation %d: %s", c.GetString("requestId"), userID, id, err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": message, "state": surface.Snapshot()})
}

func (ch ChatController) DeleteConversation(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}
	surface, userID := ch.surface(c)
	if err := surface.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	logger.Infof("[%s] User %d deleted conversation %d", c.GetString("requestId"), userID, id)
	c.JSON(http.StatusOK, gin.H{"success": true, "state": surface.Snapshot()})
}
