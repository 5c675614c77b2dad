package controller

import (
	"net/http"

	"enviroagent/service"

	"github.com/gin-gonic/gin"
)

type NewsletterController struct {
	Newsletter *service.NewsletterService
}

func (ctrl NewsletterController) Subscribe(c *gin.Context) {
	var input struct {
		Email string `json:"email"`
	}
	if !bindJSON(c, &input) {
		return
	}

	subscription, err := ctrl.Newsletter.Subscribe(c.Request.Context(), input.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Infof("[%s] Newsletter subscription %d created", c.GetString("requestId"), subscription.ID)
	c.JSON(http.StatusCreated, gin.H{"message": "Successfully subscribed to newsletter", "subscription": subscription})
}
