package controller

import (
	"net/http"

	"enviroagent/service"

	"github.com/gin-gonic/gin"
)

type ContactController struct {
	Contacts *service.ContactService
}

func (ctrl ContactController) Submit(c *gin.Context) {
	var input service.ContactInput
	if !bindJSON(c, &input) {
		return
	}

	contact, err := ctrl.Contacts.Submit(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Infof("[%s] Contact %d submitted", c.GetString("requestId"), contact.ID)
	c.JSON(http.StatusCreated, gin.H{"message": "Contact form submitted successfully", "contact": contact})
}
