package controller

import (
	"net/http"

	"enviroagent/service"

	"github.com/gin-gonic/gin"
)

// UserController ...
type UserController struct {
	Users  *service.UserService
	Resets *service.PasswordResetService
}

func (ctrl UserController) Signup(c *gin.Context) {
	logger.Infof("[%s] Handling user signup request", c.GetString("requestId"))

	var input service.SignupInput
	if !bindJSON(c, &input) {
		return
	}

	user, err := ctrl.Users.Signup(c.Request.Context(), input)
	if err != nil {
		logger.Warnf("[%s] Failed to sign up %s: %s", c.GetString("requestId"), input.Email, err)
		respondError(c, err)
		return
	}

	logger.Infof("[%s] User %d signed up successfully", c.GetString("requestId"), user.ID)
	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    gin.H{"id": user.ID, "name": user.Name, "email": user.Email},
	})
}

// RequestPasswordReset answers the same way whether or not the account exists.
func (ctrl UserController) RequestPasswordReset(c *gin.Context) {
	logger.Infof("[%s] Handling password reset request", c.GetString("requestId"))

	var input struct {
		Email string `json:"email"`
	}
	if !bindJSON(c, &input) {
		return
	}

	if err := ctrl.Resets.RequestReset(c.Request.Context(), input.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": service.ResetRequestedMessage})
}

func (ctrl UserController) ConfirmPasswordReset(c *gin.Context) {
	logger.Infof("[%s] Handling password reset confirmation", c.GetString("requestId"))

	var input struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &input) {
		return
	}

	if err := ctrl.Resets.ResetPassword(c.Request.Context(), input.Token, input.Password); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}
