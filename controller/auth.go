package controller

import (
	"net/http"

	"enviroagent/service"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// AuthController ...
type AuthController struct {
	Users    *service.UserService
	Sessions *service.SessionService
	Surfaces *service.SurfaceRegistry
}

// TokenAuthMiddleware resolves the session and stores it on the context, or aborts with 401.
func (a AuthController) TokenAuthMiddleware(c *gin.Context) {
	session, err := a.Sessions.Session(c.Request.Context(), c.Request)
	if err != nil {
		respondError(c, err)
		c.Abort()
		return
	}
	c.Set(sessionKey, session)
	c.Set("UserId", session.User.ID)
}

func currentSession(c *gin.Context) *service.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	session, _ := v.(*service.Session)
	return session
}

func (a AuthController) Signin(c *gin.Context) {
	logger.Infof("[%s] Handling user signin request", c.GetString("requestId"))

	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &input) {
		return
	}

	user, err := a.Users.Authenticate(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		logger.Warnf("[%s] signin failed for %s: %s", c.GetString("requestId"), input.Email, err)
		respondError(c, err)
		return
	}

	td, err := a.Sessions.Issue(user)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Infof("[%s] User %d signed in", c.GetString("requestId"), user.ID)
	c.JSON(http.StatusOK, gin.H{"token": td.AccessToken, "expiresAt": td.AtExpires, "user": user})
}

// Session ...
func (a AuthController) Session(c *gin.Context) {
	session := currentSession(c)
	c.JSON(http.StatusOK, gin.H{"user": session.User, "expiresAt": session.Access.ExpiresAt})
}

func (a AuthController) Signout(c *gin.Context) {
	session := currentSession(c)
	if err := a.Sessions.SignOut(c.Request.Context(), session); err != nil {
		respondError(c, err)
		return
	}
	a.Surfaces.Close(session.User.ID)

	logger.Infof("[%s] User %d signed out", c.GetString("requestId"), session.User.ID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Refresh ...
func (a AuthController) Refresh(c *gin.Context) {
	session := currentSession(c)
	td, err := a.Sessions.Refresh(c.Request.Context(), session)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": td.AccessToken, "expiresAt": td.AtExpires})
}
