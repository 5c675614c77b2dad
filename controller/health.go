package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	DB Pinger
}

// TestDB is the database connectivity probe.
func (h HealthController) TestDB(c *gin.Context) {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	if err := h.DB.Ping(c.Request.Context()); err != nil {
		logger.Errorf("[%s] database test failed, %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"message":   "Database connection failed",
			"timestamp": timestamp,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Database connection successful",
		"timestamp": timestamp,
	})
}
