package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Status is the unauthenticated liveness probe
// GET /
func Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

// CheckAuth lets the admin front-end verify credentials; BasicAuth has
// already run when this is reached
// GET /auth
func CheckAuth(c *gin.Context) {
	c.Status(http.StatusOK)
}
