package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// Root returns the static health string.
func Root(c *gin.Context) {
	c.String(http.StatusOK, "Hello, World!")
}

// HealthCheck returns server health status
func HealthCheck(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": service,
			"uptime":  time.Since(startTime).String(),
		})
	}
}
