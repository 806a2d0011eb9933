package server

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	RoleHeader    = "X-Role"
	RoleRecruiter = "recruiter"
)

// CheckRole rejects requests whose X-Role header is not one of roles.
func CheckRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slices.Contains(roles, c.GetHeader(RoleHeader)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "role doesn't have permission to access",
			})
			return
		}
		c.Next()
	}
}

func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}
