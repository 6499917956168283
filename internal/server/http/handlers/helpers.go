package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/plan2d/fulfillment/internal/server/http/middleware"
)

// CurrentReviewer extracts the authenticated reviewer login from context.
func CurrentReviewer(c *gin.Context) string {
	val, ok := c.Get(middleware.ReviewerContextKey)
	if !ok {
		return ""
	}
	login, _ := val.(string)
	return login
}
