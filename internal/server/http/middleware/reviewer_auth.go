package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/plan2d/fulfillment/internal/domain/errors"
)

// ReviewerContextKey is a gin context key for the authenticated reviewer login.
const ReviewerContextKey = "reviewer"

// ReviewerAuthorizer checks reviewer credentials against the store.
type ReviewerAuthorizer interface {
	AuthorizeReviewer(ctx context.Context, login, apiKey string) error
}

// ReviewerAuth guards the admin surface with HTTP Basic credentials
// (reviewer login + API key). Every request re-checks the store; the engine
// keeps no session state.
func ReviewerAuth(authorizer ReviewerAuthorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		login, apiKey, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="fulfillment"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		if err := authorizer.AuthorizeReviewer(c.Request.Context(), login, apiKey); err != nil {
			if errors.Is(err, domainErrors.ErrUnauthorized) {
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		c.Set(ReviewerContextKey, login)
		c.Next()
	}
}
