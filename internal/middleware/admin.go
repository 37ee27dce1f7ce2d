package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/observability"
	"storefront/internal/repositories"
)

const currentUserKey = "currentUser"

// UserLookup loads the account behind a session.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// AdminAuth authenticates the session like UserAuth and then loads the user to
// confirm the admin role. The role in the token is not trusted on its own.
func AdminAuth(secret string, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, secret) {
			return
		}

		logger := observability.FromContext(c.Request.Context())
		user, err := users.FindByID(c.Request.Context(), UserID(c))
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			logger.Info("session user no longer exists", zap.String("user_id", UserID(c)))
			abort(c, http.StatusUnauthorized, "Not authenticated")
			return
		case err != nil:
			logger.Error("admin lookup failed", zap.Error(err))
			abort(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		if !user.IsAdmin() {
			logger.Warn("admin route denied", zap.String("user_id", user.ID.Hex()))
			abort(c, http.StatusForbidden, "Not authorized")
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user loaded by AdminAuth.
func CurrentUser(c *gin.Context) (models.User, bool) {
	value, ok := c.Get(currentUserKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := value.(models.User)
	return user, ok
}
