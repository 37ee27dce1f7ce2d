package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/observability"
)

const (
	// TokenCookie carries the session JWT.
	TokenCookie = "token"

	userIDKey = "userId"
	roleKey   = "role"
)

var errInvalidToken = errors.New("invalid token")

type sessionClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs a session token for user valid for ttl.
func IssueToken(user models.User, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		UserID: user.ID.Hex(),
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func parseToken(raw, secret string) (sessionClaims, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return sessionClaims{}, err
	}
	if !token.Valid || strings.TrimSpace(claims.UserID) == "" {
		return sessionClaims{}, errInvalidToken
	}
	return claims, nil
}

// tokenFromRequest prefers the session cookie and falls back to a bearer header.
func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(TokenCookie); err == nil && strings.TrimSpace(cookie) != "" {
		return strings.TrimSpace(cookie)
	}
	raw := strings.TrimSpace(c.GetHeader("Authorization"))
	parts := strings.Fields(raw)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// UserAuth validates the session token and injects the user id and role into
// the gin context.
func UserAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, secret) {
			return
		}
		c.Next()
	}
}

// authenticate aborts the request and reports false when no valid session is present.
func authenticate(c *gin.Context, secret string) bool {
	logger := observability.FromContext(c.Request.Context())

	raw := tokenFromRequest(c)
	if raw == "" {
		logger.Debug("missing session token")
		abort(c, http.StatusUnauthorized, "Not authenticated")
		return false
	}

	claims, err := parseToken(raw, secret)
	if err != nil {
		logger.Info("session token rejected", zap.Error(err))
		abort(c, http.StatusUnauthorized, "Not authenticated")
		return false
	}

	c.Set(userIDKey, claims.UserID)
	c.Set(roleKey, claims.Role)
	return true
}

// UserID returns the authenticated user id set by UserAuth.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
