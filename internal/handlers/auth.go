package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/observability"
	"storefront/internal/repositories"
)

// Accounts is the user storage the auth handlers need.
type Accounts interface {
	Insert(ctx context.Context, user models.User) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// SessionConfig controls the session cookie.
type SessionConfig struct {
	Secret string
	TTL    time.Duration
	Secure bool
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type sessionUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func toSessionUser(user models.User) sessionUser {
	return sessionUser{ID: user.ID.Hex(), Name: user.Name, Email: user.Email, Role: user.Role}
}

func setSessionCookie(c *gin.Context, token string, session SessionConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, int(session.TTL.Seconds()), "/", "", session.Secure, true)
}

func Register(users Accounts, session SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/register"
		defer handlePanic(c, route)

		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		name := strings.TrimSpace(req.Name)
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if name == "" || strings.TrimSpace(req.Password) == "" {
			respondWithError(c, http.StatusBadRequest, route, "name, email and password are required")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "password hash failed")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		now := time.Now()
		user, err := users.Insert(ctx, models.User{
			Email:        email,
			PasswordHash: string(hash),
			Name:         name,
			Role:         models.RoleUser,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if errors.Is(err, repositories.ErrDuplicate) {
			respondWithError(c, http.StatusConflict, route, "Email already registered")
			return
		}
		if err != nil {
			observability.FromContext(ctx).Error("user insert failed", zap.Error(err))
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		token, err := middleware.IssueToken(user, session.Secret, session.TTL)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}
		setSessionCookie(c, token, session)

		observability.FromContext(ctx).Info("user registered", zap.String("user_id", user.ID.Hex()))
		respondSuccess(c, http.StatusCreated, "User registered successfully", toSessionUser(user))
	}
}

// authenticateCredentials returns the user for a valid email and password pair.
func authenticateCredentials(ctx context.Context, users Accounts, req LoginRequest) (models.User, error) {
	user, err := users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return models.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func Login(users Accounts, session SessionConfig) gin.HandlerFunc {
	return loginHandler("POST /api/auth/login", users, session, false)
}

func loginHandler(route string, users Accounts, session SessionConfig, adminOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, err := authenticateCredentials(ctx, users, req)
		if errors.Is(err, repositories.ErrNotFound) {
			respondWithError(c, http.StatusUnauthorized, route, "Invalid credentials")
			return
		}
		if err != nil {
			observability.FromContext(ctx).Error("credential lookup failed", zap.Error(err))
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if adminOnly && !user.IsAdmin() {
			respondWithError(c, http.StatusForbidden, route, "Not authorized")
			return
		}

		token, err := middleware.IssueToken(user, session.Secret, session.TTL)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}
		setSessionCookie(c, token, session)

		observability.FromContext(ctx).Info("login succeeded", zap.String("user_id", user.ID.Hex()))
		respondSuccess(c, http.StatusOK, "Logged in", toSessionUser(user))
	}
}

func Logout(session SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middleware.TokenCookie, "", -1, "/", "", session.Secure, true)
		respondSuccess(c, http.StatusOK, "Logged out", nil)
	}
}

func GetMe(users Accounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/auth/me"
		defer handlePanic(c, route)

		user, err := users.FindByID(c.Request.Context(), middleware.UserID(c))
		if errors.Is(err, repositories.ErrNotFound) {
			respondWithError(c, http.StatusUnauthorized, route, "Not authenticated")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		respondSuccess(c, http.StatusOK, "", toSessionUser(user))
	}
}
