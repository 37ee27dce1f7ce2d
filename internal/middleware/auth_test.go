package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
	"storefront/internal/repositories/memory"
)

const testSecret = "jwt-test-secret"

func newRouter(t *testing.T) (*gin.Engine, *memory.UserRepository, models.User, models.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := memory.NewUserRepository()
	customer, err := users.Insert(context.Background(), models.User{Email: "jane@example.com", Name: "Jane", Role: models.RoleUser})
	require.NoError(t, err)
	admin, err := users.Insert(context.Background(), models.User{Email: "ops@example.com", Name: "Ops", Role: models.RoleAdmin})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", UserAuth(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": UserID(c)})
	})
	r.GET("/admin", AdminAuth(testSecret, users), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"email": user.Email})
	})
	return r, users, customer, admin
}

func signed(t *testing.T, user models.User, ttl time.Duration) string {
	t.Helper()
	token, err := IssueToken(user, testSecret, ttl)
	require.NoError(t, err)
	return token
}

func TestUserAuthAcceptsCookieAndBearer(t *testing.T) {
	r, _, customer, _ := newRouter(t)
	token := signed(t, customer, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), customer.ID.Hex())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserAuthRejectsMissingAndInvalidTokens(t *testing.T) {
	r, _, customer, _ := newRouter(t)

	cases := map[string]func(*http.Request){
		"missing":  func(*http.Request) {},
		"garbage":  func(req *http.Request) { req.Header.Set("Authorization", "Bearer not-a-jwt") },
		"expired":  func(req *http.Request) { req.AddCookie(&http.Cookie{Name: TokenCookie, Value: signed(t, customer, -time.Minute)}) },
		"bad form": func(req *http.Request) { req.Header.Set("Authorization", "Token abc") },
		"wrong key": func(req *http.Request) {
			token, err := IssueToken(customer, "other-secret", time.Hour)
			require.NoError(t, err)
			req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
		},
	}
	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"success":false,"message":"Not authenticated"}`, w.Body.String())
		})
	}
}

func TestAdminAuth(t *testing.T) {
	r, _, customer, admin := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: signed(t, admin, time.Hour)})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ops@example.com")

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: signed(t, customer, time.Hour)})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminAuthIgnoresRoleClaimForUnknownUser(t *testing.T) {
	r, _, _, _ := newRouter(t)

	ghost := models.User{Email: "ghost@example.com", Role: models.RoleAdmin}
	ghost.ID = [12]byte{1, 2, 3}

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: signed(t, ghost, time.Hour)})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
