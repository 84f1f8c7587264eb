package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/lc-2025/freenotes/internal/cookie"
)

func recordCookie(t *testing.T, policy *cookie.Policy, write func(*gin.Context)) *http.Cookie {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	write(c)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestProductionCookieAttributes(t *testing.T) {
	policy := cookie.NewPolicy("refresh_token", "notes.example.com", true)

	got := recordCookie(t, policy, func(c *gin.Context) {
		policy.Set(c, "token-value", 3600)
	})

	require.Equal(t, "refresh_token", got.Name)
	require.Equal(t, "token-value", got.Value)
	require.True(t, got.HttpOnly)
	require.True(t, got.Secure)
	require.Equal(t, http.SameSiteStrictMode, got.SameSite)
	require.Equal(t, cookie.RefreshPath, got.Path)
	require.Equal(t, "notes.example.com", got.Domain)
	require.Equal(t, 3600, got.MaxAge)
}

func TestDevelopmentCookieAttributes(t *testing.T) {
	policy := cookie.NewPolicy("refresh_token", "notes.example.com", false)

	got := recordCookie(t, policy, func(c *gin.Context) {
		policy.Set(c, "token-value", 3600)
	})

	require.True(t, got.HttpOnly)
	require.False(t, got.Secure)
	require.Equal(t, http.SameSiteLaxMode, got.SameSite)
	require.Equal(t, "/", got.Path)
	require.Empty(t, got.Domain)
}

func TestClearMatchesSetAttributes(t *testing.T) {
	policy := cookie.NewPolicy("refresh_token", "notes.example.com", true)

	got := recordCookie(t, policy, func(c *gin.Context) {
		policy.Clear(c)
	})

	require.Empty(t, got.Value)
	require.Equal(t, -1, got.MaxAge)
	require.Equal(t, cookie.RefreshPath, got.Path)
	require.True(t, got.HttpOnly)
	require.True(t, got.Secure)
}

func TestReadMissingCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	policy := cookie.NewPolicy("refresh_token", "", false)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	require.Empty(t, policy.Read(c))

	c.Request.AddCookie(&http.Cookie{Name: "refresh_token", Value: "token-value"})
	require.Equal(t, "token-value", policy.Read(c))
}
