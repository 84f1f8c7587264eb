package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lc-2025/freenotes/internal/cookie"
	"github.com/lc-2025/freenotes/internal/domain"
	"github.com/lc-2025/freenotes/internal/service"
)

const (
	principalKey    = "principal"
	refreshTokenKey = "refreshToken"
)

// Auth gatekeeps protected routes. Routes wired without it are public;
// there is no runtime route metadata to consult.
type Auth struct {
	Service *service.AuthService
	Cookies *cookie.Policy
}

// RequireAccess ensures the request carries a valid bearer access token in
// the Authorization header and attaches the decoded principal. All
// verification failures collapse into one unauthorized response so the
// client cannot tell a bad signature from an expired token.
func (m *Auth) RequireAccess(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		abortUnauthorized(c)
		return
	}
	scheme, raw, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
		abortUnauthorized(c)
		return
	}

	principal, err := m.Service.ValidateAccess(c.Request.Context(), strings.TrimSpace(raw))
	if err != nil {
		abortUnauthorized(c)
		return
	}

	c.Set(principalKey, principal)
	c.Next()
}

// RequireRefreshCookie guards the refresh endpoint. The refresh token is
// accepted from its cookie only; a token smuggled in through the
// Authorization header is ignored. Full verification (signature, expiry,
// store liveness) happens inside the rotation protocol, which needs the
// raw value anyway.
func (m *Auth) RequireRefreshCookie(c *gin.Context) {
	raw := m.Cookies.Read(c)
	if raw == "" {
		abortUnauthorized(c)
		return
	}

	c.Set(refreshTokenKey, raw)
	c.Next()
}

// GetPrincipal exposes the authenticated identity to handlers.
func GetPrincipal(c *gin.Context) (domain.Principal, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return domain.Principal{}, false
	}
	principal, ok := value.(domain.Principal)
	return principal, ok
}

// GetRefreshToken returns the cookie-extracted refresh token for the
// refresh flow.
func GetRefreshToken(c *gin.Context) (string, bool) {
	value, ok := c.Get(refreshTokenKey)
	if !ok {
		return "", false
	}
	raw, ok := value.(string)
	return raw, ok
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":             domain.CodeUnauthorized,
		"error_description": "Wrong credentials or invalid token.",
	})
}
