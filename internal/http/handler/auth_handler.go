package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lc-2025/freenotes/internal/cookie"
	"github.com/lc-2025/freenotes/internal/domain"
	"github.com/lc-2025/freenotes/internal/http/middleware"
	"github.com/lc-2025/freenotes/internal/service"
)

// AuthHandler exposes the session lifecycle over HTTP. The refresh token
// only ever leaves through the cookie policy; response bodies carry the
// access token alone.
type AuthHandler struct {
	Service *service.AuthService
	Cookies *cookie.Policy
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.ErrBadRequest("Invalid request body."))
		return
	}

	pair, err := h.Service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.Cookies.Set(c, pair.RefreshToken, h.Service.RefreshTTLSeconds())
	c.JSON(http.StatusOK, pair)
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.ErrBadRequest("Invalid request body."))
		return
	}

	pair, err := h.Service.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.Cookies.Set(c, pair.RefreshToken, h.Service.RefreshTTLSeconds())
	c.JSON(http.StatusCreated, pair)
}

// Refresh handles POST /auth/refresh. The middleware has already pulled
// the token from the cookie; rotation either succeeds and replaces the
// cookie, or fails and clears it so the browser stops replaying a dead
// token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	raw, ok := middleware.GetRefreshToken(c)
	if !ok {
		respondError(c, domain.ErrUnauthorized())
		return
	}

	pair, err := h.Service.Refresh(c.Request.Context(), raw)
	if err != nil {
		var authErr *domain.AuthError
		if errors.As(err, &authErr) && authErr.Status == http.StatusUnauthorized {
			h.Cookies.Clear(c)
		}
		respondError(c, err)
		return
	}

	h.Cookies.Set(c, pair.RefreshToken, h.Service.RefreshTTLSeconds())
	c.JSON(http.StatusOK, pair)
}

// Logout handles POST /auth/logout. Succeeds even without a cookie so the
// client can always converge to the logged-out state.
func (h *AuthHandler) Logout(c *gin.Context) {
	raw := h.Cookies.Read(c)
	if err := h.Service.Logout(c.Request.Context(), raw); err != nil {
		respondError(c, err)
		return
	}

	h.Cookies.Clear(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out."})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, domain.ErrUnauthorized())
		return
	}

	user, err := h.Service.GetUserInfo(c.Request.Context(), principal.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// respondError maps domain errors to the wire envelope. Anything that is
// not an AuthError is masked as a server error.
func respondError(c *gin.Context, err error) {
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		authErr = domain.ErrInternal()
	}
	c.AbortWithStatusJSON(authErr.Status, gin.H{
		"error":             authErr.Code,
		"error_description": authErr.Description,
	})
}
