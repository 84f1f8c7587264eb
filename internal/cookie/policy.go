// Package cookie decides how the refresh token crosses the wire. The
// refresh token always travels in an HTTP-only cookie so scripts cannot
// read it; the access token is returned in the response body and attached
// by the client as an Authorization header. Splitting the transports keeps
// the long-lived credential out of script-reachable storage and the
// short-lived one out of automatic browser transport.
package cookie

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RefreshPath is the only endpoint the refresh cookie is scoped to in
// production, narrowing the blast radius of a leaked cookie.
const RefreshPath = "/auth/refresh"

// Policy produces the refresh-cookie attributes for the current deployment
// environment.
type Policy struct {
	name       string
	domain     string
	production bool
}

// NewPolicy builds a policy. In production the cookie is Secure,
// SameSite=Strict, and path-scoped to the refresh endpoint; in development
// it stays on the root path over plain HTTP for local testing.
func NewPolicy(name, domain string, production bool) *Policy {
	return &Policy{name: name, domain: domain, production: production}
}

// Name returns the configured cookie name.
func (p *Policy) Name() string {
	return p.name
}

// Set writes the refresh cookie on the response. maxAge is the refresh
// token's validity window in seconds.
func (p *Policy) Set(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(p.sameSite())
	c.SetCookie(p.name, value, maxAge, p.path(), p.cookieDomain(), p.production, true)
}

// Clear expires the refresh cookie. Attributes must match Set's or the
// browser treats it as a different cookie and keeps the original.
func (p *Policy) Clear(c *gin.Context) {
	c.SetSameSite(p.sameSite())
	c.SetCookie(p.name, "", -1, p.path(), p.cookieDomain(), p.production, true)
}

// Read extracts the refresh token from the request cookie. Returns an
// empty string when absent.
func (p *Policy) Read(c *gin.Context) string {
	value, err := c.Cookie(p.name)
	if err != nil {
		return ""
	}
	return value
}

func (p *Policy) path() string {
	if p.production {
		return RefreshPath
	}
	return "/"
}

func (p *Policy) sameSite() http.SameSite {
	if p.production {
		return http.SameSiteStrictMode
	}
	return http.SameSiteLaxMode
}

func (p *Policy) cookieDomain() string {
	if p.production {
		return p.domain
	}
	return ""
}
