package token_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lc-2025/freenotes/internal/domain"
	"github.com/lc-2025/freenotes/internal/token"
)

const (
	testAccessSecret  = "access-secret-0123456789-0123456789"
	testRefreshSecret = "refresh-secret-0123456789-012345678"
)

func newIssuer(t *testing.T, accessTTL, refreshTTL time.Duration) *token.Issuer {
	t.Helper()
	issuer, err := token.NewIssuer(token.Config{
		AccessSecret:  testAccessSecret,
		RefreshSecret: testRefreshSecret,
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		Issuer:        "freenotes",
		Audience:      "freenotes",
	})
	require.NoError(t, err)
	return issuer
}

func TestAccessTokenRoundTrip(t *testing.T) {
	issuer := newIssuer(t, time.Minute, time.Hour)
	user := domain.User{ID: 42, Email: "user@example.com"}

	raw, err := issuer.IssueAccess(user)
	require.NoError(t, err)
	require.Equal(t, 3, len(strings.Split(raw, ".")))

	principal, err := issuer.VerifyAccess(raw)
	require.NoError(t, err)
	require.Equal(t, int64(42), principal.UserID)
	require.Equal(t, "user@example.com", principal.Email)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	issuer := newIssuer(t, time.Minute, time.Hour)

	raw, err := issuer.IssueRefresh(domain.User{ID: 42, Email: "user@example.com"})
	require.NoError(t, err)

	subject, err := issuer.VerifyRefresh(raw)
	require.NoError(t, err)
	require.Equal(t, int64(42), subject)
}

func TestTokenClassesAreNotInterchangeable(t *testing.T) {
	issuer := newIssuer(t, time.Minute, time.Hour)
	user := domain.User{ID: 42, Email: "user@example.com"}

	access, err := issuer.IssueAccess(user)
	require.NoError(t, err)
	refresh, err := issuer.IssueRefresh(user)
	require.NoError(t, err)

	_, err = issuer.VerifyAccess(refresh)
	require.ErrorIs(t, err, token.ErrInvalidToken)

	_, err = issuer.VerifyRefresh(access)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestExpiredTokenRejected(t *testing.T) {
	issuer := newIssuer(t, time.Nanosecond, time.Hour)

	raw, err := issuer.IssueAccess(domain.User{ID: 42})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = issuer.VerifyAccess(raw)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestGarbageTokenRejected(t *testing.T) {
	issuer := newIssuer(t, time.Minute, time.Hour)

	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := issuer.VerifyAccess(raw)
		require.ErrorIs(t, err, token.ErrInvalidToken)
	}
}

func TestNewIssuerRejectsWeakConfig(t *testing.T) {
	_, err := token.NewIssuer(token.Config{
		AccessSecret:  "short",
		RefreshSecret: testRefreshSecret,
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	require.Error(t, err)

	_, err = token.NewIssuer(token.Config{
		AccessSecret:  testAccessSecret,
		RefreshSecret: testAccessSecret,
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	require.Error(t, err)
}
