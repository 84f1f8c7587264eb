package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lc-2025/freenotes/internal/domain"
	"github.com/lc-2025/freenotes/internal/password"
	"github.com/lc-2025/freenotes/internal/repository"
	"github.com/lc-2025/freenotes/internal/service"
	"github.com/lc-2025/freenotes/internal/token"
)

func newAuthService(t *testing.T, users *memoryUserRepo, store repository.TokenStore) *service.AuthService {
	t.Helper()
	issuer, err := token.NewIssuer(token.Config{
		AccessSecret:  "access-secret-0123456789-0123456789",
		RefreshSecret: "refresh-secret-0123456789-012345678",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		Issuer:        "freenotes",
		Audience:      "freenotes",
	})
	require.NoError(t, err)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return service.NewAuthService(users, store, issuer, node, zap.NewNop())
}

func seedUser(t *testing.T, email, plaintext string) (*memoryUserRepo, domain.User) {
	t.Helper()
	hash, err := password.Hash(plaintext)
	require.NoError(t, err)
	user := domain.User{ID: 10, Email: email, Name: "Test User", PasswordHash: hash}
	return &memoryUserRepo{users: map[int64]domain.User{user.ID: user}}, user
}

func TestLoginAndRefreshFlow(t *testing.T) {
	ctx := context.Background()
	users, _ := seedUser(t, "user@example.com", "password")
	store := newMemoryTokenStore()
	authService := newAuthService(t, users, store)

	pair, err := authService.Login(ctx, "user@example.com", "password")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	principal, err := authService.ValidateAccess(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, int64(10), principal.UserID)
	require.Equal(t, "user@example.com", principal.Email)

	rotated, err := authService.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
}

func TestRefreshReplayRejected(t *testing.T) {
	ctx := context.Background()
	users, _ := seedUser(t, "user@example.com", "password")
	store := newMemoryTokenStore()
	authService := newAuthService(t, users, store)

	pair, err := authService.Login(ctx, "user@example.com", "password")
	require.NoError(t, err)

	_, err = authService.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	// The first rotation consumed the token; replaying it must fail even
	// though the signature is still valid.
	_, err = authService.Refresh(ctx, pair.RefreshToken)
	requireUnauthorized(t, err)
}

func TestConcurrentRefreshHasSingleWinner(t *testing.T) {
	ctx := context.Background()
	users, _ := seedUser(t, "user@example.com", "password")
	store := &gatedTokenStore{memoryTokenStore: newMemoryTokenStore(), arrived: make(chan struct{}, 2), release: make(chan struct{})}
	authService := newAuthService(t, users, store)

	pair, err := authService.Login(ctx, "user@example.com", "password")
	require.NoError(t, err)

	// Hold both rotations at the consume point so each has already passed
	// signature verification while the entry is still live, then let them
	// race. Exactly one may win; the loser must fail closed.
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := authService.Refresh(ctx, pair.RefreshToken)
			results <- err
		}()
	}
	<-store.arrived
	<-store.arrived
	close(store.release)

	var failures int
	for i := 0; i < 2; i++ {
		if err := <-results; err != nil {
			requireUnauthorized(t, err)
			failures++
		}
	}
	require.Equal(t, 1, failures)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	users, _ := seedUser(t, "user@example.com", "password")
	authService := newAuthService(t, users, newMemoryTokenStore())

	_, errWrongPassword := authService.Login(ctx, "user@example.com", "not the password")
	_, errUnknownEmail := authService.Login(ctx, "nobody@example.com", "password")

	requireUnauthorized(t, errWrongPassword)
	requireUnauthorized(t, errUnknownEmail)
	require.Equal(t, errWrongPassword.Error(), errUnknownEmail.Error())
}

func TestLoginMissingFields(t *testing.T) {
	ctx := context.Background()
	users, _ := seedUser(t, "user@example.com", "password")
	authService := newAuthService(t, users, newMemoryTokenStore())

	for _, tc := range []struct{ email, password string }{
		{"", "password"},
		{"user@example.com", ""},
		{"", ""},
	} {
		_, err := authService.Login(ctx, tc.email, tc.password)
		var authErr *domain.AuthError
		require.ErrorAs(t, err, &authErr)
		require.Equal(t, domain.CodeBadRequest, authErr.Code)
	}
}

func TestLoginFailsClosedOnStoreError(t *testing.T) {
	ctx := context.Background()
	users, _ := seedUser(t, "user@example.com", "password")
	store := newMemoryTokenStore()
	store.failSet = true
	authService := newAuthService(t, users, store)

	_, err := authService.Login(ctx, "user@example.com", "password")
	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, domain.CodeInternal, authErr.Code)
	require.Empty(t, store.entries)
}

func TestRefreshStoreErrorFailsClosed(t *testing.T) {
	ctx := context.Background()
	users, _ := seedUser(t, "user@example.com", "password")
	store := newMemoryTokenStore()
	authService := newAuthService(t, users, store)

	pair, err := authService.Login(ctx, "user@example.com", "password")
	require.NoError(t, err)

	store.failConsume = true
	_, err = authService.Refresh(ctx, pair.RefreshToken)
	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, domain.CodeInternal, authErr.Code)
}

func TestRefreshRejectsForgedToken(t *testing.T) {
	ctx := context.Background()
	users, _ := seedUser(t, "user@example.com", "password")
	store := newMemoryTokenStore()
	authService := newAuthService(t, users, store)

	_, err := authService.Refresh(ctx, "")
	requireUnauthorized(t, err)

	_, err = authService.Refresh(ctx, "not-a-jwt")
	requireUnauthorized(t, err)
	// Signature failures never touch the store.
	require.Zero(t, store.consumes)
}

func TestRefreshRejectsAccessTokenAsRefresh(t *testing.T) {
	ctx := context.Background()
	users, _ := seedUser(t, "user@example.com", "password")
	authService := newAuthService(t, users, newMemoryTokenStore())

	pair, err := authService.Login(ctx, "user@example.com", "password")
	require.NoError(t, err)

	_, err = authService.Refresh(ctx, pair.AccessToken)
	requireUnauthorized(t, err)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	ctx := context.Background()
	users, _ := seedUser(t, "user@example.com", "password")
	store := newMemoryTokenStore()
	authService := newAuthService(t, users, store)

	pair, err := authService.Login(ctx, "user@example.com", "password")
	require.NoError(t, err)

	require.NoError(t, authService.Logout(ctx, pair.RefreshToken))
	_, err = authService.Refresh(ctx, pair.RefreshToken)
	requireUnauthorized(t, err)

	// Logout is idempotent and tolerates arbitrary values.
	require.NoError(t, authService.Logout(ctx, pair.RefreshToken))
	require.NoError(t, authService.Logout(ctx, ""))
	require.NoError(t, authService.Logout(ctx, "garbage"))
}

func TestRegisterNewAccount(t *testing.T) {
	ctx := context.Background()
	users := &memoryUserRepo{users: map[int64]domain.User{}}
	authService := newAuthService(t, users, newMemoryTokenStore())

	pair, err := authService.Register(ctx, "New@Example.COM", "New User", "password")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	// Email is normalized before storage.
	stored, err := users.GetByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	require.Equal(t, "New User", stored.Name)
	require.NotEqual(t, "password", stored.PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	users, _ := seedUser(t, "user@example.com", "password")
	authService := newAuthService(t, users, newMemoryTokenStore())

	_, err := authService.Register(ctx, "USER@example.com", "Dup", "password")
	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, domain.CodeConflict, authErr.Code)
}

func requireUnauthorized(t *testing.T, err error) {
	t.Helper()
	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, domain.CodeUnauthorized, authErr.Code)
}

type memoryUserRepo struct {
	mu    sync.Mutex
	users map[int64]domain.User
}

func (m *memoryUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return domain.User{}, repository.ErrNotFound
}

func (m *memoryUserRepo) GetByID(ctx context.Context, userID int64) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (m *memoryUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return user, nil
}

type memoryTokenStore struct {
	mu          sync.Mutex
	entries     map[string]string
	consumes    int
	failConsume bool
	failSet     bool
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{entries: map[string]string{}}
}

func (m *memoryTokenStore) Get(ctx context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.entries[token]
	if !ok {
		return "", repository.ErrNotFound
	}
	return value, nil
}

func (m *memoryTokenStore) Consume(ctx context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consumes++
	if m.failConsume {
		return "", errors.New("store unavailable")
	}
	value, ok := m.entries[token]
	if !ok {
		return "", repository.ErrNotFound
	}
	delete(m.entries, token)
	return value, nil
}

func (m *memoryTokenStore) Set(ctx context.Context, token, userID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("store unavailable")
	}
	m.entries[token] = userID
	return nil
}

func (m *memoryTokenStore) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, token)
	return nil
}

// gatedTokenStore parks every Consume caller until release is closed, so a
// test can line up concurrent rotations against a still-live entry.
type gatedTokenStore struct {
	*memoryTokenStore
	arrived chan struct{}
	release chan struct{}
}

func (g *gatedTokenStore) Consume(ctx context.Context, token string) (string, error) {
	g.arrived <- struct{}{}
	<-g.release
	return g.memoryTokenStore.Consume(ctx, token)
}
