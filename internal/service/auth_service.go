package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/lc-2025/freenotes/internal/domain"
	pw "github.com/lc-2025/freenotes/internal/password"
	"github.com/lc-2025/freenotes/internal/repository"
	"github.com/lc-2025/freenotes/internal/token"
)

// AuthService encapsulates the session lifecycle: credential validation,
// token issuance, rotation, and revocation. Tokens are persisted in the
// TokenStore keyed by token value; deleting the entry revokes the session.
type AuthService struct {
	users  repository.UserRepository
	store  repository.TokenStore
	issuer *token.Issuer
	node   *snowflake.Node
	logger *zap.Logger
	tracer trace.Tracer
}

// NewAuthService wires dependencies.
func NewAuthService(users repository.UserRepository, store repository.TokenStore, issuer *token.Issuer, node *snowflake.Node, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		store:  store,
		issuer: issuer,
		node:   node,
		logger: logger,
		tracer: otel.Tracer("github.com/lc-2025/freenotes/internal/service"),
	}
}

// Login authenticates the user with email and password and starts a new
// session. Any failed step aborts the whole login: a token pair whose
// refresh half never reached the store is not returned to the client.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.validateUser(ctx, email, password)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	pair, err := s.startSession(ctx, user)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.audit("login.success", "user_id", user.ID)
	return pair, nil
}

// Register creates an account and immediately logs it in.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (*TokenPair, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Register")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, domain.ErrBadRequest("Email and password are required.")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrConflict("An account with this email already exists.")
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.log().Error("register lookup user", zap.Error(err))
		span.RecordError(err)
		return nil, domain.ErrInternal()
	}

	hash, err := pw.Hash(password)
	if err != nil {
		s.log().Error("register hash password", zap.Error(err))
		span.RecordError(err)
		return nil, domain.ErrInternal()
	}

	user, err := s.users.Create(ctx, domain.User{
		ID:           s.node.Generate().Int64(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
	})
	if err != nil {
		s.log().Error("register create user", zap.Error(err))
		span.RecordError(err)
		return nil, domain.ErrInternal()
	}

	pair, err := s.startSession(ctx, user)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.audit("register.success", "user_id", user.ID)
	return pair, nil
}

// Refresh rotates the session. The presented token must verify under the
// refresh secret, be unexpired, and still be live in the store. The store
// entry is consumed atomically before the new one is written: when two
// rotations race on the same token only one can win, and a replayed old
// token can never be accepted twice. Any failure after the consume forces
// a re-login, never a replay.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*TokenPair, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Refresh")
	defer span.End()

	if rawToken == "" {
		return nil, domain.ErrUnauthorized()
	}

	subject, err := s.issuer.VerifyRefresh(rawToken)
	if err != nil {
		// Signature or expiry failure: do not touch the store.
		s.log().Warn("refresh token rejected", zap.Error(err))
		return nil, domain.ErrUnauthorized()
	}

	stored, err := s.store.Consume(ctx, rawToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Already rotated or revoked; a replayed token lands here.
			s.audit("refresh.replay_rejected", "user_id", subject)
			return nil, domain.ErrUnauthorized()
		}
		s.log().Error("refresh consume store entry", zap.Error(err))
		span.RecordError(err)
		return nil, domain.ErrInternal()
	}

	userID, err := strconv.ParseInt(stored, 10, 64)
	if err != nil || userID != subject {
		s.log().Warn("refresh subject mismatch", zap.Int64("subject", subject))
		return nil, domain.ErrUnauthorized()
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUnauthorized()
		}
		s.log().Error("refresh load user", zap.Error(err))
		span.RecordError(err)
		return nil, domain.ErrInternal()
	}

	pair, err := s.startSession(ctx, user)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.audit("refresh.success", "user_id", user.ID)
	return pair, nil
}

// Logout revokes the presented refresh token. No signature check is
// performed: a client may always request deletion of its own cookie value,
// and deleting an absent key is harmless.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	ctx, span := s.startSpan(ctx, "AuthService.Logout")
	defer span.End()

	if rawToken == "" {
		return nil
	}
	if err := s.store.Delete(ctx, rawToken); err != nil {
		s.log().Error("logout delete token", zap.Error(err))
		span.RecordError(err)
		return domain.ErrInternal()
	}

	s.audit("logout")
	return nil
}

// ValidateAccess verifies a bearer access token and returns the principal
// encoded in it. Stateless by design: possession, signature, and expiry
// are sufficient proof.
func (s *AuthService) ValidateAccess(ctx context.Context, rawToken string) (domain.Principal, error) {
	principal, err := s.issuer.VerifyAccess(rawToken)
	if err != nil {
		return domain.Principal{}, domain.ErrUnauthorized()
	}
	return principal, nil
}

// GetUserInfo returns the sanitized profile for an authenticated user.
func (s *AuthService) GetUserInfo(ctx context.Context, userID int64) (*UserViewModel, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUnauthorized()
		}
		s.log().Error("load user info", zap.Error(err))
		return nil, domain.ErrInternal()
	}
	return &UserViewModel{ID: user.ID, Email: user.Email, Name: user.Name}, nil
}

// RefreshTTLSeconds is the refresh validity window as a cookie max-age.
func (s *AuthService) RefreshTTLSeconds() int {
	return int(s.issuer.RefreshTTL().Seconds())
}

// validateUser checks the credentials against the stored hash and returns
// the account. Lookup misses and hash mismatches are indistinguishable to
// the caller.
func (s *AuthService) validateUser(ctx context.Context, email, password string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return domain.User{}, domain.ErrBadRequest("Email and password are required.")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, domain.ErrUnauthorized()
		}
		s.log().Error("login lookup user", zap.Error(err))
		return domain.User{}, domain.ErrInternal()
	}

	ok, err := pw.Verify(password, user.PasswordHash)
	if err != nil || !ok {
		return domain.User{}, domain.ErrUnauthorized()
	}

	return user, nil
}

// startSession issues a fresh pair and persists the refresh half with a
// TTL matching its validity window.
func (s *AuthService) startSession(ctx context.Context, user domain.User) (*TokenPair, error) {
	access, err := s.issuer.IssueAccess(user)
	if err != nil {
		s.log().Error("issue access token", zap.Error(err))
		return nil, domain.ErrInternal()
	}
	refresh, err := s.issuer.IssueRefresh(user)
	if err != nil {
		s.log().Error("issue refresh token", zap.Error(err))
		return nil, domain.ErrInternal()
	}

	if err := s.store.Set(ctx, refresh, strconv.FormatInt(user.ID, 10), s.issuer.RefreshTTL()); err != nil {
		// Fail closed: a session the client cannot refresh later is not a session.
		s.log().Error("persist refresh token", zap.Error(err))
		return nil, domain.ErrInternal()
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s == nil || s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}

func (s *AuthService) audit(event string, attrs ...any) {
	logger := s.log()
	if logger == nil {
		return
	}
	fields := make([]zap.Field, 0, len(attrs)/2+1)
	fields = append(fields, zap.String("event", event))
	for i := 0; i+1 < len(attrs); i += 2 {
		key, ok := attrs[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, attrs[i+1]))
	}
	logger.Info("audit", fields...)
}

func (s *AuthService) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}
