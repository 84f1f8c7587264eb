// Package token signs and verifies the two token classes used by the
// session core: short-lived access tokens carried in the Authorization
// header and longer-lived refresh tokens carried in an HTTP-only cookie.
// The two classes are signed with distinct HS256 secrets so neither key
// can forge the other class.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"
	"github.com/google/uuid"

	"github.com/lc-2025/freenotes/internal/domain"
)

const minSecretLen = 32

// ErrInvalidToken is returned for any verification failure: bad signature,
// wrong secret class, expired, malformed. Callers must not distinguish
// these cases in responses.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload both token classes share. Email is populated on
// access tokens only; refresh tokens carry just the subject and a jti.
type Claims struct {
	Email string `json:"email,omitempty"`
}

// Issuer mints and verifies the access/refresh token pair.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	audience      string
}

// Config carries the key material and validity windows for an Issuer.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Audience      string
}

// NewIssuer validates the key material and returns an Issuer.
func NewIssuer(cfg Config) (*Issuer, error) {
	if len(cfg.AccessSecret) < minSecretLen || len(cfg.RefreshSecret) < minSecretLen {
		return nil, fmt.Errorf("token secrets must be at least %d bytes", minSecretLen)
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}

	return &Issuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		audience:      cfg.Audience,
	}, nil
}

// RefreshTTL exposes the refresh validity window; the rotation protocol uses
// it as the store TTL and the cookie max-age.
func (i *Issuer) RefreshTTL() time.Duration {
	return i.refreshTTL
}

// IssueAccess mints a signed access token for the user. Stateless: it is
// never persisted and proves itself by signature and expiry alone.
func (i *Issuer) IssueAccess(user domain.User) (string, error) {
	return i.sign(i.accessSecret, i.accessTTL, user.ID, Claims{Email: user.Email})
}

// IssueRefresh mints a signed refresh token for the user. The caller is
// responsible for persisting it in the token store; issuing has no side
// effects.
func (i *Issuer) IssueRefresh(user domain.User) (string, error) {
	return i.sign(i.refreshSecret, i.refreshTTL, user.ID, Claims{})
}

// VerifyAccess checks the signature, expiry, issuer, and audience of an
// access token and returns the principal encoded in it.
func (i *Issuer) VerifyAccess(raw string) (domain.Principal, error) {
	std, custom, err := i.verify(raw, i.accessSecret)
	if err != nil {
		return domain.Principal{}, err
	}
	userID, err := strconv.ParseInt(std.Subject, 10, 64)
	if err != nil {
		return domain.Principal{}, ErrInvalidToken
	}
	return domain.Principal{UserID: userID, Email: custom.Email}, nil
}

// VerifyRefresh checks a refresh token's signature and expiry and returns
// the subject user ID. Store liveness is the rotation protocol's concern;
// this only proves the token was minted here and has not expired.
func (i *Issuer) VerifyRefresh(raw string) (int64, error) {
	std, _, err := i.verify(raw, i.refreshSecret)
	if err != nil {
		return 0, err
	}
	userID, err := strconv.ParseInt(std.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return userID, nil
}

func (i *Issuer) sign(secret []byte, ttl time.Duration, userID int64, custom Claims) (string, error) {
	signer, err := gojose.NewSigner(
		gojose.SigningKey{Algorithm: gojose.HS256, Key: secret},
		(&gojose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("new signer: %w", err)
	}

	now := time.Now().UTC()
	std := gojwt.Claims{
		Subject:  strconv.FormatInt(userID, 10),
		Issuer:   i.issuer,
		Audience: gojwt.Audience{i.audience},
		ID:       uuid.NewString(),
		IssuedAt: gojwt.NewNumericDate(now),
		Expiry:   gojwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := gojwt.Signed(signer).Claims(std).Claims(custom).Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize jwt: %w", err)
	}
	return signed, nil
}

func (i *Issuer) verify(raw string, secret []byte) (*gojwt.Claims, *Claims, error) {
	parsed, err := gojwt.ParseSigned(raw, []gojose.SignatureAlgorithm{gojose.HS256})
	if err != nil {
		return nil, nil, ErrInvalidToken
	}

	var std gojwt.Claims
	var custom Claims
	if err := parsed.Claims(secret, &std, &custom); err != nil {
		return nil, nil, ErrInvalidToken
	}

	expected := gojwt.Expected{Issuer: i.issuer, Time: time.Now().UTC()}
	if i.audience != "" {
		expected.AnyAudience = gojwt.Audience{i.audience}
	}
	if err := std.Validate(expected); err != nil {
		return nil, nil, ErrInvalidToken
	}

	return &std, &custom, nil
}
