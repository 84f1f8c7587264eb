package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lc-2025/freenotes/internal/domain"
)

// ErrNotFound is returned by repositories and the token store when the
// requested row or key does not exist.
var ErrNotFound = errors.New("not found")

// UserRepository exposes persistence for accounts. The auth service treats
// it as the user lookup collaborator: read and create only.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, userID int64) (domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
}

// NoteRepository exposes persistence for notes. Every query is scoped to
// the owning user.
type NoteRepository interface {
	List(ctx context.Context, userID int64) ([]domain.Note, error)
	Search(ctx context.Context, userID int64, query string) ([]domain.Note, error)
	GetByID(ctx context.Context, userID, noteID int64) (domain.Note, error)
	Create(ctx context.Context, note domain.Note) (domain.Note, error)
	Update(ctx context.Context, note domain.Note) (domain.Note, error)
	Delete(ctx context.Context, userID, noteID int64) error
	ListTags(ctx context.Context, userID int64) ([]string, error)
}

// TokenStore records live refresh tokens keyed by token value. Deleting a
// key revokes the token even before its signature expires. Get and Consume
// return ErrNotFound for absent keys; Delete on an absent key is a no-op
// success. Consume atomically reads and removes an entry, so under
// concurrent rotation of the same token at most one caller observes it.
type TokenStore interface {
	Get(ctx context.Context, token string) (string, error)
	Consume(ctx context.Context, token string) (string, error)
	Set(ctx context.Context, token, userID string, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}
