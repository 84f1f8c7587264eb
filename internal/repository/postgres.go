package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lc-2025/freenotes/internal/domain"
)

// Compile-time interface assertions.
var (
	_ UserRepository = (*PostgresUserRepo)(nil)
	_ NoteRepository = (*PostgresNoteRepo)(nil)
)

// PostgresUserRepo implements UserRepository on pgx.
type PostgresUserRepo struct {
	db *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{db: pool}
}

const selectUserByEmailSQL = `SELECT id, email, name, password_hash, created_at, updated_at
FROM users WHERE lower(email) = lower($1)`

func (r *PostgresUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.scanUser(r.db.QueryRow(ctx, selectUserByEmailSQL, email))
}

const selectUserByIDSQL = `SELECT id, email, name, password_hash, created_at, updated_at
FROM users WHERE id = $1`

func (r *PostgresUserRepo) GetByID(ctx context.Context, userID int64) (domain.User, error) {
	return r.scanUser(r.db.QueryRow(ctx, selectUserByIDSQL, userID))
}

const insertUserSQL = `INSERT INTO users (id, email, name, password_hash)
VALUES ($1, $2, $3, $4)
RETURNING id, email, name, password_hash, created_at, updated_at`

func (r *PostgresUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	return r.scanUser(r.db.QueryRow(ctx, insertUserSQL, user.ID, user.Email, user.Name, user.PasswordHash))
}

func (r *PostgresUserRepo) scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// PostgresNoteRepo implements NoteRepository on pgx.
type PostgresNoteRepo struct {
	db *pgxpool.Pool
}

func NewPostgresNoteRepo(pool *pgxpool.Pool) *PostgresNoteRepo {
	return &PostgresNoteRepo{db: pool}
}

const selectNotesSQL = `SELECT id, user_id, title, content, tags, created_at, updated_at
FROM notes WHERE user_id = $1 ORDER BY updated_at DESC`

func (r *PostgresNoteRepo) List(ctx context.Context, userID int64) ([]domain.Note, error) {
	rows, err := r.db.Query(ctx, selectNotesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}

const searchNotesSQL = `SELECT id, user_id, title, content, tags, created_at, updated_at
FROM notes
WHERE user_id = $1 AND (title ILIKE '%' || $2 || '%' OR $2 = ANY(tags))
ORDER BY updated_at DESC`

func (r *PostgresNoteRepo) Search(ctx context.Context, userID int64, query string) ([]domain.Note, error) {
	rows, err := r.db.Query(ctx, searchNotesSQL, userID, query)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}

const selectNoteSQL = `SELECT id, user_id, title, content, tags, created_at, updated_at
FROM notes WHERE user_id = $1 AND id = $2`

func (r *PostgresNoteRepo) GetByID(ctx context.Context, userID, noteID int64) (domain.Note, error) {
	return scanNote(r.db.QueryRow(ctx, selectNoteSQL, userID, noteID))
}

const insertNoteSQL = `INSERT INTO notes (id, user_id, title, content, tags)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, title, content, tags, created_at, updated_at`

func (r *PostgresNoteRepo) Create(ctx context.Context, note domain.Note) (domain.Note, error) {
	return scanNote(r.db.QueryRow(ctx, insertNoteSQL, note.ID, note.UserID, note.Title, note.Content, note.Tags))
}

const updateNoteSQL = `UPDATE notes
SET title = $3, content = $4, tags = $5, updated_at = now()
WHERE user_id = $1 AND id = $2
RETURNING id, user_id, title, content, tags, created_at, updated_at`

func (r *PostgresNoteRepo) Update(ctx context.Context, note domain.Note) (domain.Note, error) {
	return scanNote(r.db.QueryRow(ctx, updateNoteSQL, note.UserID, note.ID, note.Title, note.Content, note.Tags))
}

const deleteNoteSQL = `DELETE FROM notes WHERE user_id = $1 AND id = $2`

func (r *PostgresNoteRepo) Delete(ctx context.Context, userID, noteID int64) error {
	tag, err := r.db.Exec(ctx, deleteNoteSQL, userID, noteID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const listTagsSQL = `SELECT DISTINCT unnest(tags) AS tag
FROM notes WHERE user_id = $1 ORDER BY tag`

func (r *PostgresNoteRepo) ListTags(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.Query(ctx, listTagsSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := make([]string, 0)
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return tags, nil
}

func scanNote(row pgx.Row) (domain.Note, error) {
	var n domain.Note
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Tags, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Note{}, ErrNotFound
		}
		return domain.Note{}, fmt.Errorf("scan note: %w", err)
	}
	return n, nil
}

func scanNotes(rows pgx.Rows) ([]domain.Note, error) {
	notes := make([]domain.Note, 0)
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Tags, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}
