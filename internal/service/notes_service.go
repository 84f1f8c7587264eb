package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/lc-2025/freenotes/internal/domain"
	"github.com/lc-2025/freenotes/internal/repository"
)

// NotesService manages user-owned notes. Every operation is scoped to the
// authenticated principal; a note belonging to another user is treated as
// absent, not forbidden.
type NotesService struct {
	notes  repository.NoteRepository
	node   *snowflake.Node
	logger *zap.Logger
}

// NewNotesService wires dependencies.
func NewNotesService(notes repository.NoteRepository, node *snowflake.Node, logger *zap.Logger) *NotesService {
	return &NotesService{notes: notes, node: node, logger: logger}
}

// List returns the user's notes, optionally filtered by a title or tag query.
func (s *NotesService) List(ctx context.Context, userID int64, query string) ([]domain.Note, error) {
	var (
		notes []domain.Note
		err   error
	)
	if query = strings.TrimSpace(query); query != "" {
		notes, err = s.notes.Search(ctx, userID, query)
	} else {
		notes, err = s.notes.List(ctx, userID)
	}
	if err != nil {
		s.logger.Error("list notes", zap.Int64("user_id", userID), zap.Error(err))
		return nil, domain.ErrInternal()
	}
	return notes, nil
}

// Get returns a single note by ID.
func (s *NotesService) Get(ctx context.Context, userID, noteID int64) (*domain.Note, error) {
	note, err := s.notes.GetByID(ctx, userID, noteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound("Note not found.")
		}
		s.logger.Error("get note", zap.Int64("note_id", noteID), zap.Error(err))
		return nil, domain.ErrInternal()
	}
	return &note, nil
}

// Create stores a new note for the user.
func (s *NotesService) Create(ctx context.Context, userID int64, title, content string, tags []string) (*domain.Note, error) {
	if strings.TrimSpace(title) == "" {
		return nil, domain.ErrBadRequest("Title is required.")
	}

	note, err := s.notes.Create(ctx, domain.Note{
		ID:      s.node.Generate().Int64(),
		UserID:  userID,
		Title:   title,
		Content: content,
		Tags:    normalizeTags(tags),
	})
	if err != nil {
		s.logger.Error("create note", zap.Int64("user_id", userID), zap.Error(err))
		return nil, domain.ErrInternal()
	}
	return &note, nil
}

// Update replaces the note's title, content, and tags.
func (s *NotesService) Update(ctx context.Context, userID, noteID int64, title, content string, tags []string) (*domain.Note, error) {
	if strings.TrimSpace(title) == "" {
		return nil, domain.ErrBadRequest("Title is required.")
	}

	note, err := s.notes.Update(ctx, domain.Note{
		ID:      noteID,
		UserID:  userID,
		Title:   title,
		Content: content,
		Tags:    normalizeTags(tags),
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound("Note not found.")
		}
		s.logger.Error("update note", zap.Int64("note_id", noteID), zap.Error(err))
		return nil, domain.ErrInternal()
	}
	return &note, nil
}

// Tags returns the distinct tags across the user's notes. Tags only exist
// as labels on notes, so the set shrinks on its own when the last note
// carrying a tag goes away.
func (s *NotesService) Tags(ctx context.Context, userID int64) ([]string, error) {
	tags, err := s.notes.ListTags(ctx, userID)
	if err != nil {
		s.logger.Error("list tags", zap.Int64("user_id", userID), zap.Error(err))
		return nil, domain.ErrInternal()
	}
	return tags, nil
}

// Delete removes the note.
func (s *NotesService) Delete(ctx context.Context, userID, noteID int64) error {
	if err := s.notes.Delete(ctx, userID, noteID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrNotFound("Note not found.")
		}
		s.logger.Error("delete note", zap.Int64("note_id", noteID), zap.Error(err))
		return domain.ErrInternal()
	}
	return nil
}

func normalizeTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		cleaned = append(cleaned, tag)
	}
	return cleaned
}
