package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lc-2025/freenotes/internal/domain"
	"github.com/lc-2025/freenotes/internal/http/middleware"
	"github.com/lc-2025/freenotes/internal/service"
)

// NotesHandler exposes note CRUD for the authenticated user.
type NotesHandler struct {
	Service *service.NotesService
}

type noteRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// List handles GET /notes. An optional ?q= filters by title or tag.
func (h *NotesHandler) List(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, domain.ErrUnauthorized())
		return
	}

	notes, err := h.Service.List(c.Request.Context(), principal.UserID, c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notes": notes})
}

// Tags handles GET /tags, listing the user's distinct tags.
func (h *NotesHandler) Tags(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, domain.ErrUnauthorized())
		return
	}

	tags, err := h.Service.Tags(c.Request.Context(), principal.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// Get handles GET /notes/:id.
func (h *NotesHandler) Get(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, domain.ErrUnauthorized())
		return
	}
	noteID, err := parseNoteID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	note, err := h.Service.Get(c.Request.Context(), principal.UserID, noteID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, note)
}

// Create handles POST /notes.
func (h *NotesHandler) Create(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, domain.ErrUnauthorized())
		return
	}
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.ErrBadRequest("Invalid request body."))
		return
	}

	note, err := h.Service.Create(c.Request.Context(), principal.UserID, req.Title, req.Content, req.Tags)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, note)
}

// Update handles PUT /notes/:id.
func (h *NotesHandler) Update(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, domain.ErrUnauthorized())
		return
	}
	noteID, err := parseNoteID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.ErrBadRequest("Invalid request body."))
		return
	}

	note, err := h.Service.Update(c.Request.Context(), principal.UserID, noteID, req.Title, req.Content, req.Tags)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, note)
}

// Delete handles DELETE /notes/:id.
func (h *NotesHandler) Delete(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, domain.ErrUnauthorized())
		return
	}
	noteID, err := parseNoteID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.Service.Delete(c.Request.Context(), principal.UserID, noteID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func parseNoteID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrBadRequest("Invalid note ID.")
	}
	return id, nil
}
