// Package http exposes the engine's operations as a REST surface for
// the shell extension and the settings UI.
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blipk/worksetsd/internal/domain/session"
	"github.com/blipk/worksetsd/internal/infrastructure/monitoring"
	"github.com/blipk/worksetsd/internal/shared/types"
)

// Handlers contains HTTP request handlers over the session manager.
type Handlers struct {
	sessions      *session.Manager
	metrics       *monitoring.Metrics
	version       string
	streamClients func() int
}

// NewHandlers creates the handler set.
func NewHandlers(sessions *session.Manager, metrics *monitoring.Metrics, version string) *Handlers {
	return &Handlers{
		sessions: sessions,
		metrics:  metrics,
		version:  version,
	}
}

// WithStreamClients attaches a connected-client counter reported by the
// health endpoint.
func (h *Handlers) WithStreamClients(count func() int) *Handlers {
	h.streamClients = count
	return h
}

// fail writes an error response with the status implied by the error
// kind: validation failures are the client's fault, unknown names are
// not found, name collisions are conflicts, everything else is internal.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, types.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrDuplicateName):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

// Root returns service information.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "worksetsd",
		"version": h.version,
		"status":  "running",
	})
}

// Health returns service health.
func (h *Handlers) Health(c *gin.Context) {
	resp := gin.H{
		"status": "healthy",
		"uptime": h.metrics.Uptime().String(),
	}
	if h.streamClients != nil {
		resp["streamClients"] = h.streamClients()
	}
	c.JSON(http.StatusOK, resp)
}

// GetSession returns the full session document.
func (h *Handlers) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": h.sessions.Session(),
	})
}

// NewSession replaces the session with a fresh one.
func (h *Handlers) NewSession(c *gin.Context) {
	var req struct {
		FromEnvironment bool `json:"fromEnvironment"`
		Backup          bool `json:"backup"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request: " + err.Error()})
		return
	}

	if err := h.sessions.NewSession(c.Request.Context(), req.FromEnvironment, req.Backup); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": h.sessions.Session(),
	})
}

// LoadSession reloads the session from its document on disk.
func (h *Handlers) LoadSession(c *gin.Context) {
	if err := h.sessions.LoadSession(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": h.sessions.Session(),
	})
}

// ImportSession replaces the session with a document from an explicit
// file path.
func (h *Handlers) ImportSession(c *gin.Context) {
	var req struct {
		Path string `json:"path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request: " + err.Error()})
		return
	}

	if err := h.sessions.LoadSessionFromFile(req.Path); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": h.sessions.Session(),
	})
}

// ListWorksets returns the worksets in display order.
func (h *Handlers) ListWorksets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"worksets": h.sessions.Worksets(),
	})
}

// GetWorkset returns one workset by name.
func (h *Handlers) GetWorkset(c *gin.Context) {
	workset, err := h.sessions.GetWorkset(c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"workset": workset,
	})
}

// CreateWorkset builds a new workset, optionally capturing the current
// environment and optionally activating it.
func (h *Handlers) CreateWorkset(c *gin.Context) {
	var req struct {
		Name            string `json:"name" binding:"required"`
		FromEnvironment bool   `json:"fromEnvironment"`
		Activate        bool   `json:"activate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request: " + err.Error()})
		return
	}

	workset, err := h.sessions.CreateWorkset(c.Request.Context(), req.Name, req.FromEnvironment, req.Activate)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"workset": workset,
	})
}

// EditWorkset applies a combined rename, favorite flag, and default slot
// edit to one workset.
func (h *Handlers) EditWorkset(c *gin.Context) {
	var req struct {
		NewName      string       `json:"newName"`
		Favorite     *bool        `json:"favorite"`
		DefaultSlots map[int]bool `json:"defaultSlots"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request: " + err.Error()})
		return
	}

	name := c.Param("name")
	workset, err := h.sessions.GetWorkset(name)
	if err != nil {
		fail(c, err)
		return
	}
	favorite := workset.Favorite
	if req.Favorite != nil {
		favorite = *req.Favorite
	}

	if err := h.sessions.EditWorkset(name, req.NewName, favorite, req.DefaultSlots); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DisplayWorkset switches the desktop to a workset.
func (h *Handlers) DisplayWorkset(c *gin.Context) {
	var req struct {
		NewSlot bool `json:"newSlot"`
	}
	// Body is optional; an empty body displays on the active slot.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request: " + err.Error()})
			return
		}
	}

	if err := h.sessions.DisplayWorkset(c.Request.Context(), c.Param("name"), req.NewSlot); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CloseWorkset hides a workset from every slot displaying it.
func (h *Handlers) CloseWorkset(c *gin.Context) {
	if err := h.sessions.CloseWorkset(c.Param("name")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ToggleFavorite flips a workset's favorite flag.
func (h *Handlers) ToggleFavorite(c *gin.Context) {
	workset, err := h.sessions.ToggleFavorite(c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"workset": workset,
	})
}

// SetBackgroundImage updates a workset's background image.
func (h *Handlers) SetBackgroundImage(c *gin.Context) {
	var req struct {
		Path string `json:"path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request: " + err.Error()})
		return
	}

	if err := h.sessions.SetBackgroundImage(c.Request.Context(), c.Param("name"), req.Path); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SaveWorkset exports a workset to its document under the backup
// directory.
func (h *Handlers) SaveWorkset(c *gin.Context) {
	path, err := h.sessions.SaveWorkset(c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"path":    path,
	})
}

// ImportWorkset loads a workset document from a file into the session.
func (h *Handlers) ImportWorkset(c *gin.Context) {
	var req struct {
		Path string `json:"path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request: " + err.Error()})
		return
	}

	workset, err := h.sessions.ImportWorkset(req.Path)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"workset": workset,
	})
}

// DeleteWorkset removes a workset, returning the backup path written
// before removal.
func (h *Handlers) DeleteWorkset(c *gin.Context) {
	backupPath, err := h.sessions.DeleteWorkset(c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"backup":  backupPath,
	})
}

// RemoveFavoriteApp removes one pinned application from a workset.
func (h *Handlers) RemoveFavoriteApp(c *gin.Context) {
	if err := h.sessions.RemoveFavoriteApp(c.Request.Context(), c.Param("name"), c.Param("appid")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetOptions returns the session option set.
func (h *Handlers) GetOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"options": h.sessions.Options(),
	})
}

// SetOptions replaces the session option set.
func (h *Handlers) SetOptions(c *gin.Context) {
	var opts types.OptionSet
	if err := c.ShouldBindJSON(&opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request: " + err.Error()})
		return
	}

	if err := h.sessions.SetOptions(opts); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"options": h.sessions.Options(),
	})
}

// FavoritesChanged refreshes the displayed workset from the desktop's
// favorites list. The shell extension calls it on the favorites-changed
// signal.
func (h *Handlers) FavoritesChanged(c *gin.Context) {
	if err := h.sessions.FavoritesChanged(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
