package api

import (
	"context"
	"errors"
	"log"
	"net/http"

	"discord-summarizer/models"
	"discord-summarizer/service"

	"github.com/gin-gonic/gin"
)

// Service is the triggering interface the HTTP handlers call into.
type Service interface {
	StartSync(ctx context.Context, serverID string) (models.StartSyncResult, error)
	SyncStatus(serverID string) (models.SyncJobState, error)
	Summarize(ctx context.Context, serverID string) (models.SummaryResponse, error)
	ClearCache(ctx context.Context, serverID string) (models.ClearCacheResult, error)
	Channels(ctx context.Context, serverID string) ([]models.ChannelInfo, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// POST /api/sync/:server_id
func (h *Handler) StartSync(c *gin.Context) {
	res, err := h.svc.StartSync(c.Request.Context(), c.Param("server_id"))
	if err != nil {
		h.fail(c, "StartSync", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/sync/:server_id/status
func (h *Handler) SyncStatus(c *gin.Context) {
	state, err := h.svc.SyncStatus(c.Param("server_id"))
	if err != nil {
		h.fail(c, "SyncStatus", err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// GET /api/summarize/:server_id
func (h *Handler) Summarize(c *gin.Context) {
	resp, err := h.svc.Summarize(c.Request.Context(), c.Param("server_id"))
	if err != nil {
		h.fail(c, "Summarize", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// POST /api/clear-cache/:server_id
func (h *Handler) ClearCache(c *gin.Context) {
	res, err := h.svc.ClearCache(c.Request.Context(), c.Param("server_id"))
	if err != nil {
		h.fail(c, "ClearCache", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/channels/:server_id
func (h *Handler) Channels(c *gin.Context) {
	serverID := c.Param("server_id")
	channels, err := h.svc.Channels(c.Request.Context(), serverID)
	if err != nil {
		h.fail(c, "Channels", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"server_id": serverID, "channels": channels})
}

// fail maps service errors onto status codes. Anything unexpected becomes a
// generic 500 so internal details never leave the process.
func (h *Handler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "No sync found for this server"})
	case errors.Is(err, service.ErrInvalidServerID):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	default:
		log.Printf("[api] %s failed: %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	}
}
