package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/speakaboutai/micdrop-go/internal/application/services"
	"github.com/speakaboutai/micdrop-go/internal/domain/analytics"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/logging"
	contentRepo "github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/content"
	"github.com/speakaboutai/micdrop-go/internal/presentation/http/middleware"
)

// AnalyticsHandlers contains the event collection and dashboard HTTP handlers
type AnalyticsHandlers struct {
	eventService     *services.EventProcessingService
	analyticsService *services.AnalyticsService
	talkPageService  *services.TalkPageService
	logger           *logging.ChanneledLogger
}

// TrackRequest represents the structure for event ingestion requests
type TrackRequest struct {
	Event      string         `json:"event" binding:"required"`
	TalkPageID string         `json:"talkPageId" binding:"required"`
	Data       map[string]any `json:"data"`
}

// NewAnalyticsHandlers creates analytics handlers with injected dependencies
func NewAnalyticsHandlers(
	eventService *services.EventProcessingService,
	analyticsService *services.AnalyticsService,
	talkPageService *services.TalkPageService,
	logger *logging.ChanneledLogger,
) *AnalyticsHandlers {
	return &AnalyticsHandlers{
		eventService:     eventService,
		analyticsService: analyticsService,
		talkPageService:  talkPageService,
		logger:           logger,
	}
}

// Track handles POST /api/track. Clients fire and forget; the response body
// exists only for debugging.
func (h *AnalyticsHandlers) Track(c *gin.Context) {
	var req TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event and talkPageId are required"})
		return
	}

	event := &analytics.TrackedEvent{
		Kind:       analytics.EventKind(req.Event),
		TalkPageID: req.TalkPageID,
		Payload:    req.Data,
	}

	if err := h.eventService.Ingest(event); err != nil {
		switch err {
		case services.ErrUnknownEventKind:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event kind"})
		default:
			h.logger.Analytics().Error("Event ingest failed", "error", err.Error(), "talkPageId", req.TalkPageID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record event"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Dashboard handles GET /api/pages/:id/analytics. Only the page owner sees
// it; a page owned by someone else reads as not found.
func (h *AnalyticsHandlers) Dashboard(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	page, err := h.talkPageService.GetOwned(u.ID, c.Param("id"))
	if err != nil {
		if err == contentRepo.ErrTalkPageNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
			return
		}
		h.logger.Analytics().Error("Dashboard page lookup failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	dashboard, err := h.analyticsService.BuildDashboard(page.ID)
	if err != nil {
		h.logger.Analytics().Error("Dashboard build failed", "error", err.Error(), "talkPageId", page.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build analytics"})
		return
	}

	c.JSON(http.StatusOK, dashboard)
}
