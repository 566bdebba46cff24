package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/speakaboutai/micdrop-go/internal/application/services"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/logging"
	contentRepo "github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/content"
	"github.com/speakaboutai/micdrop-go/internal/presentation/http/middleware"
	"github.com/speakaboutai/micdrop-go/pkg/config"
	"github.com/speakaboutai/micdrop-go/pkg/leadgate"
)

// CaptureHandlers contains the email capture HTTP handlers
type CaptureHandlers struct {
	captureService *services.CaptureService
	logger         *logging.ChanneledLogger
}

// CaptureRequest represents the structure for email capture requests
type CaptureRequest struct {
	TalkPageID string `json:"talkPageId" binding:"required"`
	Email      string `json:"email" binding:"required"`
	Name       string `json:"name,omitempty"`
	Tier       string `json:"tier,omitempty"`
}

// NewCaptureHandlers creates capture handlers with injected dependencies
func NewCaptureHandlers(captureService *services.CaptureService, logger *logging.ChanneledLogger) *CaptureHandlers {
	return &CaptureHandlers{
		captureService: captureService,
		logger:         logger,
	}
}

// Capture handles POST /api/capture. A repeat submission of the same email
// is reported as success with isNew false; either way the capture marker
// cookie is refreshed so the visitor's unlock outlives the session.
func (h *CaptureHandlers) Capture(c *gin.Context) {
	var req CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "talkPageId and email are required"})
		return
	}

	result, err := h.captureService.CaptureEmail(req.TalkPageID, req.Email, req.Name, req.Tier)
	if err != nil {
		switch err {
		case services.ErrInvalidEmail:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email address"})
		case contentRepo.ErrTalkPageNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
		default:
			h.logger.Capture().Error("Email capture failed", "error", err.Error(), "talkPageId", req.TalkPageID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "capture failed"})
		}
		return
	}

	ledger := leadgate.NewLedger(
		leadgate.NewCookieStore(c.Request, c.Writer, c.Request.TLS != nil),
		config.LeadGateSecret,
		leadgate.WithTTL(config.CaptureMarkerTTL),
	)
	ledger.RecordCapture(result.Page.Slug, result.Capture.Email)

	message := "You're all set! Check your email for the tools."
	if !result.IsNew {
		message = "You already have access to these tools."
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"isNew":   result.IsNew,
	})
}

// ListCaptures handles GET /api/pages/:id/captures
func (h *CaptureHandlers) ListCaptures(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	captures, err := h.captureService.ListCaptures(c.Param("id"), u.ID)
	if err != nil {
		if err == contentRepo.ErrTalkPageNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
			return
		}
		h.logger.Capture().Error("Failed to list captures", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list captures"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"captures": captures, "count": len(captures)})
}
