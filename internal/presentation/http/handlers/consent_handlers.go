package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/speakaboutai/micdrop-go/internal/application/services"
	"github.com/speakaboutai/micdrop-go/internal/domain/user"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/logging"
	"github.com/speakaboutai/micdrop-go/internal/presentation/http/middleware"
)

// ConsentHandlers contains the consent recording HTTP handlers
type ConsentHandlers struct {
	consentService *services.ConsentService
	logger         *logging.ChanneledLogger
}

// ConsentRequest represents the structure for consent submissions
type ConsentRequest struct {
	Email       string                  `json:"email,omitempty"`
	Preferences user.ConsentPreferences `json:"preferences"`
	Source      string                  `json:"source,omitempty"`
}

// NewConsentHandlers creates consent handlers with injected dependencies
func NewConsentHandlers(consentService *services.ConsentService, logger *logging.ChanneledLogger) *ConsentHandlers {
	return &ConsentHandlers{
		consentService: consentService,
		logger:         logger,
	}
}

// Record handles POST /api/consent
func (h *ConsentHandlers) Record(c *gin.Context) {
	var req ConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid consent payload"})
		return
	}

	record := &user.ConsentRecord{
		Email:       req.Email,
		Preferences: req.Preferences,
		IPAddress:   c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
		Source:      req.Source,
	}
	if u, ok := middleware.CurrentUser(c); ok {
		record.UserID = u.ID
	}

	if err := h.consentService.Record(record); err != nil {
		h.logger.System().Error("Consent recording failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record consent"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "recordId": record.ID})
}

// Latest handles GET /api/consent. It resolves the active choice for the
// session user, or for the email query parameter when unauthenticated.
func (h *ConsentHandlers) Latest(c *gin.Context) {
	var record *user.ConsentRecord
	var err error

	if u, ok := middleware.CurrentUser(c); ok {
		record, err = h.consentService.LatestForUser(u.ID)
	} else if email := c.Query("email"); email != "" {
		record, err = h.consentService.LatestForEmail(email)
	} else {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email query parameter required"})
		return
	}

	if err != nil {
		h.logger.System().Error("Consent lookup failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up consent"})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no consent recorded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"consent": record})
}
