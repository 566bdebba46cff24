package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/speakaboutai/micdrop-go/internal/application/services"
	"github.com/speakaboutai/micdrop-go/internal/domain/content"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/logging"
	contentRepo "github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/content"
	"github.com/speakaboutai/micdrop-go/internal/presentation/http/middleware"
	"github.com/speakaboutai/micdrop-go/pkg/config"
	"github.com/speakaboutai/micdrop-go/pkg/leadgate"
)

// TalkPageHandlers contains the talk page HTTP handlers, both the owner CRUD
// surface and the public gated page.
type TalkPageHandlers struct {
	talkPageService *services.TalkPageService
	logger          *logging.ChanneledLogger
}

// NewTalkPageHandlers creates talk page handlers with injected dependencies
func NewTalkPageHandlers(talkPageService *services.TalkPageService, logger *logging.ChanneledLogger) *TalkPageHandlers {
	return &TalkPageHandlers{
		talkPageService: talkPageService,
		logger:          logger,
	}
}

// List handles GET /api/pages
func (h *TalkPageHandlers) List(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	summaries, err := h.talkPageService.List(u.ID)
	if err != nil {
		h.logger.Content().Error("Failed to list talk pages", "error", err.Error(), "userId", u.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list pages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pages": summaries})
}

// Create handles POST /api/pages
func (h *TalkPageHandlers) Create(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	var page content.TalkPage
	if err := c.ShouldBindJSON(&page); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page payload"})
		return
	}
	if page.Title == "" || page.SpeakerName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and speakerName are required"})
		return
	}

	if err := h.talkPageService.Create(u.ID, &page); err != nil {
		h.logger.Content().Error("Failed to create talk page", "error", err.Error(), "userId", u.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create page"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"page": page})
}

// Get handles GET /api/pages/:id
func (h *TalkPageHandlers) Get(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	page, err := h.talkPageService.GetOwned(u.ID, c.Param("id"))
	if err != nil {
		h.respondNotFoundOrError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": page})
}

// Update handles PUT /api/pages/:id
func (h *TalkPageHandlers) Update(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	var page content.TalkPage
	if err := c.ShouldBindJSON(&page); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page payload"})
		return
	}
	if page.Title == "" || page.SpeakerName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and speakerName are required"})
		return
	}

	updated, err := h.talkPageService.Update(u.ID, c.Param("id"), &page)
	if err != nil {
		h.respondNotFoundOrError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": updated})
}

// Delete handles DELETE /api/pages/:id
func (h *TalkPageHandlers) Delete(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	if err := h.talkPageService.Delete(u.ID, c.Param("id")); err != nil {
		h.respondNotFoundOrError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PublicPage handles GET /api/talk/:slug. The response is gated: until the
// visitor captures an email, locked sections carry only their teaser. Owners
// always see everything, including their own drafts.
func (h *TalkPageHandlers) PublicPage(c *gin.Context) {
	slug := c.Param("slug")

	page, err := h.talkPageService.FindBySlug(slug)
	if err != nil {
		h.respondNotFoundOrError(c, err)
		return
	}

	isOwner := false
	if u, ok := middleware.CurrentUser(c); ok {
		isOwner = u.ID == page.UserID
	}

	ledger := leadgate.NewLedger(
		leadgate.NewCookieStore(c.Request, c.Writer, c.Request.TLS != nil),
		config.LeadGateSecret,
		leadgate.WithTTL(config.CaptureMarkerTTL),
	)
	policy := ledger.Evaluate(slug, isOwner)

	view, err := h.talkPageService.PublicView(slug, policy)
	if err != nil {
		h.respondNotFoundOrError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": view})
}

func (h *TalkPageHandlers) respondNotFoundOrError(c *gin.Context, err error) {
	switch err {
	case contentRepo.ErrTalkPageNotFound, services.ErrPageNotPublished:
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
	default:
		h.logger.Content().Error("Talk page request failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
