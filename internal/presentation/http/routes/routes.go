// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/speakaboutai/micdrop-go/internal/application/container"
	"github.com/speakaboutai/micdrop-go/internal/presentation/http/handlers"
	"github.com/speakaboutai/micdrop-go/internal/presentation/http/middleware"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	authHandlers := handlers.NewAuthHandlers(container.AuthService, container.Logger)
	talkPageHandlers := handlers.NewTalkPageHandlers(container.TalkPageService, container.Logger)
	captureHandlers := handlers.NewCaptureHandlers(container.CaptureService, container.Logger)
	analyticsHandlers := handlers.NewAnalyticsHandlers(
		container.EventProcessingService,
		container.AnalyticsService,
		container.TalkPageService,
		container.Logger,
	)
	consentHandlers := handlers.NewConsentHandlers(container.ConsentService, container.Logger)

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/api/auth")
	{
		auth.POST("/signup", authHandlers.Signup)
		auth.POST("/login", authHandlers.Login)
		auth.POST("/logout", authHandlers.Logout)
		auth.GET("/me", middleware.AuthRequired(container.AuthService), authHandlers.Me)
	}

	// Public visitor endpoints
	r.GET("/api/talk/:slug", middleware.OptionalAuth(container.AuthService), talkPageHandlers.PublicPage)
	r.POST("/api/capture", captureHandlers.Capture)
	r.POST("/api/track", analyticsHandlers.Track)
	r.POST("/api/consent", middleware.OptionalAuth(container.AuthService), consentHandlers.Record)
	r.GET("/api/consent", middleware.OptionalAuth(container.AuthService), consentHandlers.Latest)

	// Owner endpoints
	pages := r.Group("/api/pages")
	pages.Use(middleware.AuthRequired(container.AuthService))
	{
		pages.GET("", talkPageHandlers.List)
		pages.POST("", talkPageHandlers.Create)
		pages.GET("/:id", talkPageHandlers.Get)
		pages.PUT("/:id", talkPageHandlers.Update)
		pages.DELETE("/:id", talkPageHandlers.Delete)
		pages.GET("/:id/analytics", analyticsHandlers.Dashboard)
		pages.GET("/:id/captures", captureHandlers.ListCaptures)
	}

	return r
}
