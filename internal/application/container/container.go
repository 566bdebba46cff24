// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/speakaboutai/micdrop-go/internal/application/services"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/email"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/logging"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/performance"
	analyticsRepo "github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/analytics"
	contentRepo "github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/content"
	userRepo "github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/user"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/database"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Repositories
	EventRepo    *analyticsRepo.SQLEventRepository
	TalkPageRepo *contentRepo.SQLTalkPageRepository
	UserRepo     *userRepo.SQLUserRepository
	CaptureRepo  *userRepo.SQLCaptureRepository
	ConsentRepo  *userRepo.SQLConsentRepository

	// Application services (stateless singletons)
	EventProcessingService *services.EventProcessingService
	AnalyticsService       *services.AnalyticsService
	CaptureService         *services.CaptureService
	TalkPageService        *services.TalkPageService
	AuthService            *services.AuthService
	ConsentService         *services.ConsentService
	RetentionService       *services.RetentionService

	// Infrastructure
	DB          *database.DB
	Mailer      email.Service
	PerfTracker *performance.Tracker
	Logger      *logging.ChanneledLogger
}

// NewContainer creates and wires all singleton services
func NewContainer(db *database.DB, mailer email.Service, perfTracker *performance.Tracker, logger *logging.ChanneledLogger) *Container {
	eventRepo := analyticsRepo.NewSQLEventRepository(db, logger)
	talkPageRepo := contentRepo.NewSQLTalkPageRepository(db, logger)
	usersRepo := userRepo.NewSQLUserRepository(db, logger)
	captureRepo := userRepo.NewSQLCaptureRepository(db, logger)
	consentRepo := userRepo.NewSQLConsentRepository(db, logger)

	eventService := services.NewEventProcessingService(db, eventRepo, talkPageRepo, captureRepo, perfTracker, logger)

	return &Container{
		EventRepo:    eventRepo,
		TalkPageRepo: talkPageRepo,
		UserRepo:     usersRepo,
		CaptureRepo:  captureRepo,
		ConsentRepo:  consentRepo,

		EventProcessingService: eventService,
		AnalyticsService:       services.NewAnalyticsService(eventRepo, talkPageRepo, captureRepo, perfTracker, logger),
		CaptureService:         services.NewCaptureService(captureRepo, talkPageRepo, eventService, mailer, logger),
		TalkPageService:        services.NewTalkPageService(talkPageRepo, logger),
		AuthService:            services.NewAuthService(usersRepo, logger),
		ConsentService:         services.NewConsentService(consentRepo, logger),
		RetentionService:       services.NewRetentionService(eventRepo, logger),

		DB:          db,
		Mailer:      mailer,
		PerfTracker: perfTracker,
		Logger:      logger,
	}
}
