package services

import (
	"testing"
	"time"

	"github.com/speakaboutai/micdrop-go/internal/domain/content"
	"github.com/speakaboutai/micdrop-go/internal/domain/user"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/logging"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/performance"
	analyticsRepo "github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/analytics"
	contentRepo "github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/content"
	userRepo "github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/user"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/database"
	"github.com/speakaboutai/micdrop-go/pkg/config"
	"github.com/stretchr/testify/require"
)

func init() {
	config.JWTSecret = "test-jwt-secret"
	config.LeadGateSecret = "test-gate-secret"
}

// testEnv bundles a fresh in-memory database with every repository and
// service wired over it.
type testEnv struct {
	db *database.DB

	eventRepo    *analyticsRepo.SQLEventRepository
	talkPageRepo *contentRepo.SQLTalkPageRepository
	userRepo     *userRepo.SQLUserRepository
	captureRepo  *userRepo.SQLCaptureRepository
	consentRepo  *userRepo.SQLConsentRepository

	events    *EventProcessingService
	analytics *AnalyticsService
	captures  *CaptureService
	talkPages *TalkPageService
	auth      *AuthService
	consent   *ConsentService
	retention *RetentionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.NewConnection("sqlite3", ":memory:")
	require.NoError(t, err)
	// One connection so every query sees the same in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewTableCreator().CreateSchema(db.DB))

	logger := logging.NewTestLogger()
	perfTracker := performance.NewTracker(performance.DefaultTrackerConfig())

	env := &testEnv{db: db}
	env.eventRepo = analyticsRepo.NewSQLEventRepository(db, logger)
	env.talkPageRepo = contentRepo.NewSQLTalkPageRepository(db, logger)
	env.userRepo = userRepo.NewSQLUserRepository(db, logger)
	env.captureRepo = userRepo.NewSQLCaptureRepository(db, logger)
	env.consentRepo = userRepo.NewSQLConsentRepository(db, logger)

	env.events = NewEventProcessingService(db, env.eventRepo, env.talkPageRepo, env.captureRepo, perfTracker, logger)
	env.analytics = NewAnalyticsService(env.eventRepo, env.talkPageRepo, env.captureRepo, perfTracker, logger)
	env.captures = NewCaptureService(env.captureRepo, env.talkPageRepo, env.events, nil, logger)
	env.talkPages = NewTalkPageService(env.talkPageRepo, logger)
	env.auth = NewAuthService(env.userRepo, logger)
	env.consent = NewConsentService(env.consentRepo, logger)
	env.retention = NewRetentionService(env.eventRepo, logger)
	return env
}

func (env *testEnv) seedUser(t *testing.T) *user.User {
	t.Helper()
	u, _, err := env.auth.Signup("Casey Speaker", "casey@example.com", "correct-horse")
	require.NoError(t, err)
	return u
}

func (env *testEnv) seedPage(t *testing.T, userID string) *content.TalkPage {
	t.Helper()
	page := &content.TalkPage{
		Title:        "AI for Event Planners",
		Date:         time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC),
		SpeakerName:  "Casey Speaker",
		SpeakerEmail: "casey@example.com",
		SpeakerBio:   "Casey has spent fifteen years helping event teams adopt practical automation, and now advises conference organizers across three continents on attendee experience design and AI tooling strategy for live productions.",
		Hook:         "Get every tool from today's talk",
		Published:    true,
		CustomGpts: []content.CustomGPT{
			{Name: "Meeting Prep GPT", Description: "Prepares event briefs", URL: "https://chat.example.com/g/meeting-prep"},
			{Name: "Venue Scout GPT", Description: "Compares venues", URL: "https://chat.example.com/g/venue-scout"},
		},
		Downloads: []content.Download{
			{Title: "Planning Checklist", FileURL: "https://files.example.com/checklist.pdf", RequiresEmail: true},
			{Title: "Budget Template", FileURL: "https://files.example.com/budget.xlsx", RequiresEmail: true},
			{Title: "Slide Summary", FileURL: "https://files.example.com/summary.pdf", RequiresEmail: false},
		},
		BusinessLinks: []content.BusinessLink{
			{Name: "Consulting", Description: "Work with Casey", URL: "https://cal.example.com/casey", CTAText: "Book a call"},
		},
	}
	require.NoError(t, env.talkPages.Create(userID, page))
	return page
}
