package services

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/speakaboutai/micdrop-go/internal/domain/analytics"
	"github.com/speakaboutai/micdrop-go/internal/domain/content"
	"github.com/speakaboutai/micdrop-go/internal/domain/user"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/email"
	contentRepo "github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/content"
	userRepo "github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/user"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/logging"
)

// ErrInvalidEmail is returned when the submitted address does not parse.
var ErrInvalidEmail = fmt.Errorf("invalid email address")

// CaptureResult reports what a capture attempt did. IsNew is false when the
// email had already been captured on this page; the caller treats that as
// success and still unlocks the content.
type CaptureResult struct {
	Capture *user.EmailCapture
	Page    *content.TalkPage
	IsNew   bool
}

// CaptureService runs the email capture flow: persist the lead, emit the
// capture event, and send the tools welcome email to first-time captures.
type CaptureService struct {
	captureRepo  *userRepo.SQLCaptureRepository
	talkPageRepo *contentRepo.SQLTalkPageRepository
	events       *EventProcessingService
	mailer       email.Service
	logger       *logging.ChanneledLogger
}

// NewCaptureService creates a new capture service with its dependencies.
// The mailer may be nil when no email provider is configured; captures then
// proceed without the welcome email.
func NewCaptureService(
	captureRepo *userRepo.SQLCaptureRepository,
	talkPageRepo *contentRepo.SQLTalkPageRepository,
	events *EventProcessingService,
	mailer email.Service,
	logger *logging.ChanneledLogger,
) *CaptureService {
	return &CaptureService{
		captureRepo:  captureRepo,
		talkPageRepo: talkPageRepo,
		events:       events,
		mailer:       mailer,
		logger:       logger,
	}
}

// CaptureEmail records a lead against a talk page. Repeat submissions of the
// same email succeed idempotently.
func (s *CaptureService) CaptureEmail(talkPageID, emailAddr, name, tier string) (*CaptureResult, error) {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	if _, err := mail.ParseAddress(emailAddr); err != nil {
		return nil, ErrInvalidEmail
	}

	if tier != user.TierResources && tier != user.TierNewsletter {
		tier = user.TierResources
	}

	page, err := s.talkPageRepo.FindByID(talkPageID)
	if err != nil {
		return nil, err
	}

	capture := &user.EmailCapture{
		TalkPageID: page.ID,
		Email:      emailAddr,
		Name:       strings.TrimSpace(name),
		Tier:       tier,
	}
	isNew, err := s.captureRepo.Store(capture)
	if err != nil {
		return nil, err
	}

	if isNew {
		// The capture event is recorded regardless of visitor consent; it is
		// first-party data the visitor handed over deliberately. Repeat
		// submissions skip it so the activity feed shows leads, not form
		// submits.
		event := &analytics.TrackedEvent{
			Kind:       analytics.EventEmailCapture,
			TalkPageID: page.ID,
			Payload: map[string]any{
				"email": emailAddr,
				"tier":  tier,
			},
		}
		if err := s.events.Ingest(event); err != nil {
			s.logger.Capture().Error("Failed to record capture event",
				"error", err.Error(),
				"talkPageId", page.ID)
		}

		if s.mailer != nil {
			go s.sendWelcome(emailAddr, capture.Name, page)
		}
	}

	return &CaptureResult{Capture: capture, Page: page, IsNew: isNew}, nil
}

// ListCaptures returns the leads for a talk page the user owns.
func (s *CaptureService) ListCaptures(talkPageID, userID string) ([]*user.EmailCapture, error) {
	if _, err := s.talkPageRepo.FindByIDAndUser(talkPageID, userID); err != nil {
		return nil, err
	}
	return s.captureRepo.ListByPage(talkPageID)
}

func (s *CaptureService) sendWelcome(toEmail, visitorName string, page *content.TalkPage) {
	if err := s.mailer.SendToolsWelcomeEmail(toEmail, visitorName, page); err != nil {
		s.logger.Email().Error("Failed to send tools welcome email",
			"error", err.Error(),
			"talkPageId", page.ID)
		return
	}
	s.logger.Email().Info("Tools welcome email sent", "talkPageId", page.ID)
}
