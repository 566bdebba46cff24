// Package services provides event processing orchestration
package services

import (
	"encoding/json"
	"fmt"

	"github.com/speakaboutai/micdrop-go/internal/domain/analytics"
	"github.com/speakaboutai/micdrop-go/internal/domain/user"
	analyticsRepo "github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/analytics"
	contentRepo "github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/content"
	userRepo "github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/user"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/logging"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/performance"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/database"
)

// ErrUnknownEventKind is returned for events outside the recognized set.
var ErrUnknownEventKind = fmt.Errorf("unknown event kind")

// EventProcessingService ingests tracked events. Every valid event is stored;
// link clicks on a recognized link type additionally bump the matching
// resource counter in the same transaction, and email captures create the
// lead record when one does not already exist.
type EventProcessingService struct {
	db           *database.DB
	eventRepo    *analyticsRepo.SQLEventRepository
	talkPageRepo *contentRepo.SQLTalkPageRepository
	captureRepo  *userRepo.SQLCaptureRepository
	perfTracker  *performance.Tracker
	logger       *logging.ChanneledLogger
}

// NewEventProcessingService creates a new event processing service with its dependencies.
func NewEventProcessingService(
	db *database.DB,
	eventRepo *analyticsRepo.SQLEventRepository,
	talkPageRepo *contentRepo.SQLTalkPageRepository,
	captureRepo *userRepo.SQLCaptureRepository,
	perfTracker *performance.Tracker,
	logger *logging.ChanneledLogger,
) *EventProcessingService {
	return &EventProcessingService{
		db:           db,
		eventRepo:    eventRepo,
		talkPageRepo: talkPageRepo,
		captureRepo:  captureRepo,
		perfTracker:  perfTracker,
		logger:       logger,
	}
}

// Ingest validates and persists one tracked event. Ingestion is best-effort
// and unauthenticated, so only the event shape is validated; talkPageId is
// not checked against the pages table. A link_click with an unrecognized
// link type is stored without touching any counter; social clicks are stored
// the same way because social links carry no per-resource counter. An
// email_capture event also creates the lead record, idempotently.
func (s *EventProcessingService) Ingest(event *analytics.TrackedEvent) error {
	marker := s.perfTracker.StartOperation("event_ingest")
	defer marker.Complete()

	if !event.Kind.IsValid() {
		marker.SetError(ErrUnknownEventKind)
		return ErrUnknownEventKind
	}

	// Resolve the counter target before the transaction opens; resolution
	// reads through the pool and must not contend with the open tx.
	var clickTarget *analytics.LinkClickData
	if event.Kind == analytics.EventLinkClick {
		target, err := s.resolveClickTarget(event)
		if err != nil {
			marker.SetError(err)
			return err
		}
		clickTarget = target
	}

	tx, err := s.db.Begin()
	if err != nil {
		marker.SetError(err)
		return fmt.Errorf("failed to begin ingest transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.eventRepo.StoreEvent(tx, event); err != nil {
		marker.SetError(err)
		return err
	}

	if clickTarget != nil {
		matched, err := s.talkPageRepo.IncrementClickCount(tx, clickTarget.LinkType, clickTarget.LinkID)
		if err != nil {
			marker.SetError(err)
			return err
		}
		if !matched {
			s.logger.Analytics().Debug("Link click referenced unknown resource",
				"eventId", event.ID,
				"linkType", string(clickTarget.LinkType),
				"linkId", clickTarget.LinkID)
		}
	}

	if err := tx.Commit(); err != nil {
		marker.SetError(err)
		return fmt.Errorf("failed to commit ingest transaction: %w", err)
	}

	// Outside the event transaction: the capture repo serializes its own
	// statements, and a duplicate lead is already an idempotent success.
	if event.Kind == analytics.EventEmailCapture {
		if err := s.recordCapture(event); err != nil {
			marker.SetError(err)
			return err
		}
	}

	marker.SetSuccess(true)
	s.logger.Analytics().Debug("Event ingested",
		"eventId", event.ID,
		"event", string(event.Kind),
		"talkPageId", event.TalkPageID)
	return nil
}

// resolveClickTarget decodes a link_click payload down to the (linkType,
// linkId) pair the counter update needs. A nil target with nil error means
// the click carries nothing to count; the raw event is still stored.
func (s *EventProcessingService) resolveClickTarget(event *analytics.TrackedEvent) (*analytics.LinkClickData, error) {
	data, err := decodeLinkClick(event.Payload)
	if err != nil {
		s.logger.Analytics().Warn("Malformed link_click payload, stored without counter",
			"eventId", event.ID,
			"error", err.Error())
		return nil, nil
	}

	if data.LinkID == "" {
		data.LinkID, err = s.talkPageRepo.ResolveLinkID(event.TalkPageID, data.LinkType, data.LinkName)
		if err != nil {
			return nil, err
		}
	}
	if data.LinkID == "" {
		s.logger.Analytics().Debug("Link click without counter target",
			"eventId", event.ID,
			"linkType", string(data.LinkType),
			"linkName", data.LinkName)
		return nil, nil
	}
	return data, nil
}

// recordCapture turns an email_capture event into an EmailCapture row. The
// store is idempotent per (email, talkPageId), so a beacon retry or a repeat
// submission never produces a second lead.
func (s *EventProcessingService) recordCapture(event *analytics.TrackedEvent) error {
	data, err := decodeEmailCapture(event.Payload)
	if err != nil {
		s.logger.Analytics().Warn("Malformed email_capture payload, stored without lead record",
			"eventId", event.ID,
			"error", err.Error())
		return nil
	}

	tier := data.Tier
	if tier != user.TierResources && tier != user.TierNewsletter {
		tier = user.TierResources
	}

	capture := &user.EmailCapture{
		TalkPageID: event.TalkPageID,
		Email:      data.Email,
		Name:       data.Name,
		Tier:       tier,
	}
	isNew, err := s.captureRepo.Store(capture)
	if err != nil {
		return err
	}
	if isNew {
		s.logger.Analytics().Info("Lead recorded from capture event",
			"eventId", event.ID,
			"talkPageId", event.TalkPageID)
	}
	return nil
}

func decodeEmailCapture(payload map[string]any) (*analytics.EmailCaptureData, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var data analytics.EmailCaptureData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	if data.Email == "" {
		return nil, fmt.Errorf("email_capture payload missing email")
	}
	return &data, nil
}

func decodeLinkClick(payload map[string]any) (*analytics.LinkClickData, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var data analytics.LinkClickData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	if data.LinkType == "" {
		return nil, fmt.Errorf("link_click payload missing linkType")
	}
	return &data, nil
}
