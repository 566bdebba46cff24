package services

import (
	"context"
	"time"

	analyticsRepo "github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/analytics"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/logging"
	"github.com/speakaboutai/micdrop-go/pkg/config"
)

// RetentionService purges tracked events older than the retention window on
// a fixed interval. Resource click counters are unaffected; only the raw
// event rows age out.
type RetentionService struct {
	eventRepo *analyticsRepo.SQLEventRepository
	retention time.Duration
	period    time.Duration
	logger    *logging.ChanneledLogger
}

// NewRetentionService creates a new retention service with its dependencies.
func NewRetentionService(eventRepo *analyticsRepo.SQLEventRepository, logger *logging.ChanneledLogger) *RetentionService {
	return &RetentionService{
		eventRepo: eventRepo,
		retention: config.EventRetention,
		period:    config.RetentionSweepPeriod,
		logger:    logger,
	}
}

// Start runs the sweep loop until the context is cancelled. One sweep runs
// immediately so a long-stopped server catches up on startup.
func (s *RetentionService) Start(ctx context.Context) {
	s.Sweep()

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.System().Info("Retention sweep loop stopped")
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep deletes events past the retention window once.
func (s *RetentionService) Sweep() {
	cutoff := time.Now().UTC().Add(-s.retention)
	purged, err := s.eventRepo.DeleteOlderThan(cutoff)
	if err != nil {
		s.logger.System().Error("Retention sweep failed", "error", err.Error())
		return
	}
	if purged > 0 {
		s.logger.System().Info("Retention sweep complete", "purged", purged, "cutoff", cutoff)
	}
}
