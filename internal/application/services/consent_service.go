package services

import (
	"github.com/speakaboutai/micdrop-go/internal/domain/user"
	userRepo "github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/user"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/logging"
	"github.com/speakaboutai/micdrop-go/pkg/config"
)

// ConsentService records and retrieves visitor consent choices. Records are
// append-only; the newest record wins.
type ConsentService struct {
	consentRepo *userRepo.SQLConsentRepository
	logger      *logging.ChanneledLogger
}

// NewConsentService creates a new consent service with its dependencies.
func NewConsentService(repo *userRepo.SQLConsentRepository, logger *logging.ChanneledLogger) *ConsentService {
	return &ConsentService{
		consentRepo: repo,
		logger:      logger,
	}
}

// Record stores a consent choice. Necessary is always forced on; the policy
// version is stamped from configuration when the caller leaves it empty.
func (s *ConsentService) Record(record *user.ConsentRecord) error {
	record.Preferences.Necessary = true
	if record.Version == "" {
		record.Version = config.ConsentVersion
	}
	if record.Source == "" {
		record.Source = "banner"
	}
	return s.consentRepo.Store(record)
}

// LatestForEmail returns the active consent choice for an email, or nil.
func (s *ConsentService) LatestForEmail(email string) (*user.ConsentRecord, error) {
	return s.consentRepo.FindLatestByEmail(email)
}

// LatestForUser returns the active consent choice for a user ID, or nil.
func (s *ConsentService) LatestForUser(userID string) (*user.ConsentRecord, error) {
	return s.consentRepo.FindLatestByUser(userID)
}
