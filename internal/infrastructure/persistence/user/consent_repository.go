package user

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/speakaboutai/micdrop-go/internal/domain/user"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/logging"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/database"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/security"
)

// SQLConsentRepository handles consent record persistence to the database.
// Records are append-only; the latest row per subject is the active choice.
type SQLConsentRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLConsentRepository creates a new instance of the repository.
func NewSQLConsentRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLConsentRepository {
	return &SQLConsentRepository{
		db:     db,
		logger: logger,
	}
}

// Store appends a consent record. The record's ID and Timestamp are assigned
// here.
func (r *SQLConsentRepository) Store(record *user.ConsentRecord) error {
	record.ID = security.GenerateULID()
	record.Timestamp = time.Now().UTC()

	prefsJSON, err := json.Marshal(record.Preferences)
	if err != nil {
		return fmt.Errorf("failed to encode consent preferences: %w", err)
	}

	const query = `
		INSERT INTO consent_records (id, user_id, email, preferences, ip_address, user_agent, version, source, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	_, err = r.db.Exec(query,
		record.ID, nullable(record.UserID), nullable(record.Email), string(prefsJSON),
		nullable(record.IPAddress), nullable(record.UserAgent),
		record.Version, record.Source, database.FormatTime(record.Timestamp),
	)
	if err != nil {
		r.logger.Database().Error("Consent record insert failed", "error", err.Error(), "source", record.Source)
		return fmt.Errorf("failed to store consent record: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	r.logger.System().Info("Consent recorded", "recordId", record.ID, "source", record.Source, "version", record.Version)
	return nil
}

// FindLatestByEmail retrieves the most recent consent record for an email,
// or nil when none exists.
func (r *SQLConsentRepository) FindLatestByEmail(email string) (*user.ConsentRecord, error) {
	return r.findLatest(`
		SELECT id, user_id, email, preferences, ip_address, user_agent, version, source, timestamp
		FROM consent_records
		WHERE email = ?
		ORDER BY timestamp DESC, rowid DESC
		LIMIT 1`, email)
}

// FindLatestByUser retrieves the most recent consent record for a user ID,
// or nil when none exists.
func (r *SQLConsentRepository) FindLatestByUser(userID string) (*user.ConsentRecord, error) {
	return r.findLatest(`
		SELECT id, user_id, email, preferences, ip_address, user_agent, version, source, timestamp
		FROM consent_records
		WHERE user_id = ?
		ORDER BY timestamp DESC, rowid DESC
		LIMIT 1`, userID)
}

func (r *SQLConsentRepository) findLatest(query, arg string) (*user.ConsentRecord, error) {
	var record user.ConsentRecord
	var userID, email, ipAddress, userAgent sql.NullString
	var prefsJSON, timestampStr string

	err := r.db.QueryRow(query, arg).Scan(
		&record.ID, &userID, &email, &prefsJSON,
		&ipAddress, &userAgent, &record.Version, &record.Source, &timestampStr,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Database().Error("Consent record lookup failed", "error", err.Error())
		return nil, fmt.Errorf("failed to find consent record: %w", err)
	}

	record.UserID = userID.String
	record.Email = email.String
	record.IPAddress = ipAddress.String
	record.UserAgent = userAgent.String

	if err := json.Unmarshal([]byte(prefsJSON), &record.Preferences); err != nil {
		return nil, fmt.Errorf("failed to decode consent preferences: %w", err)
	}
	if record.Timestamp, err = database.ParseTimestamp(timestampStr); err != nil {
		return nil, err
	}
	return &record, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
