// Package analytics provides the concrete SQL-based implementation
// for tracked event persistence.
//
// PURPOSE: Store visitor interaction events as they are ingested and serve
// the read paths the aggregator needs (per-kind counts, recent activity,
// retention purge). Counter updates live with the content repository; the
// two writes share one transaction at the service layer.
package analytics

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/speakaboutai/micdrop-go/internal/domain/analytics"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/logging"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/database"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/security"
)

// SQLEventRepository handles tracked event persistence to the database.
type SQLEventRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLEventRepository creates a new instance of the repository.
func NewSQLEventRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLEventRepository {
	return &SQLEventRepository{
		db:     db,
		logger: logger,
	}
}

// StoreEvent saves a tracked event inside the given transaction. The event's
// ID and CreatedAt are assigned here; the row is immutable afterward.
func (r *SQLEventRepository) StoreEvent(tx *sql.Tx, event *analytics.TrackedEvent) error {
	event.ID = security.GenerateULID()
	event.CreatedAt = time.Now().UTC()

	payload := event.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode event payload: %w", err)
	}

	const query = `
		INSERT INTO tracked_events (id, event, talk_page_id, payload, created_at)
		VALUES (?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing tracked event insert",
		"eventId", event.ID,
		"event", string(event.Kind),
		"talkPageId", event.TalkPageID)

	_, err = tx.Exec(
		query,
		event.ID,
		string(event.Kind),
		event.TalkPageID,
		string(payloadJSON),
		database.FormatTime(event.CreatedAt),
	)
	if err != nil {
		r.logger.Database().Error("Tracked event insert failed",
			"error", err.Error(),
			"eventId", event.ID,
			"event", string(event.Kind),
			"talkPageId", event.TalkPageID)
		return fmt.Errorf("failed to store tracked event: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return nil
}

// CountByKind returns how many events of one kind exist for a talk page.
func (r *SQLEventRepository) CountByKind(talkPageID string, kind analytics.EventKind) (int, error) {
	const query = `SELECT COUNT(*) FROM tracked_events WHERE talk_page_id = ? AND event = ?`

	start := time.Now()
	var count int
	err := r.db.QueryRow(query, talkPageID, string(kind)).Scan(&count)
	if err != nil {
		r.logger.Database().Error("Failed to count tracked events",
			"error", err.Error(),
			"talkPageId", talkPageID,
			"event", string(kind))
		return 0, fmt.Errorf("failed to count tracked events: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return count, nil
}

// FindRecent retrieves the most recent events for a talk page, newest first.
func (r *SQLEventRepository) FindRecent(talkPageID string, limit int) ([]*analytics.TrackedEvent, error) {
	const query = `
		SELECT id, event, talk_page_id, payload, created_at
		FROM tracked_events
		WHERE talk_page_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`

	start := time.Now()
	rows, err := r.db.Query(query, talkPageID, limit)
	if err != nil {
		r.logger.Database().Error("Failed to query recent events", "error", err.Error(), "talkPageId", talkPageID)
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	events := []*analytics.TrackedEvent{}
	for rows.Next() {
		var event analytics.TrackedEvent
		var kind, payloadJSON, createdAtStr string

		if err := rows.Scan(&event.ID, &kind, &event.TalkPageID, &payloadJSON, &createdAtStr); err != nil {
			r.logger.Database().Error("Failed to scan tracked event row", "error", err.Error())
			continue
		}

		event.Kind = analytics.EventKind(kind)

		if err := json.Unmarshal([]byte(payloadJSON), &event.Payload); err != nil {
			r.logger.Database().Error("Failed to decode event payload", "error", err.Error(), "eventId", event.ID)
			event.Payload = map[string]any{}
		}

		event.CreatedAt, err = database.ParseTimestamp(createdAtStr)
		if err != nil {
			r.logger.Database().Error("Failed to parse event timestamp", "error", err.Error(), "timestamp", createdAtStr)
			continue
		}

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		r.logger.Database().Error("Row iteration error for recent events", "error", err.Error())
		return nil, err
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return events, nil
}

// DeleteOlderThan purges events past the retention window and reports how
// many rows were removed.
func (r *SQLEventRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	const query = `DELETE FROM tracked_events WHERE created_at < ?`

	start := time.Now()
	result, err := r.db.Exec(query, database.FormatTime(cutoff))
	if err != nil {
		r.logger.Database().Error("Failed to purge tracked events", "error", err.Error(), "cutoff", cutoff)
		return 0, fmt.Errorf("failed to purge tracked events: %w", err)
	}

	purged, err := result.RowsAffected()
	if err != nil {
		purged = 0
	}

	if purged > 0 {
		r.logger.Database().Info("Tracked events purged", "count", purged, "cutoff", cutoff, "duration", time.Since(start))
	}
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return purged, nil
}
