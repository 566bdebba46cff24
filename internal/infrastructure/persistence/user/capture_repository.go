package user

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/speakaboutai/micdrop-go/internal/domain/user"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/logging"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/database"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/security"
)

// SQLCaptureRepository handles email capture persistence to the database.
type SQLCaptureRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLCaptureRepository creates a new instance of the repository.
func NewSQLCaptureRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLCaptureRepository {
	return &SQLCaptureRepository{
		db:     db,
		logger: logger,
	}
}

// Store records an email capture for a talk page. Capturing the same email
// twice on one page is not an error: the existing row is returned and isNew
// is false. A repeat capture may upgrade the stored name or tier when the
// first submission left them empty.
func (r *SQLCaptureRepository) Store(capture *user.EmailCapture) (isNew bool, err error) {
	capture.Email = strings.ToLower(strings.TrimSpace(capture.Email))

	existing, err := r.FindByEmailAndPage(capture.Email, capture.TalkPageID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if existing.Name == "" && capture.Name != "" {
			if _, err := r.db.Exec(`UPDATE email_captures SET name = ? WHERE id = ?`, capture.Name, existing.ID); err != nil {
				r.logger.Database().Error("Capture name update failed", "error", err.Error(), "captureId", existing.ID)
			} else {
				existing.Name = capture.Name
			}
		}
		*capture = *existing
		return false, nil
	}

	capture.ID = security.GenerateULID()
	capture.CreatedAt = time.Now().UTC()

	const query = `
		INSERT INTO email_captures (id, talk_page_id, email, name, tier, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	start := time.Now()
	_, err = r.db.Exec(query,
		capture.ID, capture.TalkPageID, capture.Email, capture.Name, capture.Tier,
		database.FormatTime(capture.CreatedAt),
	)
	if err != nil {
		// Concurrent submit of the same email can lose the race between the
		// lookup above and this insert. Treat the constraint hit as a repeat.
		if isUniqueViolation(err) {
			existing, lookupErr := r.FindByEmailAndPage(capture.Email, capture.TalkPageID)
			if lookupErr == nil && existing != nil {
				*capture = *existing
				return false, nil
			}
		}
		r.logger.Database().Error("Email capture insert failed",
			"error", err.Error(),
			"talkPageId", capture.TalkPageID)
		return false, fmt.Errorf("failed to store email capture: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	r.logger.Capture().Info("Email captured",
		"captureId", capture.ID,
		"talkPageId", capture.TalkPageID,
		"tier", capture.Tier)
	return true, nil
}

// FindByEmailAndPage retrieves one capture row, or nil when none exists.
func (r *SQLCaptureRepository) FindByEmailAndPage(email, talkPageID string) (*user.EmailCapture, error) {
	const query = `
		SELECT id, talk_page_id, email, name, tier, created_at
		FROM email_captures
		WHERE email = ? AND talk_page_id = ?`

	capture, err := r.scanCapture(r.db.QueryRow(query, strings.ToLower(strings.TrimSpace(email)), talkPageID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Database().Error("Email capture lookup failed", "error", err.Error(), "talkPageId", talkPageID)
		return nil, fmt.Errorf("failed to find email capture: %w", err)
	}
	return capture, nil
}

// ListByPage retrieves all captures for a talk page, newest first.
func (r *SQLCaptureRepository) ListByPage(talkPageID string) ([]*user.EmailCapture, error) {
	const query = `
		SELECT id, talk_page_id, email, name, tier, created_at
		FROM email_captures
		WHERE talk_page_id = ?
		ORDER BY created_at DESC`

	start := time.Now()
	rows, err := r.db.Query(query, talkPageID)
	if err != nil {
		r.logger.Database().Error("Failed to list email captures", "error", err.Error(), "talkPageId", talkPageID)
		return nil, fmt.Errorf("failed to list email captures: %w", err)
	}
	defer rows.Close()

	captures := []*user.EmailCapture{}
	for rows.Next() {
		capture, err := r.scanCapture(rows)
		if err != nil {
			r.logger.Database().Error("Failed to scan email capture row", "error", err.Error())
			continue
		}
		captures = append(captures, capture)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return captures, nil
}

// CountByPage returns the number of captured emails for a talk page.
func (r *SQLCaptureRepository) CountByPage(talkPageID string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM email_captures WHERE talk_page_id = ?`, talkPageID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count email captures: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLCaptureRepository) scanCapture(row rowScanner) (*user.EmailCapture, error) {
	var capture user.EmailCapture
	var name sql.NullString
	var createdAtStr string

	err := row.Scan(&capture.ID, &capture.TalkPageID, &capture.Email, &name, &capture.Tier, &createdAtStr)
	if err != nil {
		return nil, err
	}
	capture.Name = name.String

	if capture.CreatedAt, err = database.ParseTimestamp(createdAtStr); err != nil {
		return nil, err
	}
	return &capture, nil
}
