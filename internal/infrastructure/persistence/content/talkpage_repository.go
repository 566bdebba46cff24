// Package content provides the concrete SQL-based implementation
// for talk page persistence.
package content

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/speakaboutai/micdrop-go/internal/domain/analytics"
	"github.com/speakaboutai/micdrop-go/internal/domain/content"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/logging"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/database"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/security"
)

// ErrTalkPageNotFound is returned when no talk page matches the lookup.
var ErrTalkPageNotFound = fmt.Errorf("talk page not found")

// SQLTalkPageRepository handles talk page persistence to the database.
type SQLTalkPageRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLTalkPageRepository creates a new instance of the repository.
func NewSQLTalkPageRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLTalkPageRepository {
	return &SQLTalkPageRepository{
		db:     db,
		logger: logger,
	}
}

const talkPageColumns = `id, slug, title, date, speaker_name, speaker_email, speaker_photo,
	speaker_bio, speaker_linkedin, hook, keynote_notes_url, keynote_slides_url,
	contact_email, calendar_link, newsletter_enabled, newsletter_description,
	newsletter_signup_url, published, user_id, created_at, updated_at`

// Create inserts a talk page together with its nested resources. The page's
// ID and timestamps are assigned here.
func (r *SQLTalkPageRepository) Create(page *content.TalkPage) error {
	page.ID = security.GenerateULID()
	page.CreatedAt = time.Now().UTC()
	page.UpdatedAt = page.CreatedAt

	start := time.Now()
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO talk_pages (` + talkPageColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = tx.Exec(query,
		page.ID, page.Slug, page.Title, database.FormatTime(page.Date),
		page.SpeakerName, page.SpeakerEmail, page.SpeakerPhoto,
		page.SpeakerBio, page.SpeakerLinkedIn, page.Hook,
		page.KeynoteNotesURL, page.KeynoteSlidesURL,
		page.ContactEmail, page.CalendarLink,
		page.NewsletterEnabled, page.NewsletterDescription, page.NewsletterSignupURL,
		page.Published, page.UserID,
		database.FormatTime(page.CreatedAt), database.FormatTime(page.UpdatedAt),
	)
	if err != nil {
		r.logger.Database().Error("Talk page insert failed", "error", err.Error(), "slug", page.Slug)
		return fmt.Errorf("failed to create talk page: %w", err)
	}

	if err := r.writeChildren(tx, page); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit talk page create: %w", err)
	}

	r.logger.Database().Info("Talk page created", "id", page.ID, "slug", page.Slug, "duration", time.Since(start))
	return nil
}

// Update rewrites a talk page and reconciles its nested resources. Resources
// that keep their ID are updated in place so their click counters survive;
// resources without an ID are inserted; rows absent from the incoming set
// are removed.
func (r *SQLTalkPageRepository) Update(page *content.TalkPage) error {
	page.UpdatedAt = time.Now().UTC()

	start := time.Now()
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		UPDATE talk_pages SET
			slug = ?, title = ?, date = ?, speaker_name = ?, speaker_email = ?,
			speaker_photo = ?, speaker_bio = ?, speaker_linkedin = ?, hook = ?,
			keynote_notes_url = ?, keynote_slides_url = ?, contact_email = ?,
			calendar_link = ?, newsletter_enabled = ?, newsletter_description = ?,
			newsletter_signup_url = ?, published = ?, updated_at = ?
		WHERE id = ?`

	result, err := tx.Exec(query,
		page.Slug, page.Title, database.FormatTime(page.Date),
		page.SpeakerName, page.SpeakerEmail, page.SpeakerPhoto,
		page.SpeakerBio, page.SpeakerLinkedIn, page.Hook,
		page.KeynoteNotesURL, page.KeynoteSlidesURL,
		page.ContactEmail, page.CalendarLink,
		page.NewsletterEnabled, page.NewsletterDescription, page.NewsletterSignupURL,
		page.Published, database.FormatTime(page.UpdatedAt),
		page.ID,
	)
	if err != nil {
		r.logger.Database().Error("Talk page update failed", "error", err.Error(), "id", page.ID)
		return fmt.Errorf("failed to update talk page: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrTalkPageNotFound
	}

	if err := r.reconcileChildren(tx, page); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit talk page update: %w", err)
	}

	r.logger.Database().Info("Talk page updated", "id", page.ID, "slug", page.Slug, "duration", time.Since(start))
	return nil
}

// Delete removes a talk page with its nested resources, captures, and events.
func (r *SQLTalkPageRepository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, query := range []string{
		`DELETE FROM custom_gpts WHERE talk_page_id = ?`,
		`DELETE FROM downloads WHERE talk_page_id = ?`,
		`DELETE FROM business_links WHERE talk_page_id = ?`,
		`DELETE FROM email_captures WHERE talk_page_id = ?`,
		`DELETE FROM tracked_events WHERE talk_page_id = ?`,
	} {
		if _, err := tx.Exec(query, id); err != nil {
			r.logger.Database().Error("Talk page cascade delete failed", "error", err.Error(), "id", id)
			return fmt.Errorf("failed to delete talk page resources: %w", err)
		}
	}

	result, err := tx.Exec(`DELETE FROM talk_pages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete talk page: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrTalkPageNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit talk page delete: %w", err)
	}

	r.logger.Database().Info("Talk page deleted", "id", id)
	return nil
}

// FindByID retrieves a talk page with its nested resources.
func (r *SQLTalkPageRepository) FindByID(id string) (*content.TalkPage, error) {
	return r.findOne(`SELECT `+talkPageColumns+` FROM talk_pages WHERE id = ?`, id)
}

// FindBySlug retrieves a talk page by its public slug.
func (r *SQLTalkPageRepository) FindBySlug(slug string) (*content.TalkPage, error) {
	return r.findOne(`SELECT `+talkPageColumns+` FROM talk_pages WHERE slug = ?`, slug)
}

// FindByIDAndUser retrieves a talk page only when it belongs to the user.
// A page owned by someone else is indistinguishable from a missing one.
func (r *SQLTalkPageRepository) FindByIDAndUser(id, userID string) (*content.TalkPage, error) {
	return r.findOne(`SELECT `+talkPageColumns+` FROM talk_pages WHERE id = ? AND user_id = ?`, id, userID)
}

func (r *SQLTalkPageRepository) findOne(query string, args ...any) (*content.TalkPage, error) {
	start := time.Now()
	page, err := r.scanPage(r.db.QueryRow(query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTalkPageNotFound
		}
		r.logger.Database().Error("Talk page lookup failed", "error", err.Error())
		return nil, fmt.Errorf("failed to find talk page: %w", err)
	}

	if err := r.loadChildren(page); err != nil {
		return nil, err
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return page, nil
}

// ListByUser retrieves all of a user's talk pages with nested resources and
// rollup counts for the dashboard, newest first.
func (r *SQLTalkPageRepository) ListByUser(userID string) ([]*content.PageSummary, error) {
	query := `
		SELECT ` + talkPageColumns + `,
			(SELECT COUNT(*) FROM email_captures ec WHERE ec.talk_page_id = talk_pages.id),
			(SELECT COUNT(*) FROM tracked_events te WHERE te.talk_page_id = talk_pages.id AND te.event = ?)
		FROM talk_pages
		WHERE user_id = ?
		ORDER BY created_at DESC`

	start := time.Now()
	rows, err := r.db.Query(query, string(analytics.EventPageView), userID)
	if err != nil {
		r.logger.Database().Error("Failed to list talk pages", "error", err.Error(), "userId", userID)
		return nil, fmt.Errorf("failed to list talk pages: %w", err)
	}
	defer rows.Close()

	summaries := []*content.PageSummary{}
	for rows.Next() {
		summary, err := r.scanSummary(rows)
		if err != nil {
			r.logger.Database().Error("Failed to scan talk page row", "error", err.Error())
			continue
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, summary := range summaries {
		if err := r.loadChildren(&summary.TalkPage); err != nil {
			return nil, err
		}
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return summaries, nil
}

// SlugExists reports whether a slug is already taken.
func (r *SQLTalkPageRepository) SlugExists(slug string) (bool, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM talk_pages WHERE slug = ?`, slug).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return count > 0, nil
}

// IncrementClickCount bumps the counter on the resource row identified by
// link type and ID, inside the given transaction. Returns false when no row
// matched.
func (r *SQLTalkPageRepository) IncrementClickCount(tx *sql.Tx, linkType analytics.LinkType, linkID string) (bool, error) {
	table, ok := linkTable(linkType)
	if !ok {
		return false, nil
	}

	query := `UPDATE ` + table + ` SET click_count = click_count + 1 WHERE id = ?`
	start := time.Now()
	result, err := tx.Exec(query, linkID)
	if err != nil {
		r.logger.Database().Error("Click count update failed",
			"error", err.Error(),
			"linkType", string(linkType),
			"linkId", linkID)
		return false, fmt.Errorf("failed to increment click count: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return affected > 0, nil
}

// ResolveLinkID finds the resource row for a talk page by its display name
// and returns its stable ID. Returns empty string when nothing matches.
func (r *SQLTalkPageRepository) ResolveLinkID(talkPageID string, linkType analytics.LinkType, name string) (string, error) {
	var query string
	switch linkType {
	case analytics.LinkTypeGPT:
		query = `SELECT id FROM custom_gpts WHERE talk_page_id = ? AND name = ?`
	case analytics.LinkTypeResource:
		query = `SELECT id FROM downloads WHERE talk_page_id = ? AND title = ?`
	case analytics.LinkTypeBusiness:
		query = `SELECT id FROM business_links WHERE talk_page_id = ? AND name = ?`
	default:
		return "", nil
	}

	var id string
	err := r.db.QueryRow(query, talkPageID, name).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve link: %w", err)
	}
	return id, nil
}

// TopResources returns the click ranking of one resource table for a talk
// page, highest count first. The query is unbounded; a page only ever has a
// handful of resources.
func (r *SQLTalkPageRepository) TopResources(talkPageID string, linkType analytics.LinkType) ([]analytics.RankedResource, error) {
	var query string
	switch linkType {
	case analytics.LinkTypeGPT:
		query = `SELECT id, name, click_count FROM custom_gpts WHERE talk_page_id = ? ORDER BY click_count DESC, name ASC`
	case analytics.LinkTypeResource:
		query = `SELECT id, title, click_count FROM downloads WHERE talk_page_id = ? ORDER BY click_count DESC, title ASC`
	case analytics.LinkTypeBusiness:
		query = `SELECT id, name, click_count FROM business_links WHERE talk_page_id = ? ORDER BY click_count DESC, name ASC`
	default:
		return nil, fmt.Errorf("unknown link type: %s", linkType)
	}

	start := time.Now()
	rows, err := r.db.Query(query, talkPageID)
	if err != nil {
		r.logger.Database().Error("Failed to query top resources", "error", err.Error(), "linkType", string(linkType))
		return nil, fmt.Errorf("failed to query top resources: %w", err)
	}
	defer rows.Close()

	ranked := []analytics.RankedResource{}
	for rows.Next() {
		var res analytics.RankedResource
		if err := rows.Scan(&res.ID, &res.Name, &res.ClickCount); err != nil {
			continue
		}
		ranked = append(ranked, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return ranked, nil
}

func linkTable(linkType analytics.LinkType) (string, bool) {
	switch linkType {
	case analytics.LinkTypeGPT:
		return "custom_gpts", true
	case analytics.LinkTypeResource:
		return "downloads", true
	case analytics.LinkTypeBusiness:
		return "business_links", true
	default:
		return "", false
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLTalkPageRepository) scanPage(row rowScanner) (*content.TalkPage, error) {
	var page content.TalkPage
	var dateStr, createdAtStr string
	var updatedAtStr sql.NullString
	var photo, bio, linkedin, hook sql.NullString
	var notesURL, slidesURL, contactEmail, calendarLink sql.NullString
	var newsDesc, newsURL sql.NullString

	err := row.Scan(
		&page.ID, &page.Slug, &page.Title, &dateStr,
		&page.SpeakerName, &page.SpeakerEmail, &photo,
		&bio, &linkedin, &hook,
		&notesURL, &slidesURL, &contactEmail, &calendarLink,
		&page.NewsletterEnabled, &newsDesc, &newsURL,
		&page.Published, &page.UserID, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	page.SpeakerPhoto = photo.String
	page.SpeakerBio = bio.String
	page.SpeakerLinkedIn = linkedin.String
	page.Hook = hook.String
	page.KeynoteNotesURL = notesURL.String
	page.KeynoteSlidesURL = slidesURL.String
	page.ContactEmail = contactEmail.String
	page.CalendarLink = calendarLink.String
	page.NewsletterDescription = newsDesc.String
	page.NewsletterSignupURL = newsURL.String

	if page.Date, err = database.ParseTimestamp(dateStr); err != nil {
		return nil, err
	}
	if page.CreatedAt, err = database.ParseTimestamp(createdAtStr); err != nil {
		return nil, err
	}
	if updatedAtStr.Valid {
		if page.UpdatedAt, err = database.ParseTimestamp(updatedAtStr.String); err != nil {
			return nil, err
		}
	}
	return &page, nil
}

func (r *SQLTalkPageRepository) scanSummary(rows *sql.Rows) (*content.PageSummary, error) {
	var summary content.PageSummary
	var dateStr, createdAtStr string
	var updatedAtStr sql.NullString
	var photo, bio, linkedin, hook sql.NullString
	var notesURL, slidesURL, contactEmail, calendarLink sql.NullString
	var newsDesc, newsURL sql.NullString

	err := rows.Scan(
		&summary.ID, &summary.Slug, &summary.Title, &dateStr,
		&summary.SpeakerName, &summary.SpeakerEmail, &photo,
		&bio, &linkedin, &hook,
		&notesURL, &slidesURL, &contactEmail, &calendarLink,
		&summary.NewsletterEnabled, &newsDesc, &newsURL,
		&summary.Published, &summary.UserID, &createdAtStr, &updatedAtStr,
		&summary.EmailCaptureCount, &summary.PageViewCount,
	)
	if err != nil {
		return nil, err
	}

	summary.SpeakerPhoto = photo.String
	summary.SpeakerBio = bio.String
	summary.SpeakerLinkedIn = linkedin.String
	summary.Hook = hook.String
	summary.KeynoteNotesURL = notesURL.String
	summary.KeynoteSlidesURL = slidesURL.String
	summary.ContactEmail = contactEmail.String
	summary.CalendarLink = calendarLink.String
	summary.NewsletterDescription = newsDesc.String
	summary.NewsletterSignupURL = newsURL.String

	if summary.Date, err = database.ParseTimestamp(dateStr); err != nil {
		return nil, err
	}
	if summary.CreatedAt, err = database.ParseTimestamp(createdAtStr); err != nil {
		return nil, err
	}
	if updatedAtStr.Valid {
		if summary.UpdatedAt, err = database.ParseTimestamp(updatedAtStr.String); err != nil {
			return nil, err
		}
	}
	return &summary, nil
}

func (r *SQLTalkPageRepository) loadChildren(page *content.TalkPage) error {
	page.CustomGpts = []content.CustomGPT{}
	page.Downloads = []content.Download{}
	page.BusinessLinks = []content.BusinessLink{}

	rows, err := r.db.Query(`SELECT id, talk_page_id, name, description, url, click_count FROM custom_gpts WHERE talk_page_id = ? ORDER BY name`, page.ID)
	if err != nil {
		return fmt.Errorf("failed to load custom gpts: %w", err)
	}
	for rows.Next() {
		var gpt content.CustomGPT
		if err := rows.Scan(&gpt.ID, &gpt.TalkPageID, &gpt.Name, &gpt.Description, &gpt.URL, &gpt.ClickCount); err != nil {
			rows.Close()
			return err
		}
		page.CustomGpts = append(page.CustomGpts, gpt)
	}
	rows.Close()

	rows, err = r.db.Query(`SELECT id, talk_page_id, title, description, file_url, requires_email, click_count FROM downloads WHERE talk_page_id = ? ORDER BY title`, page.ID)
	if err != nil {
		return fmt.Errorf("failed to load downloads: %w", err)
	}
	for rows.Next() {
		var dl content.Download
		var desc sql.NullString
		if err := rows.Scan(&dl.ID, &dl.TalkPageID, &dl.Title, &desc, &dl.FileURL, &dl.RequiresEmail, &dl.ClickCount); err != nil {
			rows.Close()
			return err
		}
		dl.Description = desc.String
		page.Downloads = append(page.Downloads, dl)
	}
	rows.Close()

	rows, err = r.db.Query(`SELECT id, talk_page_id, name, description, url, cta_text, click_count FROM business_links WHERE talk_page_id = ? ORDER BY name`, page.ID)
	if err != nil {
		return fmt.Errorf("failed to load business links: %w", err)
	}
	for rows.Next() {
		var link content.BusinessLink
		if err := rows.Scan(&link.ID, &link.TalkPageID, &link.Name, &link.Description, &link.URL, &link.CTAText, &link.ClickCount); err != nil {
			rows.Close()
			return err
		}
		page.BusinessLinks = append(page.BusinessLinks, link)
	}
	rows.Close()

	return nil
}

func (r *SQLTalkPageRepository) writeChildren(tx *sql.Tx, page *content.TalkPage) error {
	for i := range page.CustomGpts {
		gpt := &page.CustomGpts[i]
		gpt.ID = security.GenerateULID()
		gpt.TalkPageID = page.ID
		_, err := tx.Exec(
			`INSERT INTO custom_gpts (id, talk_page_id, name, description, url, click_count) VALUES (?, ?, ?, ?, ?, ?)`,
			gpt.ID, gpt.TalkPageID, gpt.Name, gpt.Description, gpt.URL, 0,
		)
		if err != nil {
			return fmt.Errorf("failed to insert custom gpt: %w", err)
		}
	}

	for i := range page.Downloads {
		dl := &page.Downloads[i]
		dl.ID = security.GenerateULID()
		dl.TalkPageID = page.ID
		_, err := tx.Exec(
			`INSERT INTO downloads (id, talk_page_id, title, description, file_url, requires_email, click_count) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			dl.ID, dl.TalkPageID, dl.Title, dl.Description, dl.FileURL, dl.RequiresEmail, 0,
		)
		if err != nil {
			return fmt.Errorf("failed to insert download: %w", err)
		}
	}

	for i := range page.BusinessLinks {
		link := &page.BusinessLinks[i]
		link.ID = security.GenerateULID()
		link.TalkPageID = page.ID
		_, err := tx.Exec(
			`INSERT INTO business_links (id, talk_page_id, name, description, url, cta_text, click_count) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			link.ID, link.TalkPageID, link.Name, link.Description, link.URL, link.CTAText, 0,
		)
		if err != nil {
			return fmt.Errorf("failed to insert business link: %w", err)
		}
	}

	return nil
}

// reconcileChildren updates resources that kept their ID, inserts new ones,
// and deletes rows the incoming set no longer contains. In-place updates do
// not touch click_count.
func (r *SQLTalkPageRepository) reconcileChildren(tx *sql.Tx, page *content.TalkPage) error {
	keepGpts := make([]string, 0, len(page.CustomGpts))
	for i := range page.CustomGpts {
		gpt := &page.CustomGpts[i]
		gpt.TalkPageID = page.ID
		if gpt.ID == "" {
			gpt.ID = security.GenerateULID()
			_, err := tx.Exec(
				`INSERT INTO custom_gpts (id, talk_page_id, name, description, url, click_count) VALUES (?, ?, ?, ?, ?, ?)`,
				gpt.ID, gpt.TalkPageID, gpt.Name, gpt.Description, gpt.URL, 0,
			)
			if err != nil {
				return fmt.Errorf("failed to insert custom gpt: %w", err)
			}
		} else {
			_, err := tx.Exec(
				`UPDATE custom_gpts SET name = ?, description = ?, url = ? WHERE id = ? AND talk_page_id = ?`,
				gpt.Name, gpt.Description, gpt.URL, gpt.ID, page.ID,
			)
			if err != nil {
				return fmt.Errorf("failed to update custom gpt: %w", err)
			}
		}
		keepGpts = append(keepGpts, gpt.ID)
	}
	if err := deleteAbsent(tx, "custom_gpts", page.ID, keepGpts); err != nil {
		return err
	}

	keepDownloads := make([]string, 0, len(page.Downloads))
	for i := range page.Downloads {
		dl := &page.Downloads[i]
		dl.TalkPageID = page.ID
		if dl.ID == "" {
			dl.ID = security.GenerateULID()
			_, err := tx.Exec(
				`INSERT INTO downloads (id, talk_page_id, title, description, file_url, requires_email, click_count) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				dl.ID, dl.TalkPageID, dl.Title, dl.Description, dl.FileURL, dl.RequiresEmail, 0,
			)
			if err != nil {
				return fmt.Errorf("failed to insert download: %w", err)
			}
		} else {
			_, err := tx.Exec(
				`UPDATE downloads SET title = ?, description = ?, file_url = ?, requires_email = ? WHERE id = ? AND talk_page_id = ?`,
				dl.Title, dl.Description, dl.FileURL, dl.RequiresEmail, dl.ID, page.ID,
			)
			if err != nil {
				return fmt.Errorf("failed to update download: %w", err)
			}
		}
		keepDownloads = append(keepDownloads, dl.ID)
	}
	if err := deleteAbsent(tx, "downloads", page.ID, keepDownloads); err != nil {
		return err
	}

	keepLinks := make([]string, 0, len(page.BusinessLinks))
	for i := range page.BusinessLinks {
		link := &page.BusinessLinks[i]
		link.TalkPageID = page.ID
		if link.ID == "" {
			link.ID = security.GenerateULID()
			_, err := tx.Exec(
				`INSERT INTO business_links (id, talk_page_id, name, description, url, cta_text, click_count) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				link.ID, link.TalkPageID, link.Name, link.Description, link.URL, link.CTAText, 0,
			)
			if err != nil {
				return fmt.Errorf("failed to insert business link: %w", err)
			}
		} else {
			_, err := tx.Exec(
				`UPDATE business_links SET name = ?, description = ?, url = ?, cta_text = ? WHERE id = ? AND talk_page_id = ?`,
				link.Name, link.Description, link.URL, link.CTAText, link.ID, page.ID,
			)
			if err != nil {
				return fmt.Errorf("failed to update business link: %w", err)
			}
		}
		keepLinks = append(keepLinks, link.ID)
	}
	if err := deleteAbsent(tx, "business_links", page.ID, keepLinks); err != nil {
		return err
	}

	return nil
}

func deleteAbsent(tx *sql.Tx, table, talkPageID string, keepIDs []string) error {
	if len(keepIDs) == 0 {
		_, err := tx.Exec(`DELETE FROM `+table+` WHERE talk_page_id = ?`, talkPageID)
		if err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keepIDs)), ", ")
	args := make([]any, 0, len(keepIDs)+1)
	args = append(args, talkPageID)
	for _, id := range keepIDs {
		args = append(args, id)
	}

	_, err := tx.Exec(`DELETE FROM `+table+` WHERE talk_page_id = ? AND id NOT IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("failed to prune %s: %w", table, err)
	}
	return nil
}
