// Package database provides schema instantiation
package database

import (
	"database/sql"
	"fmt"
)

// TableCreator handles the creation of the MicDrop database schema.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all necessary queries to build the tables and indexes.
func (tc *TableCreator) CreateSchema(db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS users (id TEXT PRIMARY KEY, name TEXT NOT NULL, email TEXT NOT NULL UNIQUE, password_hash TEXT NOT NULL, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS talk_pages (id TEXT PRIMARY KEY, slug TEXT NOT NULL UNIQUE, title TEXT NOT NULL, date TIMESTAMP NOT NULL, speaker_name TEXT NOT NULL, speaker_email TEXT NOT NULL, speaker_photo TEXT, speaker_bio TEXT, speaker_linkedin TEXT, hook TEXT, keynote_notes_url TEXT, keynote_slides_url TEXT, contact_email TEXT, calendar_link TEXT, newsletter_enabled BOOLEAN NOT NULL DEFAULT 0, newsletter_description TEXT, newsletter_signup_url TEXT, published BOOLEAN NOT NULL DEFAULT 0, user_id TEXT NOT NULL REFERENCES users(id), created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, updated_at TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS custom_gpts (id TEXT PRIMARY KEY, talk_page_id TEXT NOT NULL REFERENCES talk_pages(id), name TEXT NOT NULL, description TEXT NOT NULL, url TEXT NOT NULL, click_count INTEGER NOT NULL DEFAULT 0)`,
	`CREATE TABLE IF NOT EXISTS downloads (id TEXT PRIMARY KEY, talk_page_id TEXT NOT NULL REFERENCES talk_pages(id), title TEXT NOT NULL, description TEXT, file_url TEXT NOT NULL, requires_email BOOLEAN NOT NULL DEFAULT 1, click_count INTEGER NOT NULL DEFAULT 0)`,
	`CREATE TABLE IF NOT EXISTS business_links (id TEXT PRIMARY KEY, talk_page_id TEXT NOT NULL REFERENCES talk_pages(id), name TEXT NOT NULL, description TEXT NOT NULL, url TEXT NOT NULL, cta_text TEXT NOT NULL, click_count INTEGER NOT NULL DEFAULT 0)`,
	`CREATE TABLE IF NOT EXISTS tracked_events (id TEXT PRIMARY KEY, event TEXT NOT NULL, talk_page_id TEXT NOT NULL, payload TEXT NOT NULL, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS email_captures (id TEXT PRIMARY KEY, talk_page_id TEXT NOT NULL REFERENCES talk_pages(id), email TEXT NOT NULL, name TEXT, tier TEXT NOT NULL, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, UNIQUE(email, talk_page_id))`,
	`CREATE TABLE IF NOT EXISTS consent_records (id TEXT PRIMARY KEY, user_id TEXT, email TEXT, preferences TEXT NOT NULL, ip_address TEXT, user_agent TEXT, version TEXT NOT NULL, source TEXT NOT NULL, timestamp TIMESTAMP NOT NULL)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
	`CREATE INDEX IF NOT EXISTS idx_talk_pages_slug ON talk_pages(slug)`,
	`CREATE INDEX IF NOT EXISTS idx_talk_pages_user_id ON talk_pages(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_custom_gpts_talk_page_id ON custom_gpts(talk_page_id)`,
	`CREATE INDEX IF NOT EXISTS idx_custom_gpts_name ON custom_gpts(talk_page_id, name)`,
	`CREATE INDEX IF NOT EXISTS idx_downloads_talk_page_id ON downloads(talk_page_id)`,
	`CREATE INDEX IF NOT EXISTS idx_downloads_title ON downloads(talk_page_id, title)`,
	`CREATE INDEX IF NOT EXISTS idx_business_links_talk_page_id ON business_links(talk_page_id)`,
	`CREATE INDEX IF NOT EXISTS idx_business_links_name ON business_links(talk_page_id, name)`,
	`CREATE INDEX IF NOT EXISTS idx_tracked_events_page_event ON tracked_events(talk_page_id, event)`,
	`CREATE INDEX IF NOT EXISTS idx_tracked_events_created_at ON tracked_events(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_email_captures_talk_page_id ON email_captures(talk_page_id)`,
	`CREATE INDEX IF NOT EXISTS idx_consent_records_email ON consent_records(email)`,
	`CREATE INDEX IF NOT EXISTS idx_consent_records_user_id ON consent_records(user_id)`,
}
