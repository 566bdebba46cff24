// Package user defines speaker accounts, captured leads, and consent records.
package user

import "time"

// User is a speaker account that owns talk pages.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Capture tiers. "resources" unlocks gated content; "newsletter" is a plain
// signup without gating.
const (
	TierResources  = "resources"
	TierNewsletter = "newsletter"
)

// EmailCapture is the durable record of a captured lead, one per
// (email, talk page) pair.
type EmailCapture struct {
	ID         string    `json:"id"`
	TalkPageID string    `json:"talkPageId"`
	Email      string    `json:"email"`
	Name       string    `json:"name,omitempty"`
	Tier       string    `json:"tier"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ConsentPreferences holds the visitor's per-purpose consent flags.
// Necessary is always true.
type ConsentPreferences struct {
	Necessary  bool `json:"necessary"`
	Analytics  bool `json:"analytics"`
	Marketing  bool `json:"marketing"`
	Functional bool `json:"functional"`
}

// ConsentRecord is a compliance log entry for a consent decision.
type ConsentRecord struct {
	ID          string             `json:"id"`
	UserID      string             `json:"userId,omitempty"`
	Email       string             `json:"email,omitempty"`
	Preferences ConsentPreferences `json:"preferences"`
	IPAddress   string             `json:"ipAddress,omitempty"`
	UserAgent   string             `json:"userAgent,omitempty"`
	Version     string             `json:"version"`
	Source      string             `json:"source"`
	Timestamp   time.Time          `json:"timestamp"`
}
