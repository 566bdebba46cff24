// Package analytics defines the tracked event model for the ingestion pipeline.
package analytics

import "time"

// EventKind identifies the fixed set of visitor interaction events.
type EventKind string

const (
	EventPageView     EventKind = "page_view"
	EventLinkClick    EventKind = "link_click"
	EventEmailCapture EventKind = "email_capture"
)

// IsValid reports whether the kind is one of the recognized event kinds.
func (k EventKind) IsValid() bool {
	switch k {
	case EventPageView, EventLinkClick, EventEmailCapture:
		return true
	}
	return false
}

// LinkType distinguishes what category of link was clicked.
type LinkType string

const (
	LinkTypeGPT      LinkType = "gpt"
	LinkTypeResource LinkType = "resource"
	LinkTypeBusiness LinkType = "business"
	LinkTypeSocial   LinkType = "social"
)

// TrackedEvent is an immutable fact about a visitor interaction. The payload
// shape is determined entirely by Kind; CreatedAt is server-assigned.
type TrackedEvent struct {
	ID         string         `json:"id"`
	Kind       EventKind      `json:"event"`
	TalkPageID string         `json:"talkPageId"`
	Payload    map[string]any `json:"data"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// PageViewData is the payload for page_view events.
type PageViewData struct {
	Referrer  string `json:"referrer,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

// LinkClickData is the payload for link_click events. LinkID is optional;
// when present the collector increments by stable ID instead of resolving
// the resource by display name.
type LinkClickData struct {
	LinkType       LinkType `json:"linkType"`
	LinkID         string   `json:"linkId,omitempty"`
	LinkName       string   `json:"linkName"`
	DestinationURL string   `json:"destinationUrl,omitempty"`
}

// EmailCaptureData is the payload for email_capture events.
type EmailCaptureData struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Tier  string `json:"tier,omitempty"`
}

// RankedResource is one entry in a per-kind top list, ranked by click count.
type RankedResource struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ClickCount int    `json:"clickCount"`
}

// RankedDownload is the download variant of a top-list entry. Downloads keep
// their historical wire names, title and downloadCount.
type RankedDownload struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	DownloadCount int    `json:"downloadCount"`
}

// Overview holds the headline metrics for one talk page.
type Overview struct {
	PageViews      int     `json:"pageViews"`
	LinkClicks     int     `json:"linkClicks"`
	EmailCaptures  int     `json:"emailCaptures"`
	ConversionRate float64 `json:"conversionRate"`
}
