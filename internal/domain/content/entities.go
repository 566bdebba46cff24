// Package content defines the talk page entities and their nested resources.
package content

import "time"

// TalkPage is a speaker's landing page for a single talk.
type TalkPage struct {
	ID              string    `json:"id"`
	Slug            string    `json:"slug"`
	Title           string    `json:"title"`
	Date            time.Time `json:"date"`
	SpeakerName     string    `json:"speakerName"`
	SpeakerEmail    string    `json:"speakerEmail"`
	SpeakerPhoto    string    `json:"speakerPhoto,omitempty"`
	SpeakerBio      string    `json:"speakerBio,omitempty"`
	SpeakerLinkedIn string    `json:"speakerLinkedIn,omitempty"`
	Hook            string    `json:"hook,omitempty"`

	KeynoteNotesURL  string `json:"keynoteNotesUrl,omitempty"`
	KeynoteSlidesURL string `json:"keynoteSlidesUrl,omitempty"`
	ContactEmail     string `json:"contactEmail,omitempty"`
	CalendarLink     string `json:"calendarLink,omitempty"`

	NewsletterEnabled     bool   `json:"newsletterEnabled"`
	NewsletterDescription string `json:"newsletterDescription,omitempty"`
	NewsletterSignupURL   string `json:"newsletterSignupUrl,omitempty"`

	Published bool      `json:"published"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	CustomGpts    []CustomGPT    `json:"customGpts"`
	Downloads     []Download     `json:"downloads"`
	BusinessLinks []BusinessLink `json:"businessLinks"`
}

// CustomGPT is an embedded GPT link belonging to a talk page.
type CustomGPT struct {
	ID          string `json:"id"`
	TalkPageID  string `json:"talkPageId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	ClickCount  int    `json:"clickCount"`
}

// Download is a gated downloadable resource belonging to a talk page.
type Download struct {
	ID            string `json:"id"`
	TalkPageID    string `json:"talkPageId"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	FileURL       string `json:"fileUrl"`
	RequiresEmail bool   `json:"requiresEmail"`
	ClickCount    int    `json:"downloadCount"`
}

// BusinessLink is an outbound business or consultation link on a talk page.
type BusinessLink struct {
	ID          string `json:"id"`
	TalkPageID  string `json:"talkPageId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	CTAText     string `json:"ctaText"`
	ClickCount  int    `json:"clickCount"`
}

// PageSummary is the dashboard list view of a talk page with rollup counts.
type PageSummary struct {
	TalkPage
	EmailCaptureCount int `json:"emailCaptureCount"`
	PageViewCount     int `json:"pageViewCount"`
}
