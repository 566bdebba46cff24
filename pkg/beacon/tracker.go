// Package beacon is the fire-and-forget analytics client for MicDrop pages.
// Page views and link clicks are behavioral analytics and are suppressed
// without consent; email captures are transactional and always fire. A failed
// beacon is logged and dropped: tracking must never degrade the visitor
// experience, so nothing is retried or surfaced.
package beacon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// ConsentSource answers whether the visitor has granted analytics consent.
// It is the only coupling to the consent subsystem.
type ConsentSource interface {
	AnalyticsAllowed() bool
}

// StaticConsent is a fixed consent answer, for tests and server-side callers.
type StaticConsent bool

// AnalyticsAllowed implements ConsentSource.
func (c StaticConsent) AnalyticsAllowed() bool { return bool(c) }

// Tracker posts interaction events to the collection endpoint.
type Tracker struct {
	endpoint string
	client   *http.Client
	consent  ConsentSource
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Tracker) { t.client = client }
}

// WithConsent sets the consent source consulted before behavioral events.
func WithConsent(consent ConsentSource) Option {
	return func(t *Tracker) { t.consent = consent }
}

// WithLogger sets the logger for swallowed failures.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

// New creates a tracker posting to the given ingestion endpoint. Without an
// explicit consent source the tracker assumes consent was granted.
func New(endpoint string, opts ...Option) *Tracker {
	t := &Tracker{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		consent:  StaticConsent(true),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type eventEnvelope struct {
	Event      string `json:"event"`
	TalkPageID string `json:"talkPageId"`
	Data       any    `json:"data"`
}

type pageViewData struct {
	Referrer  string `json:"referrer,omitempty"`
	Timestamp string `json:"timestamp"`
}

type linkClickData struct {
	LinkType       string `json:"linkType"`
	LinkID         string `json:"linkId,omitempty"`
	LinkName       string `json:"linkName"`
	DestinationURL string `json:"destinationUrl,omitempty"`
	Timestamp      string `json:"timestamp"`
}

type emailCaptureData struct {
	Email     string `json:"email"`
	Tier      string `json:"tier"`
	Timestamp string `json:"timestamp"`
}

// TrackPageView reports a page view. No-ops without analytics consent.
func (t *Tracker) TrackPageView(talkPageID, referrer string) {
	if !t.consent.AnalyticsAllowed() {
		return
	}
	t.send(eventEnvelope{
		Event:      "page_view",
		TalkPageID: talkPageID,
		Data: pageViewData{
			Referrer:  referrer,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// TrackLinkClick reports an outbound link click. No-ops without analytics
// consent.
func (t *Tracker) TrackLinkClick(talkPageID, linkType, linkName, destinationURL string) {
	if !t.consent.AnalyticsAllowed() {
		return
	}
	t.send(eventEnvelope{
		Event:      "link_click",
		TalkPageID: talkPageID,
		Data: linkClickData{
			LinkType:       linkType,
			LinkName:       linkName,
			DestinationURL: destinationURL,
			Timestamp:      time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// TrackEmailCapture reports an email capture. This is transactional
// functionality, not behavioral analytics, so it fires regardless of consent.
func (t *Tracker) TrackEmailCapture(talkPageID, email, tier string) {
	t.send(eventEnvelope{
		Event:      "email_capture",
		TalkPageID: talkPageID,
		Data: emailCaptureData{
			Email:     email,
			Tier:      tier,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// send dispatches the event asynchronously. Dispatch order between events is
// not guaranteed and the collector must not assume it.
func (t *Tracker) send(envelope eventEnvelope) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		if err := t.post(envelope); err != nil {
			t.logger.Warn("analytics beacon dropped",
				"event", envelope.Event,
				"talkPageId", envelope.TalkPageID,
				"error", err.Error())
		}
	}()
}

func (t *Tracker) post(envelope eventEnvelope) error {
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("collector responded %d", resp.StatusCode)
	}
	return nil
}

// Flush blocks until all in-flight beacons have completed. Tests use it; the
// page lifecycle never does.
func (t *Tracker) Flush() {
	t.wg.Wait()
}
