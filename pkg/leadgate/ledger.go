// Package leadgate implements the visitor-side capture ledger and the access
// policy evaluator that gates premium talk page content behind email capture.
//
// The ledger is advisory by design: it lives in the visitor's browser (a
// per-talk cookie) and a cleared browser or private-mode session resets
// access. The server reads the marker from the request and sets it on a
// successful capture, but is never authoritative for it.
package leadgate

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// markerPrefix namespaces the per-talk marker, e.g. micdrop_lead_ai-events-2025.
	markerPrefix = "micdrop_lead_"

	// DefaultTTL is how long an unlock survives in the visitor's browser.
	DefaultTTL = 30 * 24 * time.Hour

	tokenLength = 10
)

// MarkerStore abstracts the client-side persistence backing the ledger:
// browser cookies in production, an in-memory map in tests. A store that is
// unavailable must report ok=false rather than fail; the ledger degrades to
// "not captured".
type MarkerStore interface {
	Get(name string) (value string, ok bool)
	Set(name, value string, expiresAt time.Time)
}

// Ledger reads and writes per-talk capture markers.
type Ledger struct {
	store  MarkerStore
	secret string
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithTTL overrides the marker lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(l *Ledger) { l.ttl = ttl }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// NewLedger creates a ledger over the given store. The secret keys the
// one-way email derivation stored as the marker value.
func NewLedger(store MarkerStore, secret string, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		secret: secret,
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// MarkerName returns the storage key for a talk's capture marker.
func MarkerName(talkSlug string) string {
	return markerPrefix + talkSlug
}

// HasCaptured reports whether a non-expired marker exists for the talk.
func (l *Ledger) HasCaptured(talkSlug string) bool {
	if l == nil || l.store == nil {
		return false
	}

	value, ok := l.store.Get(MarkerName(talkSlug))
	if !ok {
		return false
	}

	_, expiresAt, err := parseMarker(value)
	if err != nil {
		return false
	}
	return l.now().Before(expiresAt)
}

// RecordCapture writes a marker for the talk with the configured TTL. The
// stored value is a keyed one-way derivation of the email, never the raw
// address.
func (l *Ledger) RecordCapture(talkSlug, email string) {
	if l == nil || l.store == nil {
		return
	}

	expiresAt := l.now().Add(l.ttl)
	l.store.Set(MarkerName(talkSlug), formatMarker(l.Token(email), expiresAt), expiresAt)
}

// Token derives the short marker token for an email address.
func (l *Ledger) Token(email string) string {
	mac := hmac.New(sha256.New, []byte(l.secret))
	mac.Write([]byte(email))
	encoded := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	if len(encoded) > tokenLength {
		encoded = encoded[:tokenLength]
	}
	return encoded
}

// TTL returns the configured marker lifetime.
func (l *Ledger) TTL() time.Duration {
	return l.ttl
}

// formatMarker encodes token and expiry into the stored value. The expiry is
// carried in the value itself so the ledger can judge staleness even when the
// backing store has no expiry of its own.
func formatMarker(token string, expiresAt time.Time) string {
	return token + "." + strconv.FormatInt(expiresAt.Unix(), 10)
}

func parseMarker(value string) (token string, expiresAt time.Time, err error) {
	idx := strings.LastIndex(value, ".")
	if idx <= 0 || idx == len(value)-1 {
		return "", time.Time{}, fmt.Errorf("malformed capture marker")
	}

	unix, err := strconv.ParseInt(value[idx+1:], 10, 64)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("malformed capture marker expiry: %w", err)
	}

	return value[:idx], time.Unix(unix, 0), nil
}
