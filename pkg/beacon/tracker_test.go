package beacon

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCollector struct {
	mu        sync.Mutex
	envelopes []eventEnvelope
	status    int
}

func newRecordingCollector(status int) (*recordingCollector, *httptest.Server) {
	rc := &recordingCollector{status: status}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var env eventEnvelope
		_ = json.Unmarshal(body, &env)

		rc.mu.Lock()
		rc.envelopes = append(rc.envelopes, env)
		rc.mu.Unlock()

		w.WriteHeader(rc.status)
	}))
	return rc, srv
}

func (rc *recordingCollector) received() []eventEnvelope {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	out := make([]eventEnvelope, len(rc.envelopes))
	copy(out, rc.envelopes)
	return out
}

func TestTrackPageViewDelivers(t *testing.T) {
	collector, srv := newRecordingCollector(http.StatusOK)
	defer srv.Close()

	tracker := New(srv.URL)
	tracker.TrackPageView("page-1", "https://news.example.com")
	tracker.Flush()

	got := collector.received()
	require.Len(t, got, 1)
	assert.Equal(t, "page_view", got[0].Event)
	assert.Equal(t, "page-1", got[0].TalkPageID)
}

func TestConsentGatesBehavioralEvents(t *testing.T) {
	collector, srv := newRecordingCollector(http.StatusOK)
	defer srv.Close()

	tracker := New(srv.URL, WithConsent(StaticConsent(false)))
	tracker.TrackPageView("page-1", "")
	tracker.TrackLinkClick("page-1", "gpt", "Meeting Prep GPT", "https://chat.example.com")
	tracker.Flush()

	assert.Empty(t, collector.received())
}

func TestEmailCaptureIgnoresConsent(t *testing.T) {
	collector, srv := newRecordingCollector(http.StatusOK)
	defer srv.Close()

	tracker := New(srv.URL, WithConsent(StaticConsent(false)))
	tracker.TrackEmailCapture("page-1", "jane@example.com", "resources")
	tracker.Flush()

	got := collector.received()
	require.Len(t, got, 1)
	assert.Equal(t, "email_capture", got[0].Event)
}

func TestCollectorErrorIsSwallowed(t *testing.T) {
	collector, srv := newRecordingCollector(http.StatusInternalServerError)
	defer srv.Close()

	tracker := New(srv.URL)
	tracker.TrackLinkClick("page-1", "business", "Consulting", "https://cal.example.com")
	tracker.Flush() // must return; the failure is logged, never raised

	assert.Len(t, collector.received(), 1)
}

func TestUnreachableCollectorIsSwallowed(t *testing.T) {
	tracker := New("http://127.0.0.1:1/unreachable")
	tracker.TrackPageView("page-1", "")
	tracker.Flush()
}

func TestMultipleEventsAllArrive(t *testing.T) {
	collector, srv := newRecordingCollector(http.StatusOK)
	defer srv.Close()

	tracker := New(srv.URL)
	for i := 0; i < 5; i++ {
		tracker.TrackLinkClick("page-1", "resource", "Checklist", "https://files.example.com/checklist.pdf")
	}
	tracker.Flush()

	assert.Len(t, collector.received(), 5)
}
