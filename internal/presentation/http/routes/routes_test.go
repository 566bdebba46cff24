package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/speakaboutai/micdrop-go/internal/application/container"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/logging"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/performance"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/database"
	"github.com/speakaboutai/micdrop-go/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	config.JWTSecret = "test-jwt-secret"
	config.LeadGateSecret = "test-gate-secret"
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := database.NewConnection("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewTableCreator().CreateSchema(db.DB))

	logger := logging.NewTestLogger()
	perfTracker := performance.NewTracker(performance.DefaultTrackerConfig())
	appContainer := container.NewContainer(db, nil, perfTracker, logger)

	return SetupRoutes(appContainer)
}

type client struct {
	t       *testing.T
	router  *gin.Engine
	cookies []*http.Cookie
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	// Carry forward any cookies the server set, replacing same-named ones.
	for _, set := range w.Result().Cookies() {
		replaced := false
		for i, existing := range c.cookies {
			if existing.Name == set.Name {
				c.cookies[i] = set
				replaced = true
			}
		}
		if !replaced {
			c.cookies = append(c.cookies, set)
		}
	}
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func pagePayload(title string) map[string]any {
	return map[string]any{
		"title":        title,
		"date":         "2025-09-15T00:00:00Z",
		"speakerName":  "Casey Speaker",
		"speakerEmail": "casey@example.com",
		"published":    true,
		"customGpts": []map[string]any{
			{"name": "Meeting Prep GPT", "description": "Preps briefs", "url": "https://chat.example.com/g/prep"},
			{"name": "Venue Scout GPT", "description": "Scouts venues", "url": "https://chat.example.com/g/venue"},
		},
		"downloads": []map[string]any{
			{"title": "Planning Checklist", "fileUrl": "https://files.example.com/checklist.pdf", "requiresEmail": true},
			{"title": "Budget Template", "fileUrl": "https://files.example.com/budget.xlsx", "requiresEmail": true},
		},
		"businessLinks": []map[string]any{
			{"name": "Consulting", "description": "Work with Casey", "url": "https://cal.example.com/casey", "ctaText": "Book a call"},
		},
	}
}

func TestVisitorJourney(t *testing.T) {
	router := newTestRouter(t)

	// The speaker signs up and publishes a page.
	owner := &client{t: t, router: router}
	w := owner.do(http.MethodPost, "/api/auth/signup", map[string]any{
		"name": "Casey Speaker", "email": "casey@example.com", "password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = owner.do(http.MethodPost, "/api/pages", pagePayload("AI for Event Planners"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)["page"].(map[string]any)
	pageID := created["id"].(string)
	slug := created["slug"].(string)

	// A fresh visitor sees the locked teaser.
	visitor := &client{t: t, router: router}
	w = visitor.do(http.MethodGet, "/api/talk/"+slug, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode(t, w)["page"].(map[string]any)
	assert.False(t, view["contentUnlocked"].(bool))
	gpts := view["customGpts"].(map[string]any)
	assert.Len(t, gpts["items"].([]any), 1)
	assert.Equal(t, float64(1), gpts["lockedCount"])

	// Page view and a couple of link clicks arrive at the collector.
	w = visitor.do(http.MethodPost, "/api/track", map[string]any{
		"event": "page_view", "talkPageId": pageID,
		"data": map[string]any{"referrer": "https://news.example.com"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	for i := 0; i < 2; i++ {
		w = visitor.do(http.MethodPost, "/api/track", map[string]any{
			"event": "link_click", "talkPageId": pageID,
			"data": map[string]any{"linkType": "gpt", "linkName": "Meeting Prep GPT"},
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	// Capturing an email unlocks the page via the marker cookie.
	w = visitor.do(http.MethodPost, "/api/capture", map[string]any{
		"talkPageId": pageID, "email": "visitor@example.com", "name": "Vis Itor", "tier": "resources",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	captureResp := decode(t, w)
	assert.True(t, captureResp["isNew"].(bool))
	assert.NotEmpty(t, captureResp["message"])

	markerFound := false
	for _, cookie := range visitor.cookies {
		if cookie.Name == "micdrop_lead_"+slug {
			markerFound = true
			assert.NotContains(t, cookie.Value, "visitor@example.com", "the cookie must not carry the raw email")
		}
	}
	assert.True(t, markerFound, "capture must set the per-talk marker cookie")

	w = visitor.do(http.MethodGet, "/api/talk/"+slug, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view = decode(t, w)["page"].(map[string]any)
	assert.True(t, view["contentUnlocked"].(bool))
	gpts = view["customGpts"].(map[string]any)
	assert.Len(t, gpts["items"].([]any), 2)
	assert.Zero(t, gpts["lockedCount"].(float64))

	// Submitting the same email again is a quiet success.
	w = visitor.do(http.MethodPost, "/api/capture", map[string]any{
		"talkPageId": pageID, "email": "visitor@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)
	repeat := decode(t, w)
	assert.False(t, repeat["isNew"].(bool))
	assert.NotEmpty(t, repeat["message"])

	// The owner's dashboard reflects everything that happened.
	w = owner.do(http.MethodGet, fmt.Sprintf("/api/pages/%s/analytics", pageID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	dashboard := decode(t, w)
	overview := dashboard["overview"].(map[string]any)
	assert.Equal(t, float64(1), overview["pageViews"])
	assert.Equal(t, float64(2), overview["linkClicks"])
	assert.Equal(t, float64(1), overview["emailCaptures"])
	assert.Equal(t, float64(100), overview["conversionRate"])

	rankedGpts := dashboard["gpts"].([]any)
	require.NotEmpty(t, rankedGpts)
	first := rankedGpts[0].(map[string]any)
	assert.Equal(t, "Meeting Prep GPT", first["name"])
	assert.Equal(t, float64(2), first["clickCount"])

	downloads := dashboard["downloads"].([]any)
	require.Len(t, downloads, 2)
	topDownload := downloads[0].(map[string]any)
	assert.Contains(t, topDownload, "title")
	assert.Contains(t, topDownload, "downloadCount")

	recent := dashboard["recentActivity"].([]any)
	assert.Len(t, recent, 4)

	w = owner.do(http.MethodGet, fmt.Sprintf("/api/pages/%s/captures", pageID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])
}

func TestOwnerOnlyBoundaries(t *testing.T) {
	router := newTestRouter(t)

	owner := &client{t: t, router: router}
	w := owner.do(http.MethodPost, "/api/auth/signup", map[string]any{
		"name": "Casey Speaker", "email": "casey@example.com", "password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = owner.do(http.MethodPost, "/api/pages", pagePayload("Private Numbers"))
	require.Equal(t, http.StatusCreated, w.Code)
	pageID := decode(t, w)["page"].(map[string]any)["id"].(string)

	// No session at all.
	anon := &client{t: t, router: router}
	w = anon.do(http.MethodGet, "/api/pages", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = anon.do(http.MethodGet, fmt.Sprintf("/api/pages/%s/analytics", pageID), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A different authenticated user cannot see the page or its numbers.
	rival := &client{t: t, router: router}
	w = rival.do(http.MethodPost, "/api/auth/signup", map[string]any{
		"name": "Rival Speaker", "email": "rival@example.com", "password": "other-horse",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = rival.do(http.MethodGet, "/api/pages/"+pageID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "foreign pages read as missing, not forbidden")
	w = rival.do(http.MethodGet, fmt.Sprintf("/api/pages/%s/analytics", pageID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = rival.do(http.MethodGet, fmt.Sprintf("/api/pages/%s/captures", pageID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTrackValidation(t *testing.T) {
	router := newTestRouter(t)
	visitor := &client{t: t, router: router}

	w := visitor.do(http.MethodPost, "/api/track", map[string]any{
		"event": "mystery_event", "talkPageId": "whatever",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// A beacon for an unknown page is still accepted, best effort.
	w = visitor.do(http.MethodPost, "/api/track", map[string]any{
		"event": "page_view", "talkPageId": "no-such-page",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w)["success"].(bool))

	w = visitor.do(http.MethodPost, "/api/track", map[string]any{"event": "page_view"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDraftHiddenFromVisitors(t *testing.T) {
	router := newTestRouter(t)

	owner := &client{t: t, router: router}
	w := owner.do(http.MethodPost, "/api/auth/signup", map[string]any{
		"name": "Casey Speaker", "email": "casey@example.com", "password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	draft := pagePayload("Secret Draft")
	draft["published"] = false
	w = owner.do(http.MethodPost, "/api/pages", draft)
	require.Equal(t, http.StatusCreated, w.Code)
	slug := decode(t, w)["page"].(map[string]any)["slug"].(string)

	visitor := &client{t: t, router: router}
	w = visitor.do(http.MethodGet, "/api/talk/"+slug, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// The owner previews the draft through the same public route.
	w = owner.do(http.MethodGet, "/api/talk/"+slug, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode(t, w)["page"].(map[string]any)
	assert.True(t, view["contentUnlocked"].(bool))
}

func TestConsentEndpoint(t *testing.T) {
	router := newTestRouter(t)
	visitor := &client{t: t, router: router}

	w := visitor.do(http.MethodPost, "/api/consent", map[string]any{
		"email":       "visitor@example.com",
		"preferences": map[string]any{"analytics": true, "marketing": false},
		"source":      "banner",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = visitor.do(http.MethodGet, "/api/consent?email=visitor@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	consent := decode(t, w)["consent"].(map[string]any)
	prefs := consent["preferences"].(map[string]any)
	assert.True(t, prefs["necessary"].(bool))
	assert.True(t, prefs["analytics"].(bool))
	assert.False(t, prefs["marketing"].(bool))

	w = visitor.do(http.MethodGet, "/api/consent?email=unknown@example.com", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
