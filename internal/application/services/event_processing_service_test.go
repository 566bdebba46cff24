package services

import (
	"testing"

	"github.com/speakaboutai/micdrop-go/internal/domain/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestPageView(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t)
	page := env.seedPage(t, u.ID)

	err := env.events.Ingest(&analytics.TrackedEvent{
		Kind:       analytics.EventPageView,
		TalkPageID: page.ID,
		Payload:    map[string]any{"referrer": "https://news.example.com"},
	})
	require.NoError(t, err)

	count, err := env.eventRepo.CountByKind(page.ID, analytics.EventPageView)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIngestRejectsUnknownKind(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t)
	page := env.seedPage(t, u.ID)

	err := env.events.Ingest(&analytics.TrackedEvent{
		Kind:       analytics.EventKind("mystery_event"),
		TalkPageID: page.ID,
	})
	assert.ErrorIs(t, err, ErrUnknownEventKind)
}

func TestIngestAcceptsUnknownPage(t *testing.T) {
	env := newTestEnv(t)

	// Ingestion is a public beacon target; no page lookup gates it.
	err := env.events.Ingest(&analytics.TrackedEvent{
		Kind:       analytics.EventPageView,
		TalkPageID: "no-such-page",
	})
	require.NoError(t, err)

	count, err := env.eventRepo.CountByKind("no-such-page", analytics.EventPageView)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIngestEmailCaptureCreatesLead(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t)
	page := env.seedPage(t, u.ID)

	for i := 0; i < 2; i++ {
		err := env.events.Ingest(&analytics.TrackedEvent{
			Kind:       analytics.EventEmailCapture,
			TalkPageID: page.ID,
			Payload:    map[string]any{"email": "lead@example.com", "tier": "newsletter"},
		})
		require.NoError(t, err, "a duplicate capture event is still a success")
	}

	count, err := env.captureRepo.CountByPage(page.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "two identical capture events make one lead")

	capture, err := env.captureRepo.FindByEmailAndPage("lead@example.com", page.ID)
	require.NoError(t, err)
	require.NotNil(t, capture)
	assert.Equal(t, "newsletter", capture.Tier)
}

func TestIngestEmailCaptureWithoutEmailStoresEventOnly(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t)
	page := env.seedPage(t, u.ID)

	err := env.events.Ingest(&analytics.TrackedEvent{
		Kind:       analytics.EventEmailCapture,
		TalkPageID: page.ID,
		Payload:    map[string]any{"tier": "resources"},
	})
	require.NoError(t, err)

	count, err := env.eventRepo.CountByKind(page.ID, analytics.EventEmailCapture)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	leads, err := env.captureRepo.CountByPage(page.ID)
	require.NoError(t, err)
	assert.Zero(t, leads)
}

func TestLinkClicksIncrementCounterByID(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t)
	page := env.seedPage(t, u.ID)
	gpt := page.CustomGpts[0]

	for i := 0; i < 3; i++ {
		err := env.events.Ingest(&analytics.TrackedEvent{
			Kind:       analytics.EventLinkClick,
			TalkPageID: page.ID,
			Payload: map[string]any{
				"linkType": "gpt",
				"linkId":   gpt.ID,
				"linkName": gpt.Name,
			},
		})
		require.NoError(t, err)
	}

	reloaded, err := env.talkPageRepo.FindByID(page.ID)
	require.NoError(t, err)

	for _, g := range reloaded.CustomGpts {
		if g.ID == gpt.ID {
			assert.Equal(t, 3, g.ClickCount)
		} else {
			assert.Zero(t, g.ClickCount)
		}
	}
}

func TestLinkClickResolvesByName(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t)
	page := env.seedPage(t, u.ID)

	err := env.events.Ingest(&analytics.TrackedEvent{
		Kind:       analytics.EventLinkClick,
		TalkPageID: page.ID,
		Payload: map[string]any{
			"linkType": "resource",
			"linkName": "Planning Checklist",
		},
	})
	require.NoError(t, err)

	reloaded, err := env.talkPageRepo.FindByID(page.ID)
	require.NoError(t, err)

	for _, dl := range reloaded.Downloads {
		if dl.Title == "Planning Checklist" {
			assert.Equal(t, 1, dl.ClickCount)
		} else {
			assert.Zero(t, dl.ClickCount)
		}
	}
}

func TestUnknownLinkTypeStoredWithoutCounter(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t)
	page := env.seedPage(t, u.ID)

	err := env.events.Ingest(&analytics.TrackedEvent{
		Kind:       analytics.EventLinkClick,
		TalkPageID: page.ID,
		Payload: map[string]any{
			"linkType": "podcast",
			"linkName": "Some Feed",
		},
	})
	require.NoError(t, err)

	count, err := env.eventRepo.CountByKind(page.ID, analytics.EventLinkClick)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "the raw event is still stored")

	reloaded, err := env.talkPageRepo.FindByID(page.ID)
	require.NoError(t, err)
	for _, g := range reloaded.CustomGpts {
		assert.Zero(t, g.ClickCount, "no counter may move for an unrecognized link type")
	}
	for _, dl := range reloaded.Downloads {
		assert.Zero(t, dl.ClickCount)
	}
	for _, link := range reloaded.BusinessLinks {
		assert.Zero(t, link.ClickCount)
	}
}

func TestCounterSurvivesRename(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t)
	page := env.seedPage(t, u.ID)
	gpt := page.CustomGpts[0]

	err := env.events.Ingest(&analytics.TrackedEvent{
		Kind:       analytics.EventLinkClick,
		TalkPageID: page.ID,
		Payload:    map[string]any{"linkType": "gpt", "linkId": gpt.ID, "linkName": gpt.Name},
	})
	require.NoError(t, err)

	// Rename the resource, keeping its ID.
	edited, err := env.talkPageRepo.FindByID(page.ID)
	require.NoError(t, err)
	for i := range edited.CustomGpts {
		if edited.CustomGpts[i].ID == gpt.ID {
			edited.CustomGpts[i].Name = "Renamed GPT"
		}
	}
	_, err = env.talkPages.Update(u.ID, page.ID, edited)
	require.NoError(t, err)

	reloaded, err := env.talkPageRepo.FindByID(page.ID)
	require.NoError(t, err)
	for _, g := range reloaded.CustomGpts {
		if g.ID == gpt.ID {
			assert.Equal(t, "Renamed GPT", g.Name)
			assert.Equal(t, 1, g.ClickCount, "rename must not reset the counter")
		}
	}
}
