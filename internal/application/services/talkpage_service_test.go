package services

import (
	"net/url"
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/speakaboutai/micdrop-go/internal/domain/content"
	contentRepo "github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/content"
	"github.com/speakaboutai/micdrop-go/pkg/leadgate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestCreateGeneratesSlug(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t)
	page := env.seedPage(t, u.ID)

	assert.True(t, strings.HasPrefix(page.Slug, "ai-for-event-planners-"), "slug starts with the kebab title, got %q", page.Slug)
	assert.Regexp(t, slugPattern, page.Slug)

	second := env.seedPage(t, u.ID)
	assert.NotEqual(t, page.Slug, second.Slug, "same title must not collide")
}

func TestListReturnsSummaries(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t)
	env.seedPage(t, u.ID)
	env.seedPage(t, u.ID)

	summaries, err := env.talkPages.List(u.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	for _, s := range summaries {
		assert.NotEmpty(t, s.Slug)
		assert.Len(t, s.CustomGpts, 2)
		assert.Zero(t, s.EmailCaptureCount)
		assert.Zero(t, s.PageViewCount)
	}
}

func TestUpdateKeepsSlugAndOwner(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t)
	page := env.seedPage(t, u.ID)

	edited, err := env.talkPageRepo.FindByID(page.ID)
	require.NoError(t, err)
	edited.Title = "AI for Event Planners, Revised"
	edited.Slug = "attempted-slug-change"

	updated, err := env.talkPages.Update(u.ID, page.ID, edited)
	require.NoError(t, err)

	assert.Equal(t, "AI for Event Planners, Revised", updated.Title)
	assert.Equal(t, page.Slug, updated.Slug, "the slug is immutable after creation")
	assert.Equal(t, u.ID, updated.UserID)
}

func TestDeleteIsOwnerScoped(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t)
	page := env.seedPage(t, owner.ID)

	other, _, err := env.auth.Signup("Other Person", "other@example.com", "another-pass")
	require.NoError(t, err)

	err = env.talkPages.Delete(other.ID, page.ID)
	assert.ErrorIs(t, err, contentRepo.ErrTalkPageNotFound)

	require.NoError(t, env.talkPages.Delete(owner.ID, page.ID))

	_, err = env.talkPageRepo.FindByID(page.ID)
	assert.ErrorIs(t, err, contentRepo.ErrTalkPageNotFound)
}

func TestPublicViewLockedTeaser(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t)
	page := env.seedPage(t, u.ID)

	view, err := env.talkPages.PublicView(page.Slug, leadgate.AccessPolicy{})
	require.NoError(t, err)

	assert.False(t, view.ContentUnlocked)
	assert.False(t, view.FullBioVisible)

	require.Len(t, view.CustomGpts.Items, 1, "locked categories show one teaser item")
	assert.Equal(t, 1, view.CustomGpts.LockedCount)

	require.Len(t, view.Downloads.Items, 1)
	assert.Equal(t, 2, view.Downloads.LockedCount)
	assert.Empty(t, view.Downloads.Items[0].FileURL, "gated file URLs stay hidden on the teaser")

	assert.Empty(t, view.KeynoteNotesURL)
	assert.True(t, strings.HasSuffix(view.SpeakerBio, "..."), "long bios are truncated while locked")
	assert.Less(t, len(view.SpeakerBio), len(page.SpeakerBio))

	// Business links are never gated.
	assert.True(t, view.BusinessLinks.Unlocked)
	require.Len(t, view.BusinessLinks.Items, 1)
}

func TestTeaserBioKeepsRunesIntact(t *testing.T) {
	// A spaceless multibyte bio must still be cut on a rune boundary.
	bio := strings.Repeat("ü", 300)
	teaser := teaserBio(bio)

	assert.True(t, utf8.ValidString(teaser), "teaser must stay valid UTF-8")
	assert.True(t, strings.HasSuffix(teaser, "..."))
	assert.Equal(t, bioTeaserLength, utf8.RuneCountInString(strings.TrimSuffix(teaser, "...")))

	short := "Kurzbiografie über Käse"
	assert.Equal(t, short, teaserBio(short))
}

func TestPublicViewUnlocked(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t)
	page := env.seedPage(t, u.ID)

	view, err := env.talkPages.PublicView(page.Slug, leadgate.AccessPolicy{ContentUnlocked: true})
	require.NoError(t, err)

	assert.True(t, view.ContentUnlocked)
	assert.Len(t, view.CustomGpts.Items, 2)
	assert.Zero(t, view.CustomGpts.LockedCount)
	assert.Len(t, view.Downloads.Items, 3)
	assert.Equal(t, page.SpeakerBio, view.SpeakerBio)

	for _, dl := range view.Downloads.Items {
		assert.NotEmpty(t, dl.FileURL)
	}
}

func TestPublicViewDecoratesLinksWithUTM(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t)
	page := env.seedPage(t, u.ID)

	view, err := env.talkPages.PublicView(page.Slug, leadgate.AccessPolicy{ContentUnlocked: true})
	require.NoError(t, err)

	gptURL, err := url.Parse(view.CustomGpts.Items[0].URL)
	require.NoError(t, err)
	query := gptURL.Query()
	assert.Equal(t, "micdrop", query.Get("utm_source"))
	assert.Equal(t, "speaker_page", query.Get("utm_medium"))
	assert.Equal(t, page.Slug, query.Get("utm_campaign"))
	assert.Equal(t, view.CustomGpts.Items[0].Name, query.Get("utm_content"))
	assert.Equal(t, "gpt", query.Get("utm_term"))

	bizURL, err := url.Parse(view.BusinessLinks.Items[0].URL)
	require.NoError(t, err)
	assert.Equal(t, "business", bizURL.Query().Get("utm_term"))
}

func TestPublicViewDraftVisibility(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t)

	draft := &content.TalkPage{
		Title:        "Unreleased Talk",
		SpeakerName:  "Casey Speaker",
		SpeakerEmail: "casey@example.com",
		Published:    false,
	}
	require.NoError(t, env.talkPages.Create(u.ID, draft))

	_, err := env.talkPages.PublicView(draft.Slug, leadgate.AccessPolicy{})
	assert.ErrorIs(t, err, contentRepo.ErrTalkPageNotFound, "visitors cannot see drafts")

	view, err := env.talkPages.PublicView(draft.Slug, leadgate.AccessPolicy{IsOwner: true, ContentUnlocked: true})
	require.NoError(t, err)
	assert.Equal(t, "Unreleased Talk", view.Title)
}

func TestPublicViewUngatedDownloadVisibleWhileLocked(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t)

	page := &content.TalkPage{
		Title:        "Open Resources Talk",
		SpeakerName:  "Casey Speaker",
		SpeakerEmail: "casey@example.com",
		Published:    true,
		Downloads: []content.Download{
			{Title: "Free Summary", FileURL: "https://files.example.com/free.pdf", RequiresEmail: false},
		},
	}
	require.NoError(t, env.talkPages.Create(u.ID, page))

	view, err := env.talkPages.PublicView(page.Slug, leadgate.AccessPolicy{})
	require.NoError(t, err)
	require.Len(t, view.Downloads.Items, 1)
	assert.NotEmpty(t, view.Downloads.Items[0].FileURL, "ungated files are downloadable without capture")
}
