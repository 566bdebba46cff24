package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/speakaboutai/micdrop-go/internal/domain/content"
	contentRepo "github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/content"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/logging"
	"github.com/speakaboutai/micdrop-go/pkg/beacon"
	"github.com/speakaboutai/micdrop-go/pkg/leadgate"
)

// ErrPageNotPublished is returned when a visitor requests a draft page.
var ErrPageNotPublished = fmt.Errorf("talk page not published")

const bioTeaserLength = 160

// PublicGpt is the visitor-facing shape of a custom GPT link.
type PublicGpt struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// PublicDownload is the visitor-facing shape of a downloadable resource.
type PublicDownload struct {
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	FileURL       string `json:"fileUrl,omitempty"`
	RequiresEmail bool   `json:"requiresEmail"`
}

// PublicBusinessLink is the visitor-facing shape of a business link.
type PublicBusinessLink struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	CTAText     string `json:"ctaText"`
}

// PublicPageView is the payload a visitor receives for a talk page. Gated
// sections carry only their teaser until the visitor captures an email;
// click counters never appear here.
type PublicPageView struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Date         time.Time `json:"date"`
	SpeakerName  string    `json:"speakerName"`
	SpeakerPhoto string    `json:"speakerPhoto,omitempty"`
	SpeakerBio   string    `json:"speakerBio,omitempty"`
	Hook         string    `json:"hook,omitempty"`

	SpeakerLinkedIn  string `json:"speakerLinkedIn,omitempty"`
	KeynoteNotesURL  string `json:"keynoteNotesUrl,omitempty"`
	KeynoteSlidesURL string `json:"keynoteSlidesUrl,omitempty"`
	ContactEmail     string `json:"contactEmail,omitempty"`
	CalendarLink     string `json:"calendarLink,omitempty"`

	NewsletterEnabled     bool   `json:"newsletterEnabled"`
	NewsletterDescription string `json:"newsletterDescription,omitempty"`
	NewsletterSignupURL   string `json:"newsletterSignupUrl,omitempty"`

	ContentUnlocked bool `json:"contentUnlocked"`
	FullBioVisible  bool `json:"fullBioVisible"`

	CustomGpts    leadgate.GatedList[PublicGpt]          `json:"customGpts"`
	Downloads     leadgate.GatedList[PublicDownload]     `json:"downloads"`
	BusinessLinks leadgate.GatedList[PublicBusinessLink] `json:"businessLinks"`
}

// TalkPageService handles talk page lifecycle and the gated public view.
type TalkPageService struct {
	talkPageRepo *contentRepo.SQLTalkPageRepository
	logger       *logging.ChanneledLogger
}

// NewTalkPageService creates a new talk page service with its dependencies.
func NewTalkPageService(talkPageRepo *contentRepo.SQLTalkPageRepository, logger *logging.ChanneledLogger) *TalkPageService {
	return &TalkPageService{
		talkPageRepo: talkPageRepo,
		logger:       logger,
	}
}

// Create stores a new talk page for the user. The slug is derived from the
// title with a timestamp suffix so collisions across speakers cannot happen.
func (s *TalkPageService) Create(userID string, page *content.TalkPage) error {
	page.UserID = userID

	slug := s.generateSlug(page.Title)
	for attempt := 2; ; attempt++ {
		taken, err := s.talkPageRepo.SlugExists(slug)
		if err != nil {
			return err
		}
		if !taken {
			break
		}
		slug = s.generateSlug(page.Title) + "-" + strconv.Itoa(attempt)
	}
	page.Slug = slug

	if err := s.talkPageRepo.Create(page); err != nil {
		return err
	}
	s.logger.Content().Info("Talk page created", "id", page.ID, "slug", page.Slug, "userId", userID)
	return nil
}

// Update rewrites a talk page the user owns. The slug never changes on edit
// so shared links and capture markers stay valid.
func (s *TalkPageService) Update(userID, pageID string, page *content.TalkPage) (*content.TalkPage, error) {
	existing, err := s.talkPageRepo.FindByIDAndUser(pageID, userID)
	if err != nil {
		return nil, err
	}

	page.ID = existing.ID
	page.UserID = existing.UserID
	page.Slug = existing.Slug
	page.CreatedAt = existing.CreatedAt

	if err := s.talkPageRepo.Update(page); err != nil {
		return nil, err
	}
	return s.talkPageRepo.FindByID(page.ID)
}

// Delete removes a talk page the user owns, along with its resources,
// captures, and events.
func (s *TalkPageService) Delete(userID, pageID string) error {
	if _, err := s.talkPageRepo.FindByIDAndUser(pageID, userID); err != nil {
		return err
	}
	return s.talkPageRepo.Delete(pageID)
}

// GetOwned retrieves a talk page only when the user owns it.
func (s *TalkPageService) GetOwned(userID, pageID string) (*content.TalkPage, error) {
	return s.talkPageRepo.FindByIDAndUser(pageID, userID)
}

// List returns the user's talk pages with dashboard rollup counts.
func (s *TalkPageService) List(userID string) ([]*content.PageSummary, error) {
	return s.talkPageRepo.ListByUser(userID)
}

// FindBySlug retrieves a talk page by slug without any gating applied.
func (s *TalkPageService) FindBySlug(slug string) (*content.TalkPage, error) {
	return s.talkPageRepo.FindBySlug(slug)
}

// PublicView builds the visitor payload for a talk page under the given
// access policy. Drafts are visible to their owner only; everyone else gets
// not-found rather than a hint the page exists.
func (s *TalkPageService) PublicView(slug string, policy leadgate.AccessPolicy) (*PublicPageView, error) {
	page, err := s.talkPageRepo.FindBySlug(slug)
	if err != nil {
		return nil, err
	}
	if !page.Published && !policy.IsOwner {
		return nil, contentRepo.ErrTalkPageNotFound
	}

	view := &PublicPageView{
		ID:           page.ID,
		Slug:         page.Slug,
		Title:        page.Title,
		Date:         page.Date,
		SpeakerName:  page.SpeakerName,
		SpeakerPhoto: page.SpeakerPhoto,
		Hook:         page.Hook,

		SpeakerLinkedIn: page.SpeakerLinkedIn,
		ContactEmail:    page.ContactEmail,
		CalendarLink:    page.CalendarLink,

		NewsletterEnabled:     page.NewsletterEnabled,
		NewsletterDescription: page.NewsletterDescription,
		NewsletterSignupURL:   page.NewsletterSignupURL,

		ContentUnlocked: policy.ContentUnlocked,
		FullBioVisible:  policy.FullBioVisible(),
	}

	if policy.FullBioVisible() {
		view.SpeakerBio = page.SpeakerBio
	} else {
		view.SpeakerBio = teaserBio(page.SpeakerBio)
	}

	if policy.DownloadsAllowed() {
		view.KeynoteNotesURL = page.KeynoteNotesURL
		view.KeynoteSlidesURL = page.KeynoteSlidesURL
	}

	gpts := make([]PublicGpt, 0, len(page.CustomGpts))
	for _, gpt := range page.CustomGpts {
		gpts = append(gpts, PublicGpt{
			Name:        gpt.Name,
			Description: gpt.Description,
			URL:         beacon.DecorateURL(gpt.URL, page.Slug, "gpt", gpt.Name),
		})
	}
	view.CustomGpts = leadgate.Gate(gpts, policy.UnlockedGpts())

	downloads := make([]PublicDownload, 0, len(page.Downloads))
	for _, dl := range page.Downloads {
		pub := PublicDownload{
			Title:         dl.Title,
			Description:   dl.Description,
			RequiresEmail: dl.RequiresEmail,
		}
		// File URLs stay hidden until the gate is open, even on the teaser.
		if policy.DownloadsAllowed() || !dl.RequiresEmail {
			pub.FileURL = beacon.DecorateURL(dl.FileURL, page.Slug, "resource", dl.Title)
		}
		downloads = append(downloads, pub)
	}
	view.Downloads = leadgate.Gate(downloads, policy.UnlockedResources())

	links := make([]PublicBusinessLink, 0, len(page.BusinessLinks))
	for _, link := range page.BusinessLinks {
		links = append(links, PublicBusinessLink{
			Name:        link.Name,
			Description: link.Description,
			URL:         beacon.DecorateURL(link.URL, page.Slug, "business", link.Name),
			CTAText:     link.CTAText,
		})
	}
	// Business links are never gated; they are the speaker's own funnel.
	view.BusinessLinks = leadgate.Gate(links, true)

	return view, nil
}

var slugStripPattern = regexp.MustCompile(`[^a-z0-9]+`)

// generateSlug turns a title into a URL slug with a base36 timestamp suffix.
func (s *TalkPageService) generateSlug(title string) string {
	base := strings.Trim(slugStripPattern.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if base == "" {
		base = "talk"
	}
	if len(base) > 60 {
		base = strings.Trim(base[:60], "-")
	}
	return base + "-" + strconv.FormatInt(time.Now().UnixMilli(), 36)
}

func teaserBio(bio string) string {
	runes := []rune(bio)
	if len(runes) <= bioTeaserLength {
		return bio
	}
	// Cut on a rune boundary so a multibyte character never gets split.
	cut := string(runes[:bioTeaserLength])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
