package services

import (
	"math"

	"github.com/speakaboutai/micdrop-go/internal/domain/analytics"
	analyticsRepo "github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/analytics"
	contentRepo "github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/content"
	userRepo "github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/user"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/logging"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/performance"
	"github.com/speakaboutai/micdrop-go/pkg/config"
)

// Dashboard is the full analytics payload for one talk page. The ranked
// lists are unbounded; trimming to a top five is left to the dashboard UI.
type Dashboard struct {
	Overview       analytics.Overview         `json:"overview"`
	Gpts           []analytics.RankedResource `json:"gpts"`
	BusinessLinks  []analytics.RankedResource `json:"businessLinks"`
	Downloads      []analytics.RankedDownload `json:"downloads"`
	RecentActivity []*analytics.TrackedEvent  `json:"recentActivity"`
}

// AnalyticsService aggregates stored events, lead records, and resource
// counters into the owner-facing dashboard numbers.
type AnalyticsService struct {
	eventRepo    *analyticsRepo.SQLEventRepository
	talkPageRepo *contentRepo.SQLTalkPageRepository
	captureRepo  *userRepo.SQLCaptureRepository
	perfTracker  *performance.Tracker
	logger       *logging.ChanneledLogger
}

// NewAnalyticsService creates a new analytics service with its dependencies.
func NewAnalyticsService(
	eventRepo *analyticsRepo.SQLEventRepository,
	talkPageRepo *contentRepo.SQLTalkPageRepository,
	captureRepo *userRepo.SQLCaptureRepository,
	perfTracker *performance.Tracker,
	logger *logging.ChanneledLogger,
) *AnalyticsService {
	return &AnalyticsService{
		eventRepo:    eventRepo,
		talkPageRepo: talkPageRepo,
		captureRepo:  captureRepo,
		perfTracker:  perfTracker,
		logger:       logger,
	}
}

// ComputeOverview builds the headline metrics. Views and clicks count raw
// events, so clicks without a counter target (social links, renamed
// resources) still show up; captures count lead records, so a repeated
// capture event never inflates conversion. The rate is captures per view as
// a percentage, rounded to two decimals; a page with no views reports zero
// rather than dividing by it.
func (s *AnalyticsService) ComputeOverview(talkPageID string) (analytics.Overview, error) {
	var overview analytics.Overview
	var err error

	if overview.PageViews, err = s.eventRepo.CountByKind(talkPageID, analytics.EventPageView); err != nil {
		return overview, err
	}
	if overview.LinkClicks, err = s.eventRepo.CountByKind(talkPageID, analytics.EventLinkClick); err != nil {
		return overview, err
	}
	if overview.EmailCaptures, err = s.captureRepo.CountByPage(talkPageID); err != nil {
		return overview, err
	}

	if overview.PageViews > 0 {
		rate := float64(overview.EmailCaptures) / float64(overview.PageViews) * 100
		overview.ConversionRate = math.Round(rate*100) / 100
	}
	return overview, nil
}

// BuildDashboard assembles the overview, ranked resource lists, and recent
// activity feed for one talk page.
func (s *AnalyticsService) BuildDashboard(talkPageID string) (*Dashboard, error) {
	marker := s.perfTracker.StartOperation("analytics_dashboard")
	defer marker.Complete()

	overview, err := s.ComputeOverview(talkPageID)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	gpts, err := s.talkPageRepo.TopResources(talkPageID, analytics.LinkTypeGPT)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	downloads, err := s.talkPageRepo.TopResources(talkPageID, analytics.LinkTypeResource)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	businessLinks, err := s.talkPageRepo.TopResources(talkPageID, analytics.LinkTypeBusiness)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	recent, err := s.eventRepo.FindRecent(talkPageID, config.RecentActivityLimit)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	rankedDownloads := make([]analytics.RankedDownload, 0, len(downloads))
	for _, d := range downloads {
		rankedDownloads = append(rankedDownloads, analytics.RankedDownload{
			ID:            d.ID,
			Title:         d.Name,
			DownloadCount: d.ClickCount,
		})
	}

	marker.SetSuccess(true)
	return &Dashboard{
		Overview:       overview,
		Gpts:           gpts,
		BusinessLinks:  businessLinks,
		Downloads:      rankedDownloads,
		RecentActivity: recent,
	}, nil
}
