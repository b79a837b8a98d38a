package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jbernadas/islalist-pwa/internal/models"
	"github.com/jbernadas/islalist-pwa/internal/visibility"
	"github.com/jbernadas/islalist-pwa/pkg/jobs"
)

// SweepJobType identifies expiry sweep jobs on the background queue.
const SweepJobType = "expiry_sweep"

type listingExpirer interface {
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

type announcementExpirer interface {
	DeactivateExpired(ctx context.Context, today time.Time) (int64, error)
}

// SweepService retires content whose lifetime has passed: active listings past expires_at
// become expired and active announcements past their expiry day are unpublished.
type SweepService struct {
	listings      listingExpirer
	announcements announcementExpirer
	metrics       *MetricsService
	logger        *zap.Logger
	zone          *time.Location
	now           func() time.Time
}

// NewSweepService constructs the service. Announcement expiry days are evaluated in zone.
func NewSweepService(listings listingExpirer, announcements announcementExpirer, metrics *MetricsService, logger *zap.Logger, zone *time.Location) *SweepService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if zone == nil {
		zone = time.UTC
	}
	return &SweepService{
		listings:      listings,
		announcements: announcements,
		metrics:       metrics,
		logger:        logger,
		zone:          zone,
		now:           time.Now,
	}
}

// Run executes both sweeps. A listing failure does not stop the announcement sweep.
func (s *SweepService) Run(ctx context.Context) (*models.SweepResult, error) {
	now := s.now()
	result := &models.SweepResult{RanAt: now.UTC()}

	var firstErr error
	start := time.Now()
	expired, err := s.listings.ExpireStale(ctx, now.UTC())
	s.metrics.ObserveDBQuery("expire_listings", time.Since(start))
	if err != nil {
		s.logger.Error("listing expiry sweep failed", zap.Error(err))
		firstErr = fmt.Errorf("expire listings: %w", err)
	} else {
		result.ListingsExpired = expired
		s.metrics.RecordSweep(visibility.EntityListing, expired)
	}

	start = time.Now()
	unpublished, err := s.announcements.DeactivateExpired(ctx, now.In(s.zone))
	s.metrics.ObserveDBQuery("deactivate_announcements", time.Since(start))
	if err != nil {
		s.logger.Error("announcement expiry sweep failed", zap.Error(err))
		if firstErr == nil {
			firstErr = fmt.Errorf("deactivate announcements: %w", err)
		}
	} else {
		result.AnnouncementsUnpublish = unpublished
		s.metrics.RecordSweep(visibility.EntityAnnouncement, unpublished)
	}

	s.logger.Info("expiry sweep finished",
		zap.Int64("listings_expired", result.ListingsExpired),
		zap.Int64("announcements_unpublished", result.AnnouncementsUnpublish),
	)
	return result, firstErr
}

// Job builds a queue job for a sweep scheduled at the given time.
func (s *SweepService) Job(at time.Time) jobs.Job {
	return jobs.Job{ID: uuid.NewString(), Key: SweepJobType, Type: SweepJobType, Enqueued: at.UTC()}
}

// Handle is the queue handler for sweep jobs.
func (s *SweepService) Handle(ctx context.Context, job jobs.Job) error {
	if job.Type != SweepJobType {
		return fmt.Errorf("unexpected job type %q", job.Type)
	}
	_, err := s.Run(ctx)
	return err
}
