package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ardiwn/gymflow-api/internal/dto"
	"github.com/ardiwn/gymflow-api/internal/models"
	appErrors "github.com/ardiwn/gymflow-api/pkg/errors"
)

type dashboardSessionRepository interface {
	CountByStatus(ctx context.Context, column, id string) (map[models.SessionStatus]int, error)
	CountUpcoming(ctx context.Context, column, id, today string) (int, error)
	CountByTrainerForMember(ctx context.Context, memberID string) ([]models.TrainerSessionCount, error)
	TopTrainersByCompleted(ctx context.Context, limit int) ([]models.TrainerRanking, error)
}

// DashboardService aggregates session counters into per-role overviews.
// Projections are cheap GROUP BY queries cached behind short TTLs; writes do
// not invalidate them, staleness is bounded by the TTL.
type DashboardService struct {
	sessions    dashboardSessionRepository
	cache       *CacheService
	cacheTTL    time.Duration
	topTrainers int
	logger      *zap.Logger
	now         func() time.Time
}

// NewDashboardService instantiates DashboardService.
func NewDashboardService(sessions dashboardSessionRepository, cache *CacheService, cacheTTL time.Duration, topTrainers int, logger *zap.Logger) *DashboardService {
	if topTrainers <= 0 {
		topTrainers = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		sessions:    sessions,
		cache:       cache,
		cacheTTL:    cacheTTL,
		topTrainers: topTrainers,
		logger:      logger,
		now:         time.Now,
	}
}

// MemberOverview builds the member dashboard. The second return reports a
// cache hit.
func (s *DashboardService) MemberOverview(ctx context.Context, memberID string) (*dto.MemberDashboard, bool, error) {
	cacheKey := fmt.Sprintf("dashboard:member:%s", memberID)
	var cached dto.MemberDashboard
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	counts, err := s.sessions.CountByStatus(ctx, "member_id", memberID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count member sessions")
	}
	upcoming, err := s.sessions.CountUpcoming(ctx, "member_id", memberID, s.today())
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count upcoming sessions")
	}
	byTrainer, err := s.sessions.CountByTrainerForMember(ctx, memberID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count sessions by trainer")
	}
	if byTrainer == nil {
		byTrainer = []models.TrainerSessionCount{}
	}

	overview := &dto.MemberDashboard{
		MemberID:          memberID,
		UpcomingCount:     upcoming,
		TotalSessions:     totalOf(counts),
		CompletedSessions: counts[models.SessionCompleted],
		CancelledSessions: counts[models.SessionCancelled],
		SessionsByTrainer: byTrainer,
	}

	if err := s.cache.Set(ctx, cacheKey, overview, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache member dashboard", zap.Error(err))
	}
	return overview, false, nil
}

// TrainerOverview builds the trainer dashboard.
func (s *DashboardService) TrainerOverview(ctx context.Context, trainerID string) (*dto.TrainerDashboard, bool, error) {
	cacheKey := fmt.Sprintf("dashboard:trainer:%s", trainerID)
	var cached dto.TrainerDashboard
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	counts, err := s.sessions.CountByStatus(ctx, "trainer_id", trainerID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count trainer sessions")
	}
	upcoming, err := s.sessions.CountUpcoming(ctx, "trainer_id", trainerID, s.today())
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count upcoming sessions")
	}

	overview := &dto.TrainerDashboard{
		TrainerID:         trainerID,
		UpcomingCount:     upcoming,
		TotalSessions:     totalOf(counts),
		CompletedSessions: counts[models.SessionCompleted],
		CancelledSessions: counts[models.SessionCancelled],
	}

	if err := s.cache.Set(ctx, cacheKey, overview, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache trainer dashboard", zap.Error(err))
	}
	return overview, false, nil
}

// maxTopTrainerLimit bounds caller-supplied ranking sizes.
const maxTopTrainerLimit = 50

// TopTrainers ranks trainers by completed-session count for the admin view.
// A non-positive limit falls back to the configured default.
func (s *DashboardService) TopTrainers(ctx context.Context, limit int) (*dto.TopTrainers, bool, error) {
	if limit <= 0 {
		limit = s.topTrainers
	}
	if limit > maxTopTrainerLimit {
		limit = maxTopTrainerLimit
	}

	cacheKey := fmt.Sprintf("dashboard:top_trainers:%d", limit)
	var cached dto.TopTrainers
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	rankings, err := s.sessions.TopTrainersByCompleted(ctx, limit)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rank trainers")
	}
	if rankings == nil {
		rankings = []models.TrainerRanking{}
	}

	result := &dto.TopTrainers{Rankings: rankings}
	if err := s.cache.Set(ctx, cacheKey, result, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache trainer rankings", zap.Error(err))
	}
	return result, false, nil
}

func (s *DashboardService) today() string {
	return s.now().UTC().Format(DateLayout)
}

func totalOf(counts map[models.SessionStatus]int) int {
	total := 0
	for _, count := range counts {
		total += count
	}
	return total
}
