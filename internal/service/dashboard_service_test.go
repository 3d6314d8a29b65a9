package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ardiwn/gymflow-api/internal/models"
)

type mockDashboardSessions struct {
	counts      map[models.SessionStatus]int
	upcoming    int
	byTrainer   []models.TrainerSessionCount
	rankings    []models.TrainerRanking
	countCalls  int
	rankedLimit int
}

func (m *mockDashboardSessions) CountByStatus(_ context.Context, _, _ string) (map[models.SessionStatus]int, error) {
	m.countCalls++
	return m.counts, nil
}

func (m *mockDashboardSessions) CountUpcoming(_ context.Context, _, _, _ string) (int, error) {
	return m.upcoming, nil
}

func (m *mockDashboardSessions) CountByTrainerForMember(_ context.Context, _ string) ([]models.TrainerSessionCount, error) {
	return m.byTrainer, nil
}

func (m *mockDashboardSessions) TopTrainersByCompleted(_ context.Context, limit int) ([]models.TrainerRanking, error) {
	m.rankedLimit = limit
	return m.rankings, nil
}

func newDashboardFixture(sessions *mockDashboardSessions, cacheRepo CacheRepository) *DashboardService {
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), cacheRepo != nil)
	return NewDashboardService(sessions, cacheSvc, time.Minute, 3, zap.NewNop())
}

func TestDashboardServiceMemberOverview(t *testing.T) {
	sessions := &mockDashboardSessions{
		counts: map[models.SessionStatus]int{
			models.SessionScheduled: 2,
			models.SessionCompleted: 5,
			models.SessionCancelled: 1,
		},
		upcoming: 2,
		byTrainer: []models.TrainerSessionCount{
			{TrainerID: "trainer-1", Count: 6},
			{TrainerID: "trainer-2", Count: 2},
		},
	}
	svc := newDashboardFixture(sessions, nil)

	overview, cacheHit, err := svc.MemberOverview(context.Background(), "member-1")
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Equal(t, 8, overview.TotalSessions)
	assert.Equal(t, 5, overview.CompletedSessions)
	assert.Equal(t, 1, overview.CancelledSessions)
	assert.Equal(t, 2, overview.UpcomingCount)
	assert.Len(t, overview.SessionsByTrainer, 2)
}

func TestDashboardServiceMemberOverviewEmpty(t *testing.T) {
	svc := newDashboardFixture(&mockDashboardSessions{counts: map[models.SessionStatus]int{}}, nil)

	overview, _, err := svc.MemberOverview(context.Background(), "member-new")
	require.NoError(t, err)
	assert.Zero(t, overview.TotalSessions)
	assert.NotNil(t, overview.SessionsByTrainer)
	assert.Empty(t, overview.SessionsByTrainer)
}

func TestDashboardServiceMemberOverviewCaching(t *testing.T) {
	sessions := &mockDashboardSessions{counts: map[models.SessionStatus]int{models.SessionCompleted: 3}}
	svc := newDashboardFixture(sessions, &stubCacheRepo{})

	ctx := context.Background()
	first, cacheHit, err := svc.MemberOverview(ctx, "member-1")
	require.NoError(t, err)
	assert.False(t, cacheHit)

	second, cacheHit2, err := svc.MemberOverview(ctx, "member-1")
	require.NoError(t, err)
	assert.True(t, cacheHit2)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, sessions.countCalls)
}

func TestDashboardServiceTrainerOverview(t *testing.T) {
	sessions := &mockDashboardSessions{
		counts: map[models.SessionStatus]int{
			models.SessionScheduled: 4,
			models.SessionCompleted: 10,
		},
		upcoming: 4,
	}
	svc := newDashboardFixture(sessions, nil)

	overview, _, err := svc.TrainerOverview(context.Background(), "trainer-1")
	require.NoError(t, err)
	assert.Equal(t, 14, overview.TotalSessions)
	assert.Equal(t, 10, overview.CompletedSessions)
	assert.Equal(t, 4, overview.UpcomingCount)
}

func TestDashboardServiceTopTrainers(t *testing.T) {
	sessions := &mockDashboardSessions{rankings: []models.TrainerRanking{
		{TrainerID: "trainer-2", TrainerName: "Trainer Two", Completed: 12},
		{TrainerID: "trainer-1", TrainerName: "Trainer One", Completed: 7},
	}}
	svc := newDashboardFixture(sessions, nil)

	result, _, err := svc.TopTrainers(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, sessions.rankedLimit)
	require.Len(t, result.Rankings, 2)
	assert.Equal(t, "trainer-2", result.Rankings[0].TrainerID)
}

func TestDashboardServiceTopTrainersCallerLimit(t *testing.T) {
	sessions := &mockDashboardSessions{rankings: []models.TrainerRanking{
		{TrainerID: "trainer-2", TrainerName: "Trainer Two", Completed: 12},
	}}
	svc := newDashboardFixture(sessions, nil)

	_, _, err := svc.TopTrainers(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, sessions.rankedLimit)

	// Oversized limits are capped.
	_, _, err = svc.TopTrainers(context.Background(), 500)
	require.NoError(t, err)
	assert.Equal(t, 50, sessions.rankedLimit)
}

func TestDashboardServiceTopTrainersCachedPerLimit(t *testing.T) {
	sessions := &mockDashboardSessions{rankings: []models.TrainerRanking{
		{TrainerID: "trainer-1", TrainerName: "Trainer One", Completed: 7},
	}}
	svc := newDashboardFixture(sessions, &stubCacheRepo{})

	ctx := context.Background()
	_, cacheHit, err := svc.TopTrainers(ctx, 2)
	require.NoError(t, err)
	assert.False(t, cacheHit)

	// Same limit hits the cache, a different limit does not.
	_, cacheHit, err = svc.TopTrainers(ctx, 2)
	require.NoError(t, err)
	assert.True(t, cacheHit)

	_, cacheHit, err = svc.TopTrainers(ctx, 4)
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Equal(t, 4, sessions.rankedLimit)
}

func TestDashboardServiceTopTrainersEmpty(t *testing.T) {
	svc := newDashboardFixture(&mockDashboardSessions{}, nil)

	result, _, err := svc.TopTrainers(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, result.Rankings)
	assert.Empty(t, result.Rankings)
}
