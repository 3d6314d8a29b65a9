package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ardiwn/gymflow-api/internal/models"
	appErrors "github.com/ardiwn/gymflow-api/pkg/errors"
)

type mockTrainerRepo struct {
	trainers    map[string]*models.Trainer
	emailTaken  bool
	created     *models.Trainer
	updated     *models.Trainer
	deactivated []string
	schedule    models.WeeklySchedule
	replaced    []models.ScheduleDay
}

func (m *mockTrainerRepo) List(_ context.Context, _ models.TrainerFilter) ([]models.Trainer, int, error) {
	result := make([]models.Trainer, 0, len(m.trainers))
	for _, t := range m.trainers {
		result = append(result, *t)
	}
	return result, len(result), nil
}

func (m *mockTrainerRepo) FindByID(_ context.Context, id string) (*models.Trainer, error) {
	trainer, ok := m.trainers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return trainer, nil
}

func (m *mockTrainerRepo) ExistsByEmail(_ context.Context, _, _ string) (bool, error) {
	return m.emailTaken, nil
}

func (m *mockTrainerRepo) Create(_ context.Context, trainer *models.Trainer) error {
	trainer.ID = "trainer-new"
	m.created = trainer
	return nil
}

func (m *mockTrainerRepo) Update(_ context.Context, trainer *models.Trainer) error {
	m.updated = trainer
	return nil
}

func (m *mockTrainerRepo) Deactivate(_ context.Context, id string) error {
	m.deactivated = append(m.deactivated, id)
	return nil
}

func (m *mockTrainerRepo) WeeklySchedule(_ context.Context, _ string) (models.WeeklySchedule, error) {
	return m.schedule, nil
}

func (m *mockTrainerRepo) ReplaceWeeklySchedule(_ context.Context, _ string, days []models.ScheduleDay) error {
	m.replaced = days
	return nil
}

func newTrainerFixture(repo *mockTrainerRepo) *TrainerService {
	return NewTrainerService(repo, nil, zap.NewNop())
}

func TestTrainerServiceCreate(t *testing.T) {
	repo := &mockTrainerRepo{trainers: map[string]*models.Trainer{}}
	svc := newTrainerFixture(repo)

	trainer, err := svc.Create(context.Background(), CreateTrainerRequest{Email: "t@gym.dev", FullName: "Trainer One"})
	require.NoError(t, err)
	assert.True(t, trainer.Active)
	assert.Equal(t, "trainer-new", trainer.ID)
}

func TestTrainerServiceCreateDuplicateEmail(t *testing.T) {
	repo := &mockTrainerRepo{trainers: map[string]*models.Trainer{}, emailTaken: true}
	svc := newTrainerFixture(repo)

	_, err := svc.Create(context.Background(), CreateTrainerRequest{Email: "t@gym.dev", FullName: "Trainer One"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestTrainerServiceCreateInvalidEmail(t *testing.T) {
	svc := newTrainerFixture(&mockTrainerRepo{trainers: map[string]*models.Trainer{}})

	_, err := svc.Create(context.Background(), CreateTrainerRequest{Email: "not-an-email", FullName: "Trainer One"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestTrainerServiceGetNotFound(t *testing.T) {
	svc := newTrainerFixture(&mockTrainerRepo{trainers: map[string]*models.Trainer{}})

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrTrainerNotFound)
}

func TestTrainerServiceDeactivate(t *testing.T) {
	repo := &mockTrainerRepo{trainers: map[string]*models.Trainer{
		"trainer-1": {ID: "trainer-1", Email: "t@gym.dev", FullName: "Trainer One", Active: true},
	}}
	svc := newTrainerFixture(repo)

	require.NoError(t, svc.Deactivate(context.Background(), "trainer-1"))
	assert.Equal(t, []string{"trainer-1"}, repo.deactivated)
}

func TestTrainerServiceReplaceWeeklySchedule(t *testing.T) {
	repo := &mockTrainerRepo{trainers: map[string]*models.Trainer{
		"trainer-1": {ID: "trainer-1", Active: true},
	}}
	svc := newTrainerFixture(repo)

	schedule, err := svc.ReplaceWeeklySchedule(context.Background(), "trainer-1", ReplaceScheduleRequest{Days: []ScheduleDayRequest{
		{Weekday: 1, StartTime: "09:00", EndTime: "17:00"},
		{Weekday: 3, StartTime: "08:30", EndTime: "12:00"},
	}})
	require.NoError(t, err)
	require.Len(t, repo.replaced, 2)
	assert.Equal(t, time.Monday, repo.replaced[0].Weekday)
	assert.Equal(t, "09:00", schedule[time.Monday].StartTime)
	assert.Equal(t, "12:00", schedule[time.Wednesday].EndTime)
}

func TestTrainerServiceReplaceScheduleDuplicateWeekday(t *testing.T) {
	repo := &mockTrainerRepo{trainers: map[string]*models.Trainer{"trainer-1": {ID: "trainer-1"}}}
	svc := newTrainerFixture(repo)

	_, err := svc.ReplaceWeeklySchedule(context.Background(), "trainer-1", ReplaceScheduleRequest{Days: []ScheduleDayRequest{
		{Weekday: 1, StartTime: "09:00", EndTime: "12:00"},
		{Weekday: 1, StartTime: "13:00", EndTime: "17:00"},
	}})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestTrainerServiceReplaceScheduleBadTimeFormat(t *testing.T) {
	repo := &mockTrainerRepo{trainers: map[string]*models.Trainer{"trainer-1": {ID: "trainer-1"}}}
	svc := newTrainerFixture(repo)

	_, err := svc.ReplaceWeeklySchedule(context.Background(), "trainer-1", ReplaceScheduleRequest{Days: []ScheduleDayRequest{
		{Weekday: 1, StartTime: "9:00", EndTime: "17:00"},
	}})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTimeFormat)
}

func TestTrainerServiceReplaceScheduleInvertedWindow(t *testing.T) {
	repo := &mockTrainerRepo{trainers: map[string]*models.Trainer{"trainer-1": {ID: "trainer-1"}}}
	svc := newTrainerFixture(repo)

	_, err := svc.ReplaceWeeklySchedule(context.Background(), "trainer-1", ReplaceScheduleRequest{Days: []ScheduleDayRequest{
		{Weekday: 1, StartTime: "17:00", EndTime: "09:00"},
	}})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTimeRange)
}

func TestTrainerServiceReplaceScheduleEmptyClearsAllDays(t *testing.T) {
	repo := &mockTrainerRepo{trainers: map[string]*models.Trainer{"trainer-1": {ID: "trainer-1"}}}
	svc := newTrainerFixture(repo)

	schedule, err := svc.ReplaceWeeklySchedule(context.Background(), "trainer-1", ReplaceScheduleRequest{})
	require.NoError(t, err)
	assert.Empty(t, schedule)
	assert.Empty(t, repo.replaced)
}
