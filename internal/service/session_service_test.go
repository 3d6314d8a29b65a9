package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ardiwn/gymflow-api/internal/models"
	appErrors "github.com/ardiwn/gymflow-api/pkg/errors"
)

type mockSessionQuery struct {
	session    *models.Session
	sessions   []models.Session
	total      int
	lastFilter models.SessionFilter
	listCalls  int
}

func (m *mockSessionQuery) FindByID(_ context.Context, id string) (*models.Session, error) {
	if m.session == nil || m.session.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.session, nil
}

func (m *mockSessionQuery) List(_ context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	m.listCalls++
	m.lastFilter = filter
	return m.sessions, m.total, nil
}

func newSessionFixture(repo *mockSessionQuery) *SessionService {
	return NewSessionService(repo, 20, 100, zap.NewNop())
}

func TestSessionServiceListMemberScopedToSelf(t *testing.T) {
	repo := &mockSessionQuery{}
	svc := newSessionFixture(repo)

	_, _, err := svc.List(context.Background(), "member-1", models.RoleMember, SessionListRequest{MemberID: "member-2"})
	require.NoError(t, err)
	assert.Equal(t, "member-1", repo.lastFilter.MemberID)
}

func TestSessionServiceListTrainerScopedToSelf(t *testing.T) {
	repo := &mockSessionQuery{}
	svc := newSessionFixture(repo)

	_, _, err := svc.List(context.Background(), "trainer-1", models.RoleTrainer, SessionListRequest{TrainerID: "trainer-9"})
	require.NoError(t, err)
	assert.Equal(t, "trainer-1", repo.lastFilter.TrainerID)
}

func TestSessionServiceListAdminUnscoped(t *testing.T) {
	repo := &mockSessionQuery{}
	svc := newSessionFixture(repo)

	_, _, err := svc.List(context.Background(), "admin-1", models.RoleAdmin, SessionListRequest{MemberID: "member-2", TrainerID: "trainer-3"})
	require.NoError(t, err)
	assert.Equal(t, "member-2", repo.lastFilter.MemberID)
	assert.Equal(t, "trainer-3", repo.lastFilter.TrainerID)
}

func TestSessionServiceListUpcomingScope(t *testing.T) {
	repo := &mockSessionQuery{}
	svc := newSessionFixture(repo)

	_, _, err := svc.List(context.Background(), "member-1", models.RoleMember, SessionListRequest{Scope: "upcoming"})
	require.NoError(t, err)
	assert.Equal(t, models.ScopeUpcoming, repo.lastFilter.Scope)
	assert.NotEmpty(t, repo.lastFilter.Today)
}

func TestSessionServiceListInvalidScope(t *testing.T) {
	svc := newSessionFixture(&mockSessionQuery{})

	_, _, err := svc.List(context.Background(), "member-1", models.RoleMember, SessionListRequest{Scope: "future"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestSessionServiceListInvalidStatus(t *testing.T) {
	svc := newSessionFixture(&mockSessionQuery{})

	_, _, err := svc.List(context.Background(), "member-1", models.RoleMember, SessionListRequest{Status: "DONE"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestSessionServiceListInvalidDate(t *testing.T) {
	svc := newSessionFixture(&mockSessionQuery{})

	_, _, err := svc.List(context.Background(), "member-1", models.RoleMember, SessionListRequest{DateFrom: "03/11/2026"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestSessionServiceListPageSizeClamped(t *testing.T) {
	repo := &mockSessionQuery{}
	svc := newSessionFixture(repo)

	_, _, err := svc.List(context.Background(), "admin-1", models.RoleAdmin, SessionListRequest{Page: -2, PageSize: 5000})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lastFilter.Page)
	assert.Equal(t, 100, repo.lastFilter.PageSize)
}

func TestSessionServiceListPagination(t *testing.T) {
	repo := &mockSessionQuery{total: 45}
	svc := newSessionFixture(repo)

	_, pagination, err := svc.List(context.Background(), "admin-1", models.RoleAdmin, SessionListRequest{Page: 2, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, pagination.CurrentPage)
	assert.Equal(t, 3, pagination.TotalPages)
	assert.Equal(t, 45, pagination.TotalRecords)
	assert.True(t, pagination.HasNextPage)
	assert.True(t, pagination.HasPrevPage)
}

func TestSessionServiceGetVisibility(t *testing.T) {
	session := &models.Session{ID: "session-1", TrainerID: "trainer-1", MemberID: "member-1"}
	svc := newSessionFixture(&mockSessionQuery{session: session})
	ctx := context.Background()

	_, err := svc.Get(ctx, "session-1", "member-1", models.RoleMember)
	assert.NoError(t, err)

	_, err = svc.Get(ctx, "session-1", "trainer-1", models.RoleTrainer)
	assert.NoError(t, err)

	_, err = svc.Get(ctx, "session-1", "admin-1", models.RoleAdmin)
	assert.NoError(t, err)

	_, err = svc.Get(ctx, "session-1", "member-2", models.RoleMember)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestSessionServiceGetNotFound(t *testing.T) {
	svc := newSessionFixture(&mockSessionQuery{})

	_, err := svc.Get(context.Background(), "missing", "admin-1", models.RoleAdmin)
	assert.ErrorIs(t, err, appErrors.ErrSessionNotFound)
}

func TestSessionServiceExportCSV(t *testing.T) {
	repo := &mockSessionQuery{
		sessions: []models.Session{{
			ID:        "session-1",
			TrainerID: "trainer-1",
			MemberID:  "member-1",
			Date:      "2026-03-11",
			StartTime: "10:00",
			EndTime:   "11:00",
			Status:    models.SessionScheduled,
		}},
		total: 1,
	}
	svc := newSessionFixture(repo)

	result, err := svc.Export(context.Background(), "admin-1", models.RoleAdmin, SessionListRequest{}, ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))

	lines := strings.Split(strings.TrimSpace(string(result.Content)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ID,Date,Start,End,Trainer,Member,Status,Notes", lines[0])
	assert.Contains(t, lines[1], "session-1")
	assert.Contains(t, lines[1], "2026-03-11")
}

func TestSessionServiceExportPDF(t *testing.T) {
	repo := &mockSessionQuery{sessions: []models.Session{{ID: "session-1", Date: "2026-03-11", Status: models.SessionCompleted}}, total: 1}
	svc := newSessionFixture(repo)

	result, err := svc.Export(context.Background(), "admin-1", models.RoleAdmin, SessionListRequest{}, ExportPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Content), "%PDF"))
}

func TestSessionServiceExportUnknownFormat(t *testing.T) {
	svc := newSessionFixture(&mockSessionQuery{})

	_, err := svc.Export(context.Background(), "admin-1", models.RoleAdmin, SessionListRequest{}, "xlsx")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
