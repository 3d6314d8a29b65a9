package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/ardiwn/gymflow-api/internal/models"
)

func newSessionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func sessionRows(sessions ...models.Session) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "trainer_id", "member_id", "session_date", "start_time", "end_time", "status", "notes", "cancelled_by", "cancellation_reason", "cancelled_at", "completed_at", "created_at", "updated_at"})
	for _, s := range sessions {
		rows.AddRow(s.ID, s.TrainerID, s.MemberID, s.Date, s.StartTime, s.EndTime, s.Status, s.Notes, s.CancelledBy, s.CancellationReason, s.CancelledAt, s.CompletedAt, s.CreatedAt, s.UpdatedAt)
	}
	return rows
}

func TestSessionRepositoryCreateScheduled(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db, nil)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM trainers WHERE id = $1 FOR UPDATE")).
		WithArgs("trainer-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("trainer-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM sessions WHERE trainer_id = $1")).
		WithArgs("trainer-1", "2026-03-11", "10:00", "11:00").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	session := &models.Session{
		TrainerID: "trainer-1",
		MemberID:  "member-1",
		Date:      "2026-03-11",
		StartTime: "10:00",
		EndTime:   "11:00",
	}
	require.NoError(t, repo.CreateScheduled(context.Background(), session))
	require.NotEmpty(t, session.ID)
	require.Equal(t, models.SessionScheduled, session.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCreateScheduledOverlap(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db, nil)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM trainers WHERE id = $1 FOR UPDATE")).
		WithArgs("trainer-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("trainer-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM sessions WHERE trainer_id = $1")).
		WithArgs("trainer-1", "2026-03-11", "10:00", "11:00").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	session := &models.Session{
		TrainerID: "trainer-1",
		MemberID:  "member-1",
		Date:      "2026-03-11",
		StartTime: "10:00",
		EndTime:   "11:00",
	}
	err := repo.CreateScheduled(context.Background(), session)
	require.ErrorIs(t, err, ErrSlotTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryMarkCancelled(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db, nil)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET status = 'CANCELLED'")).
		WithArgs("session-1", models.RoleMember, "sick", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	changed, err := repo.MarkCancelled(context.Background(), "session-1", models.RoleMember, "sick", now)
	require.NoError(t, err)
	require.True(t, changed)

	// Already terminal: the conditional update matches no rows.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET status = 'CANCELLED'")).
		WithArgs("session-1", models.RoleMember, "sick", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err = repo.MarkCancelled(context.Background(), "session-1", models.RoleMember, "sick", now)
	require.NoError(t, err)
	require.False(t, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryMarkCompleted(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db, nil)
	now := time.Now().UTC()
	notes := "good form"

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET status = 'COMPLETED'")).
		WithArgs("session-1", sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	changed, err := repo.MarkCompleted(context.Background(), "session-1", &notes, now)
	require.NoError(t, err)
	require.True(t, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListBusy(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE trainer_id = $1 AND session_date = $2")).
		WithArgs("trainer-1", "2026-03-11").
		WillReturnRows(sessionRows(models.Session{
			ID: "s1", TrainerID: "trainer-1", MemberID: "member-1",
			Date: "2026-03-11", StartTime: "10:00", EndTime: "11:00",
			Status: models.SessionScheduled,
		}))

	sessions, err := repo.ListBusy(context.Background(), "trainer-1", "2026-03-11")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, "10:00", sessions[0].StartTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListUpcomingScope(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE 1=1 AND member_id = $1 AND session_date >= $2 AND status = 'SCHEDULED'")).
		WithArgs("member-1", "2026-03-10").
		WillReturnRows(sessionRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM sessions WHERE 1=1 AND member_id = $1")).
		WithArgs("member-1", "2026-03-10").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.SessionFilter{
		MemberID: "member-1",
		Scope:    models.ScopeUpcoming,
		Today:    "2026-03-10",
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	require.Zero(t, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

type recordingQueryTimer struct {
	labels []string
}

func (r *recordingQueryTimer) ObserveDBQuery(label string, _ time.Duration) {
	r.labels = append(r.labels, label)
}

func TestSessionRepositoryObservesQueryTimings(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	timer := &recordingQueryTimer{}
	repo := NewSessionRepository(db, timer)
	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE trainer_id = $1 AND session_date = $2")).
		WithArgs("trainer-1", "2026-03-11").
		WillReturnRows(sessionRows())

	_, err := repo.ListBusy(context.Background(), "trainer-1", "2026-03-11")
	require.NoError(t, err)
	require.Equal(t, []string{"sessions_busy"}, timer.labels)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS count FROM sessions WHERE member_id = $1 GROUP BY status")).
		WithArgs("member-1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("SCHEDULED", 2).
			AddRow("COMPLETED", 5))

	counts, err := repo.CountByStatus(context.Background(), "member_id", "member-1")
	require.NoError(t, err)
	require.Equal(t, 2, counts[models.SessionScheduled])
	require.Equal(t, 5, counts[models.SessionCompleted])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCountByStatusRejectsColumn(t *testing.T) {
	db, _, cleanup := newSessionRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db, nil)
	_, err := repo.CountByStatus(context.Background(), "status; DROP TABLE sessions", "x")
	require.Error(t, err)
}

func TestSessionRepositoryTopTrainers(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db, nil)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY completed DESC, trainer_id ASC")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"trainer_id", "trainer_name", "completed"}).
			AddRow("trainer-2", "Trainer Two", 12).
			AddRow("trainer-1", "Trainer One", 7))

	rankings, err := repo.TopTrainersByCompleted(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, rankings, 2)
	require.Equal(t, "trainer-2", rankings[0].TrainerID)
	require.NoError(t, mock.ExpectationsWereMet())
}
