package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ardiwn/gymflow-api/internal/models"
)

// ErrSlotTaken signals that the overlap re-check inside the booking
// transaction found a competing session.
var ErrSlotTaken = errors.New("slot already taken")

const sessionColumns = `id, trainer_id, member_id, session_date, start_time, end_time, status, notes, cancelled_by, cancellation_reason, cancelled_at, completed_at, created_at, updated_at`

// QueryTimer receives per-query duration observations.
type QueryTimer interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// SessionRepository persists sessions and answers the booking queries.
type SessionRepository struct {
	db      *sqlx.DB
	metrics QueryTimer
}

// NewSessionRepository creates a new session repository. The timer may be nil.
func NewSessionRepository(db *sqlx.DB, metrics QueryTimer) *SessionRepository {
	return &SessionRepository{db: db, metrics: metrics}
}

func (r *SessionRepository) observe(label string, started time.Time) {
	if r.metrics != nil {
		r.metrics.ObserveDBQuery(label, time.Since(started))
	}
}

// FindByID loads a session by id.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE id = $1`, sessionColumns)
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListBusy returns the sessions occupying a trainer's day, ordered by start.
// Only SCHEDULED and COMPLETED sessions block the calendar.
func (r *SessionRepository) ListBusy(ctx context.Context, trainerID, date string) ([]models.Session, error) {
	defer r.observe("sessions_busy", time.Now())
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE trainer_id = $1 AND session_date = $2 AND status IN ('SCHEDULED', 'COMPLETED') ORDER BY start_time ASC`, sessionColumns)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, trainerID, date); err != nil {
		return nil, fmt.Errorf("list busy sessions: %w", err)
	}
	return sessions, nil
}

// List returns sessions with filtering, scope ordering and pagination.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	defer r.observe("sessions_list", time.Now())
	base := "FROM sessions WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.MemberID != "" {
		conditions = append(conditions, fmt.Sprintf("member_id = $%d", len(args)+1))
		args = append(args, filter.MemberID)
	}
	if filter.TrainerID != "" {
		conditions = append(conditions, fmt.Sprintf("trainer_id = $%d", len(args)+1))
		args = append(args, filter.TrainerID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.DateFrom != "" {
		conditions = append(conditions, fmt.Sprintf("session_date >= $%d", len(args)+1))
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		conditions = append(conditions, fmt.Sprintf("session_date <= $%d", len(args)+1))
		args = append(args, filter.DateTo)
	}

	order := "session_date ASC, start_time ASC"
	switch filter.Scope {
	case models.ScopeUpcoming:
		conditions = append(conditions, fmt.Sprintf("session_date >= $%d", len(args)+1))
		args = append(args, filter.Today)
		conditions = append(conditions, "status = 'SCHEDULED'")
	case models.ScopeRecent:
		conditions = append(conditions, fmt.Sprintf("(session_date < $%d OR status <> 'SCHEDULED')", len(args)+1))
		args = append(args, filter.Today)
		order = "session_date DESC, start_time DESC"
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d", sessionColumns, base, order, size, offset)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	return sessions, total, nil
}

// CreateScheduled inserts a new SCHEDULED session after re-validating the
// overlap invariant inside a transaction. The trainer row is locked first so
// concurrent bookings for the same trainer serialize; the loser of the race
// sees the winner's row and gets ErrSlotTaken.
func (r *SessionRepository) CreateScheduled(ctx context.Context, session *models.Session) error {
	defer r.observe("sessions_create", time.Now())
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	session.Status = models.SessionScheduled
	session.CreatedAt = now
	session.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create session: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var lockedID string
	if err = tx.GetContext(ctx, &lockedID, `SELECT id FROM trainers WHERE id = $1 FOR UPDATE`, session.TrainerID); err != nil {
		return fmt.Errorf("lock trainer row: %w", err)
	}

	var conflicts int
	if err = tx.GetContext(ctx, &conflicts,
		`SELECT COUNT(*) FROM sessions WHERE trainer_id = $1 AND session_date = $2 AND status IN ('SCHEDULED', 'COMPLETED') AND start_time < $4 AND end_time > $3`,
		session.TrainerID, session.Date, session.StartTime, session.EndTime,
	); err != nil {
		return fmt.Errorf("recheck overlap: %w", err)
	}
	if conflicts > 0 {
		err = ErrSlotTaken
		return err
	}

	if _, err = sqlx.NamedExecContext(ctx, tx,
		`INSERT INTO sessions (id, trainer_id, member_id, session_date, start_time, end_time, status, notes, created_at, updated_at) VALUES (:id, :trainer_id, :member_id, :session_date, :start_time, :end_time, :status, :notes, :created_at, :updated_at)`,
		session,
	); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create session: %w", err)
	}
	return nil
}

// MarkCancelled flips a SCHEDULED session to CANCELLED recording the acting
// role and reason. Returns false when the session was already terminal.
func (r *SessionRepository) MarkCancelled(ctx context.Context, id string, by models.UserRole, reason string, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET status = 'CANCELLED', cancelled_by = $2, cancellation_reason = $3, cancelled_at = $4, updated_at = $4 WHERE id = $1 AND status = 'SCHEDULED'`,
		id, by, reason, at,
	)
	if err != nil {
		return false, fmt.Errorf("cancel session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cancel session rows: %w", err)
	}
	return affected > 0, nil
}

// MarkCompleted flips a SCHEDULED session to COMPLETED storing trainer notes.
// Returns false when the session was already terminal.
func (r *SessionRepository) MarkCompleted(ctx context.Context, id string, notes *string, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET status = 'COMPLETED', notes = COALESCE($2, notes), completed_at = $3, updated_at = $3 WHERE id = $1 AND status = 'SCHEDULED'`,
		id, notes, at,
	)
	if err != nil {
		return false, fmt.Errorf("complete session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete session rows: %w", err)
	}
	return affected > 0, nil
}

// CountByStatus tallies sessions by status for a member or trainer column.
func (r *SessionRepository) CountByStatus(ctx context.Context, column, id string) (map[models.SessionStatus]int, error) {
	if column != "member_id" && column != "trainer_id" {
		return nil, fmt.Errorf("unsupported count column %q", column)
	}
	query := fmt.Sprintf(`SELECT status, COUNT(*) AS count FROM sessions WHERE %s = $1 GROUP BY status`, column)
	rows := []struct {
		Status models.SessionStatus `db:"status"`
		Count  int                  `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, id); err != nil {
		return nil, fmt.Errorf("count sessions by status: %w", err)
	}
	counts := make(map[models.SessionStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// CountUpcoming tallies SCHEDULED sessions on or after today.
func (r *SessionRepository) CountUpcoming(ctx context.Context, column, id, today string) (int, error) {
	if column != "member_id" && column != "trainer_id" {
		return 0, fmt.Errorf("unsupported count column %q", column)
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM sessions WHERE %s = $1 AND status = 'SCHEDULED' AND session_date >= $2`, column)
	var count int
	if err := r.db.GetContext(ctx, &count, query, id, today); err != nil {
		return 0, fmt.Errorf("count upcoming sessions: %w", err)
	}
	return count, nil
}

// CountByTrainerForMember returns per-trainer session tallies for a member.
func (r *SessionRepository) CountByTrainerForMember(ctx context.Context, memberID string) ([]models.TrainerSessionCount, error) {
	const query = `SELECT trainer_id, COUNT(*) AS count FROM sessions WHERE member_id = $1 GROUP BY trainer_id ORDER BY trainer_id ASC`
	var counts []models.TrainerSessionCount
	if err := r.db.SelectContext(ctx, &counts, query, memberID); err != nil {
		return nil, fmt.Errorf("count sessions by trainer: %w", err)
	}
	return counts, nil
}

// TopTrainersByCompleted ranks trainers by completed sessions, ties broken by
// trainer id ascending so the ordering is deterministic.
func (r *SessionRepository) TopTrainersByCompleted(ctx context.Context, limit int) ([]models.TrainerRanking, error) {
	defer r.observe("sessions_top_trainers", time.Now())
	if limit <= 0 {
		limit = 5
	}
	const query = `SELECT t.id AS trainer_id, t.full_name AS trainer_name, COUNT(s.id) AS completed
		FROM trainers t
		JOIN sessions s ON s.trainer_id = t.id AND s.status = 'COMPLETED'
		GROUP BY t.id, t.full_name
		ORDER BY completed DESC, trainer_id ASC
		LIMIT $1`
	var rankings []models.TrainerRanking
	if err := r.db.SelectContext(ctx, &rankings, query, limit); err != nil {
		return nil, fmt.Errorf("rank trainers: %w", err)
	}
	return rankings, nil
}
