package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ardiwn/gymflow-api/internal/models"
)

// AssignmentRepository persists member/trainer assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new assignment repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListByMember returns a member's assignments enriched with trainer details.
func (r *AssignmentRepository) ListByMember(ctx context.Context, memberID string) ([]models.TrainerAssignmentDetail, error) {
	const query = `SELECT a.id, a.member_id, a.trainer_id, a.is_primary, a.status, a.created_at, a.updated_at, t.full_name AS trainer_name, t.active AS trainer_active
		FROM trainer_assignments a
		JOIN trainers t ON t.id = a.trainer_id
		WHERE a.member_id = $1
		ORDER BY a.is_primary DESC, a.created_at ASC`
	var assignments []models.TrainerAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, memberID); err != nil {
		return nil, fmt.Errorf("list assignments by member: %w", err)
	}
	return assignments, nil
}

// FindByID loads an assignment by id.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.TrainerAssignment, error) {
	const query = `SELECT id, member_id, trainer_id, is_primary, status, created_at, updated_at FROM trainer_assignments WHERE id = $1`
	var assignment models.TrainerAssignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ExistsActive reports whether an active assignment links member and trainer.
func (r *AssignmentRepository) ExistsActive(ctx context.Context, memberID, trainerID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM trainer_assignments WHERE member_id = $1 AND trainer_id = $2 AND status = 'ACTIVE')`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, memberID, trainerID); err != nil {
		return false, fmt.Errorf("check active assignment: %w", err)
	}
	return exists, nil
}

// Exists reports whether any assignment links member and trainer.
func (r *AssignmentRepository) Exists(ctx context.Context, memberID, trainerID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM trainer_assignments WHERE member_id = $1 AND trainer_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, memberID, trainerID); err != nil {
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return exists, nil
}

// Create stores a new assignment. When the assignment is primary, the
// member's previous primary is demoted inside the same transaction so the
// one-primary-per-member invariant holds.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.TrainerAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create assignment: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if assignment.IsPrimary {
		if _, err = tx.ExecContext(ctx,
			`UPDATE trainer_assignments SET is_primary = FALSE, updated_at = $2 WHERE member_id = $1 AND is_primary = TRUE`,
			assignment.MemberID, now,
		); err != nil {
			return fmt.Errorf("demote previous primary: %w", err)
		}
	}

	if _, err = sqlx.NamedExecContext(ctx, tx,
		`INSERT INTO trainer_assignments (id, member_id, trainer_id, is_primary, status, created_at, updated_at) VALUES (:id, :member_id, :trainer_id, :is_primary, :status, :created_at, :updated_at)`,
		assignment,
	); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create assignment: %w", err)
	}
	return nil
}

// Update modifies the primary flag and status of an assignment, demoting the
// member's other primary when this one is promoted.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.TrainerAssignment) error {
	assignment.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update assignment: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if assignment.IsPrimary {
		if _, err = tx.ExecContext(ctx,
			`UPDATE trainer_assignments SET is_primary = FALSE, updated_at = $3 WHERE member_id = $1 AND is_primary = TRUE AND id <> $2`,
			assignment.MemberID, assignment.ID, assignment.UpdatedAt,
		); err != nil {
			return fmt.Errorf("demote previous primary: %w", err)
		}
	}

	if _, err = sqlx.NamedExecContext(ctx, tx,
		`UPDATE trainer_assignments SET is_primary = :is_primary, status = :status, updated_at = :updated_at WHERE id = :id`,
		assignment,
	); err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update assignment: %w", err)
	}
	return nil
}

// Delete removes an assignment by id.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM trainer_assignments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}
