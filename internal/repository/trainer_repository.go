package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ardiwn/gymflow-api/internal/models"
)

// TrainerRepository provides persistence for trainers and their weekly
// work-schedule templates.
type TrainerRepository struct {
	db *sqlx.DB
}

// NewTrainerRepository creates a new trainer repository.
func NewTrainerRepository(db *sqlx.DB) *TrainerRepository {
	return &TrainerRepository{db: db}
}

// List returns trainers with optional filtering and pagination.
func (r *TrainerRepository) List(ctx context.Context, filter models.TrainerFilter) ([]models.Trainer, int, error) {
	base := "FROM trainers WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"full_name":  true,
		"email":      true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, email, full_name, phone, specialty, active, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", base, sortBy, order, size, offset)
	var trainers []models.Trainer
	if err := r.db.SelectContext(ctx, &trainers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list trainers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count trainers: %w", err)
	}

	return trainers, total, nil
}

// FindByID loads a trainer by id.
func (r *TrainerRepository) FindByID(ctx context.Context, id string) (*models.Trainer, error) {
	const query = `SELECT id, email, full_name, phone, specialty, active, created_at, updated_at FROM trainers WHERE id = $1`
	var trainer models.Trainer
	if err := r.db.GetContext(ctx, &trainer, query, id); err != nil {
		return nil, err
	}
	return &trainer, nil
}

// ExistsByEmail reports whether a trainer with the email exists, ignoring excludeID.
func (r *TrainerRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	query := `SELECT id FROM trainers WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var owner string
	if err := r.db.GetContext(ctx, &owner, query, email); err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("check trainer email: %w", err)
	}
	return excludeID == "" || owner != excludeID, nil
}

// Create stores a new trainer record.
func (r *TrainerRepository) Create(ctx context.Context, trainer *models.Trainer) error {
	if trainer.ID == "" {
		trainer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	trainer.CreatedAt = now
	trainer.UpdatedAt = now

	const query = `INSERT INTO trainers (id, email, full_name, phone, specialty, active, created_at, updated_at) VALUES (:id, :email, :full_name, :phone, :specialty, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, trainer); err != nil {
		return fmt.Errorf("create trainer: %w", err)
	}
	return nil
}

// Update modifies a trainer record.
func (r *TrainerRepository) Update(ctx context.Context, trainer *models.Trainer) error {
	trainer.UpdatedAt = time.Now().UTC()
	const query = `UPDATE trainers SET email = :email, full_name = :full_name, phone = :phone, specialty = :specialty, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, trainer); err != nil {
		return fmt.Errorf("update trainer: %w", err)
	}
	return nil
}

// Deactivate soft-deletes a trainer.
func (r *TrainerRepository) Deactivate(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE trainers SET active = FALSE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate trainer: %w", err)
	}
	return nil
}

// WeeklySchedule returns the trainer's working windows keyed by weekday.
// Weekdays without a row are days off.
func (r *TrainerRepository) WeeklySchedule(ctx context.Context, trainerID string) (models.WeeklySchedule, error) {
	const query = `SELECT trainer_id, weekday, start_time, end_time FROM trainer_schedules WHERE trainer_id = $1 ORDER BY weekday ASC`
	var days []models.ScheduleDay
	if err := r.db.SelectContext(ctx, &days, query, trainerID); err != nil {
		return nil, fmt.Errorf("load weekly schedule: %w", err)
	}
	schedule := make(models.WeeklySchedule, len(days))
	for _, day := range days {
		schedule[day.Weekday] = day
	}
	return schedule, nil
}

// ScheduleDay returns the working window for one weekday, or nil for a day off.
func (r *TrainerRepository) ScheduleDay(ctx context.Context, trainerID string, weekday time.Weekday) (*models.ScheduleDay, error) {
	const query = `SELECT trainer_id, weekday, start_time, end_time FROM trainer_schedules WHERE trainer_id = $1 AND weekday = $2`
	var day models.ScheduleDay
	if err := r.db.GetContext(ctx, &day, query, trainerID, int(weekday)); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load schedule day: %w", err)
	}
	return &day, nil
}

// ReplaceWeeklySchedule swaps the trainer's full template in one transaction.
func (r *TrainerRepository) ReplaceWeeklySchedule(ctx context.Context, trainerID string, days []models.ScheduleDay) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace schedule: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM trainer_schedules WHERE trainer_id = $1`, trainerID); err != nil {
		return fmt.Errorf("clear weekly schedule: %w", err)
	}

	for _, day := range days {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO trainer_schedules (trainer_id, weekday, start_time, end_time) VALUES ($1, $2, $3, $4)`,
			trainerID, int(day.Weekday), day.StartTime, day.EndTime,
		); err != nil {
			return fmt.Errorf("insert schedule day: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace schedule: %w", err)
	}
	return nil
}
