package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ardiwn/gymflow-api/internal/models"
	appErrors "github.com/ardiwn/gymflow-api/pkg/errors"
	"github.com/ardiwn/gymflow-api/pkg/timeslot"
)

type trainerRepository interface {
	List(ctx context.Context, filter models.TrainerFilter) ([]models.Trainer, int, error)
	FindByID(ctx context.Context, id string) (*models.Trainer, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, trainer *models.Trainer) error
	Update(ctx context.Context, trainer *models.Trainer) error
	Deactivate(ctx context.Context, id string) error
	WeeklySchedule(ctx context.Context, trainerID string) (models.WeeklySchedule, error)
	ReplaceWeeklySchedule(ctx context.Context, trainerID string, days []models.ScheduleDay) error
}

// CreateTrainerRequest describes payload for creating a trainer.
type CreateTrainerRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	FullName  string  `json:"full_name" validate:"required"`
	Phone     *string `json:"phone,omitempty"`
	Specialty *string `json:"specialty,omitempty"`
}

// UpdateTrainerRequest updates an existing trainer.
type UpdateTrainerRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	FullName  string  `json:"full_name" validate:"required"`
	Phone     *string `json:"phone,omitempty"`
	Specialty *string `json:"specialty,omitempty"`
	Active    *bool   `json:"active,omitempty"`
}

// ScheduleDayRequest is one working window in a weekly template payload.
type ScheduleDayRequest struct {
	Weekday   int    `json:"weekday" validate:"min=0,max=6"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// ReplaceScheduleRequest swaps a trainer's full weekly template. Weekdays
// absent from Days become days off.
type ReplaceScheduleRequest struct {
	Days []ScheduleDayRequest `json:"days" validate:"dive"`
}

// TrainerService coordinates trainer roster and schedule-template logic.
type TrainerService struct {
	repo      trainerRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTrainerService instantiates TrainerService.
func NewTrainerService(repo trainerRepository, validate *validator.Validate, logger *zap.Logger) *TrainerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrainerService{repo: repo, validator: validate, logger: logger}
}

// List returns trainers with pagination metadata.
func (s *TrainerService) List(ctx context.Context, filter models.TrainerFilter) ([]models.Trainer, *models.Pagination, error) {
	trainers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list trainers")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return trainers, models.NewPagination(page, size, total), nil
}

// Get loads one trainer.
func (s *TrainerService) Get(ctx context.Context, id string) (*models.Trainer, error) {
	trainer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrTrainerNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainer")
	}
	return trainer, nil
}

// Create registers a new active trainer.
func (s *TrainerService) Create(ctx context.Context, req CreateTrainerRequest) (*models.Trainer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid trainer payload")
	}

	taken, err := s.repo.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check trainer email")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "trainer email already in use")
	}

	trainer := models.Trainer{
		Email:     req.Email,
		FullName:  req.FullName,
		Phone:     req.Phone,
		Specialty: req.Specialty,
		Active:    true,
	}
	if err := s.repo.Create(ctx, &trainer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create trainer")
	}
	return &trainer, nil
}

// Update modifies an existing trainer.
func (s *TrainerService) Update(ctx context.Context, id string, req UpdateTrainerRequest) (*models.Trainer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid trainer payload")
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	taken, err := s.repo.ExistsByEmail(ctx, req.Email, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check trainer email")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "trainer email already in use")
	}

	existing.Email = req.Email
	existing.FullName = req.FullName
	existing.Phone = req.Phone
	existing.Specialty = req.Specialty
	if req.Active != nil {
		existing.Active = *req.Active
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update trainer")
	}
	return existing, nil
}

// Deactivate soft-deletes a trainer; future bookings against them fail with
// TRAINER_INACTIVE while history stays intact.
func (s *TrainerService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate trainer")
	}
	return nil
}

// WeeklySchedule returns the trainer's template.
func (s *TrainerService) WeeklySchedule(ctx context.Context, id string) (models.WeeklySchedule, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	schedule, err := s.repo.WeeklySchedule(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly schedule")
	}
	return schedule, nil
}

// ReplaceWeeklySchedule validates and swaps the trainer's template.
func (s *TrainerService) ReplaceWeeklySchedule(ctx context.Context, id string, req ReplaceScheduleRequest) (models.WeeklySchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(req.Days))
	days := make([]models.ScheduleDay, 0, len(req.Days))
	for _, day := range req.Days {
		if seen[day.Weekday] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate weekday %d", day.Weekday))
		}
		seen[day.Weekday] = true

		window, err := timeslot.NewRange(day.StartTime, day.EndTime)
		if err != nil {
			if errors.Is(err, timeslot.ErrInvalidClock) {
				return nil, appErrors.Clone(appErrors.ErrInvalidTimeFormat, "")
			}
			return nil, appErrors.Clone(appErrors.ErrInvalidTimeRange, "")
		}

		days = append(days, models.ScheduleDay{
			TrainerID: id,
			Weekday:   time.Weekday(day.Weekday),
			StartTime: window.Start.String(),
			EndTime:   window.End.String(),
		})
	}

	if err := s.repo.ReplaceWeeklySchedule(ctx, id, days); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace weekly schedule")
	}

	schedule := make(models.WeeklySchedule, len(days))
	for _, day := range days {
		schedule[day.Weekday] = day
	}
	return schedule, nil
}
