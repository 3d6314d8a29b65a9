package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ardiwn/gymflow-api/internal/models"
	appErrors "github.com/ardiwn/gymflow-api/pkg/errors"
	"github.com/ardiwn/gymflow-api/pkg/timeslot"
)

// DateLayout is the ISO calendar-day format used across the API.
const DateLayout = "2006-01-02"

type availabilityTrainerRepository interface {
	FindByID(ctx context.Context, id string) (*models.Trainer, error)
	ScheduleDay(ctx context.Context, trainerID string, weekday time.Weekday) (*models.ScheduleDay, error)
}

type availabilitySessionRepository interface {
	ListBusy(ctx context.Context, trainerID, date string) ([]models.Session, error)
}

// FreeSlot is one bookable window on a trainer's day.
type FreeSlot struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// AvailabilityService resolves a trainer's free slots for a calendar day:
// the weekly template window minus SCHEDULED and COMPLETED sessions.
type AvailabilityService struct {
	trainers availabilityTrainerRepository
	sessions availabilitySessionRepository
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewAvailabilityService instantiates AvailabilityService.
func NewAvailabilityService(trainers availabilityTrainerRepository, sessions availabilitySessionRepository, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{trainers: trainers, sessions: sessions, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// FreeSlots computes the trainer's free windows for the given day.
// Pure read; results are cached per (trainer, date) until a write invalidates.
func (s *AvailabilityService) FreeSlots(ctx context.Context, trainerID, date string) ([]FreeSlot, bool, error) {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	cacheKey := availabilityCacheKey(trainerID, date)
	var cached []FreeSlot
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, true, nil
	}

	if _, err := s.trainers.FindByID(ctx, trainerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrTrainerNotFound, "")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainer")
	}

	template, err := s.trainers.ScheduleDay(ctx, trainerID, day.Weekday())
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule day")
	}
	if template == nil {
		// Day off.
		return []FreeSlot{}, false, nil
	}

	window, err := timeslot.NewRange(template.StartTime, template.EndTime)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored schedule window is invalid")
	}

	busySessions, err := s.sessions.ListBusy(ctx, trainerID, date)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booked sessions")
	}

	busy := make([]timeslot.Range, 0, len(busySessions))
	for _, session := range busySessions {
		r, err := timeslot.NewRange(session.StartTime, session.EndTime)
		if err != nil {
			s.logger.Warn("skipping session with invalid stored times",
				zap.String("session_id", session.ID), zap.Error(err))
			continue
		}
		busy = append(busy, r)
	}

	free := timeslot.Subtract(window, busy)
	slots := make([]FreeSlot, 0, len(free))
	for _, r := range free {
		slots = append(slots, FreeSlot{StartTime: r.Start.String(), EndTime: r.End.String()})
	}

	if err := s.cache.Set(ctx, cacheKey, slots, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache free slots", zap.Error(err))
	}

	return slots, false, nil
}

// InvalidateDay drops cached availability for a trainer's calendar day.
// Called after any booking, cancellation or completion touching that day.
func (s *AvailabilityService) InvalidateDay(ctx context.Context, trainerID, date string) {
	if err := s.cache.Invalidate(ctx, availabilityCacheKey(trainerID, date)); err != nil {
		s.logger.Warn("failed to invalidate availability cache",
			zap.String("trainer_id", trainerID), zap.String("date", date), zap.Error(err))
	}
}

// InvalidateTrainer drops all cached availability for a trainer, used when
// the weekly template changes.
func (s *AvailabilityService) InvalidateTrainer(ctx context.Context, trainerID string) {
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("availability:%s:*", trainerID)); err != nil {
		s.logger.Warn("failed to invalidate trainer availability cache",
			zap.String("trainer_id", trainerID), zap.Error(err))
	}
}

func availabilityCacheKey(trainerID, date string) string {
	return fmt.Sprintf("availability:%s:%s", trainerID, date)
}
