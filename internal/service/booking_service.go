package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ardiwn/gymflow-api/internal/models"
	"github.com/ardiwn/gymflow-api/internal/repository"
	appErrors "github.com/ardiwn/gymflow-api/pkg/errors"
	"github.com/ardiwn/gymflow-api/pkg/timeslot"
)

type bookingSessionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
	CreateScheduled(ctx context.Context, session *models.Session) error
	MarkCancelled(ctx context.Context, id string, by models.UserRole, reason string, at time.Time) (bool, error)
	MarkCompleted(ctx context.Context, id string, notes *string, at time.Time) (bool, error)
}

type bookingTrainerLookup interface {
	FindByID(ctx context.Context, id string) (*models.Trainer, error)
}

type bookingAssignmentLookup interface {
	ExistsActive(ctx context.Context, memberID, trainerID string) (bool, error)
}

type freeSlotResolver interface {
	FreeSlots(ctx context.Context, trainerID, date string) ([]FreeSlot, bool, error)
	InvalidateDay(ctx context.Context, trainerID, date string)
}

// BookSessionRequest describes a booking attempt.
type BookSessionRequest struct {
	MemberID  string  `json:"member_id" validate:"required"`
	TrainerID string  `json:"trainer_id" validate:"required"`
	Date      string  `json:"date" validate:"required"`
	StartTime string  `json:"start_time" validate:"required"`
	EndTime   string  `json:"end_time" validate:"required"`
	Notes     *string `json:"notes,omitempty"`
}

// CancelSessionRequest carries the cancellation reason.
type CancelSessionRequest struct {
	Reason string `json:"reason"`
}

// CompleteSessionRequest carries optional trainer notes.
type CompleteSessionRequest struct {
	Notes *string `json:"notes,omitempty"`
}

// BookingService enforces the booking rules and the session state machine.
// All writes go through here; the repository re-checks the overlap invariant
// under a per-trainer lock so concurrent bookings cannot both commit.
type BookingService struct {
	sessions     bookingSessionRepository
	trainers     bookingTrainerLookup
	assignments  bookingAssignmentLookup
	availability freeSlotResolver
	validator    *validator.Validate
	metrics      *MetricsService
	logger       *zap.Logger
	retries      int
	now          func() time.Time
}

// BookingServiceParams groups constructor dependencies.
type BookingServiceParams struct {
	Sessions     bookingSessionRepository
	Trainers     bookingTrainerLookup
	Assignments  bookingAssignmentLookup
	Availability freeSlotResolver
	Validator    *validator.Validate
	Metrics      *MetricsService
	Logger       *zap.Logger
	// ConflictRetries caps internal retries after a storage-level write
	// conflict. Clamped to one.
	ConflictRetries int
	Now             func() time.Time
}

// NewBookingService instantiates BookingService.
func NewBookingService(params BookingServiceParams) *BookingService {
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	retries := params.ConflictRetries
	if retries < 0 {
		retries = 0
	}
	if retries > 1 {
		retries = 1
	}
	return &BookingService{
		sessions:     params.Sessions,
		trainers:     params.Trainers,
		assignments:  params.Assignments,
		availability: params.Availability,
		validator:    params.Validator,
		metrics:      params.Metrics,
		logger:       params.Logger,
		retries:      retries,
		now:          params.Now,
	}
}

// Book validates and creates a SCHEDULED session.
func (s *BookingService) Book(ctx context.Context, req BookSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	window, err := parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	day, err := time.Parse(DateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	// Only the calendar day is checked: booking later today is allowed even
	// if the start time has already passed.
	if day.Format(DateLayout) < s.today() {
		return nil, appErrors.Clone(appErrors.ErrDateInPast, "")
	}

	trainer, err := s.trainers.FindByID(ctx, req.TrainerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrTrainerNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainer")
	}
	if !trainer.Active {
		return nil, appErrors.Clone(appErrors.ErrTrainerInactive, "")
	}

	assigned, err := s.assignments.ExistsActive(ctx, req.MemberID, req.TrainerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment")
	}
	if !assigned {
		return nil, appErrors.Clone(appErrors.ErrTrainerNotAssigned, "")
	}

	session := &models.Session{
		TrainerID: req.TrainerID,
		MemberID:  req.MemberID,
		Date:      day.Format(DateLayout),
		StartTime: window.Start.String(),
		EndTime:   window.End.String(),
		Notes:     req.Notes,
	}

	for attempt := 0; ; attempt++ {
		if err := s.ensureSlotFree(ctx, session, window); err != nil {
			s.metrics.RecordBookingOutcome("slot_unavailable")
			return nil, err
		}

		err := s.sessions.CreateScheduled(ctx, session)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrSlotTaken) {
			s.metrics.RecordBookingOutcome("slot_unavailable")
			return nil, appErrors.Clone(appErrors.ErrSlotUnavailable, "")
		}
		if repository.IsRetryableConflict(err) && attempt < s.retries {
			s.metrics.RecordBookingOutcome("conflict_retry")
			s.logger.Warn("booking write conflict, retrying once",
				zap.String("trainer_id", session.TrainerID), zap.String("date", session.Date))
			continue
		}
		if repository.IsRetryableConflict(err) {
			s.metrics.RecordBookingOutcome("slot_unavailable")
			return nil, appErrors.Clone(appErrors.ErrSlotUnavailable, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}

	s.metrics.RecordBookingOutcome("created")
	s.availability.InvalidateDay(ctx, session.TrainerID, session.Date)
	return session, nil
}

// Cancel transitions a SCHEDULED session to CANCELLED, recording the acting
// role and reason. Admins, the session's member and the session's trainer may
// cancel; the transition is idempotent-safe via a conditional update.
func (s *BookingService) Cancel(ctx context.Context, sessionID, actorID string, actorRole models.UserRole, req CancelSessionRequest) (*models.Session, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrAlreadyTerminal, "")
	}

	switch {
	case actorRole == models.RoleAdmin:
	case actorRole == models.RoleMember && actorID == session.MemberID:
	case actorRole == models.RoleTrainer && actorID == session.TrainerID:
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to cancel this session")
	}

	now := s.now().UTC()
	changed, err := s.sessions.MarkCancelled(ctx, sessionID, actorRole, req.Reason, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel session")
	}
	if !changed {
		// Lost a race with another terminal transition.
		return nil, appErrors.Clone(appErrors.ErrAlreadyTerminal, "")
	}

	s.availability.InvalidateDay(ctx, session.TrainerID, session.Date)
	return s.loadSession(ctx, sessionID)
}

// Complete transitions a SCHEDULED session to COMPLETED. Only the session's
// trainer may complete it, and not before the session day.
func (s *BookingService) Complete(ctx context.Context, sessionID, trainerID string, req CompleteSessionRequest) (*models.Session, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.TrainerID != trainerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to complete this session")
	}
	if session.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrAlreadyTerminal, "")
	}
	if session.Date > s.today() {
		return nil, appErrors.Clone(appErrors.ErrDateNotReached, "")
	}

	changed, err := s.sessions.MarkCompleted(ctx, sessionID, req.Notes, s.now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete session")
	}
	if !changed {
		return nil, appErrors.Clone(appErrors.ErrAlreadyTerminal, "")
	}

	s.availability.InvalidateDay(ctx, session.TrainerID, session.Date)
	return s.loadSession(ctx, sessionID)
}

func (s *BookingService) ensureSlotFree(ctx context.Context, session *models.Session, window timeslot.Range) error {
	slots, _, err := s.availability.FreeSlots(ctx, session.TrainerID, session.Date)
	if err != nil {
		return err
	}
	for _, slot := range slots {
		free, err := timeslot.NewRange(slot.StartTime, slot.EndTime)
		if err != nil {
			continue
		}
		if free.Contains(window) {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrSlotUnavailable, "")
}

func (s *BookingService) loadSession(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrSessionNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

func (s *BookingService) today() string {
	return s.now().UTC().Format(DateLayout)
}

func parseWindow(start, end string) (timeslot.Range, error) {
	from, err := timeslot.ParseClock(start)
	if err != nil {
		return timeslot.Range{}, appErrors.Clone(appErrors.ErrInvalidTimeFormat, "")
	}
	to, err := timeslot.ParseClock(end)
	if err != nil {
		return timeslot.Range{}, appErrors.Clone(appErrors.ErrInvalidTimeFormat, "")
	}
	if to <= from {
		return timeslot.Range{}, appErrors.Clone(appErrors.ErrInvalidTimeRange, "")
	}
	return timeslot.Range{Start: from, End: to}, nil
}
