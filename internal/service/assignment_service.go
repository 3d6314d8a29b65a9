package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ardiwn/gymflow-api/internal/models"
	appErrors "github.com/ardiwn/gymflow-api/pkg/errors"
)

type assignmentRepository interface {
	ListByMember(ctx context.Context, memberID string) ([]models.TrainerAssignmentDetail, error)
	FindByID(ctx context.Context, id string) (*models.TrainerAssignment, error)
	Exists(ctx context.Context, memberID, trainerID string) (bool, error)
	Create(ctx context.Context, assignment *models.TrainerAssignment) error
	Update(ctx context.Context, assignment *models.TrainerAssignment) error
	Delete(ctx context.Context, id string) error
}

type assignmentTrainerLookup interface {
	FindByID(ctx context.Context, id string) (*models.Trainer, error)
}

// CreateAssignmentRequest links a trainer to a member.
type CreateAssignmentRequest struct {
	TrainerID string `json:"trainer_id" validate:"required"`
	IsPrimary bool   `json:"is_primary"`
}

// UpdateAssignmentRequest adjusts an assignment's primary flag or status.
type UpdateAssignmentRequest struct {
	IsPrimary *bool                    `json:"is_primary,omitempty"`
	Status    *models.AssignmentStatus `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

// AssignmentService manages member/trainer links.
type AssignmentService struct {
	repo      assignmentRepository
	trainers  assignmentTrainerLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService instantiates AssignmentService.
func NewAssignmentService(repo assignmentRepository, trainers assignmentTrainerLookup, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, trainers: trainers, validator: validate, logger: logger}
}

// ListByMember returns the member's trainer assignments, primary first.
func (s *AssignmentService) ListByMember(ctx context.Context, memberID string) ([]models.TrainerAssignmentDetail, error) {
	assignments, err := s.repo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// Create links a trainer to a member.
func (s *AssignmentService) Create(ctx context.Context, memberID string, req CreateAssignmentRequest) (*models.TrainerAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	if _, err := s.trainers.FindByID(ctx, req.TrainerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrTrainerNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainer")
	}

	exists, err := s.repo.Exists(ctx, memberID, req.TrainerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "trainer already assigned to member")
	}

	assignment := models.TrainerAssignment{
		MemberID:  memberID,
		TrainerID: req.TrainerID,
		IsPrimary: req.IsPrimary,
		Status:    models.AssignmentActive,
	}
	if err := s.repo.Create(ctx, &assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return &assignment, nil
}

// Update adjusts an assignment's primary flag or lifecycle status.
func (s *AssignmentService) Update(ctx context.Context, memberID, assignmentID string, req UpdateAssignmentRequest) (*models.TrainerAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	assignment, err := s.load(ctx, memberID, assignmentID)
	if err != nil {
		return nil, err
	}

	if req.IsPrimary != nil {
		assignment.IsPrimary = *req.IsPrimary
	}
	if req.Status != nil {
		assignment.Status = *req.Status
	}

	if err := s.repo.Update(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	return assignment, nil
}

// Delete removes an assignment.
func (s *AssignmentService) Delete(ctx context.Context, memberID, assignmentID string) error {
	if _, err := s.load(ctx, memberID, assignmentID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, assignmentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}

func (s *AssignmentService) load(ctx context.Context, memberID, assignmentID string) (*models.TrainerAssignment, error) {
	assignment, err := s.repo.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if assignment.MemberID != memberID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	return assignment, nil
}
