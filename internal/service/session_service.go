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
	"github.com/ardiwn/gymflow-api/pkg/export"
)

type sessionQueryRepository interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error)
}

// SessionListRequest carries the query-side filters for session listings.
type SessionListRequest struct {
	MemberID  string
	TrainerID string
	Status    string
	DateFrom  string
	DateTo    string
	Scope     string
	Page      int
	PageSize  int
}

// ExportFormat selects the rendering backend for session exports.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportResult is a rendered export document.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// SessionService serves session reads: listings, detail lookups and exports.
// Writes go through BookingService.
type SessionService struct {
	sessions        sessionQueryRepository
	csv             *export.CSVExporter
	pdf             *export.PDFExporter
	logger          *zap.Logger
	defaultPageSize int
	maxPageSize     int
	now             func() time.Time
}

// NewSessionService instantiates SessionService.
func NewSessionService(sessions sessionQueryRepository, defaultPageSize, maxPageSize int, logger *zap.Logger) *SessionService {
	if defaultPageSize <= 0 {
		defaultPageSize = 20
	}
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		sessions:        sessions,
		csv:             export.NewCSVExporter(),
		pdf:             export.NewPDFExporter(),
		logger:          logger,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		now:             time.Now,
	}
}

// List returns sessions visible to the actor. Members and trainers are pinned
// to their own sessions; admins see everything the filters allow.
func (s *SessionService) List(ctx context.Context, actorID string, actorRole models.UserRole, req SessionListRequest) ([]models.Session, *models.Pagination, error) {
	filter, err := s.buildFilter(actorID, actorRole, req)
	if err != nil {
		return nil, nil, err
	}

	sessions, total, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	return sessions, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get loads one session, enforcing the same visibility rules as List.
func (s *SessionService) Get(ctx context.Context, sessionID, actorID string, actorRole models.UserRole) (*models.Session, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrSessionNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	switch {
	case actorRole == models.RoleAdmin:
	case actorRole == models.RoleMember && session.MemberID == actorID:
	case actorRole == models.RoleTrainer && session.TrainerID == actorID:
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to view this session")
	}
	return session, nil
}

// Export renders the actor's visible sessions as a CSV or PDF document. The
// export walks every page of the filtered result, not just the first.
func (s *SessionService) Export(ctx context.Context, actorID string, actorRole models.UserRole, req SessionListRequest, format ExportFormat) (*ExportResult, error) {
	filter, err := s.buildFilter(actorID, actorRole, req)
	if err != nil {
		return nil, err
	}
	filter.Page = 1
	filter.PageSize = s.maxPageSize

	var all []models.Session
	for {
		sessions, total, err := s.sessions.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export sessions")
		}
		all = append(all, sessions...)
		if len(all) >= total || len(sessions) == 0 {
			break
		}
		filter.Page++
	}

	dataset := sessionsToDataset(all)
	stamp := s.now().UTC().Format("20060102")

	switch format {
	case ExportCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("sessions_%s.csv", stamp),
		}, nil
	case ExportPDF:
		content, err := s.pdf.Render(dataset, "Training Sessions")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("sessions_%s.pdf", stamp),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func (s *SessionService) buildFilter(actorID string, actorRole models.UserRole, req SessionListRequest) (models.SessionFilter, error) {
	filter := models.SessionFilter{
		MemberID:  req.MemberID,
		TrainerID: req.TrainerID,
		DateFrom:  req.DateFrom,
		DateTo:    req.DateTo,
	}

	switch actorRole {
	case models.RoleMember:
		filter.MemberID = actorID
	case models.RoleTrainer:
		filter.TrainerID = actorID
	}

	if req.Status != "" {
		status := models.SessionStatus(req.Status)
		switch status {
		case models.SessionScheduled, models.SessionCompleted, models.SessionCancelled:
			filter.Status = status
		default:
			return models.SessionFilter{}, appErrors.Clone(appErrors.ErrValidation, "status must be SCHEDULED, COMPLETED or CANCELLED")
		}
	}

	for _, date := range []string{req.DateFrom, req.DateTo} {
		if date == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, date); err != nil {
			return models.SessionFilter{}, appErrors.Clone(appErrors.ErrValidation, "dates must be YYYY-MM-DD")
		}
	}

	switch req.Scope {
	case "":
	case string(models.ScopeUpcoming):
		filter.Scope = models.ScopeUpcoming
		filter.Today = s.now().UTC().Format(DateLayout)
	case string(models.ScopeRecent):
		filter.Scope = models.ScopeRecent
		filter.Today = s.now().UTC().Format(DateLayout)
	default:
		return models.SessionFilter{}, appErrors.Clone(appErrors.ErrValidation, "scope must be upcoming or recent")
	}

	filter.Page = req.Page
	if filter.Page < 1 {
		filter.Page = 1
	}
	filter.PageSize = req.PageSize
	if filter.PageSize <= 0 {
		filter.PageSize = s.defaultPageSize
	}
	if filter.PageSize > s.maxPageSize {
		filter.PageSize = s.maxPageSize
	}
	return filter, nil
}

func sessionsToDataset(sessions []models.Session) export.Dataset {
	headers := []string{"ID", "Date", "Start", "End", "Trainer", "Member", "Status", "Notes"}
	rows := make([]map[string]string, 0, len(sessions))
	for _, session := range sessions {
		notes := ""
		if session.Notes != nil {
			notes = *session.Notes
		}
		rows = append(rows, map[string]string{
			"ID":      session.ID,
			"Date":    session.Date,
			"Start":   session.StartTime,
			"End":     session.EndTime,
			"Trainer": session.TrainerID,
			"Member":  session.MemberID,
			"Status":  string(session.Status),
			"Notes":   notes,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
