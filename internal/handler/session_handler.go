package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ardiwn/gymflow-api/internal/models"
	"github.com/ardiwn/gymflow-api/internal/service"
	appErrors "github.com/ardiwn/gymflow-api/pkg/errors"
	"github.com/ardiwn/gymflow-api/pkg/response"
)

// SessionHandler manages session booking and lifecycle endpoints.
type SessionHandler struct {
	booking  *service.BookingService
	sessions *service.SessionService
}

// NewSessionHandler constructs handler.
func NewSessionHandler(booking *service.BookingService, sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{booking: booking, sessions: sessions}
}

// Book godoc
// @Summary Book a training session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body service.BookSessionRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Book(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.BookSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	// Members book for themselves regardless of the payload.
	if claims.Role == models.RoleMember {
		req.MemberID = claims.UserID
	}

	session, err := h.booking.Book(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// List godoc
// @Summary List sessions visible to the caller
// @Tags Sessions
// @Produce json
// @Param status query string false "SCHEDULED, COMPLETED or CANCELLED"
// @Param trainerId query string false "Filter by trainer"
// @Param memberId query string false "Filter by member"
// @Param dateFrom query string false "Start day (YYYY-MM-DD)"
// @Param dateTo query string false "End day (YYYY-MM-DD)"
// @Param scope query string false "upcoming or recent"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	req := h.listRequest(c)
	sessions, pagination, err := h.sessions.List(c.Request.Context(), claims.UserID, claims.Role, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, pagination)
}

// Get godoc
// @Summary Get session detail
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	session, err := h.sessions.Get(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Cancel godoc
// @Summary Cancel a scheduled session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.CancelSessionRequest true "Cancellation payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/cancel [post]
func (h *SessionHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CancelSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.booking.Cancel(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Complete godoc
// @Summary Mark a session completed
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.CompleteSessionRequest true "Completion payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/complete [post]
func (h *SessionHandler) Complete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	req := service.CompleteSessionRequest{}
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	session, err := h.booking.Complete(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Export godoc
// @Summary Export sessions as CSV or PDF (admin only)
// @Tags Sessions
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "csv or pdf"
// @Param status query string false "SCHEDULED, COMPLETED or CANCELLED"
// @Param dateFrom query string false "Start day (YYYY-MM-DD)"
// @Param dateTo query string false "End day (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Router /sessions/export [get]
func (h *SessionHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	req := h.listRequest(c)
	result, err := h.sessions.Export(c.Request.Context(), claims.UserID, claims.Role, req, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

func (h *SessionHandler) listRequest(c *gin.Context) service.SessionListRequest {
	req := service.SessionListRequest{
		MemberID:  c.Query("memberId"),
		TrainerID: c.Query("trainerId"),
		Status:    c.Query("status"),
		DateFrom:  c.Query("dateFrom"),
		DateTo:    c.Query("dateTo"),
		Scope:     c.Query("scope"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		req.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		req.PageSize = limit
	}
	return req
}
