package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ardiwn/gymflow-api/internal/service"
	appErrors "github.com/ardiwn/gymflow-api/pkg/errors"
	"github.com/ardiwn/gymflow-api/pkg/response"
)

// AssignmentHandler manages member/trainer assignment endpoints.
type AssignmentHandler struct {
	service *service.AssignmentService
}

// NewAssignmentHandler constructs handler.
func NewAssignmentHandler(svc *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: svc}
}

// List godoc
// @Summary List a member's trainer assignments
// @Tags Assignments
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} response.Envelope
// @Router /members/{id}/trainers [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	assignments, err := h.service.ListByMember(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Create godoc
// @Summary Assign a trainer to a member
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Member ID"
// @Param payload body service.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /members/{id}/trainers [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req service.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignment, err := h.service.Create(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Update godoc
// @Summary Update a member's trainer assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Member ID"
// @Param assignmentId path string true "Assignment ID"
// @Param payload body service.UpdateAssignmentRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /members/{id}/trainers/{assignmentId} [put]
func (h *AssignmentHandler) Update(c *gin.Context) {
	var req service.UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignment, err := h.service.Update(c.Request.Context(), c.Param("id"), c.Param("assignmentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// Delete godoc
// @Summary Remove a member's trainer assignment
// @Tags Assignments
// @Produce json
// @Param id path string true "Member ID"
// @Param assignmentId path string true "Assignment ID"
// @Success 204
// @Router /members/{id}/trainers/{assignmentId} [delete]
func (h *AssignmentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), c.Param("assignmentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
