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

// TrainerHandler manages trainer roster and schedule endpoints.
type TrainerHandler struct {
	service      *service.TrainerService
	availability *service.AvailabilityService
}

// NewTrainerHandler constructs handler.
func NewTrainerHandler(svc *service.TrainerService, availability *service.AvailabilityService) *TrainerHandler {
	return &TrainerHandler{service: svc, availability: availability}
}

// List godoc
// @Summary List trainers
// @Tags Trainers
// @Produce json
// @Param search query string false "Search name or email"
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /trainers [get]
func (h *TrainerHandler) List(c *gin.Context) {
	var filter models.TrainerFilter
	filter.Search = c.Query("search")
	if active := c.Query("active"); active != "" {
		value, err := strconv.ParseBool(active)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "active must be true or false"))
			return
		}
		filter.Active = &value
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	trainers, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trainers, pagination)
}

// Get godoc
// @Summary Get trainer detail
// @Tags Trainers
// @Produce json
// @Param id path string true "Trainer ID"
// @Success 200 {object} response.Envelope
// @Router /trainers/{id} [get]
func (h *TrainerHandler) Get(c *gin.Context) {
	trainer, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trainer, nil)
}

// Create godoc
// @Summary Create trainer
// @Tags Trainers
// @Accept json
// @Produce json
// @Param payload body service.CreateTrainerRequest true "Trainer payload"
// @Success 201 {object} response.Envelope
// @Router /trainers [post]
func (h *TrainerHandler) Create(c *gin.Context) {
	var req service.CreateTrainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	trainer, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, trainer)
}

// Update godoc
// @Summary Update trainer
// @Tags Trainers
// @Accept json
// @Produce json
// @Param id path string true "Trainer ID"
// @Param payload body service.UpdateTrainerRequest true "Trainer payload"
// @Success 200 {object} response.Envelope
// @Router /trainers/{id} [put]
func (h *TrainerHandler) Update(c *gin.Context) {
	var req service.UpdateTrainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	trainer, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trainer, nil)
}

// Deactivate godoc
// @Summary Deactivate trainer
// @Tags Trainers
// @Produce json
// @Param id path string true "Trainer ID"
// @Success 204
// @Router /trainers/{id} [delete]
func (h *TrainerHandler) Deactivate(c *gin.Context) {
	if err := h.service.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// WeeklySchedule godoc
// @Summary Get trainer weekly schedule template
// @Tags Trainers
// @Produce json
// @Param id path string true "Trainer ID"
// @Success 200 {object} response.Envelope
// @Router /trainers/{id}/schedule [get]
func (h *TrainerHandler) WeeklySchedule(c *gin.Context) {
	schedule, err := h.service.WeeklySchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// ReplaceWeeklySchedule godoc
// @Summary Replace trainer weekly schedule template
// @Tags Trainers
// @Accept json
// @Produce json
// @Param id path string true "Trainer ID"
// @Param payload body service.ReplaceScheduleRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Router /trainers/{id}/schedule [put]
func (h *TrainerHandler) ReplaceWeeklySchedule(c *gin.Context) {
	var req service.ReplaceScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	trainerID := c.Param("id")
	schedule, err := h.service.ReplaceWeeklySchedule(c.Request.Context(), trainerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.availability.InvalidateTrainer(c.Request.Context(), trainerID)
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Availability godoc
// @Summary Get trainer free slots for a day
// @Tags Trainers
// @Produce json
// @Param id path string true "Trainer ID"
// @Param date query string true "Day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /trainers/{id}/availability [get]
func (h *TrainerHandler) Availability(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required"))
		return
	}
	slots, cacheHit, err := h.availability.FreeSlots(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil, map[string]interface{}{"cache": cacheHit})
}
