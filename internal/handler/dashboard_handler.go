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

// DashboardHandler serves aggregated overview endpoints.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// MemberOverview godoc
// @Summary Member activity dashboard
// @Tags Dashboards
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} response.Envelope
// @Router /dashboards/members/{id} [get]
func (h *DashboardHandler) MemberOverview(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	memberID := c.Param("id")
	if claims.Role != models.RoleAdmin && claims.UserID != memberID {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	overview, cacheHit, err := h.service.MemberOverview(c.Request.Context(), memberID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil, map[string]interface{}{"cache": cacheHit})
}

// TrainerOverview godoc
// @Summary Trainer workload dashboard
// @Tags Dashboards
// @Produce json
// @Param id path string true "Trainer ID"
// @Success 200 {object} response.Envelope
// @Router /dashboards/trainers/{id} [get]
func (h *DashboardHandler) TrainerOverview(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	trainerID := c.Param("id")
	if claims.Role != models.RoleAdmin && claims.UserID != trainerID {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	overview, cacheHit, err := h.service.TrainerOverview(c.Request.Context(), trainerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil, map[string]interface{}{"cache": cacheHit})
}

// TopTrainers godoc
// @Summary Rank trainers by completed sessions
// @Tags Dashboards
// @Produce json
// @Param limit query int false "Maximum number of trainers to rank"
// @Success 200 {object} response.Envelope
// @Router /dashboards/top-trainers [get]
func (h *DashboardHandler) TopTrainers(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	rankings, cacheHit, err := h.service.TopTrainers(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rankings, nil, map[string]interface{}{"cache": cacheHit})
}
