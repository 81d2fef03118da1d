package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"metergate/internal/application/gate"
	"metergate/internal/interfaces/dto"
	"metergate/internal/shared/logger"
	"metergate/internal/shared/utils"
)

// PlanHandler serves the admin plan catalog endpoints.
type PlanHandler struct {
	service *gate.Service
	logger  logger.Interface
}

func NewPlanHandler(service *gate.Service, logger logger.Interface) *PlanHandler {
	return &PlanHandler{
		service: service,
		logger:  logger,
	}
}

func (h *PlanHandler) List(c *gin.Context) {
	plans, err := h.service.ListPlans(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", dto.PlansToResponse(plans))
}

func (h *PlanHandler) Create(c *gin.Context) {
	var req dto.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	p, err := h.service.CreatePlan(c.Request.Context(), req.Slug, req.Name, req.Limits)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.CreatedResponse(c, dto.PlanToResponse(p), "plan created")
}

func (h *PlanHandler) UpdateLimits(c *gin.Context) {
	var req dto.UpdateLimitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	p, err := h.service.UpdatePlanLimits(c.Request.Context(), c.Param("slug"), req.Limits)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "plan limits updated", dto.PlanToResponse(p))
}
