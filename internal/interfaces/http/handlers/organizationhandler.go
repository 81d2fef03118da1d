package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"metergate/internal/application/gate"
	"metergate/internal/interfaces/dto"
	"metergate/internal/shared/logger"
	"metergate/internal/shared/utils"
)

// OrganizationHandler serves the admin tenant-management endpoints.
type OrganizationHandler struct {
	service *gate.Service
	logger  logger.Interface
}

func NewOrganizationHandler(service *gate.Service, logger logger.Interface) *OrganizationHandler {
	return &OrganizationHandler{
		service: service,
		logger:  logger,
	}
}

func (h *OrganizationHandler) Create(c *gin.Context) {
	var req dto.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	org, err := h.service.CreateOrganization(c.Request.Context(), req.Name, req.PlanSlug)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.CreatedResponse(c, dto.OrganizationToResponse(org), "organization created")
}

func (h *OrganizationHandler) ChangePlan(c *gin.Context) {
	var req dto.ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	change, err := h.service.ChangePlan(c.Request.Context(), c.Param("org"), req.PlanSlug, gate.ChangePlanOptions{
		Immediate:   req.Immediate,
		ResetUsage:  req.ResetUsage,
		NotifyUsers: req.NotifyUsers,
		InitiatedBy: req.InitiatedBy,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "plan change recorded", dto.PlanChangeToResponse(change))
}

func (h *OrganizationHandler) PlanHistory(c *gin.Context) {
	stats, err := h.service.GetUsageStats(c.Request.Context(), c.Param("org"), gate.StatsOptions{IncludeHistory: true})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", stats.History)
}

func (h *OrganizationHandler) ResetUsage(c *gin.Context) {
	if err := h.service.ResetMonthlyUsage(c.Request.Context(), c.Param("org")); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "usage reset", nil)
}

func (h *OrganizationHandler) ResetGauge(c *gin.Context) {
	var req dto.ResetGaugeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if err := h.service.ResetConcurrentGauge(c.Request.Context(), c.Param("org"), req.Metric); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "gauge reset", nil)
}
