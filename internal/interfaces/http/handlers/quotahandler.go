package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"metergate/internal/application/gate"
	"metergate/internal/interfaces/dto"
	"metergate/internal/interfaces/http/middleware"
	"metergate/internal/shared/logger"
	"metergate/internal/shared/utils"
)

// QuotaHandler serves the service-facing gating and accounting endpoints.
type QuotaHandler struct {
	service *gate.Service
	logger  logger.Interface
}

func NewQuotaHandler(service *gate.Service, logger logger.Interface) *QuotaHandler {
	return &QuotaHandler{
		service: service,
		logger:  logger,
	}
}

// resolveOrg picks the organization the request acts on. Service tokens are
// bound to one organization; admin tokens must name it in the request.
func resolveOrg(c *gin.Context, requested string) (string, bool) {
	tokenOrg := middleware.OrgSID(c)
	if tokenOrg == "" {
		if requested == "" {
			utils.ErrorResponse(c, http.StatusBadRequest, "org_sid is required")
			return "", false
		}
		return requested, true
	}
	if requested != "" && requested != tokenOrg {
		utils.ErrorResponse(c, http.StatusForbidden, "token is not valid for this organization")
		return "", false
	}
	return tokenOrg, true
}

func (h *QuotaHandler) Check(c *gin.Context) {
	var req dto.CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	orgSID, ok := resolveOrg(c, req.OrgSID)
	if !ok {
		return
	}

	decision, err := h.service.CanUseFeature(c.Request.Context(), orgSID, req.Feature, gate.CheckOptions{
		Amount:          req.Amount,
		CheckConcurrent: req.Concurrent,
		NotifyOnLimit:   req.NotifyOnLimit,
		UserID:          req.UserID,
		Attributes:      req.Attributes,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", decision)
}

func (h *QuotaHandler) CheckBatch(c *gin.Context) {
	var req dto.BatchCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	orgSID, ok := resolveOrg(c, req.OrgSID)
	if !ok {
		return
	}

	decisions, err := h.service.CheckFeatures(c.Request.Context(), orgSID, req.Features)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", decisions)
}

func (h *QuotaHandler) RecordUsage(c *gin.Context) {
	var req dto.RecordUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	orgSID, ok := resolveOrg(c, req.OrgSID)
	if !ok {
		return
	}

	if req.Concurrent {
		value, err := h.service.AcquireConcurrent(c.Request.Context(), orgSID, req.Metric)
		if err != nil {
			utils.ErrorResponseWithError(c, err)
			return
		}
		utils.SuccessResponse(c, http.StatusOK, "", gin.H{"metric": req.Metric, "value": value})
		return
	}

	amount := req.Amount
	if amount == 0 {
		amount = 1
	}
	if err := h.service.RecordUsage(c.Request.Context(), orgSID, req.Metric, amount); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "usage recorded", nil)
}

func (h *QuotaHandler) ReleaseUsage(c *gin.Context) {
	var req dto.ReleaseUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	orgSID, ok := resolveOrg(c, req.OrgSID)
	if !ok {
		return
	}

	if err := h.service.ReleaseUsage(c.Request.Context(), orgSID, req.Metric); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "usage released", nil)
}

func (h *QuotaHandler) Stats(c *gin.Context) {
	orgSID, ok := resolveOrg(c, c.Param("org"))
	if !ok {
		return
	}

	stats, err := h.service.GetUsageStats(c.Request.Context(), orgSID, gate.StatsOptions{
		IncludeHistory: c.Query("include_history") == "true",
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", stats)
}
