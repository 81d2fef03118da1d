package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"metergate/internal/application/gate"
	"metergate/internal/domain/rule"
	"metergate/internal/interfaces/dto"
	"metergate/internal/shared/logger"
	"metergate/internal/shared/utils"
)

// RuleHandler serves the admin custom-rule endpoints.
type RuleHandler struct {
	service *gate.Service
	logger  logger.Interface
}

func NewRuleHandler(service *gate.Service, logger logger.Interface) *RuleHandler {
	return &RuleHandler{
		service: service,
		logger:  logger,
	}
}

func (h *RuleHandler) List(c *gin.Context) {
	rules, err := h.service.ListCustomRules(c.Request.Context(), c.Param("org"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", dto.RulesToResponse(rules))
}

func (h *RuleHandler) Create(c *gin.Context) {
	var req dto.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	r, err := h.service.AddCustomRule(c.Request.Context(), c.Param("org"), gate.CustomRuleInput{
		Feature:    req.Feature,
		RuleType:   rule.Type(req.RuleType),
		Effect:     rule.Effect(req.Effect),
		Conditions: req.Conditions,
		Reason:     req.Reason,
		ExpiresAt:  req.ExpiresAt,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.CreatedResponse(c, dto.RuleToResponse(r), "rule created")
}

func (h *RuleHandler) Delete(c *gin.Context) {
	if err := h.service.RemoveCustomRule(c.Request.Context(), c.Param("org"), c.Param("sid")); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "rule deleted", nil)
}
