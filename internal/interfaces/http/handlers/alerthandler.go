package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"metergate/internal/application/gate"
	"metergate/internal/interfaces/dto"
	"metergate/internal/shared/logger"
	"metergate/internal/shared/utils"
)

// AlertHandler serves alert history, the in-product feed, and notification
// settings.
type AlertHandler struct {
	service *gate.Service
	logger  logger.Interface
}

func NewAlertHandler(service *gate.Service, logger logger.Interface) *AlertHandler {
	return &AlertHandler{
		service: service,
		logger:  logger,
	}
}

func (h *AlertHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	alerts, err := h.service.ListAlerts(c.Request.Context(), c.Param("org"), limit)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", dto.AlertsToResponse(alerts))
}

func (h *AlertHandler) Acknowledge(c *gin.Context) {
	if err := h.service.AcknowledgeAlert(c.Request.Context(), c.Param("sid")); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "alert acknowledged", nil)
}

func (h *AlertHandler) GetNotificationConfig(c *gin.Context) {
	cfg, err := h.service.GetNotificationConfig(c.Request.Context(), c.Param("org"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", cfg)
}

func (h *AlertHandler) UpdateNotificationConfig(c *gin.Context) {
	var req dto.NotificationConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	cfg := req.ToConfig(c.Param("org"))
	if err := h.service.UpdateNotificationConfig(c.Request.Context(), cfg); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "notification config updated", cfg)
}

func (h *AlertHandler) ListFeed(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	items, err := h.service.ListFeedItems(c.Request.Context(), c.Param("org"), limit)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", dto.FeedItemsToResponse(items))
}

func (h *AlertHandler) MarkFeedRead(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid feed item ID")
		return
	}

	if err := h.service.MarkFeedItemRead(c.Request.Context(), c.Param("org"), uint(itemID)); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "feed item marked read", nil)
}
