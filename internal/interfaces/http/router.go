package http

import (
	"github.com/gin-gonic/gin"

	"metergate/internal/application/gate"
	"metergate/internal/infrastructure/auth"
	"metergate/internal/interfaces/http/handlers"
	"metergate/internal/interfaces/http/middleware"
	"metergate/internal/shared/config"
	"metergate/internal/shared/logger"
)

// RouterDeps carries everything the router wires into handlers.
type RouterDeps struct {
	Service    *gate.Service
	JWTService *auth.JWTService
	Server     *config.ServerConfig
	Logger     logger.Interface
}

// SetupRouter builds the gin engine with the service and admin API groups.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Server.Mode != "" {
		gin.SetMode(deps.Server.Mode)
	}

	r := gin.New()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Server.AllowedOrigins))

	authMw := middleware.NewAuthMiddleware(deps.JWTService, deps.Logger)

	quotaHandler := handlers.NewQuotaHandler(deps.Service, deps.Logger)
	planHandler := handlers.NewPlanHandler(deps.Service, deps.Logger)
	orgHandler := handlers.NewOrganizationHandler(deps.Service, deps.Logger)
	alertHandler := handlers.NewAlertHandler(deps.Service, deps.Logger)
	ruleHandler := handlers.NewRuleHandler(deps.Service, deps.Logger)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1", authMw.RequireAuth())
	{
		quota := v1.Group("/quota")
		{
			quota.POST("/check", quotaHandler.Check)
			quota.POST("/check/batch", quotaHandler.CheckBatch)
			quota.POST("/usage", quotaHandler.RecordUsage)
			quota.DELETE("/usage", quotaHandler.ReleaseUsage)
			quota.GET("/stats/:org", quotaHandler.Stats)
		}
	}

	admin := r.Group("/api/admin", authMw.RequireAdmin())
	{
		plans := admin.Group("/plans")
		{
			plans.GET("", planHandler.List)
			plans.POST("", planHandler.Create)
			plans.PUT("/:slug/limits", planHandler.UpdateLimits)
		}

		orgs := admin.Group("/orgs")
		{
			orgs.POST("", orgHandler.Create)
			orgs.POST("/:org/plan", orgHandler.ChangePlan)
			orgs.GET("/:org/plan/history", orgHandler.PlanHistory)
			orgs.POST("/:org/usage/reset", orgHandler.ResetUsage)
			orgs.POST("/:org/gauges/reset", orgHandler.ResetGauge)

			orgs.GET("/:org/alerts", alertHandler.List)
			orgs.POST("/:org/alerts/:sid/ack", alertHandler.Acknowledge)
			orgs.GET("/:org/notifications", alertHandler.GetNotificationConfig)
			orgs.PUT("/:org/notifications", alertHandler.UpdateNotificationConfig)
			orgs.GET("/:org/feed", alertHandler.ListFeed)
			orgs.POST("/:org/feed/:id/read", alertHandler.MarkFeedRead)

			orgs.GET("/:org/rules", ruleHandler.List)
			orgs.POST("/:org/rules", ruleHandler.Create)
			orgs.DELETE("/:org/rules/:sid", ruleHandler.Delete)
		}
	}

	return r
}
