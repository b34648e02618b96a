package app

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/promoforge/promoq/internal/controllers"
	"github.com/promoforge/promoq/internal/middleware"
)

func SetupMappings(app *Application) {
	app.Engine.GET("/healthz", controllers.NewHealthController(app.Redis).Handle)
	app.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := app.Engine.Group("/v1/promoq")
	authed := v1.Group("", middleware.AuthMiddleware(app.Config))
	{
		authed.POST("/tasks",
			middleware.RateLimitSubmit(app.RateLimiter, app.Config),
			controllers.NewSubmitAutomationController(app.Orchestrator).Handle)
		authed.GET("/tasks", controllers.NewListTasksController(app.Orchestrator).Handle)
		authed.GET("/tasks/:id", controllers.NewGetTaskController(app.Orchestrator, app.Archive).Handle)
		authed.POST("/tasks/:id/cancel", controllers.NewCancelTaskController(app.Orchestrator).Handle)

		authed.GET("/allocations/recommendation", controllers.NewRecommendationController(app.Allocations).Handle)
		authed.GET("/allocations/arms", controllers.NewArmStatsController(app.Allocations).Handle)
		authed.POST("/allocations/reallocation-check", controllers.NewReallocationCheckController(app.Allocations).Handle)
		authed.POST("/allocations/observations",
			middleware.RateLimitObservation(app.RateLimiter, app.Config),
			controllers.NewRecordObservationController(app.Allocations).Handle)

		admin := authed.Group("/admin", middleware.RequireAdmin())
		admin.POST("/archive/sweep", controllers.NewSweepArchiveController(app.Sweeper).Handle)
	}
}
