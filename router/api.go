package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/shadower-ai/shadow-analytics/controller"
)

// SetApiRouter mounts the analytics API under /api. Every workspace-scoped
// route carries the workspace id in the path; tenancy is enforced by scoping
// all queries to it.
func SetApiRouter(server *gin.Engine) {
	apiRouter := server.Group("/api")
	apiRouter.Use(cors.Default())
	apiRouter.Use(gzip.Gzip(gzip.DefaultCompression))
	{
		apiRouter.GET("/status", controller.GetStatus)

		workspaceRoute := apiRouter.Group("/workspace/:workspace_id")
		{
			workspaceRoute.GET("/forecast", controller.GetForecast)
			workspaceRoute.GET("/trends", controller.GetConsumptionTrends)
			workspaceRoute.GET("/budget", controller.GetBudgetStatus)
			workspaceRoute.PUT("/budget", controller.UpdateBudget)
			workspaceRoute.GET("/optimizations", controller.GetOptimizations)
			workspaceRoute.POST("/events", controller.RecordEvents)
		}
	}
}
