package handlers

import (
	"github.com/carlosgs05/proyectoNewton-sub000/internal/services"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/utils"
	"github.com/gin-gonic/gin"
)

// ServiceSet groups the services exposed over HTTP
type ServiceSet struct {
	ETL             services.ETLService
	Reports         services.ReportService
	Export          services.ExportService
	Recommendations services.RecommendationService
}

type HandlerManager struct {
	etlHandler            *ETLHandler
	reportHandler         *ReportHandler
	recommendationHandler *RecommendationHandler
	adminGuard            gin.HandlerFunc
}

// NewHandlerManager builds every handler. adminGuard protects the ETL routes
// and may be nil.
func NewHandlerManager(svc ServiceSet, adminGuard gin.HandlerFunc, logger utils.Logger) *HandlerManager {
	if adminGuard == nil {
		adminGuard = func(c *gin.Context) { c.Next() }
	}
	return &HandlerManager{
		etlHandler:            NewETLHandler(svc.ETL, logger),
		reportHandler:         NewReportHandler(svc.Reports, svc.Export, logger),
		recommendationHandler: NewRecommendationHandler(svc.Recommendations, logger),
		adminGuard:            adminGuard,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	{
		etl := v1.Group("/etl", hm.adminGuard)
		{
			etl.POST("/run", hm.etlHandler.RunFullReload)
			etl.POST("/dimensions/:dimension", hm.etlHandler.ReloadDimension)
		}

		reports := v1.Group("/reports")
		{
			reports.GET("/users/:user_id/scores", hm.reportHandler.GetScores)
			reports.GET("/users/:user_id/details", hm.reportHandler.GetDetails)
			reports.GET("/users/:user_id/export", hm.reportHandler.ExportUserReport)
			reports.GET("/materials/consumption", hm.reportHandler.GetMaterialConsumption)
		}

		recommendations := v1.Group("/recommendations")
		{
			recommendations.GET("/users/:user_id", hm.recommendationHandler.GetRecommendations)
		}
	}
}
