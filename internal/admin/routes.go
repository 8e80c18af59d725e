package admin

import (
	"dance-entry-api/internal/logs"
	"dance-entry-api/internal/middlewares"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, adminService *AdminService, logService *logs.LogService) {
	adminController := &AdminController{AdminService: adminService, LS: logService}

	adminGroup := r.Group("/api/admin/entries")
	adminGroup.Use(middlewares.AuthMiddleware(), middlewares.AdminOnly())
	{
		adminGroup.POST("/search", adminController.SearchEntries)
		adminGroup.POST("/export", adminController.Export)
		adminGroup.POST("/media", adminController.DownloadMediaZip)

		adminGroup.GET("/:id", adminController.GetEntryDetail)
		adminGroup.DELETE("/:id", adminController.DeleteEntry)
		adminGroup.PUT("/:id/status", adminController.SetStatus)
		adminGroup.PUT("/:id/scores", adminController.UpsertScore)
		adminGroup.GET("/:id/scores", adminController.ListScores)
	}
}
