package stage

import (
	"dance-entry-api/internal/entry"
	"dance-entry-api/internal/logs"
	"dance-entry-api/internal/middlewares"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, stageService *StageService, entries *entry.EntryService, logService *logs.LogService) {
	sc := &StageController{StageService: stageService, Entries: entries, LS: logService}

	entryGroup := r.Group("/api/entries")
	entryGroup.Use(middlewares.AuthMiddleware())
	{
		entryGroup.POST("", sc.CreateEntry)
		entryGroup.GET("/:id/stages", sc.GetSummary)
		entryGroup.GET("/:id/stages/:stage", sc.GetStage)
		entryGroup.PUT("/:id/stages/:stage", sc.SaveStage)
		entryGroup.PUT("/:id/finals/groups/:group", sc.ApplyGroupOption)
	}
}
