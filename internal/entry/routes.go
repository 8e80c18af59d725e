package entry

import (
	"dance-entry-api/internal/logs"
	"dance-entry-api/internal/middlewares"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, entryService *EntryService, logService *logs.LogService) {
	ec := &EntryController{EntryService: entryService, LS: logService}

	group := r.Group("/api/entries")
	group.Use(middlewares.AuthMiddleware())
	{
		group.GET("/me", ec.GetMine)
		group.GET("/:id", ec.GetEntry)
		group.POST("/:id/submit", ec.Submit)
	}
}
