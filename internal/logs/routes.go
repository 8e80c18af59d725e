package logs

import (
	"dance-entry-api/internal/middlewares"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, logService *LogService) {
	lc := &LogController{LogService: logService}

	group := r.Group("/api/admin/logs")
	group.Use(middlewares.AuthMiddleware(), middlewares.AdminOnly())
	{
		group.POST("", lc.GetLogs)
	}
}
