package attachment

import (
	"dance-entry-api/internal/entry"
	"dance-entry-api/internal/logs"
	"dance-entry-api/internal/middlewares"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, svc *AttachmentService, entries *entry.EntryService, logService *logs.LogService) {
	ac := &AttachmentController{Service: svc, Entries: entries, LS: logService, URLTTL: svc.ttl()}

	r.GET("/api/attachments/roles", ac.GetRoles)

	group := r.Group("/api/entries/:id/attachments")
	group.Use(middlewares.AuthMiddleware())
	{
		group.GET("", ac.List)
		group.PUT("/:role", ac.Upload)
		group.DELETE("/:role", ac.Delete)
		group.GET("/:role/url", ac.GetURL)
	}
}
