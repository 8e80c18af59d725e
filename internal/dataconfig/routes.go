package dataconfig

import (
	"dance-entry-api/internal/middlewares"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, dataconfigService DataConfigServiceAPI) {
	configController := &DataConfigController{DataConfigService: dataconfigService}

	dataConfigGroup := r.Group("/api/config")
	dataConfigGroup.Use(middlewares.AuthMiddleware())
	{
		dataConfigGroup.GET("", configController.GetConfig)
	}
}
