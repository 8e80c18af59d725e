package lookup

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, lookupService LookupServiceAPI) {
	lookupController := &LookupController{Service: lookupService}

	lookupGroup := r.Group("/lookup")
	{
		lookupGroup.GET("/dance-styles", lookupController.GetDanceStyles)
		lookupGroup.GET("/categories", lookupController.GetCategories)
		lookupGroup.GET("/categories/:code", lookupController.GetCategory)
	}
}
