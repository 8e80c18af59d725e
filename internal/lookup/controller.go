package lookup

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type LookupController struct {
	Service LookupServiceAPI
}

func (lc *LookupController) GetDanceStyles(c *gin.Context) {
	styles, err := lc.Service.GetDanceStyles()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Dance styles fetched successfully",
		"dance_styles": styles,
	})
}

func (lc *LookupController) GetCategories(c *gin.Context) {
	categories, err := lc.Service.GetCategories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Categories fetched successfully",
		"categories": categories,
	})
}

func (lc *LookupController) GetCategory(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category code is required"})
		return
	}

	cat, err := lc.Service.GetCategory(code)
	if errors.Is(err, ErrCategoryNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": cat})
}
