package dataconfig

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type DataConfigController struct {
	DataConfigService DataConfigServiceAPI
}

// GET /api/config?name=stage_rules&last_modified=...&checksum=...
//
// last_modified and checksum describe the copy the client already holds.
// last_modified accepts RFC3339 / RFC3339Nano or unix milliseconds.
func (cc *DataConfigController) GetConfig(c *gin.Context) {
	name := strings.TrimSpace(c.DefaultQuery("name", StageRulesName))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	clientLM, err := parseOptionalTime(c.Query("last_modified"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid last_modified (use RFC3339 or unix ms)"})
		return
	}

	res, err := cc.DataConfigService.GetByNameIfModified(name, clientLM, c.Query("checksum"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "config not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load config"})
		return
	}

	cfg := res.Config

	c.Header("Last-Modified", cfg.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if cfg.Checksum != "" {
		c.Header("ETag", cfg.Checksum)
	}

	if res.NotModified {
		c.JSON(http.StatusOK, gin.H{
			"not_modified": true,
			"name":         cfg.Name,
			"version":      cfg.Version,
			"checksum":     cfg.Checksum,
			"updated_at":   cfg.UpdatedAt,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"not_modified": false,
		"name":         cfg.Name,
		"version":      cfg.Version,
		"checksum":     cfg.Checksum,
		"updated_at":   cfg.UpdatedAt,
		"config":       cfg.Config,
	})
}

func parseOptionalTime(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}

	// unix ms
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		t := time.Unix(0, ms*int64(time.Millisecond))
		return &t, nil
	}

	return nil, strconv.ErrSyntax
}
