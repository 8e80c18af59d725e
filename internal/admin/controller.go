package admin

import (
	"dance-entry-api/internal/entry"
	"dance-entry-api/internal/logs"
	"dance-entry-api/internal/middlewares"
	"dance-entry-api/internal/stage"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

type AdminController struct {
	AdminService AdminServiceAPI
	LS           LogServicePort
}

// POST /api/admin/entries/search
func (ac *AdminController) SearchEntries(c *gin.Context) {
	var req EntrySearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 || req.PageSize > 200 {
		req.PageSize = 20
	}

	resp, err := ac.AdminService.SearchEntries(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GET /api/admin/entries/:id
func (ac *AdminController) GetEntryDetail(c *gin.Context) {
	id, ok := entry.ParseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	out, err := ac.AdminService.GetEntryDetail(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// PUT /api/admin/entries/:id/status  { "status": "selected", "reason": "..." }
func (ac *AdminController) SetStatus(c *gin.Context) {
	id, ok := entry.ParseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}
	var req StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	adminID, _ := middlewares.CurrentUser(c)
	e, from, err := ac.AdminService.SetStatus(c.Request.Context(), id, req.Status, adminID, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}

	ac.audit(c, logs.LevelInfo, id, "STATUS", fmt.Sprintf("Status changed %s -> %s", from, e.Status), gin.H{
		"from":   from,
		"to":     e.Status,
		"reason": req.Reason,
	})
	c.JSON(http.StatusOK, gin.H{"message": "status updated", "from": from, "data": e})
}

// PUT /api/admin/entries/:id/scores
func (ac *AdminController) UpsertScore(c *gin.Context) {
	id, ok := entry.ParseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}
	var in ScoreInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	judgeID, _ := middlewares.CurrentUser(c)
	sc, err := ac.AdminService.UpsertScore(c.Request.Context(), id, judgeID, in)
	if err != nil {
		writeError(c, err)
		return
	}

	ac.audit(c, logs.LevelInfo, id, "SCORE", fmt.Sprintf("Scored %s: %.1f", sc.Stage, sc.Total), gin.H{"stage": sc.Stage})
	c.JSON(http.StatusOK, sc)
}

// GET /api/admin/entries/:id/scores
func (ac *AdminController) ListScores(c *gin.Context) {
	id, ok := entry.ParseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	rows, err := ac.AdminService.ListScores(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if rows == nil {
		rows = []Score{}
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// DELETE /api/admin/entries/:id
func (ac *AdminController) DeleteEntry(c *gin.Context) {
	id, ok := entry.ParseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	if err := ac.AdminService.DeleteEntry(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	ac.audit(c, logs.LevelWarn, id, "DELETE", fmt.Sprintf("Deleted entry %d", id), nil)
	c.JSON(http.StatusOK, gin.H{"message": "entry deleted"})
}

// POST /api/admin/entries/export
func (ac *AdminController) Export(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if req.Format == "" {
		req.Format = "excel"
	}
	if req.Format != "excel" && req.Format != "csv" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be excel or csv"})
		return
	}

	contentType, filename, data, err := ac.AdminService.Export(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}

// POST /api/admin/entries/media
func (ac *AdminController) DownloadMediaZip(c *gin.Context) {
	var req MediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(req.EntryIDs) == 0 && len(req.Clauses) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "apply filter to download media"})
		return
	}

	ts := time.Now().Format("20060102_150405")
	zipName := fmt.Sprintf("media_%s.zip", ts)

	ids := dedupeAndFilterIDs(req.EntryIDs)
	if len(ids) == 1 {
		zipName = fmt.Sprintf("entry_%d_media_%s.zip", ids[0], ts)
	} else if len(ids) > 1 {
		zipName = fmt.Sprintf("entries_%d_media_%s.zip", len(ids), ts)
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, zipName))
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Cache-Control", "no-store")

	if err := ac.AdminService.StreamMediaZip(c.Request.Context(), c.Writer, req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, entry.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
	case errors.Is(err, entry.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrEmptyPoints), errors.Is(err, ErrInvalidScore), errors.Is(err, stage.ErrUnknownStage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "admin operation failed"})
	}
}

func (ac *AdminController) audit(c *gin.Context, level string, entryID int64, action, msg string, payload any) {
	if ac.LS == nil {
		return
	}
	userID, _ := middlewares.CurrentUser(c)
	l := logs.SystemLog{
		Level:   level,
		Service: "admin",
		UserID:  logs.StrPtr(userID),
		EntryID: logs.IDPtr(entryID),
		Action:  action,
		Message: strings.TrimSpace(msg),
		Stages:  pq.StringArray{},
	}
	if err := ac.LS.Log(l, payload); err != nil {
		fmt.Printf("Failed to insert log: %v\n", err)
	}
}
