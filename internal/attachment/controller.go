package attachment

import (
	"dance-entry-api/internal/entry"
	"dance-entry-api/internal/logs"
	"dance-entry-api/internal/middlewares"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

type AttachmentController struct {
	Service AttachmentServiceAPI
	Entries entry.AccessChecker
	LS      LogServicePort
	URLTTL  time.Duration
}

// GET /api/attachments/roles
func (ac *AttachmentController) GetRoles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": AllRoles()})
}

// GET /api/entries/:id/attachments
func (ac *AttachmentController) List(c *gin.Context) {
	e := entry.Authorize(c, ac.Entries)
	if e == nil {
		return
	}

	rows, err := ac.Service.List(c.Request.Context(), e.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list attachments"})
		return
	}
	if rows == nil {
		rows = []Attachment{}
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// PUT /api/entries/:id/attachments/:role  (multipart field "file")
func (ac *AttachmentController) Upload(c *gin.Context) {
	e := entry.Authorize(c, ac.Entries)
	if e == nil {
		return
	}
	role, err := ParseRole(c.Param("role"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}
	defer f.Close()

	row, err := ac.Service.UploadAndRegister(c.Request.Context(), e.ID, role, UploadInput{
		FileName: fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Size:     fh.Size,
		Body:     f,
	})
	if err != nil {
		ac.audit(c, logs.LevelError, e.ID, role, "UPLOAD", fmt.Sprintf("Upload of %s failed: %v", role, err))
		writeError(c, err)
		return
	}

	ac.audit(c, logs.LevelInfo, e.ID, role, "UPLOAD", fmt.Sprintf("Uploaded %s (%d bytes)", row.FileName, row.FileSizeBytes))
	c.JSON(http.StatusOK, row)
}

// DELETE /api/entries/:id/attachments/:role
func (ac *AttachmentController) Delete(c *gin.Context) {
	e := entry.Authorize(c, ac.Entries)
	if e == nil {
		return
	}
	role, err := ParseRole(c.Param("role"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deleted, err := ac.Service.DeleteByRole(c.Request.Context(), e.ID, role)
	if err != nil {
		writeError(c, err)
		return
	}
	if deleted {
		ac.audit(c, logs.LevelInfo, e.ID, role, "DELETE", fmt.Sprintf("Deleted attachment %s", role))
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// GET /api/entries/:id/attachments/:role/url
func (ac *AttachmentController) GetURL(c *gin.Context) {
	e := entry.Authorize(c, ac.Entries)
	if e == nil {
		return
	}
	role, err := ParseRole(c.Param("role"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	url, row, err := ac.Service.SignedURL(c.Request.Context(), e.ID, role)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{"url": url, "file_name": row.FileName, "mime_type": row.MimeType}
	if ac.URLTTL > 0 {
		resp["expires_in"] = int(ac.URLTTL.Seconds())
	}
	c.JSON(http.StatusOK, resp)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUnknownRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrEmptyFile):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, ErrUnsupportedType):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNotFound), errors.Is(err, entry.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, entry.ErrStageLocked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "attachment operation failed"})
	}
}

func (ac *AttachmentController) audit(c *gin.Context, level string, entryID int64, role Role, action, msg string) {
	if ac.LS == nil {
		return
	}
	userID, _ := middlewares.CurrentUser(c)
	var stages pq.StringArray
	if spec, ok := Lookup(role); ok {
		stages = pq.StringArray{spec.Stage}
	}
	l := logs.SystemLog{
		Level:   level,
		Service: "attachment",
		UserID:  logs.StrPtr(userID),
		EntryID: logs.IDPtr(entryID),
		Action:  action,
		Message: strings.TrimSpace(msg),
		Stages:  stages,
	}
	if err := ac.LS.Log(l, gin.H{"role": role}); err != nil {
		fmt.Printf("Failed to insert log: %v\n", err)
	}
}
