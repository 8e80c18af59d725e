package stage

import (
	"dance-entry-api/internal/entry"
	"dance-entry-api/internal/logs"
	"dance-entry-api/internal/middlewares"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

type StageController struct {
	StageService StageServiceAPI
	Entries      entry.AccessChecker
	LS           LogServicePort
}

// saveRequest is the body of a stage save. Flags may also be given as query
// parameters; the body wins when both are present. Saves store incomplete
// data unless validation is asked for.
type saveRequest struct {
	Data               json.RawMessage `json:"data"`
	Temporary          *bool           `json:"temporary"`
	ValidateBeforeSave *bool           `json:"validate_before_save"`
}

type groupOptionRequest struct {
	Option string `json:"option" binding:"required"`
}

func readSave(c *gin.Context) (json.RawMessage, SaveOptions, error) {
	opts := SaveOptions{
		Temporary:          queryBool(c, "temporary", false),
		ValidateBeforeSave: queryBool(c, "validate", false),
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, opts, ErrBadPayload
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, opts, nil
	}

	var req saveRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, opts, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if req.Temporary != nil {
		opts.Temporary = *req.Temporary
	}
	if req.ValidateBeforeSave != nil {
		opts.ValidateBeforeSave = *req.ValidateBeforeSave
	}
	if len(req.Data) == 0 {
		// bare record without the envelope
		return body, opts, nil
	}
	return req.Data, opts, nil
}

func queryBool(c *gin.Context, key string, def bool) bool {
	v, ok := c.GetQuery(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

// POST /api/entries
func (sc *StageController) CreateEntry(c *gin.Context) {
	userID, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	data, opts, err := readSave(c)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := sc.StageService.CreateWithBasicInfo(c.Request.Context(), userID, data, opts)
	if err != nil {
		writeError(c, err)
		return
	}

	sc.audit(c, logs.LevelInfo, res.EntryID, StageBasicInfo, "CREATE",
		fmt.Sprintf("Created entry %d (basic info %s)", res.EntryID, statusLabel(res.Result.Status)))
	c.JSON(http.StatusCreated, res)
}

// GET /api/entries/:id/stages
func (sc *StageController) GetSummary(c *gin.Context) {
	e := entry.Authorize(c, sc.Entries)
	if e == nil {
		return
	}

	sum, err := sc.StageService.Summary(c.Request.Context(), e.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry_id": e.ID, "status": e.Status, "stages": sum})
}

// GET /api/entries/:id/stages/:stage
func (sc *StageController) GetStage(c *gin.Context) {
	e := entry.Authorize(c, sc.Entries)
	if e == nil {
		return
	}
	st, err := Parse(c.Param("stage"))
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := sc.StageService.Load(c.Request.Context(), e.ID, st)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// PUT /api/entries/:id/stages/:stage?temporary=&validate=true
func (sc *StageController) SaveStage(c *gin.Context) {
	e := entry.Authorize(c, sc.Entries)
	if e == nil {
		return
	}
	st, err := Parse(c.Param("stage"))
	if err != nil {
		writeError(c, err)
		return
	}

	data, opts, err := readSave(c)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := sc.StageService.Save(c.Request.Context(), e.ID, st, data, opts)
	if err != nil {
		sc.audit(c, logs.LevelError, e.ID, st, "SAVE", fmt.Sprintf("Save of %s failed: %v", st, err))
		writeError(c, err)
		return
	}

	action := "SAVE"
	if opts.Temporary {
		action = "SAVE_DRAFT"
	}
	sc.audit(c, logs.LevelInfo, e.ID, st, action, fmt.Sprintf("Saved %s (%s)", st, statusLabel(res.Result.Status)))
	c.JSON(http.StatusOK, res)
}

// PUT /api/entries/:id/finals/groups/:group  {"option": "same" | "different"}
func (sc *StageController) ApplyGroupOption(c *gin.Context) {
	e := entry.Authorize(c, sc.Entries)
	if e == nil {
		return
	}

	var req groupOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "option is required"})
		return
	}

	group := c.Param("group")
	res, err := sc.StageService.ApplyGroupOption(c.Request.Context(), e.ID, group, req.Option)
	if err != nil {
		sc.audit(c, logs.LevelError, e.ID, StageFinals, "COPY_GROUP", fmt.Sprintf("Applying %s=%s failed: %v", group, req.Option, err))
		writeError(c, err)
		return
	}

	sc.audit(c, logs.LevelInfo, e.ID, StageFinals, "COPY_GROUP", fmt.Sprintf("Applied %s=%s", group, req.Option))
	c.JSON(http.StatusOK, res)
}

func statusLabel(s string) string {
	if s == "" {
		return "untouched"
	}
	return s
}

func writeError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, entry.ErrStageLocked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, entry.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
	case errors.Is(err, ErrUnknownStage),
		errors.Is(err, ErrUnknownGroup),
		errors.Is(err, ErrInvalidOption),
		errors.Is(err, ErrBadPayload):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save entry data"})
	}
}

func (sc *StageController) audit(c *gin.Context, level string, entryID int64, st Stage, action, msg string) {
	if sc.LS == nil {
		return
	}
	userID, _ := middlewares.CurrentUser(c)
	l := logs.SystemLog{
		Level:   level,
		Service: "stage",
		UserID:  logs.StrPtr(userID),
		EntryID: logs.IDPtr(entryID),
		Action:  action,
		Message: msg,
		Stages:  pq.StringArray{string(st)},
	}
	if err := sc.LS.Log(l, gin.H{"stage": st}); err != nil {
		fmt.Printf("Failed to insert log: %v\n", err)
	}
}
