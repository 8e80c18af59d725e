package entry

import (
	"dance-entry-api/internal/logs"
	"dance-entry-api/internal/middlewares"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

type EntryController struct {
	EntryService EntryServiceAPI
	LS           LogServicePort
}

// GET /api/entries/me
func (ec *EntryController) GetMine(c *gin.Context) {
	userID, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	entries, err := ec.EntryService.ListByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load entries"})
		return
	}
	if entries == nil {
		entries = []Entry{}
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}

// GET /api/entries/:id
func (ec *EntryController) GetEntry(c *gin.Context) {
	e := Authorize(c, ec.EntryService)
	if e == nil {
		return
	}
	c.JSON(http.StatusOK, e)
}

// POST /api/entries/:id/submit
func (ec *EntryController) Submit(c *gin.Context) {
	id, ok := ParseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}
	userID, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	e, err := ec.EntryService.Submit(id, userID)
	if err != nil {
		var inc *IncompleteError
		switch {
		case errors.As(err, &inc):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "entry is not complete", "missing": inc.Columns})
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		case errors.Is(err, ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		case errors.Is(err, ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit entry"})
		}
		return
	}

	ec.audit(logs.SystemLog{
		Level:   logs.LevelInfo,
		Service: "entry",
		UserID:  logs.StrPtr(userID),
		EntryID: logs.IDPtr(e.ID),
		Action:  "SUBMIT",
		Message: fmt.Sprintf("Entry %d submitted for review", e.ID),
		Stages:  pq.StringArray{"basic_info", "preliminary", "applications"},
	}, nil)

	c.JSON(http.StatusOK, e)
}

func (ec *EntryController) audit(l logs.SystemLog, payload any) {
	if ec.LS == nil {
		return
	}
	if err := ec.LS.Log(l, payload); err != nil {
		fmt.Printf("Failed to insert log: %v\n", err)
	}
}
