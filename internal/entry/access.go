package entry

import (
	"dance-entry-api/internal/middlewares"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ParseID reads a positive :id path parameter.
func ParseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Authorize resolves :id for the current user. On failure the response is
// already written and nil is returned.
func Authorize(c *gin.Context, access AccessChecker) *Entry {
	id, ok := ParseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return nil
	}

	userID, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return nil
	}

	e, err := access.CheckAccess(id, userID, middlewares.IsAdmin(c))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		case errors.Is(err, ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load entry"})
		}
		return nil
	}
	return e
}
