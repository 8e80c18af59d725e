package entry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("entry not found")
	ErrForbidden         = errors.New("entry belongs to another user")
	ErrInvalidTransition = errors.New("status change not allowed")
)

// IncompleteError lists the stages still blocking a submit.
type IncompleteError struct {
	Columns []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("entry is not complete: %s", strings.Join(e.Columns, ", "))
}

// ErrStageLocked is returned when a stage write is attempted while the stage
// is not editable for the entry.
var ErrStageLocked = errors.New("stage is not editable")
