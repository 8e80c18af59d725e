package stage

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrUnknownStage  = errors.New("unknown stage")
	ErrUnknownGroup  = errors.New("unknown copy group")
	ErrInvalidOption = errors.New("option must be same or different")
	ErrBadPayload    = errors.New("invalid stage payload")
)

// ValidationError carries one message per failing field.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
