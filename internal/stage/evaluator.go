package stage

import (
	"dance-entry-api/internal/attachment"
	"dance-entry-api/internal/entry"
	"strings"
	"time"
)

// Input is everything the completeness check looks at.
type Input struct {
	Values    map[string]string
	Files     map[attachment.Role]int
	EventDate time.Time
}

// Requirements are added by a stage's conditional rule.
type Requirements struct {
	Fields  []string
	Files   []attachment.Role
	Invalid []string
}

type Result struct {
	Stage         Stage             `json:"stage"`
	Complete      bool              `json:"complete"`
	Touched       bool              `json:"touched"`
	Status        string            `json:"status"`
	MissingFields []string          `json:"missing_fields"`
	MissingFlags  []string          `json:"missing_flags"`
	MissingFiles  []attachment.Role `json:"missing_files"`
	InvalidFields []string          `json:"invalid_fields"`
}

// Evaluate is the only completeness predicate. A stage is complete when
// every required field is non-blank, every required flag is set, every
// required role has an attachment and no conditional rule reported an
// invalid value.
func Evaluate(def Definition, in Input) Result {
	res := Result{
		Stage:         def.Stage,
		MissingFields: []string{},
		MissingFlags:  []string{},
		MissingFiles:  []attachment.Role{},
		InvalidFields: []string{},
	}

	fields := append([]string{}, def.RequiredFields...)
	files := append([]attachment.Role{}, def.RequiredFiles...)
	if def.Conditional != nil {
		extra := def.Conditional(in)
		fields = append(fields, extra.Fields...)
		files = append(files, extra.Files...)
		res.InvalidFields = append(res.InvalidFields, extra.Invalid...)
	}

	seen := map[string]bool{}
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		if strings.TrimSpace(in.Values[f]) == "" {
			res.MissingFields = append(res.MissingFields, f)
		}
	}
	for _, f := range def.RequiredFlags {
		if in.Values[f] != "true" {
			res.MissingFlags = append(res.MissingFlags, f)
		}
	}
	seenRole := map[attachment.Role]bool{}
	for _, r := range files {
		if seenRole[r] {
			continue
		}
		seenRole[r] = true
		if in.Files[r] < 1 {
			res.MissingFiles = append(res.MissingFiles, r)
		}
	}

	res.Complete = len(res.MissingFields) == 0 &&
		len(res.MissingFlags) == 0 &&
		len(res.MissingFiles) == 0 &&
		len(res.InvalidFields) == 0
	res.Touched = touched(def.Stage, in)

	switch {
	case res.Complete:
		res.Status = entry.StageRegistered
	case res.Touched:
		res.Status = entry.StageUnregistered
	default:
		res.Status = ""
	}
	return res
}

func touched(s Stage, in Input) bool {
	for _, v := range in.Values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	for _, r := range attachment.RolesForStage(string(s)) {
		if in.Files[r] > 0 {
			return true
		}
	}
	return false
}
