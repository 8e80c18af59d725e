package dataconfig

import (
	"dance-entry-api/internal/attachment"
	"dance-entry-api/internal/stage"
	"dance-entry-api/internal/util"
	"time"
)

// StageRules is what the entry form needs to render and pre-check stages
// the same way the server evaluates them.
type StageRules struct {
	EventDate  string                `json:"event_date"`
	AdultAge   int                   `json:"adult_age"`
	Stages     []stage.Definition    `json:"stages"`
	CopyGroups []stage.CopyGroup     `json:"copy_groups"`
	Roles      []attachment.RoleSpec `json:"attachment_roles"`
}

func BuildStageRules(eventDate time.Time) StageRules {
	return StageRules{
		EventDate:  eventDate.Format(util.DayLayout),
		AdultAge:   stage.AdultAge,
		Stages:     stage.Definitions(),
		CopyGroups: stage.CopyGroups(),
		Roles:      attachment.AllRoles(),
	}
}
