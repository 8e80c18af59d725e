package stage

import (
	"dance-entry-api/internal/entry"
	"fmt"
	"strings"
)

type Stage string

const (
	StageBasicInfo    Stage = "basic_info"
	StagePreliminary  Stage = "preliminary"
	StageSemifinals   Stage = "semifinals"
	StageFinals       Stage = "finals"
	StageSns          Stage = "sns"
	StageApplications Stage = "applications"
)

// All lists stages in form order.
var All = []Stage{
	StageBasicInfo,
	StagePreliminary,
	StageSemifinals,
	StageFinals,
	StageSns,
	StageApplications,
}

func Parse(s string) (Stage, error) {
	st := Stage(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range All {
		if st == known {
			return st, nil
		}
	}
	return "", ErrUnknownStage
}

// Column is the status column on entries that mirrors this stage.
func (s Stage) Column() string {
	if s == StageBasicInfo {
		return "basic_info_status"
	}
	return string(s) + "_info_status"
}

// Prerequisite is the stage that must be registered before s can be edited.
func (s Stage) Prerequisite() (Stage, bool) {
	switch s {
	case StagePreliminary, StageSns, StageApplications:
		return StageBasicInfo, true
	case StageSemifinals:
		return StagePreliminary, true
	case StageFinals:
		return StageSemifinals, true
	}
	return "", false
}

func (s Stage) requiresSelection() bool {
	return s == StageSemifinals || s == StageFinals
}

// EditableFor decides from stored state whether a stage accepts writes. The
// returned error wraps entry.ErrStageLocked.
func EditableFor(s Stage, e *entry.Entry) error {
	if e.Status == entry.StatusRejected {
		return fmt.Errorf("%w: entry was not selected", entry.ErrStageLocked)
	}
	if s.requiresSelection() && e.Status != entry.StatusSelected {
		return fmt.Errorf("%w: %s opens after selection", entry.ErrStageLocked, s)
	}
	if pre, ok := s.Prerequisite(); ok && e.StageStatus(pre.Column()) != entry.StageRegistered {
		return fmt.Errorf("%w: complete %s first", entry.ErrStageLocked, pre)
	}
	return nil
}
