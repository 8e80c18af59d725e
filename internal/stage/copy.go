package stage

import (
	"dance-entry-api/internal/attachment"
	"strings"
)

type Option string

const (
	OptionSame      Option = "same"
	OptionDifferent Option = "different"
)

func ParseOption(s string) (Option, error) {
	switch o := Option(strings.ToLower(strings.TrimSpace(s))); o {
	case OptionSame, OptionDifferent:
		return o, nil
	}
	return "", ErrInvalidOption
}

// CopyGroup is a slice of the finals form that can be taken over from
// semifinals as a unit: its fields plus the attachment kinds behind them.
type CopyGroup struct {
	Name        string   `json:"name"`
	OptionField string   `json:"option_field"`
	Fields      []string `json:"fields"`
	Kinds       []string `json:"attachment_kinds"`
}

var copyGroups = []CopyGroup{
	{
		Name:        "music",
		OptionField: "music_option",
		Fields:      []string{"music_title", "cd_title", "artist", "record_number", "jasrac_code", "music_type"},
		Kinds:       []string{attachment.PerfMusic},
	},
	{
		Name:        "sound",
		OptionField: "sound_option",
		Fields:      []string{"sound_start_timing", "chaser_song_designation", "fade_out_start_time", "fade_out_complete_time"},
		Kinds:       []string{attachment.PerfChaserSong},
	},
	{
		Name:        "lighting",
		OptionField: "lighting_option",
		Fields: []string{
			"scene1_time", "scene1_trigger", "scene1_color_type", "scene1_color1", "scene1_notes",
			"scene2_time", "scene2_trigger", "scene2_color_type", "scene2_color1", "scene2_notes",
			"scene3_time", "scene3_trigger", "scene3_color_type", "scene3_color1", "scene3_notes",
		},
		Kinds: []string{attachment.PerfScene1Image, attachment.PerfScene2Image, attachment.PerfScene3Image},
	},
	{
		Name:        "choreographer",
		OptionField: "choreographer_option",
		Fields:      []string{"choreographer_name", "choreographer_furigana", "choreographer2_name", "choreographer2_furigana"},
	},
}

func CopyGroups() []CopyGroup {
	return copyGroups
}

func CopyGroupByName(name string) (CopyGroup, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, g := range copyGroups {
		if g.Name == name {
			return g, nil
		}
	}
	return CopyGroup{}, ErrUnknownGroup
}

// Roles returns the attachment roles the group owns on a stage.
func (g CopyGroup) Roles(stage Stage) []attachment.Role {
	out := make([]attachment.Role, 0, len(g.Kinds))
	for _, k := range g.Kinds {
		out = append(out, attachment.PerformanceRole(string(stage), k))
	}
	return out
}

// ApplyOption returns a new value map for target: "same" takes the group's
// fields from source, "different" blanks them. Neither input is modified and
// fields outside the group pass through unchanged.
func ApplyOption(option Option, g CopyGroup, target, source map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(target))
	for k, v := range target {
		out[k] = v
	}

	switch option {
	case OptionSame:
		for _, f := range g.Fields {
			out[f] = source[f]
		}
	case OptionDifferent:
		for _, f := range g.Fields {
			out[f] = ""
		}
	default:
		return nil, ErrInvalidOption
	}
	return out, nil
}
