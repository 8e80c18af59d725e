package stage

import (
	"dance-entry-api/internal/attachment"
	"dance-entry-api/internal/util"
	"strings"
	"time"
)

const AdultAge = 18

// Definition is the fixed rule set for one stage.
type Definition struct {
	Stage          Stage                       `json:"stage"`
	Column         string                      `json:"status_column"`
	RequiredFields []string                    `json:"required_fields"`
	RequiredFlags  []string                    `json:"required_flags"`
	RequiredFiles  []attachment.Role           `json:"required_files"`
	Conditional    func(in Input) Requirements `json:"-"`
	Rules          []string                    `json:"conditional_rules,omitempty"`
}

var guardianFields = []string{"guardian_name", "guardian_phone", "guardian_email"}

var performanceRequired = []string{
	"music_title", "artist", "music_type",
	"sound_start_timing", "chaser_song_designation",
	"scene1_time", "scene1_trigger", "scene1_color_type", "scene1_color1",
	"choreographer_name", "choreographer_furigana",
}

var definitions = map[Stage]Definition{
	StageBasicInfo: {
		Stage: StageBasicInfo,
		RequiredFields: []string{
			"dance_style", "category", "team_name",
			"representative_name", "representative_furigana", "representative_email",
			"representative_phone", "representative_birthdate",
		},
		RequiredFlags: []string{"agreement_checked", "privacy_policy_checked", "media_release_checked"},
		Conditional:   basicInfoRule,
		Rules: []string{
			"partner_name, partner_furigana and partner_birthdate are required for duo and group entries",
			"guardian_name, guardian_phone and guardian_email are required when the representative or partner is under 18 on the event date",
		},
	},
	StagePreliminary: {
		Stage: StagePreliminary,
		RequiredFields: []string{
			"work_title", "work_title_kana", "work_story",
			"music_title", "artist_name",
			"choreographer_name", "choreographer_furigana",
		},
		RequiredFlags: []string{"music_rights_cleared"},
		RequiredFiles: []attachment.Role{attachment.RolePreliminaryVideo},
	},
	StageSemifinals: {
		Stage: StageSemifinals,
		RequiredFields: append(append([]string{}, performanceRequired...),
			"refund_bank_name", "refund_branch_name", "refund_account_type",
			"refund_account_number", "refund_account_holder",
		),
		RequiredFiles: []attachment.Role{attachment.PerformanceRole("semifinals", attachment.PerfMusic)},
		Conditional:   chaserSongRule("semifinals"),
		Rules:         []string{"semifinals_chaser_song is required when chaser_song_designation is upload"},
	},
	StageFinals: {
		Stage: StageFinals,
		RequiredFields: append(append([]string{}, performanceRequired...),
			"music_option", "sound_option", "lighting_option", "choreographer_option",
		),
		RequiredFiles: []attachment.Role{attachment.PerformanceRole("finals", attachment.PerfMusic)},
		Conditional:   finalsRule,
		Rules: []string{
			"finals_chaser_song is required when chaser_song_designation is upload",
			"music_option, sound_option, lighting_option and choreographer_option must be same or different",
		},
	},
	StageSns: {
		Stage:          StageSns,
		RequiredFields: []string{"introduction_text"},
		RequiredFiles:  []attachment.Role{attachment.RoleSnsPracticeVideo, attachment.RoleSnsIntroductionVideo},
	},
	StageApplications: {
		Stage:          StageApplications,
		RequiredFields: []string{"payment_method", "payer_name", "total_amount"},
		Conditional:    applicationsRule,
		Rules:          []string{"payment_date and bank_slip are required when payment_method is bank_transfer"},
	},
}

// DefinitionFor returns the rule set for a stage. Unknown stages get an empty
// definition that is never complete-able through required fields.
func DefinitionFor(s Stage) Definition {
	def := definitions[s]
	def.Stage = s
	def.Column = s.Column()
	return def
}

func Definitions() []Definition {
	out := make([]Definition, 0, len(All))
	for _, s := range All {
		out = append(out, DefinitionFor(s))
	}
	return out
}

func basicInfoRule(in Input) Requirements {
	var req Requirements

	withPartner := in.Values["category"] == "duo" || in.Values["category"] == "group"
	if withPartner {
		req.Fields = append(req.Fields, "partner_name", "partner_furigana", "partner_birthdate")
	}

	minor := false
	for _, field := range []string{"representative_birthdate", "partner_birthdate"} {
		if field == "partner_birthdate" && !withPartner {
			continue
		}
		birth, ok, err := util.ParseDay(in.Values[field])
		if err != nil {
			req.Invalid = append(req.Invalid, field)
			continue
		}
		if ok && IsMinor(birth, in.EventDate) {
			minor = true
		}
	}
	if minor {
		req.Fields = append(req.Fields, guardianFields...)
	}
	return req
}

func chaserSongRule(stage string) func(in Input) Requirements {
	return func(in Input) Requirements {
		if in.Values["chaser_song_designation"] == "upload" {
			return Requirements{Files: []attachment.Role{attachment.PerformanceRole(stage, attachment.PerfChaserSong)}}
		}
		return Requirements{}
	}
}

// finalsRule rejects option values other than same or different. Blank
// options are already reported as missing fields.
func finalsRule(in Input) Requirements {
	req := chaserSongRule("finals")(in)
	for _, g := range copyGroups {
		v := in.Values[g.OptionField]
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, err := ParseOption(v); err != nil {
			req.Invalid = append(req.Invalid, g.OptionField)
		}
	}
	return req
}

// applicationsRule only checks payment_date when bank_transfer requires it.
func applicationsRule(in Input) Requirements {
	var req Requirements
	if in.Values["payment_method"] != "bank_transfer" {
		return req
	}
	req.Fields = append(req.Fields, "payment_date")
	req.Files = append(req.Files, attachment.RoleBankSlip)
	if _, _, err := util.ParseDay(in.Values["payment_date"]); err != nil {
		req.Invalid = append(req.Invalid, "payment_date")
	}
	return req
}

// IsMinor reports whether someone born on birth is under AdultAge on day.
func IsMinor(birth, day time.Time) bool {
	return util.AgeOn(birth, day) < AdultAge
}
