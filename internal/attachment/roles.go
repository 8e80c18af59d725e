package attachment

import (
	"sort"
	"strings"
)

// Role names the slot a file fills on an entry. At most one attachment
// exists per (entry, role).
type Role string

type Kind string

const (
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindImage    Kind = "image"
	KindDocument Kind = "document"
)

const (
	RoleBankSlip             Role = "bank_slip"
	RolePreliminaryVideo     Role = "preliminary_video"
	RoleSnsPracticeVideo     Role = "sns_practice_video"
	RoleSnsIntroductionVideo Role = "sns_introduction_video"
)

// Performance kinds exist once for semifinals and once for finals, e.g.
// semifinals_music and finals_music.
const (
	PerfMusic       = "music"
	PerfChaserSong  = "chaser_song"
	PerfScene1Image = "scene1_image"
	PerfScene2Image = "scene2_image"
	PerfScene3Image = "scene3_image"
)

func PerformanceRole(stage, kind string) Role {
	return Role(stage + "_" + kind)
}

type RoleSpec struct {
	Role  Role   `json:"role"`
	Stage string `json:"stage"`
	Kind  Kind   `json:"kind"`
}

var kindMimePrefixes = map[Kind][]string{
	KindVideo:    {"video/"},
	KindAudio:    {"audio/"},
	KindImage:    {"image/"},
	KindDocument: {"image/", "application/pdf"},
}

var kindMaxBytes = map[Kind]int64{
	KindVideo:    500 << 20,
	KindAudio:    50 << 20,
	KindImage:    10 << 20,
	KindDocument: 10 << 20,
}

var registry = buildRegistry()

func buildRegistry() map[Role]RoleSpec {
	m := map[Role]RoleSpec{}
	add := func(stage string, kind Kind, roles ...Role) {
		for _, r := range roles {
			m[r] = RoleSpec{Role: r, Stage: stage, Kind: kind}
		}
	}

	add("preliminary", KindVideo, RolePreliminaryVideo)
	for _, stage := range []string{"semifinals", "finals"} {
		add(stage, KindAudio, PerformanceRole(stage, PerfMusic), PerformanceRole(stage, PerfChaserSong))
		add(stage, KindImage,
			PerformanceRole(stage, PerfScene1Image),
			PerformanceRole(stage, PerfScene2Image),
			PerformanceRole(stage, PerfScene3Image),
		)
	}
	add("sns", KindVideo, RoleSnsPracticeVideo, RoleSnsIntroductionVideo)
	add("applications", KindDocument, RoleBankSlip)
	return m
}

func Lookup(r Role) (RoleSpec, bool) {
	spec, ok := registry[r]
	return spec, ok
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := registry[r]; !ok {
		return "", ErrUnknownRole
	}
	return r, nil
}

// RolesForStage returns the roles owned by a stage in a stable order.
func RolesForStage(stage string) []Role {
	var out []Role
	for r, spec := range registry {
		if spec.Stage == stage {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func AllRoles() []RoleSpec {
	out := make([]RoleSpec, 0, len(registry))
	for _, spec := range registry {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out
}

func (s RoleSpec) Accepts(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	for _, p := range kindMimePrefixes[s.Kind] {
		if strings.HasPrefix(mimeType, p) {
			return true
		}
	}
	return false
}

func (s RoleSpec) MaxBytes() int64 {
	return kindMaxBytes[s.Kind]
}
