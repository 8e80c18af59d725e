package entry

import (
	"time"
)

// Entry review status.
const (
	StatusPending   = "pending"
	StatusSubmitted = "submitted"
	StatusSelected  = "selected"
	StatusRejected  = "rejected"
)

// Stored per-stage completion status. An empty string means the stage has
// never been touched.
const (
	StageRegistered   = "registered"
	StageUnregistered = "unregistered"
)

type Entry struct {
	ID                     int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID                 string     `json:"user_id" gorm:"type:varchar(128);not null;index"`
	Status                 string     `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	DanceStyle             string     `json:"dance_style" gorm:"type:varchar(100);not null;default:''"`
	Category               string     `json:"category" gorm:"type:varchar(20);not null;default:''"`
	TeamName               string     `json:"team_name" gorm:"type:text;not null;default:''"`
	RepresentativeName     string     `json:"representative_name" gorm:"type:text;not null;default:''"`
	RepresentativeEmail    string     `json:"representative_email" gorm:"type:text;not null;default:''"`
	BasicInfoStatus        string     `json:"basic_info_status" gorm:"column:basic_info_status;type:varchar(20);not null;default:''"`
	PreliminaryInfoStatus  string     `json:"preliminary_info_status" gorm:"column:preliminary_info_status;type:varchar(20);not null;default:''"`
	SemifinalsInfoStatus   string     `json:"semifinals_info_status" gorm:"column:semifinals_info_status;type:varchar(20);not null;default:''"`
	FinalsInfoStatus       string     `json:"finals_info_status" gorm:"column:finals_info_status;type:varchar(20);not null;default:''"`
	SnsInfoStatus          string     `json:"sns_info_status" gorm:"column:sns_info_status;type:varchar(20);not null;default:''"`
	ApplicationsInfoStatus string     `json:"applications_info_status" gorm:"column:applications_info_status;type:varchar(20);not null;default:''"`
	SubmittedAt            *time.Time `json:"submitted_at,omitempty"`
	DecidedAt              *time.Time `json:"decided_at,omitempty"`
	CreatedAt              time.Time  `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt              time.Time  `json:"updated_at" gorm:"not null;autoUpdateTime"`
}

func (Entry) TableName() string { return "entries" }

// StageStatus returns the stored status for a stage status column.
func (e *Entry) StageStatus(column string) string {
	switch column {
	case "basic_info_status":
		return e.BasicInfoStatus
	case "preliminary_info_status":
		return e.PreliminaryInfoStatus
	case "semifinals_info_status":
		return e.SemifinalsInfoStatus
	case "finals_info_status":
		return e.FinalsInfoStatus
	case "sns_info_status":
		return e.SnsInfoStatus
	case "applications_info_status":
		return e.ApplicationsInfoStatus
	}
	return ""
}

// SetStageStatus mirrors a column write onto the in-memory struct.
func (e *Entry) SetStageStatus(column, status string) {
	switch column {
	case "basic_info_status":
		e.BasicInfoStatus = status
	case "preliminary_info_status":
		e.PreliminaryInfoStatus = status
	case "semifinals_info_status":
		e.SemifinalsInfoStatus = status
	case "finals_info_status":
		e.FinalsInfoStatus = status
	case "sns_info_status":
		e.SnsInfoStatus = status
	case "applications_info_status":
		e.ApplicationsInfoStatus = status
	}
}

// SubmitColumns are the stages that must be registered before an entry can
// be submitted for review.
var SubmitColumns = []string{
	"basic_info_status",
	"preliminary_info_status",
	"applications_info_status",
}

// CanTransition reports whether an admin may move an entry between review
// states. Participants only ever move pending -> submitted via Submit.
func CanTransition(from, to string) bool {
	switch to {
	case StatusSelected, StatusRejected:
		return from == StatusSubmitted || from == StatusSelected || from == StatusRejected
	case StatusSubmitted:
		return from == StatusSelected || from == StatusRejected
	case StatusPending:
		return from == StatusSubmitted
	}
	return false
}

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusSubmitted, StatusSelected, StatusRejected:
		return true
	}
	return false
}
