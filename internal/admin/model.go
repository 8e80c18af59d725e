package admin

import (
	"dance-entry-api/internal/attachment"
	"dance-entry-api/internal/entry"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type Operation string

const (
	OpEQ        Operation = "EQ"
	OpNEQ       Operation = "NEQ"
	OpCONTAINS  Operation = "CONTAINS"
	OpIN        Operation = "IN"
	OpBETWEEN   Operation = "BETWEEN"
	OpLAST7     Operation = "LAST_7"
	OpLAST30    Operation = "LAST_30"
	OpTHISMONTH Operation = "THIS_MONTH"
	OpLASTMONTH Operation = "LAST_MONTH"
	OpALLTIME   Operation = "ALL_TIME"
)

type Clause struct {
	ID     string    `json:"id"`
	Field  string    `json:"field"`
	Op     Operation `json:"op"`
	Value  *string   `json:"value"`
	Values []string  `json:"values"`
	Start  *string   `json:"start"` // YYYY-MM-DD
	End    *string   `json:"end"`   // YYYY-MM-DD
}

type EntrySearchRequest struct {
	Clauses  []Clause `json:"clauses"`
	Search   string   `json:"search"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
}

type AggKV struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type Aggregations struct {
	ByStatus []AggKV `json:"by_status,omitempty"`
}

type EntrySearchResponse struct {
	Message      string       `json:"message"`
	Page         int          `json:"page"`
	PageSize     int          `json:"page_size"`
	TotalPages   int          `json:"total_pages"`
	TotalRows    int64        `json:"total_rows"`
	Aggregations Aggregations `json:"aggregations,omitempty"`
	Data         []EntryRow   `json:"data"`
}

// EntryRow is one line of the admin entry grid.
type EntryRow struct {
	ID                     int64      `json:"id"`
	UserID                 string     `json:"user_id"`
	Status                 string     `json:"status"`
	DanceStyle             string     `json:"dance_style"`
	Category               string     `json:"category"`
	TeamName               string     `json:"team_name"`
	RepresentativeName     string     `json:"representative_name"`
	RepresentativeEmail    string     `json:"representative_email"`
	BasicInfoStatus        string     `json:"basic_info_status"`
	PreliminaryInfoStatus  string     `json:"preliminary_info_status"`
	SemifinalsInfoStatus   string     `json:"semifinals_info_status"`
	FinalsInfoStatus       string     `json:"finals_info_status"`
	SnsInfoStatus          string     `json:"sns_info_status"`
	ApplicationsInfoStatus string     `json:"applications_info_status"`
	AttachmentCount        int64      `json:"attachment_count"`
	SubmittedAt            *time.Time `json:"submitted_at"`
	CreatedAt              time.Time  `json:"created_at"`
}

// Score is one judge's marks for an entry at a stage.
type Score struct {
	ID        int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	EntryID   int64          `json:"entry_id" gorm:"not null;uniqueIndex:uq_scores_entry_stage_judge,priority:1"`
	Stage     string         `json:"stage" gorm:"type:varchar(20);not null;uniqueIndex:uq_scores_entry_stage_judge,priority:2"`
	JudgeID   string         `json:"judge_id" gorm:"type:varchar(128);not null;uniqueIndex:uq_scores_entry_stage_judge,priority:3"`
	Points    datatypes.JSON `json:"points" gorm:"type:jsonb;not null"`
	Total     float64        `json:"total" gorm:"not null;default:0"`
	Comment   string         `json:"comment" gorm:"type:text;not null;default:''"`
	Tags      pq.StringArray `json:"tags" gorm:"type:text[]"`
	CreatedAt time.Time      `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"not null;autoUpdateTime"`
}

func (Score) TableName() string { return "entry_scores" }

type ScoreInput struct {
	Stage   string             `json:"stage" binding:"required"`
	Points  map[string]float64 `json:"points" binding:"required"`
	Comment string             `json:"comment"`
	Tags    []string           `json:"tags"`
}

type StatusChangeRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// StatusChangedEvent is published after a review decision commits.
type StatusChangedEvent struct {
	EntryID   int64     `json:"entry_id"`
	UserID    string    `json:"user_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedBy string    `json:"changed_by"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
}

type EntryDetail struct {
	Entry       entry.Entry             `json:"entry"`
	Stages      map[string]any          `json:"stages"`
	Attachments []attachment.Attachment `json:"attachments"`
	Scores      []Score                 `json:"scores"`
}

type ExportRequest struct {
	Format  string   `json:"format"` // "excel" | "csv"
	Clauses []Clause `json:"clauses"`
	Search  string   `json:"search"`
}

type MediaRequest struct {
	EntryIDs          []int64  `json:"entry_ids"`
	Clauses           []Clause `json:"clauses"`
	Roles             []string `json:"roles"`
	CategorizeByEntry bool     `json:"categorize_by_entry"` // /entry_12_team/
	CategorizeByRole  bool     `json:"categorize_by_role"`  // /preliminary_video/
}

type exportRow struct {
	entry.Entry
	RepresentativeFurigana  string `gorm:"column:representative_furigana"`
	RepresentativePhone     string `gorm:"column:representative_phone"`
	RepresentativeBirthdate string `gorm:"column:representative_birthdate"`
	PartnerName             string `gorm:"column:partner_name"`
	GuardianName            string `gorm:"column:guardian_name"`
}

type mediaZipRow struct {
	ID       int64
	EntryID  int64
	Role     string
	FilePath string
	FileName string
	TeamName string
}
