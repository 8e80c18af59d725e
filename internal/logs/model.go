package logs

import (
	"time"

	"github.com/lib/pq"
)

const (
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

type SystemLog struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Level     string         `gorm:"size:20;not null" json:"level"`
	Service   string         `gorm:"size:100;not null" json:"service"`
	UserID    *string        `gorm:"size:128;index" json:"user_id,omitempty"`
	EntryID   *int64         `gorm:"index" json:"entry_id,omitempty"`
	Action    string         `gorm:"size:255;not null" json:"action"`
	Message   string         `gorm:"type:text;not null" json:"message"`
	Stages    pq.StringArray `gorm:"type:text[];column:stages" json:"stages"`
	Metadata  *string        `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

type LogFilterInput struct {
	UserID  *string  `json:"user_id"`
	EntryID *int64   `json:"entry_id"`
	Level   *string  `json:"level"`
	Service *string  `json:"service"`
	Action  *string  `json:"action"`
	Stages  []string `json:"stages"`

	StartDate *string `json:"start_date"` // "YYYY-MM-DD"
	EndDate   *string `json:"end_date"`   // "YYYY-MM-DD"

	Search   *string `json:"search"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}

type LogRow struct {
	SystemLog
	TeamName string `json:"team_name" gorm:"column:team_name"`
}

func (SystemLog) TableName() string {
	return "logs"
}

// Ptr helpers keep call sites short when filling optional columns.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func IDPtr(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
