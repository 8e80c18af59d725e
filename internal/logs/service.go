package logs

import (
	"dance-entry-api/internal/util"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type LogService struct {
	DB *gorm.DB
}

func (ls *LogService) Log(log SystemLog, metadata interface{}) error {
	var metaStr *string

	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			str := string(b)
			metaStr = &str
		}
	}

	level := log.Level
	if level == "" {
		level = LevelInfo
	}

	newLog := SystemLog{
		Level:     level,
		Service:   log.Service,
		UserID:    log.UserID,
		EntryID:   log.EntryID,
		Action:    log.Action,
		Message:   log.Message,
		Stages:    log.Stages,
		Metadata:  metaStr,
		CreatedAt: time.Now(),
	}

	return ls.DB.Create(&newLog).Error
}

func (ls *LogService) GetLogs(input LogFilterInput) ([]LogRow, int64, int, error) {
	if input.Page <= 0 {
		input.Page = 1
	}
	if input.PageSize <= 0 || input.PageSize > 100 {
		input.PageSize = 20
	}

	base := ls.DB.
		Table("logs").
		Select("logs.*, e.team_name as team_name").
		Joins("LEFT JOIN entries e ON logs.entry_id = e.id")

	// last 30 days unless a range is given
	if input.StartDate == nil && input.EndDate == nil {
		base = base.Where("logs.created_at >= ?", time.Now().AddDate(0, 0, -30))
	}

	if input.UserID != nil && strings.TrimSpace(*input.UserID) != "" {
		base = base.Where("logs.user_id = ?", strings.TrimSpace(*input.UserID))
	}
	if input.EntryID != nil {
		base = base.Where("logs.entry_id = ?", *input.EntryID)
	}
	if input.Level != nil && strings.TrimSpace(*input.Level) != "" {
		base = base.Where("logs.level = ?", strings.ToUpper(strings.TrimSpace(*input.Level)))
	}
	if input.Service != nil && strings.TrimSpace(*input.Service) != "" {
		base = base.Where("logs.service = ?", strings.TrimSpace(*input.Service))
	}
	if input.Action != nil && strings.TrimSpace(*input.Action) != "" {
		base = base.Where("logs.action = ?", strings.TrimSpace(*input.Action))
	}
	if stages := util.ParseCSVList(input.Stages); len(stages) > 0 {
		base = base.Where("logs.stages && ?", pq.Array(stages))
	}

	start, hasStart, endExclusive, hasEnd, err := util.ParseDateRange(input.StartDate, input.EndDate)
	if err != nil {
		return nil, 0, 0, err
	}
	if hasStart {
		base = base.Where("logs.created_at >= ?", start)
	}
	if hasEnd {
		base = base.Where("logs.created_at < ?", endExclusive)
	}

	if input.Search != nil && strings.TrimSpace(*input.Search) != "" {
		like := "%" + strings.TrimSpace(*input.Search) + "%"
		base = base.Where(
			`CAST(logs.id AS TEXT) ILIKE ?
			 OR logs.level ILIKE ?
			 OR logs.service ILIKE ?
			 OR logs.action ILIKE ?
			 OR logs.message ILIKE ?
			 OR COALESCE(array_to_string(logs.stages, ','),'') ILIKE ?
			 OR COALESCE(e.team_name,'') ILIKE ?`,
			like, like, like, like, like, like, like,
		)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, 0, err
	}

	totalPages := int(math.Ceil(float64(total) / float64(input.PageSize)))
	if totalPages == 0 {
		totalPages = 1
	}

	var rows []LogRow
	if err := base.
		Session(&gorm.Session{}).
		Order("logs.created_at DESC").
		Limit(input.PageSize).
		Offset((input.Page - 1) * input.PageSize).
		Scan(&rows).Error; err != nil {
		return nil, 0, 0, err
	}

	return rows, total, totalPages, nil
}
