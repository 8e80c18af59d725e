package admin

import (
	"context"
	"dance-entry-api/internal/entry"
	"dance-entry-api/internal/stage"
	"dance-entry-api/internal/storage"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

type AdminService struct {
	DB        *gorm.DB
	Store     storage.BlobStore
	Publisher EventPublisher

	// searchHook replaces SearchEntries when collecting ids for exports.
	searchHook func(req EntrySearchRequest) (*EntrySearchResponse, error)
}

const entryRowSelect = `
	e.id,
	e.user_id,
	e.status,
	e.dance_style,
	e.category,
	e.team_name,
	e.representative_name,
	e.representative_email,
	e.basic_info_status,
	e.preliminary_info_status,
	e.semifinals_info_status,
	e.finals_info_status,
	e.sns_info_status,
	e.applications_info_status,
	COALESCE(ac.attachment_count, 0) AS attachment_count,
	e.submitted_at,
	e.created_at
`

func (as *AdminService) SearchEntries(req EntrySearchRequest) (*EntrySearchResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	base := as.DB.Table("entries e")
	base, err := applyEntryFilters(base, req.Clauses, "e")
	if err != nil {
		return nil, err
	}
	if s := strings.TrimSpace(req.Search); s != "" {
		like := "%" + s + "%"
		base = base.Where(
			"(e.team_name ILIKE ? OR e.representative_name ILIKE ? OR e.representative_email ILIKE ?)",
			like, like, like,
		)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var byStatus []AggKV
	if err := base.Session(&gorm.Session{}).
		Select("e.status AS key, COUNT(*) AS count").
		Group("e.status").
		Order("count DESC").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}

	attachmentCounts := as.DB.Table("entry_attachments").
		Select("entry_id, COUNT(*) AS attachment_count").
		Group("entry_id")

	rows := []EntryRow{}
	if err := base.Session(&gorm.Session{}).
		Joins("LEFT JOIN (?) ac ON ac.entry_id = e.id", attachmentCounts).
		Select(entryRowSelect).
		Order("e.created_at DESC").
		Limit(req.PageSize).
		Offset((req.Page - 1) * req.PageSize).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	totalPages := int(math.Ceil(float64(total) / float64(req.PageSize)))
	if totalPages == 0 {
		totalPages = 1
	}

	return &EntrySearchResponse{
		Message:      "success",
		Page:         req.Page,
		PageSize:     req.PageSize,
		TotalPages:   totalPages,
		TotalRows:    total,
		Aggregations: Aggregations{ByStatus: byStatus},
		Data:         rows,
	}, nil
}

func (as *AdminService) search(req EntrySearchRequest) (*EntrySearchResponse, error) {
	if as.searchHook != nil {
		return as.searchHook(req)
	}
	return as.SearchEntries(req)
}

// collectAllEntryIDs pages through the search with the same filters.
func (as *AdminService) collectAllEntryIDs(clauses []Clause, search string) ([]int64, error) {
	const pageSize = 200
	seen := map[int64]struct{}{}
	var ids []int64

	for page := 1; ; page++ {
		resp, err := as.search(EntrySearchRequest{Clauses: clauses, Search: search, Page: page, PageSize: pageSize})
		if err != nil {
			return nil, err
		}
		for _, r := range resp.Data {
			if _, ok := seen[r.ID]; ok {
				continue
			}
			seen[r.ID] = struct{}{}
			ids = append(ids, r.ID)
		}
		if page >= resp.TotalPages || len(resp.Data) == 0 {
			break
		}
	}
	return dedupeAndFilterIDs(ids), nil
}

// GetEntryDetail returns an entry with every saved stage, its attachments
// and its scores.
func (as *AdminService) GetEntryDetail(ctx context.Context, entryID int64) (*EntryDetail, error) {
	db := as.DB.WithContext(ctx)

	var e entry.Entry
	if err := db.First(&e, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entry.ErrNotFound
		}
		return nil, err
	}

	out := &EntryDetail{Entry: e, Stages: map[string]any{}}
	for _, st := range stage.All {
		rec := stage.NewRecord(st)
		err := db.Where("entry_id = ?", entryID).First(rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", st, err)
		}
		out.Stages[string(st)] = rec
	}

	if err := db.Where("entry_id = ?", entryID).Order("role asc").Find(&out.Attachments).Error; err != nil {
		return nil, err
	}
	if err := db.Where("entry_id = ?", entryID).Order("stage asc, judge_id asc").Find(&out.Scores).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ==========================
// Filters
// ==========================

var stageStatusFields = map[string]bool{
	"basic_info_status":        true,
	"preliminary_info_status":  true,
	"semifinals_info_status":   true,
	"finals_info_status":       true,
	"sns_info_status":          true,
	"applications_info_status": true,
}

func applyEntryFilters(q *gorm.DB, clauses []Clause, alias string) (*gorm.DB, error) {
	for _, c := range clauses {
		switch {
		case c.Field == "status", c.Field == "dance_style", c.Field == "category", c.Field == "user_id":
			q = applyStringOp(q, alias+"."+c.Field, c)
		case c.Field == "team_name", c.Field == "representative_name", c.Field == "representative_email":
			q = applyStringOp(q, alias+"."+c.Field, c)
		case stageStatusFields[c.Field]:
			q = applyStageStatusOp(q, alias+"."+c.Field, c)
		case c.Field == "id":
			q = applyIntOp(q, alias+".id", c)
		case c.Field == "created_at", c.Field == "submitted_at":
			var err error
			q, err = applyDateOp(q, alias+"."+c.Field, c)
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unsupported filter field: %s", c.Field)
		}
	}
	return q, nil
}

func applyStringOp(q *gorm.DB, col string, c Clause) *gorm.DB {
	switch c.Op {
	case OpEQ:
		if c.Value != nil {
			return q.Where(col+" = ?", *c.Value)
		}
	case OpNEQ:
		if c.Value != nil {
			return q.Where(col+" <> ?", *c.Value)
		}
	case OpCONTAINS:
		if c.Value != nil {
			return q.Where(col+" ILIKE ?", "%"+*c.Value+"%")
		}
	case OpIN:
		if len(c.Values) > 0 {
			return q.Where(col+" IN ?", c.Values)
		}
	}
	return q
}

// applyStageStatusOp treats "unset" as the empty status.
func applyStageStatusOp(q *gorm.DB, col string, c Clause) *gorm.DB {
	norm := func(v string) string {
		if strings.EqualFold(strings.TrimSpace(v), "unset") {
			return ""
		}
		return v
	}
	if c.Value != nil {
		v := norm(*c.Value)
		c.Value = &v
	}
	if len(c.Values) > 0 {
		vals := make([]string, len(c.Values))
		for i, v := range c.Values {
			vals[i] = norm(v)
		}
		c.Values = vals
	}
	return applyStringOp(q, col, c)
}

func applyIntOp(q *gorm.DB, col string, c Clause) *gorm.DB {
	switch c.Op {
	case OpEQ:
		if c.Value != nil {
			return q.Where(col+" = ?", *c.Value)
		}
	case OpIN:
		if len(c.Values) > 0 {
			return q.Where(col+" IN ?", c.Values)
		}
	}
	return q
}

func applyDateOp(q *gorm.DB, col string, c Clause) (*gorm.DB, error) {
	now := time.Now()
	loc := now.Location()

	startOfDay := func(t time.Time) time.Time {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
	endOfDay := func(t time.Time) time.Time {
		y, m, d := t.Date()
		return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), loc)
	}

	switch c.Op {
	case OpALLTIME:
		return q, nil
	case OpLAST7:
		return q.Where(col+" >= ?", startOfDay(now.AddDate(0, 0, -7))), nil
	case OpLAST30:
		return q.Where(col+" >= ?", startOfDay(now.AddDate(0, 0, -30))), nil
	case OpTHISMONTH:
		y, m, _ := now.Date()
		return q.Where(col+" >= ?", time.Date(y, m, 1, 0, 0, 0, 0, loc)), nil
	case OpLASTMONTH:
		y, m, _ := now.Date()
		lastMonthEnd := time.Date(y, m, 1, 0, 0, 0, 0, loc).Add(-time.Nanosecond)
		s := time.Date(lastMonthEnd.Year(), lastMonthEnd.Month(), 1, 0, 0, 0, 0, loc)
		return q.Where(col+" BETWEEN ? AND ?", s, endOfDay(lastMonthEnd)), nil
	case OpBETWEEN:
		if c.Start == nil || c.End == nil {
			return nil, fmt.Errorf("BETWEEN requires start and end")
		}
		s, err := time.ParseInLocation("2006-01-02", *c.Start, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid start date")
		}
		e, err := time.ParseInLocation("2006-01-02", *c.End, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid end date")
		}
		return q.Where(col+" BETWEEN ? AND ?", startOfDay(s), endOfDay(e)), nil
	}
	return q, nil
}

func dedupeAndFilterIDs(in []int64) []int64 {
	seen := make(map[int64]struct{}, len(in))
	out := make([]int64, 0, len(in))
	for _, id := range in {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
