package admin

import (
	"bytes"
	"context"
	"dance-entry-api/internal/entry"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/iancoleman/orderedmap"
	"github.com/xuri/excelize/v2"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// exportColumns maps export keys to header labels, in output order.
func exportColumns() *orderedmap.OrderedMap {
	cols := orderedmap.New()
	cols.Set("id", "Entry ID")
	cols.Set("status", "Status")
	cols.Set("dance_style", "Dance style")
	cols.Set("category", "Category")
	cols.Set("team_name", "Team name")
	cols.Set("representative_name", "Representative")
	cols.Set("representative_furigana", "Representative (kana)")
	cols.Set("representative_email", "Email")
	cols.Set("representative_phone", "Phone")
	cols.Set("representative_birthdate", "Birthdate")
	cols.Set("partner_name", "Partner")
	cols.Set("guardian_name", "Guardian")
	cols.Set("basic_info_status", "Basic info")
	cols.Set("preliminary_info_status", "Preliminary")
	cols.Set("semifinals_info_status", "Semifinals")
	cols.Set("finals_info_status", "Finals")
	cols.Set("sns_info_status", "SNS")
	cols.Set("applications_info_status", "Applications")
	cols.Set("submitted_at", "Submitted at")
	cols.Set("created_at", "Created at")
	return cols
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func (r exportRow) values() *orderedmap.OrderedMap {
	v := orderedmap.New()
	v.Set("id", fmt.Sprintf("%d", r.ID))
	v.Set("status", r.Status)
	v.Set("dance_style", r.DanceStyle)
	v.Set("category", r.Category)
	v.Set("team_name", r.TeamName)
	v.Set("representative_name", r.RepresentativeName)
	v.Set("representative_furigana", r.RepresentativeFurigana)
	v.Set("representative_email", r.RepresentativeEmail)
	v.Set("representative_phone", r.RepresentativePhone)
	v.Set("representative_birthdate", r.RepresentativeBirthdate)
	v.Set("partner_name", r.PartnerName)
	v.Set("guardian_name", r.GuardianName)
	v.Set("basic_info_status", r.BasicInfoStatus)
	v.Set("preliminary_info_status", r.PreliminaryInfoStatus)
	v.Set("semifinals_info_status", r.SemifinalsInfoStatus)
	v.Set("finals_info_status", r.FinalsInfoStatus)
	v.Set("sns_info_status", r.SnsInfoStatus)
	v.Set("applications_info_status", r.ApplicationsInfoStatus)
	v.Set("submitted_at", formatTime(r.SubmittedAt))
	v.Set("created_at", formatTime(&r.CreatedAt))
	return v
}

// cells lays a row out in column order; keys the row lacks become "".
func cells(cols *orderedmap.OrderedMap, row *orderedmap.OrderedMap) []string {
	out := make([]string, 0, len(cols.Keys()))
	for _, k := range cols.Keys() {
		v, ok := row.Get(k)
		if !ok || v == nil {
			out = append(out, "")
			continue
		}
		out = append(out, fmt.Sprintf("%v", v))
	}
	return out
}

func headers(cols *orderedmap.OrderedMap) []string {
	out := make([]string, 0, len(cols.Keys()))
	for _, k := range cols.Keys() {
		label, _ := cols.Get(k)
		out = append(out, fmt.Sprintf("%v", label))
	}
	return out
}

// Export builds a CSV or XLSX of the entries matching the filters.
func (as *AdminService) Export(ctx context.Context, req ExportRequest) (contentType, filename string, out []byte, err error) {
	ids, err := as.collectAllEntryIDs(req.Clauses, req.Search)
	if err != nil {
		return "", "", nil, err
	}

	rows, err := as.loadExportRows(ctx, ids)
	if err != nil {
		return "", "", nil, err
	}

	ts := time.Now().Format("20060102_150405")
	cols := exportColumns()
	if req.Format == "csv" {
		b, err := buildCSV(cols, rows)
		if err != nil {
			return "", "", nil, err
		}
		return contentTypeCSV, fmt.Sprintf("entries_%s.csv", ts), b, nil
	}

	b, err := buildXLSX(cols, rows)
	if err != nil {
		return "", "", nil, err
	}
	return contentTypeXLSX, fmt.Sprintf("entries_%s.xlsx", ts), b, nil
}

func (as *AdminService) loadExportRows(ctx context.Context, ids []int64) ([]exportRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []exportRow
	err := as.DB.WithContext(ctx).
		Table("entries e").
		Joins("LEFT JOIN basic_info b ON b.entry_id = e.id").
		Select(`
			e.*,
			COALESCE(b.representative_furigana, '') AS representative_furigana,
			COALESCE(b.representative_phone, '') AS representative_phone,
			COALESCE(b.representative_birthdate, '') AS representative_birthdate,
			COALESCE(b.partner_name, '') AS partner_name,
			COALESCE(b.guardian_name, '') AS guardian_name
		`).
		Where("e.id IN ?", ids).
		Order("e.id ASC").
		Scan(&rows).Error
	return rows, err
}

func buildCSV(cols *orderedmap.OrderedMap, rows []exportRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.Write(utf8BOM)
	w := csv.NewWriter(buf)

	if err := w.Write(headers(cols)); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := w.Write(cells(cols, r.values())); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

func buildXLSX(cols *orderedmap.OrderedMap, rows []exportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Entries"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E2E8F0"}},
	})
	pendingStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFFF00"}},
	})

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return nil, err
	}

	header := []interface{}{}
	for _, h := range headers(cols) {
		header = append(header, excelize.Cell{Value: h, StyleID: headerStyle})
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, err
	}

	keys := cols.Keys()
	for i, r := range rows {
		vals := cells(cols, r.values())
		row := make([]interface{}, 0, len(vals))
		for j, v := range vals {
			// highlight stages that were started but are not registered yet
			if stageStatusFields[keys[j]] && v == entry.StageUnregistered {
				row = append(row, excelize.Cell{Value: v, StyleID: pendingStyle})
				continue
			}
			row = append(row, v)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, row); err != nil {
			return nil, err
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
