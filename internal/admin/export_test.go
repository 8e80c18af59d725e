package admin

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"dance-entry-api/internal/attachment"
	"dance-entry-api/internal/entry"
	"dance-entry-api/internal/stage"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// hookIDs makes collectAllEntryIDs return ids without running the
// postgres-only search query.
func hookIDs(as *AdminService, ids ...int64) {
	as.searchHook = func(req EntrySearchRequest) (*EntrySearchResponse, error) {
		rows := make([]EntryRow, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, EntryRow{ID: id})
		}
		return &EntrySearchResponse{Page: req.Page, PageSize: req.PageSize, TotalPages: 1, Data: rows}, nil
	}
}

func seedExportEntry(t *testing.T, db *gorm.DB, team, phone string) *entry.Entry {
	t.Helper()
	e := seedEntry(t, db, entry.Entry{
		TeamName:              team,
		RepresentativeName:    "Sato Hana",
		Category:              "solo",
		BasicInfoStatus:       entry.StageRegistered,
		PreliminaryInfoStatus: entry.StageUnregistered,
	})
	if err := db.Create(&stage.BasicInfo{
		StageBase:           stage.StageBase{EntryID: e.ID},
		TeamName:            team,
		RepresentativePhone: phone,
	}).Error; err != nil {
		t.Fatalf("seed basic info: %v", err)
	}
	return e
}

func TestExport_CSVHasBOMAndOrderedColumns(t *testing.T) {
	as, _, _ := newAdminService(t)
	e := seedExportEntry(t, as.DB, "Kaze, Inc", "090-1234-5678")
	hookIDs(as, e.ID)

	ct, name, out, err := as.Export(context.Background(), ExportRequest{Format: "csv"})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if ct != contentTypeCSV || !strings.HasSuffix(name, ".csv") {
		t.Fatalf("unexpected content type/name: %s %s", ct, name)
	}
	if !bytes.HasPrefix(out, utf8BOM) {
		t.Fatalf("csv must start with a UTF-8 BOM")
	}

	records, err := csv.NewReader(bytes.NewReader(out[len(utf8BOM):])).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(records))
	}
	if records[0][0] != "Entry ID" || records[0][4] != "Team name" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	row := records[1]
	if row[0] != fmt.Sprintf("%d", e.ID) || row[4] != "Kaze, Inc" || row[8] != "090-1234-5678" {
		t.Fatalf("unexpected row: %v", row)
	}
}

func TestExport_EmptyResultStillWritesHeader(t *testing.T) {
	as, _, _ := newAdminService(t)
	hookIDs(as)

	_, _, out, err := as.Export(context.Background(), ExportRequest{Format: "csv"})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(out[len(utf8BOM):])).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 1 || len(records[0]) != len(exportColumns().Keys()) {
		t.Fatalf("expected header only, got %v", records)
	}
}

func TestExport_XLSX(t *testing.T) {
	as, _, _ := newAdminService(t)
	a := seedExportEntry(t, as.DB, "Kaze", "")
	b := seedExportEntry(t, as.DB, "Nami", "")
	hookIDs(as, b.ID, a.ID)

	ct, name, out, err := as.Export(context.Background(), ExportRequest{Format: "excel"})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if ct != contentTypeXLSX || !strings.HasSuffix(name, ".xlsx") {
		t.Fatalf("unexpected content type/name: %s %s", ct, name)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Entries")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[1][4] != "Kaze" || rows[2][4] != "Nami" {
		t.Fatalf("rows must be ordered by id: %v / %v", rows[1], rows[2])
	}
}

func TestExport_SearchErrorPropagates(t *testing.T) {
	as, _, _ := newAdminService(t)
	as.searchHook = func(req EntrySearchRequest) (*EntrySearchResponse, error) {
		return nil, errTest("bad filter")
	}
	if _, _, _, err := as.Export(context.Background(), ExportRequest{}); err == nil {
		t.Fatalf("expected error")
	}
}

func zipNames(t *testing.T, b []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		t.Fatalf("zip reader: %v", err)
	}
	var out []string
	for _, f := range zr.File {
		out = append(out, f.Name)
	}
	sort.Strings(out)
	return out
}

func TestStreamMediaZip_CategorizedByEntryAndRole(t *testing.T) {
	as, store, _ := newAdminService(t)
	e := seedEntry(t, as.DB, entry.Entry{TeamName: "Kaze/Nami"})
	seedAttachment(t, as.DB, store, e.ID, attachment.RolePreliminaryVideo, "v.mp4", "video")
	seedAttachment(t, as.DB, store, e.ID, attachment.RoleBankSlip, "slip.pdf", "pdf")

	var buf bytes.Buffer
	err := as.StreamMediaZip(context.Background(), &buf, MediaRequest{
		EntryIDs:          []int64{e.ID, e.ID, 0},
		CategorizeByEntry: true,
		CategorizeByRole:  true,
	})
	if err != nil {
		t.Fatalf("StreamMediaZip: %v", err)
	}

	folder := fmt.Sprintf("entry_%d_Kaze_Nami", e.ID)
	want := []string{
		fmt.Sprintf("%s/bank_slip/entry_%d_bank_slip_slip.pdf", folder, e.ID),
		fmt.Sprintf("%s/preliminary_video/entry_%d_preliminary_video_v.mp4", folder, e.ID),
	}
	got := zipNames(t, buf.Bytes())
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("zip names:\n got %v\nwant %v", got, want)
	}
}

func TestStreamMediaZip_RoleFilterFlat(t *testing.T) {
	as, store, _ := newAdminService(t)
	e := seedEntry(t, as.DB, entry.Entry{})
	seedAttachment(t, as.DB, store, e.ID, attachment.RolePreliminaryVideo, "v.mp4", "video")
	seedAttachment(t, as.DB, store, e.ID, attachment.RoleBankSlip, "slip.pdf", "pdf")
	hookIDs(as, e.ID)

	var buf bytes.Buffer
	err := as.StreamMediaZip(context.Background(), &buf, MediaRequest{
		Clauses: []Clause{{Field: "status", Op: OpEQ}},
		Roles:   []string{"bank_slip"},
	})
	if err != nil {
		t.Fatalf("StreamMediaZip: %v", err)
	}
	got := zipNames(t, buf.Bytes())
	if len(got) != 1 || got[0] != fmt.Sprintf("entry_%d_bank_slip_slip.pdf", e.ID) {
		t.Fatalf("unexpected zip names: %v", got)
	}
}

func TestStreamMediaZip_Errors(t *testing.T) {
	as, store, _ := newAdminService(t)
	e := seedEntry(t, as.DB, entry.Entry{})
	ctx := context.Background()

	if err := as.StreamMediaZip(ctx, &bytes.Buffer{}, MediaRequest{EntryIDs: []int64{e.ID}, Roles: []string{"poster"}}); !errors.Is(err, attachment.ErrUnknownRole) {
		t.Fatalf("unknown role: expected ErrUnknownRole, got %v", err)
	}
	if err := as.StreamMediaZip(ctx, &bytes.Buffer{}, MediaRequest{EntryIDs: []int64{e.ID}}); err == nil || !strings.Contains(err.Error(), "no media") {
		t.Fatalf("expected no media error, got %v", err)
	}

	a := seedAttachment(t, as.DB, store, e.ID, attachment.RoleBankSlip, "slip.pdf", "pdf")
	store.FailOn = func(op, p string) error {
		if op == "open" && p == a.FilePath {
			return errTest("read denied")
		}
		return nil
	}
	if err := as.StreamMediaZip(ctx, &bytes.Buffer{}, MediaRequest{EntryIDs: []int64{e.ID}}); err == nil {
		t.Fatalf("expected open error")
	}
}

func TestSanitize(t *testing.T) {
	if got := sanitizeFilename(`  a/b\..c"d  `); got != "a_b__cd" {
		t.Fatalf("sanitizeFilename: %q", got)
	}
	if got := sanitizeFilename(" "); got != "file" {
		t.Fatalf("sanitizeFilename empty: %q", got)
	}
	if got := sanitizePathPart("Team: <One>?"); got != "Team_ _One__" {
		t.Fatalf("sanitizePathPart: %q", got)
	}
	if got := sanitizePathPart(""); got != "unknown" {
		t.Fatalf("sanitizePathPart empty: %q", got)
	}
}
