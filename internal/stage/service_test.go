package stage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"dance-entry-api/internal/attachment"
	"dance-entry-api/internal/entry"
	"dance-entry-api/internal/storage"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq uint64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	id := atomic.AddUint64(&testDBSeq, 1)
	dsn := fmt.Sprintf("file:stage_test_%d?mode=memory&cache=shared", id)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	models := append([]interface{}{&entry.Entry{}, &attachment.Attachment{}, &attachment.Orphan{}}, Models()...)
	if err := db.AutoMigrate(models...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newService(t *testing.T) (*StageService, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	return &StageService{DB: newTestDB(t), Store: store, EventDate: eventDay}, store
}

func seedEntry(t *testing.T, db *gorm.DB, e entry.Entry) *entry.Entry {
	t.Helper()
	if e.UserID == "" {
		e.UserID = "u1"
	}
	if e.Status == "" {
		e.Status = entry.StatusPending
	}
	if err := db.Create(&e).Error; err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	return &e
}

func reload(t *testing.T, db *gorm.DB, id int64) *entry.Entry {
	t.Helper()
	var e entry.Entry
	if err := db.First(&e, id).Error; err != nil {
		t.Fatalf("reload entry: %v", err)
	}
	return &e
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

// basicPayload turns basicValues into a request body with real booleans.
func basicPayload(t *testing.T, override map[string]any) json.RawMessage {
	t.Helper()
	body := map[string]any{}
	for k, v := range basicValues() {
		if v == "true" {
			body[k] = true
			continue
		}
		body[k] = v
	}
	for k, v := range override {
		body[k] = v
	}
	return mustJSON(t, body)
}

func TestSave_MinorWithoutGuardian_SavesAsUnregistered(t *testing.T) {
	svc, _ := newService(t)
	e := seedEntry(t, svc.DB, entry.Entry{})

	payload := basicPayload(t, map[string]any{"representative_birthdate": "2008-06-01"})
	res, err := svc.Save(context.Background(), e.ID, StageBasicInfo, payload, SaveOptions{})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if res.Result.Complete || res.Result.Status != entry.StageUnregistered {
		t.Fatalf("expected unregistered, got %+v", res.Result)
	}
	for _, f := range guardianFields {
		if !contains(res.Result.MissingFields, f) {
			t.Fatalf("expected %s missing, got %v", f, res.Result.MissingFields)
		}
	}

	var n int64
	svc.DB.Model(&BasicInfo{}).Where("entry_id = ?", e.ID).Count(&n)
	if n != 1 {
		t.Fatalf("expected row written, got %d", n)
	}
	if got := reload(t, svc.DB, e.ID).BasicInfoStatus; got != entry.StageUnregistered {
		t.Fatalf("stored status %q", got)
	}
}

func TestSave_ValidateBeforeSave(t *testing.T) {
	svc, _ := newService(t)
	e := seedEntry(t, svc.DB, entry.Entry{})
	ctx := context.Background()
	payload := basicPayload(t, map[string]any{"representative_birthdate": "2008-06-01"})

	_, err := svc.Save(ctx, e.ID, StageBasicInfo, payload, SaveOptions{ValidateBeforeSave: true})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields["guardian_name"] != "is required" {
		t.Fatalf("expected guardian validation error, got %v", err)
	}
	var n int64
	svc.DB.Model(&BasicInfo{}).Where("entry_id = ?", e.ID).Count(&n)
	if n != 0 {
		t.Fatalf("rejected save wrote a row")
	}

	// temporary saves skip validation even when asked for it
	if _, err := svc.Save(ctx, e.ID, StageBasicInfo, payload, SaveOptions{Temporary: true, ValidateBeforeSave: true}); err != nil {
		t.Fatalf("temporary save: %v", err)
	}

	full := basicPayload(t, map[string]any{
		"representative_birthdate": "2008-06-01",
		"guardian_name":            "山田太郎",
		"guardian_phone":           "090-0000-1111",
		"guardian_email":           "taro@example.com",
	})
	res, err := svc.Save(ctx, e.ID, StageBasicInfo, full, SaveOptions{ValidateBeforeSave: true})
	if err != nil {
		t.Fatalf("validated save: %v", err)
	}
	if res.Created || res.Result.Status != entry.StageRegistered {
		t.Fatalf("expected update to registered, got %+v", res)
	}

	got := reload(t, svc.DB, e.ID)
	if got.BasicInfoStatus != entry.StageRegistered || got.TeamName != "Team Aurora" || got.Category != "solo" {
		t.Fatalf("entry not refreshed: %+v", got)
	}
}

func TestSave_PartialPayloadKeepsStoredFields(t *testing.T) {
	svc, _ := newService(t)
	e := seedEntry(t, svc.DB, entry.Entry{})
	ctx := context.Background()

	if _, err := svc.Save(ctx, e.ID, StageBasicInfo, basicPayload(t, nil), SaveOptions{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	res, err := svc.Save(ctx, e.ID, StageBasicInfo, json.RawMessage(`{"team_name":"Team Borealis","id":999,"entry_id":42}`), SaveOptions{})
	if err != nil {
		t.Fatalf("partial Save: %v", err)
	}

	bi := res.Record.(*BasicInfo)
	if bi.TeamName != "Team Borealis" || bi.DanceStyle != "hiphop" || bi.EntryID != e.ID || bi.ID == 999 {
		t.Fatalf("unexpected record %+v", bi)
	}
	if res.Result.Status != entry.StageRegistered {
		t.Fatalf("expected registered, got %s", res.Result.Status)
	}
}

func TestSave_Errors(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.Save(ctx, 404, StageBasicInfo, nil, SaveOptions{}); !errors.Is(err, entry.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	e := seedEntry(t, svc.DB, entry.Entry{})
	if _, err := svc.Save(ctx, e.ID, StagePreliminary, json.RawMessage(`{"work_title":"x"}`), SaveOptions{}); !errors.Is(err, entry.ErrStageLocked) {
		t.Fatalf("expected ErrStageLocked, got %v", err)
	}
	if _, err := svc.Save(ctx, e.ID, StageBasicInfo, json.RawMessage(`{"team_name":5}`), SaveOptions{}); !errors.Is(err, ErrBadPayload) {
		t.Fatalf("expected ErrBadPayload, got %v", err)
	}
}

func TestCreateWithBasicInfo(t *testing.T) {
	svc, _ := newService(t)

	res, err := svc.CreateWithBasicInfo(context.Background(), "user-7", basicPayload(t, nil), SaveOptions{ValidateBeforeSave: true})
	if err != nil {
		t.Fatalf("CreateWithBasicInfo: %v", err)
	}
	e := reload(t, svc.DB, res.EntryID)
	if e.UserID != "user-7" || e.Status != entry.StatusPending || e.BasicInfoStatus != entry.StageRegistered {
		t.Fatalf("unexpected entry %+v", e)
	}

	// a failed validation leaves no entry behind
	_, err = svc.CreateWithBasicInfo(context.Background(), "user-8", json.RawMessage(`{"representative_email":"bad"}`), SaveOptions{ValidateBeforeSave: true})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	var n int64
	svc.DB.Model(&entry.Entry{}).Where("user_id = ?", "user-8").Count(&n)
	if n != 0 {
		t.Fatalf("entry created despite failed validation")
	}
}

func TestRecomputeStageAndCheckEditable(t *testing.T) {
	svc, _ := newService(t)
	e := seedEntry(t, svc.DB, entry.Entry{BasicInfoStatus: entry.StageRegistered})

	if err := svc.CheckEditable(svc.DB, e.ID, "applications"); err != nil {
		t.Fatalf("CheckEditable: %v", err)
	}
	if err := svc.CheckEditable(svc.DB, e.ID, "finals"); !errors.Is(err, entry.ErrStageLocked) {
		t.Fatalf("expected ErrStageLocked, got %v", err)
	}
	if err := svc.CheckEditable(svc.DB, e.ID, "nope"); !errors.Is(err, ErrUnknownStage) {
		t.Fatalf("expected ErrUnknownStage, got %v", err)
	}

	rec := &ApplicationsInfo{PaymentMethod: "bank_transfer", PayerName: "山田", TotalAmount: "12000", PaymentDate: "2025-10-01"}
	rec.EntryID = e.ID
	if err := svc.DB.Create(rec).Error; err != nil {
		t.Fatalf("seed applications: %v", err)
	}

	if err := svc.RecomputeStage(svc.DB, e.ID, "applications"); err != nil {
		t.Fatalf("RecomputeStage: %v", err)
	}
	if got := reload(t, svc.DB, e.ID).ApplicationsInfoStatus; got != entry.StageUnregistered {
		t.Fatalf("without slip: %q", got)
	}

	slip := attachment.Attachment{EntryID: e.ID, Role: attachment.RoleBankSlip, FilePath: "entries/x/bank_slip/a.pdf", FileName: "a.pdf"}
	if err := svc.DB.Create(&slip).Error; err != nil {
		t.Fatalf("seed slip: %v", err)
	}
	if err := svc.RecomputeStage(svc.DB, e.ID, "applications"); err != nil {
		t.Fatalf("RecomputeStage: %v", err)
	}
	if got := reload(t, svc.DB, e.ID).ApplicationsInfoStatus; got != entry.StageRegistered {
		t.Fatalf("with slip: %q", got)
	}
}

func TestSummary(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	res, err := svc.CreateWithBasicInfo(ctx, "u1", basicPayload(t, nil), SaveOptions{})
	if err != nil {
		t.Fatalf("CreateWithBasicInfo: %v", err)
	}

	sum, err := svc.Summary(ctx, res.EntryID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(sum) != len(All) {
		t.Fatalf("expected %d stages, got %d", len(All), len(sum))
	}
	byStage := map[Stage]StageSummary{}
	for _, s := range sum {
		byStage[s.Stage] = s
	}
	if b := byStage[StageBasicInfo]; !b.Complete || b.StoredStatus != entry.StageRegistered || !b.Editable {
		t.Fatalf("basic info summary %+v", b)
	}
	if p := byStage[StagePreliminary]; !p.Editable || p.Status != "" {
		t.Fatalf("preliminary summary %+v", p)
	}
	if f := byStage[StageFinals]; f.Editable || !strings.Contains(f.LockedReason, "selection") {
		t.Fatalf("finals summary %+v", f)
	}

	if _, err := svc.Summary(ctx, 999); !errors.Is(err, entry.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// seedSemifinals prepares a selected entry whose semifinals are registered,
// with music fields and a music blob.
func seedSemifinals(t *testing.T, svc *StageService, store *storage.MemoryStore) (*entry.Entry, string) {
	t.Helper()
	ctx := context.Background()
	e := seedEntry(t, svc.DB, entry.Entry{Status: entry.StatusSelected, SemifinalsInfoStatus: entry.StageRegistered})

	semi := &SemifinalsInfo{}
	semi.EntryID = e.ID
	AssignFieldValues(semi, semifinalsMusic())
	if err := svc.DB.Create(semi).Error; err != nil {
		t.Fatalf("seed semifinals: %v", err)
	}

	role := attachment.PerformanceRole("semifinals", attachment.PerfMusic)
	path := fmt.Sprintf("entries/%d/%s/src_bloom.mp3", e.ID, role)
	if _, err := store.Upload(ctx, path, strings.NewReader("ID3"), "audio/mpeg"); err != nil {
		t.Fatalf("seed blob: %v", err)
	}
	a := attachment.Attachment{
		EntryID:       e.ID,
		Role:          role,
		FileType:      "audio",
		FilePath:      path,
		FileName:      "bloom.mp3",
		MimeType:      "audio/mpeg",
		FileSizeBytes: 3,
	}
	if err := svc.DB.Create(&a).Error; err != nil {
		t.Fatalf("seed attachment: %v", err)
	}
	return e, path
}

func finalsMusicRows(t *testing.T, db *gorm.DB, entryID int64) []attachment.Attachment {
	t.Helper()
	var rows []attachment.Attachment
	if err := db.Where("entry_id = ? AND role = ?", entryID, attachment.PerformanceRole("finals", attachment.PerfMusic)).Find(&rows).Error; err != nil {
		t.Fatalf("finals rows: %v", err)
	}
	return rows
}

func TestApplyGroupOption_SameThenDifferent(t *testing.T) {
	svc, store := newService(t)
	e, srcPath := seedSemifinals(t, svc, store)
	ctx := context.Background()

	res, err := svc.ApplyGroupOption(ctx, e.ID, "music", "same")
	if err != nil {
		t.Fatalf("same: %v", err)
	}
	fin := res.Record.(*FinalsInfo)
	if fin.MusicTitle != "Bloom" || fin.Artist != "Someone" || fin.MusicOption != "same" {
		t.Fatalf("fields not copied: %+v", fin)
	}
	if fin.Scene1Time != "" {
		t.Fatalf("field outside group copied: %q", fin.Scene1Time)
	}
	rows := finalsMusicRows(t, svc.DB, e.ID)
	if len(rows) != 1 || !strings.HasPrefix(rows[0].FilePath, fmt.Sprintf("entries/%d/finals_music/", e.ID)) || !store.Has(rows[0].FilePath) {
		t.Fatalf("finals music not copied: %+v", rows)
	}
	if !store.Has(srcPath) {
		t.Fatalf("source blob removed")
	}
	if got := reload(t, svc.DB, e.ID).FinalsInfoStatus; got != entry.StageUnregistered {
		t.Fatalf("finals status %q", got)
	}
	firstCopy := rows[0].FilePath

	// same again: identical values, the earlier copy is replaced
	res, err = svc.ApplyGroupOption(ctx, e.ID, "music", "same")
	if err != nil {
		t.Fatalf("same again: %v", err)
	}
	if !equalGroup(FieldValues(res.Record), FieldValues(fin), "music") {
		t.Fatalf("same twice differs")
	}
	rows = finalsMusicRows(t, svc.DB, e.ID)
	if len(rows) != 1 || rows[0].FilePath == firstCopy || store.Has(firstCopy) {
		t.Fatalf("replaced copy not discarded: %+v", rows)
	}
	secondCopy := rows[0].FilePath

	res, err = svc.ApplyGroupOption(ctx, e.ID, "music", "different")
	if err != nil {
		t.Fatalf("different: %v", err)
	}
	fin = res.Record.(*FinalsInfo)
	if fin.MusicTitle != "" || fin.Artist != "" || fin.MusicOption != "different" {
		t.Fatalf("fields not blanked: %+v", fin)
	}
	if rows := finalsMusicRows(t, svc.DB, e.ID); len(rows) != 0 {
		t.Fatalf("finals rows left: %+v", rows)
	}
	if store.Has(secondCopy) || !store.Has(srcPath) {
		t.Fatalf("unexpected blobs %v", store.Paths())
	}

	var semi SemifinalsInfo
	svc.DB.Where("entry_id = ?", e.ID).First(&semi)
	if semi.MusicTitle != "Bloom" {
		t.Fatalf("semifinals modified: %+v", semi)
	}
}

func equalGroup(a, b map[string]string, group string) bool {
	g, _ := CopyGroupByName(group)
	for _, f := range append([]string{g.OptionField}, g.Fields...) {
		if a[f] != b[f] {
			return false
		}
	}
	return true
}

func TestApplyGroupOption_TxFailureRemovesCopies(t *testing.T) {
	svc, store := newService(t)
	e, srcPath := seedSemifinals(t, svc, store)

	boom := errors.New("insert failed")
	err := svc.DB.Callback().Create().Before("gorm:create").Register("test:fail_attachments", func(tx *gorm.DB) {
		if tx.Statement.Table == "entry_attachments" {
			_ = tx.AddError(boom)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	if _, err := svc.ApplyGroupOption(context.Background(), e.ID, "music", "same"); !errors.Is(err, boom) {
		t.Fatalf("expected insert failure, got %v", err)
	}

	if paths := store.Paths(); len(paths) != 1 || paths[0] != srcPath {
		t.Fatalf("copied blob not compensated: %v", paths)
	}
	var n int64
	svc.DB.Model(&FinalsInfo{}).Where("entry_id = ?", e.ID).Count(&n)
	if n != 0 {
		t.Fatalf("finals row written")
	}
	if got := reload(t, svc.DB, e.ID).FinalsInfoStatus; got != "" {
		t.Fatalf("finals status written: %q", got)
	}
}

func TestApplyGroupOption_CopyFailureRemovesPartialCopies(t *testing.T) {
	svc, store := newService(t)
	e, _ := seedSemifinals(t, svc, store)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		role := attachment.PerformanceRole("semifinals", fmt.Sprintf("scene%d_image", i))
		path := fmt.Sprintf("entries/%d/%s/img.png", e.ID, role)
		if _, err := store.Upload(ctx, path, strings.NewReader("PNG"), "image/png"); err != nil {
			t.Fatalf("seed blob: %v", err)
		}
		a := attachment.Attachment{EntryID: e.ID, Role: role, FileType: "image", FilePath: path, FileName: "img.png", MimeType: "image/png"}
		if err := svc.DB.Create(&a).Error; err != nil {
			t.Fatalf("seed attachment: %v", err)
		}
	}
	store.FailOn = func(op, p string) error {
		if op == "copy" && strings.Contains(p, "scene2_image") {
			return errors.New("copy refused")
		}
		return nil
	}

	if _, err := svc.ApplyGroupOption(ctx, e.ID, "lighting", "same"); err == nil {
		t.Fatalf("expected copy failure")
	}
	for _, p := range store.Paths() {
		if strings.Contains(p, "/finals_") {
			t.Fatalf("partial copy left behind: %s", p)
		}
	}
	var n int64
	svc.DB.Model(&attachment.Attachment{}).Where("entry_id = ? AND role LIKE ?", e.ID, "finals_%").Count(&n)
	if n != 0 {
		t.Fatalf("finals rows written: %d", n)
	}
}

func TestApplyGroupOption_Guards(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	e := seedEntry(t, svc.DB, entry.Entry{Status: entry.StatusSubmitted})

	if _, err := svc.ApplyGroupOption(ctx, e.ID, "music", "same"); !errors.Is(err, entry.ErrStageLocked) {
		t.Fatalf("expected ErrStageLocked, got %v", err)
	}
	if _, err := svc.ApplyGroupOption(ctx, e.ID, "costume", "same"); !errors.Is(err, ErrUnknownGroup) {
		t.Fatalf("expected ErrUnknownGroup, got %v", err)
	}
	if _, err := svc.ApplyGroupOption(ctx, e.ID, "music", "both"); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
}

func TestApplyGroupOption_UndeletableReplacedBlobBecomesOrphan(t *testing.T) {
	svc, store := newService(t)
	e, _ := seedSemifinals(t, svc, store)
	ctx := context.Background()

	if _, err := svc.ApplyGroupOption(ctx, e.ID, "music", "same"); err != nil {
		t.Fatalf("same: %v", err)
	}
	copied := finalsMusicRows(t, svc.DB, e.ID)[0].FilePath

	store.FailOn = func(op, p string) error {
		if op == "delete" && p == copied {
			return errors.New("delete refused")
		}
		return nil
	}
	if _, err := svc.ApplyGroupOption(ctx, e.ID, "music", "different"); err != nil {
		t.Fatalf("different: %v", err)
	}

	var orphans []attachment.Orphan
	svc.DB.Find(&orphans)
	if len(orphans) != 1 || orphans[0].FilePath != copied || orphans[0].Reason != "replaced" {
		t.Fatalf("unexpected orphans %+v", orphans)
	}
}
