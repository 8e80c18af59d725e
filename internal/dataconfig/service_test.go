package dataconfig

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq uint64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	id := atomic.AddUint64(&testDBSeq, 1)
	dsn := fmt.Sprintf("file:dataconfig_test_%d?mode=memory&cache=shared", id)

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

	if err := db.AutoMigrate(&DataConfig{}); err != nil {
		t.Fatalf("migrate db: %v", err)
	}

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func breakDB(t *testing.T, db *gorm.DB) {
	t.Helper()

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	_ = sqlDB.Close()
}

func TestDataConfig_TableName(t *testing.T) {
	if got := (DataConfig{}).TableName(); got != "data_config" {
		t.Fatalf("got %q want %q", got, "data_config")
	}
}

func TestDataConfigService_Publish_Versions(t *testing.T) {
	svc := &DataConfigService{DB: newTestDB(t)}

	first, err := svc.Publish("stage_rules", map[string]int{"adult_age": 18})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if first.Version != 1 || first.Checksum == "" {
		t.Fatalf("unexpected first publish %#v", first)
	}

	same, err := svc.Publish("Stage_Rules", map[string]int{"adult_age": 18})
	if err != nil {
		t.Fatalf("republish: %v", err)
	}
	if same.ID != first.ID || same.Version != 1 || same.Checksum != first.Checksum {
		t.Fatalf("unchanged document bumped: %#v", same)
	}

	changed, err := svc.Publish("stage_rules", map[string]int{"adult_age": 20})
	if err != nil {
		t.Fatalf("publish change: %v", err)
	}
	if changed.ID != first.ID || changed.Version != 2 || changed.Checksum == first.Checksum {
		t.Fatalf("changed document not bumped: %#v", changed)
	}

	if _, err := svc.Publish("  ", nil); err == nil {
		t.Fatal("expected error for blank name")
	}
}

func TestDataConfigService_GetByNameIfModified(t *testing.T) {
	svc := &DataConfigService{DB: newTestDB(t)}

	if _, err := svc.GetByNameIfModified("   ", nil, ""); err == nil {
		t.Fatal("expected error for blank name")
	}
	if _, err := svc.GetByNameIfModified("stage_rules", nil, ""); err != gorm.ErrRecordNotFound {
		t.Fatalf("err = %v, want %v", err, gorm.ErrRecordNotFound)
	}

	cfg, err := svc.Publish("stage_rules", BuildStageRules(time.Date(2025, 11, 23, 0, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	res, err := svc.GetByNameIfModified("STAGE_RULES", nil, "")
	if err != nil || res.NotModified {
		t.Fatalf("expected modified, got %#v, %v", res, err)
	}
	var rules StageRules
	if err := json.Unmarshal(res.Config.Config, &rules); err != nil {
		t.Fatalf("decode rules: %v", err)
	}
	if rules.EventDate != "2025-11-23" || rules.AdultAge != 18 || len(rules.Stages) != 6 || len(rules.CopyGroups) != 4 {
		t.Fatalf("unexpected rules %+v", rules)
	}

	res, err = svc.GetByNameIfModified("stage_rules", nil, cfg.Checksum)
	if err != nil || !res.NotModified {
		t.Fatalf("checksum match should be not modified: %#v, %v", res, err)
	}

	later := cfg.UpdatedAt.Add(time.Minute)
	res, err = svc.GetByNameIfModified("stage_rules", &later, "stale")
	if err != nil || !res.NotModified {
		t.Fatalf("newer client copy should be not modified: %#v, %v", res, err)
	}

	earlier := cfg.UpdatedAt.Add(-time.Minute)
	res, err = svc.GetByNameIfModified("stage_rules", &earlier, "stale")
	if err != nil || res.NotModified {
		t.Fatalf("older client copy should be modified: %#v, %v", res, err)
	}
}

func TestDataConfigService_GetByNameIfModified_DBError(t *testing.T) {
	db := newTestDB(t)
	svc := &DataConfigService{DB: db}

	breakDB(t, db)

	got, err := svc.GetByNameIfModified("stage_rules", nil, "")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if got != nil {
		t.Fatalf("expected nil result, got %#v", got)
	}
}
