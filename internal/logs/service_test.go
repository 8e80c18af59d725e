package logs

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}

	cleanup := func() { _ = db.Close() }
	return gdb, mock, cleanup
}

func anyArgs(n int) []driver.Value {
	out := make([]driver.Value, n)
	for i := range out {
		out[i] = sqlmock.AnyArg()
	}
	return out
}

func TestLogService_Log_Inserts(t *testing.T) {
	t.Run("metadata nil", func(t *testing.T) {
		db, mock, cleanup := newMockGorm(t)
		defer cleanup()

		ls := &LogService{DB: db}

		// level, service, user_id, entry_id, action, message, stages, metadata, created_at
		mock.ExpectQuery(`INSERT INTO "logs"`).
			WithArgs(anyArgs(9)...).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

		err := ls.Log(SystemLog{
			Level:   LevelInfo,
			Service: "attachment",
			UserID:  StrPtr("user-7"),
			EntryID: IDPtr(12),
			Action:  "upload",
			Message: "ok",
			Stages:  pq.StringArray{"semifinals"},
		}, nil)

		if err != nil {
			t.Fatalf("expected nil err, got %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("expectations: %v", err)
		}
	})

	t.Run("empty level defaults to INFO", func(t *testing.T) {
		db, mock, cleanup := newMockGorm(t)
		defer cleanup()

		ls := &LogService{DB: db}

		args := anyArgs(9)
		args[0] = LevelInfo
		mock.ExpectQuery(`INSERT INTO "logs"`).
			WithArgs(args...).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))

		if err := ls.Log(SystemLog{Service: "stage", Action: "save", Message: "m"}, map[string]any{"ip": "127.0.0.1"}); err != nil {
			t.Fatalf("expected nil err, got %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("expectations: %v", err)
		}
	})

	t.Run("metadata marshal fails (ignored)", func(t *testing.T) {
		db, mock, cleanup := newMockGorm(t)
		defer cleanup()

		ls := &LogService{DB: db}

		mock.ExpectQuery(`INSERT INTO "logs"`).
			WithArgs(anyArgs(9)...).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

		err := ls.Log(SystemLog{
			Level:   LevelInfo,
			Service: "svc",
			Action:  "act",
			Message: "msg",
		}, func() {})

		if err != nil {
			t.Fatalf("expected nil err, got %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("expectations: %v", err)
		}
	})
}

func TestLogService_GetLogs_InvalidDateRange_ReturnsError(t *testing.T) {
	db, _, cleanup := newMockGorm(t)
	defer cleanup()

	ls := &LogService{DB: db}

	start := "bad-date"
	_, _, _, err := ls.GetLogs(LogFilterInput{
		StartDate: &start,
		Page:      1,
		PageSize:  10,
	})
	if err == nil {
		t.Fatalf("expected error for invalid date")
	}
}

func TestLogService_GetLogs_CountError_ReturnsError(t *testing.T) {
	db, mock, cleanup := newMockGorm(t)
	defer cleanup()

	ls := &LogService{DB: db}

	mock.ExpectQuery(`SELECT count\(\*\)`).
		WillReturnError(errors.New("count failed"))

	_, _, _, err := ls.GetLogs(LogFilterInput{Page: 1, PageSize: 10})
	if err == nil || err.Error() != "count failed" {
		t.Fatalf("expected count failed, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLogService_GetLogs_HappyPath(t *testing.T) {
	db, mock, cleanup := newMockGorm(t)
	defer cleanup()

	ls := &LogService{DB: db}

	mock.ExpectQuery(`SELECT count\(\*\).*logs\.stages && `).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))

	cols := []string{
		"id", "level", "service", "user_id", "entry_id", "action", "message",
		"stages", "metadata", "created_at", "team_name",
	}
	now := time.Now()

	mock.ExpectQuery(`SELECT logs\.\*, e\.team_name as team_name`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(
				1, "INFO", "stage", "user-1", sql.NullInt64{Int64: 4, Valid: true}, "save", "ok",
				[]byte(`{finals}`), []byte(`{"k":"v"}`), now, "Team Sakura",
			).
			AddRow(
				2, "ERROR", "attachment", nil, sql.NullInt64{}, "upload", "fail",
				[]byte(`{}`), nil, now.Add(-time.Minute), "",
			))

	start, end := "2025-11-01", "2025-11-30"
	rows, total, pages, err := ls.GetLogs(LogFilterInput{
		Stages:    []string{"finals, semifinals"},
		StartDate: &start,
		EndDate:   &end,
		PageSize:  10,
	})
	if err != nil {
		t.Fatalf("GetLogs: %v", err)
	}
	if total != 21 || pages != 3 {
		t.Fatalf("expected total=21 pages=3, got %d %d", total, pages)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].TeamName != "Team Sakura" || rows[0].EntryID == nil || *rows[0].EntryID != 4 {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if len(rows[0].Stages) != 1 || rows[0].Stages[0] != "finals" {
		t.Fatalf("unexpected stages: %#v", rows[0].Stages)
	}
	if rows[1].EntryID != nil {
		t.Fatalf("expected nil entry id, got %v", *rows[1].EntryID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
