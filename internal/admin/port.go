package admin

import (
	"context"
	"dance-entry-api/internal/entry"
	"dance-entry-api/internal/logs"
	"io"
)

type AdminServiceAPI interface {
	SearchEntries(req EntrySearchRequest) (*EntrySearchResponse, error)
	GetEntryDetail(ctx context.Context, entryID int64) (*EntryDetail, error)
	SetStatus(ctx context.Context, entryID int64, to, adminID, reason string) (*entry.Entry, string, error)
	UpsertScore(ctx context.Context, entryID int64, judgeID string, in ScoreInput) (*Score, error)
	ListScores(ctx context.Context, entryID int64) ([]Score, error)
	DeleteEntry(ctx context.Context, entryID int64) error
	Export(ctx context.Context, req ExportRequest) (contentType, filename string, out []byte, err error)
	StreamMediaZip(ctx context.Context, out io.Writer, req MediaRequest) error
}

type LogServicePort interface {
	Log(entry logs.SystemLog, payload any) error
}

var _ AdminServiceAPI = (*AdminService)(nil)
var _ LogServicePort = (*logs.LogService)(nil)
var _ EventPublisher = (*RabbitPublisher)(nil)
