package stage

import (
	"context"
	"dance-entry-api/internal/logs"
	"encoding/json"
)

type StageServiceAPI interface {
	Load(ctx context.Context, entryID int64, st Stage) (*SaveResult, error)
	Save(ctx context.Context, entryID int64, st Stage, payload json.RawMessage, opts SaveOptions) (*SaveResult, error)
	CreateWithBasicInfo(ctx context.Context, userID string, payload json.RawMessage, opts SaveOptions) (*SaveResult, error)
	Summary(ctx context.Context, entryID int64) ([]StageSummary, error)
	ApplyGroupOption(ctx context.Context, entryID int64, group string, option string) (*SaveResult, error)
}

type LogServicePort interface {
	Log(entry logs.SystemLog, payload any) error
}

var _ StageServiceAPI = (*StageService)(nil)
var _ LogServicePort = (*logs.LogService)(nil)
