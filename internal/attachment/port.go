package attachment

import (
	"context"
	"dance-entry-api/internal/logs"
)

type AttachmentServiceAPI interface {
	UploadAndRegister(ctx context.Context, entryID int64, role Role, in UploadInput) (*Attachment, error)
	DeleteByRole(ctx context.Context, entryID int64, role Role) (bool, error)
	List(ctx context.Context, entryID int64) ([]Attachment, error)
	SignedURL(ctx context.Context, entryID int64, role Role) (string, *Attachment, error)
}

type LogServicePort interface {
	Log(entry logs.SystemLog, payload any) error
}

var _ AttachmentServiceAPI = (*AttachmentService)(nil)
var _ LogServicePort = (*logs.LogService)(nil)
