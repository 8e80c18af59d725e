package attachment

import (
	"io"
	"time"
)

type Attachment struct {
	ID            int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	EntryID       int64     `json:"entry_id" gorm:"not null;uniqueIndex:uq_attachments_entry_role"`
	Role          Role      `json:"role" gorm:"type:varchar(64);not null;uniqueIndex:uq_attachments_entry_role"`
	FileType      string    `json:"file_type" gorm:"type:varchar(20);not null;default:''"`
	FilePath      string    `json:"-" gorm:"type:text;not null"`
	FileName      string    `json:"file_name" gorm:"type:text;not null;default:''"`
	MimeType      string    `json:"mime_type" gorm:"type:text;not null;default:''"`
	FileSizeBytes int64     `json:"file_size_bytes" gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"created_at" gorm:"not null;autoCreateTime"`
}

func (Attachment) TableName() string { return "entry_attachments" }

// Orphan is a blob whose delete failed after its row was already gone (or
// never written). The sweeper retries these.
type Orphan struct {
	ID          int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	FilePath    string     `json:"file_path" gorm:"type:text;not null;index"`
	Reason      string     `json:"reason" gorm:"type:varchar(64);not null;default:''"`
	LastError   string     `json:"last_error" gorm:"type:text;not null;default:''"`
	Attempts    int        `json:"attempts" gorm:"not null;default:0"`
	CreatedAt   time.Time  `json:"created_at" gorm:"not null;autoCreateTime"`
	LastTriedAt *time.Time `json:"last_tried_at,omitempty"`
}

func (Orphan) TableName() string { return "storage_orphans" }

// UploadInput is a file as received from the client.
type UploadInput struct {
	FileName string
	MimeType string
	Size     int64
	Body     io.Reader
}

type AttachmentResponse struct {
	Attachment
	URL string `json:"url,omitempty"`
}
