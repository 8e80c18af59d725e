package attachment

import (
	"context"
	"dance-entry-api/internal/storage"
	"dance-entry-api/internal/util"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StageGate is implemented by the stage service. Attachments call it to
// refuse writes to locked stages and to refresh the owning stage's status
// inside the same transaction as the row change.
type StageGate interface {
	CheckEditable(db *gorm.DB, entryID int64, stage string) error
	RecomputeStage(tx *gorm.DB, entryID int64, stage string) error
}

type AttachmentService struct {
	DB       *gorm.DB
	Store    storage.BlobStore
	Gate     StageGate
	MaxBytes int64
	URLTTL   time.Duration
}

var newObjectIDHook = uuid.NewString

// EntryPrefix is the object prefix holding every blob of an entry.
func EntryPrefix(entryID int64) string {
	return fmt.Sprintf("entries/%d", entryID)
}

// ObjectPath builds entries/<entry>/<role>/<uuid>_<slug><ext>.
func ObjectPath(entryID int64, role Role, fileName, mimeType string) string {
	return fmt.Sprintf("%s/%s/%s_%s%s",
		EntryPrefix(entryID),
		role,
		newObjectIDHook(),
		util.SafeBaseName(fileName),
		util.ExtFromFilenameOrMime(fileName, mimeType),
	)
}

func normalizeMime(declared, fileName string) string {
	declared = strings.TrimSpace(declared)
	if mt, _, err := mime.ParseMediaType(declared); err == nil {
		declared = mt
	}
	if declared == "" || declared == "application/octet-stream" {
		if byExt := mime.TypeByExtension(strings.ToLower(path.Ext(fileName))); byExt != "" {
			if mt, _, err := mime.ParseMediaType(byExt); err == nil {
				return mt
			}
		}
	}
	return strings.ToLower(declared)
}

func (s *AttachmentService) limitFor(spec RoleSpec) int64 {
	limit := spec.MaxBytes()
	if s.MaxBytes > 0 && s.MaxBytes < limit {
		limit = s.MaxBytes
	}
	return limit
}

func (s *AttachmentService) ttl() time.Duration {
	if s.URLTTL <= 0 {
		return 15 * time.Minute
	}
	return s.URLTTL
}

// UploadAndRegister stores the blob first, then swaps the (entry, role) row
// and refreshes the stage status in one transaction. A failed transaction
// discards the new blob; a successful one discards the replaced blob.
func (s *AttachmentService) UploadAndRegister(ctx context.Context, entryID int64, role Role, in UploadInput) (*Attachment, error) {
	spec, ok := Lookup(role)
	if !ok {
		return nil, ErrUnknownRole
	}
	if in.Body == nil {
		return nil, ErrEmptyFile
	}

	mimeType := normalizeMime(in.MimeType, in.FileName)
	if !spec.Accepts(mimeType) {
		return nil, fmt.Errorf("%w: %s does not accept %q", ErrUnsupportedType, role, mimeType)
	}
	limit := s.limitFor(spec)
	if in.Size > limit {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, limit)
	}

	if s.Gate != nil {
		if err := s.Gate.CheckEditable(s.DB.WithContext(ctx), entryID, spec.Stage); err != nil {
			return nil, err
		}
	}

	objectPath := ObjectPath(entryID, role, in.FileName, mimeType)
	n, err := s.Store.Upload(ctx, objectPath, io.LimitReader(in.Body, limit+1), mimeType)
	if err != nil {
		Discard(ctx, s.DB, s.Store, "upload_failed", objectPath)
		return nil, fmt.Errorf("upload %s: %w", role, err)
	}
	if n == 0 {
		Discard(ctx, s.DB, s.Store, "empty_upload", objectPath)
		return nil, ErrEmptyFile
	}
	if n > limit {
		Discard(ctx, s.DB, s.Store, "too_large", objectPath)
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, limit)
	}

	row := Attachment{
		EntryID:       entryID,
		Role:          role,
		FileType:      string(spec.Kind),
		FilePath:      objectPath,
		FileName:      util.ClampText(path.Base(strings.ReplaceAll(in.FileName, "\\", "/")), 255),
		MimeType:      mimeType,
		FileSizeBytes: n,
	}

	var replaced []string
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		replaced, err = ReplaceRows(tx, entryID, []Role{role}, []Attachment{row})
		if err != nil {
			return err
		}
		if s.Gate != nil {
			return s.Gate.RecomputeStage(tx, entryID, spec.Stage)
		}
		return nil
	})
	if err != nil {
		Discard(ctx, s.DB, s.Store, "upload_rollback", objectPath)
		return nil, err
	}

	Discard(ctx, s.DB, s.Store, "replaced", replaced...)

	if err := s.DB.WithContext(ctx).
		Where("entry_id = ? AND role = ?", entryID, role).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// DeleteByRole removes the row for (entry, role) and then its blob. Deleting
// a role with no attachment is a no-op and reports false.
func (s *AttachmentService) DeleteByRole(ctx context.Context, entryID int64, role Role) (bool, error) {
	spec, ok := Lookup(role)
	if !ok {
		return false, ErrUnknownRole
	}
	if s.Gate != nil {
		if err := s.Gate.CheckEditable(s.DB.WithContext(ctx), entryID, spec.Stage); err != nil {
			return false, err
		}
	}

	var paths []string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		paths, err = ReplaceRows(tx, entryID, []Role{role}, nil)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return nil
		}
		if s.Gate != nil {
			return s.Gate.RecomputeStage(tx, entryID, spec.Stage)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	Discard(ctx, s.DB, s.Store, "deleted", paths...)
	return len(paths) > 0, nil
}

func (s *AttachmentService) Get(ctx context.Context, entryID int64, role Role) (*Attachment, error) {
	var a Attachment
	err := s.DB.WithContext(ctx).
		Where("entry_id = ? AND role = ?", entryID, role).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *AttachmentService) List(ctx context.Context, entryID int64) ([]Attachment, error) {
	var out []Attachment
	if err := s.DB.WithContext(ctx).
		Where("entry_id = ?", entryID).
		Order("role asc").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SignedURL issues a time-limited download URL for the (entry, role) blob.
func (s *AttachmentService) SignedURL(ctx context.Context, entryID int64, role Role) (string, *Attachment, error) {
	if _, ok := Lookup(role); !ok {
		return "", nil, ErrUnknownRole
	}
	a, err := s.Get(ctx, entryID, role)
	if err != nil {
		return "", nil, err
	}
	url, err := s.Store.SignedURL(ctx, a.FilePath, s.ttl())
	if err != nil {
		return "", nil, fmt.Errorf("sign %s: %w", role, err)
	}
	return url, a, nil
}

// Counts returns the number of attachment rows per role for an entry. It
// takes a handle so stage evaluation can read inside a transaction.
func Counts(db *gorm.DB, entryID int64) (map[Role]int, error) {
	type row struct {
		Role  Role
		Count int
	}
	var rows []row
	if err := db.Model(&Attachment{}).
		Select("role, COUNT(*) AS count").
		Where("entry_id = ?", entryID).
		Group("role").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[Role]int, len(rows))
	for _, r := range rows {
		out[r.Role] = r.Count
	}
	return out, nil
}

// ReplaceRows deletes every row for the given roles and inserts rows in their
// place. It returns the blob paths of the deleted rows so the caller can
// discard them once the transaction commits.
func ReplaceRows(tx *gorm.DB, entryID int64, roles []Role, rows []Attachment) ([]string, error) {
	if len(roles) == 0 {
		return nil, nil
	}

	var old []Attachment
	if err := tx.
		Where("entry_id = ? AND role IN ?", entryID, roles).
		Find(&old).Error; err != nil {
		return nil, err
	}

	var paths []string
	if len(old) > 0 {
		if err := tx.
			Where("entry_id = ? AND role IN ?", entryID, roles).
			Delete(&Attachment{}).Error; err != nil {
			return nil, err
		}
		for _, a := range old {
			paths = append(paths, a.FilePath)
		}
	}

	for i := range rows {
		rows[i].ID = 0
		rows[i].EntryID = entryID
		if err := tx.Create(&rows[i]).Error; err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// DeleteEntryRows drops every attachment row of an entry and returns the
// paths they pointed to.
func DeleteEntryRows(tx *gorm.DB, entryID int64) ([]string, error) {
	var old []Attachment
	if err := tx.Where("entry_id = ?", entryID).Find(&old).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("entry_id = ?", entryID).Delete(&Attachment{}).Error; err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(old))
	for _, a := range old {
		paths = append(paths, a.FilePath)
	}
	return paths, nil
}

// Discard deletes blobs that no row references any more. A blob that cannot
// be deleted is recorded in storage_orphans for the sweeper.
func Discard(ctx context.Context, db *gorm.DB, store storage.BlobStore, reason string, paths ...string) {
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		err := store.Delete(ctx, p)
		if err == nil {
			continue
		}

		log.Printf("attachment: discard %s (%s) failed: %v", p, reason, err)
		now := time.Now()
		o := Orphan{
			FilePath:    p,
			Reason:      reason,
			LastError:   util.ClampText(err.Error(), 1000),
			Attempts:    1,
			LastTriedAt: &now,
		}
		if err := db.Create(&o).Error; err != nil {
			log.Printf("attachment: failed to record orphan %s: %v", p, err)
		}
	}
}
