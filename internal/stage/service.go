package stage

import (
	"context"
	"dance-entry-api/internal/attachment"
	"dance-entry-api/internal/entry"
	"dance-entry-api/internal/storage"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

type StageService struct {
	DB        *gorm.DB
	Store     storage.BlobStore
	EventDate time.Time
}

type SaveOptions struct {
	Temporary          bool `json:"temporary"`
	ValidateBeforeSave bool `json:"validate_before_save"`
}

type SaveResult struct {
	EntryID int64  `json:"entry_id"`
	Stage   Stage  `json:"stage"`
	Created bool   `json:"created"`
	Record  Record `json:"data"`
	Result  Result `json:"result"`
}

type StageSummary struct {
	Result
	StoredStatus string `json:"stored_status"`
	Editable     bool   `json:"editable"`
	LockedReason string `json:"locked_reason,omitempty"`
}

var _ attachment.StageGate = (*StageService)(nil)

func loadEntry(db *gorm.DB, entryID int64) (*entry.Entry, error) {
	var e entry.Entry
	if err := db.First(&e, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entry.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// loadRecord returns the stage row for an entry, or an empty model when the
// stage has never been saved.
func loadRecord(db *gorm.DB, s Stage, entryID int64) (Record, bool, error) {
	rec := NewRecord(s)
	if rec == nil {
		return nil, false, ErrUnknownStage
	}
	err := db.Where("entry_id = ?", entryID).First(rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		rec = NewRecord(s)
		rec.base().EntryID = entryID
		return rec, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func (s *StageService) evaluate(st Stage, rec Record, files map[attachment.Role]int) Result {
	return Evaluate(DefinitionFor(st), Input{
		Values:    FieldValues(rec),
		Files:     files,
		EventDate: s.EventDate,
	})
}

func writeStatus(tx *gorm.DB, entryID int64, st Stage, status string) error {
	return tx.Model(&entry.Entry{}).
		Where("id = ?", entryID).
		Update(st.Column(), status).Error
}

// CheckEditable implements attachment.StageGate.
func (s *StageService) CheckEditable(db *gorm.DB, entryID int64, stage string) error {
	st, err := Parse(stage)
	if err != nil {
		return err
	}
	e, err := loadEntry(db, entryID)
	if err != nil {
		return err
	}
	return EditableFor(st, e)
}

// RecomputeStage re-evaluates a stage from what tx sees and stores the status.
func (s *StageService) RecomputeStage(tx *gorm.DB, entryID int64, stage string) error {
	st, err := Parse(stage)
	if err != nil {
		return err
	}
	rec, _, err := loadRecord(tx, st, entryID)
	if err != nil {
		return err
	}
	files, err := attachment.Counts(tx, entryID)
	if err != nil {
		return err
	}
	return writeStatus(tx, entryID, st, s.evaluate(st, rec, files).Status)
}

func (s *StageService) Load(ctx context.Context, entryID int64, st Stage) (*SaveResult, error) {
	db := s.DB.WithContext(ctx)
	if _, err := loadEntry(db, entryID); err != nil {
		return nil, err
	}
	rec, found, err := loadRecord(db, st, entryID)
	if err != nil {
		return nil, err
	}
	files, err := attachment.Counts(db, entryID)
	if err != nil {
		return nil, err
	}
	return &SaveResult{
		EntryID: entryID,
		Stage:   st,
		Created: !found,
		Record:  rec,
		Result:  s.evaluate(st, rec, files),
	}, nil
}

// Save upserts the stage row keyed by entry_id. The payload overlays the
// stored row, so partial saves keep untouched fields. Format and
// completeness checks only block the save when opts asks for them; the
// stage status is recomputed and written in the same transaction either way.
func (s *StageService) Save(ctx context.Context, entryID int64, st Stage, payload json.RawMessage, opts SaveOptions) (*SaveResult, error) {
	var out *SaveResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := loadEntry(tx, entryID)
		if err != nil {
			return err
		}
		out, err = s.saveTx(tx, e, st, payload, opts)
		return err
	})
	if err != nil {
		log.Printf("stage: save %s for entry %d failed: %v", st, entryID, err)
		return nil, err
	}
	return out, nil
}

// CreateWithBasicInfo opens a new entry for userID with its first basic info
// save.
func (s *StageService) CreateWithBasicInfo(ctx context.Context, userID string, payload json.RawMessage, opts SaveOptions) (*SaveResult, error) {
	var out *SaveResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e := &entry.Entry{UserID: userID, Status: entry.StatusPending}
		if err := tx.Create(e).Error; err != nil {
			return err
		}
		var err error
		out, err = s.saveTx(tx, e, StageBasicInfo, payload, opts)
		return err
	})
	if err != nil {
		log.Printf("stage: create entry for user %s failed: %v", userID, err)
		return nil, err
	}
	return out, nil
}

func (s *StageService) saveTx(tx *gorm.DB, e *entry.Entry, st Stage, payload json.RawMessage, opts SaveOptions) (*SaveResult, error) {
	if err := EditableFor(st, e); err != nil {
		return nil, err
	}

	rec, found, err := loadRecord(tx, st, e.ID)
	if err != nil {
		return nil, err
	}

	b := *rec.base()
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, rec); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
	}
	restored := rec.base()
	restored.ID = b.ID
	restored.EntryID = e.ID
	restored.CreatedAt = b.CreatedAt
	restored.UpdatedAt = b.UpdatedAt

	files, err := attachment.Counts(tx, e.ID)
	if err != nil {
		return nil, err
	}
	res := s.evaluate(st, rec, files)

	if !opts.Temporary && opts.ValidateBeforeSave {
		if verr := validateRecord(rec, res); verr != nil {
			return nil, verr
		}
	}

	if found {
		err = tx.Save(rec).Error
	} else {
		err = tx.Create(rec).Error
	}
	if err != nil {
		return nil, err
	}

	if st == StageBasicInfo {
		if err := refreshEntryFields(tx, e.ID, rec.(*BasicInfo)); err != nil {
			return nil, err
		}
	}
	if err := writeStatus(tx, e.ID, st, res.Status); err != nil {
		return nil, err
	}

	return &SaveResult{
		EntryID: e.ID,
		Stage:   st,
		Created: !found,
		Record:  rec,
		Result:  res,
	}, nil
}

func refreshEntryFields(tx *gorm.DB, entryID int64, bi *BasicInfo) error {
	return tx.Model(&entry.Entry{}).
		Where("id = ?", entryID).
		Updates(map[string]interface{}{
			"dance_style":          bi.DanceStyle,
			"category":             bi.Category,
			"team_name":            bi.TeamName,
			"representative_name":  bi.RepresentativeName,
			"representative_email": bi.RepresentativeEmail,
		}).Error
}

// Summary evaluates every stage of an entry on read.
func (s *StageService) Summary(ctx context.Context, entryID int64) ([]StageSummary, error) {
	db := s.DB.WithContext(ctx)
	e, err := loadEntry(db, entryID)
	if err != nil {
		return nil, err
	}
	files, err := attachment.Counts(db, entryID)
	if err != nil {
		return nil, err
	}

	out := make([]StageSummary, 0, len(All))
	for _, st := range All {
		rec, _, err := loadRecord(db, st, entryID)
		if err != nil {
			return nil, err
		}
		sum := StageSummary{
			Result:       s.evaluate(st, rec, files),
			StoredStatus: e.StageStatus(st.Column()),
			Editable:     true,
		}
		if err := EditableFor(st, e); err != nil {
			sum.Editable = false
			sum.LockedReason = err.Error()
		}
		out = append(out, sum)
	}
	return out, nil
}

// ApplyGroupOption takes one copy group of finals over from semifinals
// ("same") or clears it ("different").
//
// Blobs are copied to fresh finals paths before the transaction. The
// transaction swaps the group's finals attachment rows, writes the fields and
// the option, and stores the new finals status. If it fails the copies are
// discarded; if it commits the replaced finals blobs are.
func (s *StageService) ApplyGroupOption(ctx context.Context, entryID int64, group string, option string) (*SaveResult, error) {
	g, err := CopyGroupByName(group)
	if err != nil {
		return nil, err
	}
	opt, err := ParseOption(option)
	if err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	e, err := loadEntry(db, entryID)
	if err != nil {
		return nil, err
	}
	if err := EditableFor(StageFinals, e); err != nil {
		return nil, err
	}

	src, _, err := loadRecord(db, StageSemifinals, entryID)
	if err != nil {
		return nil, err
	}

	var newRows []attachment.Attachment
	var copied []string
	if opt == OptionSame {
		newRows, copied, err = s.copyGroupFiles(ctx, entryID, g)
		if err != nil {
			attachment.Discard(ctx, s.DB, s.Store, "copy_failed", copied...)
			return nil, err
		}
	}

	var out *SaveResult
	var replaced []string
	err = db.Transaction(func(tx *gorm.DB) error {
		e, err := loadEntry(tx, entryID)
		if err != nil {
			return err
		}
		if err := EditableFor(StageFinals, e); err != nil {
			return err
		}

		rec, found, err := loadRecord(tx, StageFinals, entryID)
		if err != nil {
			return err
		}
		next, err := ApplyOption(opt, g, FieldValues(rec), FieldValues(src))
		if err != nil {
			return err
		}
		next[g.OptionField] = string(opt)
		AssignFieldValues(rec, next)

		replaced, err = attachment.ReplaceRows(tx, entryID, g.Roles(StageFinals), newRows)
		if err != nil {
			return err
		}

		if found {
			err = tx.Save(rec).Error
		} else {
			err = tx.Create(rec).Error
		}
		if err != nil {
			return err
		}

		files, err := attachment.Counts(tx, entryID)
		if err != nil {
			return err
		}
		res := s.evaluate(StageFinals, rec, files)
		if err := writeStatus(tx, entryID, StageFinals, res.Status); err != nil {
			return err
		}

		out = &SaveResult{EntryID: entryID, Stage: StageFinals, Created: !found, Record: rec, Result: res}
		return nil
	})
	if err != nil {
		log.Printf("stage: apply %s=%s for entry %d failed: %v", g.Name, opt, entryID, err)
		attachment.Discard(ctx, s.DB, s.Store, "copy_rollback", copied...)
		return nil, err
	}

	attachment.Discard(ctx, s.DB, s.Store, "replaced", replaced...)
	return out, nil
}

// copyGroupFiles duplicates the semifinals blobs of a group under finals
// roles. It returns the rows to insert and every path written so far, even on
// error, so the caller can clean up.
func (s *StageService) copyGroupFiles(ctx context.Context, entryID int64, g CopyGroup) ([]attachment.Attachment, []string, error) {
	srcRoles := g.Roles(StageSemifinals)
	if len(srcRoles) == 0 {
		return nil, nil, nil
	}

	var srcFiles []attachment.Attachment
	if err := s.DB.WithContext(ctx).
		Where("entry_id = ? AND role IN ?", entryID, srcRoles).
		Order("role asc").
		Find(&srcFiles).Error; err != nil {
		return nil, nil, err
	}

	rows := make([]attachment.Attachment, 0, len(srcFiles))
	copied := make([]string, 0, len(srcFiles))
	for _, a := range srcFiles {
		kind := string(a.Role)[len(StageSemifinals)+1:]
		dstRole := attachment.PerformanceRole(string(StageFinals), kind)
		dst := attachment.ObjectPath(entryID, dstRole, a.FileName, a.MimeType)

		if err := s.Store.Copy(ctx, a.FilePath, dst); err != nil {
			return nil, copied, fmt.Errorf("copy %s: %w", a.Role, err)
		}
		copied = append(copied, dst)

		rows = append(rows, attachment.Attachment{
			EntryID:       entryID,
			Role:          dstRole,
			FileType:      a.FileType,
			FilePath:      dst,
			FileName:      a.FileName,
			MimeType:      a.MimeType,
			FileSizeBytes: a.FileSizeBytes,
		})
	}
	return rows, copied, nil
}
