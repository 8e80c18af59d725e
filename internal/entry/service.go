package entry

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type EntryService struct {
	DB *gorm.DB
}

func (s *EntryService) Get(id int64) (*Entry, error) {
	var e Entry
	if err := s.DB.First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// CheckAccess loads the entry and verifies the caller owns it. Admins may
// read every entry.
func (s *EntryService) CheckAccess(entryID int64, userID string, isAdmin bool) (*Entry, error) {
	e, err := s.Get(entryID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && e.UserID != userID {
		return nil, ErrForbidden
	}
	return e, nil
}

func (s *EntryService) ListByUser(userID string) ([]Entry, error) {
	var out []Entry
	if err := s.DB.
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Submit hands a pending entry over for review once the stages listed in
// SubmitColumns are registered. Re-submitting is a no-op.
func (s *EntryService) Submit(entryID int64, userID string) (*Entry, error) {
	var out *Entry
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var e Entry
		if err := tx.First(&e, entryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if e.UserID != userID {
			return ErrForbidden
		}
		if e.Status == StatusSubmitted {
			out = &e
			return nil
		}
		if e.Status != StatusPending {
			return ErrInvalidTransition
		}

		var missing []string
		for _, col := range SubmitColumns {
			if e.StageStatus(col) != StageRegistered {
				missing = append(missing, col)
			}
		}
		if len(missing) > 0 {
			return &IncompleteError{Columns: missing}
		}

		now := time.Now()
		if err := tx.Model(&Entry{}).
			Where("id = ?", e.ID).
			Updates(map[string]interface{}{
				"status":       StatusSubmitted,
				"submitted_at": now,
			}).Error; err != nil {
			return err
		}
		e.Status = StatusSubmitted
		e.SubmittedAt = &now
		out = &e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
