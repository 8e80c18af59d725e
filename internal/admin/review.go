package admin

import (
	"context"
	"dance-entry-api/internal/attachment"
	"dance-entry-api/internal/entry"
	"dance-entry-api/internal/stage"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrEmptyPoints  = errors.New("points are required")
	ErrInvalidScore = errors.New("points must be between 0 and 100")
)

// SetStatus moves an entry through review. The update is conditional on the
// status read so two admins deciding at once cannot both win.
func (as *AdminService) SetStatus(ctx context.Context, entryID int64, to, adminID, reason string) (*entry.Entry, string, error) {
	to = strings.ToLower(strings.TrimSpace(to))
	if !entry.ValidStatus(to) {
		return nil, "", fmt.Errorf("%w: unknown status %q", entry.ErrInvalidTransition, to)
	}

	var e entry.Entry
	var from string
	err := as.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&e, entryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return entry.ErrNotFound
			}
			return err
		}
		from = e.Status
		if !entry.CanTransition(from, to) {
			return fmt.Errorf("%w: %s -> %s", entry.ErrInvalidTransition, from, to)
		}

		updates := map[string]interface{}{"status": to}
		switch to {
		case entry.StatusSelected, entry.StatusRejected:
			updates["decided_at"] = time.Now()
		default:
			updates["decided_at"] = nil
		}

		res := tx.Model(&entry.Entry{}).
			Where("id = ? AND status = ?", entryID, from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: status changed concurrently", entry.ErrInvalidTransition)
		}
		return tx.First(&e, entryID).Error
	})
	if err != nil {
		return nil, "", err
	}

	if as.Publisher != nil {
		ev := StatusChangedEvent{
			EntryID:   e.ID,
			UserID:    e.UserID,
			From:      from,
			To:        to,
			ChangedBy: adminID,
			Reason:    strings.TrimSpace(reason),
			At:        time.Now().UTC(),
		}
		if err := as.Publisher.Publish(ctx, StatusChangedQueue, ev); err != nil {
			log.Printf("admin: status event for entry %d not published: %v", e.ID, err)
		}
	}
	return &e, from, nil
}

// UpsertScore records judgeID's marks for one stage of an entry, replacing
// any earlier marks from the same judge.
func (as *AdminService) UpsertScore(ctx context.Context, entryID int64, judgeID string, in ScoreInput) (*Score, error) {
	st, err := stage.Parse(in.Stage)
	if err != nil {
		return nil, err
	}
	if len(in.Points) == 0 {
		return nil, ErrEmptyPoints
	}

	total := 0.0
	for _, v := range in.Points {
		if v < 0 || v > 100 || math.IsNaN(v) {
			return nil, ErrInvalidScore
		}
		total += v
	}
	points, err := json.Marshal(in.Points)
	if err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(in.Tags))
	for _, t := range in.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)

	db := as.DB.WithContext(ctx)
	var n int64
	if err := db.Model(&entry.Entry{}).Where("id = ?", entryID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, entry.ErrNotFound
	}

	sc := Score{
		EntryID: entryID,
		Stage:   string(st),
		JudgeID: judgeID,
		Points:  datatypes.JSON(points),
		Total:   total,
		Comment: strings.TrimSpace(in.Comment),
		Tags:    pq.StringArray(tags),
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_id"}, {Name: "stage"}, {Name: "judge_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"points", "total", "comment", "tags", "updated_at"}),
	}).Create(&sc).Error; err != nil {
		return nil, err
	}

	var saved Score
	if err := db.Where("entry_id = ? AND stage = ? AND judge_id = ?", entryID, sc.Stage, judgeID).First(&saved).Error; err != nil {
		return nil, err
	}
	return &saved, nil
}

func (as *AdminService) ListScores(ctx context.Context, entryID int64) ([]Score, error) {
	var out []Score
	if err := as.DB.WithContext(ctx).
		Where("entry_id = ?", entryID).
		Order("stage asc, judge_id asc").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteEntry removes an entry with its stage rows, attachments and scores,
// then clears its blobs. Blobs that survive are left to the orphan sweeper.
func (as *AdminService) DeleteEntry(ctx context.Context, entryID int64) error {
	var paths []string
	err := as.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var e entry.Entry
		if err := tx.First(&e, entryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return entry.ErrNotFound
			}
			return err
		}

		for _, m := range stage.Models() {
			if err := tx.Where("entry_id = ?", entryID).Delete(m).Error; err != nil {
				return err
			}
		}

		var err error
		paths, err = attachment.DeleteEntryRows(tx, entryID)
		if err != nil {
			return err
		}
		if err := tx.Where("entry_id = ?", entryID).Delete(&Score{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entry.Entry{}, entryID).Error
	})
	if err != nil {
		return err
	}

	if as.Store == nil {
		return nil
	}
	if _, err := as.Store.DeletePrefix(ctx, attachment.EntryPrefix(entryID)); err != nil {
		log.Printf("admin: delete prefix for entry %d failed: %v", entryID, err)
		attachment.Discard(ctx, as.DB, as.Store, "entry_deleted", paths...)
	}
	return nil
}
