package attachment

import (
	"context"
	"dance-entry-api/internal/storage"
	"dance-entry-api/internal/util"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// OrphanSweeper retries deletes recorded by Discard.
type OrphanSweeper struct {
	DB          *gorm.DB
	Store       storage.BlobStore
	BatchSize   int
	MaxAttempts int
}

func (s *OrphanSweeper) SweepOnce(ctx context.Context) (int, error) {
	batch := s.BatchSize
	if batch <= 0 {
		batch = 100
	}

	q := s.DB.WithContext(ctx).Order("id asc").Limit(batch)
	if s.MaxAttempts > 0 {
		q = q.Where("attempts < ?", s.MaxAttempts)
	}

	var rows []Orphan
	if err := q.Find(&rows).Error; err != nil {
		return 0, err
	}

	removed := 0
	for _, o := range rows {
		if err := s.Store.Delete(ctx, o.FilePath); err != nil {
			now := time.Now()
			if uerr := s.DB.WithContext(ctx).Model(&Orphan{}).
				Where("id = ?", o.ID).
				Updates(map[string]interface{}{
					"attempts":      o.Attempts + 1,
					"last_error":    util.ClampText(err.Error(), 1000),
					"last_tried_at": now,
				}).Error; uerr != nil {
				return removed, uerr
			}
			continue
		}
		if err := s.DB.WithContext(ctx).Delete(&Orphan{}, o.ID).Error; err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Start runs SweepOnce every interval until the returned scheduler is shut
// down.
func (s *OrphanSweeper) Start(every time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			n, err := s.SweepOnce(context.Background())
			if err != nil {
				log.Printf("[Sweeper] orphan sweep failed: %v", err)
				return
			}
			if n > 0 {
				log.Printf("[Sweeper] removed %d orphaned blobs", n)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	sched.Start()
	return sched, nil
}
