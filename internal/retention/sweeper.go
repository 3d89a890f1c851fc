// Package retention runs the nightly purge of archived project
// subtrees. Archiving is the soft delete users see; the sweeper turns it
// into the real cascade delete once the retention window has passed.
package retention

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/treeline-hq/treeline-backend/internal/logger"
	"github.com/treeline-hq/treeline-backend/internal/projects/service"
)

type Sweeper struct {
	projects *service.ProjectService
	log      *logger.Logger
	schedule string
	maxAge   time.Duration
	cron     *cron.Cron
}

func NewSweeper(projects *service.ProjectService, log *logger.Logger, schedule string, maxAge time.Duration) *Sweeper {
	return &Sweeper{
		projects: projects,
		log:      log,
		schedule: schedule,
		maxAge:   maxAge,
	}
}

// Start schedules the sweep. The schedule is a 6-field cron expression
// (with seconds), e.g. "0 0 3 * * *" for 3AM nightly.
func (s *Sweeper) Start() error {
	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(s.schedule, s.runOnce); err != nil {
		return err
	}
	c.Start()
	s.cron = c
	s.log.Infow("retention sweeper started", "schedule", s.schedule, "max_age", s.maxAge)
	return nil
}

func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Sweeper) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.maxAge)
	purged, err := s.projects.PurgeArchived(ctx, cutoff)
	if err != nil {
		s.log.Errorw("retention sweep failed", "error", err, "purged", purged)
		return
	}
	if purged > 0 {
		s.log.Infow("retention sweep done", "purged", purged, "cutoff", cutoff)
	}
}
