package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"mod-aggregator/platform"
)

// Enqueuer is the slice of the queue the scheduler needs.
type Enqueuer interface {
	EnqueueSync(p platform.Platform, limit int) error
}

// Scheduler periodically enqueues a sync run for every registered platform.
// It only publishes; the queue owns execution and retries, so a tick that
// fires while the previous sync is still running just lines up behind it.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.SugaredLogger
}

// New builds a scheduler with one entry per platform, each firing every
// intervalMinutes.
func New(queue Enqueuer, platforms []platform.Platform, intervalMinutes, limit int, log *zap.SugaredLogger) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))

	spec := fmt.Sprintf("@every %dm", intervalMinutes)
	for _, p := range platforms {
		p := p
		if _, err := c.AddFunc(spec, func() {
			if err := queue.EnqueueSync(p, limit); err != nil {
				log.Errorw("Failed to enqueue scheduled sync",
					zap.String("platform", p.String()),
					zap.Error(err),
				)
				return
			}
			log.Infow("Scheduled sync enqueued", zap.String("platform", p.String()))
		}); err != nil {
			return nil, fmt.Errorf("failed to schedule sync for %s: %w", p, err)
		}
	}

	return &Scheduler{cron: c, log: log}, nil
}

// Start begins firing entries in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops firing and waits for in-flight entry functions to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
