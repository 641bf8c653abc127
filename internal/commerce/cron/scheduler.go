package cronjob

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Importer refreshes every connected store.
type Importer interface {
	ImportAll(ctx context.Context, minAge time.Duration) (int, error)
}

type Scheduler struct {
	cron     *cron.Cron
	importer Importer
	schedule string
	minAge   time.Duration
	timeout  time.Duration
}

// NewScheduler builds a seconds-precision scheduler. Stores imported more
// recently than minAge are skipped on each run.
func NewScheduler(importer Importer, schedule string, minAge time.Duration) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		importer: importer,
		schedule: schedule,
		minAge:   minAge,
		timeout:  10 * time.Minute,
	}
}

// Start registers the nightly import and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("failed to create cron job: %w", err)
	}
	log.Printf("Cron scheduler started (schedule=%q)", s.schedule)
	s.cron.Start()
	return nil
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// RunOnce re-imports every connected store and reports how many succeeded.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log.Println("Nightly store import started...")
	start := time.Now()
	n, err := s.importer.ImportAll(ctx, s.minAge)
	if err != nil {
		log.Printf("Store import finished with errors: %v", err)
	}
	log.Printf("Nightly store import completed: imported=%d took=%s", n, time.Since(start).Round(time.Millisecond))
	return n
}
