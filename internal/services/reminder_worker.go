package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DueDispatcher runs one dispatch tick
type DueDispatcher interface {
	DispatchDue(ctx context.Context) (DispatchSummary, error)
}

// ReminderWorker runs the dispatcher on a cron schedule. A tick still running when
// the next one is due makes the next one skip.
type ReminderWorker struct {
	dispatcher DueDispatcher
	schedule   string
	cron       *cron.Cron
	stopOnce   sync.Once
}

// NewReminderWorker creates a worker for schedule, e.g. "@every 1m" or "*/5 * * * *"
func NewReminderWorker(dispatcher DueDispatcher, schedule string) *ReminderWorker {
	return &ReminderWorker{
		dispatcher: dispatcher,
		schedule:   schedule,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
	}
}

// Start registers the tick and starts the scheduler. The worker stops when ctx is done.
func (w *ReminderWorker) Start(ctx context.Context) error {
	if _, err := w.cron.AddFunc(w.schedule, func() { w.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid dispatch schedule %q: %w", w.schedule, err)
	}
	w.cron.Start()
	log.Printf("reminder worker: started with schedule %q", w.schedule)

	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	return nil
}

// Stop stops scheduling and waits for a running tick to finish
func (w *ReminderWorker) Stop() {
	w.stopOnce.Do(func() {
		<-w.cron.Stop().Done()
		log.Printf("reminder worker: stopped")
	})
}

// RunOnce runs a single tick and logs its summary
func (w *ReminderWorker) RunOnce(ctx context.Context) DispatchSummary {
	summary, err := w.dispatcher.DispatchDue(ctx)
	if err != nil {
		log.Printf("reminder worker: tick abandoned: %v", err)
		return summary
	}
	if summary.Processed > 0 {
		log.Printf("reminder worker: processed=%d sent=%d failed=%d skipped=%d",
			summary.Processed, summary.Sent, summary.Failed, summary.Skipped)
	}
	return summary
}
