package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-bulletin/internal/bulletin"
)

const (
	// DefaultCron sends the bulletin every day at 07:00 local time.
	DefaultCron = "0 7 * * *"
	// DefaultRunTimeout bounds one bulletin run.
	DefaultRunTimeout = 60 * time.Second
)

// Runner is satisfied by *bulletin.Job.
type Runner interface {
	Run(ctx context.Context) (bulletin.Result, error)
}

// Scheduler fires the bulletin on a cron expression in a fixed zone.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	cron      string
	timeout   time.Duration
}

// New creates a new Scheduler. An empty expression uses DefaultCron.
func New(runner Runner, cron string, zone *time.Location, timeout time.Duration) *Scheduler {
	if cron == "" {
		cron = DefaultCron
	}
	if zone == nil {
		zone = time.UTC
	}
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(zone),
		runner:    runner,
		cron:      cron,
		timeout:   timeout,
	}
}

// Every adds a housekeeping task run at a fixed interval. It must be called
// before Start.
func (s *Scheduler) Every(interval time.Duration, name string, task func()) error {
	if interval <= 0 {
		return fmt.Errorf("scheduler: invalid interval %s for %s", interval, name)
	}
	_, err := s.scheduler.Every(interval).WaitForSchedule().SingletonMode().Do(func() {
		log.Printf("scheduler: running %s", name)
		task()
	})
	return err
}

// Start schedules the bulletin job and starts the underlying scheduler.
// A run still in progress when the next one is due is not overlapped.
func (s *Scheduler) Start() error {
	if s.runner == nil {
		log.Println("scheduler: no bulletin configured; only housekeeping is scheduled")
		s.scheduler.StartAsync()
		return nil
	}

	job, err := s.scheduler.Cron(s.cron).SingletonMode().Do(s.runOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	log.Printf("INFO: scheduler: bulletin scheduled with %q, next run at %s", s.cron, job.NextRun().Format(time.RFC3339))
	return nil
}

func (s *Scheduler) runOnce() {
	log.Println("scheduler: running bulletin job")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	res, err := s.runner.Run(ctx)
	if err != nil {
		log.Printf("scheduler: bulletin failed: %v", err)
		return
	}
	for _, derr := range res.DeliveryErrs {
		log.Printf("scheduler: bulletin delivery error: %v", derr)
	}
	log.Println("scheduler: completed bulletin job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
