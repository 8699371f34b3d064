package background

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

const (
	MediaSweepJob = "media-orphan-sweep"

	sweepTimeout = 5 * time.Minute
)

// MediaSweeper removes stored carousel images that no row references anymore.
type MediaSweeper interface {
	SweepOrphanedImages(ctx context.Context, grace time.Duration) (int, error)
}

type Config struct {
	SweepInterval time.Duration
	// SweepGrace protects objects uploaded moments before their row is committed.
	SweepGrace time.Duration
}

// JobScheduler runs the periodic maintenance jobs.
type JobScheduler struct {
	scheduler gocron.Scheduler
	sweeper   MediaSweeper
	cfg       Config
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
}

// NewJobScheduler creates the scheduler and registers the built in jobs. A
// zero SweepInterval disables the media sweep.
func NewJobScheduler(sweeper MediaSweeper, cfg Config) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		sweeper:   sweeper,
		cfg:       cfg,
		jobs:      make(map[string]gocron.Job),
	}

	if err := js.registerJobs(); err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	log.Info().Int("jobs", len(js.jobs)).Msg("starting background job scheduler")
	js.scheduler.Start()
}

// Stop waits for running jobs to finish.
func (js *JobScheduler) Stop() error {
	log.Info().Msg("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() error {
	if js.sweeper == nil || js.cfg.SweepInterval <= 0 {
		log.Info().Msg("media sweep disabled")
		return nil
	}

	return js.AddJob(MediaSweepJob, js.cfg.SweepInterval, js.sweepMedia)
}

func (js *JobScheduler) sweepMedia() error {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	start := time.Now()
	removed, err := js.sweeper.SweepOrphanedImages(ctx, js.cfg.SweepGrace)
	if err != nil {
		log.Error().Err(err).Str("job", MediaSweepJob).Msg("media sweep failed")
		return err
	}

	log.Info().
		Str("job", MediaSweepJob).
		Int("removed", removed).
		Dur("took", time.Since(start)).
		Msg("media sweep completed")
	return nil
}

// AddJob schedules taskFn every interval. Runs never overlap.
func (js *JobScheduler) AddJob(name string, interval time.Duration, taskFn interface{}, params ...interface{}) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	if _, exists := js.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(taskFn, params...),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("create job %s: %w", name, err)
	}

	js.jobs[name] = job
	log.Debug().Str("job", name).Dur("interval", interval).Msg("registered background job")
	return nil
}

// RemoveJob removes a job from the scheduler
func (js *JobScheduler) RemoveJob(name string) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobs[name]; exists {
		err := js.scheduler.RemoveJob(job.ID())
		delete(js.jobs, name)
		return err
	}

	return nil
}

// RunNow triggers a registered job outside its schedule.
func (js *JobScheduler) RunNow(name string) error {
	js.mu.RLock()
	job, exists := js.jobs[name]
	js.mu.RUnlock()

	if !exists {
		return fmt.Errorf("job %s not registered", name)
	}
	return job.RunNow()
}

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	return map[string]interface{}{
		"total_jobs": len(js.jobs),
		"jobs":       names,
	}
}
