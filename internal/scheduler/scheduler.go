// Package scheduler runs background jobs on interval, daily, weekly or
// one-shot schedules.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/quantumlife/dayplan/internal/core"
	"github.com/quantumlife/dayplan/internal/logging"
)

// Observer is told about every finished job run.
type Observer interface {
	ObserveJob(job string, err error)
}

// Scheduler manages scheduled jobs
type Scheduler struct {
	jobs     map[string]*Job
	running  map[string]context.CancelFunc
	mu       sync.RWMutex
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	timezone *time.Location
	observer Observer
	logger   *logging.Logger
}

// Config configures the scheduler
type Config struct {
	Timezone string   // Timezone for daily and weekly schedules (default: Local)
	Observer Observer // Optional
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Timezone: "Local",
	}
}

// NewScheduler creates a new scheduler. An unknown timezone falls back to Local.
func NewScheduler(cfg Config) *Scheduler {
	tz, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logging.WithField("timezone", cfg.Timezone).Warn("Unknown scheduler timezone, using Local")
		tz = time.Local
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		jobs:     make(map[string]*Job),
		running:  make(map[string]context.CancelFunc),
		ctx:      ctx,
		cancel:   cancel,
		timezone: tz,
		observer: cfg.Observer,
		logger:   logging.Default().WithField("component", "scheduler"),
	}
}

// Job is a unit of background work
type Job struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Schedule    Schedule      `json:"schedule"`
	Handler     Handler       `json:"-"`
	Enabled     bool          `json:"enabled"`
	LastRun     *time.Time    `json:"last_run,omitempty"`
	NextRun     *time.Time    `json:"next_run,omitempty"`
	RunCount    int64         `json:"run_count"`
	ErrorCount  int64         `json:"error_count"`
	LastError   string        `json:"last_error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	Timeout     time.Duration `json:"timeout"`
}

// Handler is the function executed for a job
type Handler func(ctx context.Context) error

// Schedule defines when a job runs
type Schedule struct {
	Type     ScheduleType   `json:"type"`
	Interval time.Duration  `json:"interval,omitempty"` // For interval schedules
	At       string         `json:"at,omitempty"`       // "HH:MM" for daily/weekly, RFC3339 for once
	Days     []time.Weekday `json:"days,omitempty"`     // For weekly schedules
}

// ScheduleType represents the type of schedule
type ScheduleType string

const (
	ScheduleInterval ScheduleType = "interval" // Run every X duration
	ScheduleDaily    ScheduleType = "daily"    // Run at specific time daily
	ScheduleWeekly   ScheduleType = "weekly"   // Run on specific days
	ScheduleOnce     ScheduleType = "once"     // Run once at specific time
)

// DefaultTimeout bounds a job run when the job sets none.
const DefaultTimeout = 5 * time.Minute

// Register adds a job to the scheduler
func (s *Scheduler) Register(job *Job) error {
	if job.ID == "" {
		return fmt.Errorf("%w: job ID", core.ErrMissingRequired)
	}
	if job.Handler == nil {
		return fmt.Errorf("%w: job handler", core.ErrMissingRequired)
	}
	if job.Schedule.Type == ScheduleInterval && job.Schedule.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", core.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if job.Timeout == 0 {
		job.Timeout = DefaultTimeout
	}
	job.CreatedAt = time.Now()
	job.Enabled = true

	next := nextRun(job.Schedule, time.Now().In(s.timezone))
	job.NextRun = &next

	if cancel, ok := s.running[job.ID]; ok {
		cancel()
		delete(s.running, job.ID)
	}
	s.jobs[job.ID] = job

	if s.started {
		s.startJob(job)
	}
	return nil
}

// Unregister removes a job from the scheduler
func (s *Scheduler) Unregister(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cancel, ok := s.running[jobID]; ok {
		cancel()
		delete(s.running, jobID)
	}

	delete(s.jobs, jobID)
	return nil
}

// Enable enables a job
func (s *Scheduler) Enable(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("%w: job %s", core.ErrRecordNotFound, jobID)
	}

	job.Enabled = true
	if _, running := s.running[jobID]; s.started && !running {
		s.startJob(job)
	}
	return nil
}

// Disable disables a job
func (s *Scheduler) Disable(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("%w: job %s", core.ErrRecordNotFound, jobID)
	}

	job.Enabled = false
	if cancel, ok := s.running[jobID]; ok {
		cancel()
		delete(s.running, jobID)
	}
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	s.started = true

	for _, job := range s.jobs {
		if job.Enabled {
			s.startJob(job)
		}
	}

	s.logger.WithField("jobs", len(s.running)).Info("Scheduler started")
	return nil
}

// Stop cancels every job loop and waits for in-flight runs to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}

	s.cancel()
	for _, cancel := range s.running {
		cancel()
	}
	s.running = make(map[string]context.CancelFunc)
	s.started = false

	// Create new context for potential restart
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	// Runs take the lock to record results, so wait outside it.
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
	return nil
}

// startJob starts a single job's loop. Caller holds s.mu.
func (s *Scheduler) startJob(job *Job) {
	jobCtx, cancel := context.WithCancel(s.ctx)
	s.running[job.ID] = cancel

	s.wg.Add(1)
	go s.runLoop(jobCtx, job)
}

func (s *Scheduler) runLoop(ctx context.Context, job *Job) {
	defer s.wg.Done()

	for {
		s.mu.RLock()
		var wait time.Duration
		if job.NextRun != nil {
			wait = time.Until(*job.NextRun)
		} else {
			wait = time.Until(nextRun(job.Schedule, time.Now().In(s.timezone)))
		}
		once := job.Schedule.Type == ScheduleOnce
		s.mu.RUnlock()

		if wait < 0 {
			wait = 0
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.execute(ctx, job)
		}

		if once {
			return
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, job *Job) {
	s.mu.Lock()
	now := time.Now()
	job.LastRun = &now
	job.RunCount++
	timeout := job.Timeout
	handler := job.Handler
	s.mu.Unlock()

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := handler(execCtx)

	s.mu.Lock()
	if err != nil {
		job.ErrorCount++
		job.LastError = err.Error()
	} else {
		job.LastError = ""
	}
	next := nextRun(job.Schedule, time.Now().In(s.timezone))
	job.NextRun = &next
	s.mu.Unlock()

	log := s.logger.WithFields(map[string]interface{}{
		"job":      job.ID,
		"elapsed":  time.Since(now).Round(time.Millisecond),
		"next_run": next.Format(time.RFC3339),
	})
	if err != nil {
		log.WithField("error", err).Warn("Job failed")
	} else {
		log.Debug("Job finished")
	}

	if s.observer != nil {
		s.observer.ObserveJob(job.ID, err)
	}
}

// nextRun returns the first run strictly after now. now carries the
// scheduler's timezone.
func nextRun(schedule Schedule, now time.Time) time.Time {
	switch schedule.Type {
	case ScheduleInterval:
		return now.Add(schedule.Interval)

	case ScheduleDaily:
		next := runClock(schedule.At).On(now)
		if !next.After(now) {
			next = runClock(schedule.At).On(now.AddDate(0, 0, 1))
		}
		return next

	case ScheduleWeekly:
		clock := runClock(schedule.At)
		for i := 0; i <= 7; i++ {
			candidate := clock.On(now.AddDate(0, 0, i))
			for _, day := range schedule.Days {
				if candidate.Weekday() == day && candidate.After(now) {
					return candidate
				}
			}
		}
		// No days configured
		return clock.On(now.AddDate(0, 0, 7))

	case ScheduleOnce:
		t, err := time.Parse(time.RFC3339, schedule.At)
		if err != nil {
			return now.Add(time.Minute)
		}
		return t

	default:
		return now.Add(time.Hour)
	}
}

// runClock parses "HH:MM", defaulting to 08:00.
func runClock(at string) core.ClockTime {
	c, err := core.ParseClockTime(at)
	if err != nil {
		return core.ClockTime{Hour: 8}
	}
	return c
}

// RunNow executes a job immediately in the background
func (s *Scheduler) RunNow(jobID string) error {
	s.mu.RLock()
	job, ok := s.jobs[jobID]
	ctx := s.ctx
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: job %s", core.ErrRecordNotFound, jobID)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(ctx, job)
	}()
	return nil
}

// GetJob returns a copy of a job by ID
func (s *Scheduler) GetJob(jobID string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// ListJobs returns copies of all jobs ordered by ID
func (s *Scheduler) ListJobs() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, *job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })
	return jobs
}

// GetStats returns scheduler statistics
func (s *Scheduler) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Started:     s.started,
		TotalJobs:   len(s.jobs),
		RunningJobs: len(s.running),
		Timezone:    s.timezone.String(),
	}

	for _, job := range s.jobs {
		if job.Enabled {
			stats.EnabledJobs++
		}
		stats.TotalRuns += job.RunCount
		stats.TotalErrors += job.ErrorCount
	}
	return stats
}

// Stats contains scheduler statistics
type Stats struct {
	Started     bool   `json:"started"`
	TotalJobs   int    `json:"total_jobs"`
	EnabledJobs int    `json:"enabled_jobs"`
	RunningJobs int    `json:"running_jobs"`
	TotalRuns   int64  `json:"total_runs"`
	TotalErrors int64  `json:"total_errors"`
	Timezone    string `json:"timezone"`
}

// Builder provides a fluent API for building jobs
type Builder struct {
	job *Job
}

// NewJob creates a new job builder
func NewJob(id string) *Builder {
	return &Builder{
		job: &Job{
			ID:      id,
			Timeout: DefaultTimeout,
		},
	}
}

// Name sets the job name
func (b *Builder) Name(name string) *Builder {
	b.job.Name = name
	return b
}

// Description sets the job description
func (b *Builder) Description(desc string) *Builder {
	b.job.Description = desc
	return b
}

// Every sets an interval schedule
func (b *Builder) Every(interval time.Duration) *Builder {
	b.job.Schedule = Schedule{Type: ScheduleInterval, Interval: interval}
	return b
}

// Daily sets a daily schedule
func (b *Builder) Daily(at string) *Builder {
	b.job.Schedule = Schedule{Type: ScheduleDaily, At: at}
	return b
}

// Weekly sets a weekly schedule
func (b *Builder) Weekly(at string, days ...time.Weekday) *Builder {
	b.job.Schedule = Schedule{Type: ScheduleWeekly, At: at, Days: days}
	return b
}

// Once sets a one-time schedule
func (b *Builder) Once(at time.Time) *Builder {
	b.job.Schedule = Schedule{Type: ScheduleOnce, At: at.Format(time.RFC3339)}
	return b
}

// Timeout sets the job timeout
func (b *Builder) Timeout(timeout time.Duration) *Builder {
	b.job.Timeout = timeout
	return b
}

// Handler sets the job handler
func (b *Builder) Handler(handler Handler) *Builder {
	b.job.Handler = handler
	return b
}

// Build returns the constructed job
func (b *Builder) Build() *Job {
	return b.job
}
