package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/quantumlife/dayplan/internal/core"
	"github.com/quantumlife/dayplan/internal/logging"
)

// Operation names used for logging and metrics.
const (
	OpAvailability = "availability"
	OpSchedule     = "schedule"
	OpNow          = "now"
	OpRemaining    = "remaining"
)

// Recorder observes engine runs.
type Recorder interface {
	ObserveRun(op string, elapsed time.Duration, err error)
	ObserveSchedule(op string, summary Summary, scores Scores)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRun(string, time.Duration, error) {}
func (nopRecorder) ObserveSchedule(string, Summary, Scores) {}

// ServiceConfig configures a planning service.
type ServiceConfig struct {
	Profiles ProfileSource
	Goals    TaskSource
	Mind     TaskSource
	Body     TaskSource

	Policy  Policy
	Clock   func() time.Time // Defaults to time.Now
	Metrics Recorder         // Optional
}

// Service exposes the four planning operations over the stores.
type Service struct {
	profiles   ProfileSource
	aggregator *Aggregator
	policy     Policy
	clock      func() time.Time
	metrics    Recorder
	logger     *logging.Logger
}

// NewService validates the policy and builds a service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Profiles == nil {
		return nil, fmt.Errorf("%w: profile source", core.ErrMissingRequired)
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopRecorder{}
	}
	return &Service{
		profiles:   cfg.Profiles,
		aggregator: NewAggregator(cfg.Goals, cfg.Mind, cfg.Body),
		policy:     cfg.Policy,
		clock:      cfg.Clock,
		metrics:    cfg.Metrics,
		logger:     logging.WithField("component", "planner"),
	}, nil
}

// Policy returns the active policy.
func (s *Service) Policy() Policy { return s.policy }

// GetAvailableTime reports today's slots, the time left and the weekly budget.
func (s *Service) GetAvailableTime(ctx context.Context, userID core.UserID) (report *AvailabilityReport, err error) {
	defer s.observe(OpAvailability, userID, time.Now(), &err)

	p, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	r := Availability(*p, s.clock(), s.policy)
	return &r, nil
}

// GetOptimizedSchedule plans a whole local day. An empty date means today
// in the profile's timezone.
func (s *Service) GetOptimizedSchedule(ctx context.Context, userID core.UserID, date string) (sched *Schedule, err error) {
	defer s.observe(OpSchedule, userID, time.Now(), &err)

	var requested *time.Time
	if date != "" {
		d, err := core.ParseDate(date)
		if err != nil {
			return nil, err
		}
		requested = &d
	}

	p, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	loc := p.Location()
	day := LocalDay(s.clock(), loc)
	if requested != nil {
		day = time.Date(requested.Year(), requested.Month(), requested.Day(), 0, 0, 0, 0, loc)
	}

	items, err := s.aggregator.Collect(ctx, userID, day)
	if err != nil {
		return nil, err
	}

	out := PlanDay(*p, items, day, s.policy)
	s.metrics.ObserveSchedule(OpSchedule, out.Summary, out.Scores)
	return &out, nil
}

// GetTasksRightNow plans the rest of today as tightly as the utilization band allows.
func (s *Service) GetTasksRightNow(ctx context.Context, userID core.UserID) (plan *NowPlan, err error) {
	defer s.observe(OpNow, userID, time.Now(), &err)

	p, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.clock().In(p.Location())

	items, err := s.aggregator.Collect(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	out := PlanNow(*p, items, now, s.policy)
	s.metrics.ObserveSchedule(OpNow, out.Summary, out.Scores)
	return &out, nil
}

// GetRemainingDaySchedule returns today's plan from now on and whether it still fits.
func (s *Service) GetRemainingDaySchedule(ctx context.Context, userID core.UserID) (view *RemainingView, err error) {
	defer s.observe(OpRemaining, userID, time.Now(), &err)

	p, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.clock().In(p.Location())

	items, err := s.aggregator.Collect(ctx, userID, LocalDay(now, now.Location()))
	if err != nil {
		return nil, err
	}

	out := RemainingDay(*p, items, now, s.policy)
	s.metrics.ObserveSchedule(OpRemaining, out.Summary, out.Scores)
	return &out, nil
}

func (s *Service) profile(ctx context.Context, userID core.UserID) (*core.UserProfile, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, core.ErrProfileNotFound
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) observe(op string, userID core.UserID, start time.Time, err *error) {
	elapsed := time.Since(start)
	s.metrics.ObserveRun(op, elapsed, *err)

	log := s.logger.WithFields(map[string]interface{}{
		"op":      op,
		"user":    userID,
		"elapsed": elapsed.Round(time.Microsecond),
	})
	if *err != nil {
		log.Warn("planning failed: %v", *err)
		return
	}
	log.Debug("planning done")
}
