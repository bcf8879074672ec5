// Package planner implements the daily time-allocation engine.
//
// The engine is a pure function of (profile, candidate items, reference time)
// to (schedule, metrics). Availability turns a profile into time slots,
// the scorer ranks work items, the packer places them greedily and the
// analyzer grades the result. Service wires the engine to its stores.
package planner

import (
	"fmt"

	"github.com/quantumlife/dayplan/internal/core"
)

// Distribution is a percentage split of scheduled minutes by item kind.
type Distribution struct {
	Goal float64 `json:"goal"`
	Mind float64 `json:"mind"`
	Body float64 `json:"body"`
}

func (d Distribution) share(kind core.ItemKind) float64 {
	switch kind {
	case core.KindGoal:
		return d.Goal
	case core.KindMind:
		return d.Mind
	case core.KindBody:
		return d.Body
	}
	return 0
}

// UrgencyStep raises the multiplier once a deadline is at most WithinDays away.
type UrgencyStep struct {
	WithinDays int     `json:"within_days"`
	Multiplier float64 `json:"multiplier"`
}

// Policy holds every tunable constant of the engine.
type Policy struct {
	// BufferMinutes separates consecutive items inside a slot.
	BufferMinutes int `json:"buffer_minutes"`

	// GoalBaseOffset is added to every goal score. It must exceed
	// DailyBaseWeight * MaxUrgency so any goal outranks any mind/body task.
	GoalBaseOffset float64 `json:"goal_base_offset"`

	// DailyBaseWeight is the shared base weight of mind and body tasks.
	DailyBaseWeight float64 `json:"daily_base_weight"`

	// UrgencySteps are checked in order; the first step whose WithinDays is
	// >= the days left applies. Days left <= 0 always gets MaxUrgency.
	UrgencySteps []UrgencyStep `json:"urgency_steps"`
	MaxUrgency   float64       `json:"max_urgency"`

	// Full-day waking window in local hours.
	WakeHour   int `json:"wake_hour"`
	DayEndHour int `json:"day_end_hour"`

	// Right-now mode utilization band, as fractions of the remaining slot.
	NowTargetMin float64 `json:"now_target_min"`
	NowTargetMax float64 `json:"now_target_max"`

	// Ideal split of scheduled minutes, in percent.
	Ideal Distribution `json:"ideal_distribution"`

	// ProductivityEfficiencyWeight weights efficiency against balance.
	ProductivityEfficiencyWeight float64 `json:"productivity_efficiency_weight"`
}

// DefaultPolicy returns the production constants.
func DefaultPolicy() Policy {
	return Policy{
		BufferMinutes:   10,
		GoalBaseOffset:  1000,
		DailyBaseWeight: 10,
		UrgencySteps: []UrgencyStep{
			{WithinDays: 1, Multiplier: 2.5},
			{WithinDays: 3, Multiplier: 2.0},
			{WithinDays: 7, Multiplier: 1.5},
			{WithinDays: 14, Multiplier: 1.2},
		},
		MaxUrgency:                   3.0,
		WakeHour:                     6,
		DayEndHour:                   22,
		NowTargetMin:                 0.85,
		NowTargetMax:                 0.95,
		Ideal:                        Distribution{Goal: 60, Mind: 20, Body: 20},
		ProductivityEfficiencyWeight: 0.6,
	}
}

// Validate checks the invariants the engine relies on.
func (p Policy) Validate() error {
	if p.BufferMinutes < 0 {
		return fmt.Errorf("%w: buffer_minutes must not be negative", core.ErrInvalidPolicy)
	}
	if p.DailyBaseWeight <= 0 {
		return fmt.Errorf("%w: daily_base_weight must be positive", core.ErrInvalidPolicy)
	}
	if p.MaxUrgency < 1 {
		return fmt.Errorf("%w: max_urgency must be at least 1", core.ErrInvalidPolicy)
	}
	if p.GoalBaseOffset <= p.DailyBaseWeight*p.MaxUrgency {
		return fmt.Errorf("%w: goal_base_offset %.0f does not outrank daily tasks (max %.0f)",
			core.ErrInvalidPolicy, p.GoalBaseOffset, p.DailyBaseWeight*p.MaxUrgency)
	}
	prevDays, prevMult := 0, p.MaxUrgency
	for _, s := range p.UrgencySteps {
		if s.WithinDays <= prevDays {
			return fmt.Errorf("%w: urgency steps must have increasing within_days", core.ErrInvalidPolicy)
		}
		if s.Multiplier < 1 || s.Multiplier > prevMult {
			return fmt.Errorf("%w: urgency multipliers must decrease from max_urgency towards 1", core.ErrInvalidPolicy)
		}
		prevDays, prevMult = s.WithinDays, s.Multiplier
	}
	if p.WakeHour < 0 || p.DayEndHour > 24 || p.WakeHour >= p.DayEndHour {
		return fmt.Errorf("%w: waking window %d-%d", core.ErrInvalidPolicy, p.WakeHour, p.DayEndHour)
	}
	if p.NowTargetMin <= 0 || p.NowTargetMax > 1 || p.NowTargetMin > p.NowTargetMax {
		return fmt.Errorf("%w: now utilization band %.2f-%.2f", core.ErrInvalidPolicy, p.NowTargetMin, p.NowTargetMax)
	}
	if sum := p.Ideal.Goal + p.Ideal.Mind + p.Ideal.Body; sum < 99.9 || sum > 100.1 {
		return fmt.Errorf("%w: ideal distribution sums to %.1f", core.ErrInvalidPolicy, sum)
	}
	if p.ProductivityEfficiencyWeight < 0 || p.ProductivityEfficiencyWeight > 1 {
		return fmt.Errorf("%w: productivity_efficiency_weight outside 0-1", core.ErrInvalidPolicy)
	}
	return nil
}
