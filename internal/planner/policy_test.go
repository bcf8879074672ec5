package planner

import (
	"errors"
	"testing"

	"github.com/quantumlife/dayplan/internal/core"
)

func TestDefaultPolicy_Valid(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Fatalf("DefaultPolicy().Validate() = %v", err)
	}
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *Policy)
	}{
		{"negative buffer", func(p *Policy) { p.BufferMinutes = -1 }},
		{"offset too small", func(p *Policy) { p.GoalBaseOffset = 30 }},
		{"zero daily weight", func(p *Policy) { p.DailyBaseWeight = 0 }},
		{"max urgency below one", func(p *Policy) { p.MaxUrgency = 0.5 }},
		{"steps out of order", func(p *Policy) {
			p.UrgencySteps = []UrgencyStep{{WithinDays: 7, Multiplier: 1.5}, {WithinDays: 3, Multiplier: 2}}
		}},
		{"step above max", func(p *Policy) { p.UrgencySteps = []UrgencyStep{{WithinDays: 1, Multiplier: 4}} }},
		{"inverted waking window", func(p *Policy) { p.WakeHour, p.DayEndHour = 22, 6 }},
		{"day end past midnight", func(p *Policy) { p.DayEndHour = 25 }},
		{"now band inverted", func(p *Policy) { p.NowTargetMin, p.NowTargetMax = 0.9, 0.8 }},
		{"now band above one", func(p *Policy) { p.NowTargetMax = 1.2 }},
		{"ideal not 100", func(p *Policy) { p.Ideal = Distribution{Goal: 50, Mind: 20, Body: 20} }},
		{"efficiency weight", func(p *Policy) { p.ProductivityEfficiencyWeight = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.modify(&p)
			err := p.Validate()
			if !errors.Is(err, core.ErrInvalidPolicy) {
				t.Errorf("Validate() = %v, want ErrInvalidPolicy", err)
			}
		})
	}
}

func TestDistribution_Share(t *testing.T) {
	d := Distribution{Goal: 60, Mind: 20, Body: 20}
	if d.share(core.KindGoal) != 60 || d.share(core.KindMind) != 20 || d.share(core.KindBody) != 20 {
		t.Errorf("share() = %v/%v/%v", d.share(core.KindGoal), d.share(core.KindMind), d.share(core.KindBody))
	}
	if d.share("unknown") != 0 {
		t.Error("unknown kind should be 0")
	}
}
