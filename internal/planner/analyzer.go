package planner

import (
	"math"

	"github.com/quantumlife/dayplan/internal/core"
)

// Analysis bundles the analyzer outputs.
type Analysis struct {
	Summary      Summary
	Distribution DistributionAnalysis
	Scores       Scores
}

// Analyze grades a packed schedule.
func Analyze(packed Packed, pol Policy) Analysis {
	var sum Summary
	for _, slot := range packed.Slots {
		sum.TotalMinutesAvailable += slot.AvailableMinutes
		for _, item := range slot.Items {
			sum.TotalTasksScheduled++
			sum.TotalMinutesScheduled += item.Minutes
			switch item.Kind {
			case core.KindGoal:
				sum.GoalTasks++
				sum.GoalMinutes += item.Minutes
			case core.KindMind:
				sum.MindTasks++
				sum.MindMinutes += item.Minutes
			case core.KindBody:
				sum.BodyTasks++
				sum.BodyMinutes += item.Minutes
			}
		}
	}
	sum.UnscheduledTasks = len(packed.Unscheduled)
	sum.EfficiencyPercentage = Efficiency(sum.TotalMinutesScheduled, sum.TotalMinutesAvailable)

	dist := distribution(sum, pol.Ideal)

	w := pol.ProductivityEfficiencyWeight
	return Analysis{
		Summary:      sum,
		Distribution: dist,
		Scores: Scores{
			EfficiencyScore:   sum.EfficiencyPercentage,
			BalanceScore:      dist.BalanceScore,
			ProductivityScore: round1(w*sum.EfficiencyPercentage + (1-w)*dist.BalanceScore),
		},
	}
}

// Efficiency is the scheduled share of available minutes, 0-100, one decimal.
func Efficiency(scheduled, available int) float64 {
	if available <= 0 {
		return 0
	}
	return clamp(round1(100*float64(scheduled)/float64(available)), 0, 100)
}

func distribution(sum Summary, ideal Distribution) DistributionAnalysis {
	var actual Distribution
	if total := float64(sum.TotalMinutesScheduled); total > 0 {
		actual = Distribution{
			Goal: round1(100 * float64(sum.GoalMinutes) / total),
			Mind: round1(100 * float64(sum.MindMinutes) / total),
			Body: round1(100 * float64(sum.BodyMinutes) / total),
		}
	}

	gap := func(kind core.ItemKind) float64 {
		return round1(math.Abs(actual.share(kind) - ideal.share(kind)))
	}
	dev := Distribution{
		Goal: gap(core.KindGoal),
		Mind: gap(core.KindMind),
		Body: gap(core.KindBody),
	}

	return DistributionAnalysis{
		Actual:       actual,
		Ideal:        ideal,
		Deviation:    dev,
		BalanceScore: clamp(round1(100-(dev.Goal+dev.Mind+dev.Body)/2), 0, 100),
	}
}
