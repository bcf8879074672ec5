package planner

import (
	"sort"
	"time"

	"github.com/quantumlife/dayplan/internal/core"
)

// DaysUntil counts calendar days from day to deadline. Negative when overdue.
func DaysUntil(deadline, day time.Time) int {
	d := time.Date(deadline.Year(), deadline.Month(), deadline.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(t).Hours() / 24)
}

// Urgency maps days left to a multiplier in [1, MaxUrgency].
// The curve is a step function: due today or overdue saturates at
// MaxUrgency, then each step applies up to its WithinDays, and anything
// further out (or without a deadline) is 1.
func (p Policy) Urgency(daysLeft *int) float64 {
	if daysLeft == nil {
		return 1
	}
	if *daysLeft <= 0 {
		return p.MaxUrgency
	}
	for _, s := range p.UrgencySteps {
		if *daysLeft <= s.WithinDays {
			return s.Multiplier
		}
	}
	return 1
}

// Score ranks a single work item as of the target day.
func Score(item core.WorkItem, day time.Time, pol Policy) ScoredItem {
	scored := ScoredItem{WorkItem: item, UrgencyMultiplier: 1}

	if item.Kind != core.KindGoal || item.Goal == nil {
		scored.PriorityScore = pol.DailyBaseWeight * scored.UrgencyMultiplier
		return scored
	}

	if item.Goal.Deadline != nil {
		days := DaysUntil(*item.Goal.Deadline, day)
		scored.DaysUntilDeadline = &days
	}
	scored.UrgencyMultiplier = pol.Urgency(scored.DaysUntilDeadline)

	weight := item.Goal.Weight
	if weight < 0 {
		weight = 0
	}
	scored.PriorityScore = float64(weight)*scored.UrgencyMultiplier + pol.GoalBaseOffset
	return scored
}

// ScoreAll scores every item and returns them in placement order.
func ScoreAll(items []core.WorkItem, day time.Time, pol Policy) []ScoredItem {
	scored := make([]ScoredItem, 0, len(items))
	for _, item := range items {
		scored = append(scored, Score(item, day, pol))
	}
	SortByPriority(scored)
	return scored
}

// SortByPriority orders by score descending, then shorter duration, then id.
func SortByPriority(items []ScoredItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return priorityLess(items[i], items[j])
	})
}

// SortByKindThenPriority orders goal, mind, body, and by priority within a kind.
func SortByKindThenPriority(items []ScoredItem) {
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := kindRank(items[i].Kind), kindRank(items[j].Kind)
		if ri != rj {
			return ri < rj
		}
		return priorityLess(items[i], items[j])
	})
}

func priorityLess(a, b ScoredItem) bool {
	if a.PriorityScore != b.PriorityScore {
		return a.PriorityScore > b.PriorityScore
	}
	if a.Minutes != b.Minutes {
		return a.Minutes < b.Minutes
	}
	return a.ID < b.ID
}

func kindRank(k core.ItemKind) int {
	for i, kind := range core.Kinds {
		if kind == k {
			return i
		}
	}
	return len(core.Kinds)
}
