package planner

import (
	"fmt"
	"time"

	"github.com/quantumlife/dayplan/internal/core"
)

// PlanDay runs the full-day pipeline for the local day containing day.
func PlanDay(p core.UserProfile, items []core.WorkItem, day time.Time, pol Policy) Schedule {
	loc := p.Location()
	day = LocalDay(day, loc)

	slots := FullDaySlots(p, day, pol)
	scored := ScoreAll(items, day, pol)
	packed := Pack(slots, scored, PackOptions{
		BufferMinutes: pol.BufferMinutes,
		DayBudget:     Budget(p, day).ProductiveMinutes,
	})

	sched := assemble(ModeFullDay, day, loc, packed, pol)
	switch {
	case sched.Summary.TotalMinutesAvailable == 0:
		sched.Message = fmt.Sprintf("No available time on %s", sched.Date)
	case len(items) == 0:
		sched.Message = fmt.Sprintf("Nothing pending for %s", sched.Date)
	case sched.Summary.UnscheduledTasks > 0:
		sched.Message = fmt.Sprintf("%d tasks did not fit and were left for another day", sched.Summary.UnscheduledTasks)
	}
	return sched
}

// PlanNow packs the time left until local midnight as tightly as the
// utilization band allows: goals first, then mind, then body tasks.
func PlanNow(p core.UserProfile, items []core.WorkItem, now time.Time, pol Policy) NowPlan {
	loc := p.Location()
	now = now.In(loc)
	day := LocalDay(now, loc)

	slot := RemainingSlot(p, now)
	scored := ScoreAll(items, day, pol)
	SortByKindThenPriority(scored)
	packed := Pack([]TimeSlot{slot}, scored, PackOptions{
		BufferMinutes:  pol.BufferMinutes,
		CapacityFactor: pol.NowTargetMax,
		StopWhenFull:   true,
	})

	plan := NowPlan{
		Schedule:            assemble(ModeRightNow, day, loc, packed, pol),
		GoalTasks:           []ScheduledItem{},
		MindTasks:           []ScheduledItem{},
		BodyTasks:           []ScheduledItem{},
		TargetMinPercentage: round1(pol.NowTargetMin * 100),
		TargetMaxPercentage: round1(pol.NowTargetMax * 100),
	}
	for _, item := range plan.Items() {
		switch item.Kind {
		case core.KindGoal:
			plan.GoalTasks = append(plan.GoalTasks, item)
		case core.KindMind:
			plan.MindTasks = append(plan.MindTasks, item)
		case core.KindBody:
			plan.BodyTasks = append(plan.BodyTasks, item)
		}
	}
	plan.UtilizationPercentage = plan.Summary.EfficiencyPercentage
	plan.SummaryMessage = nowMessage(plan, slot, len(items))
	plan.Message = plan.SummaryMessage
	return plan
}

// RemainingDay re-runs today's full-day plan and keeps what starts at or after now.
func RemainingDay(p core.UserProfile, items []core.WorkItem, now time.Time, pol Policy) RemainingView {
	loc := p.Location()
	now = now.In(loc)
	sched := PlanDay(p, items, now, pol)

	view := RemainingView{
		Date:        sched.Date,
		Timezone:    sched.Timezone,
		Now:         now,
		Items:       []ScheduledItem{},
		Unscheduled: sched.Unscheduled,
		Summary:     sched.Summary,
		Scores:      sched.Scores,
	}

	for _, slot := range sched.Slots {
		for _, item := range slot.Items {
			if item.StartTime.Before(now) {
				view.ElapsedItems++
				continue
			}
			view.Items = append(view.Items, item)
		}

		from := slot.Start
		if now.After(from) {
			from = now
		}
		left := 0
		if slot.End.After(from) {
			left = int(slot.End.Sub(from) / time.Minute)
		}
		if left > slot.AvailableMinutes {
			left = slot.AvailableMinutes
		}
		view.RemainingMinutes += left
	}

	n := len(view.Items) + len(view.Unscheduled)
	for _, item := range view.Items {
		view.RequiredMinutes += item.Minutes
	}
	for _, item := range view.Unscheduled {
		view.RequiredMinutes += item.Minutes
	}
	if n > 1 {
		view.RequiredMinutes += (n - 1) * pol.BufferMinutes
	}

	view.CanCompleteAll = view.RequiredMinutes <= view.RemainingMinutes
	if view.RequiredMinutes == 0 {
		view.CompletionPercentage = 100
	} else {
		covered := view.RequiredMinutes
		if view.RemainingMinutes < covered {
			covered = view.RemainingMinutes
		}
		view.CompletionPercentage = round1(100 * float64(covered) / float64(view.RequiredMinutes))
	}

	if !view.CanCompleteAll {
		view.Message = fmt.Sprintf("%d min of work left but only %d min available today",
			view.RequiredMinutes, view.RemainingMinutes)
	}
	return view
}

func assemble(mode Mode, day time.Time, loc *time.Location, packed Packed, pol Policy) Schedule {
	analysis := Analyze(packed, pol)
	return Schedule{
		Date:         day.Format(core.DateLayout),
		Timezone:     loc.String(),
		Mode:         mode,
		Slots:        packed.Slots,
		Unscheduled:  packed.Unscheduled,
		Summary:      analysis.Summary,
		Distribution: analysis.Distribution,
		Scores:       analysis.Scores,
	}
}

func nowMessage(plan NowPlan, slot TimeSlot, candidates int) string {
	left := formatMinutes(slot.AvailableMinutes)
	switch {
	case slot.AvailableMinutes == 0:
		return "No available time left today"
	case candidates == 0:
		return fmt.Sprintf("Nothing pending. You have %s free today", left)
	case plan.Summary.TotalTasksScheduled == 0:
		return fmt.Sprintf("%d pending tasks but none fit in the %s left today", candidates, left)
	}

	msg := fmt.Sprintf("%d tasks for the next %s: %d goal, %d mind, %d body (%.1f%% planned)",
		plan.Summary.TotalTasksScheduled, left,
		len(plan.GoalTasks), len(plan.MindTasks), len(plan.BodyTasks),
		plan.UtilizationPercentage)
	if plan.UtilizationPercentage < plan.TargetMinPercentage {
		msg += fmt.Sprintf(", below the %.0f-%.0f%% target", plan.TargetMinPercentage, plan.TargetMaxPercentage)
	}
	return msg
}

func formatMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", m/60, m%60)
}
