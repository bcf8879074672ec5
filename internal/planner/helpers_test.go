package planner

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/quantumlife/dayplan/internal/core"
)

// Wednesday 2025-03-12 and Saturday 2025-03-15, UTC.
var (
	wednesday = time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	saturday  = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
)

func officeProfile() core.UserProfile {
	return core.UserProfile{
		UserID:               "user-1",
		Timezone:             "UTC",
		WorkSchedule:         core.WorkSchedule{Start: core.ClockTime{Hour: 9}, End: core.ClockTime{Hour: 17}},
		DayWork:              core.WorkWeek,
		HoursAvailableToWeek: 20,
		HoursUsedToWeek:      5,
		TimeDead:             9,
	}
}

func goalItem(id string, minutes, weight int, deadline *time.Time) core.WorkItem {
	return core.WorkItem{
		ID:      id,
		Kind:    core.KindGoal,
		Title:   "goal task " + id,
		Minutes: minutes,
		Status:  core.TaskStatusPending,
		Goal: &core.GoalInfo{
			GoalID:    "g-" + id,
			GoalTitle: "goal " + id,
			Deadline:  deadline,
			Weight:    weight,
			Active:    true,
		},
	}
}

func dailyItem(id string, kind core.ItemKind, minutes int) core.WorkItem {
	return core.WorkItem{
		ID:      id,
		Kind:    kind,
		Title:   string(kind) + " task " + id,
		Minutes: minutes,
		Status:  core.TaskStatusPending,
	}
}

func dateAfter(day time.Time, days int) *time.Time {
	d := day.AddDate(0, 0, days)
	return &d
}

// scenarioItems is one goal due in two days, two mind and two body tasks.
func scenarioItems(day time.Time) []core.WorkItem {
	return []core.WorkItem{
		goalItem("goal-1", 60, core.DefaultGoalTaskWeight, dateAfter(day, 2)),
		dailyItem("mind-1", core.KindMind, 30),
		dailyItem("mind-2", core.KindMind, 30),
		dailyItem("body-1", core.KindBody, 45),
		dailyItem("body-2", core.KindBody, 45),
	}
}

func randomItems(r *rand.Rand, day time.Time) []core.WorkItem {
	n := r.Intn(15)
	items := make([]core.WorkItem, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("item-%02d", i)
		minutes := 5 + r.Intn(120)
		switch r.Intn(3) {
		case 0:
			var deadline *time.Time
			if r.Intn(4) > 0 {
				deadline = dateAfter(day, r.Intn(30)-5)
			}
			items = append(items, goalItem(id, minutes, r.Intn(300)-20, deadline))
		case 1:
			items = append(items, dailyItem(id, core.KindMind, minutes))
		default:
			items = append(items, dailyItem(id, core.KindBody, minutes))
		}
	}
	return items
}

func randomProfile(r *rand.Rand) core.UserProfile {
	p := officeProfile()
	p.TimeDead = float64(r.Intn(25))
	start := 6 + r.Intn(6)
	p.WorkSchedule = core.WorkSchedule{
		Start: core.ClockTime{Hour: start},
		End:   core.ClockTime{Hour: start + r.Intn(10), Minute: 30 * r.Intn(2)},
	}
	if !p.WorkSchedule.Valid() {
		p.WorkSchedule.End = core.ClockTime{Hour: start + 1}
	}
	return p
}

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func assertSlotInvariants(t *testing.T, sched Schedule, buffer int) {
	t.Helper()
	for _, slot := range sched.Slots {
		if slot.ScheduledMinutes > slot.AvailableMinutes {
			t.Errorf("slot %s scheduled %d > available %d", slot.Label, slot.ScheduledMinutes, slot.AvailableMinutes)
		}
		for i := 1; i < len(slot.Items); i++ {
			prev, cur := slot.Items[i-1], slot.Items[i]
			if prev.EndTime.Add(time.Duration(buffer) * time.Minute).After(cur.StartTime) {
				t.Errorf("slot %s: %s ends %s, %s starts %s (buffer %d)",
					slot.Label, prev.ID, prev.EndTime.Format("15:04"), cur.ID, cur.StartTime.Format("15:04"), buffer)
			}
		}
		for _, item := range slot.Items {
			if item.StartTime.Before(slot.Start) || item.EndTime.After(slot.End) {
				t.Errorf("slot %s: %s at %s-%s outside slot %s-%s", slot.Label, item.ID,
					item.StartTime.Format("15:04"), item.EndTime.Format("15:04"),
					slot.Start.Format("15:04"), slot.End.Format("15:04"))
			}
		}
	}
}
