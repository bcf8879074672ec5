package planner

import (
	"math"
	"time"

	"github.com/quantumlife/dayplan/internal/core"
)

// LocalDay returns midnight of t's calendar day in loc.
func LocalDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// IsWorkingDay reports whether the profile's work interval applies on day.
func IsWorkingDay(p core.UserProfile, day time.Time) bool {
	return p.DayWork.Has(day.Weekday())
}

// WakingHours is 24 minus the dead time, clamped to 0-24.
func WakingHours(p core.UserProfile) float64 {
	return clamp(24-p.TimeDead, 0, 24)
}

// WorkHours is the work interval length on a working day, else 0.
func WorkHours(p core.UserProfile, day time.Time) float64 {
	if !IsWorkingDay(p, day) {
		return 0
	}
	return p.WorkSchedule.Hours()
}

// Budget computes the day's time breakdown.
func Budget(p core.UserProfile, day time.Time) DayBudget {
	waking := WakingHours(p)
	work := WorkHours(p, day)
	productive := math.Max(0, waking-work)
	return DayBudget{
		Date:              day.Format(core.DateLayout),
		WorkingDay:        IsWorkingDay(p, day),
		WakingHours:       waking,
		WorkHours:         work,
		DeadHours:         24 - waking,
		ProductiveHours:   round1(productive),
		ProductiveMinutes: int(math.Round(productive * 60)),
	}
}

// FullDaySlots derives the morning and evening slots for a local day.
//
// Morning runs from wake time to work start and evening from work end to
// day end. On a non-working day the work interval collapses to its midpoint
// so the two slots cover the whole waking window. Every slot is capped by
// the day's productive minutes.
func FullDaySlots(p core.UserProfile, day time.Time, pol Policy) []TimeSlot {
	budget := Budget(p, day)
	wake := atHour(day, pol.WakeHour)
	end := atHour(day, pol.DayEndHour)

	var morningEnd, eveningStart time.Time
	switch {
	case budget.WorkingDay && !p.WorkSchedule.IsEmpty():
		morningEnd = clampTime(p.WorkSchedule.Start.On(day), wake, end)
		eveningStart = clampTime(p.WorkSchedule.End.On(day), wake, end)
	case !p.WorkSchedule.IsEmpty():
		start := p.WorkSchedule.Start.On(day)
		mid := start.Add(p.WorkSchedule.End.On(day).Sub(start) / 2)
		morningEnd = clampTime(mid, wake, end)
		eveningStart = morningEnd
	default:
		morningEnd = wake.Add(end.Sub(wake) / 2)
		eveningStart = morningEnd
	}

	return []TimeSlot{
		newSlot(SlotMorning, wake, morningEnd, budget.ProductiveMinutes),
		newSlot(SlotEvening, eveningStart, end, budget.ProductiveMinutes),
	}
}

// RemainingSlot derives the single slot from now to local midnight.
// Capacity is capped by waking hours minus the work still ahead today.
func RemainingSlot(p core.UserProfile, now time.Time) TimeSlot {
	loc := p.Location()
	now = now.In(loc).Truncate(time.Minute)
	day := LocalDay(now, loc)
	midnight := time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, loc)

	var workLeft time.Duration
	if IsWorkingDay(p, day) && !p.WorkSchedule.IsEmpty() {
		workLeft = overlap(now, midnight, p.WorkSchedule.Start.On(day), p.WorkSchedule.End.On(day))
	}
	ceiling := int(math.Round(math.Max(0, WakingHours(p)-workLeft.Hours()) * 60))

	return newSlot(SlotRemaining, now, midnight, ceiling)
}

// Weekly computes the weekly cap bookkeeping as of day.
func Weekly(p core.UserProfile, day time.Time) WeeklyBudget {
	remaining := math.Max(0, p.HoursAvailableToWeek-p.HoursUsedToWeek)
	daysLeft := (7-int(day.Weekday()))%7 + 1 // today through Sunday
	return WeeklyBudget{
		HoursAvailable:       p.HoursAvailableToWeek,
		HoursUsed:            p.HoursUsedToWeek,
		HoursRemaining:       round1(remaining),
		DaysRemaining:        daysLeft,
		SuggestedHoursPerDay: round1(remaining / float64(daysLeft)),
	}
}

// Availability builds the full availability report for now's local day.
func Availability(p core.UserProfile, now time.Time, pol Policy) AvailabilityReport {
	loc := p.Location()
	now = now.In(loc)
	day := LocalDay(now, loc)
	slots := FullDaySlots(p, day, pol)

	total := 0
	for _, s := range slots {
		total += s.AvailableMinutes
	}

	return AvailabilityReport{
		Timezone:              loc.String(),
		Now:                   now,
		Day:                   Budget(p, day),
		Slots:                 slots,
		TotalAvailableMinutes: total,
		Remaining:             RemainingSlot(p, now),
		Week:                  Weekly(p, day),
	}
}

func newSlot(label string, start, end time.Time, ceiling int) TimeSlot {
	if end.Before(start) {
		end = start
	}
	minutes := int(end.Sub(start) / time.Minute)
	if minutes > ceiling {
		minutes = ceiling
	}
	if minutes < 0 {
		minutes = 0
	}
	return TimeSlot{Label: label, Start: start, End: end, AvailableMinutes: minutes}
}

func atHour(day time.Time, hour int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
}

func overlap(aStart, aEnd, bStart, bEnd time.Time) time.Duration {
	start, end := aStart, aEnd
	if bStart.After(start) {
		start = bStart
	}
	if bEnd.Before(end) {
		end = bEnd
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start)
}

func clampTime(t, lo, hi time.Time) time.Time {
	if t.Before(lo) {
		return lo
	}
	if t.After(hi) {
		return hi
	}
	return t
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
