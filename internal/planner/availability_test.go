package planner

import (
	"testing"
	"time"

	"github.com/quantumlife/dayplan/internal/core"
)

func TestFullDaySlots_WorkingDay(t *testing.T) {
	slots := FullDaySlots(officeProfile(), wednesday, DefaultPolicy())

	if len(slots) != 2 {
		t.Fatalf("len(slots) = %d, want 2", len(slots))
	}

	tests := []struct {
		label      string
		start, end time.Time
		minutes    int
	}{
		{SlotMorning, at(wednesday, 6, 0), at(wednesday, 9, 0), 180},
		{SlotEvening, at(wednesday, 17, 0), at(wednesday, 22, 0), 300},
	}

	for i, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got := slots[i]
			if got.Label != tt.label {
				t.Errorf("Label = %v, want %v", got.Label, tt.label)
			}
			if !got.Start.Equal(tt.start) || !got.End.Equal(tt.end) {
				t.Errorf("interval = %s-%s, want %s-%s", got.Start, got.End, tt.start, tt.end)
			}
			if got.AvailableMinutes != tt.minutes {
				t.Errorf("AvailableMinutes = %d, want %d", got.AvailableMinutes, tt.minutes)
			}
		})
	}
}

func TestFullDaySlots_NonWorkingDay(t *testing.T) {
	p := officeProfile()
	slots := FullDaySlots(p, saturday, DefaultPolicy())

	// Split at the midpoint of 09:00-17:00.
	if !slots[0].End.Equal(at(saturday, 13, 0)) || !slots[1].Start.Equal(at(saturday, 13, 0)) {
		t.Errorf("split = %s / %s, want 13:00", slots[0].End, slots[1].Start)
	}
	if slots[0].AvailableMinutes != 420 {
		t.Errorf("morning AvailableMinutes = %d, want 420", slots[0].AvailableMinutes)
	}
	if slots[1].AvailableMinutes != 540 {
		t.Errorf("evening AvailableMinutes = %d, want 540", slots[1].AvailableMinutes)
	}
}

func TestFullDaySlots_EmptyWorkSchedule(t *testing.T) {
	p := officeProfile()
	p.WorkSchedule = core.WorkSchedule{}

	slots := FullDaySlots(p, wednesday, DefaultPolicy())

	if !slots[0].End.Equal(at(wednesday, 14, 0)) {
		t.Errorf("morning end = %s, want 14:00", slots[0].End)
	}
	if WorkHours(p, wednesday) != 0 {
		t.Errorf("WorkHours = %v, want 0", WorkHours(p, wednesday))
	}
}

func TestFullDaySlots_ProductiveCeiling(t *testing.T) {
	p := officeProfile()
	p.TimeDead = 14 // 10 waking hours, 8 of them at work

	slots := FullDaySlots(p, wednesday, DefaultPolicy())

	for _, s := range slots {
		if s.AvailableMinutes > 120 {
			t.Errorf("slot %s AvailableMinutes = %d, want <= 120", s.Label, s.AvailableMinutes)
		}
	}
	if slots[0].AvailableMinutes != 120 {
		t.Errorf("morning AvailableMinutes = %d, want 120", slots[0].AvailableMinutes)
	}
}

func TestFullDaySlots_NoWakingHours(t *testing.T) {
	p := officeProfile()
	p.TimeDead = 24

	for _, s := range FullDaySlots(p, wednesday, DefaultPolicy()) {
		if s.AvailableMinutes != 0 {
			t.Errorf("slot %s AvailableMinutes = %d, want 0", s.Label, s.AvailableMinutes)
		}
	}
}

func TestFullDaySlots_WorkOutsideWakingWindow(t *testing.T) {
	p := officeProfile()
	p.WorkSchedule = core.WorkSchedule{Start: core.ClockTime{Hour: 4}, End: core.ClockTime{Hour: 5}}
	p.TimeDead = 6

	slots := FullDaySlots(p, wednesday, DefaultPolicy())

	if slots[0].AvailableMinutes != 0 {
		t.Errorf("morning AvailableMinutes = %d, want 0", slots[0].AvailableMinutes)
	}
	if !slots[1].Start.Equal(at(wednesday, 6, 0)) {
		t.Errorf("evening start = %s, want 06:00", slots[1].Start)
	}
	if slots[1].AvailableMinutes != 960 {
		t.Errorf("evening AvailableMinutes = %d, want 960", slots[1].AvailableMinutes)
	}
}

func TestBudget(t *testing.T) {
	tests := []struct {
		name       string
		day        time.Time
		working    bool
		work       float64
		productive int
	}{
		{"working day", wednesday, true, 8, 420},
		{"weekend", saturday, false, 0, 900},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Budget(officeProfile(), tt.day)
			if b.WorkingDay != tt.working {
				t.Errorf("WorkingDay = %v, want %v", b.WorkingDay, tt.working)
			}
			if b.WorkHours != tt.work {
				t.Errorf("WorkHours = %v, want %v", b.WorkHours, tt.work)
			}
			if b.WakingHours != 15 || b.DeadHours != 9 {
				t.Errorf("waking/dead = %v/%v, want 15/9", b.WakingHours, b.DeadHours)
			}
			if b.ProductiveMinutes != tt.productive {
				t.Errorf("ProductiveMinutes = %d, want %d", b.ProductiveMinutes, tt.productive)
			}
		})
	}
}

func TestWakingHours_Clamped(t *testing.T) {
	p := officeProfile()

	p.TimeDead = -3
	if got := WakingHours(p); got != 24 {
		t.Errorf("WakingHours(-3) = %v, want 24", got)
	}
	p.TimeDead = 30
	if got := WakingHours(p); got != 0 {
		t.Errorf("WakingHours(30) = %v, want 0", got)
	}
}

func TestRemainingSlot(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		start   time.Time
		minutes int
	}{
		{"evening", at(wednesday, 18, 0), at(wednesday, 18, 0), 360},
		{"before work", at(wednesday, 8, 0), at(wednesday, 8, 0), 420},
		{"during work", at(wednesday, 13, 0), at(wednesday, 13, 0), 660},
		{"truncated to minute", at(wednesday, 23, 30).Add(45 * time.Second), at(wednesday, 23, 30), 30},
		{"weekend morning", at(saturday, 10, 0), at(saturday, 10, 0), 840},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := RemainingSlot(officeProfile(), tt.now)
			if slot.Label != SlotRemaining {
				t.Errorf("Label = %v, want %v", slot.Label, SlotRemaining)
			}
			if !slot.Start.Equal(tt.start) {
				t.Errorf("Start = %s, want %s", slot.Start, tt.start)
			}
			midnight := time.Date(tt.now.Year(), tt.now.Month(), tt.now.Day()+1, 0, 0, 0, 0, time.UTC)
			if !slot.End.Equal(midnight) {
				t.Errorf("End = %s, want %s", slot.End, midnight)
			}
			if slot.AvailableMinutes != tt.minutes {
				t.Errorf("AvailableMinutes = %d, want %d", slot.AvailableMinutes, tt.minutes)
			}
		})
	}
}

func TestRemainingSlot_ConvertsToProfileTimezone(t *testing.T) {
	p := officeProfile()
	p.Timezone = "America/New_York"
	loc := p.Location()
	if loc == time.UTC {
		t.Skip("tzdata not available")
	}

	// 03:00 UTC on Thursday is 23:00 Wednesday in New York (EDT).
	now := time.Date(2025, 3, 13, 3, 0, 0, 0, time.UTC)
	slot := RemainingSlot(p, now)

	if slot.Start.Location().String() != loc.String() {
		t.Errorf("Start location = %v, want %v", slot.Start.Location(), loc)
	}
	if slot.Start.Day() != 12 || slot.Start.Hour() != 23 {
		t.Errorf("Start = %s, want 2025-03-12 23:00 local", slot.Start)
	}
	if slot.AvailableMinutes != 60 {
		t.Errorf("AvailableMinutes = %d, want 60", slot.AvailableMinutes)
	}
}

func TestWeekly(t *testing.T) {
	tests := []struct {
		name      string
		day       time.Time
		used      float64
		remaining float64
		days      int
		perDay    float64
	}{
		{"wednesday", wednesday, 5, 15, 5, 3},
		{"saturday", saturday, 5, 15, 2, 7.5},
		{"sunday", saturday.AddDate(0, 0, 1), 5, 15, 1, 15},
		{"monday", wednesday.AddDate(0, 0, -2), 5, 15, 7, 2.1},
		{"over budget", wednesday, 25, 0, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := officeProfile()
			p.HoursUsedToWeek = tt.used
			w := Weekly(p, tt.day)
			if w.HoursRemaining != tt.remaining {
				t.Errorf("HoursRemaining = %v, want %v", w.HoursRemaining, tt.remaining)
			}
			if w.DaysRemaining != tt.days {
				t.Errorf("DaysRemaining = %d, want %d", w.DaysRemaining, tt.days)
			}
			if w.SuggestedHoursPerDay != tt.perDay {
				t.Errorf("SuggestedHoursPerDay = %v, want %v", w.SuggestedHoursPerDay, tt.perDay)
			}
		})
	}
}

func TestAvailability(t *testing.T) {
	now := at(wednesday, 18, 0)
	r := Availability(officeProfile(), now, DefaultPolicy())

	if r.Timezone != "UTC" {
		t.Errorf("Timezone = %v, want UTC", r.Timezone)
	}
	if r.TotalAvailableMinutes != 480 {
		t.Errorf("TotalAvailableMinutes = %d, want 480", r.TotalAvailableMinutes)
	}
	if r.Remaining.AvailableMinutes != 360 {
		t.Errorf("Remaining.AvailableMinutes = %d, want 360", r.Remaining.AvailableMinutes)
	}
	if r.Day.Date != "2025-03-12" {
		t.Errorf("Day.Date = %v, want 2025-03-12", r.Day.Date)
	}
}
