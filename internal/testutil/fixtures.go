package testutil

import (
	"testing"
	"time"

	"github.com/quantumlife/dayplan/internal/core"
	"github.com/quantumlife/dayplan/internal/storage"
)

// Wednesday is a working day used across package tests (2025-03-12, UTC).
var Wednesday = time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

// OfficeProfile works 09:00-17:00 Monday to Friday in UTC with 9 dead hours.
func OfficeProfile(id core.UserID) *core.UserProfile {
	return NewProfileBuilder(id).Build()
}

// ProfileBuilder provides a fluent API for profile fixtures
type ProfileBuilder struct {
	profile core.UserProfile
}

// NewProfileBuilder starts from the office profile
func NewProfileBuilder(id core.UserID) *ProfileBuilder {
	return &ProfileBuilder{profile: core.UserProfile{
		UserID:               id,
		Timezone:             "UTC",
		WorkSchedule:         core.WorkSchedule{Start: core.ClockTime{Hour: 9}, End: core.ClockTime{Hour: 17}},
		DayWork:              core.WorkWeek,
		HoursAvailableToWeek: 20,
		HoursUsedToWeek:      5,
		TimeDead:             9,
	}}
}

// WithTimezone sets the IANA timezone
func (b *ProfileBuilder) WithTimezone(tz string) *ProfileBuilder {
	b.profile.Timezone = tz
	return b
}

// WithWork sets the work interval
func (b *ProfileBuilder) WithWork(start, end core.ClockTime) *ProfileBuilder {
	b.profile.WorkSchedule = core.WorkSchedule{Start: start, End: end}
	return b
}

// WithDays sets the working days
func (b *ProfileBuilder) WithDays(days core.Weekdays) *ProfileBuilder {
	b.profile.DayWork = days
	return b
}

// WithDeadHours sets hours per day for sleep and personal care
func (b *ProfileBuilder) WithDeadHours(h float64) *ProfileBuilder {
	b.profile.TimeDead = h
	return b
}

// Build returns the constructed profile
func (b *ProfileBuilder) Build() *core.UserProfile {
	p := b.profile
	return &p
}

// Scenario holds the IDs created by SeedScenario.
type Scenario struct {
	Goal     *core.Goal
	GoalTask *core.Task
	Mind     []*core.Task
	Body     []*core.Task
}

// SeedScenario stores the office profile plus one 60 minute goal task due
// two days after day, two 30 minute mind tasks and two 45 minute body tasks.
func SeedScenario(t *testing.T, s *storage.Stores, id core.UserID, day time.Time) Scenario {
	t.Helper()
	ctx := TestContext(t)

	AssertNoError(t, s.Profiles.Upsert(ctx, OfficeProfile(id)))

	deadline := day.AddDate(0, 0, 2)
	sc := Scenario{Goal: &core.Goal{UserID: id, Title: "Launch", Deadline: &deadline}}
	AssertNoError(t, s.Goals.Create(ctx, sc.Goal))

	sc.GoalTask = &core.Task{UserID: id, GoalID: sc.Goal.ID, Title: "Write launch post", Minutes: 60}
	AssertNoError(t, s.Goals.AddTask(ctx, sc.GoalTask))

	for _, title := range []string{"Read", "Plan week"} {
		task := &core.Task{UserID: id, Title: title, Minutes: 30}
		AssertNoError(t, s.Mind.Create(ctx, task))
		sc.Mind = append(sc.Mind, task)
	}
	for _, title := range []string{"Run", "Stretch"} {
		task := &core.Task{UserID: id, Title: title, Minutes: 45}
		AssertNoError(t, s.Body.Create(ctx, task))
		sc.Body = append(sc.Body, task)
	}
	return sc
}
