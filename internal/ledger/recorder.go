package ledger

import (
	"context"
	"fmt"

	"github.com/quantumlife/dayplan/internal/core"
)

// Recorder appends the activity dayplan produces.
type Recorder struct {
	store *Store
	actor string
}

// NewRecorder creates a recorder appending as actor
func NewRecorder(store *Store, actor string) *Recorder {
	return &Recorder{store: store, actor: actor}
}

func (r *Recorder) append(ctx context.Context, ev Event) error {
	ev.Actor = r.actor
	_, err := r.store.Append(ctx, ev)
	return err
}

// ProfileUpdated records the time budget a user declared.
func (r *Recorder) ProfileUpdated(ctx context.Context, p *core.UserProfile) error {
	return r.append(ctx, Event{
		UserID:     p.UserID,
		Action:     ActionProfileUpdated,
		EntityType: "profile",
		EntityID:   string(p.UserID),
		Details: map[string]interface{}{
			"timezone":                p.Timezone,
			"work_schedule":           p.WorkSchedule.String(),
			"day_work":                p.DayWork.Names(),
			"hours_available_to_week": p.HoursAvailableToWeek,
			"time_dead":               p.TimeDead,
		},
	})
}

// HoursLogged records hours added to the weekly usage.
func (r *Recorder) HoursLogged(ctx context.Context, userID core.UserID, hours float64) error {
	return r.append(ctx, Event{
		UserID:     userID,
		Action:     ActionHoursLogged,
		EntityType: "profile",
		EntityID:   string(userID),
		Details:    map[string]interface{}{"hours": hours},
	})
}

// WeeklyReset records a reset of every profile's weekly usage.
func (r *Recorder) WeeklyReset(ctx context.Context, profiles int64) error {
	return r.append(ctx, Event{
		Action:     ActionWeeklyReset,
		EntityType: "profile",
		Details:    map[string]interface{}{"profiles": profiles},
	})
}

// GoalCreated records a new goal.
func (r *Recorder) GoalCreated(ctx context.Context, g *core.Goal) error {
	details := map[string]interface{}{"title": g.Title}
	if g.Deadline != nil {
		details["deadline"] = g.Deadline.Format(core.DateLayout)
	}
	return r.append(ctx, Event{
		UserID:     g.UserID,
		Action:     ActionGoalCreated,
		EntityType: "goal",
		EntityID:   g.ID,
		Details:    details,
	})
}

// GoalCompleted records a goal reaching completion.
func (r *Recorder) GoalCompleted(ctx context.Context, userID core.UserID, goalID string) error {
	return r.append(ctx, Event{
		UserID:     userID,
		Action:     ActionGoalCompleted,
		EntityType: "goal",
		EntityID:   goalID,
	})
}

// TaskCreated records a new goal, mind or body task.
func (r *Recorder) TaskCreated(ctx context.Context, t *core.Task) error {
	details := map[string]interface{}{
		"type":    t.Kind,
		"title":   t.Title,
		"minutes": t.Minutes,
	}
	if t.GoalID != "" {
		details["goal_id"] = t.GoalID
	}
	if t.Recurring {
		details["recurring"] = true
	}
	return r.append(ctx, Event{
		UserID:     t.UserID,
		Action:     ActionTaskCreated,
		EntityType: "task",
		EntityID:   t.ID,
		Details:    details,
	})
}

// TaskCompleted records a task done on a local day.
func (r *Recorder) TaskCompleted(ctx context.Context, userID core.UserID, kind core.ItemKind, taskID, day string) error {
	return r.append(ctx, Event{
		UserID:     userID,
		Action:     ActionTaskCompleted,
		EntityType: "task",
		EntityID:   taskID,
		Details:    map[string]interface{}{"type": kind, "day": day},
	})
}

// UsageResetter zeroes the weekly usage of every profile.
type UsageResetter interface {
	ResetWeeklyUsage(ctx context.Context) (int64, error)
}

type auditedReset struct {
	inner UsageResetter
	rec   *Recorder
}

// AuditResets wraps inner so each successful reset is recorded.
func (r *Recorder) AuditResets(inner UsageResetter) UsageResetter {
	return auditedReset{inner: inner, rec: r}
}

func (a auditedReset) ResetWeeklyUsage(ctx context.Context) (int64, error) {
	n, err := a.inner.ResetWeeklyUsage(ctx)
	if err != nil {
		return n, err
	}
	if err := a.rec.WeeklyReset(ctx, n); err != nil {
		return n, fmt.Errorf("record weekly reset: %w", err)
	}
	return n, nil
}
