// Package core defines the fundamental types for dayplan.
// Profiles and work items are owned by their stores; the planner only reads them.
package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// -----------------------------------------------------------------------------
// PROFILE - The user's declared time budget
// -----------------------------------------------------------------------------

// UserID is a type-safe identifier for users
type UserID string

// ClockTime is a local time of day with minute precision.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses "HH:MM" (24h). "24:00" is accepted as the end of day.
func ParseClockTime(s string) (ClockTime, error) {
	v := strings.TrimSpace(s)
	if v == "24:00" {
		return ClockTime{Hour: 24}, nil
	}
	t, err := time.Parse("15:04", v)
	if err != nil {
		return ClockTime{}, fmt.Errorf("%w: clock time %q, want HH:MM", ErrInvalidInput, s)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Minutes returns minutes since local midnight.
func (c ClockTime) Minutes() int { return c.Hour*60 + c.Minute }

// On returns the instant this clock time falls on the given local day.
func (c ClockTime) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

func (c ClockTime) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// MarshalJSON encodes as "HH:MM".
func (c ClockTime) MarshalJSON() ([]byte, error) { return json.Marshal(c.String()) }

// UnmarshalJSON decodes "HH:MM".
func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// WorkSchedule is the daily [Start, End) work interval in local time.
// Start == End == 00:00 means the user declared no work hours.
type WorkSchedule struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// ParseWorkSchedule parses "HH:MM-HH:MM".
func ParseWorkSchedule(s string) (WorkSchedule, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return WorkSchedule{}, fmt.Errorf("%w: work schedule %q, want HH:MM-HH:MM", ErrInvalidInput, s)
	}
	start, err := ParseClockTime(parts[0])
	if err != nil {
		return WorkSchedule{}, err
	}
	end, err := ParseClockTime(parts[1])
	if err != nil {
		return WorkSchedule{}, err
	}
	return WorkSchedule{Start: start, End: end}, nil
}

// IsEmpty reports whether no work interval is declared.
func (w WorkSchedule) IsEmpty() bool { return w.Start.Minutes() == 0 && w.End.Minutes() == 0 }

// Valid reports whether the interval is empty or ends after it starts.
func (w WorkSchedule) Valid() bool { return w.IsEmpty() || w.End.Minutes() > w.Start.Minutes() }

// Hours returns the interval length in hours.
func (w WorkSchedule) Hours() float64 {
	if !w.Valid() {
		return 0
	}
	return float64(w.End.Minutes()-w.Start.Minutes()) / 60
}

func (w WorkSchedule) String() string { return w.Start.String() + "-" + w.End.String() }

// Weekdays is the set of days on which the work interval applies.
type Weekdays [7]bool

var weekdayNames = [7]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// WorkWeek is Monday to Friday.
var WorkWeek = Weekdays{false, true, true, true, true, true, false}

// ParseWeekdays parses a comma separated list such as "mon,tue,wed".
func ParseWeekdays(s string) (Weekdays, error) {
	var w Weekdays
	if strings.TrimSpace(s) == "" {
		return w, nil
	}
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if len(name) > 3 {
			name = name[:3]
		}
		found := false
		for i, n := range weekdayNames {
			if n == name {
				w[i] = true
				found = true
				break
			}
		}
		if !found {
			return Weekdays{}, fmt.Errorf("%w: weekday %q", ErrInvalidInput, part)
		}
	}
	return w, nil
}

// Has reports whether d is in the set.
func (w Weekdays) Has(d time.Weekday) bool { return w[d] }

// Names returns the set as short day names, Sunday first.
func (w Weekdays) Names() []string {
	names := make([]string, 0, 7)
	for i, on := range w {
		if on {
			names = append(names, weekdayNames[i])
		}
	}
	return names
}

// MarshalJSON encodes as a list of day names.
func (w Weekdays) MarshalJSON() ([]byte, error) { return json.Marshal(w.Names()) }

// UnmarshalJSON decodes a list of day names.
func (w *Weekdays) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	parsed, err := ParseWeekdays(strings.Join(names, ","))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// UserProfile is the user's declared time budget.
type UserProfile struct {
	UserID   UserID `json:"user_id"`
	Timezone string `json:"timezone"` // IANA name, e.g. "Europe/Madrid"

	WorkSchedule WorkSchedule `json:"work_schedule"`
	DayWork      Weekdays     `json:"day_work"`

	HoursAvailableToWeek float64 `json:"hours_available_to_week"` // Weekly cap
	HoursUsedToWeek      float64 `json:"hours_used_to_week"`      // Consumed so far this week
	TimeDead             float64 `json:"time_dead"`               // Hours/day for sleep and personal care

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Location resolves the profile timezone, falling back to UTC.
func (p UserProfile) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate checks the fields the planner depends on.
func (p UserProfile) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("%w: user_id", ErrMissingRequired)
	}
	if !p.WorkSchedule.Valid() {
		return fmt.Errorf("%w: work schedule %s must end after it starts", ErrInvalidProfile, p.WorkSchedule)
	}
	if p.TimeDead < 0 || p.TimeDead > 24 {
		return fmt.Errorf("%w: time_dead %.1f outside 0-24", ErrInvalidProfile, p.TimeDead)
	}
	if p.HoursAvailableToWeek < 0 || p.HoursUsedToWeek < 0 {
		return fmt.Errorf("%w: weekly hours must not be negative", ErrInvalidProfile)
	}
	return nil
}

// -----------------------------------------------------------------------------
// WORK ITEM - A pending unit of schedulable work
// -----------------------------------------------------------------------------

// ItemKind tags the WorkItem variant
type ItemKind string

const (
	KindGoal ItemKind = "goal" // Task that advances a goal with a deadline
	KindMind ItemKind = "mind" // Cognitive daily task
	KindBody ItemKind = "body" // Physical daily task
)

// Kinds lists the variants in scheduling precedence order.
var Kinds = []ItemKind{KindGoal, KindMind, KindBody}

// ParseItemKind validates a kind name.
func ParseItemKind(s string) (ItemKind, error) {
	switch k := ItemKind(strings.ToLower(s)); k {
	case KindGoal, KindMind, KindBody:
		return k, nil
	}
	return "", fmt.Errorf("%w: item kind %q", ErrInvalidInput, s)
}

// TaskStatus is the lifecycle state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Schedulable reports whether tasks in this state are planner candidates.
func (s TaskStatus) Schedulable() bool {
	return s == TaskStatusPending || s == TaskStatusInProgress
}

// GoalStatus is the lifecycle state of a goal
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusArchived  GoalStatus = "archived"
)

// DefaultGoalTaskWeight is the base weight of a goal task when none is given.
const DefaultGoalTaskWeight = 100

// Goal is a long-running objective that owns goal tasks.
type Goal struct {
	ID       string     `json:"id"`
	UserID   UserID     `json:"user_id"`
	Title    string     `json:"title"`
	Deadline *time.Time `json:"deadline,omitempty"` // Calendar date, midnight UTC
	Status   GoalStatus `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GoalInfo is the Goal variant payload of a WorkItem.
type GoalInfo struct {
	GoalID    string     `json:"goal_id"`
	GoalTitle string     `json:"goal_title"`
	Deadline  *time.Time `json:"goal_deadline,omitempty"`
	Weight    int        `json:"weight"`
	Active    bool       `json:"goal_active"`
}

// WorkItem is the tagged union over goal, mind and body tasks.
// Goal is non-nil exactly when Kind is KindGoal.
type WorkItem struct {
	ID          string     `json:"id"`
	Kind        ItemKind   `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Minutes     int        `json:"estimated_duration_minutes"`
	Status      TaskStatus `json:"status"`
	Recurring   bool       `json:"recurring,omitempty"`

	Goal *GoalInfo `json:"goal,omitempty"`
}

// Duration returns the estimated duration.
func (w WorkItem) Duration() time.Duration { return time.Duration(w.Minutes) * time.Minute }

// Task is the stored form of a goal, mind or body task.
type Task struct {
	ID          string     `json:"id"`
	UserID      UserID     `json:"user_id"`
	Kind        ItemKind   `json:"type"`
	GoalID      string     `json:"goal_id,omitempty"` // Goal tasks only
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Minutes     int        `json:"estimated_duration_minutes"`
	Status      TaskStatus `json:"status"`
	Weight      int        `json:"weight,omitempty"` // Goal tasks only

	AvailableFrom   *time.Time `json:"available_from,omitempty"`    // Not a candidate before this date
	Recurring       bool       `json:"recurring,omitempty"`         // Mind/body only
	LastCompletedOn *time.Time `json:"last_completed_on,omitempty"` // Recurring bookkeeping

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ParseDate parses a YYYY-MM-DD calendar date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}
