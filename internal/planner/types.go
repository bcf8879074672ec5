package planner

import (
	"time"

	"github.com/quantumlife/dayplan/internal/core"
)

// Mode identifies which adapter produced a schedule
type Mode string

const (
	ModeFullDay  Mode = "full_day"
	ModeRightNow Mode = "right_now"
)

// Slot labels
const (
	SlotMorning   = "morning"
	SlotEvening   = "evening"
	SlotRemaining = "remaining"
)

// TimeSlot is a bounded interval of a local day with a productive capacity.
type TimeSlot struct {
	Label            string    `json:"label"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	AvailableMinutes int       `json:"available_minutes"`
}

// ScoredItem is a work item ranked for placement.
type ScoredItem struct {
	core.WorkItem
	PriorityScore     float64 `json:"priority_score"`
	UrgencyMultiplier float64 `json:"urgency_multiplier"`
	DaysUntilDeadline *int    `json:"days_until_deadline"`
}

// ScheduledItem is a scored item placed at a concrete time.
type ScheduledItem struct {
	ScoredItem
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	TimeSlot  string    `json:"time_slot"`
}

// SlotSchedule is one slot with the items placed in it.
// ScheduledMinutes includes buffers.
type SlotSchedule struct {
	TimeSlot
	Items            []ScheduledItem `json:"items"`
	ScheduledMinutes int             `json:"scheduled_minutes"`
	RemainingMinutes int             `json:"remaining_minutes"`
}

// Summary holds day-level counts and minutes by kind.
type Summary struct {
	TotalTasksScheduled   int     `json:"total_tasks_scheduled"`
	UnscheduledTasks      int     `json:"unscheduled_tasks"`
	GoalTasks             int     `json:"goal_tasks"`
	MindTasks             int     `json:"mind_tasks"`
	BodyTasks             int     `json:"body_tasks"`
	GoalMinutes           int     `json:"goal_minutes"`
	MindMinutes           int     `json:"mind_minutes"`
	BodyMinutes           int     `json:"body_minutes"`
	TotalMinutesAvailable int     `json:"total_minutes_available"`
	TotalMinutesScheduled int     `json:"total_minutes_scheduled"`
	EfficiencyPercentage  float64 `json:"efficiency_percentage"`
}

// DistributionAnalysis compares the scheduled split with the ideal split.
type DistributionAnalysis struct {
	Actual       Distribution `json:"actual_distribution"`
	Ideal        Distribution `json:"ideal_distribution"`
	Deviation    Distribution `json:"deviation_from_ideal"`
	BalanceScore float64      `json:"balance_score"`
}

// Scores are the composite quality grades of a schedule, 0-100.
type Scores struct {
	EfficiencyScore   float64 `json:"efficiency_score"`
	BalanceScore      float64 `json:"balance_score"`
	ProductivityScore float64 `json:"productivity_score"`
}

// Schedule is the full output of one planning run.
type Schedule struct {
	Date         string               `json:"date"`
	Timezone     string               `json:"timezone"`
	Mode         Mode                 `json:"mode"`
	Slots        []SlotSchedule       `json:"slots"`
	Unscheduled  []ScoredItem         `json:"unscheduled"`
	Summary      Summary              `json:"summary"`
	Distribution DistributionAnalysis `json:"distribution_analysis"`
	Scores       Scores               `json:"scores"`
	Message      string               `json:"message,omitempty"`
}

// Items returns every scheduled item in slot order.
func (s Schedule) Items() []ScheduledItem {
	var items []ScheduledItem
	for _, slot := range s.Slots {
		items = append(items, slot.Items...)
	}
	return items
}

// NowPlan is the right-now view: the schedule plus per-kind arrays.
type NowPlan struct {
	Schedule
	GoalTasks             []ScheduledItem `json:"goal_tasks"`
	MindTasks             []ScheduledItem `json:"mind_tasks"`
	BodyTasks             []ScheduledItem `json:"body_tasks"`
	SummaryMessage        string          `json:"summary_message"`
	UtilizationPercentage float64         `json:"utilization_percentage"`
	TargetMinPercentage   float64         `json:"target_min_percentage"`
	TargetMaxPercentage   float64         `json:"target_max_percentage"`
}

// RemainingView is today's full-day schedule from now on.
type RemainingView struct {
	Date                 string          `json:"date"`
	Timezone             string          `json:"timezone"`
	Now                  time.Time       `json:"now"`
	Items                []ScheduledItem `json:"items"`
	Unscheduled          []ScoredItem    `json:"unscheduled"`
	ElapsedItems         int             `json:"elapsed_items"`
	RemainingMinutes     int             `json:"remaining_minutes"`
	RequiredMinutes      int             `json:"required_minutes"`
	CanCompleteAll       bool            `json:"can_complete_all"`
	CompletionPercentage float64         `json:"completion_percentage"`
	Message              string          `json:"message,omitempty"`

	// Summary and Scores grade today's whole plan, elapsed items included.
	Summary Summary `json:"summary"`
	Scores  Scores  `json:"scores"`
}

// DayBudget is the profile's time breakdown for one local day.
type DayBudget struct {
	Date              string  `json:"date"`
	WorkingDay        bool    `json:"is_working_day"`
	WakingHours       float64 `json:"waking_hours"`
	WorkHours         float64 `json:"work_hours"`
	DeadHours         float64 `json:"dead_hours"`
	ProductiveHours   float64 `json:"productive_hours"`
	ProductiveMinutes int     `json:"productive_minutes"`
}

// WeeklyBudget is the weekly cap bookkeeping from the profile.
type WeeklyBudget struct {
	HoursAvailable       float64 `json:"hours_available_to_week"`
	HoursUsed            float64 `json:"hours_used_to_week"`
	HoursRemaining       float64 `json:"hours_remaining_to_week"`
	DaysRemaining        int     `json:"days_remaining_in_week"`
	SuggestedHoursPerDay float64 `json:"suggested_hours_per_day"`
}

// AvailabilityReport is the output of GetAvailableTime.
type AvailabilityReport struct {
	Timezone              string       `json:"timezone"`
	Now                   time.Time    `json:"now"`
	Day                   DayBudget    `json:"day"`
	Slots                 []TimeSlot   `json:"slots"`
	TotalAvailableMinutes int          `json:"total_available_minutes"`
	Remaining             TimeSlot     `json:"remaining"`
	Week                  WeeklyBudget `json:"week"`
}
