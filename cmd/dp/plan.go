package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quantumlife/dayplan/internal/planner"
)

func planCmd(a *app) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the optimized schedule for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			sched, err := a.service.GetOptimizedSchedule(a.ctx(cmd), a.userID(), date)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			return a.emit(w, sched, func() { renderSchedule(w, sched) })
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Day to plan, YYYY-MM-DD (default today)")
	return cmd
}

func nowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Show what to do from now until the end of the day",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := a.service.GetTasksRightNow(a.ctx(cmd), a.userID())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			return a.emit(w, plan, func() {
				renderSchedule(w, &plan.Schedule)
				fmt.Fprintf(w, "\n%s\n", plan.SummaryMessage)
			})
		},
	}
}

func remainingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remaining",
		Short: "Show the rest of today's plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.service.GetRemainingDaySchedule(a.ctx(cmd), a.userID())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			return a.emit(w, view, func() {
				fmt.Fprintf(w, "%s (%s), now %s\n", view.Date, view.Timezone, view.Now.Format("15:04"))
				if view.Message != "" {
					fmt.Fprintln(w, view.Message)
				}
				renderItems(w, view.Items)
				fmt.Fprintf(w, "\n%d minutes left, %d required, %.0f%% completable, %d already elapsed\n",
					view.RemainingMinutes, view.RequiredMinutes, view.CompletionPercentage, view.ElapsedItems)
			})
		},
	}
}

func availableCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "available",
		Short: "Show today's time budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.service.GetAvailableTime(a.ctx(cmd), a.userID())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			return a.emit(w, report, func() {
				day := report.Day
				kind := "day off"
				if day.WorkingDay {
					kind = "working day"
				}
				fmt.Fprintf(w, "%s (%s), %s\n", day.Date, report.Timezone, kind)
				fmt.Fprintf(w, "Waking %.1fh, work %.1fh, dead %.1fh, productive %.1fh\n",
					day.WakingHours, day.WorkHours, day.DeadHours, day.ProductiveHours)

				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "SLOT\tFROM\tTO\tMINUTES")
				for _, s := range report.Slots {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", s.Label, s.Start.Format("15:04"), s.End.Format("15:04"), s.AvailableMinutes)
				}
				tw.Flush()

				fmt.Fprintf(w, "Total %d minutes\n", report.TotalAvailableMinutes)
				fmt.Fprintf(w, "Week: %.1fh of %.1fh left, %.1fh per day over %d days\n",
					report.Week.HoursRemaining, report.Week.HoursAvailable,
					report.Week.SuggestedHoursPerDay, report.Week.DaysRemaining)
			})
		},
	}
}

func renderSchedule(w io.Writer, s *planner.Schedule) {
	fmt.Fprintf(w, "%s (%s)\n", s.Date, s.Timezone)
	if s.Message != "" {
		fmt.Fprintln(w, s.Message)
	}
	renderItems(w, s.Items())

	if len(s.Unscheduled) > 0 {
		fmt.Fprintf(w, "\nUnscheduled:\n")
		for _, item := range s.Unscheduled {
			fmt.Fprintf(w, "  %s %s (%d min)\n", item.Kind, truncate(item.Title, titleWidth()), item.Minutes)
		}
	}

	sum := s.Summary
	fmt.Fprintf(w, "\n%d scheduled, %d unscheduled, %d of %d minutes (%.0f%%)\n",
		sum.TotalTasksScheduled, sum.UnscheduledTasks,
		sum.TotalMinutesScheduled, sum.TotalMinutesAvailable, sum.EfficiencyPercentage)
	fmt.Fprintf(w, "Scores: efficiency %.0f, balance %.0f, productivity %.0f\n",
		s.Scores.EfficiencyScore, s.Scores.BalanceScore, s.Scores.ProductivityScore)
}

func renderItems(w io.Writer, items []planner.ScheduledItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Nothing scheduled.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSLOT\tTYPE\tTITLE\tSCORE")
	for _, it := range items {
		fmt.Fprintf(tw, "%s-%s\t%s\t%s\t%s\t%.0f\n",
			it.StartTime.Format("15:04"), it.EndTime.Format("15:04"),
			it.TimeSlot, it.Kind, truncate(it.Title, titleWidth()), it.PriorityScore)
	}
	tw.Flush()
}

// titleWidth fits titles to the terminal, leaving room for the other columns.
func titleWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 60
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width < 70 {
		return 20
	}
	return width - 50
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
