package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantumlife/dayplan/internal/core"
)

func profileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the planning profile",
	}
	cmd.AddCommand(profileSetCmd(a))
	cmd.AddCommand(profileShowCmd(a))
	cmd.AddCommand(profileLogHoursCmd(a))
	return cmd
}

// profileSetCmd creates the profile or updates the flags given.
func profileSetCmd(a *app) *cobra.Command {
	var (
		timezone    string
		work        string
		days        string
		weeklyHours float64
		deadHours   float64
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or update the profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.ctx(cmd)
			store := a.stores.Profiles

			p, err := store.GetProfile(ctx, a.userID())
			switch {
			case errors.Is(err, core.ErrProfileNotFound):
				p = &core.UserProfile{
					UserID:               a.userID(),
					Timezone:             time.Local.String(),
					DayWork:              core.WorkWeek,
					HoursAvailableToWeek: 20,
					TimeDead:             8,
				}
			case err != nil:
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("timezone") {
				if _, err := time.LoadLocation(timezone); err != nil {
					return fmt.Errorf("%w: timezone %q", core.ErrInvalidInput, timezone)
				}
				p.Timezone = timezone
			}
			if flags.Changed("work") {
				ws, err := core.ParseWorkSchedule(work)
				if err != nil {
					return err
				}
				p.WorkSchedule = ws
			}
			if flags.Changed("days") {
				d, err := core.ParseWeekdays(days)
				if err != nil {
					return err
				}
				p.DayWork = d
			}
			if flags.Changed("weekly-hours") {
				p.HoursAvailableToWeek = weeklyHours
			}
			if flags.Changed("dead-hours") {
				p.TimeDead = deadHours
			}

			if err := store.Upsert(ctx, p); err != nil {
				return err
			}
			a.record(a.audit.ProfileUpdated(ctx, p))
			fmt.Fprintf(cmd.OutOrStdout(), "Profile saved for %s\n", p.UserID)
			return nil
		},
	}

	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone, e.g. Europe/Madrid")
	cmd.Flags().StringVar(&work, "work", "", "Work interval HH:MM-HH:MM")
	cmd.Flags().StringVar(&days, "days", "", "Working days, e.g. mon,tue,wed,thu,fri")
	cmd.Flags().Float64Var(&weeklyHours, "weekly-hours", 0, "Hours available for planned work per week")
	cmd.Flags().Float64Var(&deadHours, "dead-hours", 0, "Hours per day for sleep and personal care")
	return cmd
}

func profileShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.stores.Profiles.GetProfile(a.ctx(cmd), a.userID())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			return a.emit(w, p, func() {
				days := strings.Join(p.DayWork.Names(), ",")
				if days == "" {
					days = "none"
				}
				fmt.Fprintf(w, "User:         %s\n", p.UserID)
				fmt.Fprintf(w, "Timezone:     %s\n", p.Timezone)
				fmt.Fprintf(w, "Work:         %s on %s\n", p.WorkSchedule, days)
				fmt.Fprintf(w, "Dead hours:   %.1f per day\n", p.TimeDead)
				fmt.Fprintf(w, "Weekly hours: %.1f used of %.1f\n", p.HoursUsedToWeek, p.HoursAvailableToWeek)
			})
		},
	}
}

func profileLogHoursCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "log-hours <hours>",
		Short: "Add hours to this week's usage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hours, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("%w: hours %q", core.ErrInvalidInput, args[0])
			}
			ctx := a.ctx(cmd)
			if err := a.stores.Profiles.AddUsedHours(ctx, a.userID(), hours); err != nil {
				return err
			}
			a.record(a.audit.HoursLogged(ctx, a.userID(), hours))
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %.1f hours\n", hours)
			return nil
		},
	}
}
