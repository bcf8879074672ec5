package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantumlife/dayplan/internal/core"
)

func goalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage goals",
	}
	cmd.AddCommand(goalAddCmd(a))
	cmd.AddCommand(goalListCmd(a))
	cmd.AddCommand(goalCompleteCmd(a))
	return cmd
}

func goalAddCmd(a *app) *cobra.Command {
	var deadline string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g := &core.Goal{UserID: a.userID(), Title: args[0]}
			if deadline != "" {
				d, err := core.ParseDate(deadline)
				if err != nil {
					return err
				}
				g.Deadline = &d
			}
			ctx := a.ctx(cmd)
			if err := a.stores.Goals.Create(ctx, g); err != nil {
				return err
			}
			a.record(a.audit.GoalCreated(ctx, g))
			w := cmd.OutOrStdout()
			return a.emit(w, g, func() {
				fmt.Fprintf(w, "Goal %s added\n", g.ID)
			})
		},
	}

	cmd.Flags().StringVar(&deadline, "deadline", "", "Deadline date YYYY-MM-DD")
	return cmd
}

func goalListCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List goals, soonest deadline first",
		RunE: func(cmd *cobra.Command, args []string) error {
			status := core.GoalStatusActive
			if all {
				status = ""
			}
			goals, err := a.stores.Goals.List(a.ctx(cmd), a.userID(), status)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			return a.emit(w, goals, func() {
				if len(goals) == 0 {
					fmt.Fprintln(w, "No goals.")
					return
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTITLE\tDEADLINE\tSTATUS")
				for _, g := range goals {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", g.ID, g.Title, dateOrDash(g.Deadline), g.Status)
				}
				tw.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include completed and archived goals")
	return cmd
}

func goalCompleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <goal-id>",
		Short: "Mark a goal completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.ctx(cmd)
			if err := a.stores.Goals.SetStatus(ctx, args[0], core.GoalStatusCompleted); err != nil {
				return err
			}
			a.record(a.audit.GoalCompleted(ctx, a.userID(), args[0]))
			fmt.Fprintf(cmd.OutOrStdout(), "Goal %s completed\n", args[0])
			return nil
		},
	}
}

func taskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage goal, mind and body tasks",
	}
	cmd.AddCommand(taskAddCmd(a))
	cmd.AddCommand(taskListCmd(a))
	cmd.AddCommand(taskDoneCmd(a))
	return cmd
}

func taskAddCmd(a *app) *cobra.Command {
	var (
		kind        string
		goalID      string
		minutes     int
		weight      int
		description string
		from        string
		recurring   bool
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := core.ParseItemKind(kind)
			if err != nil {
				return err
			}
			t := &core.Task{
				UserID:      a.userID(),
				Title:       args[0],
				Description: description,
				Minutes:     minutes,
			}
			if from != "" {
				d, err := core.ParseDate(from)
				if err != nil {
					return err
				}
				t.AvailableFrom = &d
			}

			ctx := a.ctx(cmd)
			if k == core.KindGoal {
				if goalID == "" {
					return fmt.Errorf("%w: --goal is required for goal tasks", core.ErrMissingRequired)
				}
				t.GoalID = goalID
				t.Weight = weight
				err = a.stores.Goals.AddTask(ctx, t)
			} else {
				t.Recurring = recurring
				store, serr := a.stores.Daily(k)
				if serr != nil {
					return serr
				}
				err = store.Create(ctx, t)
			}
			if err != nil {
				return err
			}
			a.record(a.audit.TaskCreated(ctx, t))

			w := cmd.OutOrStdout()
			return a.emit(w, t, func() {
				fmt.Fprintf(w, "%s task %s added\n", t.Kind, t.ID)
			})
		},
	}

	cmd.Flags().StringVarP(&kind, "type", "t", string(core.KindMind), "Task type: goal, mind or body")
	cmd.Flags().StringVar(&goalID, "goal", "", "Goal id (goal tasks)")
	cmd.Flags().IntVarP(&minutes, "minutes", "m", 30, "Estimated minutes")
	cmd.Flags().IntVar(&weight, "weight", 0, "Priority weight (goal tasks)")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&from, "from", "", "Not schedulable before YYYY-MM-DD")
	cmd.Flags().BoolVar(&recurring, "recurring", false, "Repeat every day (mind and body tasks)")
	return cmd
}

func taskListCmd(a *app) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := core.Kinds
			if kind != "" {
				k, err := core.ParseItemKind(kind)
				if err != nil {
					return err
				}
				kinds = []core.ItemKind{k}
			}

			ctx := a.ctx(cmd)
			var tasks []*core.Task
			for _, k := range kinds {
				var (
					list []*core.Task
					err  error
				)
				if k == core.KindGoal {
					list, err = a.stores.Goals.ListTasks(ctx, a.userID())
				} else {
					store, serr := a.stores.Daily(k)
					if serr != nil {
						return serr
					}
					list, err = store.List(ctx, a.userID())
				}
				if err != nil {
					return err
				}
				tasks = append(tasks, list...)
			}

			w := cmd.OutOrStdout()
			return a.emit(w, tasks, func() {
				if len(tasks) == 0 {
					fmt.Fprintln(w, "No tasks.")
					return
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTYPE\tTITLE\tMIN\tSTATUS")
				for _, t := range tasks {
					status := string(t.Status)
					if t.Recurring {
						status += " (daily)"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", t.ID, t.Kind, truncate(t.Title, titleWidth()), t.Minutes, status)
				}
				tw.Flush()
			})
		},
	}

	cmd.Flags().StringVarP(&kind, "type", "t", "", "Only this type: goal, mind or body")
	return cmd
}

func taskDoneCmd(a *app) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "done <task-id>",
		Short: "Mark a task done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := core.ParseItemKind(kind)
			if err != nil {
				return err
			}

			ctx := a.ctx(cmd)
			today := a.today(cmd)
			if k == core.KindGoal {
				err = a.stores.Goals.SetTaskStatus(ctx, args[0], core.TaskStatusCompleted)
			} else {
				store, serr := a.stores.Daily(k)
				if serr != nil {
					return serr
				}
				err = store.Complete(ctx, args[0], today)
			}
			if err != nil {
				return err
			}
			a.record(a.audit.TaskCompleted(ctx, a.userID(), k, args[0], today.Format(core.DateLayout)))
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s done\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "type", "t", string(core.KindMind), "Task type: goal, mind or body")
	return cmd
}

// today is the current date in the profile's timezone, or local time
// when no profile exists.
func (a *app) today(cmd *cobra.Command) time.Time {
	loc := time.Local
	if p, err := a.stores.Profiles.GetProfile(a.ctx(cmd), a.userID()); err == nil {
		loc = p.Location()
	}
	return a.now().In(loc)
}

func dateOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(core.DateLayout)
}
