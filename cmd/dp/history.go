package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quantumlife/dayplan/internal/ledger"
)

func historyCmd(a *app) *cobra.Command {
	var (
		limit  int
		verify bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded activity, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.ctx(cmd)
			w := cmd.OutOrStdout()

			if verify {
				summary, err := a.ledger.GetSummary(ctx)
				if err != nil {
					return err
				}
				if err := a.emit(w, summary, func() {
					if summary.ChainValid {
						fmt.Fprintf(w, "Ledger intact: %d entries\n", summary.TotalEntries)
					} else {
						fmt.Fprintf(w, "Ledger BROKEN: %s\n", summary.ChainError)
					}
				}); err != nil {
					return err
				}
				if !summary.ChainValid {
					return fmt.Errorf("ledger verification failed")
				}
				return nil
			}

			entries, err := a.ledger.Query(ctx, ledger.QueryOptions{UserID: a.userID(), Limit: limit})
			if err != nil {
				return err
			}
			return a.emit(w, entries, func() {
				if len(entries) == 0 {
					fmt.Fprintln(w, "No activity yet.")
					return
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "WHEN\tACTION\tENTITY\tDETAILS")
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
						e.Timestamp.Local().Format("2006-01-02 15:04"), e.Action, e.EntityID,
						truncate(e.Details, titleWidth()))
				}
				tw.Flush()
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries (0 for all)")
	cmd.Flags().BoolVar(&verify, "verify", false, "Verify the hash chain instead of listing")
	return cmd
}
