package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDedupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dedup <source|calendar-id>",
		Short: "Remove duplicate events from a calendar, keeping the first of each",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			provider, err := a.requireProvider(cmd.Context())
			if err != nil {
				return err
			}

			calendarID := a.resolveCalendarArg(args[0])
			result, err := NewReconciler(provider, a.store, a.metrics).Dedup(calendarID)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d duplicate events, kept %d unique events\n", result.Removed, result.Kept)
			if result.Failed > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "❗️ %d duplicates could not be deleted\n", result.Failed)
			}
			return nil
		},
	}
}
