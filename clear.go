package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear <source|calendar-id>",
		Short: "Delete every event from a calendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			calendarID := a.resolveCalendarArg(args[0])
			if !yes {
				fmt.Fprintf(cmd.OutOrStdout(), "⚠️  Delete all events from %s? (y/N): ", calendarID)
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if answer = strings.TrimSpace(answer); answer != "y" && answer != "Y" {
					fmt.Fprintln(cmd.OutOrStdout(), "❌ Clear cancelled")
					return nil
				}
			}

			provider, err := a.requireProvider(cmd.Context())
			if err != nil {
				return err
			}
			deleted, err := NewReconciler(provider, a.store, a.metrics).Clear(calendarID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Deleted %d events from %s\n", deleted, calendarID)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
