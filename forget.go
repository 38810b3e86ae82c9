package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <source>",
		Short: "Drop the cached calendar id of a source",
		Long:  `Drop the cached calendar id of a source. The calendar itself is left untouched and is found again by name on the next sync.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			deleted, err := a.store.Delete(args[0])
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Fprintf(cmd.OutOrStdout(), "❌ No cached calendar for %s\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Forgot calendar of %s\n", args[0])
			return nil
		},
	}
}
