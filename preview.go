package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newPreviewCmd() *cobra.Command {
	var input, canonical string

	cmd := &cobra.Command{
		Use:   "preview [source]",
		Short: "Print the processed tournament set without touching any calendar",
		Long: `Fetch and standardize a source, then print the sorted and month-grouped set as JSON.
--input reads the raw source payload from a file instead of the API.
--canonical processes a file holding an array of canonical tournaments.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var set ProcessedSet
			switch {
			case canonical != "":
				data, err := os.ReadFile(canonical)
				if err != nil {
					return err
				}
				set, err = processJSON(data, time.Now())
				if err != nil {
					return err
				}

			case len(args) == 0:
				return fmt.Errorf("a source id is required")

			case input != "":
				adapters, err := newAdapterRegistry(a.config)
				if err != nil {
					return err
				}
				adapter, ok := adapters.Get(args[0])
				if !ok {
					return fmt.Errorf("no adapter registered for source %s", args[0])
				}
				raw, err := os.ReadFile(input)
				if err != nil {
					return err
				}
				set = processTournaments(adapter.Standardize(raw), time.Now())

			default:
				pipeline, err := a.pipeline(cmd.Context())
				if err != nil {
					return err
				}
				set, err = pipeline.Preview(cmd.Context(), args[0])
				if err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(set)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "raw source payload file")
	cmd.Flags().StringVar(&canonical, "canonical", "", "file with an array of canonical tournaments")
	return cmd
}
