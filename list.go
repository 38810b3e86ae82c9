package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// CalendarListing is a cached calendar with its subscription links.
type CalendarListing struct {
	CalendarRecord
	PublicURL string `json:"publicUrl"`
	ICalURL   string `json:"icalUrl"`
}

func listCalendars(store *CalendarStore) ([]CalendarListing, error) {
	records, err := store.List()
	if err != nil {
		return nil, err
	}
	listings := make([]CalendarListing, 0, len(records))
	for _, r := range records {
		l := CalendarListing{CalendarRecord: r}
		if r.Provider == "google" {
			l.PublicURL = publicURL(r.CalendarID)
			l.ICalURL = icalURL(r.CalendarID)
		}
		listings = append(listings, l)
	}
	return listings, nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the calendars created for each source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			listings, err := listCalendars(a.store)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(listings) == 0 {
				fmt.Fprintln(out, "No calendars yet, run `tourneysync sync` first")
				return nil
			}
			fmt.Fprintln(out, "📋 Here's the list of tournament calendars:")
			for _, l := range listings {
				fmt.Fprintf(out, "  🏸 %s (📅 %s) %s\n", l.SourceID, l.CalendarName, l.CalendarID)
				if l.PublicURL != "" {
					fmt.Fprintf(out, "      Public URL: %s\n      iCal URL:   %s\n", l.PublicURL, l.ICalURL)
				}
			}
			return nil
		},
	}
}
