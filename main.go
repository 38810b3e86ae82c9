package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tourneysync",
		Short:         "Sync sports tournament listings into calendars",
		Long:          `tourneysync fetches tournament feeds, normalizes them and keeps one calendar per source up to date without creating duplicate events.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default .tourneysync.toml)")

	root.AddCommand(
		newSyncCmd(),
		newPreviewCmd(),
		newDedupCmd(),
		newClearCmd(),
		newListCmd(),
		newForgetCmd(),
		newAuthCmd(),
		newServeCmd(),
		newScheduleCmd(),
	)
	return root
}

// app bundles what every command needs: config, cache database and metrics.
type app struct {
	config  *Config
	db      *sql.DB
	store   *CalendarStore
	metrics *Metrics
}

func openApp() (*app, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	setupLogging(config)

	db, err := openDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	return &app{
		config:  config,
		db:      db,
		store:   NewCalendarStore(db),
		metrics: NewMetrics(),
	}, nil
}

func (a *app) Close() {
	if err := a.metrics.WriteTextfile(a.config.MetricsTextfile); err != nil {
		log.WithError(err).Warn("Failed to write metrics textfile")
	}
	a.db.Close()
}

// provider returns nil, without error, when the calendar cannot be
// authenticated.
func (a *app) provider(ctx context.Context) (CalendarProvider, error) {
	provider, err := NewCalendarFactory(ctx, a.config, a.db).CreateCalendarProvider()
	if errors.Is(err, ErrAuthFailure) {
		log.WithError(err).Warn("Calendar authentication failed. To create calendars, please set up calendar credentials.")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return provider, nil
}

// requireProvider is provider for commands that cannot degrade.
func (a *app) requireProvider(ctx context.Context) (CalendarProvider, error) {
	provider, err := NewCalendarFactory(ctx, a.config, a.db).CreateCalendarProvider()
	if err != nil {
		return nil, fmt.Errorf("error creating calendar provider: %w", err)
	}
	return provider, nil
}

func (a *app) pipeline(ctx context.Context) (*Pipeline, error) {
	provider, err := a.provider(ctx)
	if err != nil {
		return nil, err
	}
	adapters, err := newAdapterRegistry(a.config)
	if err != nil {
		return nil, err
	}
	source := NewTournamentSource(a.config.APIBaseURL, 30*time.Second)
	reconciler := NewReconciler(provider, a.store, a.metrics)
	return NewPipeline(a.config, source, adapters, reconciler, a.metrics), nil
}

// resolveCalendarArg maps a source id to its cached calendar id; anything
// else is taken as a calendar id.
func (a *app) resolveCalendarArg(arg string) string {
	if calendarID, err := a.store.Lookup(arg); err == nil && calendarID != "" {
		return calendarID
	}
	return arg
}
