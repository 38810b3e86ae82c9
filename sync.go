package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// tournamentFetcher is the part of TournamentSource the pipeline needs.
type tournamentFetcher interface {
	FetchIndex(ctx context.Context) (*APIIndex, error)
	FetchTournaments(ctx context.Context, sourceID string) ([]byte, error)
}

// Pipeline runs fetch → standardize → process → reconcile for each source in
// turn. A failing source is logged and the next one proceeds.
type Pipeline struct {
	config     *Config
	source     tournamentFetcher
	adapters   *AdapterRegistry
	reconciler *Reconciler
	metrics    *Metrics
	now        func() time.Time
}

func NewPipeline(config *Config, source tournamentFetcher, adapters *AdapterRegistry, reconciler *Reconciler, metrics *Metrics) *Pipeline {
	return &Pipeline{
		config:     config,
		source:     source,
		adapters:   adapters,
		reconciler: reconciler,
		metrics:    metrics,
		now:        time.Now,
	}
}

type SourceReport struct {
	SourceID string
	Result   SyncResult
	Err      error
}

// Run processes the given sources, or every source in the API index when
// none are given. Only a failure to read the index is returned as an error.
func (p *Pipeline) Run(ctx context.Context, sourceIDs []string) ([]SourceReport, error) {
	log.Info("🚀 Starting calendar synchronization...")

	if len(sourceIDs) == 0 {
		index, err := p.source.FetchIndex(ctx)
		if err != nil {
			return nil, fmt.Errorf("discover sources: %w", err)
		}
		sourceIDs = index.SourceIDs()
		log.WithField("sources", sourceIDs).Info("No sources specified, processing all available sources")
	}

	reports := make([]SourceReport, 0, len(sourceIDs))
	for _, sourceID := range sourceIDs {
		result, err := p.syncSource(ctx, sourceID)
		if err != nil {
			log.WithError(err).WithField("source", sourceID).Error("❌ Source processing failed")
		} else if result.CalendarID != "" {
			log.WithFields(log.Fields{
				"source":      sourceID,
				"calendar_id": result.CalendarID,
				"placeholder": result.Placeholder,
			}).Info("✅ Calendar created/updated")
		}
		reports = append(reports, SourceReport{SourceID: sourceID, Result: result, Err: err})
	}

	p.metrics.RunFinished(p.now())
	log.Info("Calendar synchronization completed")
	return reports, nil
}

func (p *Pipeline) syncSource(ctx context.Context, sourceID string) (SyncResult, error) {
	log.WithField("source", sourceID).Info("📥 Processing tournaments")

	set, err := p.Preview(ctx, sourceID)
	if err != nil {
		return SyncResult{SourceID: sourceID}, err
	}

	result, err := p.reconciler.Sync(p.config.Profile(sourceID), set)
	if err != nil {
		stage := "reconcile"
		if errors.Is(err, ErrFatalConfig) {
			stage = "validate"
		}
		p.metrics.SourceFailed(sourceID, stage)
		return result, err
	}
	return result, nil
}

// Preview fetches, standardizes and processes one source without touching
// any calendar.
func (p *Pipeline) Preview(ctx context.Context, sourceID string) (ProcessedSet, error) {
	adapter, ok := p.adapters.Get(sourceID)
	if !ok {
		p.metrics.SourceFailed(sourceID, "adapter")
		return ProcessedSet{}, fmt.Errorf("no adapter registered for source %s", sourceID)
	}

	raw, err := p.source.FetchTournaments(ctx, sourceID)
	if err != nil {
		p.metrics.SourceFailed(sourceID, "fetch")
		return ProcessedSet{}, err
	}

	set := processTournaments(adapter.Standardize(raw), p.now())
	p.metrics.TournamentsProcessed(sourceID, set.Count)
	log.WithFields(log.Fields{"source": sourceID, "count": set.Count, "months": len(set.TournamentsByMonth)}).
		Info("Processed tournaments")
	return set, nil
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [source...]",
		Short: "Sync tournaments of the given sources (all sources when none given)",
		Long: `Fetch, normalize and reconcile tournaments into one calendar per source.
Failures of individual sources are logged and do not change the exit status.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return syncCalendars(cmd.Context(), args)
		},
	}
}

func syncCalendars(ctx context.Context, sourceIDs []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	pipeline, err := a.pipeline(ctx)
	if err != nil {
		return err
	}
	_, err = pipeline.Run(ctx, sourceIDs)
	return err
}
