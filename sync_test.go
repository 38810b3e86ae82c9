package main

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	index    *APIIndex
	indexErr error
	payloads map[string][]byte
	errs     map[string]error
}

func (f *fakeFetcher) FetchIndex(ctx context.Context) (*APIIndex, error) {
	if f.indexErr != nil {
		return nil, f.indexErr
	}
	return f.index, nil
}

func (f *fakeFetcher) FetchTournaments(ctx context.Context, sourceID string) ([]byte, error) {
	if err := f.errs[sourceID]; err != nil {
		return nil, err
	}
	return f.payloads[sourceID], nil
}

func newTestPipeline(t *testing.T, fetcher *fakeFetcher, provider CalendarProvider) (*Pipeline, *Metrics) {
	t.Helper()
	config := defaultConfig()
	config.Sources["fifa"] = SourceProfile{CalendarName: "FIFA Tournaments"}
	config.Sources["atp"] = SourceProfile{}

	adapters, err := newAdapterRegistry(config)
	require.NoError(t, err)
	metrics := NewMetrics()
	p := NewPipeline(config, fetcher, adapters, NewReconciler(provider, newMemoryCache(), metrics), metrics)
	p.now = func() time.Time { return fixedNow }
	return p, metrics
}

func TestPipeline_RunAllSourcesFromIndex(t *testing.T) {
	fetcher := &fakeFetcher{
		index: &APIIndex{APIs: []APIEntry{{ID: "bwf"}, {ID: "fifa"}, {ID: "atp"}}},
		payloads: map[string][]byte{
			"bwf":  []byte(`{"results":{"January":{"0":{"name":"Open","start_date":"2025-01-10","end_date":"2025-01-12"}}}}`),
			"fifa": []byte(`{"tournaments":[{"name":"Club World Cup","start_date":"2025-06-14","end_date":"2025-07-13"}]}`),
		},
		errs: map[string]error{
			"atp": &RemoteFetchError{URL: "http://example.com/atp", StatusCode: 500},
		},
	}
	provider := newFakeProvider()
	p, metrics := newTestPipeline(t, fetcher, provider)

	reports, err := p.Run(context.Background(), nil)

	require.NoError(t, err)
	require.Len(t, reports, 3)

	assert.Equal(t, "bwf", reports[0].SourceID)
	assert.NoError(t, reports[0].Err)
	assert.Equal(t, 1, reports[0].Result.Created)

	assert.Equal(t, "fifa", reports[1].SourceID)
	assert.NoError(t, reports[1].Err)
	assert.Equal(t, 1, reports[1].Result.Created)

	assert.Equal(t, "atp", reports[2].SourceID)
	var fetchErr *RemoteFetchError
	assert.ErrorAs(t, reports[2].Err, &fetchErr)

	require.Len(t, provider.calendars, 2)
	assert.Equal(t, "BWF Badminton Tournaments", provider.calendars[0].Summary)
	assert.Equal(t, "FIFA Tournaments", provider.calendars[1].Summary)

	fifaEvents := provider.events[provider.calendars[1].ID]
	require.Len(t, fifaEvents, 1)
	assert.Contains(t, fifaEvents[0].Description, "FIFA Tournament")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.sourceFailures.WithLabelValues("atp", "fetch")))
	assert.Equal(t, float64(fixedNow.Unix()), testutil.ToFloat64(metrics.lastRun))
}

func TestPipeline_RunIndexFailure(t *testing.T) {
	fetcher := &fakeFetcher{indexErr: fmt.Errorf("boom")}
	p, _ := newTestPipeline(t, fetcher, newFakeProvider())

	_, err := p.Run(context.Background(), nil)

	assert.Error(t, err)
}

func TestPipeline_RunUnknownSource(t *testing.T) {
	p, metrics := newTestPipeline(t, &fakeFetcher{}, newFakeProvider())

	reports, err := p.Run(context.Background(), []string{"cricket"})

	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.ErrorContains(t, reports[0].Err, "no adapter registered")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.sourceFailures.WithLabelValues("cricket", "adapter")))
}

func TestPipeline_RunWithoutProviderUsesPlaceholder(t *testing.T) {
	fetcher := &fakeFetcher{payloads: map[string][]byte{
		"bwf": []byte(`[{"name":"Open","start_date":"2025-01-10","end_date":"2025-01-12"}]`),
	}}
	p, _ := newTestPipeline(t, fetcher, nil)

	reports, err := p.Run(context.Background(), []string{"bwf"})

	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.NoError(t, reports[0].Err)
	assert.True(t, reports[0].Result.Placeholder)
	assert.Equal(t, "mock-calendar-bwf", reports[0].Result.CalendarID)
}

func TestPipeline_Preview(t *testing.T) {
	fetcher := &fakeFetcher{payloads: map[string][]byte{
		"bwf": []byte(`[
			{"name":"Late","start_date":"2025-02-03","end_date":"2025-02-08"},
			{"name":"Early","start_date":"2025-01-10","end_date":"2025-01-12"}
		]`),
	}}
	provider := newFakeProvider()
	p, metrics := newTestPipeline(t, fetcher, provider)

	set, err := p.Preview(context.Background(), "bwf")

	require.NoError(t, err)
	assert.Equal(t, 2, set.Count)
	assert.Equal(t, "Early", set.Tournaments[0].Name)
	assert.Equal(t, []string{"2025-01", "2025-02"}, set.Months())
	assert.Empty(t, provider.calendars)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.tournaments.WithLabelValues("bwf")))
}

func TestPipeline_RunSkipsReversedRangeAndKeepsTheRest(t *testing.T) {
	fetcher := &fakeFetcher{payloads: map[string][]byte{
		"bwf": []byte(`{"tournaments":[
			{"name":"Good One","start_date":"2025-01-10","end_date":"2025-01-12"},
			{"name":"Typo","start_date":"2025-02-10","end_date":"2025-02-08"},
			{"name":"Good Two","start_date":"2025-03-10","end_date":"2025-03-12"}
		]}`),
	}}
	provider := newFakeProvider()
	p, _ := newTestPipeline(t, fetcher, provider)

	reports, err := p.Run(context.Background(), []string{"bwf"})

	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.NoError(t, reports[0].Err)
	assert.Equal(t, 2, reports[0].Result.Created)

	require.Len(t, provider.calendars, 1)
	events := provider.events[provider.calendars[0].ID]
	require.Len(t, events, 2)
	assert.Equal(t, "Good One", events[0].Summary)
	assert.Equal(t, "Good Two", events[1].Summary)
}
