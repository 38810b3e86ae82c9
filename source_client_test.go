package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIndex = `{"apis":[
	{"id":"bwf","name":"BWF","endpoints":[
		{"name":"rankings","description":"World rankings","url":"/api/bwf/rankings.json"},
		{"name":"calendar","description":"Tournament calendar","url":"/api/bwf/tournaments.json"}
	]},
	{"id":"fifa","name":"FIFA","endpoints":[
		{"name":"tournaments","url":"%s/external/fifa.json"}
	]},
	{"id":"nba","name":"NBA","endpoints":[{"name":"teams","url":"/api/nba/teams.json"}]}
]}`

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/api/index.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, testIndex, srv.URL)
	})
	mux.HandleFunc("/api/bwf/tournaments.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":{}}`))
	})
	mux.HandleFunc("/external/fifa.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestTournamentSource_FetchIndex(t *testing.T) {
	srv := newTestAPI(t)
	source := NewTournamentSource(srv.URL+"/", 5*time.Second)

	index, err := source.FetchIndex(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"bwf", "fifa", "nba"}, index.SourceIDs())

	ep, ok := index.APIs[0].TournamentEndpoint()
	require.True(t, ok)
	assert.Equal(t, "/api/bwf/tournaments.json", ep.URL)

	_, ok = index.APIs[2].TournamentEndpoint()
	assert.False(t, ok)
}

func TestTournamentSource_FetchTournaments(t *testing.T) {
	srv := newTestAPI(t)
	source := NewTournamentSource(srv.URL, 5*time.Second)
	ctx := context.Background()

	body, err := source.FetchTournaments(ctx, "bwf")
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":{}}`, string(body))

	body, err = source.FetchTournaments(ctx, "fifa")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(body))

	_, err = source.FetchTournaments(ctx, "nba")
	assert.ErrorContains(t, err, "tournament endpoint for nba not found")

	_, err = source.FetchTournaments(ctx, "cricket")
	assert.ErrorContains(t, err, "not found in the API index")
}

func TestTournamentSource_RemoteFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewTournamentSource(srv.URL, 5*time.Second).FetchIndex(context.Background())

	var fetchErr *RemoteFetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusServiceUnavailable, fetchErr.StatusCode)
	assert.Equal(t, srv.URL+"/api/index.json", fetchErr.URL)
}

func TestTournamentSource_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewTournamentSource(url, time.Second).FetchIndex(context.Background())

	var fetchErr *RemoteFetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Zero(t, fetchErr.StatusCode)
	assert.Error(t, fetchErr.Unwrap())
}

func TestTournamentSource_InvalidIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"apis":[{"name":"no id","endpoints":[]}]}`))
	}))
	defer srv.Close()

	_, err := NewTournamentSource(srv.URL, time.Second).FetchIndex(context.Background())

	assert.ErrorContains(t, err, "invalid API index")
}
