package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type fakeGoogleAPI struct {
	inserted []*calendar.Event
	queries  []url.Values
}

func (f *fakeGoogleAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/calendars/cal1/events":
		var event calendar.Event
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.inserted = append(f.inserted, &event)
		json.NewEncoder(w).Encode(calendar.Event{Id: "evt1"})
	case r.Method == http.MethodGet && r.URL.Path == "/calendars/cal1/events":
		f.queries = append(f.queries, r.URL.Query())
		json.NewEncoder(w).Encode(calendar.Events{Items: []*calendar.Event{{
			Id:         "evt1",
			Summary:    "Malaysia Open",
			Start:      &calendar.EventDateTime{Date: "2025-01-07"},
			End:        &calendar.EventDateTime{Date: "2025-01-13"},
			Visibility: "public",
			Source:     &calendar.EventSource{Title: "BWF Calendar", Url: "https://example.com"},
		}}})
	case r.URL.Path == "/calendars/gone/events" || r.URL.Path == "/users/me/calendarList/gone":
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":404,"message":"Not Found"}}`))
	default:
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"Forbidden"}}`))
	}
}

func newTestGoogleProvider(t *testing.T) (*GoogleCalendarProvider, *fakeGoogleAPI) {
	t.Helper()
	api := &fakeGoogleAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	g, err := NewGoogleCalendarProvider(context.Background(), srv.Client(), "UTC", option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	return g, api
}

func TestGoogleCalendarProvider_AddEvent(t *testing.T) {
	g, api := newTestGoogleProvider(t)
	tour := tournament("Malaysia Open", day(2025, 1, 7), day(2025, 1, 12))
	tour.URL = "https://example.com"

	id, err := g.AddEvent("cal1", eventFromTournament(tour, bwfProfile()))

	require.NoError(t, err)
	assert.Equal(t, "evt1", id)
	require.Len(t, api.inserted, 1)
	got := api.inserted[0]
	assert.Equal(t, "Malaysia Open", got.Summary)
	assert.Equal(t, "2025-01-07", got.Start.Date)
	assert.Equal(t, "2025-01-13", got.End.Date)
	assert.Empty(t, got.Start.DateTime)
	assert.Equal(t, "transparent", got.Transparency)
	assert.Equal(t, "public", got.Visibility)
	require.NotNil(t, got.Source)
	assert.Equal(t, "BWF Calendar", got.Source.Title)
}

func TestGoogleCalendarProvider_FindEvents(t *testing.T) {
	g, api := newTestGoogleProvider(t)
	event := eventFromTournament(tournament("Malaysia Open", day(2025, 1, 7), day(2025, 1, 12)), bwfProfile())

	found, err := g.FindEvents("cal1", event.Summary, event.Start, event.End)

	require.NoError(t, err)
	require.Len(t, api.queries, 1)
	assert.Equal(t, "Malaysia Open", api.queries[0].Get("q"))
	assert.Equal(t, "2025-01-07T00:00:00Z", api.queries[0].Get("timeMin"))
	assert.Equal(t, "2025-01-13T00:00:00Z", api.queries[0].Get("timeMax"))

	require.Len(t, found, 1)
	key, ok := found[0].Key()
	require.True(t, ok)
	assert.Equal(t, event.Summary, key.Name)
	assert.Equal(t, "2025-01-12", key.End)
	assert.True(t, found[0].Public)
	assert.Equal(t, "https://example.com", found[0].SourceURL)
}

func TestGoogleCalendarProvider_ErrorMapping(t *testing.T) {
	g, _ := newTestGoogleProvider(t)

	_, err := g.GetCalendar("gone")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = g.ListEvents("gone")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = g.ListCalendars()
	assert.ErrorIs(t, err, ErrAuthFailure)
}
