package main

import (
	"strings"
	"time"
)

// CalendarProvider is the calendar service the reconciler writes to.
type CalendarProvider interface {
	Kind() string
	GetCalendar(calendarID string) (*Calendar, error)
	ListCalendars() ([]*Calendar, error)
	CreateCalendar(cal *Calendar) (string, error)
	SetCalendarColor(calendarID string, colorID string) error
	SharePublicly(calendarID string) error
	// FindEvents is an approximate search: events overlapping
	// [timeMin, timeMax) whose text matches query.
	FindEvents(calendarID string, query string, timeMin, timeMax time.Time) ([]*Event, error)
	// ListEvents returns every event in provider order.
	ListEvents(calendarID string) ([]*Event, error)
	AddEvent(calendarID string, event *Event) (string, error)
	DeleteEvent(calendarID string, eventID string) error
}

type Calendar struct {
	ID          string
	Summary     string
	Description string
	TimeZone    string
}

// Event is an all-day calendar entry. End is exclusive.
type Event struct {
	ID          string
	Summary     string
	Location    string
	Description string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Public      bool
	SourceTitle string
	SourceURL   string
	Status      string
}

// Key returns the dedup identity of an all-day event with a summary.
func (e *Event) Key() (EventKey, bool) {
	if strings.TrimSpace(e.Summary) == "" || !e.AllDay || e.Start.IsZero() {
		return EventKey{}, false
	}
	last := e.End.AddDate(0, 0, -1)
	if e.End.IsZero() || last.Before(e.Start) {
		last = e.Start
	}
	return newEventKey(e.Summary, e.Start, last), true
}

// eventFromTournament builds the all-day event for a tournament.
func eventFromTournament(t Tournament, profile SourceProfile) *Event {
	start := truncateDay(*t.DateStart)
	end := truncateDay(*t.DateEnd).AddDate(0, 0, 1)
	return &Event{
		Summary:     normalizeName(t.Name),
		Location:    t.Location.String(),
		Description: t.Description,
		Start:       start,
		End:         end,
		AllDay:      true,
		Public:      profile.IsPublic(),
		SourceTitle: profile.SourceName + " Calendar",
		SourceURL:   t.URL,
		Status:      "confirmed",
	}
}
