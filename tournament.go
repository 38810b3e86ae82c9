package main

import (
	"encoding/json"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// isoLayout is the fixed re-emission format for tournament timestamps.
const isoLayout = "2006-01-02T15:04:05.000Z"

const dayLayout = "2006-01-02"

type Location struct {
	Venue   string `json:"venue"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// String joins the non-blank parts as "venue, city, country".
func (l Location) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.Venue, l.City, l.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Tournament is the canonical, source-agnostic tournament record.
// DateStart and DateEnd are nil when the source date could not be parsed.
type Tournament struct {
	ID          string     `json:"id"`
	Name        string     `json:"name" validate:"required"`
	Location    Location   `json:"location"`
	DateStart   *time.Time `json:"-" validate:"required"`
	DateEnd     *time.Time `json:"-" validate:"required"`
	Category    string     `json:"category"`
	Level       string     `json:"level"`
	Prize       string     `json:"prize"`
	URL         string     `json:"url"`
	Description string     `json:"description"`
	Source      string     `json:"source"`
	LastUpdated time.Time  `json:"-"`
}

type tournamentJSON struct {
	tournamentAlias
	DateStart   *string `json:"dateStart"`
	DateEnd     *string `json:"dateEnd"`
	LastUpdated string  `json:"lastUpdated"`
}

type tournamentAlias Tournament

func (t Tournament) MarshalJSON() ([]byte, error) {
	return json.Marshal(tournamentJSON{
		tournamentAlias: tournamentAlias(t),
		DateStart:       formatISOPtr(t.DateStart),
		DateEnd:         formatISOPtr(t.DateEnd),
		LastUpdated:     formatISO(t.LastUpdated),
	})
}

func (t *Tournament) UnmarshalJSON(data []byte) error {
	var aux tournamentJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*t = Tournament(aux.tournamentAlias)
	t.DateStart = parseISOPtr(aux.DateStart)
	t.DateEnd = parseISOPtr(aux.DateEnd)
	if aux.LastUpdated != "" {
		if ts, err := parseTimeFlexible(aux.LastUpdated); err == nil {
			t.LastUpdated = ts
		}
	}
	return nil
}

// Valid reports whether the record may reach the reconciler.
func (t Tournament) Valid() bool {
	return t.DateStart != nil && t.DateEnd != nil &&
		!t.DateEnd.Before(*t.DateStart) && strings.TrimSpace(t.Name) != ""
}

// Key returns the dedup identity of the tournament.
func (t Tournament) Key() EventKey {
	return newEventKey(t.Name, *t.DateStart, *t.DateEnd)
}

// EventKey identifies a calendar event by name and the days it covers.
// End is the inclusive last day.
type EventKey struct {
	Name  string
	Start string
	End   string
}

func newEventKey(name string, start, end time.Time) EventKey {
	return EventKey{
		Name:  normalizeName(name),
		Start: start.UTC().Format(dayLayout),
		End:   end.UTC().Format(dayLayout),
	}
}

func (k EventKey) String() string {
	return k.Name + "-" + k.Start + "-" + k.End
}

// normalizeName applies NFC, trims, and collapses whitespace runs.
// Case is preserved.
func normalizeName(name string) string {
	return strings.Join(strings.Fields(norm.NFC.String(name)), " ")
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func formatISO(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(isoLayout)
}

func formatISOPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatISO(*t)
	return &s
}

func parseISOPtr(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := parseTimeFlexible(*s)
	if err != nil {
		return nil
	}
	return &t
}
