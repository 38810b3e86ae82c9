package main

import (
	"testing"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromICalEvent_AllDay(t *testing.T) {
	e := ical.NewEvent()
	e.Props.SetText(ical.PropUID, "uid-1")
	e.Props.SetText(ical.PropSummary, "Malaysia Open")
	e.Props.SetText(ical.PropLocation, "Kuala Lumpur")
	e.Props.SetDate(ical.PropDateTimeStart, *day(2025, 1, 7))
	e.Props.SetDate(ical.PropDateTimeEnd, *day(2025, 1, 13))
	e.Props.SetText(ical.PropClass, "PUBLIC")

	event := fromICalEvent(e.Component)

	assert.Equal(t, "Malaysia Open", event.Summary)
	assert.Equal(t, "Kuala Lumpur", event.Location)
	assert.True(t, event.AllDay)
	assert.True(t, event.Public)
	assert.Equal(t, "confirmed", event.Status)

	key, ok := event.Key()
	require.True(t, ok)
	assert.Equal(t, EventKey{Name: "Malaysia Open", Start: "2025-01-07", End: "2025-01-12"}, key)
}

func TestFromICalEvent_MissingEnd(t *testing.T) {
	e := ical.NewEvent()
	e.Props.SetText(ical.PropSummary, "Final")
	e.Props.SetDate(ical.PropDateTimeStart, *day(2025, 12, 14))

	event := fromICalEvent(e.Component)

	assert.Equal(t, *day(2025, 12, 15), event.End)
	key, ok := event.Key()
	require.True(t, ok)
	assert.Equal(t, "2025-12-14", key.End)
}

func TestCalDAVProvider_CannotCreateCalendars(t *testing.T) {
	_, err := (&CalDAVProvider{}).CreateCalendar(&Calendar{Summary: "BWF Badminton Tournaments"})
	assert.ErrorContains(t, err, "not supported")
}
