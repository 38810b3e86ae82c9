package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"
)

const caldavProductID = "-//tourneysync//EN"

type CalDAVProvider struct {
	client  *caldav.Client
	ctx     context.Context
	homeSet string
}

func NewCalDAVProvider(ctx context.Context, config CalDAVConfig) (*CalDAVProvider, error) {
	baseURL, err := url.Parse(config.ServerURL)
	if err != nil || config.ServerURL == "" {
		return nil, fmt.Errorf("invalid CalDAV server URL %q: %v", config.ServerURL, err)
	}

	var httpClient webdav.HTTPClient = http.DefaultClient
	if config.Username != "" && config.Password != "" {
		httpClient = webdav.HTTPClientWithBasicAuth(httpClient, config.Username, config.Password)
	}

	c, err := caldav.NewClient(httpClient, baseURL.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create CalDAV client: %w", err)
	}

	homeSet := config.HomeSet
	if homeSet == "" {
		principal, err := c.FindCurrentUserPrincipal(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to find CalDAV principal: %v", ErrAuthFailure, err)
		}
		homeSet, err = c.FindCalendarHomeSet(ctx, principal)
		if err != nil {
			return nil, fmt.Errorf("failed to find CalDAV calendar home set: %w", err)
		}
	}

	return &CalDAVProvider{
		client:  c,
		ctx:     ctx,
		homeSet: homeSet,
	}, nil
}

func (c *CalDAVProvider) Kind() string {
	return "caldav"
}

func (c *CalDAVProvider) GetCalendar(calendarID string) (*Calendar, error) {
	calendars, err := c.ListCalendars()
	if err != nil {
		return nil, err
	}
	for _, cal := range calendars {
		if cal.ID == calendarID {
			return cal, nil
		}
	}
	return nil, fmt.Errorf("calendar %s: %w", calendarID, ErrNotFound)
}

func (c *CalDAVProvider) ListCalendars() ([]*Calendar, error) {
	calendars, err := c.client.FindCalendars(c.ctx, c.homeSet)
	if err != nil {
		return nil, fmt.Errorf("failed to find calendars: %w", err)
	}
	result := make([]*Calendar, 0, len(calendars))
	for _, cal := range calendars {
		result = append(result, &Calendar{
			ID:          cal.Path,
			Summary:     cal.Name,
			Description: cal.Description,
		})
	}
	return result, nil
}

// CreateCalendar is not available over CalDAV here; calendars must exist on
// the server already.
func (c *CalDAVProvider) CreateCalendar(cal *Calendar) (string, error) {
	return "", fmt.Errorf("creating calendar %q is not supported by the CalDAV provider", cal.Summary)
}

// CalDAV has no calendar color or ACL model the server must honor.
func (c *CalDAVProvider) SetCalendarColor(calendarID string, colorID string) error {
	return nil
}

func (c *CalDAVProvider) SharePublicly(calendarID string) error {
	return nil
}

func (c *CalDAVProvider) FindEvents(calendarID string, query string, timeMin, timeMax time.Time) ([]*Event, error) {
	events, err := c.queryEvents(calendarID, caldav.CompFilter{
		Name:  ical.CompEvent,
		Start: timeMin,
		End:   timeMax,
	})
	if err != nil {
		return nil, err
	}

	// Server-side text-match support varies, so match the summary here.
	needle := strings.ToLower(normalizeName(query))
	var result []*Event
	for _, event := range events {
		if strings.Contains(strings.ToLower(normalizeName(event.Summary)), needle) {
			result = append(result, event)
		}
	}
	return result, nil
}

func (c *CalDAVProvider) ListEvents(calendarID string) ([]*Event, error) {
	return c.queryEvents(calendarID, caldav.CompFilter{Name: ical.CompEvent})
}

func (c *CalDAVProvider) queryEvents(calendarID string, filter caldav.CompFilter) ([]*Event, error) {
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     ical.CompCalendar,
			AllProps: true,
			AllComps: true,
		},
		CompFilter: caldav.CompFilter{
			Name:  ical.CompCalendar,
			Comps: []caldav.CompFilter{filter},
		},
	}

	objects, err := c.client.QueryCalendar(c.ctx, calendarID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	var result []*Event
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		for _, comp := range obj.Data.Children {
			if comp.Name != ical.CompEvent {
				continue
			}
			event := fromICalEvent(comp)
			event.ID = obj.Path
			result = append(result, event)
		}
	}
	return result, nil
}

func (c *CalDAVProvider) AddEvent(calendarID string, event *Event) (string, error) {
	eventUID := "tourneysync-" + uuid.NewString()

	icalEvent := ical.NewEvent()
	icalEvent.Props.SetText(ical.PropUID, eventUID)
	icalEvent.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	icalEvent.Props.SetText(ical.PropSummary, event.Summary)
	icalEvent.Props.SetText(ical.PropDescription, event.Description)
	if event.Location != "" {
		icalEvent.Props.SetText(ical.PropLocation, event.Location)
	}
	if event.AllDay {
		icalEvent.Props.SetDate(ical.PropDateTimeStart, event.Start)
		icalEvent.Props.SetDate(ical.PropDateTimeEnd, event.End)
	} else {
		icalEvent.Props.SetDateTime(ical.PropDateTimeStart, event.Start)
		icalEvent.Props.SetDateTime(ical.PropDateTimeEnd, event.End)
	}
	icalEvent.Props.SetText(ical.PropTransparency, "TRANSPARENT")
	icalEvent.Props.SetText(ical.PropStatus, "CONFIRMED")
	if event.Public {
		icalEvent.Props.SetText(ical.PropClass, "PUBLIC")
	}
	if event.SourceURL != "" {
		prop := ical.NewProp(ical.PropURL)
		prop.Value = event.SourceURL
		icalEvent.Props.Set(prop)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, caldavProductID)
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Children = append(cal.Children, icalEvent.Component)

	objectPath := path.Join(calendarID, eventUID+".ics")
	obj, err := c.client.PutCalendarObject(c.ctx, objectPath, cal)
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}
	if obj != nil && obj.Path != "" {
		return obj.Path, nil
	}
	return objectPath, nil
}

// DeleteEvent removes the calendar object; eventID is the object path.
func (c *CalDAVProvider) DeleteEvent(calendarID string, eventID string) error {
	objectPath := eventID
	if !strings.HasPrefix(eventID, "/") {
		objectPath = path.Join(calendarID, eventID+".ics")
	}
	if err := c.client.RemoveAll(c.ctx, objectPath); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

func fromICalEvent(comp *ical.Component) *Event {
	event := &Event{
		Summary:     getTextProp(comp.Props, ical.PropSummary),
		Location:    getTextProp(comp.Props, ical.PropLocation),
		Description: getTextProp(comp.Props, ical.PropDescription),
		Public:      strings.EqualFold(getTextProp(comp.Props, ical.PropClass), "PUBLIC"),
		SourceURL:   getTextProp(comp.Props, ical.PropURL),
	}

	status := getTextProp(comp.Props, ical.PropStatus)
	if status == "" {
		status = "confirmed"
	}
	event.Status = strings.ToLower(status)

	if prop := comp.Props.Get(ical.PropDateTimeStart); prop != nil {
		event.AllDay = prop.ValueType() == ical.ValueDate || len(prop.Value) == len("20060102")
	}
	event.Start, _ = comp.Props.DateTime(ical.PropDateTimeStart, time.UTC)
	event.End, _ = comp.Props.DateTime(ical.PropDateTimeEnd, time.UTC)
	if event.End.IsZero() && event.AllDay {
		event.End = event.Start.AddDate(0, 0, 1)
	}
	return event
}

func getTextProp(props ical.Props, name string) string {
	prop := props.Get(name)
	if prop == nil {
		return ""
	}
	return prop.Value
}
