package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type GoogleCalendarProvider struct {
	service  *calendar.Service
	ctx      context.Context
	timeZone string
}

func NewGoogleCalendarProvider(ctx context.Context, client *http.Client, timeZone string, opts ...option.ClientOption) (*GoogleCalendarProvider, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &GoogleCalendarProvider{
		service:  service,
		ctx:      ctx,
		timeZone: timeZone,
	}, nil
}

func (g *GoogleCalendarProvider) Kind() string {
	return "google"
}

func (g *GoogleCalendarProvider) GetCalendar(calendarID string) (*Calendar, error) {
	entry, err := g.service.CalendarList.Get(calendarID).Context(g.ctx).Do()
	if err != nil {
		return nil, classifyAPIError("failed to get calendar", err)
	}
	return &Calendar{
		ID:          entry.Id,
		Summary:     entry.Summary,
		Description: entry.Description,
		TimeZone:    entry.TimeZone,
	}, nil
}

func (g *GoogleCalendarProvider) ListCalendars() ([]*Calendar, error) {
	var result []*Calendar
	pageToken := ""
	for {
		list, err := g.service.CalendarList.List().PageToken(pageToken).Context(g.ctx).Do()
		if err != nil {
			return nil, classifyAPIError("failed to list calendars", err)
		}
		for _, entry := range list.Items {
			result = append(result, &Calendar{
				ID:          entry.Id,
				Summary:     entry.Summary,
				Description: entry.Description,
				TimeZone:    entry.TimeZone,
			})
		}
		pageToken = list.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return result, nil
}

func (g *GoogleCalendarProvider) CreateCalendar(cal *Calendar) (string, error) {
	timeZone := cal.TimeZone
	if timeZone == "" {
		timeZone = g.timeZone
	}
	created, err := g.service.Calendars.Insert(&calendar.Calendar{
		Summary:     cal.Summary,
		Description: cal.Description,
		TimeZone:    timeZone,
	}).Context(g.ctx).Do()
	if err != nil {
		return "", classifyAPIError("failed to create calendar", err)
	}
	return created.Id, nil
}

func (g *GoogleCalendarProvider) SetCalendarColor(calendarID string, colorID string) error {
	_, err := g.service.CalendarList.Patch(calendarID, &calendar.CalendarListEntry{
		ColorId: colorID,
	}).Context(g.ctx).Do()
	if err != nil {
		return classifyAPIError("failed to set calendar color", err)
	}
	return nil
}

// SharePublicly grants read access to everyone via the default ACL scope.
func (g *GoogleCalendarProvider) SharePublicly(calendarID string) error {
	_, err := g.service.Acl.Insert(calendarID, &calendar.AclRule{
		Role:  "reader",
		Scope: &calendar.AclRuleScope{Type: "default"},
	}).Context(g.ctx).Do()
	if err != nil {
		return classifyAPIError("failed to update calendar access", err)
	}
	return nil
}

func (g *GoogleCalendarProvider) FindEvents(calendarID string, query string, timeMin, timeMax time.Time) ([]*Event, error) {
	events, err := g.service.Events.List(calendarID).
		Q(query).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		Context(g.ctx).
		Do()
	if err != nil {
		return nil, classifyAPIError("failed to query events", err)
	}

	result := make([]*Event, 0, len(events.Items))
	for _, item := range events.Items {
		result = append(result, fromGoogleEvent(item))
	}
	return result, nil
}

func (g *GoogleCalendarProvider) ListEvents(calendarID string) ([]*Event, error) {
	var result []*Event
	pageToken := ""
	for {
		events, err := g.service.Events.List(calendarID).
			PageToken(pageToken).
			SingleEvents(true).
			OrderBy("startTime").
			MaxResults(2500).
			Context(g.ctx).
			Do()
		if err != nil {
			return nil, classifyAPIError("failed to list events", err)
		}
		for _, item := range events.Items {
			result = append(result, fromGoogleEvent(item))
		}
		pageToken = events.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return result, nil
}

func (g *GoogleCalendarProvider) AddEvent(calendarID string, event *Event) (string, error) {
	googleEvent := &calendar.Event{
		Summary:     event.Summary,
		Location:    event.Location,
		Description: event.Description,
		Start: &calendar.EventDateTime{
			Date:     event.Start.Format(dayLayout),
			TimeZone: g.timeZone,
		},
		End: &calendar.EventDateTime{
			Date:     event.End.Format(dayLayout),
			TimeZone: g.timeZone,
		},
		Transparency: "transparent",
	}
	if !event.AllDay {
		googleEvent.Start = &calendar.EventDateTime{DateTime: event.Start.Format(time.RFC3339)}
		googleEvent.End = &calendar.EventDateTime{DateTime: event.End.Format(time.RFC3339)}
	}
	if event.Public {
		googleEvent.Visibility = "public"
	}
	if event.SourceURL != "" {
		googleEvent.Source = &calendar.EventSource{
			Title: event.SourceTitle,
			Url:   event.SourceURL,
		}
	}

	createdEvent, err := g.service.Events.Insert(calendarID, googleEvent).Context(g.ctx).Do()
	if err != nil {
		return "", classifyAPIError("failed to create event", err)
	}

	return createdEvent.Id, nil
}

func (g *GoogleCalendarProvider) DeleteEvent(calendarID string, eventID string) error {
	err := g.service.Events.Delete(calendarID, eventID).Context(g.ctx).Do()
	if err != nil {
		return classifyAPIError("failed to delete event", err)
	}
	return nil
}

func fromGoogleEvent(item *calendar.Event) *Event {
	event := &Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Location:    item.Location,
		Description: item.Description,
		Status:      item.Status,
		Public:      item.Visibility == "public",
	}
	if item.Start != nil {
		if item.Start.Date != "" {
			event.AllDay = true
			event.Start, _ = time.Parse(dayLayout, item.Start.Date)
		} else {
			event.Start, _ = time.Parse(time.RFC3339, item.Start.DateTime)
		}
	}
	if item.End != nil {
		if item.End.Date != "" {
			event.End, _ = time.Parse(dayLayout, item.End.Date)
		} else {
			event.End, _ = time.Parse(time.RFC3339, item.End.DateTime)
		}
	}
	if item.Source != nil {
		event.SourceTitle = item.Source.Title
		event.SourceURL = item.Source.Url
	}
	return event
}
