package main

import (
	"errors"
	"fmt"
	"net/url"

	log "github.com/sirupsen/logrus"
)

const (
	resultCreated = "created"
	resultSkipped = "skipped"
	resultFailed  = "failed"
)

// calendarCache is the part of CalendarStore the reconciler needs.
type calendarCache interface {
	Lookup(sourceID string) (string, error)
	Save(record CalendarRecord) error
}

// Reconciler makes a target calendar hold one event per desired tournament.
// Work is strictly sequential: one provider call at a time.
type Reconciler struct {
	provider CalendarProvider
	cache    calendarCache
	metrics  *Metrics
}

// NewReconciler accepts a nil provider; every sync then degrades to a
// placeholder calendar id.
func NewReconciler(provider CalendarProvider, cache calendarCache, metrics *Metrics) *Reconciler {
	return &Reconciler{
		provider: provider,
		cache:    cache,
		metrics:  metrics,
	}
}

type SyncResult struct {
	SourceID    string
	CalendarID  string
	Placeholder bool
	Created     int
	Skipped     int
	Failed      int
}

type DedupResult struct {
	Total   int
	Removed int
	Kept    int
	Failed  int
}

func placeholderCalendarID(sourceID string) string {
	return "mock-calendar-" + sourceID
}

// Sync resolves the source's calendar and reconciles the processed set into
// it. Authentication failures yield a placeholder id instead of an error.
func (r *Reconciler) Sync(profile SourceProfile, set ProcessedSet) (SyncResult, error) {
	logger := log.WithField("source", profile.ID)
	result := SyncResult{SourceID: profile.ID}

	if err := validateDesiredSet(set.Tournaments); err != nil {
		return result, err
	}
	if len(set.Tournaments) == 0 {
		logger.Warn("No tournament data available, skipping calendar creation")
		return result, nil
	}

	if r.provider == nil {
		logger.Warn("Calendar provider unavailable, using placeholder calendar")
		return r.placeholder(result), nil
	}

	calendarID, err := r.ResolveCalendar(profile)
	if errors.Is(err, ErrAuthFailure) {
		logger.WithError(err).Warn("Calendar authentication failed, using placeholder calendar")
		return r.placeholder(result), nil
	}
	if err != nil {
		return result, fmt.Errorf("resolve calendar: %w", err)
	}

	reconciled := r.Reconcile(calendarID, profile, set.Tournaments)
	reconciled.SourceID = profile.ID
	return reconciled, nil
}

func (r *Reconciler) placeholder(result SyncResult) SyncResult {
	result.CalendarID = placeholderCalendarID(result.SourceID)
	result.Placeholder = true
	return result
}

// validateDesiredSet rejects a desired set holding records that could never
// have passed the processor. It guards sets that did not come from adapter
// output, such as canonical files.
func validateDesiredSet(tournaments []Tournament) error {
	for i, t := range tournaments {
		if err := validate.Struct(t); err != nil {
			return fmt.Errorf("%w: tournament %d (%q): %v", ErrFatalConfig, i, t.Name, err)
		}
		if !t.Valid() {
			return fmt.Errorf("%w: tournament %d (%q) has an invalid date range", ErrFatalConfig, i, t.Name)
		}
	}
	return nil
}

// ResolveCalendar finds the source's calendar by cached id, then by display
// name, and creates it when neither exists.
func (r *Reconciler) ResolveCalendar(profile SourceProfile) (string, error) {
	logger := log.WithFields(log.Fields{"source": profile.ID, "calendar": profile.CalendarName})

	cachedID, err := r.cache.Lookup(profile.ID)
	if err != nil {
		logger.WithError(err).Warn("Failed to read calendar cache")
	}
	if cachedID != "" {
		_, err := r.provider.GetCalendar(cachedID)
		switch {
		case err == nil:
			logger.WithField("calendar_id", cachedID).Info("📅 Using cached calendar")
			r.ensureAccess(profile, cachedID)
			return cachedID, nil
		case errors.Is(err, ErrNotFound):
			logger.WithField("calendar_id", cachedID).Warn("Cached calendar no longer exists")
		default:
			return "", err
		}
	}

	calendars, err := r.provider.ListCalendars()
	if err != nil {
		return "", err
	}
	for _, cal := range calendars {
		if cal.Summary == profile.CalendarName {
			logger.WithField("calendar_id", cal.ID).Info("📅 Found existing calendar")
			r.remember(profile, cal.ID)
			r.ensureAccess(profile, cal.ID)
			return cal.ID, nil
		}
	}

	logger.Info("🆕 Creating new calendar")
	calendarID, err := r.provider.CreateCalendar(&Calendar{
		Summary:     profile.CalendarName,
		Description: profile.Description,
	})
	if err != nil {
		return "", err
	}
	r.remember(profile, calendarID)

	if err := r.provider.SetCalendarColor(calendarID, profile.ColorID); err != nil {
		logger.WithError(err).Warn("Failed to set calendar color")
	}
	r.ensureAccess(profile, calendarID)

	logger.WithFields(log.Fields{
		"calendar_id": calendarID,
		"public_url":  publicURL(calendarID),
		"ical_url":    icalURL(calendarID),
	}).Info("✅ Created calendar")
	return calendarID, nil
}

func (r *Reconciler) remember(profile SourceProfile, calendarID string) {
	err := r.cache.Save(CalendarRecord{
		SourceID:     profile.ID,
		CalendarID:   calendarID,
		CalendarName: profile.CalendarName,
		Provider:     r.provider.Kind(),
	})
	if err != nil {
		log.WithError(err).WithField("source", profile.ID).Warn("Failed to cache calendar id")
	}
}

func (r *Reconciler) ensureAccess(profile SourceProfile, calendarID string) {
	if !profile.IsPublic() {
		return
	}
	if err := r.provider.SharePublicly(calendarID); err != nil {
		log.WithError(err).WithField("calendar_id", calendarID).Warn("Failed to update calendar access, continuing with current settings")
	}
}

// Reconcile creates an event for every tournament that has no matching
// event yet. The match is the provider's approximate name search within the
// tournament's days, so any hit counts as present. Failures are counted and
// never stop the loop.
func (r *Reconciler) Reconcile(calendarID string, profile SourceProfile, tournaments []Tournament) SyncResult {
	result := SyncResult{SourceID: profile.ID, CalendarID: calendarID}
	logger := log.WithFields(log.Fields{"source": profile.ID, "calendar_id": calendarID})
	logger.WithField("count", len(tournaments)).Info("Reconciling tournaments")

	for _, t := range tournaments {
		event := eventFromTournament(t, profile)
		eventLogger := logger.WithFields(log.Fields{"tournament": event.Summary, "start": event.Start.Format(dayLayout)})

		existing, err := r.provider.FindEvents(calendarID, event.Summary, event.Start, event.End)
		if err != nil {
			// TODO: retry ErrTransientAPI failures with backoff instead of skipping the record.
			eventLogger.WithError(err).Error("Failed to query existing events")
			result.Failed++
			r.metrics.EventResult(profile.ID, resultFailed)
			continue
		}
		if len(existing) > 0 {
			eventLogger.Debug("Event already exists")
			result.Skipped++
			r.metrics.EventResult(profile.ID, resultSkipped)
			continue
		}

		eventID, err := r.provider.AddEvent(calendarID, event)
		if err != nil {
			eventLogger.WithError(err).Error("Failed to create event")
			result.Failed++
			r.metrics.EventResult(profile.ID, resultFailed)
			continue
		}
		eventLogger.WithField("event_id", eventID).Info("➕ Created event")
		result.Created++
		r.metrics.EventResult(profile.ID, resultCreated)
	}

	logger.WithFields(log.Fields{
		"created": result.Created,
		"skipped": result.Skipped,
		"failed":  result.Failed,
	}).Info("Finished reconciling tournaments")
	return result
}

// Dedup deletes every event whose key was already seen earlier in provider
// order, keeping the first occurrence.
func (r *Reconciler) Dedup(calendarID string) (DedupResult, error) {
	var result DedupResult
	logger := log.WithField("calendar_id", calendarID)

	events, err := r.provider.ListEvents(calendarID)
	if err != nil {
		return result, fmt.Errorf("list events: %w", err)
	}
	result.Total = len(events)
	logger.WithField("count", len(events)).Info("🔍 Checking for duplicate events")

	seen := make(map[EventKey]string, len(events))
	for _, event := range events {
		key, ok := event.Key()
		if !ok {
			continue
		}
		if firstID, dup := seen[key]; dup {
			eventLogger := logger.WithFields(log.Fields{"event_id": event.ID, "kept": firstID, "key": key.String()})
			if err := r.provider.DeleteEvent(calendarID, event.ID); err != nil {
				eventLogger.WithError(err).Error("Failed to delete duplicate event")
				result.Failed++
				continue
			}
			eventLogger.Info("🗑 Deleted duplicate event")
			result.Removed++
			r.metrics.DuplicateRemoved(calendarID)
			continue
		}
		seen[key] = event.ID
	}

	result.Kept = result.Total - result.Removed
	logger.WithFields(log.Fields{"removed": result.Removed, "kept": result.Kept}).Info("✅ Duplicate check finished")
	return result, nil
}

// Clear deletes every event in the calendar and returns how many were
// removed.
func (r *Reconciler) Clear(calendarID string) (int, error) {
	events, err := r.provider.ListEvents(calendarID)
	if err != nil {
		return 0, fmt.Errorf("list events: %w", err)
	}

	deleted := 0
	for _, event := range events {
		if err := r.provider.DeleteEvent(calendarID, event.ID); err != nil {
			log.WithError(err).WithField("event_id", event.ID).Error("Failed to delete event")
			continue
		}
		deleted++
	}
	log.WithFields(log.Fields{"calendar_id": calendarID, "deleted": deleted}).Info("🗑 Calendar cleared")
	return deleted, nil
}

func publicURL(calendarID string) string {
	return "https://calendar.google.com/calendar/embed?src=" + url.QueryEscape(calendarID)
}

func icalURL(calendarID string) string {
	return "https://calendar.google.com/calendar/ical/" + url.QueryEscape(calendarID) + "/public/basic.ics"
}
