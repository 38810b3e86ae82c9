package main

import (
	"context"
	"database/sql"
	"fmt"
)

// CalendarFactory builds the configured calendar provider.
type CalendarFactory struct {
	config *Config
	db     *sql.DB
	ctx    context.Context
}

func NewCalendarFactory(ctx context.Context, config *Config, db *sql.DB) *CalendarFactory {
	return &CalendarFactory{
		config: config,
		db:     db,
		ctx:    ctx,
	}
}

// CreateCalendarProvider returns an error wrapping ErrAuthFailure when the
// provider cannot be authenticated.
func (cf *CalendarFactory) CreateCalendarProvider() (CalendarProvider, error) {
	switch cf.config.Calendar.Provider {
	case "google":
		client, err := googleHTTPClient(cf.ctx, cf.config, cf.db)
		if err != nil {
			return nil, err
		}
		return NewGoogleCalendarProvider(cf.ctx, client, cf.config.Calendar.TimeZone)

	case "caldav":
		if cf.config.CalDAV.ServerURL == "" {
			return nil, fmt.Errorf("%w: [caldav] server_url is not configured", ErrAuthFailure)
		}
		return NewCalDAVProvider(cf.ctx, cf.config.CalDAV)

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cf.config.Calendar.Provider)
	}
}
