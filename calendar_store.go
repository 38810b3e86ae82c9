package main

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CalendarRecord is one cached source → target calendar mapping.
type CalendarRecord struct {
	SourceID     string    `json:"sportId"`
	CalendarID   string    `json:"id"`
	CalendarName string    `json:"name"`
	Provider     string    `json:"provider"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CalendarStore is the on-disk lookup cache of target calendar ids. It only
// saves calendar lookups; the calendar provider stays the source of truth.
type CalendarStore struct {
	db *sql.DB
}

func NewCalendarStore(db *sql.DB) *CalendarStore {
	return &CalendarStore{db: db}
}

// Lookup returns the cached calendar id, or "" when nothing is cached.
func (s *CalendarStore) Lookup(sourceID string) (string, error) {
	var calendarID string
	err := s.db.QueryRow("SELECT calendar_id FROM calendars WHERE source_id = ?", sourceID).Scan(&calendarID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("error reading cached calendar for %s: %w", sourceID, err)
	}
	return calendarID, nil
}

func (s *CalendarStore) Save(record CalendarRecord) error {
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now()
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO calendars
		(source_id, calendar_id, calendar_name, provider, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		record.SourceID, record.CalendarID, record.CalendarName, record.Provider,
		record.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("error saving calendar for %s: %w", record.SourceID, err)
	}
	return nil
}

func (s *CalendarStore) Delete(sourceID string) (bool, error) {
	result, err := s.db.Exec("DELETE FROM calendars WHERE source_id = ?", sourceID)
	if err != nil {
		return false, fmt.Errorf("error deleting calendar for %s: %w", sourceID, err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

func (s *CalendarStore) List() ([]CalendarRecord, error) {
	rows, err := s.db.Query(`SELECT source_id, calendar_id, calendar_name, provider, updated_at
		FROM calendars ORDER BY source_id`)
	if err != nil {
		return nil, fmt.Errorf("error listing calendars: %w", err)
	}
	defer rows.Close()

	var records []CalendarRecord
	for rows.Next() {
		var r CalendarRecord
		var name, provider, updated sql.NullString
		if err := rows.Scan(&r.SourceID, &r.CalendarID, &name, &provider, &updated); err != nil {
			return nil, fmt.Errorf("error scanning calendar row: %w", err)
		}
		r.CalendarName = name.String
		r.Provider = provider.String
		if updated.Valid {
			r.UpdatedAt, _ = time.Parse(time.RFC3339, updated.String)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
