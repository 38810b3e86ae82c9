package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
)

// ProcessedSet is the ordered, month-grouped working set handed to the
// reconciler.
type ProcessedSet struct {
	Tournaments        []Tournament            `json:"tournaments"`
	TournamentsByMonth map[string][]Tournament `json:"tournamentsByMonth"`
	Count              int                     `json:"count"`
	ProcessedAt        time.Time               `json:"-"`
}

func (p ProcessedSet) MarshalJSON() ([]byte, error) {
	type alias ProcessedSet
	return json.Marshal(struct {
		alias
		ProcessedAt string `json:"processedAt"`
	}{alias(p), formatISO(p.ProcessedAt)})
}

// Months returns the month keys in ascending order.
func (p ProcessedSet) Months() []string {
	months := make([]string, 0, len(p.TournamentsByMonth))
	for m := range p.TournamentsByMonth {
		months = append(months, m)
	}
	sort.Strings(months)
	return months
}

// processTournaments drops records without both dates or ending before they
// start, sorts by start (stable) and buckets by the start's UTC year-month.
func processTournaments(tournaments []Tournament, now time.Time) ProcessedSet {
	valid := make([]Tournament, 0, len(tournaments))
	for _, t := range tournaments {
		if t.DateStart == nil || t.DateEnd == nil {
			log.WithFields(log.Fields{"tournament": t.Name, "id": t.ID}).Debug("Dropping tournament with missing dates")
			continue
		}
		if t.DateEnd.Before(*t.DateStart) {
			log.WithFields(log.Fields{
				"tournament": t.Name,
				"id":         t.ID,
				"start":      formatISO(*t.DateStart),
				"end":        formatISO(*t.DateEnd),
			}).Warn("Dropping tournament that ends before it starts")
			continue
		}
		valid = append(valid, t)
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].DateStart.Before(*valid[j].DateStart)
	})

	byMonth := make(map[string][]Tournament)
	for _, t := range valid {
		key := monthKey(*t.DateStart)
		byMonth[key] = append(byMonth[key], t)
	}

	return ProcessedSet{
		Tournaments:        valid,
		TournamentsByMonth: byMonth,
		Count:              len(valid),
		ProcessedAt:        now.UTC(),
	}
}

// processJSON runs processTournaments over a JSON document of canonical
// records. A root that is not an array is a fatal configuration error.
func processJSON(data []byte, now time.Time) (ProcessedSet, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return ProcessedSet{}, fmt.Errorf("%w: expected an array of tournaments", ErrFatalConfig)
	}
	var tournaments []Tournament
	if err := json.Unmarshal(data, &tournaments); err != nil {
		return ProcessedSet{}, fmt.Errorf("%w: %v", ErrFatalConfig, err)
	}
	return processTournaments(tournaments, now), nil
}

func monthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
