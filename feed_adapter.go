package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const unnamedTournament = "Unnamed Tournament"

// FeedAdapter standardizes tournament feeds shaped like the BWF calendar
// API. Source-specific naming comes from the profile.
type FeedAdapter struct {
	profile SourceProfile
	now     func() time.Time
	newID   func() string
}

func NewFeedAdapter(profile SourceProfile) *FeedAdapter {
	return &FeedAdapter{
		profile: profile,
		now:     time.Now,
		newID:   func() string { return uuid.NewString()[:8] },
	}
}

func (a *FeedAdapter) Standardize(raw []byte) []Tournament {
	logger := log.WithField("source", a.profile.ID)

	p := decodePayload(raw)
	if p.Kind == payloadUnrecognized {
		logger.Warn("Unrecognized tournament payload, nothing to standardize")
		return []Tournament{}
	}
	logger.WithField("shape", p.Kind).Debug("Decoded tournament payload")

	now := a.now().UTC()
	tournaments := make([]Tournament, 0, len(p.Items))
	for _, item := range p.Items {
		t, ok := a.standardizeItem(p.Kind, item, now)
		if !ok {
			logger.WithFields(log.Fields{"group": item.Group, "index": item.Index}).
				Debug("Dropping tournament without start or end date")
			continue
		}
		tournaments = append(tournaments, t)
	}

	logger.WithFields(log.Fields{"shape": p.Kind, "count": len(tournaments)}).Info("Standardized tournaments")
	return tournaments
}

var (
	startPaths    = compilePaths("dates.start", "start_date", "start", "dateStart")
	endPaths      = compilePaths("dates.end", "end_date", "end", "dateEnd")
	namePaths     = compilePaths("name", "title")
	idPaths       = compilePaths("id")
	venuePaths    = compilePaths("location.venue", "venue")
	cityPaths     = compilePaths("location.city", "city")
	countryPaths  = compilePaths("location.country", "country")
	categoryPaths = compilePaths("category")
	levelPaths    = compilePaths("level")
	gradePaths    = compilePaths("grade", "tier")
	prizePaths    = compilePaths("prize")
	urlPaths      = compilePaths("url", "link")
)

func (a *FeedAdapter) standardizeItem(kind payloadKind, item rawItem, now time.Time) (Tournament, bool) {
	data := item.Data

	start, hasStart := pickTime(data, startPaths)
	end, hasEnd := pickTime(data, endPaths)
	if !hasStart || !hasEnd {
		return Tournament{}, false
	}

	name := pickStr(data, namePaths)
	if name == "" {
		name = unnamedTournament
	}

	// Grouped feeds: category falls back to level, level comes from
	// grade or tier. Item feeds: level falls back to grade or tier.
	rawCategory := pickStr(data, categoryPaths)
	rawLevel := pickStr(data, levelPaths)
	grade := pickStr(data, gradePaths)
	category, level := rawCategory, rawLevel
	if kind == payloadGrouped {
		if category == "" {
			category = rawLevel
		}
		level = grade
	} else if level == "" {
		level = grade
	}
	if category == "" {
		category = a.profile.DefaultCategory
	}

	id := pickStr(data, idPaths)
	if id == "" {
		id = fmt.Sprintf("%s-%d-%s", a.profile.ID, now.UnixMilli(), a.newID())
	}

	t := Tournament{
		ID:   id,
		Name: name,
		Location: Location{
			Venue:   pickStr(data, venuePaths),
			City:    pickStr(data, cityPaths),
			Country: pickStr(data, countryPaths),
		},
		DateStart:   start,
		DateEnd:     end,
		Category:    category,
		Level:       level,
		Prize:       pickStr(data, prizePaths),
		URL:         pickStr(data, urlPaths),
		Source:      a.profile.SourceName,
		LastUpdated: now,
	}
	t.Description = describe(t, rawLevel, rawCategory, a.profile.SourceName)
	return t, true
}

// describe builds the event description. Line order is fixed: name,
// level/category, prize, location, link, attribution.
func describe(t Tournament, level, category, sourceName string) string {
	var b strings.Builder

	b.WriteString(t.Name)
	b.WriteString("\n\n")

	if line := strings.TrimSpace(strings.Join([]string{level, category}, " ")); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if t.Prize != "" {
		fmt.Fprintf(&b, "Prize: %s\n", t.Prize)
	}
	if loc := t.Location.String(); loc != "" {
		fmt.Fprintf(&b, "Location: %s\n", loc)
	}
	if t.URL != "" {
		fmt.Fprintf(&b, "\nMore info: %s\n", t.URL)
	}
	fmt.Fprintf(&b, "\nSource: %s Tournament Calendar", sourceName)

	return b.String()
}
