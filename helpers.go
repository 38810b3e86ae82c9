package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmespath/go-jmespath"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02 Jan 2006",
	"January 2, 2006",
}

// parseTimeFlexible parses a timestamp in one of a few common layouts.
// Values without a zone are taken as UTC.
func parseTimeFlexible(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time: %q", s)
}

// compilePaths compiles a fixed set of JMESPath field paths, tried in order.
// It panics on a malformed expression, so it is only used for package-level
// path sets.
func compilePaths(exprs ...string) []*jmespath.JMESPath {
	compiled := make([]*jmespath.JMESPath, 0, len(exprs))
	for _, expr := range exprs {
		compiled = append(compiled, jmespath.MustCompile(expr))
	}
	return compiled
}

// lookup evaluates a compiled path against a decoded JSON item.
// Errors and missing paths both yield nil.
func lookup(item map[string]any, path *jmespath.JMESPath) any {
	v, err := path.Search(item)
	if err != nil {
		return nil
	}
	return v
}

// pickStr returns the first non-blank string (or number) found at the
// given paths.
func pickStr(item map[string]any, paths []*jmespath.JMESPath) string {
	for _, p := range paths {
		switch v := lookup(item, p).(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(v)
		}
	}
	return ""
}

// pickTime finds the first present value at the given paths and parses it.
// present is false when no path holds a value at all; t is nil when a value
// exists but cannot be parsed.
func pickTime(item map[string]any, paths []*jmespath.JMESPath) (t *time.Time, present bool) {
	for _, p := range paths {
		v := lookup(item, p)
		switch val := v.(type) {
		case nil:
			continue
		case string:
			if strings.TrimSpace(val) == "" {
				continue
			}
			parsed, err := parseTimeFlexible(val)
			if err != nil {
				return nil, true
			}
			return &parsed, true
		case float64:
			// epoch milliseconds
			parsed := time.UnixMilli(int64(val)).UTC()
			return &parsed, true
		default:
			return nil, true
		}
	}
	return nil, false
}
