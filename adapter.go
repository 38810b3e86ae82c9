package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	log "github.com/sirupsen/logrus"
)

// Adapter turns one source's raw payload into canonical tournaments.
// It never fails: malformed items are dropped and logged.
type Adapter interface {
	Standardize(raw []byte) []Tournament
}

// AdapterRegistry maps source identifiers to adapters.
type AdapterRegistry struct {
	adapters map[string]Adapter
}

func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{adapters: make(map[string]Adapter)}
}

func (r *AdapterRegistry) Register(sourceID string, adapter Adapter) error {
	if sourceID == "" {
		return fmt.Errorf("adapter source id is empty")
	}
	if _, exists := r.adapters[sourceID]; exists {
		return fmt.Errorf("adapter already registered for source %q", sourceID)
	}
	r.adapters[sourceID] = adapter
	log.WithField("source", sourceID).Debug("Registered adapter")
	return nil
}

func (r *AdapterRegistry) Get(sourceID string) (Adapter, bool) {
	a, ok := r.adapters[sourceID]
	return a, ok
}

func (r *AdapterRegistry) Sources() []string {
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// newAdapterRegistry registers a feed adapter for every configured source
// profile.
func newAdapterRegistry(config *Config) (*AdapterRegistry, error) {
	registry := NewAdapterRegistry()
	for _, id := range config.SourceIDs() {
		if err := registry.Register(id, NewFeedAdapter(config.Profile(id))); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

type payloadKind int

const (
	payloadUnrecognized payloadKind = iota
	// {results: {<group>: {<index>: item}}}
	payloadGrouped
	// {tournaments: [item, ...]}
	payloadItems
	// [item, ...]
	payloadList
)

func (k payloadKind) String() string {
	switch k {
	case payloadGrouped:
		return "grouped"
	case payloadItems:
		return "items"
	case payloadList:
		return "list"
	default:
		return "unrecognized"
	}
}

// rawItem is one source item along with where it was found.
type rawItem struct {
	Group string
	Index string
	Data  map[string]any
}

type payload struct {
	Kind  payloadKind
	Items []rawItem
}

type orderedField struct {
	Key   string
	Value json.RawMessage
}

// decodePayload classifies a raw source payload into one of the recognized
// shapes. A truthy "results" member always selects the grouped shape, even
// when it holds no items. Anything else is payloadUnrecognized.
func decodePayload(raw []byte) payload {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return payload{Kind: payloadUnrecognized}
	}

	switch raw[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return payload{Kind: payloadUnrecognized}
		}
		return payload{Kind: payloadList, Items: decodeItemList("", list)}
	case '{':
	default:
		return payload{Kind: payloadUnrecognized}
	}

	top, err := decodeOrderedObject(raw)
	if err != nil {
		return payload{Kind: payloadUnrecognized}
	}
	fields := make(map[string]json.RawMessage, len(top))
	for _, f := range top {
		fields[f.Key] = f.Value
	}

	if results, ok := fields["results"]; ok && isTruthy(results) {
		groups, err := decodeGroupList(results)
		if err != nil {
			log.WithError(err).Debug("Skipping undecodable results")
		}
		return payload{Kind: payloadGrouped, Items: decodeGroups(groups)}
	}

	if tournaments, ok := fields["tournaments"]; ok && isJSONArray(tournaments) {
		var list []json.RawMessage
		if err := json.Unmarshal(tournaments, &list); err != nil {
			return payload{Kind: payloadUnrecognized}
		}
		return payload{Kind: payloadItems, Items: decodeItemList("", list)}
	}

	return payload{Kind: payloadUnrecognized}
}

// decodeGroupList returns the groups of a "results" member: the members of
// an object in document order, or the elements of an array keyed by index.
// Scalars hold no groups.
func decodeGroupList(results json.RawMessage) ([]orderedField, error) {
	switch {
	case isJSONObject(results):
		return decodeOrderedObject(results)
	case isJSONArray(results):
		var list []json.RawMessage
		if err := json.Unmarshal(results, &list); err != nil {
			return nil, err
		}
		groups := make([]orderedField, 0, len(list))
		for i, group := range list {
			groups = append(groups, orderedField{Key: fmt.Sprint(i), Value: group})
		}
		return groups, nil
	default:
		return nil, nil
	}
}

func decodeGroups(groups []orderedField) []rawItem {
	var items []rawItem
	for _, group := range groups {
		switch {
		case isJSONObject(group.Value):
			entries, err := decodeOrderedObject(group.Value)
			if err != nil {
				log.WithField("group", group.Key).Debug("Skipping undecodable group")
				continue
			}
			for _, entry := range entries {
				if item, ok := decodeItem(entry.Value); ok {
					items = append(items, rawItem{Group: group.Key, Index: entry.Key, Data: item})
				}
			}
		case isJSONArray(group.Value):
			var list []json.RawMessage
			if err := json.Unmarshal(group.Value, &list); err != nil {
				continue
			}
			items = append(items, decodeItemList(group.Key, list)...)
		default:
			log.WithField("group", group.Key).Debug("Skipping non-object group")
		}
	}
	return items
}

func decodeItemList(group string, list []json.RawMessage) []rawItem {
	items := make([]rawItem, 0, len(list))
	for i, raw := range list {
		if item, ok := decodeItem(raw); ok {
			items = append(items, rawItem{Group: group, Index: fmt.Sprint(i), Data: item})
		}
	}
	return items
}

func decodeItem(raw json.RawMessage) (map[string]any, bool) {
	if !isJSONObject(raw) {
		return nil, false
	}
	var item map[string]any
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, false
	}
	return item, true
}

// decodeOrderedObject decodes the top level of a JSON object keeping the key
// order of the document.
func decodeOrderedObject(raw []byte) ([]orderedField, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected JSON object")
	}

	var fields []orderedField
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		fields = append(fields, orderedField{Key: key, Value: value})
	}
	return fields, nil
}

func isJSONObject(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func isJSONArray(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

// isTruthy reports whether a JSON value is anything but null, false, zero or
// the empty string.
func isTruthy(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0:
		return false
	case bytes.Equal(raw, []byte("null")), bytes.Equal(raw, []byte("false")), bytes.Equal(raw, []byte(`""`)):
		return false
	case raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9'):
		n, err := strconv.ParseFloat(string(raw), 64)
		return err != nil || n != 0
	}
	return true
}
