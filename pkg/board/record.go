package board

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// RawItem is a single untyped item as supplied by a host source, typically
// decoded from JSON or YAML. Keys are property names; values are arbitrary.
type RawItem map[string]any

// Key names a record property used for grouping ("status", "priority", ...).
type Key string

// KeyNone is the sentinel meaning no grouping property is configured.
const KeyNone Key = "none"

// IsNone reports whether the key is the "no grouping" sentinel.
func (k Key) IsNone() bool {
	return k == KeyNone || k == ""
}

func (k Key) String() string {
	if k == "" {
		return string(KeyNone)
	}
	return string(k)
}

// TaskRecord is the normalized projection of a raw item: an identifier, an
// optional title, and a flat property map. A property may be absent for any
// given record and key.
type TaskRecord struct {
	ID    string            `json:"id"`
	Title string            `json:"title,omitempty"`
	Props map[string]string `json:"props,omitempty"`
}

// Prop returns the record's value for the given grouping key.
// The second result is false when the property is absent or empty.
func (r TaskRecord) Prop(key Key) (string, bool) {
	if r.Props == nil {
		return "", false
	}
	v, ok := r.Props[string(key)]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Records normalizes raw items into task records, preserving order.
// Items without a usable identifier are skipped; individual malformed
// properties are dropped rather than failing the item.
func Records(items []RawItem) []TaskRecord {
	records := make([]TaskRecord, 0, len(items))
	for _, item := range items {
		rec, ok := Record(item)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// Record normalizes a single raw item. The second result is false when the
// item carries no identifier under "id".
func Record(item RawItem) (TaskRecord, bool) {
	if item == nil {
		return TaskRecord{}, false
	}

	id, ok := stringValue(item["id"])
	if !ok || id == "" {
		return TaskRecord{}, false
	}

	rec := TaskRecord{ID: id}
	if title, ok := stringValue(item["title"]); ok {
		rec.Title = title
	}

	for k, v := range item {
		if k == "id" || k == "title" {
			continue
		}
		s, ok := propValue(v)
		if !ok || s == "" {
			continue
		}
		if rec.Props == nil {
			rec.Props = make(map[string]string)
		}
		rec.Props[k] = s
	}
	return rec, true
}

// propValue converts a raw property value to its grouping string form.
// Lists take their first convertible element, matching hosts that model
// single-valued properties as one-element arrays (labels, tags).
func propValue(v any) (string, bool) {
	switch val := v.(type) {
	case []any:
		for _, elem := range val {
			if s, ok := stringValue(elem); ok && s != "" {
				return s, true
			}
		}
		return "", false
	case []string:
		for _, s := range val {
			if s != "" {
				return s, true
			}
		}
		return "", false
	default:
		return stringValue(v)
	}
}

// stringValue converts scalar values to strings. Maps, nils, and other
// composite values do not convert.
func stringValue(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float64:
		// JSON numbers decode as float64; render integral values without a
		// fractional part so ids like 42 do not become "42.000000".
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10), true
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case json.Number:
		return val.String(), true
	case fmt.Stringer:
		return val.String(), true
	default:
		return "", false
	}
}
