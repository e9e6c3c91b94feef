package board

import "encoding/json"

// Shape identifies which of the supported update payload structures an
// event carries. Exactly one shape is structurally present per event, or
// none (ShapeEmpty).
type Shape int

const (
	// ShapeEmpty means no recognizable payload: either the host sent nothing
	// or the payload matched none of the supported structures. Both cases are
	// "no data yet", not errors.
	ShapeEmpty Shape = iota

	// ShapeGrouped is an ordered sequence of {key, items} groups.
	ShapeGrouped

	// ShapeFlat is an ordered sequence of raw items; grouping configuration
	// travels separately in the view context.
	ShapeFlat

	// ShapeLegacy is the older key→items mapping form.
	ShapeLegacy
)

func (s Shape) String() string {
	switch s {
	case ShapeGrouped:
		return "grouped"
	case ShapeFlat:
		return "flat"
	case ShapeLegacy:
		return "legacy"
	default:
		return "empty"
	}
}

// Group is one pre-grouped slice of a grouped-shape event.
type Group struct {
	Key   string    `json:"key"`
	Items []RawItem `json:"items"`
}

// UpdateEvent is one update notification payload from a host source, decoded
// into its tagged shape exactly once. Only the field matching Shape is set.
type UpdateEvent struct {
	Shape   Shape
	Groups  []Group
	Items   []RawItem
	Columns map[string][]RawItem
}

// Grouped builds a grouped-shape event.
func Grouped(groups []Group) UpdateEvent {
	return UpdateEvent{Shape: ShapeGrouped, Groups: groups}
}

// Flat builds a flat-shape event.
func Flat(items []RawItem) UpdateEvent {
	return UpdateEvent{Shape: ShapeFlat, Items: items}
}

// Legacy builds a legacy map-shape event.
func Legacy(columns map[string][]RawItem) UpdateEvent {
	return UpdateEvent{Shape: ShapeLegacy, Columns: columns}
}

// Empty builds an event carrying no data.
func Empty() UpdateEvent {
	return UpdateEvent{Shape: ShapeEmpty}
}

// IsEmpty reports whether the event carries no recognizable payload.
func (e UpdateEvent) IsEmpty() bool {
	return e.Shape == ShapeEmpty
}

// wireEvent is the JSON envelope accepted on the wire. Structural detection
// keys off which field is present and array/map shaped.
type wireEvent struct {
	Groups  []Group              `json:"groups,omitempty"`
	Items   []RawItem            `json:"items,omitempty"`
	Columns map[string][]RawItem `json:"columns,omitempty"`
}

// Decode interprets a wire payload as an UpdateEvent. Detection is purely
// structural: a "groups" array wins over "items", which wins over a
// "columns" map. Payloads matching none of the shapes, including malformed
// JSON, decode to the empty event: malformed input is "no data", never an
// error at this layer.
func Decode(data []byte) UpdateEvent {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return Empty()
	}
	switch {
	case w.Groups != nil:
		return Grouped(w.Groups)
	case w.Items != nil:
		return Flat(w.Items)
	case w.Columns != nil:
		return Legacy(w.Columns)
	default:
		return Empty()
	}
}

// Encode renders the event in its wire form. Empty events (and shapes whose
// payload is empty) encode as {}, which round-trips through Decode as the
// empty event.
func Encode(e UpdateEvent) ([]byte, error) {
	w := wireEvent{}
	switch e.Shape {
	case ShapeGrouped:
		w.Groups = e.Groups
	case ShapeFlat:
		w.Items = e.Items
	case ShapeLegacy:
		w.Columns = e.Columns
	}
	return json.Marshal(w)
}
