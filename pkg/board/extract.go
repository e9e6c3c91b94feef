package board

import "sort"

// Extract flattens an update event into a single ordered sequence of raw
// items. Grouped events keep outer group order, then inner item order. Legacy
// map events iterate keys in sorted order: neither Go maps nor JSON objects
// carry an ordering, and sorted keys keep extraction stable across updates.
//
// An empty result means "no data yet" and is a valid outcome, distinct from
// a non-empty event whose items all project away later in the pipeline.
func Extract(ev UpdateEvent) []RawItem {
	switch ev.Shape {
	case ShapeGrouped:
		var items []RawItem
		for _, g := range ev.Groups {
			items = append(items, g.Items...)
		}
		return items
	case ShapeFlat:
		return ev.Items
	case ShapeLegacy:
		keys := make([]string, 0, len(ev.Columns))
		for k := range ev.Columns {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var items []RawItem
		for _, k := range keys {
			items = append(items, ev.Columns[k]...)
		}
		return items
	default:
		return nil
	}
}
