// Package taskfile reads board data files. A task file is a YAML document
// carrying the board's items in one of the three accepted layouts (grouped,
// flat, or keyed columns) plus an optional group_by hint that travels with
// the data rather than with any view definition.
package taskfile

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tidemill/boardd/pkg/board"
	"github.com/tidemill/boardd/pkg/view"
)

// DefaultFile is the task file name watched when none is configured.
const DefaultFile = "board.yaml"

// ErrMalformed indicates a task file that exists but cannot be parsed.
var ErrMalformed = errors.New("malformed task file")

// File is a parsed task file: the update event its items decode to, plus the
// query-level grouping hint if the file carried one.
type File struct {
	GroupBy string
	Event   board.UpdateEvent
}

// Context folds the file's grouping hint into base as the query-level
// candidate. View-level configuration still wins during resolution.
func (f File) Context(base view.Context) view.Context {
	out := base
	if f.GroupBy != "" {
		out.Query = f.GroupBy
	}
	return out
}

// document mirrors the task file layout. At most one of groups, tasks, or
// columns is expected; when several are present the richest one wins, in
// that order.
type document struct {
	GroupBy string                      `yaml:"group_by"`
	Groups  []groupDoc                  `yaml:"groups"`
	Tasks   []map[string]any            `yaml:"tasks"`
	Columns map[string][]map[string]any `yaml:"columns"`
}

type groupDoc struct {
	Key   string           `yaml:"key"`
	Items []map[string]any `yaml:"items"`
}

// Parse decodes a task file from raw YAML.
func Parse(data []byte) (File, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	f := File{GroupBy: doc.GroupBy}
	switch {
	case doc.Groups != nil:
		groups := make([]board.Group, 0, len(doc.Groups))
		for _, g := range doc.Groups {
			groups = append(groups, board.Group{Key: g.Key, Items: rawItems(g.Items)})
		}
		f.Event = board.Grouped(groups)
	case doc.Tasks != nil:
		f.Event = board.Flat(rawItems(doc.Tasks))
	case doc.Columns != nil:
		columns := make(map[string][]board.RawItem, len(doc.Columns))
		for key, items := range doc.Columns {
			columns[key] = rawItems(items)
		}
		f.Event = board.Legacy(columns)
	default:
		f.Event = board.Empty()
	}
	return f, nil
}

// Load reads and parses the task file at path.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read task file: %w", err)
	}
	return Parse(data)
}

func rawItems(items []map[string]any) []board.RawItem {
	if items == nil {
		return nil
	}
	out := make([]board.RawItem, len(items))
	for i, item := range items {
		out[i] = board.RawItem(item)
	}
	return out
}
