package view

import "github.com/tidemill/boardd/pkg/board"

// Resolution is the outcome of resolving the groupBy key from a Context.
type Resolution struct {
	// Key is the resolved grouping property, or board.KeyNone.
	Key board.Key

	// Source is the candidate that supplied the key, or SourceNone.
	Source SourceName
}

// None reports whether resolution found no configured grouping key.
func (r Resolution) None() bool {
	return r.Key.IsNone()
}

// Resolve determines the grouping key for the given context snapshot.
//
// Every candidate source is inspected in fixed precedence order (view, then
// query, then config); the first present, non-empty value wins. The none
// sentinel is returned only when no source yields a value.
//
// Resolve is a pure function of its argument. It must never consult a value
// computed on a prior call: the host populates candidate sources
// asynchronously, so a source that was empty on the last update may be
// populated on this one, and vice versa. Callers may keep a previous
// Resolution for logging, never as input to the next Resolve.
func Resolve(ctx Context) Resolution {
	for _, c := range ctx.Candidates() {
		if c.Key != "" {
			return Resolution{Key: board.Key(c.Key), Source: c.Source}
		}
	}
	return Resolution{Key: board.KeyNone, Source: SourceNone}
}
