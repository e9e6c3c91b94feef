package view

// SourceName identifies one candidate configuration source for the groupBy key.
type SourceName string

// Candidate sources, highest precedence first. The order is part of the
// package contract: view definitions override query-level settings, which
// override the application config default.
const (
	// SourceView is an explicit per-view setting from a view definition file.
	SourceView SourceName = "view"

	// SourceQuery is a setting carried by the data source or query
	// configuration that produced the update (for example a board.yaml next
	// to the task files, or a GitHub query's grouping mode).
	SourceQuery SourceName = "query"

	// SourceConfig is the application configuration default.
	SourceConfig SourceName = "config"

	// SourceNone marks a resolution that found no configured value.
	SourceNone SourceName = "none"
)

// Context is a read-only snapshot of the groupBy configuration surface at
// event time. Empty fields mean the source has nothing to report right now,
// which may simply mean that part of the host has not settled yet.
//
// Contexts are values. Build a fresh one per update notification; never
// persist one across events as authoritative.
type Context struct {
	// View is the groupBy key from the active view definition, if any.
	View string

	// Query is the groupBy key from the query or source configuration, if any.
	Query string

	// Config is the application default groupBy key, if any.
	Config string

	// Labels maps bucket names to display labels. Cosmetic only; renderers
	// may consult it, the grouping pipeline never does.
	Labels map[string]string
}

// Candidate pairs a source with the value it currently reports.
type Candidate struct {
	Source SourceName
	Key    string
}

// Candidates returns every candidate source in precedence order, including
// sources that currently report nothing. Useful for diagnostics; Resolve is
// the authoritative consumer.
func (c Context) Candidates() []Candidate {
	return []Candidate{
		{Source: SourceView, Key: c.View},
		{Source: SourceQuery, Key: c.Query},
		{Source: SourceConfig, Key: c.Config},
	}
}

// Label returns the display label for a bucket name, falling back to the
// bucket name itself.
func (c Context) Label(bucket string) string {
	if l, ok := c.Labels[bucket]; ok && l != "" {
		return l
	}
	return bucket
}
