// Package board defines the data model for boardd: raw host items, task
// records, update events, and the grouping primitives that turn a stream of
// records into ordered board columns.
//
// The package is deliberately free of I/O. Sources (pkg/source) produce
// UpdateEvents, the pipeline (pkg/pipeline) drives extraction and assignment,
// and renderers consume the resulting Buckets.
package board
