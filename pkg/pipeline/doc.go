// Package pipeline drives boardd's update-to-render path: extract raw items
// from an update event, resolve the grouping key from the live view context,
// project items into task records, assign records to buckets, and hand the
// result to a renderer, gated so that transient empty updates never wipe a
// board that is already showing data.
//
// Updates are admitted through a single-slot, latest-event-wins mailbox and
// processed by one worker, so at most one render is ever in flight and a
// superseded update is simply dropped. Each admission also carries a
// monotonic sequence number; a render that is no longer the latest by the
// time its projection completes is discarded before it touches the screen.
package pipeline
