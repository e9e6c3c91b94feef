package board

import "time"

// State is the last successfully rendered board: the ordered buckets, the
// grouping key they were built with, and the admission sequence of the update
// that produced them. It is owned by the pipeline and mutated only by a
// gate-approved render.
type State struct {
	Buckets    Buckets   `json:"buckets"`
	Key        Key       `json:"group_by"`
	Seq        uint64    `json:"seq"`
	RenderedAt time.Time `json:"rendered_at"`
}

// Rendered reports whether any render has succeeded. A rendered board with
// zero buckets ("zero tasks after filtering") is still a rendered board,
// which is why this checks the sequence number and not the bucket count.
func (s State) Rendered() bool {
	return s.Seq > 0
}
