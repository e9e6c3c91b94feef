package pipeline

// GateState is the render gate's position after its most recent observation.
type GateState int

const (
	// GateAwaitingData: no update with data has arrived yet. Nothing has
	// been rendered and nothing should be.
	GateAwaitingData GateState = iota

	// GateReady: the latest update carried data and a render may proceed.
	GateReady

	// GateSuppressed: the latest update was empty but a board is already
	// showing; the empty update is swallowed and the board retained.
	GateSuppressed
)

// String returns the state name for logs.
func (s GateState) String() string {
	switch s {
	case GateAwaitingData:
		return "awaiting_data"
	case GateReady:
		return "ready"
	case GateSuppressed:
		return "suppressed"
	default:
		return "unknown"
	}
}

// Decision is what the gate tells the pipeline to do with one update.
type Decision int

const (
	// DecisionDefer: drop the update, render nothing. Used while no data
	// has ever been shown, so there is nothing to clear and nothing to draw.
	DecisionDefer Decision = iota

	// DecisionRetain: drop the update but keep the board that is already
	// rendered on screen.
	DecisionRetain

	// DecisionRender: proceed with projection, assignment, and render.
	DecisionRender
)

// String returns the decision name for logs.
func (d Decision) String() string {
	switch d {
	case DecisionDefer:
		return "defer"
	case DecisionRetain:
		return "retain"
	case DecisionRender:
		return "render"
	default:
		return "unknown"
	}
}

// Gate decides, per update, whether a render proceeds. The only inputs are
// whether the update carried any items and whether a board has been rendered
// before; grouping-key resolution never factors in, so a flat update with no
// usable key still renders (as a single fallback bucket) rather than showing
// a spinner forever.
//
// Gate is not safe for concurrent use; the pipeline serializes access.
type Gate struct {
	state GateState
}

// Observe feeds one update into the gate and returns what to do with it.
// hasData reports whether extraction produced at least one item; rendered
// reports whether any board, including an explicit empty one, has been
// committed before.
func (g *Gate) Observe(hasData, rendered bool) Decision {
	switch {
	case hasData:
		g.state = GateReady
		return DecisionRender
	case rendered:
		g.state = GateSuppressed
		return DecisionRetain
	default:
		g.state = GateAwaitingData
		return DecisionDefer
	}
}

// State returns the gate's position after the most recent Observe. A fresh
// gate reports GateAwaitingData.
func (g *Gate) State() GateState {
	return g.state
}
