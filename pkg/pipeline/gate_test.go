package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGateObserve(t *testing.T) {
	tests := []struct {
		name     string
		hasData  bool
		rendered bool
		decision Decision
		state    GateState
	}{
		{
			name:     "no data and nothing shown stays waiting",
			hasData:  false,
			rendered: false,
			decision: DecisionDefer,
			state:    GateAwaitingData,
		},
		{
			name:     "no data with a board showing suppresses",
			hasData:  false,
			rendered: true,
			decision: DecisionRetain,
			state:    GateSuppressed,
		},
		{
			name:     "data before any render proceeds",
			hasData:  true,
			rendered: false,
			decision: DecisionRender,
			state:    GateReady,
		},
		{
			name:     "data with a board showing proceeds",
			hasData:  true,
			rendered: true,
			decision: DecisionRender,
			state:    GateReady,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g Gate
			assert.Equal(t, tt.decision, g.Observe(tt.hasData, tt.rendered))
			assert.Equal(t, tt.state, g.State())
		})
	}
}

func TestGateFreshStateIsAwaitingData(t *testing.T) {
	var g Gate
	assert.Equal(t, GateAwaitingData, g.State())
}

func TestGateRecoversFromSuppression(t *testing.T) {
	var g Gate

	assert.Equal(t, DecisionRender, g.Observe(true, false))
	assert.Equal(t, DecisionRetain, g.Observe(false, true))
	assert.Equal(t, GateSuppressed, g.State())

	// The next data-bearing update renders again; suppression is per-update,
	// never sticky.
	assert.Equal(t, DecisionRender, g.Observe(true, true))
	assert.Equal(t, GateReady, g.State())
}
