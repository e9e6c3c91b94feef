package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResource(t *testing.T) {
	cfg := NewDefaultConfig()

	res, err := newResource(cfg)
	require.NoError(t, err)
	require.NotNil(t, res)

	var foundServiceName bool
	for _, attr := range res.Attributes() {
		if string(attr.Key) == "service.name" {
			assert.Equal(t, cfg.ServiceName, attr.Value.AsString())
			foundServiceName = true
		}
	}
	assert.True(t, foundServiceName, "service.name attribute not found")
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want string
	}{
		{name: "full rate always samples", rate: 1.0, want: "AlwaysOnSampler"},
		{name: "above full rate clamps to always", rate: 2.0, want: "AlwaysOnSampler"},
		{name: "zero rate never samples", rate: 0, want: "AlwaysOffSampler"},
		{name: "negative rate never samples", rate: -1, want: "AlwaysOffSampler"},
		{name: "fractional rate is ratio based", rate: 0.25, want: "TraceIDRatioBased"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := samplerFor(tt.rate).Description()
			assert.Contains(t, desc, "ParentBased")
			assert.Contains(t, desc, tt.want)
		})
	}
}

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "localhost:4318", stripScheme("http://localhost:4318"))
	assert.Equal(t, "collector.example.com:4318", stripScheme("https://collector.example.com:4318"))
	assert.Equal(t, "localhost:4317", stripScheme("localhost:4317"))
}
