package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultTable(t *testing.T) {
	assert.Equal(t, "growth_rate_results", ResultTable(GrowthRate))
	assert.Equal(t, "temporal_results", ResultTable(Temporal))
}

func TestIsResultName(t *testing.T) {
	for _, name := range ResultNames {
		assert.True(t, IsResultName(name), name)
	}
	assert.False(t, IsResultName("small_data"))
	assert.False(t, IsResultName(""))
}

func TestTripGraph(t *testing.T) {
	nodes, rels := TripGraph()
	assert.Len(t, nodes, 4)
	assert.Len(t, rels, 4)
	for _, r := range rels {
		assert.Equal(t, "Trip", r.Start.Label)
	}
}
