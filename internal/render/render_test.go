package render

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenzoki/fluxgraph/internal/graph"
)

func TestRenderProducesValidJSON(t *testing.T) {
	v := 3.5
	p := graph.Projection{
		Nodes: []graph.Node{
			{Kind: graph.TopicNode, ID: "in", Label: "in"},
			{Kind: graph.AgentNode, ID: "Increment#0", Label: "Increment", LastValue: &v},
		},
		Edges: []graph.Edge{{From: "in", To: "Increment#0"}},
	}

	data, err := Render(p)
	require.NoError(t, err)

	var decoded Payload
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.Len(t, decoded.Nodes, 2)
	assert.Equal(t, "topic", decoded.Nodes[0].Kind)
	assert.Equal(t, "agent", decoded.Nodes[1].Kind)
	require.NotNil(t, decoded.Nodes[1].LastValue)
	assert.Equal(t, 3.5, *decoded.Nodes[1].LastValue)
	require.Len(t, decoded.Edges, 1)
	assert.False(t, decoded.Cyclic)
}

func TestRenderMarksCyclicGraphs(t *testing.T) {
	p := graph.Projection{
		Nodes: []graph.Node{{Kind: graph.TopicNode, ID: "a"}, {Kind: graph.TopicNode, ID: "b"}},
		Edges: []graph.Edge{{From: "a", To: "b"}, {From: "b", To: "a"}},
	}

	data, err := Render(p)
	require.NoError(t, err)

	var decoded Payload
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Cyclic)
}
