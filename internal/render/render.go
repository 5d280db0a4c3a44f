// Package render serializes a graph.Projection into the JSON payload a
// browser-side visualization library consumes. The library and the
// static HTML/JS/CSS that load it are out-of-scope collaborators
// (spec.md §1); this package is the one piece of that boundary FluxGraph
// itself owns: turning an in-memory graph into wire bytes.
//
// Matches the teacher's own wire format choice throughout broker/envelope
// (encoding/json), rather than introducing a second serialization format
// for the one outbound payload this system produces.
package render

import (
	"encoding/json"

	"github.com/tenzoki/fluxgraph/internal/graph"
)

// Payload is the JSON shape rendered for a graph.Projection.
type Payload struct {
	Nodes  []NodePayload `json:"nodes"`
	Edges  []EdgePayload `json:"edges"`
	Cyclic bool          `json:"cyclic"`
}

// NodePayload is the wire form of a graph.Node.
type NodePayload struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"` // "topic" or "agent"
	Label     string   `json:"label"`
	LastValue *float64 `json:"lastValue,omitempty"`
}

// EdgePayload is the wire form of a graph.Edge.
type EdgePayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Render serializes p to its JSON payload.
func Render(p graph.Projection) ([]byte, error) {
	payload := Payload{
		Nodes:  make([]NodePayload, 0, len(p.Nodes)),
		Edges:  make([]EdgePayload, 0, len(p.Edges)),
		Cyclic: p.HasCycle(),
	}
	for _, n := range p.Nodes {
		kind := "topic"
		if n.Kind == graph.AgentNode {
			kind = "agent"
		}
		payload.Nodes = append(payload.Nodes, NodePayload{
			ID:        n.ID,
			Kind:      kind,
			Label:     n.Label,
			LastValue: n.LastValue,
		})
	}
	for _, e := range p.Edges {
		payload.Edges = append(payload.Edges, EdgePayload{From: e.From, To: e.To})
	}
	return json.Marshal(payload)
}
