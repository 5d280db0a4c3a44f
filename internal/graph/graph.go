// Package graph projects the current topic registry and topology loader
// into a directed bipartite graph of TopicNodes and AgentNodes, suitable
// for rendering and for cycle detection ahead of accepting a new upload.
//
// Grounded in shape on the teacher's public/orchestrator event/type model
// (a flat node+edge list meant for external rendering), though none of
// that package's code is reused directly — it models deployed agent
// processes, not a topic/agent publish/subscribe graph.
package graph

import (
	"sort"
	"strconv"

	"github.com/tenzoki/fluxgraph/internal/topic"
	"github.com/tenzoki/fluxgraph/public/agent"
)

// NodeKind distinguishes the two node shapes in the bipartite graph.
type NodeKind int

const (
	TopicNode NodeKind = iota
	AgentNode
)

// Node is one vertex in the projection: a topic or an agent, labeled for
// display and optionally annotated with the last value observed or
// computed there.
type Node struct {
	Kind      NodeKind
	ID        string // topic name, or agent display name deduplicated with an index suffix
	Label     string
	LastValue *float64
}

// Edge is a directed connection: topic -> subscriber agent, or publisher
// agent -> topic, per spec.md §4.8.
type Edge struct {
	From string
	To   string
}

// Projection is the built graph: every node and edge discoverable from
// the registry and the active topology's agents.
type Projection struct {
	Nodes []Node
	Edges []Edge
}

// agentEntity pairs a wrapper with the stable ID this projection assigns
// it, since two agents may share a display Name().
type agentEntity struct {
	id      string
	wrapper *agent.AsyncWrapper
}

// Build walks registry (for topics) and agents (the active topology's
// wrappers, normally Loader.Agents()) and produces a Projection. Iteration
// order over topic and agent names is sorted before the graph is walked,
// so repeated Build calls against an unchanged registry produce identical
// node and edge ordering (spec.md §4.8's determinism requirement).
func Build(registry *topic.Registry, agents []*agent.AsyncWrapper) Projection {
	p := Projection{}

	entities := make([]agentEntity, len(agents))
	agentID := make(map[*agent.AsyncWrapper]string, len(agents))
	for i, w := range agents {
		id := agentNodeID(w, i)
		entities[i] = agentEntity{id: id, wrapper: w}
		agentID[w] = id
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].id < entities[j].id })

	for _, e := range entities {
		var last *float64
		if snap, ok := e.wrapper.Snapshot(); ok {
			last = snap.Output
		}
		p.Nodes = append(p.Nodes, Node{Kind: AgentNode, ID: e.id, Label: e.wrapper.Name(), LastValue: last})
	}

	topics := registry.List()
	sort.Slice(topics, func(i, j int) bool { return topics[i].Name() < topics[j].Name() })

	for _, t := range topics {
		p.Nodes = append(p.Nodes, Node{Kind: TopicNode, ID: t.Name(), Label: t.Name()})

		subs := sortedSubscriberIDs(t.Subscribers(), agentID)
		for _, id := range subs {
			p.Edges = append(p.Edges, Edge{From: t.Name(), To: id})
		}
		pubs := sortedSubscriberIDs(t.Publishers(), agentID)
		for _, id := range pubs {
			p.Edges = append(p.Edges, Edge{From: id, To: t.Name()})
		}
	}

	return p
}

// agentNodeID builds a stable per-build identifier for an agent node.
// Display names are not guaranteed unique (two Increment agents can
// coexist), so the node ID disambiguates with the agent's position in the
// topology's agent list.
func agentNodeID(w *agent.AsyncWrapper, index int) string {
	return w.Name() + "#" + strconv.Itoa(index)
}

// sortedSubscriberIDs maps a topic's raw []topic.Subscriber list (which
// only ever holds *agent.AsyncWrapper instances in this system) down to
// their projection node IDs, in sorted order for determinism. Subscribers
// not found in agentID (shouldn't happen in practice — every subscriber
// was registered by a Loader build) are skipped rather than panicking.
func sortedSubscriberIDs(subs []topic.Subscriber, agentID map[*agent.AsyncWrapper]string) []string {
	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		w, ok := s.(*agent.AsyncWrapper)
		if !ok {
			continue
		}
		id, ok := agentID[w]
		if !ok {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HasCycle reports whether p contains any directed cycle, using a
// standard three-color DFS (white/gray/black) over the adjacency implied
// by Edges. Deterministic given a fixed Edges order, which Build
// guarantees. Grounded on spec.md §4.8's explicit algorithm choice.
func (p Projection) HasCycle() bool {
	adjacency := make(map[string][]string)
	for _, e := range p.Edges {
		adjacency[e.From] = append(adjacency[e.From], e.To)
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(p.Nodes))
	for _, n := range p.Nodes {
		color[n.ID] = white
	}

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		for _, next := range adjacency[id] {
			switch color[next] {
			case gray:
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}
		color[id] = black
		return false
	}

	ids := make([]string, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		ids = append(ids, n.ID)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if color[id] == white {
			if visit(id) {
				return true
			}
		}
	}
	return false
}
