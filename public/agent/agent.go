// Package agent defines the contract every FluxGraph processing node
// obeys, the concrete arithmetic operators, and the AsyncWrapper that
// turns any Agent into an asynchronous, serialized message consumer.
//
// Grounded on the GOX agent framework (public/agent/base.go in the
// teacher project): BaseAgent's Name/lifecycle/logging conventions are
// kept, but the distributed bootstrap machinery (support-service
// discovery, broker TCP reconnection, VFS, signal handling) is dropped —
// FluxGraph agents are in-process Go values created directly by the
// topology loader, not separately deployed processes connecting back to a
// broker over the network.
package agent

import "github.com/tenzoki/fluxgraph/internal/message"

// Agent is the contract every processing node obeys.
type Agent interface {
	// Name returns a display label used by graph projection and logging.
	Name() string

	// Reset clears transient operand state to neutral values. It does not
	// disturb subscriptions.
	Reset()

	// Receive consumes one message from a topic this agent is subscribed
	// to. Called by exactly one goroutine per agent (the owning
	// AsyncWrapper's worker) — concrete agents need no internal locking
	// around the values Receive mutates for its own purposes, only around
	// values also read by Snapshot.
	Receive(topicName string, msg *message.Message)

	// Close unsubscribes from all input topics, deregisters from all
	// output topics, and releases any resources.
	Close()
}

// Snapshotter is implemented by every concrete arithmetic agent so that
// graph projection can recover operand/result state without a type switch
// per concrete agent type — the redesign spec.md calls for in place of the
// source's nominal-reflection approach.
type Snapshotter interface {
	Snapshot() Snapshot
}

// Snapshot is a read-only view of an agent's last-known operand values and
// last computed result, used for graph rendering. Output is nil if the
// agent has never published.
type Snapshot struct {
	Inputs map[string]float64
	Output *float64
}
