package agent

import (
	"fmt"
	"math"
	"sync"

	"github.com/tenzoki/fluxgraph/internal/message"
	"github.com/tenzoki/fluxgraph/internal/topic"
)

// Factory constructs a concrete agent from its ordered input and output
// topic names. It resolves its output topic(s) through registry (needed
// so Receive can publish derived values) but does not itself subscribe to
// its inputs — that wiring is performed by AsyncWrapper once the agent is
// wrapped, so that every topic ever sees a wrapper as its subscriber, never
// a bare inner agent. See DESIGN.md for why this departs from a literal
// reading of "the agent subscribes itself" in favor of satisfying spec.md
// §3's "wrapped before any subscription occurs" invariant and §4.6's "one
// thread calls Receive" invariant exactly.
type Factory func(subs, pubs []string, registry *topic.Registry) (Agent, error)

// Registry is the fixed, in-process type-name -> Factory map the
// topology loader resolves agent-type symbols through. Grounded on the
// teacher's pool.yaml agent-type lookup (config.ValidateConfiguration),
// generalized from a YAML-described external binary registry to a
// compiled-in map of constructors, since FluxGraph's operators are a
// fixed, closed set of arithmetic transforms rather than pluggable
// external agent binaries.
var Registry = map[string]Factory{
	"Increment": unaryFactory("Increment", func(x float64) float64 { return x + 1 }),
	"Decrement": unaryFactory("Decrement", func(x float64) float64 { return x - 1 }),
	"Negate":    unaryFactory("Negate", func(x float64) float64 { return -x }),
	"Absolute":  unaryFactory("Absolute", math.Abs),
	"Double":    unaryFactory("Double", func(x float64) float64 { return 2 * x }),

	"Plus":     binaryFactory("Plus", func(a, b float64) float64 { return a + b }),
	"Minus":    binaryFactory("Minus", func(a, b float64) float64 { return a - b }),
	"Multiply": binaryFactory("Multiply", func(a, b float64) float64 { return a * b }),
	"Max":      binaryFactory("Max", math.Max),
	"Min":      binaryFactory("Min", math.Min),
	"Average":  binaryFactory("Average", func(a, b float64) float64 { return (a + b) / 2 }),
}

// --- unary operators ---

// unaryAgent implements the five unary arithmetic operators (Increment,
// Decrement, Negate, Absolute, Double). It has exactly one input slot and
// one output topic.
type unaryAgent struct {
	opName   string
	op       func(float64) float64
	inName   string
	outTopic *topic.Topic

	mu      sync.Mutex
	operand float64
	result  *float64
}

func unaryFactory(opName string, op func(float64) float64) Factory {
	return func(subs, pubs []string, registry *topic.Registry) (Agent, error) {
		if len(subs) != 1 {
			return nil, fmt.Errorf("%s: expected exactly 1 input topic, got %d", opName, len(subs))
		}
		if len(pubs) != 1 {
			return nil, fmt.Errorf("%s: expected exactly 1 output topic, got %d", opName, len(pubs))
		}
		return &unaryAgent{
			opName:   opName,
			op:       op,
			inName:   subs[0],
			outTopic: registry.Get(pubs[0]),
		}, nil
	}
}

func (a *unaryAgent) Name() string { return a.opName }

func (a *unaryAgent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.operand = 0
	a.result = nil
}

func (a *unaryAgent) Receive(topicName string, msg *message.Message) {
	if !msg.IsNumeric() {
		return // NaN messages are silently ignored, no state change, no output
	}
	result := a.op(msg.Number)

	a.mu.Lock()
	a.operand = msg.Number
	a.result = &result
	a.mu.Unlock()

	a.outTopic.Publish(message.FromNumber(result))
}

// Close releases agent-internal resources. Topic (un)subscription is
// owned by AsyncWrapper, not the inner agent; unaryAgent holds no other
// resources, so Close is a no-op satisfying the Agent interface.
func (a *unaryAgent) Close() {}

func (a *unaryAgent) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out *float64
	if a.result != nil {
		v := *a.result
		out = &v
	}
	return Snapshot{
		Inputs: map[string]float64{a.inName: a.operand},
		Output: out,
	}
}

// --- binary operators ---

// binaryAgent implements the six binary arithmetic operators (Plus,
// Minus, Multiply, Max, Min, Average). It tracks two operand slots, one
// per subscription slot, and only publishes once both slots have been set
// at least once (spec.md §4.5's "wait for both" choice — see SPEC_FULL.md
// §4 Open Question 3). A binary agent built with an empty input list is
// accepted and never publishes.
type binaryAgent struct {
	opName string
	op     func(a, b float64) float64

	inNames  [2]string
	outTopic *topic.Topic

	mu      sync.Mutex
	slot    [2]float64
	hasSlot [2]bool
	result  *float64
}

func binaryFactory(opName string, op func(a, b float64) float64) Factory {
	return func(subs, pubs []string, registry *topic.Registry) (Agent, error) {
		if len(subs) != 0 && len(subs) != 2 {
			return nil, fmt.Errorf("%s: expected 2 input topics (or none), got %d", opName, len(subs))
		}
		if len(pubs) != 1 {
			return nil, fmt.Errorf("%s: expected exactly 1 output topic, got %d", opName, len(pubs))
		}
		var inNames [2]string
		copy(inNames[:], subs)
		return &binaryAgent{
			opName:   opName,
			op:       op,
			inNames:  inNames,
			outTopic: registry.Get(pubs[0]),
		}, nil
	}
}

func (a *binaryAgent) Name() string { return a.opName }

// Reset zeroes both operand slots and marks them as set (spec.md §4.5,
// scenario 6): a single-input publish immediately after Reset sees the
// other slot as a legitimate zero, not as missing, and publishes.
func (a *binaryAgent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.slot = [2]float64{0, 0}
	a.hasSlot = [2]bool{true, true}
	a.result = nil
}

func (a *binaryAgent) Receive(topicName string, msg *message.Message) {
	if !msg.IsNumeric() {
		return
	}

	a.mu.Lock()
	for i, name := range a.inNames {
		if name == topicName {
			a.slot[i] = msg.Number
			a.hasSlot[i] = true
		}
	}
	ready := a.hasSlot[0] && a.hasSlot[1]
	var result float64
	if ready {
		result = a.op(a.slot[0], a.slot[1])
		a.result = &result
	}
	a.mu.Unlock()

	if ready {
		a.outTopic.Publish(message.FromNumber(result))
	}
}

// Close releases agent-internal resources; see unaryAgent.Close.
func (a *binaryAgent) Close() {}

func (a *binaryAgent) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	inputs := make(map[string]float64, 2)
	if a.hasSlot[0] {
		inputs[a.inNames[0]] = a.slot[0]
	}
	if a.hasSlot[1] {
		inputs[a.inNames[1]] = a.slot[1]
	}
	var out *float64
	if a.result != nil {
		v := *a.result
		out = &v
	}
	return Snapshot{Inputs: inputs, Output: out}
}
