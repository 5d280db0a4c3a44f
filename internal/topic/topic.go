// Package topic implements the publish/subscribe channels FluxGraph agents
// are wired to, and the process-wide registry that hands them out by name.
//
// The design is grounded on the GOX broker's Topic/Service split
// (internal/broker/service.go in the teacher project): a topic holds a
// subscriber list and a publisher list under a mutex, and publish takes a
// stable snapshot of subscribers before delivering. FluxGraph's topics are
// in-process — there is no TCP connection or JSON-RPC envelope here, only
// an in-process Subscriber callback — but the copy-on-write discipline
// that keeps publish safe under concurrent subscribe/unsubscribe is the
// same idea.
package topic

import (
	"log"
	"sync"

	"github.com/tenzoki/fluxgraph/internal/message"
)

// Subscriber is anything that can receive a message delivered on a topic.
// public/agent.AsyncWrapper is the only production implementation; the
// indirection keeps this package free of any dependency on the agent
// model, mirroring how the teacher's broker.Topic only knows about
// *Connection, not about agent semantics.
type Subscriber interface {
	Receive(topicName string, msg *message.Message)
}

// Topic is a named channel. Subscriber and publisher lists are
// duplicate-free (add-if-absent) and copy-on-write: every subscribe,
// unsubscribe, addPublisher, or removePublisher allocates a new slice
// rather than mutating the old one in place, so a publish in progress
// keeps seeing the snapshot it started with even if another goroutine
// concurrently unsubscribes.
type Topic struct {
	name string

	mu          sync.Mutex
	subscribers []Subscriber
	publishers  []Subscriber
}

func newTopic(name string) *Topic {
	return &Topic{name: name}
}

// Name returns the topic's name.
func (t *Topic) Name() string {
	return t.name
}

// Subscribe registers sub to receive future publishes on this topic.
// Idempotent: subscribing the same value twice leaves the list unchanged.
func (t *Topic) Subscribe(sub Subscriber) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if containsSubscriber(t.subscribers, sub) {
		return
	}
	next := make([]Subscriber, len(t.subscribers)+1)
	copy(next, t.subscribers)
	next[len(t.subscribers)] = sub
	t.subscribers = next
}

// Unsubscribe removes sub from the subscriber list. A publish already in
// flight (holding an earlier snapshot) still delivers to sub; no new
// publish will.
func (t *Topic) Unsubscribe(sub Subscriber) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscribers = removeSubscriber(t.subscribers, sub)
}

// AddPublisher registers sub as a producer on this topic, for graph
// projection purposes. Idempotent like Subscribe.
func (t *Topic) AddPublisher(sub Subscriber) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if containsSubscriber(t.publishers, sub) {
		return
	}
	next := make([]Subscriber, len(t.publishers)+1)
	copy(next, t.publishers)
	next[len(t.publishers)] = sub
	t.publishers = next
}

// RemovePublisher removes sub from the publisher list.
func (t *Topic) RemovePublisher(sub Subscriber) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.publishers = removeSubscriber(t.publishers, sub)
}

// Publish delivers msg to every subscriber registered at the instant
// Publish is called. The subscriber snapshot is taken once, under lock,
// and iterated without the lock held, so a subscriber whose Receive
// triggers a further subscribe/unsubscribe on this topic cannot deadlock
// and cannot see its own transition affect this delivery. Publish to a
// topic with no subscribers is a successful no-op.
func (t *Topic) Publish(msg *message.Message) {
	t.mu.Lock()
	snapshot := t.subscribers
	t.mu.Unlock()

	for _, sub := range snapshot {
		sub.Receive(t.name, msg)
	}
}

// Subscribers returns the current subscriber snapshot.
func (t *Topic) Subscribers() []Subscriber {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Subscriber, len(t.subscribers))
	copy(out, t.subscribers)
	return out
}

// Publishers returns the current publisher snapshot.
func (t *Topic) Publishers() []Subscriber {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Subscriber, len(t.publishers))
	copy(out, t.publishers)
	return out
}

func containsSubscriber(list []Subscriber, sub Subscriber) bool {
	for _, existing := range list {
		if existing == sub {
			return true
		}
	}
	return false
}

func removeSubscriber(list []Subscriber, sub Subscriber) []Subscriber {
	next := make([]Subscriber, 0, len(list))
	for _, existing := range list {
		if existing != sub {
			next = append(next, existing)
		}
	}
	return next
}

// Registry is the process-wide directory mapping topic name to *Topic. It
// lazily creates a Topic on first reference and supports a bulk Clear used
// by topology re-upload. Grounded on broker.Service's topicsMux-guarded
// map[string]*Topic.
type Registry struct {
	mu     sync.Mutex
	topics map[string]*Topic
	debug  bool
}

// NewRegistry creates an empty registry. debug enables topic
// creation/clear logging, matching the teacher's Debug-gated log.Printf
// convention.
func NewRegistry(debug bool) *Registry {
	return &Registry{
		topics: make(map[string]*Topic),
		debug:  debug,
	}
}

// Get returns the Topic for name, creating it if this is the first
// reference. Atomic under concurrent callers: exactly one Topic instance
// is ever created per name for the registry's lifetime (until Clear).
func (r *Registry) Get(name string) *Topic {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.topics[name]
	if !ok {
		t = newTopic(name)
		r.topics[name] = t
		if r.debug {
			log.Printf("topic registry: created topic %q", name)
		}
	}
	return t
}

// List returns every topic currently known to the registry, in no
// particular order.
func (r *Registry) List() []*Topic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Topic, 0, len(r.topics))
	for _, t := range r.topics {
		out = append(out, t)
	}
	return out
}

// Clear drops every topic mapping. Any *Topic reference a caller already
// holds keeps working but becomes orphaned: no future Get will return it.
// Callers must ensure no publish is in flight before calling Clear — the
// upload handler guarantees this by closing the active topology loader
// (which stops every agent's worker) first.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = make(map[string]*Topic)
	if r.debug {
		log.Printf("topic registry: cleared")
	}
}
