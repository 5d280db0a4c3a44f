package agent

import (
	"sync"
	"sync/atomic"

	"github.com/tenzoki/fluxgraph/internal/message"
	"github.com/tenzoki/fluxgraph/internal/topic"
)

// DefaultInboxCapacity is the AsyncWrapper inbox size used when the
// topology loader is not given an explicit capacity (spec.md §4.6).
const DefaultInboxCapacity = 10

// inboxEntry is the (topic, message) tuple queued in a wrapper's inbox.
// Using a tuple rather than a separate "latest topic" field plus a
// message queue avoids the race spec.md §9 calls out in the source design
// (two producers interleaving between setting a volatile topic field and
// enqueuing the message it belongs to).
type inboxEntry struct {
	topicName string
	msg       *message.Message
}

// AsyncWrapper decorates any Agent with a bounded FIFO inbox and a
// dedicated worker goroutine that drains it, serializing every call into
// the inner agent's Receive onto a single goroutine.
//
// AsyncWrapper also owns all of the inner agent's topic wiring: it, not
// the inner agent, is what gets registered as a Subscriber on input
// topics and as a publisher on output topics. This is so that topics
// never hold a bare inner agent as subscriber — only ever a wrapper —
// which in turn guarantees the inner agent's Receive is called by
// exactly one goroutine (the wrapper's worker), and that wrapping always
// happens strictly before any subscription exists. See DESIGN.md for why
// this reads "the agent subscribes itself" (spec.md §4.7) as the
// decorator performing that wiring transparently on the inner agent's
// behalf, rather than literally.
//
// Grounded on the teacher's broker.Pipe (a buffered channel used for
// point-to-point delivery), generalized from a non-blocking send/receive
// pair to a blocking producer — spec.md explicitly rules out a drop
// policy for a full inbox — and on BaseAgent.Stop's cancel-then-join
// shutdown shape.
type AsyncWrapper struct {
	inner Agent
	inbox chan inboxEntry

	inTopics  []*topic.Topic
	outTopics []*topic.Topic

	closeOnce sync.Once
	done      chan struct{}
	finished  chan struct{}
	closed    atomic.Bool
}

// NewAsyncWrapper wraps inner with a bounded inbox of the given capacity,
// subscribes the wrapper to every topic in subs, registers it as a
// publisher on every topic in pubs, and starts its worker goroutine. Both
// subs and pubs name-resolve through registry; duplicate names (e.g. a
// binary agent fed the same topic on both input slots) are subscribed
// only once, since Topic.Subscribe is itself idempotent.
func NewAsyncWrapper(inner Agent, capacity int, registry *topic.Registry, subs, pubs []string) *AsyncWrapper {
	if capacity <= 0 {
		capacity = DefaultInboxCapacity
	}
	w := &AsyncWrapper{
		inner:    inner,
		inbox:    make(chan inboxEntry, capacity),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}

	seen := make(map[string]*topic.Topic, len(subs))
	for _, name := range subs {
		t, ok := seen[name]
		if !ok {
			t = registry.Get(name)
			seen[name] = t
			t.Subscribe(w)
		}
		w.inTopics = append(w.inTopics, t)
	}
	for _, name := range pubs {
		t := registry.Get(name)
		t.AddPublisher(w)
		w.outTopics = append(w.outTopics, t)
	}

	go w.run()
	return w
}

// Name delegates to the inner agent.
func (w *AsyncWrapper) Name() string { return w.inner.Name() }

// Reset delegates to the inner agent. Safe to call concurrently with the
// worker: the inner agent's own Reset is responsible for synchronizing
// its transient state against concurrent Receive/Snapshot calls.
func (w *AsyncWrapper) Reset() { w.inner.Reset() }

// Receive enqueues (topicName, msg) for the worker to process in order.
// If the inbox is full, Receive blocks the calling goroutine (the
// publishing topic's Publish call) until the worker frees a slot — there
// is intentionally no drop policy (spec.md §4.6). If the wrapper has
// already been closed, Receive is a no-op: a topic may still hold a
// reference to a wrapper mid-unsubscribe race, but a closed wrapper must
// never deliver into a worker that has already exited.
func (w *AsyncWrapper) Receive(topicName string, msg *message.Message) {
	if w.closed.Load() {
		return
	}
	select {
	case w.inbox <- inboxEntry{topicName: topicName, msg: msg}:
	case <-w.done:
	}
}

// Snapshot forwards to the inner agent if it implements Snapshotter,
// matching the uniform capability spec.md §9 calls for so graph
// projection needs no type switch over concrete agent types.
func (w *AsyncWrapper) Snapshot() (Snapshot, bool) {
	s, ok := w.inner.(Snapshotter)
	if !ok {
		return Snapshot{}, false
	}
	return s.Snapshot(), true
}

// Close unsubscribes the wrapper from every input topic and deregisters
// it from every output topic, stops accepting new work, joins the
// worker goroutine (waiting for it to drain and exit), then closes the
// inner agent. The inner agent's Close only runs after the worker has
// fully stopped and signaled finished, so it never races an in-flight
// Receive and never observes a partial close.
func (w *AsyncWrapper) Close() {
	w.closeOnce.Do(func() {
		for _, t := range w.inTopics {
			t.Unsubscribe(w)
		}
		for _, t := range w.outTopics {
			t.RemovePublisher(w)
		}
		w.closed.Store(true)
		close(w.done)
		<-w.finished
		w.inner.Close()
	})
}

// run is the wrapper's dedicated worker loop: pop one tuple, invoke the
// inner agent's Receive, repeat, until done is closed and the inbox has
// been fully drained. finished is closed as run's last act, so Close can
// join it before calling inner.Close.
func (w *AsyncWrapper) run() {
	defer close(w.finished)
	for {
		select {
		case entry := <-w.inbox:
			w.inner.Receive(entry.topicName, entry.msg)
		case <-w.done:
			// Drain whatever was already queued before exiting, so a
			// message accepted just before Close is not silently lost.
			for {
				select {
				case entry := <-w.inbox:
					w.inner.Receive(entry.topicName, entry.msg)
				default:
					return
				}
			}
		}
	}
}
