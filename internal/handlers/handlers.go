// Package handlers implements the three HTTP endpoints FluxGraph exposes:
// inject a value onto a topic, upload a new topology, and render the
// current graph. Grounded on the teacher's handlePublish/handleSubscribe
// JSON-RPC handler shape (internal/broker/service.go): parse a params
// struct, validate, act, respond — translated here from JSON-RPC
// result/error pairs to HTTP status/body pairs.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/tenzoki/fluxgraph/internal/graph"
	"github.com/tenzoki/fluxgraph/internal/message"
	"github.com/tenzoki/fluxgraph/internal/render"
	"github.com/tenzoki/fluxgraph/internal/topic"
	"github.com/tenzoki/fluxgraph/internal/topology"
)

// Engine bundles the mutable, replaceable state the handlers act on: the
// topic registry and the currently active topology loader. Exactly one
// Loader is active at a time, swapped wholesale by Upload (close old
// loader, clear registry, build new one).
type Engine struct {
	Registry *topic.Registry
	Capacity int

	mu     sync.Mutex
	loader *topology.Loader
}

// NewEngine creates an Engine with an empty registry and no active
// topology.
func NewEngine(capacity int) *Engine {
	return &Engine{Registry: topic.NewRegistry(false), Capacity: capacity}
}

// SetLoader installs loader as the engine's active topology, closing
// whatever loader was previously active. Used by cmd/engine's startup
// path to preload a topology before the dispatcher starts accepting
// connections.
func (e *Engine) SetLoader(loader *topology.Loader) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loader != nil {
		e.loader.Close()
	}
	e.loader = loader
}

// currentProjection builds a graph.Projection from the engine's present
// state, whether or not a topology is currently loaded.
func (e *Engine) currentProjection() graph.Projection {
	e.mu.Lock()
	loader := e.loader
	e.mu.Unlock()

	if loader == nil {
		return graph.Build(e.Registry, nil)
	}
	return graph.Build(e.Registry, loader.Agents())
}

// Publish handles GET/POST requests with "topic" and "message" query
// parameters: constructs a text Message and publishes it, then responds
// with the rendered graph (spec.md §9 Open Question 1). Missing or empty
// "topic" produces 400.
func (e *Engine) Publish(w http.ResponseWriter, r *http.Request) {
	topicName := r.URL.Query().Get("topic")
	text := r.URL.Query().Get("message")
	if topicName == "" {
		writeError(w, http.StatusBadRequest, "missing required query parameter: topic")
		return
	}

	e.Registry.Get(topicName).Publish(message.FromText(text))

	writeGraph(w, http.StatusOK, e.currentProjection())
}

// Upload handles POST requests whose body is a topology document: closes
// the active loader (if any), clears the registry, builds the new
// topology, and rejects it with 400 if the document is malformed or the
// resulting graph is cyclic. A successful upload responds 200 with the
// rendered graph.
func (e *Engine) Upload(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loader != nil {
		e.loader.Close()
		e.loader = nil
	}
	e.Registry.Clear()

	loader, err := topology.Load(string(body), e.Registry, e.Capacity)
	if err != nil {
		var cerr *topology.ConfigError
		if errors.As(err, &cerr) {
			writeError(w, http.StatusBadRequest, cerr.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	projection := graph.Build(e.Registry, loader.Agents())
	if projection.HasCycle() {
		loader.Close()
		writeError(w, http.StatusBadRequest, "topology contains a cycle")
		return
	}

	e.loader = loader
	writeGraph(w, http.StatusOK, projection)
}

// Render handles GET requests for the current graph, with no side
// effects.
func (e *Engine) Render(w http.ResponseWriter, r *http.Request) {
	writeGraph(w, http.StatusOK, e.currentProjection())
}

// Close releases the active topology, if any. Called during engine
// shutdown.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loader != nil {
		e.loader.Close()
		e.loader = nil
	}
}

func writeGraph(w http.ResponseWriter, status int, p graph.Projection) {
	body, err := render.Render(p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render graph")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	body, _ := json.Marshal(struct {
		Error string `json:"error"`
	}{Error: message})
	w.Write(body)
}
