// Package topology parses the three-line-per-record topology text format,
// resolves each record's agent-type symbol through the operator factory
// registry, constructs and wires the agents it describes, and owns their
// lifecycle until the topology is replaced or the engine shuts down.
//
// Grounded on the teacher's internal/config.Config Load/validate/
// default-fill shape (internal/config/config.go), though the topology text
// itself is hand-parsed line-by-line — spec.md's format is not YAML — the
// way the teacher hand-parses its pool/cells glob-matching logic.
package topology

import (
	"fmt"
	"strings"

	"github.com/tenzoki/fluxgraph/internal/topic"
	"github.com/tenzoki/fluxgraph/public/agent"
)

// ConfigError reports a malformed topology document. Record is the
// zero-based index of the three-line record that failed validation, or -1
// when the failure is not attributable to a single record (e.g. a total
// line count that isn't a multiple of three). Modeled on the teacher's
// envelope.ValidationError: a small struct carrying just enough context to
// format a useful message, surfaced by the upload handler as a 400 body.
type ConfigError struct {
	Record  int
	Message string
}

func (e *ConfigError) Error() string {
	if e.Record < 0 {
		return fmt.Sprintf("topology: %s", e.Message)
	}
	return fmt.Sprintf("topology: record %d: %s", e.Record, e.Message)
}

// record is one parsed (type, inputs, outputs) triple before resolution.
type record struct {
	typeName string
	subs     []string
	pubs     []string
}

// Loader owns one parsed topology: the agents it built and wired, and the
// wrappers by which it can shut them all down. Exactly one Loader is
// active at a time in the engine; uploading a new topology closes the
// previous Loader before building the next (spec.md §4.7, §2 data flow).
type Loader struct {
	wrappers []*agent.AsyncWrapper
}

// Load parses text, validates it, and builds every agent it describes
// against registry, wrapping each in an agent.AsyncWrapper with the given
// inbox capacity (agent.DefaultInboxCapacity if capacity <= 0). On any
// validation or construction failure, every wrapper already built for
// this call is closed before returning the error, so a failed upload
// leaves no half-wired agents subscribed to topics.
func Load(text string, registry *topic.Registry, capacity int) (*Loader, error) {
	records, err := parse(text)
	if err != nil {
		return nil, err
	}

	l := &Loader{wrappers: make([]*agent.AsyncWrapper, 0, len(records))}
	for i, rec := range records {
		factory, ok := agent.Registry[rec.typeName]
		if !ok {
			l.Close()
			return nil, &ConfigError{Record: i, Message: fmt.Sprintf("unknown agent type %q", rec.typeName)}
		}
		inner, err := factory(rec.subs, rec.pubs, registry)
		if err != nil {
			l.Close()
			return nil, &ConfigError{Record: i, Message: err.Error()}
		}
		w := agent.NewAsyncWrapper(inner, capacity, registry, rec.subs, rec.pubs)
		l.wrappers = append(l.wrappers, w)
	}
	return l, nil
}

// Agents returns the wrappers this loader built, in record order. Used by
// graph projection to enumerate the current topology's agents.
func (l *Loader) Agents() []*agent.AsyncWrapper {
	out := make([]*agent.AsyncWrapper, len(l.wrappers))
	copy(out, l.wrappers)
	return out
}

// Close closes every wrapper this loader built, in the order they were
// constructed, then clears the list. Safe to call on a Loader that failed
// mid-build (see Load) or that has already been closed.
func (l *Loader) Close() {
	for _, w := range l.wrappers {
		w.Close()
	}
	l.wrappers = nil
}

// parse splits text into three-line records and validates each field,
// without resolving agent types (that happens in Load, against the
// registry). Trailing blank lines are dropped before counting; every
// remaining line, including an empty topic-list line inside a record,
// counts toward the required multiple of three.
func parse(text string) ([]record, error) {
	lines := strings.Split(text, "\n")
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	if len(lines)%3 != 0 {
		return nil, &ConfigError{Record: -1, Message: fmt.Sprintf("line count %d is not a multiple of 3", len(lines))}
	}

	records := make([]record, 0, len(lines)/3)
	for i := 0; i+3 <= len(lines); i += 3 {
		idx := i / 3
		typeLine, subLine, pubLine := lines[i], lines[i+1], lines[i+2]

		typeName, err := validateToken(typeLine)
		if err != nil {
			return nil, &ConfigError{Record: idx, Message: "agent type: " + err.Error()}
		}

		subs, err := parseTopicList(subLine)
		if err != nil {
			return nil, &ConfigError{Record: idx, Message: "input topics: " + err.Error()}
		}
		pubs, err := parseTopicList(pubLine)
		if err != nil {
			return nil, &ConfigError{Record: idx, Message: "output topics: " + err.Error()}
		}

		records = append(records, record{typeName: typeName, subs: subs, pubs: pubs})
	}
	return records, nil
}

// validateToken rejects leading/trailing whitespace and embedded
// whitespace, returning the token unchanged otherwise.
func validateToken(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("empty")
	}
	if strings.TrimSpace(s) != s {
		return "", fmt.Errorf("leading or trailing whitespace")
	}
	if strings.ContainsAny(s, " \t") {
		return "", fmt.Errorf("contains whitespace")
	}
	return s, nil
}

// parseTopicList splits a comma-separated topic list. An empty line means
// no topics. Each non-empty entry is validated like an agent-type token:
// no leading/trailing or embedded whitespace, and never the empty string
// within an otherwise non-empty list.
func parseTopicList(line string) ([]string, error) {
	if strings.TrimSpace(line) != line {
		return nil, fmt.Errorf("leading or trailing whitespace")
	}
	if line == "" {
		return nil, nil
	}
	parts := strings.Split(line, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("empty topic name in non-empty list")
		}
		if strings.ContainsAny(p, " \t") {
			return nil, fmt.Errorf("topic name %q contains whitespace", p)
		}
		names = append(names, p)
	}
	return names, nil
}
