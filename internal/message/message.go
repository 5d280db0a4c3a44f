// Package message defines the immutable value carried between topics and
// agents in the FluxGraph dataflow engine.
package message

import (
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Message is an immutable snapshot of a value published on a topic. All
// three views are computed eagerly at construction and never change
// afterward; there are no setters.
type Message struct {
	ID        string    // opaque UUID, for log correlation only
	Raw       []byte    // raw bytes view
	Text      string    // text view (UTF-8)
	Number    float64   // numeric view; NaN if Text does not parse as a float
	CreatedAt time.Time // wall-clock time at construction
}

// FromText builds a Message from a text value. The numeric view is parsed
// from text; parse failure yields math.NaN(), which arithmetic agents must
// check for and ignore.
func FromText(text string) *Message {
	return newMessage([]byte(text), text, parseNumber(text))
}

// FromNumber builds a Message from a numeric value. The text view is the
// canonical decimal rendering of the number.
func FromNumber(value float64) *Message {
	text := strconv.FormatFloat(value, 'g', -1, 64)
	return newMessage([]byte(text), text, value)
}

// FromBytes builds a Message from raw bytes, decoding them as UTF-8 text
// and attempting a numeric parse of that text.
func FromBytes(raw []byte) *Message {
	text := string(raw)
	return newMessage(raw, text, parseNumber(text))
}

func newMessage(raw []byte, text string, number float64) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Raw:       raw,
		Text:      text,
		Number:    number,
		CreatedAt: time.Now(),
	}
}

func parseNumber(text string) float64 {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// IsNumeric reports whether the message's numeric view is usable (i.e. not
// NaN). Arithmetic agents use this to silently ignore non-numeric probes.
func (m *Message) IsNumeric() bool {
	return !math.IsNaN(m.Number)
}
