package topology

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenzoki/fluxgraph/internal/message"
	"github.com/tenzoki/fluxgraph/internal/topic"
)

func TestLoadSingleUnaryRecord(t *testing.T) {
	registry := topic.NewRegistry(false)
	l, err := Load("Increment\nin\nout\n", registry, 10)
	require.NoError(t, err)
	defer l.Close()

	assert.Len(t, l.Agents(), 1)
	assert.Len(t, registry.Get("in").Subscribers(), 1)
	assert.Len(t, registry.Get("out").Publishers(), 1)
}

func TestLoadChainedRecords(t *testing.T) {
	registry := topic.NewRegistry(false)
	text := "Plus\na,b\nsum\n" + "Increment\nsum\nresult\n"
	l, err := Load(text, registry, 10)
	require.NoError(t, err)
	defer l.Close()

	assert.Len(t, l.Agents(), 2)
	assert.Len(t, registry.Get("sum").Subscribers(), 1)
	assert.Len(t, registry.Get("sum").Publishers(), 1)
}

func TestLoadRejectsLineCountNotMultipleOfThree(t *testing.T) {
	registry := topic.NewRegistry(false)
	_, err := Load("Increment\nin\n", registry, 10)
	require.Error(t, err)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, -1, cerr.Record)
}

func TestLoadRejectsUnknownAgentType(t *testing.T) {
	registry := topic.NewRegistry(false)
	_, err := Load("Frobnicate\nin\nout\n", registry, 10)
	require.Error(t, err)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 0, cerr.Record)
}

func TestLoadRejectsWhitespaceInTopicName(t *testing.T) {
	registry := topic.NewRegistry(false)
	_, err := Load("Increment\nin put\nout\n", registry, 10)
	require.Error(t, err)
}

func TestLoadRejectsEmptyTopicNameInNonEmptyList(t *testing.T) {
	registry := topic.NewRegistry(false)
	_, err := Load("Plus\na,\nout\n", registry, 10)
	require.Error(t, err)
}

func TestLoadRejectsLeadingOrTrailingWhitespaceOnTypeToken(t *testing.T) {
	registry := topic.NewRegistry(false)
	_, err := Load(" Increment\nin\nout\n", registry, 10)
	require.Error(t, err)
}

func TestLoadAllowsEmptyInputOrOutputList(t *testing.T) {
	registry := topic.NewRegistry(false)
	l, err := Load("Plus\n\nout\n", registry, 10)
	require.NoError(t, err)
	defer l.Close()
	assert.Len(t, registry.Get("out").Publishers(), 1)
}

func TestLoadFailureLeavesNoPartialWiring(t *testing.T) {
	registry := topic.NewRegistry(false)
	text := "Increment\nin\nout\n" + "Frobnicate\nin2\nout2\n"
	_, err := Load(text, registry, 10)
	require.Error(t, err)

	// The first record's agent must have been unwound, not left subscribed.
	assert.Empty(t, registry.Get("in").Subscribers())
	assert.Empty(t, registry.Get("out").Publishers())
}

func TestCloseStopsAllAgents(t *testing.T) {
	registry := topic.NewRegistry(false)
	l, err := Load("Increment\nin\nout\n", registry, 10)
	require.NoError(t, err)

	l.Close()

	assert.Empty(t, registry.Get("in").Subscribers())
	assert.Empty(t, registry.Get("out").Publishers())
	assert.Empty(t, l.Agents())
}

func TestTrailingBlankLinesAreTolerated(t *testing.T) {
	registry := topic.NewRegistry(false)
	l, err := Load("Increment\nin\nout\n\n\n", registry, 10)
	require.NoError(t, err)
	defer l.Close()
	assert.Len(t, l.Agents(), 1)
}

func TestConfigErrorMessageFormatting(t *testing.T) {
	err := &ConfigError{Record: 2, Message: "boom"}
	assert.Equal(t, "topology: record 2: boom", err.Error())

	err = &ConfigError{Record: -1, Message: "boom"}
	assert.Equal(t, "topology: boom", err.Error())
}

func TestLoadedTopologyProcessesAnInjectedValue(t *testing.T) {
	registry := topic.NewRegistry(false)
	l, err := Load("Increment\nin\nout\n", registry, 10)
	require.NoError(t, err)
	defer l.Close()

	var mu sync.Mutex
	var seen *message.Message
	registry.Get("out").Subscribe(recordFunc(func(_ string, m *message.Message) {
		mu.Lock()
		defer mu.Unlock()
		seen = m
	}))
	registry.Get("in").Publish(message.FromNumber(1))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen != nil
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, float64(2), seen.Number)
}

type recordFunc func(topicName string, msg *message.Message)

func (f recordFunc) Receive(topicName string, msg *message.Message) { f(topicName, msg) }
