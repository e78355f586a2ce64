package offcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueAction(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, Options{Now: clock.Now})

	payloads := []map[string]string{
		{"op": "register", "name": "Asha"},
		{"op": "update", "id": "2"},
		{"op": "delete", "id": "3"},
	}

	ids := map[string]bool{}

	for _, p := range payloads {
		action, outcome := c.QueueAction(p)
		require.Equal(t, OutcomeOK, outcome)

		if ids[action.ID] {
			t.Fatalf("duplicate action id %s", action.ID)
		}

		ids[action.ID] = true

		clock.Advance(time.Millisecond)
	}

	actions := c.ListQueuedActions()
	require.Len(t, actions, len(payloads))

	for i, a := range actions {
		got := map[string]string{}
		require.NoError(t, a.Decode(&got))

		if got["op"] != payloads[i]["op"] {
			t.Errorf("position %d: expected op %s, got %s", i, payloads[i]["op"], got["op"])
		}

		if i > 0 && a.Timestamp <= actions[i-1].Timestamp {
			t.Errorf("position %d: expected increasing timestamps", i)
		}

		assert.Zero(t, a.Attempts)
	}
}

func TestClearQueuedActions(t *testing.T) {
	store := newTestStore(t)
	c := newTestCache(t, Options{Store: store})

	c.QueueAction("a")
	c.QueueAction("b")

	assert.Equal(t, OutcomeOK, c.ClearQueuedActions())
	assert.Empty(t, c.ListQueuedActions())
	assert.NotNil(t, c.ListQueuedActions())

	// clearing an empty queue is fine
	assert.Equal(t, OutcomeOK, c.ClearQueuedActions())
}

func TestQueueUnencodablePayload(t *testing.T) {
	c := newTestCache(t, Options{})

	_, outcome := c.QueueAction(make(chan int))

	assert.Equal(t, OutcomeDegraded, outcome)
	assert.Empty(t, c.ListQueuedActions())
}
