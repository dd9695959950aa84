package events

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startRouter(t *testing.T, r *EventRouter) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = r.Close()
	})
	go func() {
		_ = r.Run(ctx)
	}()
	select {
	case <-r.Running():
	case <-time.After(2 * time.Second):
		t.Fatal("router did not start")
	}
}

func TestSessionEventsFlowThroughRouter(t *testing.T) {
	r, err := NewEventRouter()
	require.NoError(t, err)

	type received struct {
		ev          *SessionEvent
		seq         string
		correlation string
	}
	got := make(chan received, 4)
	r.AddHandler("collect", TopicSession, func(msg *message.Message) error {
		ev, err := NewSessionEventFromJSON(msg.Payload)
		if err != nil {
			return err
		}
		got <- received{ev, msg.Metadata.Get(SequenceNumberMetadataKey), msg.Metadata.Get(CorrelationIDMetadataKey)}
		return nil
	})
	startRouter(t, r)

	pm := NewPublisherManager()
	pm.SubscribePublisher(TopicSession, r.Publisher)

	ctx := ContextWithCorrelationID(context.Background(), "abc")
	require.NoError(t, pm.Publish(ctx, SessionEvent{Transition: TransitionSendStarted, MessageCount: 1, Loading: true}))
	pm.PublishBlind(context.Background(), SessionEvent{Transition: TransitionSendCompleted, MessageCount: 2})

	first := <-got
	assert.Equal(t, TransitionSendStarted, first.ev.Transition)
	assert.True(t, first.ev.Loading)
	assert.Equal(t, "0", first.seq)
	assert.Equal(t, "abc", first.correlation)

	second := <-got
	assert.Equal(t, TransitionSendCompleted, second.ev.Transition)
	assert.Equal(t, "1", second.seq)
	assert.True(t, strings.HasPrefix(second.correlation, "gen_"))
}

func TestDumpEvents(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewEventRouter(WithOutput(&buf))
	require.NoError(t, err)

	msg := message.NewMessage("1", []byte(`{"transition":"cleared","messageCount":0,"historyCount":2,"loading":false,"time":"2024-01-01T00:00:00Z"}`))
	require.NoError(t, r.DumpEvents(msg))
	assert.Contains(t, buf.String(), `"transition": "cleared"`)
	assert.Contains(t, buf.String(), `"historyCount": 2`)

	buf.Reset()
	require.NoError(t, r.DumpEvents(message.NewMessage("2", []byte(`not json`))))
	assert.Empty(t, buf.String())
}

func TestNewSessionEventFromJSONRequiresTransition(t *testing.T) {
	_, err := NewSessionEventFromJSON([]byte(`{"messageCount":1}`))
	require.Error(t, err)
}

func TestCorrelationIDFromContext(t *testing.T) {
	ctx := ContextWithCorrelationID(context.Background(), "xyz")
	assert.Equal(t, "xyz", CorrelationIDFromContext(ctx))
	assert.True(t, strings.HasPrefix(CorrelationIDFromContext(context.Background()), "gen_"))
	assert.NotEmpty(t, NewCorrelationID())
}
