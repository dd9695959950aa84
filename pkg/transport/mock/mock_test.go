package mock

import (
	"context"
	"testing"
	"time"

	"github.com/go-go-golems/solomon/pkg/transport"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEchoAndRecord(t *testing.T) {
	m := New()
	reply, err := transport.Dispatch(context.Background(), m, transport.ModeText, "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", reply.Content)
	require.Equal(t, 1, m.CallCount())
	assert.Equal(t, transport.ModeText, m.Calls()[0].Mode)
}

func TestFailWith(t *testing.T) {
	m := New().FailWith(transport.ModeVideo, errors.New("boom"))
	_, err := transport.Dispatch(context.Background(), m, transport.ModeVideo, "v", nil)
	require.EqualError(t, err, "boom")
}

func TestGateBlocksUntilReleased(t *testing.T) {
	m := New()
	m.Started = make(chan transport.Mode, 1)
	m.Gate = make(chan struct{})

	done := make(chan string)
	go func() {
		s, _ := m.Text(context.Background(), "x", nil)
		done <- s
	}()

	select {
	case mode := <-m.Started:
		assert.Equal(t, transport.ModeText, mode)
	case <-time.After(time.Second):
		t.Fatal("call did not start")
	}
	close(m.Gate)
	assert.Equal(t, "echo: x", <-done)
}

func TestGateHonorsContext(t *testing.T) {
	m := New()
	m.Gate = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Audio(ctx, "x", nil)
	require.ErrorIs(t, err, context.Canceled)
}
