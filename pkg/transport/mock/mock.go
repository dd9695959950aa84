// Package mock provides a scripted Transport for tests and offline use.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-go-golems/solomon/pkg/conversation"
	"github.com/go-go-golems/solomon/pkg/transport"
)

// Call records one invocation.
type Call struct {
	Mode        transport.Mode
	Prompt      string
	Attachments []conversation.Attachment
}

// Transport answers every mode from configured values. An empty TextReply
// echoes the prompt. When Gate is set, each call blocks until a value is
// received from it or ctx is done.
type Transport struct {
	mu    sync.Mutex
	calls []Call

	TextReply       string
	ImageResult     transport.ImageResult
	VideoResult     transport.VideoResult
	ResearchSummary string
	AudioResult     transport.AudioResult
	AgentResult     transport.AgentResult
	Errors          map[transport.Mode]error

	// Started receives the mode of every call before it blocks on Gate.
	Started chan transport.Mode
	Gate    chan struct{}
}

var _ transport.Transport = (*Transport)(nil)

func New() *Transport {
	return &Transport{
		Errors: map[transport.Mode]error{},
	}
}

// FailWith makes every call in mode return err.
func (t *Transport) FailWith(mode transport.Mode, err error) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Errors[mode] = err
	return t
}

func (t *Transport) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Call(nil), t.calls...)
}

func (t *Transport) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}

func (t *Transport) record(ctx context.Context, mode transport.Mode, prompt string, atts []conversation.Attachment) error {
	t.mu.Lock()
	t.calls = append(t.calls, Call{Mode: mode, Prompt: prompt, Attachments: atts})
	err := t.Errors[mode]
	started, gate := t.Started, t.Gate
	t.mu.Unlock()

	if started != nil {
		started <- mode
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (t *Transport) Text(ctx context.Context, prompt string, atts []conversation.Attachment) (string, error) {
	if err := t.record(ctx, transport.ModeText, prompt, atts); err != nil {
		return "", err
	}
	if t.TextReply == "" {
		return fmt.Sprintf("echo: %s", transport.AugmentPrompt(prompt, atts)), nil
	}
	return t.TextReply, nil
}

func (t *Transport) Image(ctx context.Context, prompt string, atts []conversation.Attachment) (transport.ImageResult, error) {
	if err := t.record(ctx, transport.ModeImage, prompt, atts); err != nil {
		return transport.ImageResult{}, err
	}
	return t.ImageResult, nil
}

func (t *Transport) Video(ctx context.Context, prompt string, atts []conversation.Attachment) (transport.VideoResult, error) {
	if err := t.record(ctx, transport.ModeVideo, prompt, atts); err != nil {
		return transport.VideoResult{}, err
	}
	return t.VideoResult, nil
}

func (t *Transport) Research(ctx context.Context, prompt string, atts []conversation.Attachment) (transport.ResearchResult, error) {
	if err := t.record(ctx, transport.ModeResearch, prompt, atts); err != nil {
		return transport.ResearchResult{}, err
	}
	return transport.ResearchResult{Summary: t.ResearchSummary}, nil
}

func (t *Transport) Audio(ctx context.Context, prompt string, atts []conversation.Attachment) (transport.AudioResult, error) {
	if err := t.record(ctx, transport.ModeAudio, prompt, atts); err != nil {
		return transport.AudioResult{}, err
	}
	return t.AudioResult, nil
}

func (t *Transport) CreateAgent(ctx context.Context, prompt string, atts []conversation.Attachment) (transport.AgentResult, error) {
	if err := t.record(ctx, transport.ModeAgentCreation, prompt, atts); err != nil {
		return transport.AgentResult{}, err
	}
	return t.AgentResult, nil
}
