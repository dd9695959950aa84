// Package transport defines the generation backend contract: one operation
// per generation mode, each taking a prompt and the attachment descriptors.
package transport

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-go-golems/solomon/pkg/conversation"
	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"
)

type Mode int

const (
	ModeText Mode = iota
	ModeImage
	ModeVideo
	ModeResearch
	ModeAudio
	ModeAgentCreation
)

var modeNames = map[Mode]string{
	ModeText:          "text",
	ModeImage:         "image",
	ModeVideo:         "video",
	ModeResearch:      "research",
	ModeAudio:         "audio",
	ModeAgentCreation: "agent-creation",
}

var ErrUnknownMode = errors.New("unknown generation mode")

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

func (m Mode) MarshalText() ([]byte, error) {
	if _, ok := modeNames[m]; !ok {
		return nil, errors.Wrapf(ErrUnknownMode, "%d", int(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMode accepts any casing of the mode names, e.g. "agent_creation",
// "AgentCreation" or "agent-creation". "agent" is short for agent creation.
func ParseMode(s string) (Mode, error) {
	name := strcase.ToKebab(strings.TrimSpace(s))
	if name == "agent" {
		return ModeAgentCreation, nil
	}
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return ModeText, errors.Wrapf(ErrUnknownMode, "%q", s)
}

// Modes lists every mode in declaration order.
func Modes() []Mode {
	return []Mode{ModeText, ModeImage, ModeVideo, ModeResearch, ModeAudio, ModeAgentCreation}
}

type ImageResult struct {
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

type VideoResult struct {
	Description  string `json:"description"`
	VideoURL     string `json:"videoUrl,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

type ResearchResult struct {
	Summary string `json:"summary"`
}

type AudioResult struct {
	Description string `json:"description"`
	AudioURL    string `json:"audioUrl,omitempty"`
}

type AgentResult struct {
	AgentID     string `json:"agentId,omitempty"`
	Name        string `json:"name,omitempty"`
	Instruction string `json:"instruction,omitempty"`
	Description string `json:"description"`
}

// Transport is implemented by every generation backend. Failures are plain
// errors carrying a human readable message.
type Transport interface {
	Text(ctx context.Context, prompt string, attachments []conversation.Attachment) (string, error)
	Image(ctx context.Context, prompt string, attachments []conversation.Attachment) (ImageResult, error)
	Video(ctx context.Context, prompt string, attachments []conversation.Attachment) (VideoResult, error)
	Research(ctx context.Context, prompt string, attachments []conversation.Attachment) (ResearchResult, error)
	Audio(ctx context.Context, prompt string, attachments []conversation.Attachment) (AudioResult, error)
	CreateAgent(ctx context.Context, prompt string, attachments []conversation.Attachment) (AgentResult, error)
}

const (
	ImageFailedText = "Hình ảnh yêu cầu không được tạo thành công."
	VideoFailedText = "Video yêu cầu không được tạo thành công."
)

// Reply is the assistant message payload produced by one generation call.
type Reply struct {
	Content      string
	ImageURL     string
	VideoURL     string
	ThumbnailURL string
}

// Dispatch invokes the operation for mode and folds its result into a Reply.
// A missing media URL is a valid outcome, the reply then carries no media.
func Dispatch(ctx context.Context, t Transport, mode Mode, prompt string, attachments []conversation.Attachment) (Reply, error) {
	switch mode {
	case ModeText:
		s, err := t.Text(ctx, prompt, attachments)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Content: s}, nil
	case ModeImage:
		res, err := t.Image(ctx, prompt, attachments)
		if err != nil {
			return Reply{}, err
		}
		content := res.Description
		if content == "" && res.ImageURL == "" {
			content = ImageFailedText
		}
		return Reply{Content: content, ImageURL: res.ImageURL}, nil
	case ModeVideo:
		res, err := t.Video(ctx, prompt, attachments)
		if err != nil {
			return Reply{}, err
		}
		content := res.Description
		if content == "" && res.VideoURL == "" {
			content = VideoFailedText
		}
		return Reply{Content: content, VideoURL: res.VideoURL, ThumbnailURL: res.ThumbnailURL}, nil
	case ModeResearch:
		res, err := t.Research(ctx, prompt, attachments)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Content: res.Summary}, nil
	case ModeAudio:
		res, err := t.Audio(ctx, prompt, attachments)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Content: res.Description}, nil
	case ModeAgentCreation:
		res, err := t.CreateAgent(ctx, prompt, attachments)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Content: res.Description}, nil
	default:
		return Reply{}, errors.Wrapf(ErrUnknownMode, "%s", mode)
	}
}
