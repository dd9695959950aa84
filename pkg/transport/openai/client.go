// Package openai implements the generation contract on top of an
// OpenAI-compatible API. Text-like modes use chat completions, image mode uses
// image generation. Video and audio modes only produce descriptions.
package openai

import (
	"context"
	"strings"

	"github.com/go-go-golems/solomon/pkg/conversation"
	"github.com/go-go-golems/solomon/pkg/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"
)

const DefaultModel = "gpt-4o-mini"

// API is the subset of *go_openai.Client used here.
type API interface {
	CreateChatCompletion(ctx context.Context, req go_openai.ChatCompletionRequest) (go_openai.ChatCompletionResponse, error)
	CreateImage(ctx context.Context, req go_openai.ImageRequest) (go_openai.ImageResponse, error)
}

type Client struct {
	api       API
	model     string
	templates map[transport.Mode]PromptTemplate
}

var _ transport.Transport = (*Client)(nil)

type ClientOption func(*Client)

func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

func WithTemplate(mode transport.Mode, t PromptTemplate) ClientOption {
	return func(c *Client) {
		c.templates[mode] = t
	}
}

func WithAPI(api API) ClientOption {
	return func(c *Client) {
		c.api = api
	}
}

// NewClient builds a client for apiKey. baseURL may point at any
// OpenAI-compatible server.
func NewClient(apiKey string, baseURL string, options ...ClientOption) (*Client, error) {
	c := &Client{
		model:     DefaultModel,
		templates: map[transport.Mode]PromptTemplate{},
	}
	for mode, t := range defaultTemplates {
		c.templates[mode] = t
	}
	for _, o := range options {
		o(c)
	}
	if c.api == nil {
		if apiKey == "" {
			return nil, errors.New("openai api key is required")
		}
		config := go_openai.DefaultConfig(apiKey)
		if baseURL != "" {
			config.BaseURL = baseURL
		}
		c.api = go_openai.NewClientWithConfig(config)
	}
	return c, nil
}

func (c *Client) complete(ctx context.Context, mode transport.Mode, prompt string, attachments []conversation.Attachment) (string, error) {
	t := c.templates[mode]
	data := templateData{Prompt: prompt, Attachments: attachments}
	user, err := renderTemplate(mode.String(), t.User, data)
	if err != nil {
		return "", err
	}

	messages := []go_openai.ChatCompletionMessage{}
	if t.System != "" {
		messages = append(messages, go_openai.ChatCompletionMessage{
			Role:    go_openai.ChatMessageRoleSystem,
			Content: t.System,
		})
	}
	messages = append(messages, go_openai.ChatCompletionMessage{
		Role:    go_openai.ChatMessageRoleUser,
		Content: user,
	})

	log.Debug().Str("mode", mode.String()).Str("model", c.model).Msg("openai chat completion")
	resp, err := c.api.CreateChatCompletion(ctx, go_openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", errors.Wrapf(err, "openai %s request failed", mode)
	}
	if len(resp.Choices) == 0 {
		return "", errors.Errorf("openai %s request returned no choices", mode)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) Text(ctx context.Context, prompt string, attachments []conversation.Attachment) (string, error) {
	return c.complete(ctx, transport.ModeText, prompt, attachments)
}

func (c *Client) Image(ctx context.Context, prompt string, attachments []conversation.Attachment) (transport.ImageResult, error) {
	p, err := renderTemplate("image", c.templates[transport.ModeImage].User, templateData{Prompt: prompt, Attachments: attachments})
	if err != nil {
		return transport.ImageResult{}, err
	}
	resp, err := c.api.CreateImage(ctx, go_openai.ImageRequest{
		Prompt:         p,
		N:              1,
		Size:           go_openai.CreateImageSize1024x1024,
		ResponseFormat: go_openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return transport.ImageResult{}, errors.Wrap(err, "openai image request failed")
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return transport.ImageResult{}, nil
	}
	return transport.ImageResult{Description: strings.TrimSpace(prompt), ImageURL: resp.Data[0].URL}, nil
}

func (c *Client) Video(ctx context.Context, prompt string, attachments []conversation.Attachment) (transport.VideoResult, error) {
	s, err := c.complete(ctx, transport.ModeVideo, prompt, attachments)
	if err != nil {
		return transport.VideoResult{}, err
	}
	return transport.VideoResult{Description: s}, nil
}

func (c *Client) Research(ctx context.Context, prompt string, attachments []conversation.Attachment) (transport.ResearchResult, error) {
	s, err := c.complete(ctx, transport.ModeResearch, prompt, attachments)
	if err != nil {
		return transport.ResearchResult{}, err
	}
	return transport.ResearchResult{Summary: s}, nil
}

func (c *Client) Audio(ctx context.Context, prompt string, attachments []conversation.Attachment) (transport.AudioResult, error) {
	s, err := c.complete(ctx, transport.ModeAudio, prompt, attachments)
	if err != nil {
		return transport.AudioResult{}, err
	}
	return transport.AudioResult{Description: s}, nil
}

func (c *Client) CreateAgent(ctx context.Context, prompt string, attachments []conversation.Attachment) (transport.AgentResult, error) {
	s, err := c.complete(ctx, transport.ModeAgentCreation, prompt, attachments)
	if err != nil {
		return transport.AgentResult{}, err
	}
	return transport.AgentResult{Instruction: prompt, Description: s}, nil
}
