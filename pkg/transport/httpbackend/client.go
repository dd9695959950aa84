// Package httpbackend talks to the generation backend over JSON/HTTP.
package httpbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-go-golems/solomon/pkg/conversation"
	"github.com/go-go-golems/solomon/pkg/security"
	"github.com/go-go-golems/solomon/pkg/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const DefaultBaseURL = "http://localhost:5001"

type Client struct {
	baseURL       string
	httpClient    *http.Client
	targetAgentID string
	urlOptions    security.OutboundURLOptions
}

var _ transport.Transport = (*Client)(nil)

type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

func WithTimeout(d time.Duration) ClientOption {
	return func(client *Client) {
		client.httpClient.Timeout = d
	}
}

// WithTargetAgent routes text requests to a previously created agent.
func WithTargetAgent(agentID string) ClientOption {
	return func(client *Client) {
		client.targetAgentID = agentID
	}
}

// WithURLOptions relaxes base URL validation, e.g. for a backend on localhost.
func WithURLOptions(opts security.OutboundURLOptions) ClientOption {
	return func(client *Client) {
		client.urlOptions = opts
	}
}

func NewClient(baseURL string, options ...ClientOption) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, o := range options {
		o(c)
	}
	if err := security.ValidateOutboundURL(c.baseURL, c.urlOptions); err != nil {
		return nil, errors.Wrap(err, "invalid backend base URL")
	}
	return c, nil
}

type chatRequest struct {
	Message       string                    `json:"message"`
	Attachments   []conversation.Attachment `json:"attachments"`
	TargetAgentID string                    `json:"targetAgentId,omitempty"`
}

type promptRequest struct {
	Prompt      string                    `json:"prompt"`
	Attachments []conversation.Attachment `json:"attachments"`
}

type researchRequest struct {
	Topic       string                    `json:"topic"`
	Attachments []conversation.Attachment `json:"attachments"`
}

type agentRequest struct {
	Instruction string                    `json:"instruction"`
	Attachments []conversation.Attachment `json:"attachments"`
}

func (c *Client) Text(ctx context.Context, prompt string, attachments []conversation.Attachment) (string, error) {
	if strings.TrimSpace(prompt) == "" && len(attachments) == 0 {
		return "", errors.New("Tin nhắn không được để trống.")
	}
	var resp struct {
		Response string `json:"response"`
	}
	err := c.do(ctx, http.MethodPost, "/chat", chatRequest{
		Message:       transport.AugmentPrompt(prompt, attachments),
		Attachments:   nonNil(attachments),
		TargetAgentID: c.targetAgentID,
	}, &resp)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(resp.Response, ".undefined"), nil
}

func (c *Client) Image(ctx context.Context, prompt string, attachments []conversation.Attachment) (transport.ImageResult, error) {
	var resp transport.ImageResult
	err := c.do(ctx, http.MethodPost, "/generate-image", promptRequest{
		Prompt:      transport.AugmentPrompt(prompt, attachments),
		Attachments: nonNil(attachments),
	}, &resp)
	return resp, err
}

func (c *Client) Video(ctx context.Context, prompt string, attachments []conversation.Attachment) (transport.VideoResult, error) {
	var resp transport.VideoResult
	err := c.do(ctx, http.MethodPost, "/generate-video", promptRequest{
		Prompt:      transport.AugmentPrompt(prompt, attachments),
		Attachments: nonNil(attachments),
	}, &resp)
	return resp, err
}

func (c *Client) Research(ctx context.Context, prompt string, attachments []conversation.Attachment) (transport.ResearchResult, error) {
	var resp transport.ResearchResult
	err := c.do(ctx, http.MethodPost, "/generate-research", researchRequest{
		Topic:       transport.AugmentPrompt(prompt, attachments),
		Attachments: nonNil(attachments),
	}, &resp)
	return resp, err
}

func (c *Client) Audio(ctx context.Context, prompt string, attachments []conversation.Attachment) (transport.AudioResult, error) {
	var resp transport.AudioResult
	err := c.do(ctx, http.MethodPost, "/generate-audio", promptRequest{
		Prompt:      transport.AugmentPrompt(prompt, attachments),
		Attachments: nonNil(attachments),
	}, &resp)
	return resp, err
}

func (c *Client) CreateAgent(ctx context.Context, prompt string, attachments []conversation.Attachment) (transport.AgentResult, error) {
	var resp transport.AgentResult
	err := c.do(ctx, http.MethodPost, "/create-agent", agentRequest{
		Instruction: transport.AugmentPrompt(prompt, attachments),
		Attachments: nonNil(attachments),
	}, &resp)
	return resp, err
}

type TokenStatus struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// ValidateToken never fails, problems are reported through the status.
func (c *Client) ValidateToken(ctx context.Context) TokenStatus {
	var resp TokenStatus
	err := c.do(ctx, http.MethodPost, "/validate-token", struct{}{}, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return TokenStatus{Message: apiErr.Message}
		}
		return TokenStatus{Message: err.Error()}
	}
	if resp.Message == "" {
		resp.Message = "Token hợp lệ."
	}
	return resp
}

func (c *Client) ListAgents(ctx context.Context) ([]transport.AgentResult, error) {
	var resp struct {
		Agents []transport.AgentResult `json:"agents"`
	}
	if err := c.do(ctx, http.MethodGet, "/list-agents", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Agents, nil
}

func (c *Client) DeleteAgent(ctx context.Context, agentID string) error {
	if agentID == "" {
		return errors.New("agent id is required")
	}
	return c.do(ctx, http.MethodDelete, "/delete-agent/"+url.PathEscape(agentID), nil, nil)
}

func nonNil(attachments []conversation.Attachment) []conversation.Attachment {
	if attachments == nil {
		return []conversation.Attachment{}
	}
	return attachments
}

func (c *Client) do(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error marshaling request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log.Debug().Str("method", method).Str("endpoint", endpoint).Msg("calling backend")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "không thể kết nối đến server (%s)", endpoint)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Lỗi %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
		var e errorResponse
		if json.Unmarshal(respBody, &e) == nil {
			if e.Error != "" {
				apiErr.Message = e.Error
			} else if e.Message != "" {
				apiErr.Message = e.Message
			}
		}
		log.Error().Str("endpoint", endpoint).Int("status", resp.StatusCode).Str("message", apiErr.Message).Msg("backend returned an error")
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return errors.Wrapf(err, "dữ liệu trả về từ server không hợp lệ (%s)", endpoint)
	}
	return nil
}
