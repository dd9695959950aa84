package httpbackend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-go-golems/solomon/pkg/conversation"
	"github.com/go-go-golems/solomon/pkg/security"
	"github.com/go-go-golems/solomon/pkg/transport"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var localOptions = WithURLOptions(security.OutboundURLOptions{AllowHTTP: true, AllowLocalNetworks: true})

func newTestClient(t *testing.T, h http.HandlerFunc, options ...ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, append([]ClientOption{localOptions}, options...)...)
	require.NoError(t, err)
	return c
}

func TestNewClientValidatesBaseURL(t *testing.T) {
	_, err := NewClient("http://localhost:5001")
	assert.Error(t, err)

	_, err = NewClient("ftp://example.com")
	assert.Error(t, err)

	_, err = NewClient("", localOptions)
	assert.NoError(t, err)
}

func TestTextSendsAugmentedPrompt(t *testing.T) {
	var got map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"xin chào.undefined"}`))
	}, WithTargetAgent("agent-7"))

	atts := []conversation.Attachment{{ID: "a", Name: "a.pdf", Size: 1310720, Type: "application/pdf"}}
	out, err := c.Text(context.Background(), "tóm tắt", atts)
	require.NoError(t, err)
	assert.Equal(t, "xin chào", out)
	assert.Equal(t, "tóm tắt [FILE: a.pdf, 1.25MB, application/pdf]", got["message"])
	assert.Equal(t, "agent-7", got["targetAgentId"])
	assert.Len(t, got["attachments"], 1)
}

func TestModeEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/generate-image", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"description":"a cat","imageUrl":"https://img/cat.png"}`))
	})
	mux.HandleFunc("/generate-video", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"description":"clip","videoUrl":"https://v/1.mp4","thumbnailUrl":"https://v/1.jpg"}`))
	})
	mux.HandleFunc("/generate-research", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "go", body["topic"])
		_, _ = w.Write([]byte(`{"summary":"a language"}`))
	})
	mux.HandleFunc("/generate-audio", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"description":"song","audioUrl":"https://a/1.mp3"}`))
	})
	mux.HandleFunc("/create-agent", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "be helpful", body["instruction"])
		_, _ = w.Write([]byte(`{"agentId":"1","name":"Helper","description":"created"}`))
	})
	c := newTestClient(t, mux.ServeHTTP)
	ctx := context.Background()

	reply, err := transport.Dispatch(ctx, c, transport.ModeImage, "cat", nil)
	require.NoError(t, err)
	assert.Equal(t, transport.Reply{Content: "a cat", ImageURL: "https://img/cat.png"}, reply)

	reply, err = transport.Dispatch(ctx, c, transport.ModeVideo, "clip", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://v/1.jpg", reply.ThumbnailURL)

	reply, err = transport.Dispatch(ctx, c, transport.ModeResearch, "go", nil)
	require.NoError(t, err)
	assert.Equal(t, "a language", reply.Content)

	reply, err = transport.Dispatch(ctx, c, transport.ModeAudio, "song", nil)
	require.NoError(t, err)
	assert.Equal(t, "song", reply.Content)

	agent, err := c.CreateAgent(ctx, "be helpful", nil)
	require.NoError(t, err)
	assert.Equal(t, "Helper", agent.Name)
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   string
	}{
		{http.StatusBadRequest, `{"error":"bad prompt"}`, "bad prompt"},
		{http.StatusBadRequest, `{"message":"missing field"}`, "missing field"},
		{http.StatusTeapot, `not json`, "Lỗi 418: I'm a teapot"},
		{http.StatusTooManyRequests, `{}`, "Rate Limit"},
		{http.StatusUnauthorized, `{}`, "API Key"},
		{http.StatusInternalServerError, `{"error":"boom"}`, "Chi tiết: boom"},
	}
	for _, tt := range tests {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte(tt.body))
		})
		_, err := c.Text(context.Background(), "hi", nil)
		require.Error(t, err)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, tt.status, apiErr.StatusCode)
		assert.Contains(t, err.Error(), tt.want)
	}
}

func TestTextRejectsEmptyPrompt(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := c.Text(context.Background(), "  ", nil)
	assert.Error(t, err)
}

func TestAgentsAndToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/list-agents", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"agents":[{"agentId":"1","name":"A","description":"d"}]}`))
	})
	mux.HandleFunc("/delete-agent/1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/validate-token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"token revoked"}`))
	})
	c := newTestClient(t, mux.ServeHTTP)
	ctx := context.Background()

	agents, err := c.ListAgents(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "A", agents[0].Name)

	require.NoError(t, c.DeleteAgent(ctx, "1"))
	assert.Error(t, c.DeleteAgent(ctx, ""))

	status := c.ValidateToken(ctx)
	assert.False(t, status.Valid)
	assert.Equal(t, "token revoked", status.Message)
}
