package conversation

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "ai"
)

func (s Sender) String() string {
	return string(s)
}

// UnmarshalText accepts the persisted names as well as "assistant".
func (s *Sender) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "user":
		*s = SenderUser
	case "ai", "assistant", "bot":
		*s = SenderAssistant
	default:
		return fmt.Errorf("unknown sender %q", string(b))
	}
	return nil
}

func (s Sender) MarshalText() ([]byte, error) {
	return []byte(s), nil
}

// Message is one transcript entry. Identity fields and content are set at
// creation and never change afterwards.
type Message struct {
	ID           string       `json:"id"`
	Content      string       `json:"content"`
	Sender       Sender       `json:"sender"`
	Timestamp    time.Time    `json:"timestamp"`
	Attachments  []Attachment `json:"attachments,omitempty"`
	ImageURL     string       `json:"imageUrl,omitempty"`
	VideoURL     string       `json:"videoUrl,omitempty"`
	ThumbnailURL string       `json:"thumbnailUrl,omitempty"`
}

type MessageOption func(*Message)

func WithID(id string) MessageOption {
	return func(m *Message) {
		m.ID = id
	}
}

func WithTime(t time.Time) MessageOption {
	return func(m *Message) {
		m.Timestamp = t
	}
}

func WithAttachments(attachments ...Attachment) MessageOption {
	return func(m *Message) {
		m.Attachments = append(m.Attachments, attachments...)
	}
}

func WithImageURL(url string) MessageOption {
	return func(m *Message) {
		m.ImageURL = url
	}
}

func WithVideo(videoURL, thumbnailURL string) MessageOption {
	return func(m *Message) {
		m.VideoURL = videoURL
		m.ThumbnailURL = thumbnailURL
	}
}

func NewMessage(sender Sender, content string, options ...MessageOption) Message {
	ret := Message{
		ID:        uuid.NewString(),
		Content:   content,
		Sender:    sender,
		Timestamp: time.Now(),
	}
	for _, option := range options {
		option(&ret)
	}
	return ret
}

func NewUserMessage(content string, options ...MessageOption) Message {
	return NewMessage(SenderUser, content, options...)
}

func NewAssistantMessage(content string, options ...MessageOption) Message {
	return NewMessage(SenderAssistant, content, options...)
}

// Equal reports content equality. Timestamps compare at millisecond resolution
// since that is what survives persistence.
func (m Message) Equal(other Message) bool {
	if m.ID != other.ID ||
		m.Content != other.Content ||
		m.Sender != other.Sender ||
		m.Timestamp.UnixMilli() != other.Timestamp.UnixMilli() ||
		m.ImageURL != other.ImageURL ||
		m.VideoURL != other.VideoURL ||
		m.ThumbnailURL != other.ThumbnailURL {
		return false
	}
	if len(m.Attachments) != len(other.Attachments) {
		return false
	}
	for i := range m.Attachments {
		if m.Attachments[i] != other.Attachments[i] {
			return false
		}
	}
	return true
}

func (m Message) MarshalJSON() ([]byte, error) {
	type Alias Message
	return json.Marshal(&struct {
		Alias
		Timestamp int64 `json:"timestamp"`
	}{
		Alias:     Alias(m),
		Timestamp: m.Timestamp.UnixMilli(),
	})
}

func (m *Message) UnmarshalJSON(b []byte) error {
	type Alias Message
	aux := &struct {
		*Alias
		Timestamp int64 `json:"timestamp"`
	}{
		Alias: (*Alias)(m),
	}
	if err := json.Unmarshal(b, aux); err != nil {
		return err
	}
	m.Timestamp = time.UnixMilli(aux.Timestamp)
	return nil
}
