// Package session owns the conversation state: the active transcript, the
// history archive, model selection and the user profile. Session is a plain
// value changed only through Actions; Engine serializes access to it, talks
// to the transport and persists after every transition.
package session

import (
	"github.com/go-go-golems/solomon/pkg/conversation"
	"github.com/huandu/go-clone"
)

const (
	DefaultProfileName   = "TM"
	DefaultProfileAvatar = "https://placehold.co/100x100/242424/FFFFFF/png?text=U"

	// ApologyText replaces the reply when the transport fails.
	ApologyText = "Xin lỗi, hiện tại tôi không thể xử lý yêu cầu của bạn."
)

type Profile struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// ProfileUpdate is merged field by field into a Profile. Nil fields are kept.
type ProfileUpdate struct {
	Name   *string
	Avatar *string
}

type Session struct {
	Messages     conversation.Conversation
	History      []conversation.Conversation
	Loading      bool
	CurrentModel Model
	UserProfile  Profile

	// Restored is set when the transcript was reached through Restore and
	// cleared by Clear and StartNew. It is not persisted.
	Restored bool
}

// Default returns an empty session on the catalog's default model.
func Default(catalog Catalog) Session {
	return Session{
		CurrentModel: catalog.Default(),
		UserProfile: Profile{
			Name:   DefaultProfileName,
			Avatar: DefaultProfileAvatar,
		},
	}
}

func (s Session) Clone() Session {
	return clone.Clone(s).(Session)
}

// archive prepends c to history, dropping content-equal entries first so
// history never holds the same conversation twice. Empty conversations are
// never archived.
func archive(history []conversation.Conversation, c conversation.Conversation) []conversation.Conversation {
	if c.IsEmpty() {
		return history
	}
	ret := make([]conversation.Conversation, 0, len(history)+1)
	ret = append(ret, c)
	for _, h := range history {
		if !h.Equal(c) {
			ret = append(ret, h)
		}
	}
	return ret
}

// promote moves the history entry content-equal to the transcript to the front.
func (s *Session) promote() bool {
	if s.Messages.IsEmpty() {
		return false
	}
	idx := s.Messages.Index(s.History)
	if idx <= 0 {
		return false
	}
	h := s.History[idx]
	rest := append(append([]conversation.Conversation{}, s.History[:idx]...), s.History[idx+1:]...)
	s.History = append([]conversation.Conversation{h}, rest...)
	return true
}
