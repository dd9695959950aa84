package session

import (
	"fmt"

	"github.com/go-go-golems/solomon/pkg/conversation"
	"github.com/pkg/errors"
)

// Action is one named transition of a Session.
type Action interface {
	Apply(s *Session) error
	Name() string
}

// Reduce applies actions in order to a copy of s. s itself is never
// modified, and on error the partially reduced copy is discarded.
func Reduce(s Session, actions ...Action) (Session, error) {
	next := s.Clone()
	for _, a := range actions {
		if a == nil {
			return s, errors.New("action is nil")
		}
		if err := a.Apply(&next); err != nil {
			return s, fmt.Errorf("action %s failed: %w", a.Name(), err)
		}
	}
	return next, nil
}

type beginSendAction struct {
	message conversation.Message
}

func (a beginSendAction) Apply(s *Session) error {
	if s.Loading {
		return errors.New("a send is already in flight")
	}
	s.Messages = append(s.Messages, a.message)
	s.Loading = true
	return nil
}

func (a beginSendAction) Name() string { return "begin_send" }

// BeginSend appends the user message and marks the session as loading.
func BeginSend(m conversation.Message) Action {
	return beginSendAction{message: m}
}

type completeSendAction struct {
	message conversation.Message
}

func (a completeSendAction) Apply(s *Session) error {
	s.Messages = append(s.Messages, a.message)
	s.Loading = false
	if s.Restored {
		s.promote()
	}
	return nil
}

func (a completeSendAction) Name() string { return "complete_send" }

// CompleteSend appends the assistant reply and clears loading.
func CompleteSend(m conversation.Message) Action {
	return completeSendAction{message: m}
}

type startNewAction struct{}

func (startNewAction) Apply(s *Session) error {
	s.History = archive(s.History, s.Messages)
	s.Messages = nil
	s.Restored = false
	return nil
}

func (startNewAction) Name() string { return "start_new" }

// StartNew archives a non-empty transcript and starts an empty one.
func StartNew() Action { return startNewAction{} }

type clearAction struct{}

func (clearAction) Apply(s *Session) error {
	s.Messages = nil
	s.Restored = false
	return nil
}

func (clearAction) Name() string { return "clear" }

// Clear drops the transcript without archiving it.
func Clear() Action { return clearAction{} }

type removeFromHistoryAction struct {
	index int
}

func (a removeFromHistoryAction) Apply(s *Session) error {
	if a.index < 0 || a.index >= len(s.History) {
		return errors.Wrapf(ErrIndexOutOfRange, "%d (history has %d entries)", a.index, len(s.History))
	}
	removed := s.History[a.index]
	history := make([]conversation.Conversation, 0, len(s.History)-1)
	history = append(history, s.History[:a.index]...)
	history = append(history, s.History[a.index+1:]...)
	s.History = history

	// the archived copy and the live transcript are the same conversation
	if removed.Equal(s.Messages) {
		s.Messages = nil
		s.Restored = false
	}
	return nil
}

func (a removeFromHistoryAction) Name() string { return "remove_from_history" }

// RemoveFromHistory deletes the archived conversation at index. If it is
// content-equal to the transcript, the transcript is cleared too.
func RemoveFromHistory(index int) Action {
	return removeFromHistoryAction{index: index}
}

type restoreAction struct {
	conversation conversation.Conversation
}

func (a restoreAction) Apply(s *Session) error {
	s.History = archive(s.History, s.Messages)
	s.Messages = append(conversation.Conversation{}, a.conversation...)
	s.Restored = true
	if !s.Loading {
		s.promote()
	}
	return nil
}

func (a restoreAction) Name() string { return "restore" }

// Restore archives the current transcript and makes c the active one.
func Restore(c conversation.Conversation) Action {
	return restoreAction{conversation: c}
}

type clearAllHistoryAction struct{}

func (clearAllHistoryAction) Apply(s *Session) error {
	s.History = nil
	return nil
}

func (clearAllHistoryAction) Name() string { return "clear_all_history" }

func ClearAllHistory() Action { return clearAllHistoryAction{} }

type addToHistoryAction struct {
	conversation conversation.Conversation
}

func (a addToHistoryAction) Apply(s *Session) error {
	s.History = archive(s.History, append(conversation.Conversation{}, a.conversation...))
	return nil
}

func (a addToHistoryAction) Name() string { return "add_to_history" }

// AddToHistory archives c without touching the transcript.
func AddToHistory(c conversation.Conversation) Action {
	return addToHistoryAction{conversation: c}
}

type setModelAction struct {
	catalog Catalog
	id      string
}

func (a setModelAction) Apply(s *Session) error {
	m, ok := a.catalog.Lookup(a.id)
	if !ok {
		return errors.Wrapf(ErrUnknownModel, "%q", a.id)
	}
	s.CurrentModel = m
	return nil
}

func (a setModelAction) Name() string { return "set_model" }

// SetModel selects the catalog entry with the given id.
func SetModel(catalog Catalog, id string) Action {
	return setModelAction{catalog: catalog, id: id}
}

type updateProfileAction struct {
	update ProfileUpdate
}

func (a updateProfileAction) Apply(s *Session) error {
	if a.update.Name != nil {
		s.UserProfile.Name = *a.update.Name
	}
	if a.update.Avatar != nil {
		s.UserProfile.Avatar = *a.update.Avatar
	}
	return nil
}

func (a updateProfileAction) Name() string { return "update_profile" }

func UpdateProfile(u ProfileUpdate) Action {
	return updateProfileAction{update: u}
}
